// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/getlynx/chainstored/background"
	"github.com/getlynx/chainstored/chain"
	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identity"
	"github.com/getlynx/chainstored/indexer"
	"github.com/getlynx/chainstored/ledger"
	"github.com/getlynx/chainstored/noderpc"
	"github.com/getlynx/chainstored/rpc"
	"github.com/getlynx/chainstored/storage"
	"github.com/getlynx/chainstored/worker"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, _, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["help"]) > 0 {
		exitwithstatus.Message("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE", program)
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: exactly one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// channel of last resort for fatal conditions
	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: fault setup failed with error: %s", program, err)
	}
	defer fault.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// fixed chain parameters
	parameters, ok := chain.Get(theConfiguration.Chain)
	if !ok {
		exitwithstatus.Message("%s: unsupported chain: %q", program, theConfiguration.Chain)
	}
	rootHex := parameters.RootIdentity
	if "" != theConfiguration.RootIdentity {
		// local/testing setups run their own root
		rootHex = theConfiguration.RootIdentity
	}
	root, err := identity.FromHexString(rootHex)
	if nil != err {
		exitwithstatus.Message("%s: invalid root identity: %q  error: %s", program, rootHex, err)
	}

	log.Infof("chain: %s  start height: %d", theConfiguration.Chain, parameters.StartHeight)
	log.Infof("root identity: %s", root)
	log.Infof("database: %q", theConfiguration.Database.Name)

	// start the data storage
	log.Info("initialise storage")
	err = storage.Initialise(theConfiguration.Database.Name, storage.ReadWrite)
	if nil != err {
		fault.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer storage.Finalise()

	// the signing key
	keyHex, err := ioutil.ReadFile(theConfiguration.SigningKeyFile)
	if nil != err {
		fault.Criticalf("signing key read error: %s", err)
		exitwithstatus.Message("signing key: %q read error: %s", theConfiguration.SigningKeyFile, err)
	}
	key, err := identity.PrivateKeyFromHex(strings.TrimSpace(string(keyHex)))
	if nil != err {
		fault.Criticalf("signing key decode error: %s", err)
		exitwithstatus.Message("signing key: %q decode error: %s", theConfiguration.SigningKeyFile, err)
	}
	log.Infof("signing identity: %s", key.Identity())

	// the node connection doubles as chain reader and wallet
	client := noderpc.New(
		theConfiguration.Node.URL,
		theConfiguration.Node.Username,
		theConfiguration.Node.Password,
		key,
	)

	// rebuild the authorization ledger from the chain
	log.Info("replay authorization records")
	l := ledger.New(root, parameters.GenesisTimestamp)
	l.Seed()
	if err := l.Replay(client, parameters.StartHeight); nil != err {
		fault.Criticalf("ledger replay error: %s", err)
		exitwithstatus.Message("ledger replay error: %s", err)
	}
	log.Infof("ledger watermark: %d  authorized: %d", l.Watermark(), len(l.Authorized()))

	ix := indexer.New(client, l, parameters.StartHeight)

	// job worker
	w := worker.New(ix, l, client, time.Duration(theConfiguration.TickSeconds)*time.Second)
	processes := background.Start(background.Processes{w}, nil)
	defer processes.Stop()

	// the exposed operation surface
	addressVersion := identity.TestnetVersion
	if chain.Lynx == theConfiguration.Chain {
		addressVersion = identity.LivenetVersion
	}
	server, err := rpc.New(w, ix, l, client, client, theConfiguration.Users, addressVersion, version)
	if nil != err {
		fault.Criticalf("rpc setup error: %s", err)
		exitwithstatus.Message("rpc setup error: %s", err)
	}

	serverFailed := make(chan error, 1)
	go func() {
		serverFailed <- server.Serve(theConfiguration.Listen)
	}()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-ch:
		log.Infof("received signal: %v", sig)
		if 0 == len(options["quiet"]) {
			fmt.Printf("\nreceived signal: %v\n", sig)
			fmt.Printf("\nshutting down…\n")
		}
	case err := <-serverFailed:
		log.Criticalf("rpc server error: %s", err)
	}

	log.Info("shutting down…")
}
