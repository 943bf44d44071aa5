// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli"

	"github.com/getlynx/chainstored/identity"
)

func runGenerate(c *cli.Context) error {

	key, err := identity.NewPrivateKey()
	if nil != err {
		return cli.NewExitError(err.Error(), 1)
	}

	addressVersion := identity.LivenetVersion
	if c.GlobalBool("testnet") {
		addressVersion = identity.TestnetVersion
	}

	out, err := json.MarshalIndent(map[string]string{
		"private_key": key.Hex(),
		"identity":    key.Identity().String(),
		"address":     key.Identity().Address(addressVersion),
	}, "", "  ")
	if nil != err {
		return cli.NewExitError(err.Error(), 1)
	}

	fmt.Fprintf(c.App.Writer, "%s\n", out)
	return nil
}
