// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// offline companion tool: key generation and the chunk codec without
// a node or a running daemon
package main

import (
	"os"

	"github.com/urfave/cli"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {

	app := cli.NewApp()
	app.Name = "chainstore-cli"
	app.Usage = "offline chunk codec and key tool"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "testnet, t",
			Usage: " render addresses for a test network",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "generate",
			Usage:  "generate a signing key pair",
			Action: runGenerate,
		},
		{
			Name:      "encode",
			Usage:     "encode a file into a chunk record dump, one hex record per line",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file, f",
					Value: "",
					Usage: "*file to encode `PATH`",
				},
				cli.StringFlag{
					Name:  "key, k",
					Value: "",
					Usage: "*signing key `HEX`",
				},
				cli.StringFlag{
					Name:  "uuid, u",
					Value: "",
					Usage: " asset identifier `HEX`, random when omitted",
				},
				cli.StringFlag{
					Name:  "output, o",
					Value: "",
					Usage: " dump file `PATH`, stdout when omitted",
				},
			},
			Action: runEncode,
		},
		{
			Name:      "decode",
			Usage:     "reassemble a chunk record dump back into a file",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "input, i",
					Value: "",
					Usage: "*dump file `PATH`",
				},
				cli.StringFlag{
					Name:  "output, o",
					Value: "",
					Usage: "*destination `PATH`",
				},
			},
			Action: runDecode,
		},
	}

	if err := app.Run(os.Args); nil != err {
		os.Exit(1)
	}
}
