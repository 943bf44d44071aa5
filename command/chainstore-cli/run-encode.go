// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/getlynx/chainstored/chunkrecord"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/identity"
)

func runEncode(c *cli.Context) error {

	fileName := c.String("file")
	if "" == fileName {
		return cli.NewExitError("file is required", 1)
	}

	keyHex := c.String("key")
	if "" == keyHex {
		return cli.NewExitError("key is required", 1)
	}
	key, err := identity.PrivateKeyFromHex(keyHex)
	if nil != err {
		return cli.NewExitError(err.Error(), 1)
	}

	uuid := identifier.Identifier{}
	if uuidHex := c.String("uuid"); "" != uuidHex {
		uuid, err = identifier.FromHexString(uuidHex)
		if nil != err {
			return cli.NewExitError(err.Error(), 1)
		}
	} else {
		uuid, err = identifier.New()
		if nil != err {
			return cli.NewExitError(err.Error(), 1)
		}
	}

	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return cli.NewExitError(err.Error(), 1)
	}

	extension := strings.TrimPrefix(filepath.Ext(fileName), ".")
	if len(extension) > chunkrecord.ExtensionLength {
		extension = ""
	}

	records, err := chunkrecord.Encode(data, extension, uuid, key)
	if nil != err {
		return cli.NewExitError(err.Error(), 1)
	}

	out := c.App.Writer
	if outputName := c.String("output"); "" != outputName {
		f, err := os.Create(outputName)
		if nil != err {
			return cli.NewExitError(err.Error(), 1)
		}
		defer f.Close()
		out = f
	}

	for _, record := range records {
		fmt.Fprintf(out, "%s\n", record)
	}

	fmt.Fprintf(c.App.ErrWriter, "uuid: %s  records: %d\n", uuid, len(records))
	return nil
}
