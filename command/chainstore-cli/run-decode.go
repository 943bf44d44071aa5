// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/getlynx/chainstored/assembler"
	"github.com/getlynx/chainstored/chunkrecord"
	"github.com/getlynx/chainstored/fault"
)

func runDecode(c *cli.Context) error {

	inputName := c.String("input")
	if "" == inputName {
		return cli.NewExitError("input is required", 1)
	}
	outputName := c.String("output")
	if "" == outputName {
		return cli.NewExitError("output is required", 1)
	}

	f, err := os.Open(inputName)
	if nil != err {
		return cli.NewExitError(err.Error(), 1)
	}
	defer f.Close()

	var header *chunkrecord.Header
	var chunks []*chunkrecord.Data

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 4096), 4096)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if "" == line {
			continue
		}
		record, err := chunkrecord.Unpack(line, 0)
		if nil != err {
			return cli.NewExitError(err.Error(), 1)
		}
		switch r := record.(type) {
		case *chunkrecord.Header:
			header = r
		case *chunkrecord.Data:
			chunks = append(chunks, r)
		}
	}
	if err := scanner.Err(); nil != err {
		return cli.NewExitError(err.Error(), 1)
	}

	if nil == header {
		return cli.NewExitError(fault.ErrHeaderNotFound.Error(), 1)
	}
	signer, err := chunkrecord.VerifyHeader(header)
	if nil != err {
		return cli.NewExitError(err.Error(), 1)
	}

	// dump lines may be in any order
	if 0 != len(chunks) {
		total := int(chunks[0].Total)
		ordered := make([]*chunkrecord.Data, total)
		for _, chunk := range chunks {
			if 0 == chunk.Sequence || int(chunk.Sequence) > total {
				return cli.NewExitError(fault.ErrChunkNumber.Error(), 1)
			}
			ordered[chunk.Sequence-1] = chunk
		}
		for _, chunk := range ordered {
			if nil == chunk {
				return cli.NewExitError(fault.ErrIncompleteChunkSet.Error(), 1)
			}
		}
		chunks = ordered
	}

	path, err := assembler.WriteFile(chunks, outputName)
	if nil != err {
		return cli.NewExitError(err.Error(), 1)
	}

	fmt.Fprintf(c.App.ErrWriter, "uuid: %s  signer: %s  written: %s\n", header.UUID, signer, path)
	return nil
}
