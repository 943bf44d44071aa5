// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package assembler - turn a located chunk set back into a file
//
// Thin file layer over the chunk codec's decode path: the indexer
// delivers chunks already in sequence order, this package streams
// them to disk and applies the extension rename.
package assembler

import (
	"os"

	"github.com/getlynx/chainstored/chunkrecord"
	"github.com/getlynx/chainstored/fault"
)

// WriteFile - decode a chunk set into the destination path
//
// When the stream carries an extension the written file is renamed to
// destination.extension and that final path is returned.  On any
// decode failure the partial file is removed so a bad chunk can never
// leave corrupt output behind.
func WriteFile(chunks []*chunkrecord.Data, destination string) (string, error) {
	out, err := os.Create(destination)
	if nil != err {
		return "", fault.ErrFileOpen
	}

	extension, err := chunkrecord.Decode(chunks, out)
	if nil != err {
		out.Close()
		os.Remove(destination)
		return "", err
	}
	if err := out.Close(); nil != err {
		os.Remove(destination)
		return "", fault.ErrFileWrite
	}

	if "" == extension {
		return destination, nil
	}

	renamed := destination + "." + extension
	if err := os.Rename(destination, renamed); nil != err {
		return "", fault.ErrExtensionRename
	}
	return renamed, nil
}
