// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package script - framing of storage records inside output scripts
//
// All storage records travel as the single data push of an OP_RETURN
// output.  The functions here work on the hex rendering of the script
// and only locate and classify the pushed payload, validation of the
// record itself belongs to the codec packages.
package script

import (
	"fmt"
	"strings"
)

// record kind magics, 4 bytes as 8 lowercase hex characters on the wire
const (
	DataMagic        = "6b1e55f0" // file chunk records
	AuthMagic        = "6b1e55f1" // tenant authorization records
	UUIDBlockMagic   = "6b1e55f2" // identifier blocking records
	TenantBlockMagic = "6b1e55f3" // tenant blocking records

	MagicHexLength = 8
)

// Kind - classification of a located payload
type Kind int

// possible classifications
const (
	Unknown Kind = iota
	Data
	Authorization
	UUIDBlock
	TenantBlock
)

// opcodes as hex digit pairs
const (
	opReturn    = "6a"
	opPushData1 = "4c"
	opPushData2 = "4d"
)

// IsOpReturn - check for the OP_RETURN opcode in first position
func IsOpReturn(scriptHex string) bool {
	return strings.HasPrefix(scriptHex, opReturn)
}

// PayloadOffset - hex offset of the pushed payload inside an OP_RETURN script
//
// The push opcode follows OP_RETURN: OP_PUSHDATA2 carries a two byte
// length so the payload starts at hex offset 8, OP_PUSHDATA1 carries
// one length byte giving offset 6, any direct push is the length
// itself giving offset 4.  No validation happens here, the returned
// offset simply indexes into the caller's existing hex string.
func PayloadOffset(scriptHex string) int {
	if len(scriptHex) < 4 {
		return 4
	}
	switch scriptHex[2:4] {
	case opPushData2:
		return 8
	case opPushData1:
		return 6
	default:
		return 4
	}
}

// Classify - identify the record kind by the magic at offset
func Classify(scriptHex string, offset int) Kind {
	if offset < 0 || len(scriptHex) < offset+MagicHexLength {
		return Unknown
	}
	switch scriptHex[offset : offset+MagicHexLength] {
	case DataMagic:
		return Data
	case AuthMagic:
		return Authorization
	case UUIDBlockMagic:
		return UUIDBlock
	case TenantBlockMagic:
		return TenantBlock
	default:
		return Unknown
	}
}

// Enclose - wrap a record in an OP_RETURN script
//
// The inverse of PayloadOffset: chooses the smallest push encoding
// for the record (push length bytes are little-endian as in script).
func Enclose(recordHex string) string {
	n := len(recordHex) / 2
	switch {
	case n <= 75:
		return fmt.Sprintf("%s%02x%s", opReturn, n, recordHex)
	case n < 256:
		return fmt.Sprintf("%s%s%02x%s", opReturn, opPushData1, n, recordHex)
	default:
		return fmt.Sprintf("%s%s%02x%02x%s", opReturn, opPushData2, n&0xff, n>>8, recordHex)
	}
}

// String - name of a kind for log messages
func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Authorization:
		return "authorization"
	case UUIDBlock:
		return "uuid-block"
	case TenantBlock:
		return "tenant-block"
	default:
		return "unknown"
	}
}
