// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identifier - the 32 byte identifier naming one stored asset
//
// Uniqueness is only enforced by a catalog lookup at creation time,
// the random source provides collision avoidance, not a guarantee.
package identifier

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/getlynx/chainstored/fault"
)

// Length - byte size of an identifier
const Length = 32

// HexLength - size of the hex representation
const HexLength = 2 * Length

// Identifier - the identifier type
// to get the bytes value just use identifier[:]
type Identifier [Length]byte

// New - generate a fresh identifier from the CSPRNG
func New() (Identifier, error) {
	var id Identifier
	if _, err := rand.Read(id[:]); nil != err {
		return Identifier{}, err
	}
	return id, nil
}

// FromHexString - convert and validate a 64 character hex string
func FromHexString(s string) (Identifier, error) {
	var id Identifier
	if HexLength != len(s) {
		return Identifier{}, fault.ErrIdentifierLength
	}
	byteCount, err := hex.Decode(id[:], []byte(s))
	if nil != err {
		return Identifier{}, err
	}
	if Length != byteCount {
		return Identifier{}, fault.ErrIdentifierLength
	}
	return id, nil
}

// String - convert a binary identifier to hex text for use by the fmt package (for %s)
func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// GoString - convert a binary identifier to hex text for use by the fmt package (for %#v)
func (id Identifier) GoString() string {
	return "<identifier:" + hex.EncodeToString(id[:]) + ">"
}

// MarshalText - convert identifier to hex text
func (id Identifier) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(id)))
	hex.Encode(buffer, id[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into an identifier
func (id *Identifier) UnmarshalText(s []byte) error {
	if len(id) != hex.DecodedLen(len(s)) {
		return fault.ErrIdentifierLength
	}
	byteCount, err := hex.Decode(id[:], s)
	if nil != err {
		return err
	}
	if Length != byteCount {
		return fault.ErrIdentifierLength
	}
	return nil
}

// IsZero - true for the all-zero identifier
func (id Identifier) IsZero() bool {
	for _, b := range id {
		if 0 != b {
			return false
		}
	}
	return true
}
