// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identity - tenant identities
//
// An identity is the RIPEMD160(SHA256(compressed public key)) of a
// secp256k1 key pair.  All record signatures are 65 byte compact
// recoverable signatures so the signer's identity can always be
// reconstructed from the record itself.
package identity

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"

	"github.com/getlynx/chainstored/fault"
)

// Length - byte size of an identity
const Length = 20

// SignatureLength - byte size of a compact recoverable signature
const SignatureLength = 65

// address version bytes
const (
	LivenetVersion byte = 0x2d
	TestnetVersion byte = 0x6f
)

// Identity - the hash160 of a recovered public key
type Identity [Length]byte

// Signature - a compact recoverable signature
type Signature []byte

// FromPublicKey - derive the identity of a public key
func FromPublicKey(publicKey *btcec.PublicKey) Identity {
	var id Identity
	digest := sha256.Sum256(publicKey.SerializeCompressed())
	h := ripemd160.New()
	h.Write(digest[:])
	copy(id[:], h.Sum(nil))
	return id
}

// FromHexString - convert and validate a 40 character hex string
func FromHexString(s string) (Identity, error) {
	var id Identity
	if 2*Length != len(s) {
		return Identity{}, fault.ErrIdentityLength
	}
	byteCount, err := hex.Decode(id[:], []byte(s))
	if nil != err {
		return Identity{}, err
	}
	if Length != byteCount {
		return Identity{}, fault.ErrIdentityLength
	}
	return id, nil
}

// Recover - reconstruct the signing identity from a digest and signature
//
// any recovery failure is reported as fault.ErrAuthSignature, the
// caller cannot distinguish a damaged signature from a forged one
func Recover(digest [sha256.Size]byte, signature Signature) (Identity, error) {
	if SignatureLength != len(signature) {
		return Identity{}, fault.ErrAuthSignature
	}
	publicKey, _, err := btcec.RecoverCompact(btcec.S256(), signature, digest[:])
	if nil != err {
		return Identity{}, fault.ErrAuthSignature
	}
	return FromPublicKey(publicKey), nil
}

// String - hex form for use by the fmt package (for %s)
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// GoString - hex form for use by the fmt package (for %#v)
func (id Identity) GoString() string {
	return "<identity:" + hex.EncodeToString(id[:]) + ">"
}

// MarshalText - convert identity to hex text
func (id Identity) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(id)))
	hex.Encode(buffer, id[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into an identity
func (id *Identity) UnmarshalText(s []byte) error {
	if len(id) != hex.DecodedLen(len(s)) {
		return fault.ErrIdentityLength
	}
	byteCount, err := hex.Decode(id[:], s)
	if nil != err {
		return err
	}
	if Length != byteCount {
		return fault.ErrIdentityLength
	}
	return nil
}

// Address - base58check address form with the given version byte
func (id Identity) Address(version byte) string {
	buffer := make([]byte, 0, 1+Length+4)
	buffer = append(buffer, version)
	buffer = append(buffer, id[:]...)

	one := sha256.Sum256(buffer)
	two := sha256.Sum256(one[:])
	buffer = append(buffer, two[:4]...)

	return base58.Encode(buffer)
}

// AddressToIdentity - decode a base58check address, verifying the checksum
func AddressToIdentity(address string, version byte) (Identity, error) {
	var id Identity

	buffer, err := base58.Decode(address)
	if nil != err {
		return Identity{}, err
	}
	if 1+Length+4 != len(buffer) {
		return Identity{}, fault.ErrIdentityLength
	}

	one := sha256.Sum256(buffer[:1+Length])
	two := sha256.Sum256(one[:])
	for i, b := range two[:4] {
		if buffer[1+Length+i] != b {
			return Identity{}, fault.ErrIdentityLength
		}
	}

	if version != buffer[0] {
		return Identity{}, fault.ErrWrongNetworkForAddress
	}

	copy(id[:], buffer[1:1+Length])
	return id, nil
}
