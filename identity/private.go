// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package identity

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec"

	"github.com/getlynx/chainstored/fault"
)

// PrivateKey - a secp256k1 signing key
type PrivateKey struct {
	key *btcec.PrivateKey
}

// NewPrivateKey - generate a fresh signing key
func NewPrivateKey() (*PrivateKey, error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if nil != err {
		return nil, err
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromHex - recreate a signing key from its hex form
func PrivateKeyFromHex(s string) (*PrivateKey, error) {
	buffer, err := hex.DecodeString(s)
	if nil != err {
		return nil, err
	}
	if btcec.PrivKeyBytesLen != len(buffer) {
		return nil, fault.ErrKeyLength
	}
	key, _ := btcec.PrivKeyFromBytes(btcec.S256(), buffer)
	return &PrivateKey{key: key}, nil
}

// Hex - hex form of the key for storage in a key file
func (p *PrivateKey) Hex() string {
	return hex.EncodeToString(p.key.Serialize())
}

// Identity - the identity this key signs for
func (p *PrivateKey) Identity() Identity {
	return FromPublicKey(p.key.PubKey())
}

// SignDigest - produce a compact recoverable signature over a digest
func (p *PrivateKey) SignDigest(digest [sha256.Size]byte) (Signature, error) {
	signature, err := btcec.SignCompact(btcec.S256(), p.key, digest[:], true)
	if nil != err {
		return nil, err
	}
	return Signature(signature), nil
}
