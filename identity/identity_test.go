// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package identity_test

import (
	"crypto/sha256"
	"testing"

	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identity"
)

// signing then recovering must yield the signer's identity
func TestSignAndRecover(t *testing.T) {
	key, err := identity.NewPrivateKey()
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}

	digest := sha256.Sum256([]byte("storage record under test"))

	signature, err := key.SignDigest(digest)
	if nil != err {
		t.Fatalf("sign error: %s", err)
	}
	if identity.SignatureLength != len(signature) {
		t.Fatalf("signature length: %d  expected: %d", len(signature), identity.SignatureLength)
	}

	recovered, err := identity.Recover(digest, signature)
	if nil != err {
		t.Fatalf("recover error: %s", err)
	}
	if recovered != key.Identity() {
		t.Fatalf("recovered: %s  expected: %s", recovered, key.Identity())
	}
}

// a damaged signature must fail with the signature fault
func TestRecoverDamaged(t *testing.T) {
	key, err := identity.NewPrivateKey()
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}

	digest := sha256.Sum256([]byte("damaged signature test"))

	signature, err := key.SignDigest(digest)
	if nil != err {
		t.Fatalf("sign error: %s", err)
	}

	truncated := signature[:identity.SignatureLength-1]
	if _, err := identity.Recover(digest, truncated); fault.ErrAuthSignature != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrAuthSignature)
	}

	// recovery over a different digest must not yield the signer
	other := sha256.Sum256([]byte("a different record"))
	recovered, err := identity.Recover(other, signature)
	if nil == err && recovered == key.Identity() {
		t.Fatal("recovery over wrong digest yielded the signer's identity")
	}
}

// key hex round trip
func TestPrivateKeyHex(t *testing.T) {
	key, err := identity.NewPrivateKey()
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}

	back, err := identity.PrivateKeyFromHex(key.Hex())
	if nil != err {
		t.Fatalf("from hex error: %s", err)
	}
	if back.Identity() != key.Identity() {
		t.Fatalf("identity mismatch: %s != %s", back.Identity(), key.Identity())
	}

	if _, err := identity.PrivateKeyFromHex("0a0b0c"); fault.ErrKeyLength != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrKeyLength)
	}
}

// address encode and decode with checksum verification
func TestAddress(t *testing.T) {
	key, err := identity.NewPrivateKey()
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}
	id := key.Identity()

	address := id.Address(identity.LivenetVersion)
	back, err := identity.AddressToIdentity(address, identity.LivenetVersion)
	if nil != err {
		t.Fatalf("address decode error: %s", err)
	}
	if back != id {
		t.Fatalf("address round trip mismatch: %s != %s", back, id)
	}

	// wrong network
	if _, err := identity.AddressToIdentity(address, identity.TestnetVersion); fault.ErrWrongNetworkForAddress != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrWrongNetworkForAddress)
	}
}
