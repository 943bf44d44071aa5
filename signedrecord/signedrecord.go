// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package signedrecord - authorization and blocking records
//
// Three record kinds share one wire shape and differ only in magic
// and subject width:
//
//	magic(4) operation(1) timestamp(4) subject(20|32) signature(65)
//
// authorization and tenant-block records name a 20 byte identity,
// uuid-block records name a 32 byte asset identifier.  The signature
// is recoverable over the SHA-256 of the preceding raw fields.
package signedrecord

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/identity"
	"github.com/getlynx/chainstored/script"
	"github.com/getlynx/chainstored/util"
)

// Kind - which record family a record belongs to
type Kind int

// record kinds
const (
	Authorization Kind = iota // grant or revoke a tenant identity
	UUIDBlock                 // hide one asset identifier
	TenantBlock               // hide every asset of one tenant
)

// Operation - the action a record requests
type Operation byte

// the two known operation codes, shared by all kinds
const (
	Add    Operation = 0x01
	Remove Operation = 0x02
)

// Record - one parsed signed record
type Record struct {
	Kind      Kind
	Operation Operation
	Timestamp uint64 // unix seconds, 4 bytes on the wire

	// subject: Identity for Authorization/TenantBlock, UUID for UUIDBlock
	Identity  identity.Identity
	UUID      identifier.Identifier
	Signature identity.Signature
}

// wire magic of a kind
func (k Kind) magic() (string, error) {
	switch k {
	case Authorization:
		return script.AuthMagic, nil
	case UUIDBlock:
		return script.UUIDBlockMagic, nil
	case TenantBlock:
		return script.TenantBlockMagic, nil
	default:
		return "", fault.ErrUnknownRecordKind
	}
}

// String - name of a kind for log messages
func (k Kind) String() string {
	switch k {
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

// subject bytes by kind
func (r *Record) subject() []byte {
	if UUIDBlock == r.Kind {
		return r.UUID[:]
	}
	return r.Identity[:]
}

// signing digest over the raw record fields
func (r *Record) digest() ([sha256.Size]byte, error) {
	magic, err := r.Kind.magic()
	if nil != err {
		return [sha256.Size]byte{}, err
	}
	magicBytes, err := hex.DecodeString(magic)
	if nil != err {
		return [sha256.Size]byte{}, err
	}

	w := &util.Writer{}
	w.Bytes(magicBytes).Byte(byte(r.Operation)).Uint32(uint32(r.Timestamp)).Bytes(r.subject())
	return sha256.Sum256(w.Raw()), nil
}

// Pack - sign the record fields and build the hex wire form
func Pack(r *Record, key *identity.PrivateKey) (string, error) {
	if nil == key {
		return "", fault.ErrNoSigningKey
	}
	if Add != r.Operation && Remove != r.Operation {
		return "", fault.ErrRecordOperation
	}

	magic, err := r.Kind.magic()
	if nil != err {
		return "", err
	}
	magicBytes, err := hex.DecodeString(magic)
	if nil != err {
		return "", err
	}

	digest, err := r.digest()
	if nil != err {
		return "", err
	}
	signature, err := key.SignDigest(digest)
	if nil != err {
		return "", err
	}

	w := &util.Writer{}
	w.Bytes(magicBytes).Byte(byte(r.Operation)).Uint32(uint32(r.Timestamp)).Bytes(r.subject()).Bytes(signature)
	return w.String(), nil
}

// Unpack - parse the signed record at offset inside a script hex
func Unpack(scriptHex string, offset int) (*Record, error) {
	var kind Kind
	switch script.Classify(scriptHex, offset) {
	case script.Authorization:
		kind = Authorization
	case script.UUIDBlock:
		kind = UUIDBlock
	case script.TenantBlock:
		kind = TenantBlock
	default:
		return nil, fault.ErrUnknownRecordKind
	}

	r := util.NewReader(scriptHex, offset+script.MagicHexLength)
	operation := Operation(r.Byte())
	timestamp := uint64(r.Uint32())

	record := &Record{
		Kind:      kind,
		Operation: operation,
		Timestamp: timestamp,
	}

	if UUIDBlock == kind {
		copy(record.UUID[:], r.Bytes(identifier.Length))
	} else {
		copy(record.Identity[:], r.Bytes(identity.Length))
	}
	record.Signature = identity.Signature(r.Remainder())

	if err := r.Err(); nil != err {
		return nil, err
	}
	if Add != operation && Remove != operation {
		return nil, fault.ErrRecordOperation
	}
	return record, nil
}

// Signer - recover the identity whose key signed this record
func (r *Record) Signer() (identity.Identity, error) {
	digest, err := r.digest()
	if nil != err {
		return identity.Identity{}, err
	}
	return identity.Recover(digest, r.Signature)
}
