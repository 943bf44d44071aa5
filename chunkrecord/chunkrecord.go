// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chunkrecord - the on-chain chunk wire format
//
// An asset is stored as one signed header record followed by a run of
// data records, all sharing a 32 byte identifier:
//
//	header: magic(4) version(1) uuid(32) length(2)=0 signature(65)
//	data:   magic(4) version(1) uuid(32) length(2)   checksum(16)
//	        sequence(4) total(4) payload(<=512)
//
// Fields are fixed width big-endian, rendered as lowercase hex inside
// an OP_RETURN push.  The checksum is the first half of the payload's
// SHA-256, cheap corruption detection only; the header signature is a
// recoverable signature over the full SHA-256 of the header fields
// and is the cryptographic commitment attributing the asset to a
// tenant.  The two widths are deliberately different and must never
// be unified.
package chunkrecord

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/identity"
	"github.com/getlynx/chainstored/script"
	"github.com/getlynx/chainstored/util"
)

// chunk versions
const (
	VersionPlain     byte = 0x00 // bare byte stream
	VersionExtension byte = 0x01 // stream carries 4 trailing extension bytes
)

// limits
const (
	MaximumPayload    = 512      // bytes of file data per chunk
	ChecksumLength    = 16       // truncated SHA-256 prefix
	ExtensionLength   = 4        // raw extension bytes appended to the stream
	MaximumAssetBytes = 8 << 20  // refuse larger inputs outright
)

// raw magic bytes, decoded once from the wire constant
var magicBytes []byte

func init() {
	var err error
	magicBytes, err = hex.DecodeString(script.DataMagic)
	if nil != err {
		panic("chunkrecord: bad data magic constant")
	}
}

// Record - either a Header or a Data chunk
type Record interface {
	RecordUUID() identifier.Identifier
}

// Header - the signed chunk introducing an asset
type Header struct {
	Version   byte
	UUID      identifier.Identifier
	Signature identity.Signature
}

// Data - one checksummed slice of the asset's byte stream
type Data struct {
	Version  byte
	UUID     identifier.Identifier
	Checksum [ChecksumLength]byte
	Sequence uint32 // 1 based
	Total    uint32 // count of data chunks for the whole asset
	Payload  []byte
}

// RecordUUID - asset identifier carried by the chunk
func (h *Header) RecordUUID() identifier.Identifier { return h.UUID }

// RecordUUID - asset identifier carried by the chunk
func (d *Data) RecordUUID() identifier.Identifier { return d.UUID }

// signing digest over the raw header fields
func headerDigest(version byte, uuid identifier.Identifier) [sha256.Size]byte {
	w := &util.Writer{}
	w.Bytes(magicBytes).Byte(version).Bytes(uuid[:]).Uint16(0)
	return sha256.Sum256(w.Raw())
}

// PackHeader - build the hex form of a signed header chunk
func PackHeader(version byte, uuid identifier.Identifier, key *identity.PrivateKey) (string, error) {
	if nil == key {
		return "", fault.ErrNoSigningKey
	}
	if version > VersionExtension {
		return "", fault.ErrChunkVersion
	}

	digest := headerDigest(version, uuid)
	signature, err := key.SignDigest(digest)
	if nil != err {
		return "", err
	}

	w := &util.Writer{}
	w.Bytes(magicBytes).Byte(version).Bytes(uuid[:]).Uint16(0).Bytes(signature)
	return w.String(), nil
}

// PackData - build the hex form of one data chunk
func PackData(version byte, uuid identifier.Identifier, sequence uint32, total uint32, payload []byte) (string, error) {
	if version > VersionExtension {
		return "", fault.ErrChunkVersion
	}
	if 0 == len(payload) || len(payload) > MaximumPayload {
		return "", fault.ErrChunkLength
	}

	checksum := sha256.Sum256(payload)

	w := &util.Writer{}
	w.Bytes(magicBytes).
		Byte(version).
		Bytes(uuid[:]).
		Uint16(uint16(len(payload))).
		Bytes(checksum[:ChecksumLength]).
		Uint32(sequence).
		Uint32(total).
		Bytes(payload)
	return w.String(), nil
}

// Encode - turn a byte stream into its on-chain records
//
// The first record is the signed header, the rest are data chunks
// numbered from one.  A non-empty extension switches the version and
// appends four raw extension bytes (zero padded) to the stream before
// chunking, exactly what Decode strips off again.
func Encode(data []byte, extension string, uuid identifier.Identifier, key *identity.PrivateKey) ([]string, error) {
	if nil == key {
		return nil, fault.ErrNoSigningKey
	}

	// the limit applies to the caller's input, the four byte
	// extension tail rides above it
	if len(data) > MaximumAssetBytes {
		return nil, fault.ErrOversizedInput
	}

	version := VersionPlain
	stream := data
	if "" != extension {
		padded, err := packExtension(extension)
		if nil != err {
			return nil, err
		}
		version = VersionExtension
		stream = make([]byte, 0, len(data)+ExtensionLength)
		stream = append(stream, data...)
		stream = append(stream, padded[:]...)
	}

	total := uint32((len(stream) + MaximumPayload - 1) / MaximumPayload)

	records := make([]string, 0, total+1)

	header, err := PackHeader(version, uuid, key)
	if nil != err {
		return nil, err
	}
	records = append(records, header)

	for sequence := uint32(1); sequence <= total; sequence += 1 {
		low := (sequence - 1) * MaximumPayload
		high := low + MaximumPayload
		if high > uint32(len(stream)) {
			high = uint32(len(stream))
		}
		record, err := PackData(version, uuid, sequence, total, stream[low:high])
		if nil != err {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// Unpack - parse the chunk record at offset inside a script hex
//
// The length field selects the shape: zero is a header, anything else
// a data chunk.  Only structural validation happens here; stream
// level invariants (uuid consistency, checksums, ordering) belong to
// Decode, signature recovery to VerifyHeader.
func Unpack(scriptHex string, offset int) (Record, error) {
	if script.Data != script.Classify(scriptHex, offset) {
		return nil, fault.ErrChunkMagic
	}

	r := util.NewReader(scriptHex, offset+script.MagicHexLength)
	version := r.Byte()
	uuidBytes := r.Bytes(identifier.Length)
	length := r.Uint16()
	if err := r.Err(); nil != err {
		return nil, err
	}
	if version > VersionExtension {
		return nil, fault.ErrChunkVersion
	}

	var uuid identifier.Identifier
	copy(uuid[:], uuidBytes)

	if 0 == length {
		signature := r.Remainder()
		if err := r.Err(); nil != err {
			return nil, err
		}
		return &Header{
			Version:   version,
			UUID:      uuid,
			Signature: identity.Signature(signature),
		}, nil
	}

	if length > MaximumPayload {
		return nil, fault.ErrChunkLength
	}

	checksum := r.Bytes(ChecksumLength)
	sequence := r.Uint32()
	total := r.Uint32()
	payload := r.Bytes(int(length))
	if err := r.Err(); nil != err {
		return nil, err
	}
	if 0 != r.Remaining() {
		return nil, fault.ErrChunkLength
	}

	d := &Data{
		Version:  version,
		UUID:     uuid,
		Sequence: sequence,
		Total:    total,
		Payload:  payload,
	}
	copy(d.Checksum[:], checksum)
	return d, nil
}

// VerifyHeader - recover the tenant identity that signed a header
//
// Ledger membership of the recovered identity is deliberately not
// checked here: the store path wants it, the fetch path does not.
func VerifyHeader(h *Header) (identity.Identity, error) {
	digest := headerDigest(h.Version, h.UUID)
	return identity.Recover(digest, h.Signature)
}

// Decode - validate a chunk run and stream the original bytes out
//
// Chunks are consumed in the supplied order; the caller must deliver
// them in sequence order, Decode does not sort.  Returns the file
// extension when the stream carries one, empty otherwise.  Validation
// aborts before the offending chunk's bytes are written.
func Decode(chunks []*Data, out io.Writer) (string, error) {
	if 0 == len(chunks) {
		return "", nil
	}

	first := chunks[0]
	count := uint32(len(chunks))

	// trailing bytes withheld from output while the extension may
	// still be inside them
	var tail []byte

	for i, chunk := range chunks {
		if chunk.Version > VersionExtension || chunk.Version != first.Version {
			return "", fault.ErrChunkVersion
		}
		if chunk.UUID != first.UUID {
			return "", fault.ErrChunkUUID
		}
		final := i == len(chunks)-1
		if !final && MaximumPayload != len(chunk.Payload) {
			return "", fault.ErrChunkLength
		}
		checksum := sha256.Sum256(chunk.Payload)
		if !bytes.Equal(checksum[:ChecksumLength], chunk.Checksum[:]) {
			return "", fault.ErrChunkHash
		}
		if uint32(i+1) != chunk.Sequence {
			return "", fault.ErrChunkNumber
		}
		if count != chunk.Total {
			return "", fault.ErrChunkTotal
		}

		if VersionExtension == chunk.Version {
			combined := append(tail, chunk.Payload...)
			if len(combined) > ExtensionLength {
				if _, err := out.Write(combined[:len(combined)-ExtensionLength]); nil != err {
					return "", fault.ErrFileWrite
				}
				tail = append([]byte{}, combined[len(combined)-ExtensionLength:]...)
			} else {
				tail = combined
			}
		} else {
			if _, err := out.Write(chunk.Payload); nil != err {
				return "", fault.ErrFileWrite
			}
		}
	}

	return unpackExtension(tail), nil
}

// AssetLength - byte length of the original file
//
// Only meaningful on the final data chunk (sequence == total).  The
// extension bytes are part of the stream, not the file, so they are
// subtracted again.
func AssetLength(d *Data) uint64 {
	n := uint64(d.Total-1)*MaximumPayload + uint64(len(d.Payload))
	if VersionExtension == d.Version && n >= ExtensionLength {
		n -= ExtensionLength
	}
	return n
}

// ExtensionOf - extension as visible on the final data chunk
//
// A final chunk shorter than four bytes splits the extension across a
// chunk boundary; in that case this returns empty and only a full
// Decode can reconstruct it.
func ExtensionOf(d *Data) string {
	if VersionExtension != d.Version || len(d.Payload) < ExtensionLength {
		return ""
	}
	return unpackExtension(d.Payload[len(d.Payload)-ExtensionLength:])
}

// validate and zero pad an extension to its fixed wire width
func packExtension(extension string) ([ExtensionLength]byte, error) {
	var padded [ExtensionLength]byte
	if len(extension) > ExtensionLength {
		return padded, fault.ErrChunkLength
	}
	for i := 0; i < len(extension); i += 1 {
		c := extension[i]
		if c < 0x21 || c > 0x7e {
			return padded, fault.ErrChunkLength
		}
		padded[i] = c
	}
	return padded, nil
}

// strip the zero padding again
func unpackExtension(raw []byte) string {
	return string(bytes.TrimRight(raw, "\x00"))
}
