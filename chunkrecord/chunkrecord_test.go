// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chunkrecord_test

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/getlynx/chainstored/chunkrecord"
	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/identity"
)

// deterministic pseudo file content
func fileBytes(t *testing.T, n int) []byte {
	t.Helper()
	buffer := make([]byte, n)
	seed := sha256.Sum256([]byte{byte(n), byte(n >> 8), byte(n >> 16)})
	for i := 0; i < n; i += sha256.Size {
		seed = sha256.Sum256(seed[:])
		copy(buffer[i:], seed[:])
	}
	return buffer
}

// encode a stream and parse the records back into chunks
func encodeAndUnpack(t *testing.T, data []byte, extension string) (*chunkrecord.Header, []*chunkrecord.Data, *identity.PrivateKey) {
	t.Helper()

	key, err := identity.NewPrivateKey()
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}
	uuid, err := identifier.New()
	if nil != err {
		t.Fatalf("identifier error: %s", err)
	}

	records, err := chunkrecord.Encode(data, extension, uuid, key)
	if nil != err {
		t.Fatalf("encode error: %s", err)
	}
	if len(records) < 1 {
		t.Fatal("encode produced no records")
	}

	record, err := chunkrecord.Unpack(records[0], 0)
	if nil != err {
		t.Fatalf("unpack header error: %s", err)
	}
	header, ok := record.(*chunkrecord.Header)
	if !ok {
		t.Fatalf("first record is not a header: %#v", record)
	}

	chunks := make([]*chunkrecord.Data, 0, len(records)-1)
	for i, r := range records[1:] {
		record, err := chunkrecord.Unpack(r, 0)
		if nil != err {
			t.Fatalf("unpack chunk %d error: %s", i+1, err)
		}
		d, ok := record.(*chunkrecord.Data)
		if !ok {
			t.Fatalf("record %d is not a data chunk: %#v", i+1, record)
		}
		chunks = append(chunks, d)
	}
	return header, chunks, key
}

// round trip over the interesting size boundaries
func TestRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 511, 512, 513, 1024, 1025, 10000}
	extensions := []string{"", "txt"}

	for _, n := range sizes {
		for _, extension := range extensions {
			data := fileBytes(t, n)
			_, chunks, _ := encodeAndUnpack(t, data, extension)

			out := &bytes.Buffer{}
			decodedExtension, err := chunkrecord.Decode(chunks, out)
			if nil != err {
				t.Fatalf("size %d ext %q: decode error: %s", n, extension, err)
			}
			if extension != decodedExtension {
				t.Errorf("size %d: extension: %q  expected: %q", n, decodedExtension, extension)
			}
			if !bytes.Equal(data, out.Bytes()) {
				t.Errorf("size %d ext %q: decoded %d bytes differ from input", n, extension, out.Len())
			}
		}
	}
}

// 1025 bytes must give exactly three data chunks of 512, 512, 1
func TestChunkBoundaries(t *testing.T) {
	data := fileBytes(t, 1025)
	header, chunks, key := encodeAndUnpack(t, data, "")

	if 3 != len(chunks) {
		t.Fatalf("chunk count: %d  expected: 3", len(chunks))
	}
	expectedLengths := []int{512, 512, 1}
	for i, chunk := range chunks {
		if expectedLengths[i] != len(chunk.Payload) {
			t.Errorf("chunk %d length: %d  expected: %d", i+1, len(chunk.Payload), expectedLengths[i])
		}
		if 3 != chunk.Total {
			t.Errorf("chunk %d total: %d  expected: 3", i+1, chunk.Total)
		}
		if uint32(i+1) != chunk.Sequence {
			t.Errorf("chunk %d sequence: %d", i+1, chunk.Sequence)
		}
	}

	tenant, err := chunkrecord.VerifyHeader(header)
	if nil != err {
		t.Fatalf("verify header error: %s", err)
	}
	if tenant != key.Identity() {
		t.Fatalf("tenant: %s  expected: %s", tenant, key.Identity())
	}

	out := &bytes.Buffer{}
	if _, err := chunkrecord.Decode(chunks, out); nil != err {
		t.Fatalf("decode error: %s", err)
	}
	if !bytes.Equal(data, out.Bytes()) {
		t.Fatal("decoded bytes differ from input")
	}

	if n := chunkrecord.AssetLength(chunks[2]); 1025 != n {
		t.Errorf("asset length: %d  expected: 1025", n)
	}
}

// corrupting a payload must fail the checksum and write nothing more
func TestCorruptPayload(t *testing.T) {
	data := fileBytes(t, 1024)
	_, chunks, _ := encodeAndUnpack(t, data, "")

	chunks[1].Payload[17] ^= 0x01

	out := &bytes.Buffer{}
	_, err := chunkrecord.Decode(chunks, out)
	if fault.ErrChunkHash != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrChunkHash)
	}
	// only the first (valid) chunk may have been written
	if out.Len() > 512 {
		t.Fatalf("wrote %d bytes after a checksum failure", out.Len())
	}
}

// a foreign uuid on a later chunk is rejected
func TestForeignUUID(t *testing.T) {
	data := fileBytes(t, 1024)
	_, chunks, _ := encodeAndUnpack(t, data, "")

	other, err := identifier.New()
	if nil != err {
		t.Fatalf("identifier error: %s", err)
	}
	chunks[1].UUID = other

	_, err = chunkrecord.Decode(chunks, &bytes.Buffer{})
	if fault.ErrChunkUUID != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrChunkUUID)
	}
}

// chunks supplied out of order are rejected by the running counter
func TestOutOfOrder(t *testing.T) {
	data := fileBytes(t, 1025)
	_, chunks, _ := encodeAndUnpack(t, data, "")

	chunks[0], chunks[1] = chunks[1], chunks[0]

	_, err := chunkrecord.Decode(chunks, &bytes.Buffer{})
	if fault.ErrChunkNumber != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrChunkNumber)
	}
}

// a missing chunk trips the length check on the now non-final short chunk
func TestMissingChunk(t *testing.T) {
	data := fileBytes(t, 1025)
	_, chunks, _ := encodeAndUnpack(t, data, "")

	truncated := chunks[:2] // drop the final chunk

	_, err := chunkrecord.Decode(truncated, &bytes.Buffer{})
	if fault.ErrChunkTotal != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrChunkTotal)
	}
}

// encode without a signing key must fail
func TestNoSigningKey(t *testing.T) {
	uuid, err := identifier.New()
	if nil != err {
		t.Fatalf("identifier error: %s", err)
	}
	_, err = chunkrecord.Encode([]byte("x"), "", uuid, nil)
	if fault.ErrNoSigningKey != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrNoSigningKey)
	}
}

// oversized input is refused before any chunking
func TestOversizedInput(t *testing.T) {
	key, err := identity.NewPrivateKey()
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}
	uuid, err := identifier.New()
	if nil != err {
		t.Fatalf("identifier error: %s", err)
	}

	data := make([]byte, chunkrecord.MaximumAssetBytes+1)
	_, err = chunkrecord.Encode(data, "", uuid, key)
	if fault.ErrOversizedInput != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrOversizedInput)
	}

	// an input exactly at the limit is accepted even when the four
	// byte extension tail pushes the chunked stream above it
	records, err := chunkrecord.Encode(data[1:], "txt", uuid, key)
	if nil != err {
		t.Fatalf("encode at limit error: %s", err)
	}
	expected := 1 + (chunkrecord.MaximumAssetBytes+chunkrecord.ExtensionLength+chunkrecord.MaximumPayload-1)/chunkrecord.MaximumPayload
	if expected != len(records) {
		t.Fatalf("records: %d  expected: %d", len(records), expected)
	}
}

// a damaged header signature fails verification
func TestHeaderSignature(t *testing.T) {
	data := fileBytes(t, 100)
	header, _, key := encodeAndUnpack(t, data, "")

	// recovery over a damaged signature must either fail outright or
	// yield some unrelated identity, never the original signer
	header.Signature[10] ^= 0xff
	recovered, err := chunkrecord.VerifyHeader(header)
	if nil == err && recovered == key.Identity() {
		t.Fatal("damaged signature still attributed to the signer")
	}

	// a wrong magic is rejected before any field parse
	if _, err := chunkrecord.Unpack("00000000ff", 0); fault.ErrChunkMagic != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrChunkMagic)
	}
}
