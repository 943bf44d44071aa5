// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexer_test

import (
	"bytes"
	"crypto/sha256"
	"os"
	"testing"

	"github.com/getlynx/chainstored/blockdata"
	"github.com/getlynx/chainstored/chunkrecord"
	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/fixtures"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/identity"
	"github.com/getlynx/chainstored/indexer"
	"github.com/getlynx/chainstored/ledger"
	"github.com/getlynx/chainstored/signedrecord"
)

const (
	floor            = 50
	genesisTimestamp = 1600000000
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func newKey(t *testing.T) *identity.PrivateKey {
	t.Helper()
	key, err := identity.NewPrivateKey()
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}
	return key
}

func newUUID(t *testing.T) identifier.Identifier {
	t.Helper()
	uuid, err := identifier.New()
	if nil != err {
		t.Fatalf("identifier error: %s", err)
	}
	return uuid
}

// deterministic content
func fileBytes(t *testing.T, n int) []byte {
	t.Helper()
	buffer := make([]byte, n)
	seed := sha256.Sum256([]byte{byte(n), byte(n >> 8)})
	for i := 0; i < n; i += sha256.Size {
		seed = sha256.Sum256(seed[:])
		copy(buffer[i:], seed[:])
	}
	return buffer
}

// an indexer over a fresh chain and seeded ledger
func newIndexer(t *testing.T, rootKey *identity.PrivateKey) (*indexer.Indexer, *blockdata.MemoryChain, *ledger.Ledger) {
	t.Helper()
	chain := blockdata.NewMemoryChain(floor)
	l := ledger.New(rootKey.Identity(), genesisTimestamp)
	l.Seed()
	return indexer.New(chain, l, floor), chain, l
}

// encode an asset, returning its records
func encodeAsset(t *testing.T, data []byte, extension string, uuid identifier.Identifier, key *identity.PrivateKey) []string {
	t.Helper()
	records, err := chunkrecord.Encode(data, extension, uuid, key)
	if nil != err {
		t.Fatalf("encode error: %s", err)
	}
	return records
}

// locating must reconstruct the stream no matter how chunks are
// spread over blocks
func TestLocateOrderIndependent(t *testing.T) {
	rootKey := newKey(t)
	ix, chain, _ := newIndexer(t, rootKey)

	data := fileBytes(t, 1500)
	uuid := newUUID(t)
	records := encodeAsset(t, data, "", uuid, rootKey)
	if 4 != len(records) {
		t.Fatalf("record count: %d  expected: 4", len(records))
	}

	// scatter in reverse order: chunk 3, chunk 2, noise, chunk 1, header
	chain.Append(genesisTimestamp+1, blockdata.OpReturnTransaction(records[3]))
	chain.Append(genesisTimestamp+2, blockdata.OpReturnTransaction(records[2]))
	chain.Append(genesisTimestamp+3,
		blockdata.Transaction{Coinbase: true},
		blockdata.OpReturnTransaction("deadbeef"),
	)
	chain.Append(genesisTimestamp+4, blockdata.OpReturnTransaction(records[1]))
	chain.Append(genesisTimestamp+5, blockdata.OpReturnTransaction(records[0]))

	header, chunks, err := ix.Locate(uuid)
	if nil != err {
		t.Fatalf("locate error: %s", err)
	}
	if uuid != header.UUID {
		t.Fatalf("header uuid: %s  expected: %s", header.UUID, uuid)
	}
	if 3 != len(chunks) {
		t.Fatalf("chunk count: %d  expected: 3", len(chunks))
	}

	out := &bytes.Buffer{}
	if _, err := chunkrecord.Decode(chunks, out); nil != err {
		t.Fatalf("decode error: %s", err)
	}
	if !bytes.Equal(data, out.Bytes()) {
		t.Fatal("reconstructed bytes differ from input")
	}
}

// missing header and missing chunks are distinct failures
func TestLocateFailures(t *testing.T) {
	rootKey := newKey(t)
	ix, chain, _ := newIndexer(t, rootKey)

	data := fileBytes(t, 1200)
	uuid := newUUID(t)
	records := encodeAsset(t, data, "", uuid, rootKey)

	// chunks but no header
	chain.Append(genesisTimestamp+1, blockdata.OpReturnTransaction(records[1], records[2], records[3]))
	if _, _, err := ix.Locate(uuid); fault.ErrHeaderNotFound != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrHeaderNotFound)
	}

	// header arrives but one chunk is still missing
	other := newUUID(t)
	otherRecords := encodeAsset(t, data, "", other, rootKey)
	chain.Append(genesisTimestamp+2, blockdata.OpReturnTransaction(otherRecords[0], otherRecords[1], otherRecords[3]))
	if _, _, err := ix.Locate(other); fault.ErrIncompleteChunkSet != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrIncompleteChunkSet)
	}

	// unknown identifier
	if _, _, err := ix.Locate(newUUID(t)); fault.ErrHeaderNotFound != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrHeaderNotFound)
	}
}

// an empty asset is a header with no chunks
func TestLocateEmptyAsset(t *testing.T) {
	rootKey := newKey(t)
	ix, chain, _ := newIndexer(t, rootKey)

	uuid := newUUID(t)
	records := encodeAsset(t, nil, "", uuid, rootKey)
	if 1 != len(records) {
		t.Fatalf("record count: %d  expected: 1", len(records))
	}
	chain.Append(genesisTimestamp+1, blockdata.OpReturnTransaction(records[0]))

	_, chunks, err := ix.Locate(uuid)
	if nil != err {
		t.Fatalf("locate error: %s", err)
	}
	if 0 != len(chunks) {
		t.Fatalf("chunk count: %d  expected: 0", len(chunks))
	}
}

// tenants only see their own assets, root sees everything
func TestCatalogVisibility(t *testing.T) {
	rootKey := newKey(t)
	tenantOne := newKey(t)
	tenantTwo := newKey(t)
	ix, chain, _ := newIndexer(t, rootKey)

	uuidOne := newUUID(t)
	uuidTwo := newUUID(t)
	chain.Append(genesisTimestamp+1,
		blockdata.OpReturnTransaction(encodeAsset(t, fileBytes(t, 700), "pdf", uuidOne, tenantOne)...))
	chain.Append(genesisTimestamp+2,
		blockdata.OpReturnTransaction(encodeAsset(t, fileBytes(t, 300), "", uuidTwo, tenantTwo)...))

	// root sees both, newest first
	entries, err := ix.Catalog(rootKey.Identity(), 0)
	if nil != err {
		t.Fatalf("catalog error: %s", err)
	}
	if 2 != len(entries) {
		t.Fatalf("entry count: %d  expected: 2", len(entries))
	}
	if uuidTwo != entries[0].UUID || uuidOne != entries[1].UUID {
		t.Fatal("entries not in height order")
	}
	if 700 != entries[1].Length {
		t.Errorf("length: %d  expected: 700", entries[1].Length)
	}
	if "pdf" != entries[1].Extension {
		t.Errorf("extension: %q  expected: pdf", entries[1].Extension)
	}
	if tenantOne.Identity() != entries[1].Tenant {
		t.Errorf("tenant: %s  expected: %s", entries[1].Tenant, tenantOne.Identity())
	}

	// tenant one only sees its own asset
	entries, err = ix.Catalog(tenantOne.Identity(), 0)
	if nil != err {
		t.Fatalf("catalog error: %s", err)
	}
	if 1 != len(entries) {
		t.Fatalf("entry count: %d  expected: 1", len(entries))
	}
	if uuidOne != entries[0].UUID {
		t.Fatalf("uuid: %s  expected: %s", entries[0].UUID, uuidOne)
	}

	// a stranger sees nothing
	entries, err = ix.Catalog(newKey(t).Identity(), 0)
	if nil != err {
		t.Fatalf("catalog error: %s", err)
	}
	if 0 != len(entries) {
		t.Fatalf("entry count: %d  expected: 0", len(entries))
	}
}

// the limit stops the walk early
func TestCatalogLimit(t *testing.T) {
	rootKey := newKey(t)
	ix, chain, _ := newIndexer(t, rootKey)

	for i := 0; i < 5; i += 1 {
		chain.Append(genesisTimestamp+uint64(i),
			blockdata.OpReturnTransaction(encodeAsset(t, fileBytes(t, 10), "", newUUID(t), rootKey)...))
	}

	entries, err := ix.Catalog(rootKey.Identity(), 2)
	if nil != err {
		t.Fatalf("catalog error: %s", err)
	}
	if 2 != len(entries) {
		t.Fatalf("entry count: %d  expected: 2", len(entries))
	}
}

// blocked identifiers and tenants disappear from every view
func TestBlockedInvisible(t *testing.T) {
	rootKey := newKey(t)
	tenant := newKey(t)
	ix, chain, l := newIndexer(t, rootKey)

	uuid := newUUID(t)
	chain.Append(genesisTimestamp+1,
		blockdata.OpReturnTransaction(encodeAsset(t, fileBytes(t, 600), "", uuid, tenant)...))

	entries, err := ix.Catalog(rootKey.Identity(), 0)
	if nil != err || 1 != len(entries) {
		t.Fatalf("catalog before blocking: %d entries, error: %v", len(entries), err)
	}

	// block the identifier
	record := &signedrecord.Record{
		Kind:      signedrecord.UUIDBlock,
		Operation: signedrecord.Add,
		Timestamp: genesisTimestamp + 10,
		UUID:      uuid,
	}
	packed, err := signedrecord.Pack(record, rootKey)
	if nil != err {
		t.Fatalf("pack error: %s", err)
	}
	parsed, err := signedrecord.Unpack(packed, 0)
	if nil != err {
		t.Fatalf("unpack error: %s", err)
	}
	l.Apply(parsed)

	entries, err = ix.Catalog(rootKey.Identity(), 0)
	if nil != err {
		t.Fatalf("catalog error: %s", err)
	}
	if 0 != len(entries) {
		t.Fatal("blocked identifier still listed")
	}
	if _, _, err := ix.Locate(uuid); fault.ErrHeaderNotFound != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrHeaderNotFound)
	}
}

// existence probe for creation time uniqueness
func TestExists(t *testing.T) {
	rootKey := newKey(t)
	ix, chain, _ := newIndexer(t, rootKey)

	uuid := newUUID(t)
	chain.Append(genesisTimestamp+1,
		blockdata.OpReturnTransaction(encodeAsset(t, fileBytes(t, 100), "", uuid, rootKey)...))

	ok, err := ix.Exists(uuid)
	if nil != err || !ok {
		t.Fatalf("exists: %v  error: %v", ok, err)
	}
	ok, err = ix.Exists(newUUID(t))
	if nil != err || ok {
		t.Fatalf("exists for unknown uuid: %v  error: %v", ok, err)
	}
}
