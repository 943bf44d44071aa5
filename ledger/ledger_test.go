// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"os"
	"testing"
	"time"

	"github.com/getlynx/chainstored/blockdata"
	"github.com/getlynx/chainstored/fixtures"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/identity"
	"github.com/getlynx/chainstored/ledger"
	"github.com/getlynx/chainstored/signedrecord"
)

const genesisTimestamp = 1600000000

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

// generate a key or abort the test
func newKey(t *testing.T) *identity.PrivateKey {
	t.Helper()
	key, err := identity.NewPrivateKey()
	if nil != err {
		t.Fatalf("key generation error: %s", err)
	}
	return key
}

// a seeded ledger rooted at the given key
func seededLedger(t *testing.T, rootKey *identity.PrivateKey) *ledger.Ledger {
	t.Helper()
	l := ledger.New(rootKey.Identity(), genesisTimestamp)
	l.Seed()
	return l
}

// pack a record or abort the test
func pack(t *testing.T, record *signedrecord.Record, key *identity.PrivateKey) *signedrecord.Record {
	t.Helper()
	packed, err := signedrecord.Pack(record, key)
	if nil != err {
		t.Fatalf("pack error: %s", err)
	}
	parsed, err := signedrecord.Unpack(packed, 0)
	if nil != err {
		t.Fatalf("unpack error: %s", err)
	}
	return parsed
}

// seeding twice must not reset anything
func TestSeedIdempotent(t *testing.T) {
	rootKey := newKey(t)
	l := seededLedger(t, rootKey)

	if !l.IsAuthorized(rootKey.Identity()) {
		t.Fatal("root identity not seeded")
	}
	if genesisTimestamp != l.Watermark() {
		t.Fatalf("watermark: %d  expected: %d", l.Watermark(), genesisTimestamp)
	}

	// apply something, reseed, state must survive
	tenant := newKey(t)
	l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.Authorization,
		Operation: signedrecord.Add,
		Timestamp: genesisTimestamp + 10,
		Identity:  tenant.Identity(),
	}, rootKey))

	l.Seed()
	if !l.IsAuthorized(tenant.Identity()) {
		t.Fatal("reseed dropped an authorised member")
	}
}

// add and remove round trip with watermark advance
func TestApplyAddRemove(t *testing.T) {
	rootKey := newKey(t)
	tenant := newKey(t)
	l := seededLedger(t, rootKey)

	ts := uint64(time.Now().Unix()) - 100

	if !l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.Authorization,
		Operation: signedrecord.Add,
		Timestamp: ts,
		Identity:  tenant.Identity(),
	}, rootKey)) {
		t.Fatal("add record was not applied")
	}
	if !l.IsAuthorized(tenant.Identity()) {
		t.Fatal("tenant not authorised after add")
	}
	if ts != l.Watermark() {
		t.Fatalf("watermark: %d  expected: %d", l.Watermark(), ts)
	}

	if !l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.Authorization,
		Operation: signedrecord.Remove,
		Timestamp: ts + 1,
		Identity:  tenant.Identity(),
	}, rootKey)) {
		t.Fatal("remove record was not applied")
	}
	if l.IsAuthorized(tenant.Identity()) {
		t.Fatal("tenant still authorised after remove")
	}
}

// a record below the watermark is dropped without mutation
func TestStaleRecordRejected(t *testing.T) {
	rootKey := newKey(t)
	tenant := newKey(t)
	l := seededLedger(t, rootKey)

	ts := uint64(time.Now().Unix()) - 100
	l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.Authorization,
		Operation: signedrecord.Add,
		Timestamp: ts,
		Identity:  rootKey.Identity(),
	}, rootKey))

	if l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.Authorization,
		Operation: signedrecord.Add,
		Timestamp: ts - 50,
		Identity:  tenant.Identity(),
	}, rootKey)) {
		t.Fatal("stale record was applied")
	}
	if l.IsAuthorized(tenant.Identity()) {
		t.Fatal("ledger mutated by a stale record")
	}
	if ts != l.Watermark() {
		t.Fatalf("watermark moved: %d  expected: %d", l.Watermark(), ts)
	}
}

// a future-dated record is applied but cannot advance the watermark
func TestFutureRecordKeepsWatermark(t *testing.T) {
	rootKey := newKey(t)
	tenant := newKey(t)
	l := seededLedger(t, rootKey)

	future := uint64(time.Now().Unix()) + 3600
	if !l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.Authorization,
		Operation: signedrecord.Add,
		Timestamp: future,
		Identity:  tenant.Identity(),
	}, rootKey)) {
		t.Fatal("future-dated record was not applied")
	}
	if !l.IsAuthorized(tenant.Identity()) {
		t.Fatal("tenant not authorised")
	}
	if genesisTimestamp != l.Watermark() {
		t.Fatalf("watermark advanced into the future: %d", l.Watermark())
	}
}

// removing the root identity is reversed immediately
func TestRootIsIrremovable(t *testing.T) {
	rootKey := newKey(t)
	l := seededLedger(t, rootKey)

	if !l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.Authorization,
		Operation: signedrecord.Remove,
		Timestamp: genesisTimestamp + 5,
		Identity:  rootKey.Identity(),
	}, rootKey)) {
		t.Fatal("remove record was not applied")
	}
	if !l.IsAuthorized(rootKey.Identity()) {
		t.Fatal("root identity was removed")
	}
}

// uuid and tenant blocking records drive their own sets
func TestBlockingRecords(t *testing.T) {
	rootKey := newKey(t)
	tenant := newKey(t)
	l := seededLedger(t, rootKey)

	uuid, err := identifier.New()
	if nil != err {
		t.Fatalf("identifier error: %s", err)
	}

	l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.UUIDBlock,
		Operation: signedrecord.Add,
		Timestamp: genesisTimestamp + 1,
		UUID:      uuid,
	}, rootKey))
	if !l.IsBlockedUUID(uuid) {
		t.Fatal("uuid not blocked")
	}

	l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.TenantBlock,
		Operation: signedrecord.Add,
		Timestamp: genesisTimestamp + 2,
		Identity:  tenant.Identity(),
	}, rootKey))
	if !l.IsBlockedTenant(tenant.Identity()) {
		t.Fatal("tenant not blocked")
	}

	l.Apply(pack(t, &signedrecord.Record{
		Kind:      signedrecord.UUIDBlock,
		Operation: signedrecord.Remove,
		Timestamp: genesisTimestamp + 3,
		UUID:      uuid,
	}, rootKey))
	if l.IsBlockedUUID(uuid) {
		t.Fatal("uuid still blocked after remove")
	}
}

// replay applies chain records in block order, skipping junk
func TestReplay(t *testing.T) {
	rootKey := newKey(t)
	tenantOne := newKey(t)
	tenantTwo := newKey(t)
	l := seededLedger(t, rootKey)

	packHex := func(record *signedrecord.Record) string {
		packed, err := signedrecord.Pack(record, rootKey)
		if nil != err {
			t.Fatalf("pack error: %s", err)
		}
		return packed
	}

	chain := blockdata.NewMemoryChain(10)
	chain.Append(genesisTimestamp+100, blockdata.OpReturnTransaction(
		packHex(&signedrecord.Record{
			Kind:      signedrecord.Authorization,
			Operation: signedrecord.Add,
			Timestamp: genesisTimestamp + 100,
			Identity:  tenantOne.Identity(),
		}),
	))
	chain.Append(genesisTimestamp+200,
		blockdata.Transaction{Coinbase: true, Outputs: []blockdata.Output{{ScriptHex: "6a04deadbeef"}}},
		blockdata.OpReturnTransaction(
			packHex(&signedrecord.Record{
				Kind:      signedrecord.Authorization,
				Operation: signedrecord.Add,
				Timestamp: genesisTimestamp + 200,
				Identity:  tenantTwo.Identity(),
			}),
			"deadbeef", // foreign payload, must be skipped
		),
	)
	chain.Append(genesisTimestamp+300, blockdata.OpReturnTransaction(
		packHex(&signedrecord.Record{
			Kind:      signedrecord.Authorization,
			Operation: signedrecord.Remove,
			Timestamp: genesisTimestamp + 300,
			Identity:  tenantOne.Identity(),
		}),
	))

	if err := l.Replay(chain, 10); nil != err {
		t.Fatalf("replay error: %s", err)
	}

	if l.IsAuthorized(tenantOne.Identity()) {
		t.Fatal("tenant one should have been removed")
	}
	if !l.IsAuthorized(tenantTwo.Identity()) {
		t.Fatal("tenant two should be authorised")
	}

	// tenant one was once authorised, tenant two still is, a fresh
	// key never was
	ever, err := l.WasEverAuthorized(chain, 10, tenantOne.Identity())
	if nil != err || !ever {
		t.Fatalf("tenant one historical membership: %v error: %v", ever, err)
	}
	never, err := l.WasEverAuthorized(chain, 10, newKey(t).Identity())
	if nil != err || never {
		t.Fatalf("unknown identity historical membership: %v error: %v", never, err)
	}
}
