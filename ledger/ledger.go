// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger - the in-memory capability list
//
// The ledger is rebuilt from the chain on demand and never persisted.
// It is mutated only by validated signed records applied in block
// order, plus the one seeded root identity that can never be durably
// removed.  Locks are held across set mutation only, never across
// signature recovery or chain access.
package ledger

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/getlynx/chainstored/blockdata"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/identity"
	"github.com/getlynx/chainstored/script"
	"github.com/getlynx/chainstored/signedrecord"
)

// Ledger - one capability list instance
//
// Separate instances can coexist, nothing here is process global.
type Ledger struct {
	root    identity.Identity
	genesis uint64
	log     *logger.L

	authorized struct {
		sync.RWMutex
		members map[identity.Identity]struct{}
	}
	blockedUUIDs struct {
		sync.RWMutex
		members map[identifier.Identifier]struct{}
	}
	blockedTenants struct {
		sync.RWMutex
		members map[identity.Identity]struct{}
	}
	watermark struct {
		sync.RWMutex
		value uint64
	}
}

// New - create an unseeded ledger for one chain's root identity
func New(root identity.Identity, genesisTimestamp uint64) *Ledger {
	l := &Ledger{
		root:    root,
		genesis: genesisTimestamp,
		log:     logger.New("ledger"),
	}
	l.authorized.members = map[identity.Identity]struct{}{}
	l.blockedUUIDs.members = map[identifier.Identifier]struct{}{}
	l.blockedTenants.members = map[identity.Identity]struct{}{}
	return l
}

// Seed - install the root identity and genesis watermark
//
// Idempotent: a ledger that already holds members is left untouched.
func (l *Ledger) Seed() {
	l.authorized.Lock()
	empty := 0 == len(l.authorized.members)
	if empty {
		l.authorized.members[l.root] = struct{}{}
	}
	l.authorized.Unlock()

	if empty {
		l.watermark.Lock()
		l.watermark.value = l.genesis
		l.watermark.Unlock()
		l.log.Infof("seeded root: %s  watermark: %d", l.root, l.genesis)
	}
}

// Root - the irremovable identity
func (l *Ledger) Root() identity.Identity {
	return l.root
}

// IsAuthorized - current membership test
func (l *Ledger) IsAuthorized(id identity.Identity) bool {
	l.authorized.RLock()
	_, ok := l.authorized.members[id]
	l.authorized.RUnlock()
	return ok
}

// IsBlockedUUID - is this asset identifier hidden
func (l *Ledger) IsBlockedUUID(uuid identifier.Identifier) bool {
	l.blockedUUIDs.RLock()
	_, ok := l.blockedUUIDs.members[uuid]
	l.blockedUUIDs.RUnlock()
	return ok
}

// IsBlockedTenant - are this tenant's assets hidden
func (l *Ledger) IsBlockedTenant(id identity.Identity) bool {
	l.blockedTenants.RLock()
	_, ok := l.blockedTenants.members[id]
	l.blockedTenants.RUnlock()
	return ok
}

// Authorized - snapshot of the current member list
func (l *Ledger) Authorized() []identity.Identity {
	l.authorized.RLock()
	members := make([]identity.Identity, 0, len(l.authorized.members))
	for id := range l.authorized.members {
		members = append(members, id)
	}
	l.authorized.RUnlock()
	return members
}

// Watermark - the current timestamp floor
func (l *Ledger) Watermark() uint64 {
	l.watermark.RLock()
	value := l.watermark.value
	l.watermark.RUnlock()
	return value
}

// Apply - validate one signed record and mutate the ledger
//
// Returns true when the record was applied.  A record below the
// watermark or with an unrecoverable signature is dropped silently,
// replaying already-applied history is normal operation, not an
// error.  The watermark only advances to timestamps that are not in
// the future, so a future-dated record cannot poison the floor.
func (l *Ledger) Apply(record *signedrecord.Record) bool {
	if signedrecord.Add != record.Operation && signedrecord.Remove != record.Operation {
		return false
	}

	if record.Timestamp < l.Watermark() {
		l.log.Debugf("%s record below watermark: %d < %d", record.Kind, record.Timestamp, l.Watermark())
		return false
	}

	// signature recovery without holding any lock
	if _, err := record.Signer(); nil != err {
		l.log.Debugf("%s record signature rejected: %s", record.Kind, err)
		return false
	}

	add := signedrecord.Add == record.Operation

	switch record.Kind {
	case signedrecord.Authorization:
		l.authorized.Lock()
		if add {
			l.authorized.members[record.Identity] = struct{}{}
		} else {
			delete(l.authorized.members, record.Identity)

			// the root identity cannot be removed, reverse immediately
			if l.root == record.Identity {
				l.authorized.members[l.root] = struct{}{}
			}
		}
		l.authorized.Unlock()

	case signedrecord.UUIDBlock:
		l.blockedUUIDs.Lock()
		if add {
			l.blockedUUIDs.members[record.UUID] = struct{}{}
		} else {
			delete(l.blockedUUIDs.members, record.UUID)
		}
		l.blockedUUIDs.Unlock()

	case signedrecord.TenantBlock:
		l.blockedTenants.Lock()
		if add {
			l.blockedTenants.members[record.Identity] = struct{}{}
		} else {
			delete(l.blockedTenants.members, record.Identity)
		}
		l.blockedTenants.Unlock()

	default:
		return false
	}

	if record.Timestamp <= uint64(time.Now().Unix()) {
		l.watermark.Lock()
		if record.Timestamp > l.watermark.value {
			l.watermark.value = record.Timestamp
		}
		l.watermark.Unlock()
	}

	return true
}

// Replay - apply every signed record found on the chain in block order
//
// Walks from floor to the current tip.  Reward transactions are
// skipped, any malformed or foreign OP_RETURN is ignored, a single
// bad output never aborts the walk.
func (l *Ledger) Replay(reader blockdata.Reader, floor uint64) error {
	tip, err := reader.Height()
	if nil != err {
		return err
	}

	for height := floor; height <= tip; height += 1 {
		block, err := reader.Block(height)
		if nil != err {
			return err
		}
		for _, tx := range block.Transactions {
			if tx.IsReward() {
				continue
			}
			for _, output := range tx.Outputs {
				if !script.IsOpReturn(output.ScriptHex) {
					continue
				}
				offset := script.PayloadOffset(output.ScriptHex)
				switch script.Classify(output.ScriptHex, offset) {
				case script.Authorization, script.UUIDBlock, script.TenantBlock:
					record, err := signedrecord.Unpack(output.ScriptHex, offset)
					if nil != err {
						continue // not our data
					}
					l.Apply(record)
				}
			}
		}
	}
	return nil
}

// WasEverAuthorized - historical membership, independent of the
// current list
//
// Walks tip down to floor and short-circuits on the first validated
// authorization add naming the identity.  The seeded root is always
// historical.
func (l *Ledger) WasEverAuthorized(reader blockdata.Reader, floor uint64, id identity.Identity) (bool, error) {
	if l.root == id {
		return true, nil
	}

	tip, err := reader.Height()
	if nil != err {
		return false, err
	}

	for height := tip; height >= floor; height -= 1 {
		block, err := reader.Block(height)
		if nil != err {
			return false, err
		}
		for _, tx := range block.Transactions {
			if tx.IsReward() {
				continue
			}
			for _, output := range tx.Outputs {
				if !script.IsOpReturn(output.ScriptHex) {
					continue
				}
				offset := script.PayloadOffset(output.ScriptHex)
				if script.Authorization != script.Classify(output.ScriptHex, offset) {
					continue
				}
				record, err := signedrecord.Unpack(output.ScriptHex, offset)
				if nil != err {
					continue
				}
				if signedrecord.Add != record.Operation || id != record.Identity {
					continue
				}
				if _, err := record.Signer(); nil != err {
					continue
				}
				return true, nil
			}
		}
		if 0 == height {
			break // uint64 wrap guard
		}
	}
	return false, nil
}
