// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package indexer - locate assets by rescanning the active chain
//
// There is no secondary index: every query replays transaction
// history between the protocol start height and the tip.  The chain
// itself is the source of truth and a repeated scan converges even if
// the chain grew in between.  A malformed or foreign output is simply
// not our data and never aborts a walk.
package indexer

import (
	"sort"

	"github.com/bitmark-inc/logger"

	"github.com/getlynx/chainstored/blockdata"
	"github.com/getlynx/chainstored/chunkrecord"
	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/identity"
	"github.com/getlynx/chainstored/ledger"
	"github.com/getlynx/chainstored/script"
)

// Entry - one catalog line for a stored asset
type Entry struct {
	UUID      identifier.Identifier `json:"uuid"`
	Length    uint64                `json:"length"`
	Height    uint64                `json:"height"`
	Timestamp uint64                `json:"timestamp"`
	Tenant    identity.Identity     `json:"tenant"`
	Extension string                `json:"extension,omitempty"`

	// reserved: set by the wallet's encryption layer, never derived
	// from the chunk fields themselves
	Encrypted bool `json:"encrypted"`
}

// Indexer - scanning access to one chain
type Indexer struct {
	reader blockdata.Reader
	ledger *ledger.Ledger
	floor  uint64
	log    *logger.L
}

// New - an indexer over a chain reader
//
// floor is the protocol introduction height, no scan goes below it.
func New(reader blockdata.Reader, l *ledger.Ledger, floor uint64) *Indexer {
	return &Indexer{
		reader: reader,
		ledger: l,
		floor:  floor,
		log:    logger.New("indexer"),
	}
}

// partial catalog state while the walk is running
type building struct {
	entry      Entry
	headerSeen bool
	lengthSeen bool
}

func (b *building) complete() bool {
	return b.headerSeen && b.lengthSeen
}

// Catalog - list the assets visible to a caller, newest first
//
// The root identity sees every asset, any other caller only those
// whose header signature recovers to the caller itself.  Blocked
// identifiers and blocked tenants are invisible to everyone.  A
// positive limit stops the walk once that many visible assets are
// complete; limit <= 0 walks the whole window.
func (ix *Indexer) Catalog(caller identity.Identity, limit int) ([]Entry, error) {
	tip, err := ix.reader.Height()
	if nil != err {
		return nil, err
	}

	root := ix.ledger.Root()
	pending := map[identifier.Identifier]*building{}

	visible := func(b *building) bool {
		return b.complete() && (caller == root || caller == b.entry.Tenant)
	}

scan:
	for height := tip; height >= ix.floor; height -= 1 {
		block, err := ix.reader.Block(height)
		if nil != err {
			return nil, err
		}

		for _, tx := range block.Transactions {
			if tx.IsReward() {
				continue
			}
			for _, output := range tx.Outputs {
				record, ok := ix.chunkAt(output.ScriptHex)
				if !ok {
					continue
				}

				uuid := record.RecordUUID()
				if ix.ledger.IsBlockedUUID(uuid) {
					continue
				}

				b := pending[uuid]
				if nil == b {
					b = &building{entry: Entry{UUID: uuid}}
					pending[uuid] = b
				}

				switch chunk := record.(type) {
				case *chunkrecord.Header:
					tenant, err := chunkrecord.VerifyHeader(chunk)
					if nil != err {
						continue // unattributable, not our data
					}
					if ix.ledger.IsBlockedTenant(tenant) {
						continue
					}
					// walking downwards, so a lower header wins
					b.entry.Tenant = tenant
					b.entry.Height = height
					b.entry.Timestamp = block.Timestamp
					b.headerSeen = true

				case *chunkrecord.Data:
					if chunk.Sequence != chunk.Total {
						continue // only the final chunk fixes the length
					}
					b.entry.Length = chunkrecord.AssetLength(chunk)
					b.entry.Extension = chunkrecord.ExtensionOf(chunk)
					b.lengthSeen = true
				}
			}
		}

		if limit > 0 {
			n := 0
			for _, b := range pending {
				if visible(b) {
					n += 1
				}
			}
			if n >= limit {
				break scan
			}
		}

		if 0 == height {
			break // uint64 wrap guard
		}
	}

	entries := make([]Entry, 0, len(pending))
	for _, b := range pending {
		if visible(b) {
			entries = append(entries, b.entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Height > entries[j].Height
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Locate - collect the full chunk set of one asset
//
// Chunks may be spread over blocks in any order; each data chunk is
// placed at sequence-1 in a vector sized by the declared total, so
// the result is always in sequence order regardless of where the walk
// found it.  The walk ends early once the header is found and the set
// is full.
func (ix *Indexer) Locate(uuid identifier.Identifier) (*chunkrecord.Header, []*chunkrecord.Data, error) {
	if ix.ledger.IsBlockedUUID(uuid) {
		return nil, nil, fault.ErrHeaderNotFound
	}

	tip, err := ix.reader.Height()
	if nil != err {
		return nil, nil, err
	}

	var header *chunkrecord.Header
	var chunks []*chunkrecord.Data
	totalKnown := false
	collected := uint32(0)

scan:
	for height := tip; height >= ix.floor; height -= 1 {
		block, err := ix.reader.Block(height)
		if nil != err {
			return nil, nil, err
		}

		for _, tx := range block.Transactions {
			if tx.IsReward() {
				continue
			}
			for _, output := range tx.Outputs {
				record, ok := ix.chunkAt(output.ScriptHex)
				if !ok || uuid != record.RecordUUID() {
					continue
				}

				switch chunk := record.(type) {
				case *chunkrecord.Header:
					header = chunk

				case *chunkrecord.Data:
					if !totalKnown {
						if 0 == chunk.Total {
							continue
						}
						chunks = make([]*chunkrecord.Data, chunk.Total)
						totalKnown = true
					}
					if 0 == chunk.Sequence || chunk.Sequence > uint32(len(chunks)) {
						continue // out of declared range
					}
					if nil == chunks[chunk.Sequence-1] {
						chunks[chunk.Sequence-1] = chunk
						collected += 1
					}
				}
			}
		}

		if nil != header && totalKnown && collected == uint32(len(chunks)) {
			break scan
		}
		if 0 == height {
			break
		}
	}

	if nil == header {
		return nil, nil, fault.ErrHeaderNotFound
	}
	if !totalKnown {
		// a header with no data chunks is an empty asset
		return header, []*chunkrecord.Data{}, nil
	}
	if collected != uint32(len(chunks)) {
		return nil, nil, fault.ErrIncompleteChunkSet
	}
	return header, chunks, nil
}

// Exists - creation time uniqueness probe for an identifier
func (ix *Indexer) Exists(uuid identifier.Identifier) (bool, error) {
	tip, err := ix.reader.Height()
	if nil != err {
		return false, err
	}

	for height := tip; height >= ix.floor; height -= 1 {
		block, err := ix.reader.Block(height)
		if nil != err {
			return false, err
		}
		for _, tx := range block.Transactions {
			if tx.IsReward() {
				continue
			}
			for _, output := range tx.Outputs {
				record, ok := ix.chunkAt(output.ScriptHex)
				if ok && uuid == record.RecordUUID() {
					return true, nil
				}
			}
		}
		if 0 == height {
			break
		}
	}
	return false, nil
}

// classify one output and parse it as a chunk record
func (ix *Indexer) chunkAt(scriptHex string) (chunkrecord.Record, bool) {
	if !script.IsOpReturn(scriptHex) {
		return nil, false
	}
	offset := script.PayloadOffset(scriptHex)
	if script.Data != script.Classify(scriptHex, offset) {
		return nil, false
	}
	record, err := chunkrecord.Unpack(scriptHex, offset)
	if nil != err {
		return nil, false // not our data
	}
	return record, true
}
