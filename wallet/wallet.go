// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet - the funding side of chunk submission
//
// The daemon never builds raw transactions itself: a wallet takes
// finished chunk records and gets them onto the chain, one OP_RETURN
// output per record.  The live implementation sits in the noderpc
// package; the in-memory one here backs the test suites and the
// offline tool.
package wallet

import (
	"github.com/getlynx/chainstored/blockdata"
	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identity"
)

// Wallet - submission contract used by the job worker
type Wallet interface {

	// the identity whose key signs headers and records
	Identity() identity.Identity

	// the signing key itself, for the record packers
	Key() *identity.PrivateKey

	// broadcast finished records as OP_RETURN outputs
	//
	// returns fault.ErrInsufficientCapacity when the wallet cannot
	// fund that many outputs right now; the job fails and the caller
	// may retry later
	Submit(recordsHex []string) error
}

// Memory - a wallet writing straight into an in-process chain
type Memory struct {
	key      *identity.PrivateKey
	chain    *blockdata.MemoryChain
	capacity int
	clock    func() uint64
}

// NewMemory - wallet over a memory chain
//
// capacity limits the records accepted per submit, zero means
// unlimited; clock supplies block timestamps.
func NewMemory(key *identity.PrivateKey, chain *blockdata.MemoryChain, capacity int, clock func() uint64) *Memory {
	return &Memory{
		key:      key,
		chain:    chain,
		capacity: capacity,
		clock:    clock,
	}
}

// Identity - the signing identity
func (w *Memory) Identity() identity.Identity {
	return w.key.Identity()
}

// Key - the signing key
func (w *Memory) Key() *identity.PrivateKey {
	return w.key
}

// Submit - append one block carrying all the records
func (w *Memory) Submit(recordsHex []string) error {
	if 0 != w.capacity && len(recordsHex) > w.capacity {
		return fault.ErrInsufficientCapacity
	}
	w.chain.Append(w.clock(), blockdata.OpReturnTransaction(recordsHex...))
	return nil
}
