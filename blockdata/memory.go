// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdata

import (
	"sync"

	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/script"
)

// MemoryChain - a Reader backed by an in-process slice of blocks
//
// Used by the test suites and the offline tool; the daemon reads the
// real chain through the node RPC adapter instead.
type MemoryChain struct {
	sync.RWMutex
	start  uint64
	blocks []*Block
}

// NewMemoryChain - an empty chain whose first appended block gets the
// given height
func NewMemoryChain(start uint64) *MemoryChain {
	return &MemoryChain{start: start}
}

// Append - add one block at the next height, returning that height
func (c *MemoryChain) Append(timestamp uint64, transactions ...Transaction) uint64 {
	c.Lock()
	defer c.Unlock()

	height := c.start + uint64(len(c.blocks))
	c.blocks = append(c.blocks, &Block{
		Height:       height,
		Timestamp:    timestamp,
		Transactions: transactions,
	})
	return height
}

// Height - current tip height
func (c *MemoryChain) Height() (uint64, error) {
	c.RLock()
	defer c.RUnlock()

	if 0 == len(c.blocks) {
		return 0, fault.ErrNotInitialised
	}
	return c.start + uint64(len(c.blocks)) - 1, nil
}

// Block - fetch a block by height
func (c *MemoryChain) Block(height uint64) (*Block, error) {
	c.RLock()
	defer c.RUnlock()

	if height < c.start || height >= c.start+uint64(len(c.blocks)) {
		return nil, fault.ErrNotInitialised
	}
	return c.blocks[height-c.start], nil
}

// OpReturnTransaction - a transaction pushing the given records, one
// OP_RETURN output per record
func OpReturnTransaction(recordsHex ...string) Transaction {
	outputs := make([]Output, len(recordsHex))
	for i, record := range recordsHex {
		outputs[i] = Output{ScriptHex: script.Enclose(record)}
	}
	return Transaction{Outputs: outputs}
}
