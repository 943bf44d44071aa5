// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockdata - the view of the active chain this daemon consumes
//
// Consensus, proof validation and block propagation all live in the
// node; this package only states the contract: an ordered sequence of
// blocks, each carrying transactions whose outputs expose their
// script hex.  A Reader may observe the chain being extended between
// calls, scans are idempotent so a later scan converges.
package blockdata

// Output - one transaction output, only the script matters here
type Output struct {
	ScriptHex string `json:"scriptHex"`
}

// Transaction - outputs plus the flags that exclude reward transactions
type Transaction struct {
	Coinbase  bool     `json:"coinbase"`
	Coinstake bool     `json:"coinstake"`
	Outputs   []Output `json:"outputs"`
}

// Block - one block of the active chain
type Block struct {
	Height       uint64        `json:"height"`
	Timestamp    uint64        `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
}

// Reader - ordered access to the active chain
type Reader interface {

	// Height - the current tip height
	Height() (uint64, error)

	// Block - fetch one block of the active chain by height
	Block(height uint64) (*Block, error)
}

// IsReward - true for transactions that can never carry storage records
func (tx *Transaction) IsReward() bool {
	return tx.Coinbase || tx.Coinstake
}
