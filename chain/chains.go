// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain - names and fixed parameters of the supported chains
package chain

// names of all chains
const (
	Lynx    = "lynx"
	Testing = "testing"
	Local   = "local"
)

// Parameters - fixed protocol parameters of one chain
type Parameters struct {
	// first block that can carry storage records; scans never go below this
	StartHeight uint64

	// timestamp of the chain's genesis block, initial ledger watermark
	GenesisTimestamp uint64

	// hex hash160 of the identity that can never be removed from the ledger
	RootIdentity string
}

// per-chain parameters
var parameters = map[string]Parameters{
	Lynx: {
		StartHeight:      2631000,
		GenesisTimestamp: 1490187584,
		RootIdentity:     "7f0ac3778a22dcbcd54f2b9ba77d08cbef0d584f",
	},
	Testing: {
		StartHeight:      100,
		GenesisTimestamp: 1489987200,
		RootIdentity:     "3b5d9a13f0c871c51b8aae2f2d9a76b8f9bd0ae5",
	},
	Local: {
		StartHeight:      1,
		GenesisTimestamp: 1296688602,
		RootIdentity:     "4f2a916e09270896a364b9b2e2a3f1dcc3cff1ae",
	},
}

// Valid - validate a chain name
func Valid(name string) bool {
	_, ok := parameters[name]
	return ok
}

// Get - fetch the parameters for a chain
func Get(name string) (Parameters, bool) {
	p, ok := parameters[name]
	return p, ok
}
