// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package noderpc - JSON-RPC client onto a node's HTTP interface
//
// Supplies the two collaborator views the daemon needs from its node:
// ordered block access for the indexer and chunk submission for the
// worker.  The node side funds and broadcasts the transactions; this
// client only hands over finished records.
package noderpc

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/getlynx/chainstored/blockdata"
	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identity"
)

// node RPC error code for too few spendable inputs
const errorCodeInsufficientFunds = -6

// Client - one authenticated connection to a node
type Client struct {
	sync.Mutex // the HTTP RPC cannot interleave calls and responses

	client   *http.Client
	url      string
	username string
	password string
	id       uint64
	key      *identity.PrivateKey
	log      *logger.L
}

// New - a client for one node
//
// The key signs chunk headers and records on behalf of this daemon;
// it may be nil for a read-only client.
func New(url string, username string, password string, key *identity.PrivateKey) *Client {
	return &Client{
		client:   &http.Client{Timeout: 30 * time.Second},
		url:      url,
		username: username,
		password: password,
		key:      key,
		log:      logger.New("noderpc"),
	}
}

// Identity - the identity of the configured signing key
func (c *Client) Identity() identity.Identity {
	if nil == c.key {
		return identity.Identity{}
	}
	return c.key.Identity()
}

// Key - the configured signing key
func (c *Client) Key() *identity.PrivateKey {
	return c.key
}

// Height - current chain tip via getblockcount
func (c *Client) Height() (uint64, error) {
	var n uint64
	if err := c.call("getblockcount", []interface{}{}, &n); nil != err {
		return 0, err
	}
	return n, nil
}

// verbose getblock reply, one output script per vout
type rpcBlock struct {
	Height uint64 `json:"height"`
	Time   uint64 `json:"time"`
	Tx     []struct {
		Vin []struct {
			Coinbase string `json:"coinbase"`
		} `json:"vin"`
		Vout []struct {
			ScriptPubKey struct {
				Hex string `json:"hex"`
			} `json:"scriptPubKey"`
		} `json:"vout"`
	} `json:"tx"`
}

// Block - fetch one block via getblockhash + getblock
func (c *Client) Block(height uint64) (*blockdata.Block, error) {
	var hash string
	if err := c.call("getblockhash", []interface{}{height}, &hash); nil != err {
		return nil, err
	}

	blk := rpcBlock{}
	// verbosity 2 includes the transactions with their output scripts
	if err := c.call("getblock", []interface{}{hash, 2}, &blk); nil != err {
		return nil, err
	}

	transactions := make([]blockdata.Transaction, len(blk.Tx))
	for i, tx := range blk.Tx {
		t := blockdata.Transaction{
			Outputs: make([]blockdata.Output, len(tx.Vout)),
		}
		if 0 != len(tx.Vin) && "" != tx.Vin[0].Coinbase {
			t.Coinbase = true
		}
		for j, vout := range tx.Vout {
			t.Outputs[j].ScriptHex = vout.ScriptPubKey.Hex
		}
		// proof of stake marker: first output script is empty
		if !t.Coinbase && 0 != len(t.Outputs) && "" == t.Outputs[0].ScriptHex {
			t.Coinstake = true
		}
		transactions[i] = t
	}

	return &blockdata.Block{
		Height:       blk.Height,
		Timestamp:    blk.Time,
		Transactions: transactions,
	}, nil
}

// Submit - hand finished records to the node wallet for broadcast
func (c *Client) Submit(recordsHex []string) error {
	var txid string
	err := c.call("storechunks", []interface{}{recordsHex}, &txid)
	if nil != err {
		return err
	}
	c.log.Infof("submitted %d records: txid: %s", len(recordsHex), txid)
	return nil
}

// for encoding the RPC arguments
type rpcArguments struct {
	Id     uint64        `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

// the RPC error response
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// for decoding the RPC reply
type rpcReply struct {
	Id     int64       `json:"id"`
	Result interface{} `json:"result"`
	Error  *rpcError   `json:"error"`
}

// high level call
func (c *Client) call(method string, params []interface{}, reply interface{}) error {
	c.Lock()
	defer c.Unlock()

	c.id += 1

	arguments := rpcArguments{
		Id:     c.id,
		Method: method,
		Params: params,
	}
	response := rpcReply{
		Result: reply,
	}
	err := c.rpc(&arguments, &response)
	if nil != err {
		c.log.Tracef("rpc returned error: %v", err)
		return err
	}

	if nil != response.Error {
		if errorCodeInsufficientFunds == response.Error.Code {
			return fault.ErrInsufficientCapacity
		}
		return fault.ProcessError("node RPC error: " + response.Error.Message)
	}
	return nil
}

// basic RPC - only use while locked
func (c *Client) rpc(arguments *rpcArguments, reply *rpcReply) error {

	s, err := json.Marshal(arguments)
	if nil != err {
		return err
	}

	c.log.Tracef("rpc send: %s", s)

	postData := bytes.NewBuffer(s)

	request, err := http.NewRequest("POST", c.url, postData)
	if nil != err {
		return err
	}
	request.SetBasicAuth(c.username, c.password)

	response, err := c.client.Do(request)
	if nil != err {
		return err
	}
	defer response.Body.Close()
	body, err := ioutil.ReadAll(response.Body)
	if nil != err {
		return err
	}

	c.log.Tracef("rpc response body: %s", body)

	return json.Unmarshal(body, reply)
}
