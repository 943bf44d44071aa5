// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/identity"
	"github.com/getlynx/chainstored/rpc/ratelimit"
	"github.com/getlynx/chainstored/signedrecord"
)

// StoreRequest - queue a file for storing
type StoreRequest struct {
	Path string `json:"path"`
	UUID string `json:"uuid,omitempty"`
}

// StoreReply - the pollable id and the assigned uuid
type StoreReply struct {
	ResultID string                `json:"result_id"`
	UUID     identifier.Identifier `json:"uuid"`
}

func (s *Server) store(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	if _, ok := s.caller(r); !ok {
		sendUnauthorized(w)
		return
	}
	if err := ratelimit.Limit(s.limiter); nil != err {
		sendTooManyRequests(w)
		return
	}

	request := StoreRequest{}
	if err := json.NewDecoder(r.Body).Decode(&request); nil != err {
		sendBadRequest(w, err)
		return
	}

	uuid := identifier.Identifier{}
	if "" != request.UUID {
		u, err := identifier.FromHexString(request.UUID)
		if nil != err {
			sendBadRequest(w, err)
			return
		}
		uuid = u
	}

	resultID, uuid, err := s.worker.SubmitStore(request.Path, uuid)
	if nil != err {
		sendInternalServerError(w)
		return
	}

	sendReply(w, StoreReply{
		ResultID: resultID,
		UUID:     uuid,
	})
}

// FetchRequest - queue an asset for reconstruction
type FetchRequest struct {
	UUID        string `json:"uuid"`
	Destination string `json:"destination"`
}

// FetchReply - the pollable id
type FetchReply struct {
	ResultID string `json:"result_id"`
}

func (s *Server) fetch(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	if _, ok := s.caller(r); !ok {
		sendUnauthorized(w)
		return
	}
	if err := ratelimit.Limit(s.limiter); nil != err {
		sendTooManyRequests(w)
		return
	}

	request := FetchRequest{}
	if err := json.NewDecoder(r.Body).Decode(&request); nil != err {
		sendBadRequest(w, err)
		return
	}

	uuid, err := identifier.FromHexString(request.UUID)
	if nil != err {
		sendBadRequest(w, err)
		return
	}

	resultID, err := s.worker.SubmitFetch(uuid, request.Destination)
	if nil != err {
		sendInternalServerError(w)
		return
	}

	sendReply(w, FetchReply{ResultID: resultID})
}

func (s *Server) result(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	if _, ok := s.caller(r); !ok {
		sendUnauthorized(w)
		return
	}

	resultID := strings.TrimPrefix(r.URL.Path, "/v1/result/")
	result, err := s.worker.Result(resultID)
	if nil != err {
		sendNotFound(w)
		return
	}
	sendReply(w, result)
}

// StatusReply - worker and chain state
type StatusReply struct {
	Status    string `json:"status"`
	PutDepth  int    `json:"put_depth"`
	GetDepth  int    `json:"get_depth"`
	Height    uint64 `json:"height"`
	Watermark uint64 `json:"watermark"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	if _, ok := s.caller(r); !ok {
		sendUnauthorized(w)
		return
	}

	height, err := s.reader.Height()
	if nil != err {
		height = 0
	}
	put, get := s.worker.Depths()

	sendReply(w, StatusReply{
		Status:    s.worker.Status().String(),
		PutDepth:  put,
		GetDepth:  get,
		Height:    height,
		Watermark: s.ledger.Watermark(),
		Version:   s.version,
		Uptime:    time.Since(s.start).String(),
	})
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	caller, ok := s.caller(r)
	if !ok {
		sendUnauthorized(w)
		return
	}
	limit := defaultCatalogCount
	if v := r.URL.Query().Get("limit"); "" != v {
		n, err := strconv.Atoi(v)
		if nil != err {
			sendBadRequest(w, fault.ErrInvalidCount)
			return
		}
		limit = n
	}

	// charged against the limiter in proportion to the count asked for
	switch err := ratelimit.LimitN(s.limiter, limit, maximumCatalogCount); err {
	case nil:
	case fault.ErrInvalidCount:
		sendBadRequest(w, err)
		return
	default:
		sendTooManyRequests(w)
		return
	}

	entries, err := s.indexer.Catalog(caller, limit)
	if nil != err {
		sendInternalServerError(w)
		return
	}
	sendReply(w, entries)
}

// AuthRequest - subject of an authorization change
//
// exactly one of address, identity or uuid must be set; kind selects
// the record variant and defaults to an identity authorization
type AuthRequest struct {
	Kind     string `json:"kind,omitempty"` // identity | tenant | uuid
	Address  string `json:"address,omitempty"`
	Identity string `json:"identity,omitempty"`
	UUID     string `json:"uuid,omitempty"`
}

// AuthReply - the packed record as broadcast
type AuthReply struct {
	Record  string `json:"record"`
	Applied bool   `json:"applied"`
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) {
	s.authChange(w, r, signedrecord.Add)
}

func (s *Server) deauthorize(w http.ResponseWriter, r *http.Request) {
	s.authChange(w, r, signedrecord.Remove)
}

// build, broadcast and locally apply one signed record
//
// root-only: the ledger applies any well formed witnessed record
// without checking who signed it, so this boundary is the only place
// that restricts submission to the root caller
func (s *Server) authChange(w http.ResponseWriter, r *http.Request, operation signedrecord.Operation) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}
	caller, ok := s.caller(r)
	if !ok {
		sendUnauthorized(w)
		return
	}
	if s.ledger.Root() != caller {
		sendForbidden(w)
		return
	}
	if err := ratelimit.Limit(s.limiter); nil != err {
		sendTooManyRequests(w)
		return
	}

	request := AuthRequest{}
	if err := json.NewDecoder(r.Body).Decode(&request); nil != err {
		sendBadRequest(w, err)
		return
	}

	record := &signedrecord.Record{
		Operation: operation,
		Timestamp: uint64(time.Now().Unix()),
	}

	switch request.Kind {
	case "", "identity":
		record.Kind = signedrecord.Authorization
	case "tenant":
		record.Kind = signedrecord.TenantBlock
	case "uuid":
		record.Kind = signedrecord.UUIDBlock
	default:
		sendBadRequest(w, fault.ErrUnknownRecordKind)
		return
	}

	switch record.Kind {
	case signedrecord.UUIDBlock:
		uuid, err := identifier.FromHexString(request.UUID)
		if nil != err {
			sendBadRequest(w, err)
			return
		}
		record.UUID = uuid

	default:
		subject, err := s.subjectIdentity(&request)
		if nil != err {
			sendBadRequest(w, err)
			return
		}
		record.Identity = subject
	}

	packed, err := signedrecord.Pack(record, s.wallet.Key())
	if nil != err {
		sendInternalServerError(w)
		return
	}

	if err := s.wallet.Submit([]string{packed}); nil != err {
		s.log.Errorf("record broadcast failed: %s", err)
		sendInternalServerError(w)
		return
	}

	// apply locally so the change is visible before the next replay
	parsed, err := signedrecord.Unpack(packed, 0)
	if nil != err {
		sendInternalServerError(w)
		return
	}
	applied := s.ledger.Apply(parsed)

	s.log.Infof("authorization change: kind: %s  operation: %d  applied: %v",
		request.Kind, operation, applied)

	sendReply(w, AuthReply{
		Record:  packed,
		Applied: applied,
	})
}

// the target identity from either form of the request
func (s *Server) subjectIdentity(request *AuthRequest) (identity.Identity, error) {
	if "" != request.Address {
		return identity.AddressToIdentity(request.Address, s.addressVersion)
	}
	return identity.FromHexString(request.Identity)
}
