// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - the exposed HTTP JSON operation surface
//
// Every endpoint authenticates the caller through HTTP basic auth
// against the configured user table; the resulting caller identity
// drives catalog visibility and the root-only guard on the
// authorization endpoints.  The ledger itself never authenticates,
// that stays a boundary concern here.
package rpc

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/getlynx/chainstored/blockdata"
	"github.com/getlynx/chainstored/identity"
	"github.com/getlynx/chainstored/indexer"
	"github.com/getlynx/chainstored/ledger"
	"github.com/getlynx/chainstored/wallet"
	"github.com/getlynx/chainstored/worker"
)

// request limits
const (
	defaultCatalogCount = 10
	maximumCatalogCount = 100

	rateLimit = 10.0

	// burst must cover the largest single catalog charge
	rateBurstCount = maximumCatalogCount
)

// User - one authenticated caller from the configuration
type User struct {
	Name     string `gluamapper:"name" json:"name"`
	Password string `gluamapper:"password" json:"-"`
	Identity string `gluamapper:"identity" json:"identity"`
}

type authUser struct {
	password string
	identity identity.Identity
}

// Server - the handler state shared by every endpoint
type Server struct {
	log     *logger.L
	worker  *worker.Worker
	indexer *indexer.Indexer
	ledger  *ledger.Ledger
	wallet  wallet.Wallet
	reader  blockdata.Reader
	users   map[string]authUser
	limiter *rate.Limiter
	start   time.Time
	version string

	// base58check version byte for addresses in auth requests
	addressVersion byte
}

// New - a server over the daemon's collaborators
func New(
	w *worker.Worker,
	ix *indexer.Indexer,
	l *ledger.Ledger,
	wal wallet.Wallet,
	reader blockdata.Reader,
	users []User,
	addressVersion byte,
	version string,
) (*Server, error) {

	table := make(map[string]authUser, len(users))
	for _, user := range users {
		id, err := identity.FromHexString(user.Identity)
		if nil != err {
			return nil, err
		}
		table[user.Name] = authUser{
			password: user.Password,
			identity: id,
		}
	}

	return &Server{
		log:     logger.New("rpc"),
		worker:  w,
		indexer: ix,
		ledger:  l,
		wallet:  wal,
		reader:  reader,
		users:   table,
		limiter: rate.NewLimiter(rateLimit, rateBurstCount),
		start:   time.Now(),
		version: version,

		addressVersion: addressVersion,
	}, nil
}

// Router - the endpoint multiplexer
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/store", s.store)
	mux.HandleFunc("/v1/fetch", s.fetch)
	mux.HandleFunc("/v1/result/", s.result)
	mux.HandleFunc("/v1/status", s.status)
	mux.HandleFunc("/v1/catalog", s.catalog)
	mux.HandleFunc("/v1/authorize", s.authorize)
	mux.HandleFunc("/v1/deauthorize", s.deauthorize)
	mux.HandleFunc("/", s.root)
	return mux
}

// Serve - listen and handle until the listener fails
func (s *Server) Serve(listen string) error {
	s.log.Infof("listening on: %s", listen)
	return http.ListenAndServe(listen, s.Router())
}

// authenticate the request, returning the caller identity
func (s *Server) caller(r *http.Request) (identity.Identity, bool) {
	name, password, ok := r.BasicAuth()
	if !ok {
		return identity.Identity{}, false
	}
	user, ok := s.users[name]
	if !ok || user.password != password {
		return identity.Identity{}, false
	}
	return user.identity, true
}

// this matches anything not matched and returns error
func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	sendNotFound(w)
}
