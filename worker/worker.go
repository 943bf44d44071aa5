// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package worker - single worker drain of the store and fetch queues
//
// Two FIFO queues feed one background loop.  Submission is
// synchronous: the job is appended under the queue lock and a
// pollable result id is returned at once.  All chain scanning, codec
// work and disk I/O happens on the worker goroutine with no lock
// held; the lock only ever covers the queue push/pop itself.
//
// There is no priority, cancellation or parallelism.  A large job
// blocks everything queued after it until it finishes, and queue
// depth is unbounded.
package worker

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/getlynx/chainstored/assembler"
	"github.com/getlynx/chainstored/chunkrecord"
	"github.com/getlynx/chainstored/fault"
	"github.com/getlynx/chainstored/identifier"
	"github.com/getlynx/chainstored/indexer"
	"github.com/getlynx/chainstored/ledger"
	"github.com/getlynx/chainstored/storage"
	"github.com/getlynx/chainstored/wallet"
)

// Status - what the worker loop is doing right now
type Status int

// possible status values
const (
	Idle Status = iota
	Busy
	Error
)

// Status.String
func (s Status) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Busy:
		return "Busy"
	case Error:
		return "Error"
	default:
		return "*unknown*"
	}
}

// job states as they appear in the result log
const (
	StateQueued  = "queued"
	StateRunning = "running"
	StateDone    = "done"
)

// outcome recorded when a job finishes cleanly
const OutcomeSuccess = "completed successfully"

// result id is 8 random bytes, 16 hex characters
const resultIDLength = 8

// Result - one line of the result log
type Result struct {
	Queue     string                `json:"queue"`
	UUID      identifier.Identifier `json:"uuid"`
	State     string                `json:"state"`
	Outcome   string                `json:"outcome,omitempty"`
	Path      string                `json:"path,omitempty"`
	Submitted uint64                `json:"submitted"`
	Finished  uint64                `json:"finished,omitempty"`
}

type storeJob struct {
	id   []byte
	path string
	uuid identifier.Identifier
}

type fetchJob struct {
	id          []byte
	uuid        identifier.Identifier
	destination string
}

// Worker - the queues and their single drain loop
type Worker struct {
	sync.Mutex // guards the queues and status word only

	putQueue []storeJob
	getQueue []fetchJob
	status   Status

	indexer  *indexer.Indexer
	ledger   *ledger.Ledger
	wallet   wallet.Wallet
	interval time.Duration
	log      *logger.L
}

// New - a worker over one indexer, ledger and wallet
//
// interval is the queue polling tick of the background loop.
func New(ix *indexer.Indexer, l *ledger.Ledger, w wallet.Wallet, interval time.Duration) *Worker {
	return &Worker{
		indexer:  ix,
		ledger:   l,
		wallet:   w,
		interval: interval,
		log:      logger.New("worker"),
	}
}

// SubmitStore - queue a file for storing
//
// A zero uuid gets a fresh random one; the assigned uuid is returned
// together with the result id so the caller can locate the asset
// later.
func (w *Worker) SubmitStore(path string, uuid identifier.Identifier) (string, identifier.Identifier, error) {
	if uuid.IsZero() {
		fresh, err := identifier.New()
		if nil != err {
			return "", uuid, err
		}
		uuid = fresh
	}

	id, err := newResultID()
	if nil != err {
		return "", uuid, err
	}

	w.saveResult(id, &Result{
		Queue:     "put",
		UUID:      uuid,
		State:     StateQueued,
		Submitted: uint64(time.Now().Unix()),
	})

	w.Lock()
	w.putQueue = append(w.putQueue, storeJob{
		id:   id,
		path: path,
		uuid: uuid,
	})
	w.Unlock()

	w.log.Infof("store queued: uuid: %s  path: %q  id: %x", uuid, path, id)
	return hex.EncodeToString(id), uuid, nil
}

// SubmitFetch - queue an asset for reconstruction to disk
func (w *Worker) SubmitFetch(uuid identifier.Identifier, destination string) (string, error) {
	id, err := newResultID()
	if nil != err {
		return "", err
	}

	w.saveResult(id, &Result{
		Queue:     "get",
		UUID:      uuid,
		State:     StateQueued,
		Submitted: uint64(time.Now().Unix()),
	})

	w.Lock()
	w.getQueue = append(w.getQueue, fetchJob{
		id:          id,
		uuid:        uuid,
		destination: destination,
	})
	w.Unlock()

	w.log.Infof("fetch queued: uuid: %s  destination: %q  id: %x", uuid, destination, id)
	return hex.EncodeToString(id), nil
}

// Result - look up the result log by the id handed out at submission
func (w *Worker) Result(resultID string) (*Result, error) {
	id, err := hex.DecodeString(resultID)
	if nil != err || resultIDLength != len(id) {
		return nil, fault.ErrJobNotFound
	}

	packed := storage.Pool.Results.Get(id)
	if nil == packed {
		return nil, fault.ErrJobNotFound
	}

	result := &Result{}
	if err := json.Unmarshal(packed, result); nil != err {
		return nil, fault.ErrJobNotFound
	}
	return result, nil
}

// Status - current loop state
func (w *Worker) Status() Status {
	w.Lock()
	defer w.Unlock()
	return w.status
}

// Depths - pending job counts of the two queues
func (w *Worker) Depths() (int, int) {
	w.Lock()
	defer w.Unlock()
	return len(w.putQueue), len(w.getQueue)
}

// Run - the background drain loop
//
// Once per tick: at most one store job, then at most one fetch job.
func (w *Worker) Run(args interface{}, shutdown <-chan struct{}) {
	log := w.log
	log.Info("starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case <-time.After(w.interval):
			if job, ok := w.popStore(); ok {
				w.runJob(job.id, func() (string, error) {
					return w.store(job)
				})
			}
			if job, ok := w.popFetch(); ok {
				w.runJob(job.id, func() (string, error) {
					return w.fetch(job)
				})
			}
		}
	}

	log.Info("shutting down…")
	log.Flush()
}

func (w *Worker) popStore() (storeJob, bool) {
	w.Lock()
	defer w.Unlock()
	if 0 == len(w.putQueue) {
		return storeJob{}, false
	}
	job := w.putQueue[0]
	w.putQueue = w.putQueue[1:]
	return job, true
}

func (w *Worker) popFetch() (fetchJob, bool) {
	w.Lock()
	defer w.Unlock()
	if 0 == len(w.getQueue) {
		return fetchJob{}, false
	}
	job := w.getQueue[0]
	w.getQueue = w.getQueue[1:]
	return job, true
}

func (w *Worker) setStatus(status Status) {
	w.Lock()
	w.status = status
	w.Unlock()
}

// run one job, converting any failure into a log line
//
// a single bad job must never take the process down
func (w *Worker) runJob(id []byte, job func() (string, error)) {
	w.setStatus(Busy)
	w.markRunning(id)

	path := ""
	outcome := OutcomeSuccess
	finalStatus := Idle

	func() {
		defer func() {
			if r := recover(); nil != r {
				w.log.Errorf("job panic: %x: %v", id, r)
				outcome = "internal error"
				finalStatus = Error
			}
		}()
		p, err := job()
		if nil != err {
			outcome = err.Error()
		}
		path = p
	}()

	w.finish(id, outcome, path)
	w.setStatus(finalStatus)
	w.log.Infof("job finished: %x: %s", id, outcome)
}

// the store path
func (w *Worker) store(job storeJob) (string, error) {

	if !w.ledger.IsAuthorized(w.wallet.Identity()) {
		return "", fault.ErrNotAuthorised
	}

	exists, err := w.indexer.Exists(job.uuid)
	if nil != err {
		return "", err
	}
	if exists {
		return "", fault.ErrIdentifierExists
	}

	data, err := ioutil.ReadFile(job.path)
	if nil != err {
		return "", fault.ErrFileRead
	}

	records, err := chunkrecord.Encode(data, pathExtension(job.path), job.uuid, w.wallet.Key())
	if nil != err {
		return "", err
	}

	if err := w.wallet.Submit(records); nil != err {
		return "", err
	}
	return job.path, nil
}

// the fetch path
func (w *Worker) fetch(job fetchJob) (string, error) {

	_, chunks, err := w.indexer.Locate(job.uuid)
	if nil != err {
		return "", err
	}

	path, err := assembler.WriteFile(chunks, job.destination)
	if nil != err {
		return "", err
	}
	return path, nil
}

// a usable extension is 1 to 4 ASCII characters after the final dot
func pathExtension(path string) string {
	extension := strings.TrimPrefix(filepath.Ext(path), ".")
	if "" == extension || len(extension) > chunkrecord.ExtensionLength {
		return ""
	}
	return extension
}

func newResultID() ([]byte, error) {
	id := make([]byte, resultIDLength)
	if _, err := rand.Read(id); nil != err {
		return nil, err
	}
	return id, nil
}

func (w *Worker) saveResult(id []byte, result *Result) {
	packed, err := json.Marshal(result)
	fault.PanicIfError("worker.saveResult", err)
	storage.Pool.Results.Put(id, packed)
}

func (w *Worker) markRunning(id []byte) {
	result, err := w.Result(hex.EncodeToString(id))
	if nil != err {
		return
	}
	result.State = StateRunning
	w.saveResult(id, result)
}

func (w *Worker) finish(id []byte, outcome string, path string) {
	result, err := w.Result(hex.EncodeToString(id))
	if nil != err {
		result = &Result{}
	}
	result.State = StateDone
	result.Outcome = outcome
	result.Path = path
	result.Finished = uint64(time.Now().Unix())
	w.saveResult(id, result)
}
