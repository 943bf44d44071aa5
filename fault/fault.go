// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches
package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type LengthError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised     = ExistsError("already initialised")
	ErrAssetBlocked           = InvalidError("asset identifier is blocked")
	ErrAuthSignature          = RecordError("authorization signature recovery failed")
	ErrChunkHash              = RecordError("chunk checksum mismatch")
	ErrChunkLength            = RecordError("chunk length is invalid")
	ErrChunkMagic             = RecordError("chunk magic is invalid")
	ErrChunkNumber            = RecordError("chunk sequence number is out of order")
	ErrChunkTotal             = RecordError("chunk total does not match chunk count")
	ErrChunkUUID              = RecordError("chunk uuid differs from first chunk")
	ErrChunkVersion           = RecordError("chunk version is invalid")
	ErrExtensionRename        = ProcessError("file extension rename failed")
	ErrFileOpen               = ProcessError("cannot open file")
	ErrFileRead               = ProcessError("cannot read file")
	ErrFileWrite              = ProcessError("cannot write file")
	ErrHeaderNotFound         = NotFoundError("asset header chunk not found")
	ErrIdentifierExists       = ExistsError("identifier already catalogued")
	ErrIdentifierLength       = LengthError("identifier length is invalid")
	ErrIdentityLength         = LengthError("identity length is invalid")
	ErrIncompleteChunkSet     = NotFoundError("incomplete chunk set")
	ErrInsufficientCapacity   = ProcessError("insufficient inputs for chunk count")
	ErrInvalidChain           = InvalidError("invalid chain name")
	ErrInvalidCount           = InvalidError("invalid count")
	ErrInvalidLoggerChannel   = InvalidError("invalid logger channel")
	ErrInvalidStructPointer   = InvalidError("invalid struct pointer")
	ErrJobNotFound            = NotFoundError("job result id not found")
	ErrKeyLength              = LengthError("key length is invalid")
	ErrNoSigningKey           = NotFoundError("no signing key is configured")
	ErrNotAuthorised          = InvalidError("identity is not authorised")
	ErrNotInitialised         = NotFoundError("not initialised")
	ErrNotOpReturn            = RecordError("script is not an op_return")
	ErrOversizedInput         = LengthError("input exceeds maximum asset size")
	ErrRateLimiting           = ProcessError("rate limit exceeded")
	ErrRecordOperation        = RecordError("record operation code is unknown")
	ErrRecordTimestamp        = RecordError("record timestamp is below watermark")
	ErrUnknownRecordKind      = RecordError("record kind is unknown")
	ErrWrongNetworkForAddress = InvalidError("address is for a different network")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e LengthError) Error() string   { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// IsErrExists - determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrLength(e error) bool   { _, ok := e.(LengthError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrRecord(e error) bool   { _, ok := e.(RecordError); return ok }
