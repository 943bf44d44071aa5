// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package util - helpers for the fixed width hex wire format
//
// Every storage record is a string of lowercase hex pairs holding
// fixed width big-endian fields.  Reader walks such a string span by
// span, Writer builds one.  A Reader error is sticky: once a span is
// short or not hex every later call reports the same failure, so
// callers only test Err once after reading all spans.
package util

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/getlynx/chainstored/fault"
)

// Reader - sequential field reader over a hex string
type Reader struct {
	s   string
	pos int
	err error
}

// NewReader - start reading at a hex offset, normally the value
// returned by script.PayloadOffset
func NewReader(s string, offset int) *Reader {
	r := &Reader{s: s, pos: offset}
	if offset < 0 || offset > len(s) {
		r.err = fault.ErrChunkLength
	}
	return r
}

// take n hex characters
func (r *Reader) take(n int) string {
	if nil != r.err {
		return ""
	}
	if r.pos+n > len(r.s) {
		r.err = fault.ErrChunkLength
		return ""
	}
	span := r.s[r.pos : r.pos+n]
	r.pos += n
	return span
}

// Bytes - decode a span of n bytes
func (r *Reader) Bytes(n int) []byte {
	span := r.take(2 * n)
	if nil != r.err {
		return nil
	}
	buffer, err := hex.DecodeString(span)
	if nil != err {
		r.err = fault.ErrChunkLength
		return nil
	}
	return buffer
}

// Byte - decode a single byte field
func (r *Reader) Byte() byte {
	b := r.Bytes(1)
	if nil != r.err {
		return 0
	}
	return b[0]
}

// Uint16 - decode a two byte big-endian field
func (r *Reader) Uint16() uint16 {
	b := r.Bytes(2)
	if nil != r.err {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// Uint32 - decode a four byte big-endian field
func (r *Reader) Uint32() uint32 {
	b := r.Bytes(4)
	if nil != r.err {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Remainder - decode everything left, used for trailing signatures
func (r *Reader) Remainder() []byte {
	return r.Bytes(r.Remaining())
}

// Remaining - number of bytes left unread
func (r *Reader) Remaining() int {
	if nil != r.err {
		return 0
	}
	return (len(r.s) - r.pos) / 2
}

// Err - first failure encountered, nil if every span was well formed
func (r *Reader) Err() error {
	return r.err
}

// Writer - sequential field writer producing a hex string
type Writer struct {
	buffer []byte
}

// Bytes - append a raw byte field
func (w *Writer) Bytes(b []byte) *Writer {
	w.buffer = append(w.buffer, b...)
	return w
}

// Byte - append a single byte field
func (w *Writer) Byte(b byte) *Writer {
	w.buffer = append(w.buffer, b)
	return w
}

// Uint16 - append a two byte big-endian field
func (w *Writer) Uint16(n uint16) *Writer {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], n)
	w.buffer = append(w.buffer, b[:]...)
	return w
}

// Uint32 - append a four byte big-endian field
func (w *Writer) Uint32(n uint32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	w.buffer = append(w.buffer, b[:]...)
	return w
}

// Raw - the accumulated bytes, for digest computation
func (w *Writer) Raw() []byte {
	return w.buffer
}

// String - the accumulated fields as lowercase hex
func (w *Writer) String() string {
	return hex.EncodeToString(w.buffer)
}
