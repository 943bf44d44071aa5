// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"bytes"
	"testing"

	"github.com/getlynx/chainstored/util"
)

// writer then reader must reproduce every field
func TestReadBack(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}

	w := &util.Writer{}
	w.Byte(0x01).Uint16(512).Uint32(70000).Bytes(payload)

	s := w.String()
	if "01"+"0200"+"00011170"+"deadbeef" != s {
		t.Fatalf("unexpected hex: %s", s)
	}

	r := util.NewReader(s, 0)
	if b := r.Byte(); 0x01 != b {
		t.Errorf("byte: %x  expected: 01", b)
	}
	if n := r.Uint16(); 512 != n {
		t.Errorf("uint16: %d  expected: 512", n)
	}
	if n := r.Uint32(); 70000 != n {
		t.Errorf("uint32: %d  expected: 70000", n)
	}
	if b := r.Remainder(); !bytes.Equal(payload, b) {
		t.Errorf("remainder: %x  expected: %x", b, payload)
	}
	if err := r.Err(); nil != err {
		t.Fatalf("reader error: %s", err)
	}
	if 0 != r.Remaining() {
		t.Errorf("remaining: %d  expected: 0", r.Remaining())
	}
}

// a short span makes the error sticky
func TestShortInput(t *testing.T) {
	r := util.NewReader("0102", 0)
	_ = r.Uint32()
	if nil == r.Err() {
		t.Fatal("expected error for short input")
	}
	// further reads must not panic and must keep the error
	_ = r.Byte()
	_ = r.Remainder()
	if nil == r.Err() {
		t.Fatal("error was not sticky")
	}
}

// non-hex input is rejected
func TestNotHex(t *testing.T) {
	r := util.NewReader("zz", 0)
	_ = r.Byte()
	if nil == r.Err() {
		t.Fatal("expected error for non-hex input")
	}
}
