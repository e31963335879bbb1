// Copyright (c) 2026 The Gnet Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux || darwin || freebsd || windows
// +build linux darwin freebsd windows

package mring

import (
	"bytes"
	"math"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panjf2000/mring/pkg/errors"
)

func TestAllocRejects(t *testing.T) {
	rb := newTestRing(t, 4096, WithConsistencyChecks(true))
	defer drainAndClose(t, rb)

	before := rb.State()
	assert.Nil(t, rb.Alloc(0, 0), "empty records are not allowed")
	assert.Nil(t, rb.Alloc(-1, 0))
	assert.Nil(t, rb.Alloc(rb.Capacity(), 0), "a record never fits with its header")
	assert.Nil(t, rb.Alloc(rb.Capacity()-headerSize+1, 0))
	assert.Nil(t, rb.Alloc(8, 3), "alignment must be a power of two")
	assert.Nil(t, rb.Alloc(8, 2*MaxAlignment))
	assert.Nil(t, rb.AllocWait(0, nil, 0))
	assert.Nil(t, rb.Alloc(math.MaxInt-7, 8), "sizes close to MaxInt must not wrap around")
	assert.Nil(t, rb.Alloc(math.MaxInt, MaxAlignment))
	assert.Nil(t, rb.Alloc(8, math.MinInt))
	assert.Nil(t, rb.AllocWait(math.MaxInt, nil, 1))
	assert.Nil(t, rb.AllocWait(math.MaxInt-7, nil, 8))
	assert.Nil(t, rb.Alloc(rb.MaxRecordSize(MaxAlignment)+1, MaxAlignment))
	assert.Equal(t, before, rb.State(), "rejected allocations must not move the cursors")

	assertPanicsWith(t, errors.ErrInvalidAlignment, func() { rb.AllocWait(8, nil, 24) })

	// The largest record that fits.
	require.Equal(t, rb.Capacity()-headerSize, rb.MaxRecordSize(0))
	p := rb.Alloc(rb.MaxRecordSize(0), 0)
	require.NotNil(t, p)
	rb.Commit(p)
}

func TestMaxRecordSize(t *testing.T) {
	rb := newTestRing(t, 1<<16)
	defer drainAndClose(t, rb)

	assert.Equal(t, rb.Capacity()-headerSize, rb.MaxRecordSize(0))
	assert.Equal(t, rb.Capacity()-headerSize-64, rb.MaxRecordSize(64))
	assert.Zero(t, rb.MaxRecordSize(24))
	assert.Zero(t, rb.MaxRecordSize(-8))
	assert.Zero(t, rb.MaxRecordSize(2*MaxAlignment))

	p := rb.Alloc(rb.MaxRecordSize(MaxAlignment), MaxAlignment)
	require.NotNil(t, p, "a record of MaxRecordSize always fits in an empty ring buffer")
	rb.Commit(p)
}

func TestAllocWaitInvalidAlignmentWithoutChecks(t *testing.T) {
	rb := newTestRing(t, 4096, WithConsistencyChecks(false))
	defer drainAndClose(t, rb)

	assert.Nil(t, rb.AllocWait(8, nil, 24))
	assert.Equal(t, RingState{Capacity: rb.Capacity()}, rb.State())
}

func TestAllocBackpressure(t *testing.T) {
	rb := newTestRing(t, 4096)
	defer drainAndClose(t, rb)

	const size = 1000
	span := size + headerSize
	count := rb.Capacity() / span

	var records [][]byte
	for i := 0; i < count; i++ {
		p := rb.Alloc(size, 0)
		require.NotNilf(t, p, "record %d of %d", i, count)
		records = append(records, p)
	}
	full := rb.State()
	assert.Nil(t, rb.Alloc(size, 0), "the ring buffer is full")
	assert.Equal(t, full, rb.State(), "a failed Alloc must leave the ring buffer untouched")

	for i, p := range records {
		for j := range p {
			p[j] = byte(i)
		}
		rb.Commit(p)
	}
	assert.Nil(t, rb.Alloc(size, 0), "committed but unread records still take space")

	assert.Equal(t, bytes.Repeat([]byte{0}, size), readRecord(t, rb))
	p := rb.Alloc(size, 0)
	require.NotNil(t, p, "reading a record frees its space")
	rb.Commit(p)
}

func TestAllocAlignment(t *testing.T) {
	rb := newTestRing(t, 1<<16, WithConsistencyChecks(true))
	defer drainAndClose(t, rb)

	aligns := []int{0, 8, 16, 32, 64, 128, 1024, MaxAlignment}
	for i, align := range aligns {
		writeRecord(t, rb, []byte{1, 2, 3})

		p := rb.Alloc(24, align)
		require.NotNilf(t, p, "align=%d", align)
		want := max(align, MinAlignment)
		assert.Zerof(t, uintptr(unsafe.Pointer(&p[0]))%uintptr(want), "payload %p is not aligned to %d", &p[0], want)
		assert.Len(t, p, 24)
		for j := range p {
			p[j] = byte(i)
		}
		rb.Commit(p)
	}
	p := rb.AllocWait(24, nil, 256)
	require.NotNil(t, p)
	assert.Zero(t, uintptr(unsafe.Pointer(&p[0]))%256)
	copy(p, "aligned")
	rb.Commit(p)

	for i := range aligns {
		assert.Equal(t, []byte{1, 2, 3}, readRecord(t, rb))
		assert.Equal(t, bytes.Repeat([]byte{byte(i)}, 24), readRecord(t, rb), "padding must be skipped")
	}
	assert.Equal(t, "aligned", string(readRecord(t, rb)[:7]))
	assert.Zero(t, rb.ApproxUsed())
}

func TestAllocWaitBlocksUntilRead(t *testing.T) {
	rb := newTestRing(t, 4096)
	defer drainAndClose(t, rb)

	const size = 1000
	count := rb.Capacity() / (size + headerSize)
	for i := 0; i < count; i++ {
		writeRecord(t, rb, bytes.Repeat([]byte{byte(i)}, size))
	}

	waiting := make(chan struct{})
	done := make(chan []byte)
	go func() {
		done <- rb.AllocWait(size, func() { close(waiting) }, 0)
	}()

	select {
	case <-waiting:
	case <-time.After(5 * time.Second):
		t.Fatal("AllocWait did not report that it waits")
	}
	select {
	case <-done:
		t.Fatal("AllocWait returned while the ring buffer is full")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, bytes.Repeat([]byte{0}, size), readRecord(t, rb))
	var p []byte
	select {
	case p = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("AllocWait did not return after space was freed")
	}
	require.Len(t, p, size)
	copy(p, "late")
	rb.Commit(p)

	for i := 1; i < count; i++ {
		assert.Equal(t, bytes.Repeat([]byte{byte(i)}, size), readRecord(t, rb))
	}
	assert.Equal(t, "late", string(readRecord(t, rb)[:4]))
}

func TestAllocWaitDoesNotWaitWithSpace(t *testing.T) {
	rb := newTestRing(t, 4096)
	defer drainAndClose(t, rb)

	p := rb.AllocWait(100, func() { t.Error("onWait must not be called while there is space") }, 0)
	require.Len(t, p, 100)
	rb.Commit(p)
}

func TestCommitOutOfOrder(t *testing.T) {
	rb := newTestRing(t, 4096)
	defer drainAndClose(t, rb)

	a := rb.Alloc(4, 0)
	b := rb.Alloc(4, 0)
	require.NotNil(t, a)
	require.NotNil(t, b)
	copy(a, "aaaa")
	copy(b, "bbbb")

	rb.Commit(b)
	assert.False(t, rb.Read(func([]byte) { t.Fatal("records are read in allocation order") }))
	assert.False(t, rb.Peek(func([]byte) { t.Fatal("records are read in allocation order") }))

	rb.Commit(a)
	assert.Equal(t, "aaaa", string(readRecord(t, rb)))
	assert.Equal(t, "bbbb", string(readRecord(t, rb)))
}

func TestCommitChecks(t *testing.T) {
	rb := newTestRing(t, 4096, WithConsistencyChecks(true))
	defer drainAndClose(t, rb)

	p := rb.Alloc(16, 0)
	q := rb.Alloc(16, 0)
	require.NotNil(t, p)
	require.NotNil(t, q)
	rb.Commit(p)
	assertPanicsWith(t, errors.ErrDoubleCommit, func() { rb.Commit(p) })
	rb.Discard(q)
	assertPanicsWith(t, errors.ErrDoubleCommit, func() { rb.Discard(q) })
	assertPanicsWith(t, errors.ErrDoubleCommit, func() { rb.Commit(q) })
	assertPanicsWith(t, errors.ErrForeignPointer, func() { rb.Commit(make([]byte, 16)) })
	assertPanicsWith(t, errors.ErrForeignPointer, func() { rb.Discard(make([]byte, 16)) })

	assert.Len(t, readRecord(t, rb), 16)
	assert.False(t, rb.Read(func([]byte) {}), "a discarded record is never read")
	assert.Zero(t, rb.ApproxUsed())
}

func TestDiscard(t *testing.T) {
	rb := newTestRing(t, 4096, WithConsistencyChecks(true))
	defer drainAndClose(t, rb)

	a := rb.Alloc(32, 0)
	b := rb.Alloc(8, 0)
	require.NotNil(t, a)
	require.NotNil(t, b)
	copy(b, "kept")
	rb.Commit(b)
	assert.False(t, rb.Read(func([]byte) {}), "an undecided record blocks the ones behind it")

	rb.Discard(a)
	assert.Equal(t, "kept", string(readRecord(t, rb)[:4]))
	assert.Zero(t, rb.ApproxUsed())
}
