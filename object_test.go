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
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panjf2000/mring/pkg/errors"
)

type tick struct {
	Seq    uint64
	Price  float64
	Qty    int32
	Side   byte
	Flags  [3]bool
	Venues [4]uint16
}

type withSlice struct {
	ID   int
	Tags []string
}

func TestHasPointers(t *testing.T) {
	for _, tc := range []struct {
		v    any
		want bool
	}{
		{int64(0), false},
		{tick{}, false},
		{[8]complex128{}, false},
		{struct{}{}, false},
		{[0]*int{}, false},
		{"", true},
		{[]byte{}, true},
		{withSlice{}, true},
		{[2]*tick{}, true},
		{map[int]int{}, true},
		{struct{ F func() }{}, true},
		{struct{ E error }{}, true},
	} {
		assert.Equalf(t, tc.want, hasPointers(reflect.TypeOf(tc.v)), "%T", tc.v)
	}
}

func TestObjectRoundTrip(t *testing.T) {
	rb := newTestRing(t, 4096, WithConsistencyChecks(true))
	defer drainAndClose(t, rb)

	in := tick{Seq: 7, Price: 101.25, Qty: -3, Side: 'B', Flags: [3]bool{true, false, true}, Venues: [4]uint16{1, 2, 3, 4}}
	require.True(t, WriteObject(rb, in))
	require.True(t, WriteObject(rb, uint16(0xbeef)))
	require.True(t, WriteObject(rb, struct{}{}))

	var out tick
	require.True(t, ReadObject(rb, &out))
	assert.Equal(t, in, out)
	var u uint16
	require.True(t, ReadObject(rb, &u))
	assert.EqualValues(t, 0xbeef, u)
	var empty struct{}
	require.True(t, ReadObject(rb, &empty))
	assert.False(t, ReadObject(rb, &u))
}

func TestObjectRejectsPointers(t *testing.T) {
	rb := newTestRing(t, 4096)
	defer drainAndClose(t, rb)

	assertPanicsWith(t, errors.ErrPointerType, func() { WriteObject(rb, "text") })
	assertPanicsWith(t, errors.ErrPointerType, func() { WriteObject(rb, withSlice{ID: 1}) })
	assertPanicsWith(t, errors.ErrPointerType, func() { WriteObjectWait(rb, &tick{}, nil) })
	var out withSlice
	assertPanicsWith(t, errors.ErrPointerType, func() { ReadObject(rb, &out) })
	assert.Zero(t, rb.ApproxUsed())
}

func TestObjectSizeMismatch(t *testing.T) {
	rb := newTestRing(t, 4096)
	defer drainAndClose(t, rb)

	require.True(t, WriteObject(rb, uint8(1)))
	var out tick
	assertPanicsWith(t, errors.ErrObjectSize, func() { ReadObject(rb, &out) })
	var b uint8
	require.True(t, ReadObject(rb, &b), "a failed ReadObject leaves the record in place")
	assert.EqualValues(t, 1, b)
}

func TestWriteObjectFull(t *testing.T) {
	rb := newTestRing(t, 4096)
	defer drainAndClose(t, rb)

	n := 0
	for WriteObject(rb, tick{Seq: uint64(n)}) {
		n++
	}
	assert.Greater(t, n, 0)

	var (
		wg      sync.WaitGroup
		written bool
	)
	waiting := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		written = WriteObjectWait(rb, tick{Seq: uint64(n)}, func() { close(waiting) })
	}()
	<-waiting

	for i := 0; i <= n; i++ {
		var out tick
		for !ReadObject(rb, &out) {
			rb.WaitForCommittedData()
		}
		assert.EqualValues(t, i, out.Seq)
	}
	wg.Wait()
	assert.True(t, written)
}
