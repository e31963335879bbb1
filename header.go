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

package mring

import (
	"sync/atomic"
	"unsafe"
)

const (
	flagCommitted uint32 = 1 << 0
	flagPadding   uint32 = 1 << 1
	flagMask             = flagCommitted | flagPadding
)

// header precedes every record in the region.
//
// A producer writes requested first and publishes sizeAndFlags with an atomic store, the
// committed flag is set later with an atomic OR once the payload is written. Padding headers
// are born committed.
type header struct {
	sizeAndFlags atomic.Uint32
	requested    uint32
}

const headerSize = int(unsafe.Sizeof(header{}))

// sizeFlags is the decoded sizeAndFlags word: the flags live in the low bits, which are
// always zero in a size aligned to MinAlignment.
type sizeFlags uint32

// size returns the number of bytes between the end of the header and the next header.
func (s sizeFlags) size() int {
	return int(uint32(s) &^ flagMask)
}

func (s sizeFlags) committed() bool {
	return uint32(s)&flagCommitted != 0
}

func (s sizeFlags) padding() bool {
	return uint32(s)&flagPadding != 0
}

// span returns the number of bytes the record takes in the region, header included.
func (s sizeFlags) span() uint64 {
	return uint64(s.size() + headerSize)
}

func (h *header) init(size, requested int, flags uint32) {
	h.requested = uint32(requested)
	h.sizeAndFlags.Store(uint32(size) | flags)
}

func (h *header) load() sizeFlags {
	return sizeFlags(h.sizeAndFlags.Load())
}

// commit sets flags and returns the previous word.
func (h *header) commit(flags uint32) sizeFlags {
	return sizeFlags(h.sizeAndFlags.Or(flags))
}

// headerAt returns the header at index i of the region, i may point into the second view.
func (rb *RingBuffer) headerAt(i int) *header {
	return (*header)(unsafe.Pointer(&rb.mem[i]))
}

// headerOf returns the header preceding a payload returned by Alloc or AllocWait.
func headerOf(p unsafe.Pointer) *header {
	return (*header)(unsafe.Add(p, -headerSize))
}

// payload returns the requested bytes of the record whose header is at index i.
func (rb *RingBuffer) payload(i int, h *header) []byte {
	start := i + headerSize
	end := start + int(h.requested)
	return rb.mem[start:end:end]
}
