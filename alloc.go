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
	"unsafe"

	"github.com/panjf2000/mring/pkg/errors"
	"github.com/panjf2000/mring/pkg/math"
)

func validAlignment(align int) bool {
	return align == 0 || (math.IsPowerOfTwo(align) && align <= MaxAlignment)
}

// fits reports whether n bytes aligned to align can ever be stored in the ring buffer.
func (rb *RingBuffer) fits(n, align int) bool {
	return n > 0 && align >= 0 && n <= int(rb.capacity)-headerSize-align
}

// MaxRecordSize returns the largest n for which Alloc(n, align) can ever succeed, or 0 when
// align is not a valid alignment or leaves no room for a record.
func (rb *RingBuffer) MaxRecordSize(align int) int {
	if !validAlignment(align) {
		return 0
	}
	return max(int(rb.capacity)-headerSize-align, 0)
}

// paddingFor returns the bytes to skip after writeHead so that the payload following the
// record header lands on align. The result is zero or a multiple of headerSize, large
// enough to hold a padding header.
func (rb *RingBuffer) paddingFor(writeHead uint64, align int) uint64 {
	if align <= MinAlignment {
		return 0
	}
	p := uintptr(rb.base) + uintptr(writeHead&rb.mask) + uintptr(headerSize)
	return uint64(math.AlignUpUintptr(p, uintptr(align)) - p)
}

// Alloc claims n bytes aligned to align (0 means MinAlignment) without blocking.
// It returns nil when n is zero or can never fit, when align is not a power of two up to
// MaxAlignment, or when there is not enough free space right now; the last case is the
// normal backpressure signal and leaves the ring buffer untouched.
//
// The returned slice has length n. The caller fills it and must pass it to Commit, or to
// Discard, before readers can get past it.
func (rb *RingBuffer) Alloc(n, align int) []byte {
	if !rb.fits(n, align) || !validAlignment(align) {
		return nil
	}
	requested := n
	n = math.AlignUp(n, MinAlignment)
	baseNeeded := uint64(n + headerSize)

	writeHead := rb.writeHead.Load()
	readPtr := rb.readPtr.Load()
	var padding, needed uint64
	for {
		padding = rb.paddingFor(writeHead, align)
		needed = baseNeeded + padding
		if int64(needed) > int64(rb.capacity-(writeHead-readPtr)) {
			return nil
		}
		if rb.writeHead.CompareAndSwap(writeHead, writeHead+needed) {
			break
		}
		writeHead = rb.writeHead.Load()
		readPtr = rb.readPtr.Load()
	}
	return rb.publish(writeHead, needed, padding, n, requested)
}

// AllocWait claims n bytes aligned to align like Alloc, but when the claim overlaps records
// that have not been read yet, it calls onWait once and blocks until the consumer frees
// enough space. It returns nil only for sizes or alignments Alloc would always reject.
//
// AllocWait needs a consumer running on another goroutine, otherwise it blocks forever.
func (rb *RingBuffer) AllocWait(n int, onWait func(), align int) []byte {
	if !rb.fits(n, align) {
		return nil
	}
	if !validAlignment(align) {
		if rb.checks {
			rb.fail(errors.ErrInvalidAlignment, "AllocWait(%d, align=%d)", n, align)
		}
		return nil
	}
	requested := n
	n = math.AlignUp(n, MinAlignment)
	baseNeeded := uint64(n + headerSize)

	var writeHead, padding, needed uint64
	if align <= MinAlignment {
		needed = baseNeeded
		writeHead = rb.writeHead.Add(needed) - needed
	} else {
		writeHead = rb.writeHead.Load()
		for {
			padding = rb.paddingFor(writeHead, align)
			needed = baseNeeded + padding
			if rb.writeHead.CompareAndSwap(writeHead, writeHead+needed) {
				break
			}
			writeHead = rb.writeHead.Load()
		}
	}

	end := writeHead + needed
	if int64(end-rb.readPtr.Load()) > int64(rb.capacity) {
		if onWait != nil {
			onWait()
		}
		rb.readEvent.WaitUntil(func() bool {
			return int64(end-rb.readPtr.Load()) <= int64(rb.capacity)
		})
	}
	return rb.publish(writeHead, needed, padding, n, requested)
}

// publish writes the headers of a claimed region [writeHead, writeHead+needed), then moves
// writeTail over it once every earlier claim has moved it up to writeHead, which keeps the
// readable region growing in claim order.
func (rb *RingBuffer) publish(writeHead, needed, padding uint64, size, requested int) []byte {
	i := int(writeHead & rb.mask)
	if padding != 0 {
		pad := int(padding) - headerSize
		rb.headerAt(i).init(pad, pad, flagPadding|flagCommitted)
		i += int(padding)
	}
	h := rb.headerAt(i)
	h.init(size, requested, 0)

	if rb.writeTail.Load() != writeHead {
		rb.tailEvent.WaitUntil(func() bool {
			return rb.writeTail.Load() == writeHead
		})
	}
	rb.writeTail.Store(writeHead + needed)
	rb.tailEvent.Notify()

	return rb.payload(i, h)
}

// Commit publishes a record returned by Alloc or AllocWait to the readers.
// Each record must be committed exactly once.
func (rb *RingBuffer) Commit(p []byte) {
	ptr := unsafe.Pointer(unsafe.SliceData(p))
	if rb.checks && !rb.owns(ptr) {
		rb.fail(errors.ErrForeignPointer, "Commit(%p)", ptr)
	}
	prev := headerOf(ptr).commit(flagCommitted)
	rb.commitEvent.Notify()
	if rb.checks && (prev.committed() || prev.padding()) {
		rb.fail(errors.ErrDoubleCommit, "Commit(%p)", ptr)
	}
}

// Discard gives up a record returned by Alloc or AllocWait instead of committing it.
// Readers skip it like padding.
func (rb *RingBuffer) Discard(p []byte) {
	ptr := unsafe.Pointer(unsafe.SliceData(p))
	if rb.checks && !rb.owns(ptr) {
		rb.fail(errors.ErrForeignPointer, "Discard(%p)", ptr)
	}
	prev := headerOf(ptr).commit(flagPadding | flagCommitted)
	rb.commitEvent.Notify()
	if rb.checks && (prev.committed() || prev.padding()) {
		rb.fail(errors.ErrDoubleCommit, "Discard(%p)", ptr)
	}
}
