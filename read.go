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

import "github.com/panjf2000/mring/pkg/errors"

// record looks up the next record at or after readPtr, skipping padding. It returns the
// header index and the cursor of the record, or ok == false when the region up to
// writePtr holds nothing readable yet.
func (rb *RingBuffer) record(readPtr, writePtr uint64) (i int, h *header, at uint64, ok bool) {
	for int64(writePtr-readPtr) > 0 {
		i = int(readPtr & rb.mask)
		h = rb.headerAt(i)
		sf := h.load()
		if sf.padding() {
			if rb.checks && !sf.committed() {
				rb.fail(errors.ErrCorrupted, "uncommitted padding at %d", readPtr)
			}
			readPtr += sf.span()
			continue
		}
		if !sf.committed() {
			return 0, nil, readPtr, false
		}
		if sf.span() > writePtr-readPtr {
			rb.fail(errors.ErrCorrupted, "record of %d bytes at %d overruns write tail %d", sf.size(), readPtr, writePtr)
		}
		return i, h, readPtr, true
	}
	return 0, nil, readPtr, false
}

// advance moves the read cursor from readPtr to next. Only one exclusive reader may exist,
// so the cursor must still be where this reader left it.
func (rb *RingBuffer) advance(readPtr, next uint64, op string) {
	if prev := rb.readPtr.Swap(next); prev != readPtr {
		rb.fail(errors.ErrConcurrentRead, "%s found the read cursor at %d instead of %d", op, prev, readPtr)
	}
	rb.readEvent.Notify()
}

// Peek hands the next committed record to fn without consuming it, and reports whether
// there was one. Peek may run concurrently with producers and other Peek calls, but not
// with Read or ReadAll.
//
// The slice passed to fn is only valid until the record is consumed.
func (rb *RingBuffer) Peek(fn func(p []byte)) bool {
	readPtr := rb.readPtr.Load()
	writePtr := rb.writeTail.Load()
	i, h, _, ok := rb.record(readPtr, writePtr)
	if !ok {
		return false
	}
	fn(rb.payload(i, h))
	return true
}

// Read hands the next committed record to fn, consumes it once fn returns, and reports
// whether there was one. It returns false when the buffer is empty or when the next record
// is still being written: records are consumed strictly in allocation order.
//
// Read and ReadAll must be called from one goroutine at a time, use ReadCopy for several
// consumers. The slice passed to fn must not be retained.
func (rb *RingBuffer) Read(fn func(p []byte)) bool {
	readPtr := rb.readPtr.Load()
	writePtr := rb.writeTail.Load()
	i, h, at, ok := rb.record(readPtr, writePtr)
	if at != readPtr {
		// Release the padding in front of the record right away.
		rb.advance(readPtr, at, "Read")
	}
	if !ok {
		return false
	}
	fn(rb.payload(i, h))
	rb.advance(at, at+h.load().span(), "Read")
	return true
}

// ReadAll hands committed records to fn in order until fn returns false or no committed
// record is left, and returns how many records fn accepted. A record rejected by fn is
// not consumed. The read cursor moves once at the end, so producers blocked in AllocWait
// only see the space when the whole batch is done.
//
// The same restrictions as for Read apply.
func (rb *RingBuffer) ReadAll(fn func(p []byte) bool) int {
	origReadPtr := rb.readPtr.Load()
	writePtr := rb.writeTail.Load()
	readPtr := origReadPtr
	count := 0
	for {
		i, h, at, ok := rb.record(readPtr, writePtr)
		readPtr = at
		if !ok || !fn(rb.payload(i, h)) {
			break
		}
		count++
		readPtr += h.load().span()
	}
	if readPtr != origReadPtr {
		rb.advance(origReadPtr, readPtr, "ReadAll")
	}
	return count
}

// ReadCopy copies the next committed record into buf and consumes it. It is safe for any
// number of concurrent consumers. It returns 0 when nothing is readable, the record size
// when it was copied, or the record size without consuming the record when buf is too
// small; with several consumers that size may belong to a record another consumer took in
// the meantime, so callers retry with a buffer of the returned size.
func (rb *RingBuffer) ReadCopy(buf []byte) int {
	readPtr := rb.readPtr.Load()
	for {
		writePtr := rb.writeTail.Load()
		if int64(writePtr-readPtr) <= 0 {
			return 0
		}
		i := int(readPtr & rb.mask)
		h := rb.headerAt(i)
		sf := h.load()
		if sf.padding() {
			if rb.readPtr.CompareAndSwap(readPtr, readPtr+sf.span()) {
				rb.readEvent.Notify()
				readPtr += sf.span()
			} else {
				readPtr = rb.readPtr.Load()
			}
			continue
		}
		if !sf.committed() {
			return 0
		}
		if sf.span() > writePtr-readPtr {
			// Another consumer moved past this record and a producer reused the memory.
			readPtr = rb.readPtr.Load()
			continue
		}
		n := int(h.requested)
		if n > len(buf) {
			return n
		}
		copy(buf, rb.mem[i+headerSize:i+headerSize+n])
		if rb.readPtr.CompareAndSwap(readPtr, readPtr+sf.span()) {
			rb.readEvent.Notify()
			return n
		}
		readPtr = rb.readPtr.Load()
	}
}

// WaitForAllocatedData blocks until the ring buffer holds at least one claimed record,
// committed or not. Any number of goroutines may wait at once.
func (rb *RingBuffer) WaitForAllocatedData() {
	for {
		seq := rb.tailEvent.Seq()
		if int64(rb.writeTail.Load()-rb.readPtr.Load()) > 0 {
			return
		}
		rb.tailEvent.Wait(seq)
	}
}

// WaitForCommittedData blocks until the next record in allocation order is committed, so
// the next Read succeeds. It is meant for the single exclusive consumer.
func (rb *RingBuffer) WaitForCommittedData() {
	rb.waitCommitted(nil)
}

// waitCommitted is WaitForCommittedData that gives up when stop reports true after a
// wake-up, it reports whether committed data is available.
func (rb *RingBuffer) waitCommitted(stop func() bool) bool {
	for {
		tailSeq := rb.tailEvent.Seq()
		commitSeq := rb.commitEvent.Seq()
		if stop != nil && stop() {
			return false
		}
		readPtr := rb.readPtr.Load()
		writePtr := rb.writeTail.Load()
		if int64(writePtr-readPtr) <= 0 {
			rb.tailEvent.Wait(tailSeq)
			continue
		}
		_, _, at, ok := rb.record(readPtr, writePtr)
		if ok {
			return true
		}
		if int64(writePtr-at) <= 0 {
			// Only padding so far.
			rb.tailEvent.Wait(tailSeq)
			continue
		}
		rb.commitEvent.Wait(commitSeq)
	}
}
