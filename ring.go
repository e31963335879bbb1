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
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/panjf2000/mring/internal/notify"
	"github.com/panjf2000/mring/internal/vmem"
	"github.com/panjf2000/mring/pkg/errors"
	"github.com/panjf2000/mring/pkg/logging"
	"github.com/panjf2000/mring/pkg/math"
)

const (
	// MinAlignment is the alignment of every record payload, the alignment of a record header.
	MinAlignment = headerSize
	// MaxAlignment is the largest payload alignment Alloc and AllocWait accept.
	MaxAlignment = 4096
	// MaxCapacity is the largest capacity whose record sizes fit in a header and whose
	// power-of-two rounding fits in an int: 2 GiB on 64-bit platforms, 1 GiB on 32-bit ones.
	MaxCapacity = 1 << (30 + ^uint(0)>>63)
)

// regionAllocator provides the double-mapped memory of every ring buffer.
var regionAllocator vmem.Allocator = vmem.Default

// RingState is a snapshot of the cursors of a RingBuffer for diagnostics.
// The fields are loaded one by one, so the snapshot is not atomic as a whole.
type RingState struct {
	Capacity  int    // region size in bytes
	WriteHead uint64 // next unclaimed byte
	WriteTail uint64 // end of the region that producers finished claiming
	ReadPtr   uint64 // end of the region that was consumed
	Used      int    // approximate bytes between ReadPtr and WriteTail
}

// RingBuffer is a variable-length, multi-producer byte queue over a double-mapped region.
//
// Producers claim space with Alloc or AllocWait, fill it, then publish it with Commit.
// Any number of producers may run at once. A single consumer reads records in allocation
// order with Peek, Read or ReadAll; any number of consumers may use ReadCopy.
//
// The cursors only ever grow; offset & (capacity-1) addresses the memory, and a record that
// starts near the end of the region runs on into the second view, which aliases the start.
type RingBuffer struct {
	mem      []byte // both views, 2*capacity bytes
	base     unsafe.Pointer
	capacity uint64
	mask     uint64
	logger   logging.Logger
	checks   bool
	closed   atomic.Bool

	_         cpu.CacheLinePad
	readPtr   atomic.Uint64
	readEvent notify.Event // readPtr moved

	_           cpu.CacheLinePad
	writeHead   atomic.Uint64
	writeTail   atomic.Uint64
	tailEvent   notify.Event // writeTail moved
	commitEvent notify.Event // a record was committed
	_           cpu.CacheLinePad
}

// New creates a ring buffer holding at least capacityHint bytes. The capacity is rounded up
// to a power of two no smaller than the allocation granularity, Capacity reports it.
//
// A ring buffer can't work without its double mapping, there is no degraded mode. When no
// address range can hold both views, New does not abort the process but returns an error
// wrapping errors.ErrNoMappingLocation (errors.ErrUnsupportedPlatform where double mapping is
// not implemented) and leaves the decision to the caller.
func New(capacityHint int, opts ...Option) (*RingBuffer, error) {
	options := loadOptions(opts...)
	if capacityHint < 0 {
		return nil, errors.ErrInvalidCapacity
	}
	if capacityHint > MaxCapacity {
		return nil, fmt.Errorf("%w: %d > %d", errors.ErrCapacityTooLarge, capacityHint, MaxCapacity)
	}

	size := capacityHint
	if g := vmem.Granularity(); size < g {
		size = g
	}
	size = math.CeilToPowerOfTwo(size)

	base, rounded, err := regionAllocator.AllocateDoubleMapped(size)
	if err != nil {
		options.Logger.Errorf("failed to map ring buffer of %d bytes: %v", size, err)
		return nil, err
	}
	if !math.IsPowerOfTwo(rounded) || rounded > MaxCapacity {
		_ = regionAllocator.Free(base, rounded)
		return nil, fmt.Errorf("%w: mapped %d bytes", errors.ErrCapacityTooLarge, rounded)
	}

	rb := &RingBuffer{
		mem:      vmem.Bytes(base, rounded),
		base:     base,
		capacity: uint64(rounded),
		mask:     uint64(rounded - 1),
		logger:   options.Logger,
		checks:   options.ConsistencyChecks,
	}
	if rb.checks {
		// Start right below the wraparound point so the signed cursor arithmetic gets exercised.
		start := -rb.capacity
		rb.readPtr.Store(start)
		rb.writeHead.Store(start)
		rb.writeTail.Store(start)
	}
	rb.logger.Debugf("ring buffer mapped at %p, capacity=%d, consistency checks=%t", base, rounded, rb.checks)
	return rb, nil
}

// Capacity returns the size of the region in bytes.
func (rb *RingBuffer) Capacity() int {
	return int(rb.capacity)
}

// ApproxUsed returns the number of bytes between the read cursor and the write tail,
// headers and padding included. It is racy by nature: the value may be stale by the time
// it is returned.
func (rb *RingBuffer) ApproxUsed() int {
	write := rb.writeTail.Load()
	read := rb.readPtr.Load()
	diff := int64(write - read)
	switch {
	case diff < 0:
		return 0
	case diff > int64(rb.capacity):
		return int(rb.capacity)
	}
	return int(diff)
}

// ApproxAvailable returns Capacity() - ApproxUsed(), with the same caveats.
func (rb *RingBuffer) ApproxAvailable() int {
	return rb.Capacity() - rb.ApproxUsed()
}

// IsOwned reports whether p points into the memory of the ring buffer.
func (rb *RingBuffer) IsOwned(p []byte) bool {
	return rb.owns(unsafe.Pointer(unsafe.SliceData(p)))
}

func (rb *RingBuffer) owns(p unsafe.Pointer) bool {
	addr, base := uintptr(p), uintptr(rb.base)
	return p != nil && addr >= base && addr < base+uintptr(2*rb.capacity)
}

// State returns a snapshot of the cursors.
func (rb *RingBuffer) State() RingState {
	return RingState{
		Capacity:  rb.Capacity(),
		WriteHead: rb.writeHead.Load(),
		WriteTail: rb.writeTail.Load(),
		ReadPtr:   rb.readPtr.Load(),
		Used:      rb.ApproxUsed(),
	}
}

// Close unmaps the region. Every allocated record must have been committed and read first,
// otherwise Close returns errors.ErrRingNotEmpty and leaves the region mapped.
// The ring buffer and every slice obtained from it must not be used after Close.
func (rb *RingBuffer) Close() error {
	if rb.closed.Load() {
		return errors.ErrRingClosed
	}
	if pending := int64(rb.writeHead.Load() - rb.readPtr.Load()); pending != 0 {
		rb.logger.Warnf("refusing to close ring buffer at %p with %d bytes outstanding", rb.base, pending)
		return fmt.Errorf("%w: %d bytes outstanding", errors.ErrRingNotEmpty, pending)
	}
	if !rb.closed.CompareAndSwap(false, true) {
		return errors.ErrRingClosed
	}
	err := regionAllocator.Free(rb.base, int(rb.capacity))
	rb.mem = nil
	return err
}

// interrupt wakes every goroutine parked on the ring buffer, they re-check their condition.
func (rb *RingBuffer) interrupt() {
	rb.readEvent.Notify()
	rb.tailEvent.Notify()
	rb.commitEvent.Notify()
}

// fail reports a broken invariant and panics, the ring buffer can't be trusted past this point.
func (rb *RingBuffer) fail(err error, format string, args ...interface{}) {
	err = fmt.Errorf("%w: "+format, append([]interface{}{err}, args...)...)
	rb.logger.Errorf("%v", err)
	panic(err)
}
