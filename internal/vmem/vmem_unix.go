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

//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package vmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/panjf2000/mring/pkg/errors"
)

type mirrorAllocator struct{}

// Granularity returns the page size.
func Granularity() int {
	return unix.Getpagesize()
}

// AllocateDoubleMapped reserves 2*size bytes of address space with PROT_NONE, then
// replaces both halves with MAP_FIXED shared views of the backing store. The reservation
// keeps other mappings out of the range while the views are installed.
func (mirrorAllocator) AllocateDoubleMapped(size int) (unsafe.Pointer, int, error) {
	size = RoundSize(size)
	f, err := openBacking(size)
	if err != nil {
		return nil, 0, err
	}
	// Both views hold their own reference to the backing store.
	defer f.Close()
	fd := int(f.Fd())

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		base, err := unix.MmapPtr(-1, 0, nil, uintptr(2*size), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: reserve %d bytes: %v", errors.ErrNoMappingLocation, 2*size, err)
		}
		if lastErr = mapView(fd, base, size); lastErr == nil {
			if lastErr = mapView(fd, unsafe.Add(base, size), size); lastErr == nil {
				return base, size, nil
			}
		}
		if err = unix.MunmapPtr(base, uintptr(2*size)); err != nil {
			return nil, 0, fmt.Errorf("munmap failed: %w", err)
		}
	}
	return nil, 0, fmt.Errorf("%w after %d attempts: %v", errors.ErrNoMappingLocation, maxAttempts, lastErr)
}

// Free unmaps both views with a single munmap over the whole range.
func (mirrorAllocator) Free(base unsafe.Pointer, size int) error {
	if base == nil {
		return nil
	}
	if err := unix.MunmapPtr(base, uintptr(2*size)); err != nil {
		return fmt.Errorf("munmap failed: %w", err)
	}
	return nil
}

func mapView(fd int, addr unsafe.Pointer, size int) error {
	p, err := unix.MmapPtr(fd, 0, addr, uintptr(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_FIXED)
	if err != nil {
		return fmt.Errorf("mmap at %p failed: %w", addr, err)
	}
	if p != addr {
		_ = unix.MunmapPtr(p, uintptr(size))
		return fmt.Errorf("mmap landed at %p instead of %p", p, addr)
	}
	return nil
}
