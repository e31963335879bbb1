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

package vmem

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/panjf2000/mring/pkg/errors"
)

var (
	modkernel32         = windows.NewLazySystemDLL("kernel32.dll")
	procMapViewOfFileEx = modkernel32.NewProc("MapViewOfFileEx")
	procGetSystemInfo   = modkernel32.NewProc("GetSystemInfo")

	granularityOnce sync.Once
	granularity     int
)

type systemInfo struct {
	processorArchitecture     uint16
	reserved                  uint16
	pageSize                  uint32
	minimumApplicationAddress uintptr
	maximumApplicationAddress uintptr
	activeProcessorMask       uintptr
	numberOfProcessors        uint32
	processorType             uint32
	allocationGranularity     uint32
	processorLevel            uint16
	processorRevision         uint16
}

type mirrorAllocator struct{}

// Granularity returns the allocation granularity, views must start on a multiple of it.
func Granularity() int {
	granularityOnce.Do(func() {
		var si systemInfo
		_, _, _ = procGetSystemInfo.Call(uintptr(unsafe.Pointer(&si)))
		granularity = int(si.allocationGranularity)
		if granularity == 0 {
			granularity = 64 << 10
		}
	})
	return granularity
}

// AllocateDoubleMapped probes for a free range of 2*size bytes, releases it and maps two
// views of a page-file backed section into it. Another thread may grab the range between
// the probe and the views, in which case it probes again.
func (mirrorAllocator) AllocateDoubleMapped(size int) (unsafe.Pointer, int, error) {
	size = RoundSize(size)
	mapping, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE,
		uint32(uint64(size)>>32), uint32(size), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("CreateFileMapping failed: %w", err)
	}
	// The views keep the section alive.
	defer windows.CloseHandle(mapping) //nolint:errcheck

	for attempt := 0; attempt < maxAttempts; attempt++ {
		search, err := windows.VirtualAlloc(0, uintptr(2*size), windows.MEM_RESERVE, windows.PAGE_READWRITE)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: VirtualAlloc: %v", errors.ErrNoMappingLocation, err)
		}
		if err = windows.VirtualFree(search, 0, windows.MEM_RELEASE); err != nil {
			return nil, 0, fmt.Errorf("VirtualFree failed: %w", err)
		}
		where := mapViewOfFileEx(mapping, size, search)
		if where == 0 {
			continue
		}
		where2 := mapViewOfFileEx(mapping, size, where+uintptr(size))
		if where2 == where+uintptr(size) {
			return *(*unsafe.Pointer)(unsafe.Pointer(&where)), size, nil
		}
		if where2 != 0 {
			_ = windows.UnmapViewOfFile(where2)
		}
		_ = windows.UnmapViewOfFile(where)
	}
	return nil, 0, fmt.Errorf("%w after %d attempts", errors.ErrNoMappingLocation, maxAttempts)
}

// Free unmaps both views.
func (mirrorAllocator) Free(base unsafe.Pointer, size int) error {
	if base == nil {
		return nil
	}
	addr := uintptr(base)
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return fmt.Errorf("UnmapViewOfFile failed: %w", err)
	}
	if err := windows.UnmapViewOfFile(addr + uintptr(size)); err != nil {
		return fmt.Errorf("UnmapViewOfFile failed: %w", err)
	}
	return nil
}

func mapViewOfFileEx(mapping windows.Handle, size int, at uintptr) uintptr {
	r, _, _ := procMapViewOfFileEx.Call(uintptr(mapping), windows.FILE_MAP_READ|windows.FILE_MAP_WRITE,
		0, 0, uintptr(size), at)
	return r
}
