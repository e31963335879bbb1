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

// Package vmem maps one backing store twice into adjacent virtual address ranges, so a
// circular buffer of size n can be addressed linearly at any offset in [0, n) for up to n
// bytes without a wraparound branch: base+n+i aliases base+i.
package vmem

import (
	"unsafe"

	"github.com/panjf2000/mring/pkg/math"
)

// maxAttempts bounds the search for an address range that can hold both views.
const maxAttempts = 64

// Allocator creates and releases double-mapped regions.
type Allocator interface {
	// AllocateDoubleMapped rounds size up to the allocation granularity and maps the same
	// backing memory at base and base+rounded. Reads and writes in [base, base+2*rounded)
	// are valid and base+rounded+i always aliases base+i.
	AllocateDoubleMapped(size int) (base unsafe.Pointer, rounded int, err error)
	// Free unmaps both views of a region returned by AllocateDoubleMapped.
	Free(base unsafe.Pointer, size int) error
}

// Default is the allocator of the running platform.
var Default Allocator = mirrorAllocator{}

// RoundSize rounds size up to a multiple of the allocation granularity, a zero size
// still takes one granule.
func RoundSize(size int) int {
	if size <= 0 {
		size = 1
	}
	return math.AlignUp(size, Granularity())
}

// Bytes returns both views of a region as one slice of 2*size bytes.
func Bytes(base unsafe.Pointer, size int) []byte {
	return unsafe.Slice((*byte)(base), 2*size)
}
