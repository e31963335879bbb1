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
	"reflect"
	"sync"
	"unsafe"

	"github.com/panjf2000/mring/pkg/errors"
	"github.com/panjf2000/mring/pkg/math"
)

// pointerFreeTypes caches hasPointers per type.
var pointerFreeTypes sync.Map // reflect.Type -> bool

// hasPointers reports whether values of t hold anything the garbage collector must trace.
// Ring memory is invisible to the collector, so such values can't live there.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// objectLayout returns the record size and alignment of T and panics when T can't be
// stored in ring memory.
func objectLayout[T any]() (size, align int) {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	ptrs, ok := pointerFreeTypes.Load(t)
	if !ok {
		ptrs, _ = pointerFreeTypes.LoadOrStore(t, hasPointers(t))
	}
	if ptrs.(bool) {
		panic(fmt.Errorf("%w: %s", errors.ErrPointerType, t))
	}
	size, align = int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
	if size == 0 {
		size = 1
	}
	return
}

// WriteObject copies v into a new record and commits it, it reports false when there is no
// space. T must not contain pointers, strings, slices, maps, channels, funcs or interfaces.
func WriteObject[T any](rb *RingBuffer, v T) bool {
	size, align := objectLayout[T]()
	p := rb.Alloc(size, align)
	if p == nil {
		return false
	}
	*(*T)(unsafe.Pointer(&p[0])) = v
	rb.Commit(p)
	return true
}

// WriteObjectWait is WriteObject on top of AllocWait: it calls onWait once and blocks
// while the ring buffer is full.
func WriteObjectWait[T any](rb *RingBuffer, v T, onWait func()) bool {
	size, align := objectLayout[T]()
	p := rb.AllocWait(size, onWait, align)
	if p == nil {
		return false
	}
	*(*T)(unsafe.Pointer(&p[0])) = v
	rb.Commit(p)
	return true
}

// ReadObject moves the next record into out and consumes it, it reports false when no
// committed record is available. The record must have been written by WriteObject[T] or
// WriteObjectWait[T]; its memory is zeroed once copied out.
func ReadObject[T any](rb *RingBuffer, out *T) bool {
	size, align := objectLayout[T]()
	return rb.Read(func(p []byte) {
		if len(p) < size {
			rb.fail(errors.ErrObjectSize, "record of %d bytes holds no %T (%d bytes)", len(p), *out, size)
		}
		if rb.checks && !math.IsAligned(int(uintptr(unsafe.Pointer(&p[0]))), align) {
			rb.fail(errors.ErrCorrupted, "record at %p is not aligned to %d", &p[0], align)
		}
		*out = *(*T)(unsafe.Pointer(&p[0]))
		clear(p)
	})
}
