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

// Package errors defines common errors for mring.
package errors

import "errors"

var (
	// ErrInvalidCapacity occurs when trying to create a ring buffer with a negative capacity.
	ErrInvalidCapacity = errors.New("mring: capacity must not be negative")
	// ErrCapacityTooLarge occurs when the requested capacity can't be encoded in a record header.
	ErrCapacityTooLarge = errors.New("mring: capacity is too large")
	// ErrNoMappingLocation occurs when no address range can hold both views of the region.
	ErrNoMappingLocation = errors.New("mring: failed to find a double-mapping location")
	// ErrUnsupportedPlatform occurs when the double-mapped region is not implemented for the running OS.
	ErrUnsupportedPlatform = errors.New("mring: double-mapped memory is not supported on this platform")
	// ErrRingClosed occurs when operating on a ring buffer that has been closed.
	ErrRingClosed = errors.New("mring: ring buffer is closed")
	// ErrRingNotEmpty occurs when trying to close a ring buffer that still holds records.
	ErrRingNotEmpty = errors.New("mring: ring buffer is not empty")
	// ErrNoSpace occurs when there is not enough free space for a record.
	ErrNoSpace = errors.New("mring: not enough space in ring buffer")
	// ErrCorrupted occurs when a record header disagrees with the cursors.
	ErrCorrupted = errors.New("mring: internal error or memory corruption")
	// ErrConcurrentRead occurs when more than one goroutine consumes with Read or ReadAll.
	ErrConcurrentRead = errors.New("mring: Read/ReadAll are not safe for concurrent use, use ReadCopy instead")
	// ErrDoubleCommit occurs when committing a record that is already committed.
	ErrDoubleCommit = errors.New("mring: record is already committed")
	// ErrForeignPointer occurs when committing memory that does not belong to the ring buffer.
	ErrForeignPointer = errors.New("mring: memory is not owned by this ring buffer")
	// ErrInvalidAlignment occurs when the requested alignment is not a power of two within the allowed maximum.
	ErrInvalidAlignment = errors.New("mring: alignment must be a power of two no larger than 4096")
	// ErrPointerType occurs when trying to store a value containing Go pointers in ring memory.
	ErrPointerType = errors.New("mring: objects stored in ring memory must not contain pointers")
	// ErrObjectSize occurs when a record is smaller than the object being read out of it.
	ErrObjectSize = errors.New("mring: record is smaller than the object type")
	// ErrConsumerStarted occurs when starting a consumer more than once.
	ErrConsumerStarted = errors.New("mring: consumer is already started")
	// ErrEmptyRecord occurs when an encoded value has no bytes, records can't be empty.
	ErrEmptyRecord = errors.New("mring: records must not be empty")
	// ErrInvalidCodecValue occurs when a codec is handed a value of a type it can't handle.
	ErrInvalidCodecValue = errors.New("mring: codec does not support the value type")
)
