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

//go:build !linux && !darwin && !freebsd && !windows
// +build !linux,!darwin,!freebsd,!windows

package vmem

import (
	"os"
	"unsafe"

	"github.com/panjf2000/mring/pkg/errors"
)

type mirrorAllocator struct{}

// Granularity returns the page size.
func Granularity() int {
	return os.Getpagesize()
}

func (mirrorAllocator) AllocateDoubleMapped(int) (unsafe.Pointer, int, error) {
	return nil, 0, errors.ErrUnsupportedPlatform
}

func (mirrorAllocator) Free(unsafe.Pointer, int) error {
	return errors.ErrUnsupportedPlatform
}
