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

package notify

import (
	"math"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	futexWaitPrivate = 128 // FUTEX_WAIT | FUTEX_PRIVATE_FLAG
	futexWakePrivate = 129 // FUTEX_WAKE | FUTEX_PRIVATE_FLAG
)

type platformEvent struct{}

// wait sleeps in the kernel while e.seq == seq. The kernel compares the word atomically
// with queueing the waiter, so a Notify racing with us either changes the word first
// (EAGAIN) or finds us queued.
func (e *Event) wait(seq uint32) {
	if atomic.LoadUint32(&e.seq) != seq {
		return
	}
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&e.seq)),
		futexWaitPrivate,
		uintptr(seq),
		0, // no timeout
		0,
		0,
	)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
	default:
		panic("notify: futex wait failed: " + errno.Error())
	}
}

func (e *Event) wake() {
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&e.seq)),
		futexWakePrivate,
		uintptr(math.MaxInt32),
		0,
		0,
		0,
	)
	if errno != 0 {
		panic("notify: futex wake failed: " + errno.Error())
	}
}
