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

//go:build !linux
// +build !linux

package notify

import (
	"sync"
	"sync/atomic"
)

// platformEvent parks waiters on a condition variable where no futex is available.
// Notify bumps the sequence before taking mu, so a waiter either sees the new sequence
// under mu or is already parked when Broadcast runs.
type platformEvent struct {
	mu   sync.Mutex
	cond sync.Cond
}

func (e *Event) wait(seq uint32) {
	e.mu.Lock()
	if e.cond.L == nil {
		e.cond.L = &e.mu
	}
	for atomic.LoadUint32(&e.seq) == seq {
		e.cond.Wait()
	}
	e.mu.Unlock()
}

func (e *Event) wake() {
	e.mu.Lock()
	if e.cond.L == nil {
		e.cond.L = &e.mu
	}
	e.cond.Broadcast()
	e.mu.Unlock()
}
