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

// Package notify implements a futex-like event: a 32-bit sequence that notifiers bump and
// waiters sleep on until it moves away from the value they observed.
//
// The usual pattern is
//
//	for {
//		seq := ev.Seq()
//		if condition() {
//			break
//		}
//		ev.Wait(seq)
//	}
//
// Reading the sequence before checking the condition is what makes the pattern free of lost
// wake-ups: a notifier that changes the condition after the check also bumps the sequence, so
// Wait returns immediately.
package notify

import (
	"runtime"
	"sync/atomic"
)

// spinRounds is the number of backoff rounds WaitUntil yields through before it parks.
const spinRounds = 4

// Event is a sequence counter with wait and notify. The zero value is ready to use.
// An Event must not be copied after first use.
type Event struct {
	seq     uint32
	waiters int32
	platformEvent
}

// Seq returns the current sequence.
func (e *Event) Seq() uint32 {
	return atomic.LoadUint32(&e.seq)
}

// Wait blocks until the sequence differs from seq. It may return spuriously, callers
// re-check their condition in a loop.
func (e *Event) Wait(seq uint32) {
	atomic.AddInt32(&e.waiters, 1)
	e.wait(seq)
	atomic.AddInt32(&e.waiters, -1)
}

// Notify bumps the sequence and wakes every waiter. The wake-up is skipped when nobody sleeps.
func (e *Event) Notify() {
	atomic.AddUint32(&e.seq, 1)
	if atomic.LoadInt32(&e.waiters) > 0 {
		e.wake()
	}
}

// Waiters returns the number of goroutines currently inside Wait.
func (e *Event) Waiters() int {
	return int(atomic.LoadInt32(&e.waiters))
}

// WaitUntil runs the wait pattern until cond reports true. It first yields the processor
// with an exponential backoff and only parks once that is exhausted, as most conditions
// flip within a few scheduling rounds.
func (e *Event) WaitUntil(cond func() bool) {
	backoff := 1
	for round := 0; ; round++ {
		seq := e.Seq()
		if cond() {
			return
		}
		if round < spinRounds {
			for i := 0; i < backoff; i++ {
				runtime.Gosched()
			}
			backoff <<= 1
			continue
		}
		e.Wait(seq)
	}
}
