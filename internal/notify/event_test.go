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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventWaitReturnsOnStaleSequence(t *testing.T) {
	var ev Event
	seq := ev.Seq()
	ev.Notify()
	assert.NotEqual(t, seq, ev.Seq())

	done := make(chan struct{})
	go func() {
		ev.Wait(seq)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait blocked on a sequence that already moved")
	}
	assert.Zero(t, ev.Waiters())
}

func TestEventNotifyWakesAllWaiters(t *testing.T) {
	const waiters = 8
	var (
		ev    Event
		ready int32
		flag  int32
		wg    sync.WaitGroup
	)
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			atomic.AddInt32(&ready, 1)
			for {
				seq := ev.Seq()
				if atomic.LoadInt32(&flag) == 1 {
					return
				}
				ev.Wait(seq)
			}
		}()
	}
	for atomic.LoadInt32(&ready) < waiters {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)

	atomic.StoreInt32(&flag, 1)
	ev.Notify()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("waiters were not released, %d still waiting", ev.Waiters())
	}
}

func TestEventPingPong(t *testing.T) {
	const rounds = 10000
	var (
		ping, pong Event
		turn       int32
	)
	go func() {
		for i := 0; i < rounds; i++ {
			for {
				seq := ping.Seq()
				if atomic.LoadInt32(&turn) == 1 {
					break
				}
				ping.Wait(seq)
			}
			atomic.StoreInt32(&turn, 0)
			pong.Notify()
		}
	}()
	for i := 0; i < rounds; i++ {
		atomic.StoreInt32(&turn, 1)
		ping.Notify()
		for {
			seq := pong.Seq()
			if atomic.LoadInt32(&turn) == 0 {
				break
			}
			pong.Wait(seq)
		}
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(&turn))
}

func TestEventWaitUntil(t *testing.T) {
	var (
		ev   Event
		flag int32
	)
	ev.WaitUntil(func() bool { return true })

	done := make(chan struct{})
	go func() {
		ev.WaitUntil(func() bool { return atomic.LoadInt32(&flag) == 1 })
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("WaitUntil returned before the condition held")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 1, ev.Waiters(), "the waiter must park once the backoff is exhausted")

	atomic.StoreInt32(&flag, 1)
	ev.Notify()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitUntil did not return after Notify")
	}
}

func BenchmarkEventWait(b *testing.B) {
	var (
		ev   Event
		turn int32
	)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			for {
				seq := ev.Seq()
				if atomic.CompareAndSwapInt32(&turn, 0, 1) {
					break
				}
				ev.Wait(seq)
			}
			atomic.StoreInt32(&turn, 0)
			ev.Notify()
		}
	})
}

func BenchmarkEventWaitUntil(b *testing.B) {
	var (
		ev   Event
		turn int32
	)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ev.WaitUntil(func() bool { return atomic.CompareAndSwapInt32(&turn, 0, 1) })
			atomic.StoreInt32(&turn, 0)
			ev.Notify()
		}
	})
}
