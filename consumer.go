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
	"sync"
	"sync/atomic"

	"github.com/panjf2000/mring/pkg/errors"
	"github.com/panjf2000/mring/pkg/pool/bytebuffer"
	"github.com/panjf2000/mring/pkg/pool/goroutine"
)

// Handler processes one record. The buffer goes back to its pool when the handler returns.
type Handler func(record *bytebuffer.ByteBuffer)

// ConsumerOption is a function that will set up a Consumer.
type ConsumerOption func(c *Consumer)

// WithConsumerPool runs handlers on pool instead of a pool owned by the consumer.
func WithConsumerPool(pool *goroutine.Pool) ConsumerOption {
	return func(c *Consumer) {
		c.pool = pool
	}
}

// WithConsumerBatch caps the records taken per pass over the ring buffer, so producers
// blocked in AllocWait get space back sooner. Zero means no cap.
func WithConsumerBatch(n int) ConsumerOption {
	return func(c *Consumer) {
		c.batch = n
	}
}

// Consumer is the exclusive reader of a RingBuffer: it drains committed records on its own
// goroutine, copies each one into a pooled buffer and runs the handler on a goroutine pool.
// Handlers may run concurrently and out of order. Nothing else may Read from the ring buffer
// while a Consumer is running.
type Consumer struct {
	rb        *RingBuffer
	handler   Handler
	pool      *goroutine.Pool
	ownPool   bool
	batch     int
	started   atomic.Bool
	stopped   atomic.Bool
	processed atomic.Uint64
	inflight  sync.WaitGroup
	done      chan struct{}
}

// NewConsumer returns a consumer of rb, call Start to run it.
func NewConsumer(rb *RingBuffer, handler Handler, opts ...ConsumerOption) *Consumer {
	c := &Consumer{rb: rb, handler: handler, done: make(chan struct{})}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the consuming goroutine.
func (c *Consumer) Start() error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.ErrConsumerStarted
	}
	if c.pool == nil {
		c.pool, c.ownPool = goroutine.Default(), true
	}
	go c.run()
	return nil
}

// Stop makes the consumer drain the records committed so far, waits for every handler to
// return and releases the pool if the consumer owns it. Records committed after Stop stay in
// the ring buffer. Stop does nothing on a consumer that was never started.
func (c *Consumer) Stop() {
	if !c.started.Load() || !c.stopped.CompareAndSwap(false, true) {
		return
	}
	c.rb.interrupt()
	<-c.done
	c.inflight.Wait()
	if c.ownPool {
		c.pool.Release()
	}
}

// Processed returns the number of records whose handler has returned.
func (c *Consumer) Processed() uint64 {
	return c.processed.Load()
}

func (c *Consumer) isStopped() bool {
	return c.stopped.Load()
}

func (c *Consumer) run() {
	defer close(c.done)
	for c.rb.waitCommitted(c.isStopped) {
		c.drain()
	}
	for c.drain() > 0 {
	}
}

func (c *Consumer) drain() int {
	n := 0
	return c.rb.ReadAll(func(p []byte) bool {
		if c.batch > 0 && n == c.batch {
			return false
		}
		c.dispatch(bytebuffer.Clone(p))
		n++
		return true
	})
}

func (c *Consumer) dispatch(record *bytebuffer.ByteBuffer) {
	c.inflight.Add(1)
	task := func() {
		defer c.inflight.Done()
		defer bytebuffer.Put(record)
		c.handler(record)
		c.processed.Add(1)
	}
	if err := c.pool.Submit(task); err != nil {
		c.rb.logger.Warnf("consumer pool rejected a record of %d bytes (%v), handling it inline", record.Len(), err)
		task()
	}
}
