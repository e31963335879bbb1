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

// Command mring-bench hammers a ring buffer with concurrent producers and one consumer,
// verifies every record against its checksum and reports the throughput.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/panjf2000/mring"
	"github.com/panjf2000/mring/pkg/errors"
	"github.com/panjf2000/mring/pkg/logging"
	"github.com/panjf2000/mring/pkg/math"
	"github.com/panjf2000/mring/pkg/pool/bytebuffer"
	"github.com/panjf2000/mring/pkg/pool/goroutine"
)

const (
	seqSize      = 8
	checksumSize = 8
	minRecord    = seqSize + checksumSize
)

type stats struct {
	records atomic.Uint64
	bytes   atomic.Uint64
	corrupt atomic.Uint64
	waits   atomic.Uint64
	retries atomic.Uint64
}

// fill writes the sequence number, a pseudo-random body and the checksum of both into p.
func fill(p []byte, seq uint64, r *rand.Rand) {
	binary.LittleEndian.PutUint64(p, seq)
	body := p[seqSize : len(p)-checksumSize]
	for i := range body {
		body[i] = byte(r.Intn(256))
	}
	binary.LittleEndian.PutUint64(p[len(p)-checksumSize:], xxhash.Sum64(p[:len(p)-checksumSize]))
}

func verify(p []byte) bool {
	if len(p) < minRecord {
		return false
	}
	return binary.LittleEndian.Uint64(p[len(p)-checksumSize:]) == xxhash.Sum64(p[:len(p)-checksumSize])
}

func produce(rb *mring.RingBuffer, id, records, maxSize, align int, wait bool, st *stats) {
	r := rand.New(rand.NewSource(int64(id)))
	onWait := func() { st.waits.Add(1) }
	for i := 0; i < records; i++ {
		n := minRecord + r.Intn(maxSize-minRecord+1)
		var p []byte
		if wait {
			p = rb.AllocWait(n, onWait, align)
		} else {
			for p = rb.Alloc(n, align); p == nil; p = rb.Alloc(n, align) {
				st.retries.Add(1)
				runtime.Gosched()
			}
		}
		fill(p, uint64(id)<<32|uint64(i), r)
		rb.Commit(p)
	}
}

// validate rejects record sizes and alignments no producer could ever allocate, they would
// make AllocWait return nil and Alloc retry forever.
func validate(rb *mring.RingBuffer, size, align int) error {
	if size < minRecord {
		return fmt.Errorf("record size must be at least %d bytes, got %d", minRecord, size)
	}
	if align < 0 || align > mring.MaxAlignment || (align != 0 && !math.IsPowerOfTwo(align)) {
		return fmt.Errorf("%w: got %d", errors.ErrInvalidAlignment, align)
	}
	if limit := rb.MaxRecordSize(align); size > limit {
		return fmt.Errorf("%w: %d-byte records aligned to %d don't fit in a %d-byte ring buffer, the limit is %d",
			errors.ErrNoSpace, size, align, rb.Capacity(), limit)
	}
	return nil
}

func main() {
	var (
		capacity  int
		producers int
		records   int
		size      int
		align     int
		wait      bool
		checks    bool
		workers   int
	)

	// Example command: go run ./cmd/mring-bench --capacity 1048576 --producers 8 --records 1000000 --size 256
	flag.IntVar(&capacity, "capacity", 1<<20, "ring buffer capacity hint in bytes")
	flag.IntVar(&producers, "producers", runtime.NumCPU(), "number of producer goroutines")
	flag.IntVar(&records, "records", 1000000, "records written by each producer")
	flag.IntVar(&size, "size", 256, "largest record size in bytes, sizes are uniform in [16, size]")
	flag.IntVar(&align, "align", 0, "payload alignment, 0 for the default")
	flag.BoolVar(&wait, "wait", true, "block in AllocWait instead of retrying Alloc")
	flag.BoolVar(&checks, "checks", false, "enable the consistency checks")
	flag.IntVar(&workers, "workers", goroutine.DefaultPoolSize, "size of the handler pool")
	flag.Parse()
	defer logging.Cleanup()

	rb, err := mring.New(capacity, mring.WithConsistencyChecks(checks))
	if err != nil {
		logging.Fatalf("failed to create the ring buffer: %v", err)
	}
	if err = validate(rb, size, align); err != nil {
		logging.Fatalf("invalid flags: %v", err)
	}
	pool, err := goroutine.New(workers, false)
	if err != nil {
		logging.Fatalf("failed to create the handler pool: %v", err)
	}
	defer pool.Release()

	var st stats
	consumer := mring.NewConsumer(rb, func(record *bytebuffer.ByteBuffer) {
		if !verify(record.B) {
			st.corrupt.Add(1)
		}
		st.records.Add(1)
		st.bytes.Add(uint64(record.Len()))
	}, mring.WithConsumerPool(pool))
	if err = consumer.Start(); err != nil {
		logging.Fatalf("failed to start the consumer: %v", err)
	}

	logging.Infof("capacity=%d producers=%d records=%d size=%d align=%d wait=%t checks=%t",
		rb.Capacity(), producers, records, size, align, wait, checks)
	start := time.Now()
	var wg sync.WaitGroup
	for id := 0; id < producers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			produce(rb, id, records, size, align, wait, &st)
		}(id)
	}
	wg.Wait()
	total := uint64(producers) * uint64(records)
	for consumer.Processed() < total {
		time.Sleep(time.Millisecond)
	}
	elapsed := time.Since(start)
	consumer.Stop()

	logging.Infof("%d records, %d MiB in %v: %.0f records/s, %.1f MiB/s",
		st.records.Load(), st.bytes.Load()>>20, elapsed,
		float64(st.records.Load())/elapsed.Seconds(), float64(st.bytes.Load())/(1<<20)/elapsed.Seconds())
	logging.Infof("producer waits=%d retries=%d, final state %+v", st.waits.Load(), st.retries.Load(), rb.State())

	if err = rb.Close(); err != nil {
		logging.Errorf("failed to close the ring buffer: %v", err)
	}
	if n := st.corrupt.Load(); n > 0 {
		logging.Errorf("%d corrupted records", n)
		logging.Cleanup()
		os.Exit(1)
	}
}
