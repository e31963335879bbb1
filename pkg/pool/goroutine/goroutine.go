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

// Package goroutine wraps the ants goroutine pool that runs record handlers off the
// consuming goroutine.
package goroutine

import (
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultPoolSize is the capacity of the default handler pool, 4 * 1024.
	DefaultPoolSize = 1 << 12

	// ExpiryDuration is the interval time to clean up those expired workers.
	ExpiryDuration = 10 * time.Second

	// Nonblocking decides what to do when submitting a handler to a full pool: waiting for an idle
	// worker or returning ants.ErrPoolOverload directly.
	Nonblocking = true
)

// Pool is the alias of ants.Pool.
type Pool = ants.Pool

// ErrPoolOverload is returned by a non-blocking pool that has no idle worker.
var ErrPoolOverload = ants.ErrPoolOverload

// Default returns a non-blocking pool of DefaultPoolSize workers.
func Default() *Pool {
	pool, _ := New(DefaultPoolSize, Nonblocking)
	return pool
}

// New returns a pool of size workers.
func New(size int, nonblocking bool) (*Pool, error) {
	options := ants.Options{ExpiryDuration: ExpiryDuration, Nonblocking: nonblocking}
	return ants.NewPool(size, ants.WithOptions(options))
}
