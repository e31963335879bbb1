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

import "github.com/panjf2000/mring/pkg/logging"

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := &Options{ConsistencyChecks: debugChecks}
	for _, option := range options {
		option(opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetDefaultLogger()
	}
	return opts
}

// Options are configurations for a RingBuffer.
type Options struct {
	// Logger is the customized logger for logging info, if it is not set,
	// then the default logger from pkg/logging is used.
	Logger logging.Logger

	// ConsistencyChecks turns on the misuse assertions: committing memory that was not
	// allocated from the ring buffer, committing a record twice, reading an object out of a
	// record that is too small, and so on. A failed assertion panics.
	// Checks also start every cursor just below the 64-bit wraparound point.
	// It defaults to true when built with the mring_debug tag.
	ConsistencyChecks bool
}

// WithOptions sets up all options.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithConsistencyChecks enables or disables the misuse assertions.
func WithConsistencyChecks(enabled bool) Option {
	return func(opts *Options) {
		opts.ConsistencyChecks = enabled
	}
}
