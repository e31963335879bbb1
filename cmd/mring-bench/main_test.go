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

//go:build linux || darwin || freebsd || windows
// +build linux darwin freebsd windows

package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panjf2000/mring"
	"github.com/panjf2000/mring/pkg/errors"
)

func TestValidate(t *testing.T) {
	rb, err := mring.New(4096)
	require.NoError(t, err)
	defer func() { require.NoError(t, rb.Close()) }()

	assert.NoError(t, validate(rb, 256, 0))
	assert.NoError(t, validate(rb, rb.MaxRecordSize(0), 0))
	assert.NoError(t, validate(rb, minRecord, 64))

	assert.Error(t, validate(rb, minRecord-1, 0))
	assert.ErrorIs(t, validate(rb, 256, 24), errors.ErrInvalidAlignment)
	assert.ErrorIs(t, validate(rb, 256, 2*mring.MaxAlignment), errors.ErrInvalidAlignment)
	assert.ErrorIs(t, validate(rb, rb.Capacity(), 0), errors.ErrNoSpace)
	assert.ErrorIs(t, validate(rb, rb.MaxRecordSize(64)+1, 64), errors.ErrNoSpace)
}

func TestFillVerify(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, n := range []int{minRecord, 100, 4000} {
		p := make([]byte, n)
		fill(p, uint64(n), r)
		assert.Truef(t, verify(p), "%d-byte record", n)
		p[seqSize] ^= 0xff
		assert.Falsef(t, verify(p), "a flipped byte in a %d-byte record must be caught", n)
	}
	assert.False(t, verify(make([]byte, minRecord-1)))
}
