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
	"fmt"
	"unsafe"

	"github.com/panjf2000/mring/pkg/codec"
	"github.com/panjf2000/mring/pkg/errors"
	"github.com/panjf2000/mring/pkg/pool/bytebuffer"
)

// WriteEncoded encodes v with c into a new record and commits it. It returns
// errors.ErrNoSpace when the record does not fit right now and errors.ErrEmptyRecord when
// v encodes to nothing.
//
// Codecs implementing codec.Sizer encode straight into ring memory, others are staged in a
// pooled buffer first.
func (rb *RingBuffer) WriteEncoded(c codec.Codec, v any) error {
	if s, ok := c.(codec.Sizer); ok {
		n, err := s.Size(v)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.ErrEmptyRecord
		}
		p := rb.Alloc(n, 0)
		if p == nil {
			return errors.ErrNoSpace
		}
		out, err := c.Append(p[:0], v)
		if err == nil && (len(out) != n || unsafe.SliceData(out) != unsafe.SliceData(p)) {
			err = fmt.Errorf("%T encoded %d bytes after sizing %d", c, len(out), n)
		}
		if err != nil {
			rb.Discard(p)
			return err
		}
		rb.Commit(p)
		return nil
	}

	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	var err error
	if buf.B, err = c.Append(buf.B[:0], v); err != nil {
		return err
	}
	if buf.Len() == 0 {
		return errors.ErrEmptyRecord
	}
	p := rb.Alloc(buf.Len(), 0)
	if p == nil {
		return errors.ErrNoSpace
	}
	copy(p, buf.B)
	rb.Commit(p)
	return nil
}

// ReadDecoded decodes the next committed record into v with c and consumes it, it reports
// whether there was a record. A record that fails to decode is consumed all the same.
func (rb *RingBuffer) ReadDecoded(c codec.Codec, v any) (bool, error) {
	var err error
	ok := rb.Read(func(p []byte) {
		err = c.Unmarshal(p, v)
	})
	return ok, err
}
