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

// Package codec turns values into record payloads and back, the ring buffer itself never
// looks at the bytes it carries.
package codec

import (
	"fmt"

	"github.com/sugawarayuuta/sonnet"
	"google.golang.org/protobuf/proto"

	"github.com/panjf2000/mring/pkg/errors"
)

// Codec encodes and decodes record payloads.
type Codec interface {
	// Append appends the encoding of v to dst and returns the extended slice.
	Append(dst []byte, v any) ([]byte, error)
	// Unmarshal decodes data into v. data is ring memory, implementations copy what they keep.
	Unmarshal(data []byte, v any) error
}

// Sizer is implemented by codecs that know the encoded size of a value up front, values
// are then encoded straight into ring memory.
type Sizer interface {
	Size(v any) (int, error)
}

var (
	// Raw passes []byte and string payloads through as they are.
	Raw Codec = rawCodec{}
	// Proto encodes proto.Message values.
	Proto Codec = protoCodec{}
	// JSON encodes any value as JSON.
	JSON Codec = jsonCodec{}
)

func invalid(c Codec, v any) error {
	return fmt.Errorf("%w: %T can't handle %T", errors.ErrInvalidCodecValue, c, v)
}

type rawCodec struct{}

func (c rawCodec) Size(v any) (int, error) {
	switch b := v.(type) {
	case []byte:
		return len(b), nil
	case string:
		return len(b), nil
	}
	return 0, invalid(c, v)
}

func (c rawCodec) Append(dst []byte, v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return append(dst, b...), nil
	case string:
		return append(dst, b...), nil
	}
	return dst, invalid(c, v)
}

func (c rawCodec) Unmarshal(data []byte, v any) error {
	switch out := v.(type) {
	case *[]byte:
		*out = append((*out)[:0], data...)
	case *string:
		*out = string(data)
	default:
		return invalid(c, v)
	}
	return nil
}

type protoCodec struct{}

func (c protoCodec) Size(v any) (int, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return 0, invalid(c, v)
	}
	return proto.Size(m), nil
}

func (c protoCodec) Append(dst []byte, v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return dst, invalid(c, v)
	}
	return proto.MarshalOptions{}.MarshalAppend(dst, m)
}

func (c protoCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return invalid(c, v)
	}
	return proto.Unmarshal(data, m)
}

type jsonCodec struct{}

func (jsonCodec) Append(dst []byte, v any) ([]byte, error) {
	b, err := sonnet.Marshal(v)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return sonnet.Unmarshal(data, v)
}
