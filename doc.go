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

// Package mring implements a variable-length, multi-producer ring buffer of byte records
// backed by a double-mapped memory region.
//
// The region is mapped twice, back to back, so a record that crosses the physical end of the
// buffer is still one contiguous slice. Producers claim space with Alloc or AllocWait, fill
// the returned slice in place and publish it with Commit; records become readable in the
// order their space was claimed. A single exclusive consumer drains them with Read, ReadAll
// or Peek, any number of consumers can share the buffer through ReadCopy.
//
//	rb, err := mring.New(1 << 20)
//	if err != nil {
//		return err
//	}
//	defer rb.Close()
//
//	if p := rb.Alloc(5, mring.MinAlignment); p != nil {
//		copy(p, "hello")
//		rb.Commit(p)
//	}
//
//	rb.WaitForCommittedData()
//	rb.Read(func(p []byte) {
//		fmt.Println(string(p))
//	})
//
// Build with the mring_debug tag, or pass WithConsistencyChecks(true), to verify the record
// protocol at run time: misuse such as committing twice or reading from two goroutines then
// panics instead of corrupting the buffer.
package mring
