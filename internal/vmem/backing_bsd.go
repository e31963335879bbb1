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

//go:build darwin || freebsd
// +build darwin freebsd

package vmem

import (
	"fmt"
	"os"
)

// openBacking creates a temporary file of size bytes and unlinks it right away, the
// open descriptor and later the mappings keep it alive.
func openBacking(size int) (*os.File, error) {
	f, err := os.CreateTemp("", fmt.Sprintf("mring-%d-*", os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to create backing file: %w", err)
	}
	if err = os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to unlink backing file: %w", err)
	}
	if err = f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to resize backing file: %w", err)
	}
	return f, nil
}
