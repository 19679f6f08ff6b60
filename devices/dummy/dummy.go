// Copyright 2025 The Bootcore Authors. All Rights Reserved.
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

// Package dummy provides a fake boot medium backed by a file or an
// in-memory byte slice, for the emulator and for tests.
package dummy

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/riscv-fw/bootcore/devices"
)

// Medium is a boot medium backed by any io.ReaderAt.
type Medium struct {
	name string
	r    io.ReaderAt
}

var _ devices.Medium = &Medium{}

// New opens a disk image file as a boot medium. The caller owns the
// returned Close.
func New(path string) (*Medium, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open media image %q: %w", path, err)
	}
	return &Medium{name: path, r: f}, nil
}

// FromBytes wraps an in-memory disk image as a boot medium.
func FromBytes(name string, b []byte) *Medium {
	return &Medium{name: name, r: bytes.NewReader(b)}
}

// ReadBlock fills dst from byte offset off. A short read is a media read
// failure, never a partial result.
func (m *Medium) ReadBlock(dst []byte, off int64) error {
	if _, err := m.r.ReadAt(dst, off); err != nil {
		return fmt.Errorf("%w: %d bytes at %#x from %s: %v", devices.ErrMediaRead, len(dst), off, m.name, err)
	}
	return nil
}

// Close releases the underlying file, if any.
func (m *Medium) Close() error {
	if c, ok := m.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
