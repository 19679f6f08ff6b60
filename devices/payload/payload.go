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

// Package payload provides the embedded-payload image source: the boot image
// is compiled into the firmware itself, so acquisition is a direct reference
// with no copy and no medium I/O.
package payload

import (
	"fmt"

	"github.com/riscv-fw/bootcore/api"
	"github.com/riscv-fw/bootcore/devices"
	"github.com/riscv-fw/bootcore/internal/verify"
)

// Source references a compiled-in boot image blob supplied by the build or
// packaging step.
type Source struct {
	Blob []byte
}

var _ devices.ImageSource = Source{}

// Acquire returns a handle straight into the embedded blob. The target
// buffer is unused; the only way this source fails is the magic check.
func (s Source) Acquire(_ []byte) (*api.Handle, error) {
	hdr, err := api.ParseHeader(s.Blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", devices.ErrNullImage, err)
	}
	if err := verify.Magic(hdr); err != nil {
		return nil, err
	}
	n := int(hdr.BootImageLength)
	if n < api.HeaderSize || n > len(s.Blob) {
		return nil, fmt.Errorf("%w: declared image length %d outside embedded blob (%d bytes)",
			devices.ErrNullImage, n, len(s.Blob))
	}
	return &api.Handle{Header: *hdr, Data: s.Blob[:n]}, nil
}
