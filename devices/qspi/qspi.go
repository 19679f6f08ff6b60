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

// Package qspi provides the QSPI flash image source, in either
// execute-in-place or copy-to-target mode.
package qspi

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/riscv-fw/bootcore/api"
	"github.com/riscv-fw/bootcore/devices"
	"github.com/riscv-fw/bootcore/internal/verify"
)

// Source acquires a boot image from QSPI flash.
//
// In XIP mode the image is referenced directly at its flash-mapped address
// (Mapped) without copying. Otherwise the image is streamed from offset 0 of
// the medium into the target buffer; offset 0 is the only supported
// location, a known simplification rather than a discovered partition.
type Source struct {
	Medium devices.Medium

	XIP    bool
	Mapped []byte
}

var _ devices.ImageSource = Source{}

// Acquire locates the boot image on QSPI flash.
func (s Source) Acquire(target []byte) (*api.Handle, error) {
	if s.XIP {
		return s.acquireXIP()
	}

	glog.Info("Preparing to copy from QSPI to target window ...")
	hdr, err := devices.ReadHeader(s.Medium, 0)
	if err != nil {
		return nil, err
	}
	return devices.CopyImage(s.Medium, hdr, 0, target)
}

func (s Source) acquireXIP() (*api.Handle, error) {
	hdr, err := api.ParseHeader(s.Mapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", devices.ErrNullImage, err)
	}
	if err := verify.Magic(hdr); err != nil {
		return nil, err
	}
	n := int(hdr.BootImageLength)
	if n < api.HeaderSize || n > len(s.Mapped) {
		return nil, fmt.Errorf("%w: declared image length %d outside XIP window (%d bytes)",
			devices.ErrNullImage, n, len(s.Mapped))
	}
	return &api.Handle{Header: *hdr, Data: s.Mapped[:n]}, nil
}
