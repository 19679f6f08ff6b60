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

// Package spiflash provides the SPI flash image source. SPI flash is always
// copy-mode: the image lives at a configured byte offset and is streamed
// into the target buffer.
package spiflash

import (
	"github.com/golang/glog"
	"github.com/riscv-fw/bootcore/api"
	"github.com/riscv-fw/bootcore/devices"
)

// Source acquires a boot image from SPI flash at the configured offset.
type Source struct {
	Medium devices.Medium
	Offset int64
}

var _ devices.ImageSource = Source{}

// Acquire reads the header at the configured offset, gates on the magic and
// streams the full image to the target buffer. Read failures at either stage
// abort the acquisition; no retry is attempted here.
func (s Source) Acquire(target []byte) (*api.Handle, error) {
	glog.Infof("Preparing to copy from SPI flash +%#x to target window ...", s.Offset)

	hdr, err := devices.ReadHeader(s.Medium, s.Offset)
	if err != nil {
		return nil, err
	}
	return devices.CopyImage(s.Medium, hdr, s.Offset, target)
}
