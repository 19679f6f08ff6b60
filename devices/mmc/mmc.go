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

// Package mmc provides the MMC/SD image source with optional GPT partition
// lookup.
package mmc

import (
	"github.com/golang/glog"
	"github.com/riscv-fw/bootcore/api"
	"github.com/riscv-fw/bootcore/devices"
	"github.com/riscv-fw/bootcore/internal/gpt"
)

// BootPartitionType is the partition type GUID marking the boot partition
// (21686148-6449-6E6F-744E-656564454649, "Hah!IdoNtNeedEFI").
var BootPartitionType = gpt.GUID{
	0x48, 0x61, 0x68, 0x21,
	0x49, 0x64,
	0x6F, 0x6E,
	0x74, 0x4E,
	0x65, 0x65, 0x64, 0x45, 0x46, 0x49,
}

// Source acquires a boot image from MMC/SD media.
//
// When UseGPT is set the boot partition is located by type GUID first. A
// failed lookup is non-fatal: the source falls back to block 0 and a boot is
// always attempted.
type Source struct {
	Medium devices.Medium
	UseGPT bool
}

var _ devices.ImageSource = Source{}

// Acquire resolves the image offset, reads and gates the header, then
// streams the full image into the target buffer.
func (s Source) Acquire(target []byte) (*api.Handle, error) {
	glog.Info("Preparing to copy from MMC to target window ...")

	var off int64
	if s.UseGPT {
		firstLBA, err := s.locateBootPartition()
		if err != nil {
			glog.Errorf("GPT boot partition lookup failed, falling back to block 0: %v", err)
		} else {
			glog.Infof("Boot partition found at LBA %d", firstLBA)
			off = int64(firstLBA) * gpt.LBASize
		}
	}

	hdr, err := devices.ReadHeader(s.Medium, off)
	if err != nil {
		return nil, err
	}
	return devices.CopyImage(s.Medium, hdr, off, target)
}

// locateBootPartition runs the GPT lookup: header read, structural
// validation, entry array read, then a linear scan for the boot partition
// type. The first matching entry in on-disk order wins.
func (s Source) locateBootPartition() (uint64, error) {
	h, err := gpt.ReadHeader(s.Medium)
	if err != nil {
		return 0, err
	}
	if err := h.Validate(); err != nil {
		return 0, err
	}
	parts, err := gpt.ReadPartitionEntries(s.Medium, h)
	if err != nil {
		return 0, err
	}
	firstLBA, _, err := gpt.FindPartitionByTypeID(parts, BootPartitionType)
	if err != nil {
		return 0, err
	}
	return firstLBA, nil
}
