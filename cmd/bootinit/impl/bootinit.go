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

// Package impl is the implementation of the bootinit emulator: it runs the
// boot image acquisition and validation pipeline against file-backed media,
// standing in for the boot hart of a real device.
package impl

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/riscv-fw/bootcore/api"
	"github.com/riscv-fw/bootcore/boot"
	"github.com/riscv-fw/bootcore/devices"
	"github.com/riscv-fw/bootcore/devices/dummy"
	"github.com/riscv-fw/bootcore/devices/mmc"
	"github.com/riscv-fw/bootcore/devices/payload"
	"github.com/riscv-fw/bootcore/devices/qspi"
	"github.com/riscv-fw/bootcore/devices/spiflash"
)

// BootOpts encapsulates bootinit parameters.
type BootOpts struct {
	// Media selects the acquisition strategy: payload, qspi, spiflash or mmc.
	Media string
	// MediaImage is the disk/flash image file backing the selected medium.
	MediaImage string
	// PayloadFile is the boot image blob for the payload medium.
	PayloadFile string

	SPIOffset   int64
	XIP         bool
	UseGPT      bool
	Compression bool
	TargetSize  int
}

// logServices logs registrations in place of the downstream boot service.
type logServices struct{}

func (logServices) RegisterBootImage(h *api.Handle) {
	glog.Infof("Boot service registered image %s", h)
}

// logIPC logs the restart broadcast in place of the inter-hart IPC block.
type logIPC struct{}

func (logIPC) RestartCore(m boot.HartMask) error {
	glog.Infof("Restart broadcast issued to hart mask %#x", uint32(m))
	return nil
}

// Main runs the pipeline once with the configured medium.
func Main(opts BootOpts) error {
	src, cleanup, err := imageSource(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	sel := boot.NewSelector(src)
	p, err := boot.New(boot.Config{
		Source:      sel.Source(),
		Target:      make([]byte, opts.TargetSize),
		Compression: opts.Compression,
		Services:    logServices{},
		IPC:         logIPC{},
	})
	if err != nil {
		return fmt.Errorf("invalid boot configuration: %w", err)
	}
	return p.Init()
}

func imageSource(opts BootOpts) (devices.ImageSource, func() error, error) {
	noop := func() error { return nil }

	if opts.Media == "payload" {
		blob, err := os.ReadFile(opts.PayloadFile)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to read payload blob: %w", err)
		}
		return payload.Source{Blob: blob}, noop, nil
	}

	if opts.MediaImage == "" {
		return nil, noop, errors.New("must specify media_image")
	}

	switch opts.Media {
	case "qspi":
		if opts.XIP {
			mapped, err := os.ReadFile(opts.MediaImage)
			if err != nil {
				return nil, noop, fmt.Errorf("failed to map QSPI image: %w", err)
			}
			return qspi.Source{XIP: true, Mapped: mapped}, noop, nil
		}
		m, err := dummy.New(opts.MediaImage)
		if err != nil {
			return nil, noop, err
		}
		return qspi.Source{Medium: m}, m.Close, nil
	case "spiflash":
		m, err := dummy.New(opts.MediaImage)
		if err != nil {
			return nil, noop, err
		}
		return spiflash.Source{Medium: m, Offset: opts.SPIOffset}, m.Close, nil
	case "mmc":
		m, err := dummy.New(opts.MediaImage)
		if err != nil {
			return nil, noop, err
		}
		return mmc.Source{Medium: m, UseGPT: opts.UseGPT}, m.Close, nil
	default:
		return nil, noop, errors.New("media must be one of: 'payload', 'qspi', 'spiflash', 'mmc'")
	}
}
