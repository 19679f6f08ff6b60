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

//go:build armory
// +build armory

// Package armory binds the USB armory Mk II SD/eMMC controllers to the boot
// medium contract, for running the pipeline on real hardware.
package armory

import (
	"fmt"

	usbarmory "github.com/usbarmory/tamago/board/usbarmory/mk2"
	"github.com/usbarmory/tamago/soc/nxp/usdhc"

	"github.com/riscv-fw/bootcore/devices"
)

// Medium is a boot medium backed by a uSDHC card controller.
type Medium struct {
	Card *usdhc.USDHC
}

var _ devices.Medium = &Medium{}

// SD returns the detected microSD card as a boot medium.
func SD() (*Medium, error) {
	return detect(usbarmory.SD)
}

// MMC returns the detected internal eMMC as a boot medium.
func MMC() (*Medium, error) {
	return detect(usbarmory.MMC)
}

func detect(card *usdhc.USDHC) (*Medium, error) {
	if err := card.Detect(); err != nil {
		return nil, fmt.Errorf("%w: boot media detect: %v", devices.ErrMediaRead, err)
	}
	return &Medium{Card: card}, nil
}

// ReadBlock fills dst from byte offset off.
func (m *Medium) ReadBlock(dst []byte, off int64) error {
	buf, err := m.Card.Read(off, int64(len(dst)))
	if err != nil {
		return fmt.Errorf("%w: %d bytes at %#x: %v", devices.ErrMediaRead, len(dst), off, err)
	}
	if len(buf) != len(dst) {
		return fmt.Errorf("%w: short read, got %d bytes at %#x, want %d", devices.ErrMediaRead, len(buf), off, len(dst))
	}
	copy(dst, buf)
	return nil
}
