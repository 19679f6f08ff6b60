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

// Package verify holds the boot image integrity checks. These are
// detect-only gates against non-adversarial corruption; nothing here
// attempts repair or signature verification.
package verify

import (
	"errors"
	"fmt"

	"github.com/riscv-fw/bootcore/api"
)

var (
	// ErrMagicMismatch indicates a header magic matching neither recognized
	// constant.
	ErrMagicMismatch = errors.New("boot image magic mismatch")

	// ErrCRCMismatch indicates a header whose stored CRC does not match the
	// recomputed one.
	ErrCRCMismatch = errors.New("boot image header CRC mismatch")
)

// Magic checks that the header carries either recognized magic, plain or
// compressed. It is the acquisition-time gate: it must pass before any
// length-driven copy is attempted.
func Magic(hdr *api.BootImage) error {
	if hdr.Magic != api.MagicPlain && hdr.Magic != api.MagicCompressed {
		return fmt.Errorf("%w: magic is %08x vs expected %08x or %08x",
			ErrMagicMismatch, hdr.Magic, uint32(api.MagicPlain), uint32(api.MagicCompressed))
	}
	return nil
}

// Header validates a memory-resident header for execution: the magic must be
// the plain one (any compressed container has been expanded by now), and the
// stored CRC must match the CRC32 recomputed over the header with the CRC
// field zeroed.
//
// The check is side-effect-free: the caller's HeaderCRC bit pattern is
// identical before and after the call, whatever the outcome.
func Header(hdr *api.BootImage) error {
	if hdr.Magic != api.MagicPlain {
		return fmt.Errorf("%w: magic is %08x vs expected %08x",
			ErrMagicMismatch, hdr.Magic, uint32(api.MagicPlain))
	}
	if got := hdr.CalculateCRC(); got != hdr.HeaderCRC {
		return fmt.Errorf("%w: calculated %08x vs expected %08x",
			ErrCRCMismatch, got, hdr.HeaderCRC)
	}
	return nil
}
