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

// Package api holds the on-media boot image format shared by the media
// strategies, the validator and the boot pipeline.
package api

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/dustin/go-humanize"
)

const (
	// MagicPlain identifies a directly executable boot image.
	MagicPlain = 0xB007C0DE
	// MagicCompressed identifies a compressed boot image container whose
	// payload expands to a plain image.
	MagicCompressed = 0xC08B0075

	// HeaderSize is the total on-media size of a BootImage header. The
	// header CRC always covers exactly this many bytes, independent of the
	// payload length.
	HeaderSize = 512

	// SetNameSize is the fixed width of the human-readable image label.
	SetNameSize = 32
)

// BootImage is the fixed-layout header at the start of every boot image,
// stored little-endian on media. Only the first four fields are interpreted
// here; Reserved carries downstream-consumed metadata and is treated as an
// opaque blob for CRC purposes.
type BootImage struct {
	// Magic must be MagicPlain or MagicCompressed.
	Magic uint32
	// HeaderCRC is the CRC32 of the header with this field zeroed.
	HeaderCRC uint32
	// BootImageLength is the byte length of the full image, header included.
	BootImageLength uint32
	// SetName is a NUL-padded label, diagnostics only, never validated.
	SetName [SetNameSize]byte

	Reserved [HeaderSize - 44]byte
}

// ParseHeader decodes a BootImage header from the start of b. It performs no
// integrity checking beyond the length of b.
func ParseHeader(b []byte) (*BootImage, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("short boot image header: got %d bytes, want %d", len(b), HeaderSize)
	}
	var img BootImage
	if err := binary.Read(bytes.NewReader(b[:HeaderSize]), binary.LittleEndian, &img); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", img, err)
	}
	return &img, nil
}

// MarshalBinary encodes the header into its on-media form.
func (i BootImage) MarshalBinary() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, i); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", i, err)
	}
	return buf.Bytes(), nil
}

// CalculateCRC returns the CRC32 of the header computed with the HeaderCRC
// field zeroed. The receiver is a value, so the caller's header is left
// bit-identical regardless of use.
func (i BootImage) CalculateCRC() uint32 {
	i.HeaderCRC = 0
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, i)
	return crc32.ChecksumIEEE(buf.Bytes())
}

// Name returns the image set name with trailing NULs removed.
func (i BootImage) Name() string {
	return string(bytes.TrimRight(i.SetName[:], "\x00"))
}

// String returns a human-readable representation of the header.
func (i BootImage) String() string {
	return fmt.Sprintf("%q magic %#08x length %s", i.Name(), i.Magic,
		humanize.Bytes(uint64(i.BootImageLength)))
}

// Handle is a validated, memory-resident boot image reference: the parsed
// header plus the full image bytes it describes. Data aliases either the
// pipeline's target buffer or a statically mapped region; it is never owned
// by the handle.
type Handle struct {
	Header BootImage
	Data   []byte
}

// String returns a human-readable representation of the handle.
func (h Handle) String() string {
	return fmt.Sprintf("%q (%s resident)", h.Header.Name(), humanize.Bytes(uint64(len(h.Data))))
}
