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

// Package gpt locates boot partitions on GUID-partitioned block media.
//
// It reads just enough of the on-disk format to find a partition by type
// GUID: the primary header at LBA 1 and the partition entry array. Scratch
// buffers live only for the duration of one lookup.
package gpt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/riscv-fw/bootcore/devices"
)

const (
	// Signature is the magic at the start of every GPT header.
	Signature = "EFI PART"

	// LBASize is the logical block size assumed for all supported media.
	LBASize = 512

	// primaryHeaderLBA is the well-known block of the primary GPT header.
	primaryHeaderLBA = 1

	// entrySize is the only supported partition entry size.
	entrySize = 128

	// maxEntries bounds the entry array scratch read.
	maxEntries = 128
)

// ErrPartitionNotFound indicates no partition with the requested type GUID
// exists on the medium. Callers treat this as non-fatal.
var ErrPartitionNotFound = errors.New("no matching GPT partition")

// GUID is a partition type or unique identifier in on-disk byte order.
type GUID [16]byte

// String renders the GUID in its canonical mixed-endian text form.
func (u GUID) String() string {
	return fmt.Sprintf("%02X%02X%02X%02X-%02X%02X-%02X%02X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		u[3], u[2], u[1], u[0],
		u[5], u[4],
		u[7], u[6],
		u[8], u[9],
		u[10], u[11], u[12], u[13], u[14], u[15],
	)
}

type magic [8]byte

// Header is the GPT header as stored at LBA 1.
type Header struct {
	Signature       magic
	Revision        uint32
	HeaderSize      uint32
	CRC32           uint32
	Reserved        uint32
	HeaderStartLBA  uint64
	BackupLBA       uint64
	FirstUsableLBA  uint64
	LastUsableLBA   uint64
	DiskGUID        GUID
	EntriesStart    uint64
	EntriesCount    uint32
	EntriesSize     uint32
	PartitionsCRC32 uint32
	Padding         [420]byte
}

// Partition is a single GPT partition entry.
type Partition struct {
	Type               GUID
	ID                 GUID
	StartingLBA        uint64
	EndingLBA          uint64
	Attributes         uint64
	PartitionNameUTF16 [72]byte
}

// IsEmpty reports whether the entry slot is unused.
func (p Partition) IsEmpty() bool {
	return p.Type == GUID{}
}

// ReadHeader reads the primary GPT header from its well-known block.
func ReadHeader(m devices.Medium) (*Header, error) {
	buf := make([]byte, LBASize)
	if err := m.ReadBlock(buf, primaryHeaderLBA*LBASize); err != nil {
		return nil, fmt.Errorf("%w: GPT header: %v", devices.ErrMediaRead, err)
	}
	var h Header
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", h, err)
	}
	return &h, nil
}

// CalculateCRC returns the CRC32 of the header computed with the CRC32 field
// zeroed, over exactly HeaderSize bytes.
func (h Header) CalculateCRC() uint32 {
	h.CRC32 = 0
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, h)
	return crc32.ChecksumIEEE(buf.Bytes()[:h.HeaderSize])
}

// Validate structurally checks the header: signature, sizes and checksum.
func (h *Header) Validate() error {
	if string(h.Signature[:]) != Signature {
		return fmt.Errorf("invalid GPT signature %q", h.Signature[:])
	}
	if h.EntriesSize != entrySize {
		return fmt.Errorf("unsupported GPT entry size %d, must be %d", h.EntriesSize, entrySize)
	}
	if h.HeaderSize < 92 || h.HeaderSize > LBASize {
		return fmt.Errorf("invalid GPT header size %d", h.HeaderSize)
	}
	if h.EntriesCount == 0 || h.EntriesCount > maxEntries {
		return fmt.Errorf("unsupported GPT entry count %d", h.EntriesCount)
	}
	if got := h.CalculateCRC(); got != h.CRC32 {
		return fmt.Errorf("GPT header CRC mismatch: calculated %#08x vs expected %#08x", got, h.CRC32)
	}
	return nil
}

// ReadPartitionEntries reads the partition entry array described by h into a
// call-local scratch buffer and validates its checksum before decoding.
func ReadPartitionEntries(m devices.Medium, h *Header) ([]Partition, error) {
	buf := make([]byte, int(h.EntriesCount)*entrySize)
	if err := m.ReadBlock(buf, int64(h.EntriesStart)*LBASize); err != nil {
		return nil, fmt.Errorf("%w: GPT partition entries: %v", devices.ErrMediaRead, err)
	}
	if got := crc32.ChecksumIEEE(buf); got != h.PartitionsCRC32 {
		return nil, fmt.Errorf("GPT partition entries CRC mismatch: calculated %#08x vs expected %#08x",
			got, h.PartitionsCRC32)
	}

	parts := make([]Partition, h.EntriesCount)
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &parts); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", parts, err)
	}
	return parts, nil
}

// FindPartitionByTypeID returns the LBA range of the first partition, in
// on-disk order, whose type GUID matches id.
func FindPartitionByTypeID(parts []Partition, id GUID) (firstLBA, lastLBA uint64, err error) {
	for _, p := range parts {
		if p.IsEmpty() {
			continue
		}
		if p.Type == id {
			return p.StartingLBA, p.EndingLBA, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: type %s", ErrPartitionNotFound, id)
}
