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

package mmc_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/riscv-fw/bootcore/api"
	"github.com/riscv-fw/bootcore/devices/dummy"
	"github.com/riscv-fw/bootcore/devices/mmc"
	"github.com/riscv-fw/bootcore/internal/gpt"
)

const bootLBA = 8

func buildImage(t *testing.T, name string, payload []byte) []byte {
	t.Helper()
	img := api.BootImage{
		Magic:           api.MagicPlain,
		BootImageLength: uint32(api.HeaderSize + len(payload)),
	}
	copy(img.SetName[:], name)
	img.HeaderCRC = img.CalculateCRC()
	b, err := img.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	return append(b, payload...)
}

// buildCard lays out a GPT-partitioned card with image placed at bootLBA,
// and optionally a different image at block 0.
func buildCard(t *testing.T, image, imageAtZero []byte, breakGPT bool) []byte {
	t.Helper()
	card := buildCardWithType(t, mmc.BootPartitionType, image, imageAtZero)
	if breakGPT {
		// Flip a bit of the stored GPT header CRC.
		card[gpt.LBASize+16] ^= 0x01
	}
	return card
}

func TestAcquireViaGPT(t *testing.T) {
	image := buildImage(t, "on-partition", bytes.Repeat([]byte{0xAB}, 700))
	card := buildCard(t, image, nil, false)

	src := mmc.Source{Medium: dummy.FromBytes("card", card), UseGPT: true}
	h, err := src.Acquire(make([]byte, 8*1024))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got, want := h.Header.Name(), "on-partition"; got != want {
		t.Fatalf("acquired image %q, want %q", got, want)
	}
	if !bytes.Equal(h.Data, image) {
		t.Fatal("acquired image bytes differ from the partition contents")
	}
}

// TestAcquireFallsBackToBlockZero checks that a failed GPT lookup is
// non-fatal: the boot attempt proceeds at block 0.
func TestAcquireFallsBackToBlockZero(t *testing.T) {
	partImage := buildImage(t, "on-partition", bytes.Repeat([]byte{0xAB}, 700))
	zeroImage := buildImage(t, "at-block-zero", bytes.Repeat([]byte{0xCD}, 300))

	for _, test := range []struct {
		desc string
		card []byte
	}{
		{desc: "corrupt GPT header", card: buildCard(t, partImage, zeroImage, true)},
		{desc: "no boot partition", card: buildCardWithType(t, gpt.GUID{1}, partImage, zeroImage)},
	} {
		t.Run(test.desc, func(t *testing.T) {
			src := mmc.Source{Medium: dummy.FromBytes("card", test.card), UseGPT: true}
			h, err := src.Acquire(make([]byte, 8*1024))
			if err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			if got, want := h.Header.Name(), "at-block-zero"; got != want {
				t.Fatalf("acquired image %q, want fallback image %q", got, want)
			}
		})
	}
}

func TestAcquireWithoutGPT(t *testing.T) {
	zeroImage := buildImage(t, "at-block-zero", bytes.Repeat([]byte{0xCD}, 300))
	card := make([]byte, 64*gpt.LBASize)
	copy(card, zeroImage)

	src := mmc.Source{Medium: dummy.FromBytes("card", card)}
	h, err := src.Acquire(make([]byte, 8*1024))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got, want := h.Header.Name(), "at-block-zero"; got != want {
		t.Fatalf("acquired image %q, want %q", got, want)
	}
}

func TestAcquireNoImageAnywhere(t *testing.T) {
	// Broken GPT and garbage at block 0: fallback happens, then the magic
	// gate rejects.
	card := buildCard(t, nil, nil, true)
	src := mmc.Source{Medium: dummy.FromBytes("card", card), UseGPT: true}
	if _, err := src.Acquire(make([]byte, 8*1024)); err == nil {
		t.Fatal("Acquire succeeded with no image on the card")
	}
}

// buildCardWithType lays out a GPT-partitioned card whose single partition
// carries the given type GUID, with image at bootLBA and imageAtZero at
// block 0.
func buildCardWithType(t *testing.T, typ gpt.GUID, image, imageAtZero []byte) []byte {
	t.Helper()

	parts := []gpt.Partition{{Type: typ, StartingLBA: bootLBA, EndingLBA: 40}}
	entryBuf := &bytes.Buffer{}
	if err := binary.Write(entryBuf, binary.LittleEndian, parts); err != nil {
		t.Fatalf("failed to encode partition entries: %v", err)
	}

	var h gpt.Header
	copy(h.Signature[:], gpt.Signature)
	h.Revision = 0x00010100
	h.HeaderSize = 92
	h.HeaderStartLBA = 1
	h.BackupLBA = 63
	h.FirstUsableLBA = 3
	h.LastUsableLBA = 62
	h.EntriesStart = 2
	h.EntriesCount = uint32(len(parts))
	h.EntriesSize = 128
	h.PartitionsCRC32 = crc32.ChecksumIEEE(entryBuf.Bytes())
	h.CRC32 = h.CalculateCRC()

	card := make([]byte, 64*gpt.LBASize)
	hdrBuf := &bytes.Buffer{}
	if err := binary.Write(hdrBuf, binary.LittleEndian, h); err != nil {
		t.Fatalf("failed to encode GPT header: %v", err)
	}
	copy(card[1*gpt.LBASize:], hdrBuf.Bytes())
	copy(card[2*gpt.LBASize:], entryBuf.Bytes())
	copy(card[bootLBA*gpt.LBASize:], image)
	copy(card, imageAtZero)
	return card
}
