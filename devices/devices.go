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

// Package devices defines the contracts between the boot pipeline and the
// boot media, plus the shared acquisition helpers used by the per-medium
// image sources.
package devices

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/riscv-fw/bootcore/api"
	"github.com/riscv-fw/bootcore/internal/verify"
)

var (
	// ErrMediaRead indicates a medium failed to deliver the requested bytes.
	// Partial reads are not a supported outcome, so any short read is a
	// read failure.
	ErrMediaRead = errors.New("media read failed")

	// ErrNullImage indicates acquisition yielded no usable image.
	ErrNullImage = errors.New("no boot image")
)

// Medium is the raw block-read primitive of a boot medium.
//
// Drivers for individual media are bound to this interface, which allows the
// image sources to stream boot images without knowing the transport.
type Medium interface {
	// ReadBlock fills dst with exactly len(dst) bytes starting at byte
	// offset off, or returns an error.
	ReadBlock(dst []byte, off int64) error
}

// ImageSource locates a candidate boot image on one medium.
//
// Exactly one source is active per boot attempt; it is constructed once from
// configuration and handed to the pipeline.
type ImageSource interface {
	// Acquire returns a handle to the candidate image, resident either in
	// target or in a statically mapped region. The returned header has
	// passed the magic check but not yet the CRC check.
	Acquire(target []byte) (*api.Handle, error)
}

// ReadHeader reads and parses a boot image header at the given byte offset,
// then gates on the magic number. The magic check strictly precedes any
// length-driven operation so that a garbage BootImageLength is never acted
// upon.
func ReadHeader(m Medium, off int64) (*api.BootImage, error) {
	glog.V(1).Infof("Attempting to read image header (%d bytes) at offset %#x ...", api.HeaderSize, off)

	buf := make([]byte, api.HeaderSize)
	if err := m.ReadBlock(buf, off); err != nil {
		return nil, fmt.Errorf("%w: image header at offset %#x: %v", ErrMediaRead, off, err)
	}
	hdr, err := api.ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	if err := verify.Magic(hdr); err != nil {
		return nil, err
	}
	return hdr, nil
}

// CopyImage streams the full image described by hdr from the medium into the
// target buffer and returns a handle into it. hdr must already have passed
// the magic check.
func CopyImage(m Medium, hdr *api.BootImage, off int64, target []byte) (*api.Handle, error) {
	n := int64(hdr.BootImageLength)
	if n < api.HeaderSize {
		return nil, fmt.Errorf("%w: declared image length %d shorter than its header", ErrNullImage, n)
	}
	if n > int64(len(target)) {
		return nil, fmt.Errorf("image length %s exceeds target window (%s)",
			humanize.Bytes(uint64(n)), humanize.Bytes(uint64(len(target))))
	}

	glog.Infof("Copying %s to target window ...", humanize.Bytes(uint64(n)))
	if err := m.ReadBlock(target[:n], off); err != nil {
		return nil, fmt.Errorf("%w: copying boot image: %v", ErrMediaRead, err)
	}
	return &api.Handle{Header: *hdr, Data: target[:n]}, nil
}
