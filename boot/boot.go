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

// Package boot runs the boot image pipeline: acquire a candidate image from
// the configured medium, optionally decompress it, validate its integrity,
// register it with the downstream boot services and release the application
// harts.
//
// The pipeline is single-threaded and never reenters itself; the target
// buffer and header scratch exist once per invocation. The only cross-core
// interaction is the one-way restart broadcast at the very end, strictly
// after registration.
package boot

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/riscv-fw/bootcore/api"
	"github.com/riscv-fw/bootcore/devices"
	"github.com/riscv-fw/bootcore/internal/decompress"
	"github.com/riscv-fw/bootcore/internal/verify"
)

// ErrIPCFailure indicates the restart broadcast did not succeed.
var ErrIPCFailure = errors.New("restart broadcast failed")

// HartMask selects application harts for the restart broadcast.
type HartMask uint32

// HartAll addresses every application hart.
const HartAll = ^HartMask(0)

// Services is the downstream boot-service surface consuming validated
// images.
type Services interface {
	RegisterBootImage(*api.Handle)
}

// IPC is the inter-hart restart mechanism.
type IPC interface {
	RestartCore(HartMask) error
}

// Decompressor expands a compressed container src into dst, returning the
// byte count written, 0 on failure.
type Decompressor func(src, dst []byte) int

// State is the pipeline's validation state.
type State int

const (
	// Unvalidated means no image has passed both integrity checks yet.
	Unvalidated State = iota
	// Validated means an image passed the magic and CRC checks and has
	// been registered.
	Validated
)

// Config assembles the collaborators for one pipeline. Selecting a medium
// with no valid source or target is a configuration error reported by New,
// not a runtime fault.
type Config struct {
	// Source is the single active acquisition strategy.
	Source devices.ImageSource

	// Target is the memory window receiving copied or decompressed images.
	// The pipeline writes it during acquisition only and treats it as
	// read-only afterwards; it is never freed here.
	Target []byte

	// Compression enables compressed-image support.
	Compression bool

	// Decompressor overrides the default LZSS adapter. Nil selects the
	// default.
	Decompressor Decompressor

	// Services receives the validated image.
	Services Services

	// IPC issues the default restart broadcast. Required unless CustomFlow
	// is set.
	IPC IPC

	// CustomFlow, when set, replaces the default restart broadcast after
	// registration. Its result is passed through unchanged.
	CustomFlow func() error
}

// Pipeline is the boot image acquisition and validation pipeline.
type Pipeline struct {
	cfg   Config
	dec   Decompressor
	state State
}

// New validates the configuration and assembles a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, errors.New("config: no image source selected")
	}
	if len(cfg.Target) < api.HeaderSize {
		return nil, fmt.Errorf("config: target window too small (%d bytes)", len(cfg.Target))
	}
	if cfg.Services == nil {
		return nil, errors.New("config: no boot services")
	}
	if cfg.IPC == nil && cfg.CustomFlow == nil {
		return nil, errors.New("config: no IPC and no custom boot flow")
	}
	dec := cfg.Decompressor
	if dec == nil {
		dec = decompress.Image
	}
	return &Pipeline{cfg: cfg, dec: dec}, nil
}

// State returns the pipeline's validation state.
func (p *Pipeline) State() State {
	return p.state
}

// Init locates, validates and registers a boot image, then hands off to the
// configured boot flow. Every failure is surfaced as an error; partially
// copied target contents are left in place.
func (p *Pipeline) Init() error {
	glog.Info("Initializing boot image ...")

	h, err := p.cfg.Source.Acquire(p.cfg.Target)
	if err != nil {
		return fmt.Errorf("failed to get boot image: %w", err)
	}
	if h == nil || len(h.Data) == 0 {
		return fmt.Errorf("%w: acquisition returned nothing", devices.ErrNullImage)
	}

	decompressed := false
	if p.cfg.Compression && h.Header.Magic == api.MagicCompressed {
		if h, err = p.decompress(h); err != nil {
			return err
		}
		decompressed = true
	}

	if err := verify.Header(&h.Header); err != nil {
		if errors.Is(err, verify.ErrCRCMismatch) {
			glog.Errorf("%s failed CRC: %v", imageDesc(decompressed), err)
			glog.Infof("Calculated CRC32 of image in target window is %#08x", p.imageCRC(h))
		}
		return err
	}
	glog.Infof("%s passed CRC", imageDesc(decompressed))
	glog.Infof("Boot image set name: %q", h.Header.Name())

	p.cfg.Services.RegisterBootImage(h)
	p.state = Validated
	glog.Info("Boot image registered ...")

	if p.cfg.CustomFlow != nil {
		return p.cfg.CustomFlow()
	}
	if err := p.cfg.IPC.RestartCore(HartAll); err != nil {
		return fmt.Errorf("%w: %v", ErrIPCFailure, err)
	}
	return nil
}

// decompress expands a compressed container into the target buffer and
// reparses the header now resident there. A zero-byte result is a null
// image, not a zero-length-but-valid one.
func (p *Pipeline) decompress(h *api.Handle) (*api.Handle, error) {
	glog.Info("Preparing to decompress to target window ...")

	n := p.dec(h.Data, p.cfg.Target)
	glog.Infof("Decompressed %s ...", humanize.Bytes(uint64(n)))
	if n == 0 {
		return nil, fmt.Errorf("%w: decompression produced no output", devices.ErrNullImage)
	}

	hdr, err := api.ParseHeader(p.cfg.Target[:n])
	if err != nil {
		return nil, fmt.Errorf("%w: decompressed image: %v", devices.ErrNullImage, err)
	}
	return &api.Handle{Header: *hdr, Data: p.cfg.Target[:n]}, nil
}

// imageCRC recomputes the CRC32 over the image's declared length, clamped to
// the resident bytes, for the failure diagnostic only.
func (p *Pipeline) imageCRC(h *api.Handle) uint32 {
	n := int(h.Header.BootImageLength)
	if n > len(h.Data) {
		n = len(h.Data)
	}
	return crc32.ChecksumIEEE(h.Data[:n])
}

func imageDesc(decompressed bool) string {
	if decompressed {
		return "decompressed boot image"
	}
	return "boot image"
}
