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

// bootinit runs the boot image pipeline against file-backed media, emulating
// the acquisition, validation and handoff performed by the boot hart.
package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/riscv-fw/bootcore/cmd/bootinit/impl"
)

var (
	media       = flag.String("media", "mmc", "boot medium: one of payload, qspi, spiflash, mmc")
	mediaImage  = flag.String("media_image", "", "disk/flash image file backing the medium")
	payloadFile = flag.String("payload", "", "boot image blob for the payload medium")
	spiOffset   = flag.Int64("spi_offset", 0, "byte offset of the boot image in SPI flash")
	xip         = flag.Bool("xip", false, "reference the QSPI image in place instead of copying")
	useGPT      = flag.Bool("use_gpt", true, "locate the MMC boot partition via GPT")
	compression = flag.Bool("compression", false, "enable compressed boot image support")
	targetSize  = flag.Int("target_size", 32*1024*1024, "size of the emulated DDR target window in bytes")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	err := impl.Main(impl.BootOpts{
		Media:       *media,
		MediaImage:  *mediaImage,
		PayloadFile: *payloadFile,
		SPIOffset:   *spiOffset,
		XIP:         *xip,
		UseGPT:      *useGPT,
		Compression: *compression,
		TargetSize:  *targetSize,
	})
	if err != nil {
		glog.Exitf("Boot initialization failed: %v", err)
	}
	glog.Info("Boot initialization complete")
}
