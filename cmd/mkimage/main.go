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

// mkimage wraps a raw payload in a boot image header, optionally inside a
// compressed container, producing files the bootinit pipeline accepts. It
// stands in for the image packaging step of a firmware build.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/blacktop/lzss"
	"github.com/dustin/go-humanize"
	"github.com/golang/glog"

	"github.com/riscv-fw/bootcore/api"
)

var (
	payloadFile = flag.String("payload", "", "raw payload file to wrap")
	outFile     = flag.String("out", "", "output boot image file")
	setName     = flag.String("set_name", "", "boot image set name (diagnostics only)")
	compress    = flag.Bool("compress", false, "produce a compressed container")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if *payloadFile == "" || *outFile == "" {
		glog.Exit("must specify payload and out")
	}

	payload, err := os.ReadFile(*payloadFile)
	if err != nil {
		glog.Exitf("Failed to read payload: %v", err)
	}

	image, err := wrap(payload, *setName, api.MagicPlain)
	if err != nil {
		glog.Exitf("Failed to build boot image: %v", err)
	}

	if *compress {
		stream := lzss.Compress(image)
		if image, err = wrap(stream, *setName, api.MagicCompressed); err != nil {
			glog.Exitf("Failed to build compressed container: %v", err)
		}
	}

	if err := os.WriteFile(*outFile, image, 0644); err != nil {
		glog.Exitf("Failed to write %q: %v", *outFile, err)
	}
	glog.Infof("Wrote %s image (%s) to %q", kind(*compress), humanize.Bytes(uint64(len(image))), *outFile)
}

// wrap prepends a sealed boot image header to data.
func wrap(data []byte, name string, magic uint32) ([]byte, error) {
	img := api.BootImage{
		Magic:           magic,
		BootImageLength: uint32(api.HeaderSize + len(data)),
	}
	if len(name) > api.SetNameSize {
		return nil, fmt.Errorf("set name %q longer than %d bytes", name, api.SetNameSize)
	}
	copy(img.SetName[:], name)
	img.HeaderCRC = img.CalculateCRC()

	hdr, err := img.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(hdr, data...), nil
}

func kind(compressed bool) string {
	if compressed {
		return "compressed"
	}
	return "plain"
}
