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

package decompress_test

import (
	"bytes"
	"testing"

	"github.com/blacktop/lzss"

	"github.com/riscv-fw/bootcore/api"
	"github.com/riscv-fw/bootcore/internal/decompress"
)

// buildContainer wraps an LZSS stream of plain in a compressed-magic header.
func buildContainer(t *testing.T, plain []byte) []byte {
	t.Helper()
	stream := lzss.Compress(plain)

	img := api.BootImage{
		Magic:           api.MagicCompressed,
		BootImageLength: uint32(api.HeaderSize + len(stream)),
	}
	copy(img.SetName[:], "container")
	b, err := img.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	return append(b, stream...)
}

func TestImage(t *testing.T) {
	plain := bytes.Repeat([]byte("boot payload "), 200)
	container := buildContainer(t, plain)

	dst := make([]byte, 2*len(plain))
	n := decompress.Image(container, dst)
	if n != len(plain) {
		t.Fatalf("Image() = %d bytes, want %d", n, len(plain))
	}
	if !bytes.Equal(dst[:n], plain) {
		t.Fatal("decompressed bytes differ from the original payload")
	}
}

func TestImageFailures(t *testing.T) {
	plain := bytes.Repeat([]byte("boot payload "), 200)
	for _, test := range []struct {
		desc string
		src  []byte
		dst  []byte
	}{
		{desc: "empty source", src: nil, dst: make([]byte, 4096)},
		{desc: "header only", src: make([]byte, api.HeaderSize), dst: make([]byte, 4096)},
		{desc: "output exceeds target window", src: buildContainer(t, plain), dst: make([]byte, 16)},
	} {
		t.Run(test.desc, func(t *testing.T) {
			if n := decompress.Image(test.src, test.dst); n != 0 {
				t.Fatalf("Image() = %d, want 0", n)
			}
		})
	}
}
