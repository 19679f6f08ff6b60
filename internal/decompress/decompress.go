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

// Package decompress expands compressed boot image containers.
//
// A compressed container is a boot image header carrying the compressed
// magic, followed by an LZSS stream of the full plain image. The container
// header itself is never CRC-checked; all integrity checking happens on the
// expanded result.
package decompress

import (
	"github.com/blacktop/lzss"

	"github.com/riscv-fw/bootcore/api"
)

// Image expands the payload of the compressed container src into dst and
// returns the number of bytes written. A return of 0 means total failure:
// there is no such thing as a zero-length-but-valid image.
func Image(src, dst []byte) int {
	if len(src) <= api.HeaderSize {
		return 0
	}
	out := lzss.Decompress(src[api.HeaderSize:])
	if len(out) == 0 || len(out) > len(dst) {
		return 0
	}
	return copy(dst, out)
}
