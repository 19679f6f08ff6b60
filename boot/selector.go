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

package boot

import (
	"errors"

	"github.com/golang/glog"
	"github.com/riscv-fw/bootcore/devices"
)

// Selector holds the active image source. It defaults from configuration and
// may be reassigned exactly once, before the boot sequence first uses it. It
// is not safe for concurrent use; the pipeline runs on the boot hart alone.
type Selector struct {
	src        devices.ImageSource
	reselected bool
	used       bool
}

// NewSelector returns a selector with the configured default source.
func NewSelector(def devices.ImageSource) *Selector {
	return &Selector{src: def}
}

// Select replaces the active source. It fails if the source was already
// replaced once or has already been handed to a pipeline.
func (s *Selector) Select(src devices.ImageSource) error {
	if s.used {
		return errors.New("boot source already in use")
	}
	if s.reselected {
		return errors.New("boot source already reassigned once")
	}
	glog.Infof("Selecting %T as boot source ...", src)
	s.src = src
	s.reselected = true
	return nil
}

// Source returns the active source and pins the selection.
func (s *Selector) Source() devices.ImageSource {
	s.used = true
	return s.src
}
