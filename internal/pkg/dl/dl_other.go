/*
 * Copyright (c) 2024, NVIDIA CORPORATION.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

//go:build !linux

package dl

import (
	"runtime"

	"github.com/pkg/errors"
)

// Values match glibc so configuration stays portable.
const (
	RTLDLazy   = 0x00001
	RTLDNow    = 0x00002
	RTLDLocal  = 0x00000
	RTLDGlobal = 0x00100
)

// ErrUnsupportedPlatform is returned by Open on platforms without an NVML
// shared object.
var ErrUnsupportedPlatform = errors.New("dynamic loading of NVML is not supported on " + runtime.GOOS)

func Open(name string, _ int) (Library, error) {
	return nil, errors.Wrapf(ErrUnsupportedPlatform, "error opening %s", name)
}
