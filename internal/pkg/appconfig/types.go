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

package appconfig

import (
	"github.com/NVIDIA/nvml-safe/internal/pkg/dl"
)

const (
	DefaultLibraryPath = "libnvidia-ml.so.1"
	DefaultLoadFlags   = dl.RTLDNow | dl.RTLDGlobal
)

// Environment variables read by LoadFromEnv.
const (
	EnvLibraryPath             = "NVML_LIBRARY_PATH"
	EnvInitFlags               = "NVML_INIT_FLAGS"
	EnvSizeNegotiationAttempts = "NVML_SIZE_NEGOTIATION_ATTEMPTS"
	EnvSkipPrerequisites       = "NVML_SKIP_PREREQUISITES"
)

type Config struct {
	LibraryPath string // Soname or path passed to dlopen
	LoadFlags   int    // dlopen mode
	InitFlags   uint32 // Passed to nvmlInitWithFlags when non-zero
	// SizeNegotiationAttempts bounds how often a size-negotiated query is
	// run when the native side reports InsufficientSize. 1 disables retries.
	SizeNegotiationAttempts uint
	SkipPrerequisites       bool // Skip the ldconfig and ELF checks before dlopen
}
