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
	"fmt"
	"strconv"

	osinterface "github.com/NVIDIA/nvml-safe/internal/pkg/os"
)

var os osinterface.OS = osinterface.RealOS{}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		LibraryPath:             DefaultLibraryPath,
		LoadFlags:               DefaultLoadFlags,
		SizeNegotiationAttempts: 1,
	}
}

// LoadFromEnv overlays the NVML_* environment variables onto c. Unset or
// empty variables leave the current value untouched.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv(EnvLibraryPath); v != "" {
		c.LibraryPath = v
	}

	if v := os.Getenv(EnvInitFlags); v != "" {
		flags, err := strconv.ParseUint(v, 0, 32)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvInitFlags, v, err)
		}
		c.InitFlags = uint32(flags)
	}

	if v := os.Getenv(EnvSizeNegotiationAttempts); v != "" {
		attempts, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvSizeNegotiationAttempts, v, err)
		}
		if attempts == 0 {
			return fmt.Errorf("invalid %s value %q: must be at least 1", EnvSizeNegotiationAttempts, v)
		}
		c.SizeNegotiationAttempts = uint(attempts)
	}

	if v := os.Getenv(EnvSkipPrerequisites); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvSkipPrerequisites, v, err)
		}
		c.SkipPrerequisites = skip
	}

	return nil
}
