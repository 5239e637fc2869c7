/*
 * Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package capabilities checks Linux capabilities of the current process.
// NVML device control operations (power limits, ECC mode, application
// clocks) need CAP_SYS_ADMIN or root.
package capabilities

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	// CAP_SYS_ADMIN is required for NVML device control operations
	CAP_SYS_ADMIN = 21
)

var procSelfStatus = "/proc/self/status"

// effectiveMask reads the CapEff mask of the current process.
func effectiveMask() (uint64, error) {
	data, err := os.ReadFile(procSelfStatus)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", procSelfStatus, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "CapEff:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		capMask, err := strconv.ParseUint(fields[1], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse capability mask: %w", err)
		}
		return capMask, nil
	}

	return 0, fmt.Errorf("could not find CapEff in %s", procSelfStatus)
}

// HasCapability checks if the current process has the specified Linux capability.
func HasCapability(cap int) (bool, error) {
	if cap < 0 || cap > 63 {
		return false, fmt.Errorf("invalid capability number: %d (must be 0-63)", cap)
	}

	capMask, err := effectiveMask()
	if err != nil {
		return false, err
	}

	// #nosec G115 -- cap range validated above
	return (capMask & (1 << uint(cap))) != 0, nil
}

// CheckSysAdmin checks if the process has CAP_SYS_ADMIN capability.
// Returns true if the capability is present, false otherwise.
func CheckSysAdmin() bool {
	has, err := HasCapability(CAP_SYS_ADMIN)
	if err != nil {
		slog.Warn("Failed to check for CAP_SYS_ADMIN capability",
			slog.String("error", err.Error()))
		return false
	}
	return has
}

// WarnIfMissingControlCapabilities logs a hint when a device control
// operation was refused and the process lacks CAP_SYS_ADMIN.
func WarnIfMissingControlCapabilities(logger *slog.Logger, operation string) {
	if CheckSysAdmin() {
		return
	}

	logger.Warn("NVML refused a device control operation. Run as root or add CAP_SYS_ADMIN to change device settings",
		slog.String("operation", operation),
		slog.Int("euid", os.Geteuid()))
}
