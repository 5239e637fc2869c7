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

package prerequisites

import (
	"context"
	debugelf "debug/elf"
	"fmt"
	"log/slog"
	"strings"
)

const (
	procSelfExe   = "/proc/self/exe"
	ldconfig      = "ldconfig"
	ldconfigParam = "-p"
)

// nvmlLibExistsRule checks that the NVML shared object can be loaded by this
// process.
type nvmlLibExistsRule struct {
	library string
}

// Validate resolves the library, through the ldconfig cache for a bare soname
// or directly for a path, and checks that it matches the machine
// architecture of the running binary.
func (c nvmlLibExistsRule) Validate() error {
	libPath, err := c.locate()
	if err != nil {
		return err
	}

	selfMachine, err := c.readELF(procSelfExe)
	if err != nil {
		return err
	}

	libMachine, err := c.readELF(libPath)
	if err != nil {
		// When the driver was uninstalled, ldconfig -p may still list the
		// library while the file is gone.
		slog.Error(err.Error())
		return libNotFoundError(c.library)
	}

	if selfMachine != libMachine {
		return fmt.Errorf("the %s library architecture mismatch with the system; wanted: %s, received: %s",
			c.library, selfMachine, libMachine)
	}

	return nil
}

func (c nvmlLibExistsRule) locate() (string, error) {
	if strings.Contains(c.library, "/") {
		if _, err := os.Stat(c.library); err != nil {
			if os.IsNotExist(err) {
				return "", libNotFoundError(c.library)
			}
			return "", fmt.Errorf("could not stat %s: %w", c.library, err)
		}
		return c.library, nil
	}

	// On Ubuntu, ldconfig is a wrapper around ldconfig.real
	ldconfigPath := fmt.Sprintf("/sbin/%s.real", ldconfig)
	if _, err := os.Stat(ldconfigPath); err != nil {
		ldconfigPath = "/sbin/" + ldconfig
	}

	ctx, cancel := context.WithTimeout(context.Background(), ldconfigTimeout)
	defer cancel()

	// Get list of shared libraries. See: man ldconfig
	out, err := exec.CommandContext(ctx, ldconfigPath, ldconfigParam).Output()
	if err != nil {
		return "", fmt.Errorf("could not list the shared library cache with %s: %w", ldconfigPath, err)
	}

	for _, match := range rxLDCacheEntry.FindAllSubmatch(out, -1) {
		if strings.TrimSpace(string(match[1])) == c.library {
			return strings.TrimSpace(string(match[2])), nil
		}
	}

	return "", libNotFoundError(c.library)
}

func (c nvmlLibExistsRule) readELF(name string) (debugelf.Machine, error) {
	elfFile, err := elf.Open(name)
	if err != nil {
		return 0, fmt.Errorf("could not open %s: %v", name, err)
	}
	if err := elfFile.Close(); err != nil {
		slog.Warn(fmt.Sprintf("could not close ELF: %v", err))
	}

	return elfFile.Machine, nil
}
