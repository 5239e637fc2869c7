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

// Package prerequisites verifies the host before the NVML library is loaded.
package prerequisites

type rule interface {
	Validate() error
}

// Validate runs every prerequisite for loading library and returns the first
// failure.
func Validate(library string) error {
	rules := []rule{
		nvmlLibExistsRule{library: library},
	}

	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	return nil
}
