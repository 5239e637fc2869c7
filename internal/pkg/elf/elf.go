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

// Package elf wraps debug/elf so the library architecture check can be
// faked in tests.
package elf

import (
	"debug/elf"
)

//go:generate go run -v go.uber.org/mock/mockgen  -destination=../../mocks/pkg/elf/mock_elf.go -package=elf -copyright_file=../../../hack/header.txt . ELF
type ELF interface {
	// Open parses the ELF header of the file at name. The caller closes it.
	Open(name string) (*elf.File, error)
}

var _ ELF = (*RealELF)(nil)

// RealELF reads files from disk.
type RealELF struct{}

func (r RealELF) Open(name string) (*elf.File, error) {
	return elf.Open(name)
}
