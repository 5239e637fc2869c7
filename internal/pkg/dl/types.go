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

// Package dl loads shared objects at runtime and binds their exported C
// functions to typed Go function values.
package dl

import (
	"errors"
)

// ErrSymbolNotFound is returned when the shared object does not export the
// requested symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

//go:generate go run -v go.uber.org/mock/mockgen  -destination=../../mocks/pkg/dl/mock_library.go -package=dl -copyright_file=../../../hack/header.txt . Library

// Library is an opened shared object.
type Library interface {
	// Name returns the path or soname the library was opened with.
	Name() string
	// Lookup returns the address of the exported symbol.
	Lookup(symbol string) (uintptr, error)
	// Bind resolves symbol and stores a callable into fptr, which must be a
	// pointer to a func variable with a C compatible signature.
	Bind(fptr any, symbol string) error
	// Close unloads the library. Functions bound from it must not be called
	// afterwards.
	Close() error
}
