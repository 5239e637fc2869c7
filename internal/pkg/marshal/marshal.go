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

// Package marshal implements the three buffer conventions used across the
// NVML boundary: NUL-terminated text in a fixed buffer, size-negotiated
// arrays, and fixed binary payloads with a separate used length.
package marshal

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

var (
	ErrNoTerminator   = errors.New("no NUL terminator within buffer capacity")
	ErrInvalidText    = errors.New("buffer does not hold valid UTF-8 text")
	ErrLengthOverflow = errors.New("reported length exceeds buffer capacity")
)

// CString decodes the text before the first NUL byte of buf.
func CString(buf []byte) (string, error) {
	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		return "", ErrNoTerminator
	}
	if !utf8.Valid(buf[:end]) {
		return "", ErrInvalidText
	}
	return string(buf[:end]), nil
}

// Payload returns the leading used bytes of buf.
func Payload(buf []byte, used uint32) ([]byte, error) {
	if uint64(used) > uint64(len(buf)) {
		return nil, ErrLengthOverflow
	}
	return buf[:used], nil
}

// Negotiate runs the two-step size negotiation. query is called with a zero
// count and must report the element count; alloc provides exactly that many
// elements and fill is called once with them. The returned status is the
// first native status that ended the exchange, or symtab.Success. An
// InsufficientSize from fill is returned as is.
func Negotiate[T any](
	query func(count *uint32) int32,
	alloc func(n uint32) []T,
	fill func(count *uint32, items []T) int32,
) ([]T, int32) {
	var count uint32
	ret := query(&count)
	if ret != symtab.Success && ret != symtab.ErrorInsufficientSize {
		return nil, ret
	}
	if count == 0 {
		return []T{}, symtab.Success
	}

	items := alloc(count)
	n := uint32(len(items))
	if ret := fill(&n, items); ret != symtab.Success {
		return nil, ret
	}
	if n > uint32(len(items)) {
		return nil, symtab.ErrorInsufficientSize
	}

	return items[:n], symtab.Success
}
