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

package nvml

import (
	"errors"

	"github.com/avast/retry-go/v4"

	"github.com/NVIDIA/nvml-safe/internal/pkg/marshal"
)

// allocate returns a fresh buffer of n elements. Buffers are never shared
// between calls.
func allocate[T any](l *Library, n uint32) []T {
	if l.allocHook != nil {
		l.allocHook(int(n))
	}
	return make([]T, n)
}

// text runs fn over a zeroed buffer of the given capacity and decodes the
// NUL-terminated result.
func (l *Library) text(symbol string, capacity uint32, fn func(buf []byte) int32) (string, error) {
	buf := allocate[byte](l, capacity)
	if err := l.status(symbol, fn(buf)); err != nil {
		return "", err
	}

	s, err := marshal.CString(buf)
	if err != nil {
		return "", encodingError(symbol, err)
	}
	return s, nil
}

// negotiate enumerates a variable number of elements: query with a zero
// count, allocate exactly what was reported, fill once. An InsufficientSize
// from the fill step is returned to the caller unless the library was
// opened with more than one size negotiation attempt.
func negotiate[T any](
	l *Library,
	symbol string,
	present bool,
	query func(count *uint32) int32,
	fill func(count *uint32, items []T) int32,
) ([]T, error) {
	attempt := func() ([]T, error) {
		return call(l, symbol, present, func() ([]T, error) {
			items, ret := marshal.Negotiate(query, func(n uint32) []T { return allocate[T](l, n) }, fill)
			if err := l.status(symbol, ret); err != nil {
				return nil, err
			}
			return items, nil
		})
	}

	if l == nil || l.sizeAttempts <= 1 {
		return attempt()
	}

	return retry.DoWithData(attempt,
		retry.Attempts(l.sizeAttempts),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(0),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrInsufficientSize)
		}),
	)
}
