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

package marshal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

func TestCString(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		want    string
		wantErr error
	}{
		{
			name: "When the text is shorter than the buffer",
			buf:  append([]byte("GRID A100-4C\x00"), make([]byte, 51)...),
			want: "GRID A100-4C",
		},
		{
			name: "When the terminator is the last byte",
			buf:  []byte(strings.Repeat("x", 63) + "\x00"),
			want: strings.Repeat("x", 63),
		},
		{
			name: "When the buffer starts with the terminator",
			buf:  make([]byte, 64),
			want: "",
		},
		{
			name: "When bytes after the terminator are garbage",
			buf:  []byte("Tesla\x00\xff\xfe\xfd"),
			want: "Tesla",
		},
		{
			name:    "When there is no terminator",
			buf:     []byte(strings.Repeat("x", 64)),
			wantErr: ErrNoTerminator,
		},
		{
			name:    "When the text is not valid UTF-8",
			buf:     []byte("GRID\xc3\x28\x00"),
			wantErr: ErrInvalidText,
		},
		{
			name:    "When the buffer is empty",
			buf:     []byte{},
			wantErr: ErrNoTerminator,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CString(tc.buf)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, len(got), len(tc.buf)-1)
			assert.NotContains(t, got, "\x00")
		})
	}
}

func TestCStringLengthBound(t *testing.T) {
	for capacity := 1; capacity <= 128; capacity++ {
		for fill := 0; fill < capacity; fill++ {
			buf := make([]byte, capacity)
			copy(buf, strings.Repeat("a", fill))
			got, err := CString(buf)
			require.NoError(t, err)
			assert.Len(t, got, fill)
			assert.LessOrEqual(t, len(got), capacity-1)
		}
	}
}

func TestPayload(t *testing.T) {
	buf := []byte{1, 2, 3, 4}

	got, err := Payload(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, got)

	got, err = Payload(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, buf, got)

	got, err = Payload(buf, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Payload(buf, 5)
	assert.ErrorIs(t, err, ErrLengthOverflow)
}

func TestNegotiate(t *testing.T) {
	ids := []uint32{11, 12, 13}

	tests := []struct {
		name       string
		query      func(count *uint32) int32
		fill       func(count *uint32, items []uint32) int32
		want       []uint32
		wantStatus int32
		wantAllocs []uint32
	}{
		{
			name: "When the query reports InsufficientSize with the count",
			query: func(count *uint32) int32 {
				*count = uint32(len(ids))
				return symtab.ErrorInsufficientSize
			},
			fill: func(count *uint32, items []uint32) int32 {
				*count = uint32(copy(items, ids))
				return symtab.Success
			},
			want:       ids,
			wantStatus: symtab.Success,
			wantAllocs: []uint32{3},
		},
		{
			name: "When the query succeeds with the count",
			query: func(count *uint32) int32 {
				*count = 2
				return symtab.Success
			},
			fill: func(count *uint32, items []uint32) int32 {
				*count = uint32(copy(items, ids[:2]))
				return symtab.Success
			},
			want:       ids[:2],
			wantStatus: symtab.Success,
			wantAllocs: []uint32{2},
		},
		{
			name: "When there is nothing to enumerate",
			query: func(count *uint32) int32 {
				*count = 0
				return symtab.Success
			},
			fill: func(count *uint32, items []uint32) int32 {
				panic("fill must not be called")
			},
			want:       []uint32{},
			wantStatus: symtab.Success,
		},
		{
			name: "When the count grows between query and fill",
			query: func(count *uint32) int32 {
				*count = 2
				return symtab.ErrorInsufficientSize
			},
			fill: func(count *uint32, items []uint32) int32 {
				*count = 3
				return symtab.ErrorInsufficientSize
			},
			wantStatus: symtab.ErrorInsufficientSize,
			wantAllocs: []uint32{2},
		},
		{
			name: "When the fill reports fewer elements",
			query: func(count *uint32) int32 {
				*count = 3
				return symtab.ErrorInsufficientSize
			},
			fill: func(count *uint32, items []uint32) int32 {
				*count = uint32(copy(items, ids[:1]))
				return symtab.Success
			},
			want:       ids[:1],
			wantStatus: symtab.Success,
			wantAllocs: []uint32{3},
		},
		{
			name: "When the query fails",
			query: func(count *uint32) int32 {
				return symtab.ErrorNotSupported
			},
			fill: func(count *uint32, items []uint32) int32 {
				panic("fill must not be called")
			},
			wantStatus: symtab.ErrorNotSupported,
		},
		{
			name: "When the fill claims more elements than allocated",
			query: func(count *uint32) int32 {
				*count = 1
				return symtab.ErrorInsufficientSize
			},
			fill: func(count *uint32, items []uint32) int32 {
				*count = 5
				return symtab.Success
			},
			wantStatus: symtab.ErrorInsufficientSize,
			wantAllocs: []uint32{1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var allocs []uint32
			alloc := func(n uint32) []uint32 {
				allocs = append(allocs, n)
				return make([]uint32, n)
			}

			got, status := Negotiate(tc.query, alloc, tc.fill)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantAllocs, allocs)
			if tc.wantStatus == symtab.Success {
				assert.Equal(t, tc.want, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}
