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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/nvml-safe/internal/pkg/fakenvml"
	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

// growRetiredPages adds a page between the size query and the fill of the
// first negotiation.
func growRetiredPages(f *fakenvml.Fake) {
	f.OnCall(func(symbol string, n int) {
		if symbol != symtab.DeviceGetRetiredPages || n != 2 {
			return
		}
		f.Update(func() {
			g := f.GPUs[0]
			g.RetiredPages[0] = append(g.RetiredPages[0], fakenvml.RetiredPage{Address: 0x3000, Timestamp: 1700000200})
		})
	})
}

func TestNegotiationGrowth(t *testing.T) {
	tests := []struct {
		name      string
		attempts  uint
		wantErr   error
		wantPages int
		wantCalls int
	}{
		{
			name:      "When retries are disabled the growth is surfaced",
			attempts:  1,
			wantErr:   ErrInsufficientSize,
			wantCalls: 2,
		},
		{
			name:      "When a second attempt is allowed the list is read again",
			attempts:  3,
			wantPages: 3,
			wantCalls: 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := fakenvml.New()
			growRetiredPages(f)
			d := mustDevice(t, mustOpenFake(t, f, WithSizeNegotiationAttempts(tc.attempts)), 0)

			pages, err := d.RetiredPages(PageRetirementMultipleSingleBitEccErrors)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, pages)
			} else {
				require.NoError(t, err)
				assert.Len(t, pages, tc.wantPages)
			}
			assert.Equal(t, tc.wantCalls, f.Calls(symtab.DeviceGetRetiredPages))
		})
	}
}

func TestNegotiationAttemptsAreBounded(t *testing.T) {
	f := fakenvml.New()
	// Every fill finds one more page than the preceding query reported.
	f.OnCall(func(symbol string, n int) {
		if symbol != symtab.DeviceGetRetiredPages || n%2 != 0 {
			return
		}
		f.Update(func() {
			g := f.GPUs[0]
			g.RetiredPages[0] = append(g.RetiredPages[0], fakenvml.RetiredPage{Address: uint64(n) << 12})
		})
	})
	d := mustDevice(t, mustOpenFake(t, f, WithSizeNegotiationAttempts(4)), 0)

	_, err := d.RetiredPages(PageRetirementMultipleSingleBitEccErrors)
	assert.ErrorIs(t, err, ErrInsufficientSize)
	assert.Equal(t, 8, f.Calls(symtab.DeviceGetRetiredPages))
}

func TestNegotiationOnlyRetriesInsufficientSize(t *testing.T) {
	f := fakenvml.New()
	f.Fail(symtab.DeviceGetSupportedVgpus, symtab.ErrorGpuIsLost)
	d := mustDevice(t, mustOpenFake(t, f, WithSizeNegotiationAttempts(4)), 0)

	_, err := d.VgpuSupportedTypes()
	assert.ErrorIs(t, err, ErrGpuIsLost)
	assert.Equal(t, 1, f.Calls(symtab.DeviceGetSupportedVgpus))
}

func TestNegotiationAllocatesReportedCount(t *testing.T) {
	var sizes []int
	d := mustDevice(t, mustOpenFake(t, fakenvml.New(), withAllocHook(func(n int) {
		sizes = append(sizes, n)
	})), 0)

	_, err := d.VgpuSupportedTypes()
	require.NoError(t, err)
	assert.Equal(t, []int{2}, sizes)
}

func TestTextBufferIsSizedPerEntryPoint(t *testing.T) {
	var sizes []int
	l := mustOpenFake(t, fakenvml.New(), withAllocHook(func(n int) {
		sizes = append(sizes, n)
	}))
	d := mustDevice(t, l, 0)

	_, err := d.UUID()
	require.NoError(t, err)
	_, err = l.DriverVersion()
	require.NoError(t, err)
	_, err = NewVgpuType(d, 11).License()
	require.NoError(t, err)

	assert.Equal(t, []int{
		symtab.DeviceUUIDV2BufferSize,
		symtab.SystemDriverVersionBufferSize,
		symtab.GridLicenseBufferSize,
	}, sizes)
}
