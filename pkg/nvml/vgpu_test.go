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

func TestVgpuTypes(t *testing.T) {
	f := fakenvml.New()
	d := mustDevice(t, mustOpenFake(t, f), 0)

	supported, err := d.VgpuSupportedTypes()
	require.NoError(t, err)
	require.Len(t, supported, 2)
	assert.Equal(t, uint32(11), supported[0].ID())
	assert.Equal(t, d, supported[0].Device())
	assert.Equal(t, NewVgpuType(d, 12), supported[1])

	creatable, err := d.VgpuCreatableTypes()
	require.NoError(t, err)
	assert.Equal(t, []VgpuType{NewVgpuType(d, 12)}, creatable)

	f.Update(func() {
		f.GPUs[0].CreatableVgpus = nil
	})
	creatable, err = d.VgpuCreatableTypes()
	require.NoError(t, err)
	assert.NotNil(t, creatable)
	assert.Empty(t, creatable)
}

func TestVgpuTypeAccessors(t *testing.T) {
	d := mustDevice(t, mustOpenFake(t, fakenvml.New()), 0)
	v := NewVgpuType(d, 12)

	class, err := v.ClassName()
	require.NoError(t, err)
	assert.Equal(t, "Quadro", class)

	name, err := v.Name()
	require.NoError(t, err)
	assert.Equal(t, "GRID A100-8Q", name)

	license, err := v.License()
	require.NoError(t, err)
	assert.Equal(t, "Quadro-Virtual-DWS,5.0", license)

	p2p, err := v.Capabilities(VgpuCapNvlinkP2P)
	require.NoError(t, err)
	assert.False(t, p2p)

	fb, err := v.FramebufferSize()
	require.NoError(t, err)
	assert.Equal(t, uint64(8<<30), fb)

	fps, err := v.FrameRateLimit()
	require.NoError(t, err)
	assert.Equal(t, uint32(60), fps)

	profile, err := v.InstanceProfileID()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xffffffff), profile)

	instances, err := v.MaxInstances()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), instances)

	perVM, err := v.MaxInstancesPerVM()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), perVM)

	heads, err := v.NumDisplayHeads()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), heads)

	x, y, err := v.Resolution(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(5120), x)
	assert.Equal(t, uint32(2880), y)

	_, _, err = v.Resolution(9)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestVgpuDeviceIDPassThrough(t *testing.T) {
	d := mustDevice(t, mustOpenFake(t, fakenvml.New()), 0)

	deviceID, subsystemID, err := NewVgpuType(d, 11).DeviceID()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1234), deviceID)
	assert.Equal(t, uint64(0x5678), subsystemID)
}

func TestStaleVgpuType(t *testing.T) {
	f := fakenvml.New()
	d := mustDevice(t, mustOpenFake(t, f), 0)
	v := NewVgpuType(d, 11)

	_, err := v.Name()
	require.NoError(t, err)

	f.RemoveVgpuType(11)

	_, err = v.Name()
	assert.ErrorIs(t, err, &Error{Kind: KindInvalidArgument, Symbol: symtab.VgpuTypeGetName})
	_, err = v.MaxInstances()
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestVgpuMissingSymbol(t *testing.T) {
	f := fakenvml.New()
	f.Remove(symtab.VgpuTypeGetLicense)
	d := mustDevice(t, mustOpenFake(t, f), 0)

	_, err := NewVgpuType(d, 11).License()
	assert.ErrorIs(t, err, ErrFunctionNotFound)
	assert.Zero(t, f.Calls(symtab.VgpuTypeGetLicense))
}
