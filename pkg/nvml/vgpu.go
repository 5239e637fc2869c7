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
	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

// VgpuType is a vGPU type id scoped to the device it was listed on. Ids are
// not validated: an id the driver no longer knows fails on use with an
// InvalidArgument error.
type VgpuType struct {
	device Device
	id     uint32
}

// NewVgpuType pairs a device with a vGPU type id. It does not call into
// NVML.
func NewVgpuType(device Device, id uint32) VgpuType {
	return VgpuType{device: device, id: id}
}

func (v VgpuType) ID() uint32 {
	return v.id
}

func (v VgpuType) Device() Device {
	return v.device
}

func (v VgpuType) lib() *Library {
	return v.device.lib
}

func (v VgpuType) uint32Query(symbol string, sym func(id uint32, v *uint32) int32) (uint32, error) {
	l := v.lib()
	return call(l, symbol, sym != nil, func() (uint32, error) {
		var out uint32
		ret := sym(v.id, &out)
		return out, l.status(symbol, ret)
	})
}

// sizedText reads a string from an entry point taking the buffer capacity
// by pointer.
func (v VgpuType) sizedText(symbol string, sym func(id uint32, buf *byte, size *uint32) int32) (string, error) {
	l := v.lib()
	return call(l, symbol, sym != nil, func() (string, error) {
		return l.text(symbol, symtab.DeviceNameBufferSize, func(buf []byte) int32 {
			size := uint32(len(buf))
			return sym(v.id, &buf[0], &size)
		})
	})
}

// ClassName returns the class of the type, such as "Quadro" or "NVS".
func (v VgpuType) ClassName() (string, error) {
	return v.sizedText(symtab.VgpuTypeGetClass, v.lib().table().VgpuTypeGetClass)
}

func (v VgpuType) Name() (string, error) {
	return v.sizedText(symtab.VgpuTypeGetName, v.lib().table().VgpuTypeGetName)
}

// License returns the license string required to run the type.
func (v VgpuType) License() (string, error) {
	l := v.lib()
	sym := l.table().VgpuTypeGetLicense
	return call(l, symtab.VgpuTypeGetLicense, sym != nil, func() (string, error) {
		return l.text(symtab.VgpuTypeGetLicense, symtab.GridLicenseBufferSize, func(buf []byte) int32 {
			return sym(v.id, &buf[0], uint32(len(buf)))
		})
	})
}

func (v VgpuType) Capabilities(capability VgpuCapability) (bool, error) {
	l := v.lib()
	sym := l.table().VgpuTypeGetCapabilities
	return call(l, symtab.VgpuTypeGetCapabilities, sym != nil, func() (bool, error) {
		var result uint32
		ret := sym(v.id, uint32(capability), &result)
		return result != 0, l.status(symtab.VgpuTypeGetCapabilities, ret)
	})
}

// DeviceID returns the PCI device and subsystem ids presented to the guest.
func (v VgpuType) DeviceID() (deviceID uint64, subsystemID uint64, err error) {
	l := v.lib()
	sym := l.table().VgpuTypeGetDeviceID
	ids, err := call(l, symtab.VgpuTypeGetDeviceID, sym != nil, func() ([2]uint64, error) {
		var ids [2]uint64
		ret := sym(v.id, &ids[0], &ids[1])
		return ids, l.status(symtab.VgpuTypeGetDeviceID, ret)
	})
	return ids[0], ids[1], err
}

// FrameRateLimit returns the frame rate cap, in frames per second.
func (v VgpuType) FrameRateLimit() (uint32, error) {
	return v.uint32Query(symtab.VgpuTypeGetFrameRateLimit, v.lib().table().VgpuTypeGetFrameRateLimit)
}

// FramebufferSize returns the framebuffer size in bytes.
func (v VgpuType) FramebufferSize() (uint64, error) {
	l := v.lib()
	sym := l.table().VgpuTypeGetFramebufferSize
	return call(l, symtab.VgpuTypeGetFramebufferSize, sym != nil, func() (uint64, error) {
		var size uint64
		ret := sym(v.id, &size)
		return size, l.status(symtab.VgpuTypeGetFramebufferSize, ret)
	})
}

// InstanceProfileID returns the GPU instance profile backing a MIG-backed
// type.
func (v VgpuType) InstanceProfileID() (uint32, error) {
	return v.uint32Query(symtab.VgpuTypeGetGpuInstanceProfileID, v.lib().table().VgpuTypeGetGpuInstanceProfileID)
}

// MaxInstances returns how many vGPUs of this type the owning device can
// host.
func (v VgpuType) MaxInstances() (uint32, error) {
	l := v.lib()
	sym := l.table().VgpuTypeGetMaxInstances
	return call(l, symtab.VgpuTypeGetMaxInstances, sym != nil, func() (uint32, error) {
		var count uint32
		ret := sym(v.device.handle, v.id, &count)
		return count, l.status(symtab.VgpuTypeGetMaxInstances, ret)
	})
}

func (v VgpuType) MaxInstancesPerVM() (uint32, error) {
	return v.uint32Query(symtab.VgpuTypeGetMaxInstancesPerVM, v.lib().table().VgpuTypeGetMaxInstancesPerVM)
}

func (v VgpuType) NumDisplayHeads() (uint32, error) {
	return v.uint32Query(symtab.VgpuTypeGetNumDisplayHeads, v.lib().table().VgpuTypeGetNumDisplayHeads)
}

// Resolution returns the maximum resolution of a display head.
func (v VgpuType) Resolution(displayHead uint32) (x uint32, y uint32, err error) {
	l := v.lib()
	sym := l.table().VgpuTypeGetResolution
	res, err := call(l, symtab.VgpuTypeGetResolution, sym != nil, func() ([2]uint32, error) {
		var res [2]uint32
		ret := sym(v.id, displayHead, &res[0], &res[1])
		return res, l.status(symtab.VgpuTypeGetResolution, ret)
	})
	return res[0], res[1], err
}
