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
package deviceinfo

import (
	"github.com/google/uuid"

	"github.com/NVIDIA/nvml-safe/pkg/nvml"
)

type Provider interface {
	GPUCount() uint
	GPUs() []GPUInfo
	GPU(i uint) GPUInfo
	GOpts() DeviceOptions
	IsGPUWatched(index uint) bool
}

// DeviceOptions selects the GPUs of interest. With Flex every GPU present
// is accepted. Otherwise MajorRange lists NVML indices, where a leading -1
// selects all of them.
type DeviceOptions struct {
	Flex       bool
	MajorRange []int
}

type GPUInfo struct {
	Device            nvml.Device
	Index             uint
	Name              string
	UUID              string
	ParsedUUID        uuid.UUID
	PCI               nvml.PciInfo
	ComputeCapability nvml.CudaComputeCapability
	// PowerLimits is nil when the device does not report power management.
	PowerLimits       *nvml.PowerManagementConstraints
	// Ecc is nil when the device has no ECC support.
	Ecc               *nvml.EccModeState
	CPUAffinity       []uint
	VgpuTypes         []VgpuTypeInfo
}

type VgpuTypeInfo struct {
	Type            nvml.VgpuType
	Name            string
	Class           string
	FramebufferSize uint64
	MaxInstances    uint32
}
