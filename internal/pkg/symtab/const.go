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

package symtab

import (
	gonvml "github.com/NVIDIA/go-nvml/pkg/nvml"
)

// Return codes of nvmlReturn_t.
const (
	Success                      = int32(gonvml.SUCCESS)
	ErrorUninitialized           = int32(gonvml.ERROR_UNINITIALIZED)
	ErrorInvalidArgument         = int32(gonvml.ERROR_INVALID_ARGUMENT)
	ErrorNotSupported            = int32(gonvml.ERROR_NOT_SUPPORTED)
	ErrorNoPermission            = int32(gonvml.ERROR_NO_PERMISSION)
	ErrorAlreadyInitialized      = int32(gonvml.ERROR_ALREADY_INITIALIZED)
	ErrorNotFound                = int32(gonvml.ERROR_NOT_FOUND)
	ErrorInsufficientSize        = int32(gonvml.ERROR_INSUFFICIENT_SIZE)
	ErrorInsufficientPower       = int32(gonvml.ERROR_INSUFFICIENT_POWER)
	ErrorDriverNotLoaded         = int32(gonvml.ERROR_DRIVER_NOT_LOADED)
	ErrorTimeout                 = int32(gonvml.ERROR_TIMEOUT)
	ErrorIrqIssue                = int32(gonvml.ERROR_IRQ_ISSUE)
	ErrorLibraryNotFound         = int32(gonvml.ERROR_LIBRARY_NOT_FOUND)
	ErrorFunctionNotFound        = int32(gonvml.ERROR_FUNCTION_NOT_FOUND)
	ErrorCorruptedInforom        = int32(gonvml.ERROR_CORRUPTED_INFOROM)
	ErrorGpuIsLost               = int32(gonvml.ERROR_GPU_IS_LOST)
	ErrorResetRequired           = int32(gonvml.ERROR_RESET_REQUIRED)
	ErrorOperatingSystem         = int32(gonvml.ERROR_OPERATING_SYSTEM)
	ErrorLibRmVersionMismatch    = int32(gonvml.ERROR_LIB_RM_VERSION_MISMATCH)
	ErrorInUse                   = int32(gonvml.ERROR_IN_USE)
	ErrorMemory                  = int32(gonvml.ERROR_MEMORY)
	ErrorNoData                  = int32(gonvml.ERROR_NO_DATA)
	ErrorVgpuEccNotSupported     = int32(gonvml.ERROR_VGPU_ECC_NOT_SUPPORTED)
	ErrorInsufficientResources   = int32(gonvml.ERROR_INSUFFICIENT_RESOURCES)
	ErrorFreqNotSupported        = int32(gonvml.ERROR_FREQ_NOT_SUPPORTED)
	ErrorArgumentVersionMismatch = int32(gonvml.ERROR_ARGUMENT_VERSION_MISMATCH)
	ErrorDeprecated              = int32(gonvml.ERROR_DEPRECATED)
	ErrorUnknown                 = int32(gonvml.ERROR_UNKNOWN)
)

// Return codes added to nvml.h after the go-nvml snapshot pinned in go.mod.
const (
	ErrorNotReady     int32 = 27
	ErrorGpuNotFound  int32 = 28
	ErrorInvalidState int32 = 29
)

// Fixed buffer capacities, in bytes, including the terminating NUL for
// text buffers.
const (
	DeviceNameBufferSize          = gonvml.DEVICE_NAME_BUFFER_SIZE
	DeviceNameV2BufferSize        = gonvml.DEVICE_NAME_V2_BUFFER_SIZE
	DeviceUUIDV2BufferSize        = gonvml.DEVICE_UUID_V2_BUFFER_SIZE
	DeviceSerialBufferSize        = gonvml.DEVICE_SERIAL_BUFFER_SIZE
	DevicePciBusIDBufferSize      = gonvml.DEVICE_PCI_BUS_ID_BUFFER_SIZE
	DevicePciBusIDBufferV2Size    = gonvml.DEVICE_PCI_BUS_ID_BUFFER_V2_SIZE
	SystemDriverVersionBufferSize = gonvml.SYSTEM_DRIVER_VERSION_BUFFER_SIZE
	SystemNVMLVersionBufferSize   = gonvml.SYSTEM_NVML_VERSION_BUFFER_SIZE
	GridLicenseBufferSize         = gonvml.GRID_LICENSE_BUFFER_SIZE
)

// Confidential compute payload capacities from nvml.h.
const (
	GpuCertChainSize              = 0x1000
	GpuAttestationCertChainSize   = 0x1400
	CcGpuCecAttestationReportSize = 0x1000
	CcGpuAttestationReportSize    = 0x2000
	CcGpuAttestationNonceSize     = 0x20
)
