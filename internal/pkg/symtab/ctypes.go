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

// The types below mirror the memory layout of the nvml.h structs they are
// named after. Field order and sizes must not change.

// PciInfo mirrors nvmlPciInfo_t (v3).
type PciInfo struct {
	BusIDLegacy    [DevicePciBusIDBufferV2Size]byte
	Domain         uint32
	Bus            uint32
	Device         uint32
	PciDeviceID    uint32
	PciSubSystemID uint32
	BusID          [DevicePciBusIDBufferSize]byte
}

// Memory mirrors nvmlMemory_t.
type Memory struct {
	Total uint64
	Free  uint64
	Used  uint64
}

// Utilization mirrors nvmlUtilization_t.
type Utilization struct {
	Gpu    uint32
	Memory uint32
}

// FieldValue mirrors nvmlFieldValue_t. Value holds the nvmlValue_t union.
type FieldValue struct {
	FieldID     uint32
	ScopeID     uint32
	Timestamp   int64
	LatencyUsec int64
	ValueType   uint32
	NvmlReturn  int32
	Value       [8]byte
}

// ConfComputeSystemCaps mirrors nvmlConfComputeSystemCaps_t.
type ConfComputeSystemCaps struct {
	CpuCaps  uint32
	GpusCaps uint32
}

// ConfComputeGpuCertificate mirrors nvmlConfComputeGpuCertificate_t.
type ConfComputeGpuCertificate struct {
	CertChainSize            uint32
	AttestationCertChainSize uint32
	CertChain                [GpuCertChainSize]byte
	AttestationCertChain     [GpuAttestationCertChainSize]byte
}

// ConfComputeGpuAttestationReport mirrors nvmlConfComputeGpuAttestationReport_t.
// Nonce is an input filled by the caller.
type ConfComputeGpuAttestationReport struct {
	IsCecAttestationReportPresent uint32
	AttestationReportSize         uint32
	CecAttestationReportSize      uint32
	Nonce                         [CcGpuAttestationNonceSize]byte
	AttestationReport             [CcGpuAttestationReportSize]byte
	CecAttestationReport          [CcGpuCecAttestationReportSize]byte
}
