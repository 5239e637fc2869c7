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
	"encoding/binary"
	"math"

	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

// Capacities of the fixed confidential compute payloads, in bytes.
const (
	GpuCertChainSize              = symtab.GpuCertChainSize
	GpuAttestationCertChainSize   = symtab.GpuAttestationCertChainSize
	CcGpuAttestationReportSize    = symtab.CcGpuAttestationReportSize
	CcGpuCecAttestationReportSize = symtab.CcGpuCecAttestationReportSize
	CcGpuAttestationNonceSize     = symtab.CcGpuAttestationNonceSize
)

// AutoBoostClocksEnabledInfo is returned by Device.AutoBoostedClocksEnabled.
type AutoBoostClocksEnabledInfo struct {
	// IsEnabled reports whether auto boost is currently enabled.
	IsEnabled bool
	// IsEnabledDefault is the setting applied when no application has
	// requested a change.
	IsEnabledDefault bool
}

// UtilizationInfo is an encoder or decoder utilization sample.
type UtilizationInfo struct {
	// Utilization in percent.
	Utilization uint32
	// SamplingPeriod in microseconds.
	SamplingPeriod uint32
}

// EccModeState holds the current and pending ECC modes. The pending mode
// takes effect after the next reboot.
type EccModeState struct {
	CurrentlyEnabled bool
	PendingEnabled   bool
}

// OperationModeState holds the current and pending GPU operation modes.
type OperationModeState struct {
	Current GpuOperationMode
	Pending GpuOperationMode
}

// PowerManagementConstraints bounds the power management limit, in
// milliwatts.
type PowerManagementConstraints struct {
	MinLimit uint32
	MaxLimit uint32
}

// EncoderStats summarizes the active encoder sessions of a device.
type EncoderStats struct {
	SessionCount uint32
	// AverageFps is the trailing average frames per second across sessions.
	AverageFps uint32
	// AverageLatency in microseconds.
	AverageLatency uint32
}

type CudaComputeCapability struct {
	Major int32
	Minor int32
}

// CudaDriverVersion is the CUDA version supported by the installed driver.
type CudaDriverVersion struct {
	Major int32
	Minor int32
}

func cudaDriverVersion(v int32) CudaDriverVersion {
	return CudaDriverVersion{Major: v / 1000, Minor: (v % 1000) / 10}
}

// RetiredPage is a framebuffer page removed from use.
type RetiredPage struct {
	Address uint64
	// Timestamp of retirement, in seconds since the epoch.
	Timestamp uint64
}

type MemoryInfo struct {
	Total uint64
	Free  uint64
	Used  uint64
}

// Utilization holds GPU and memory utilization in percent over the last
// sample period.
type Utilization struct {
	Gpu    uint32
	Memory uint32
}

type PciInfo struct {
	// BusID in domain:bus:device.function form.
	BusID          string
	Domain         uint32
	Bus            uint32
	Device         uint32
	PciDeviceID    uint32
	PciSubSystemID uint32
}

// FieldId identifies a field for Device.FieldValuesFor. Values are the
// NVML_FI_* identifiers of nvml.h.
type FieldId uint32

// FieldValue is one result of Device.FieldValuesFor. Err is the status of
// this field alone.
type FieldValue struct {
	Field FieldId
	// ScopeID is the link or sub-unit the value belongs to, if any.
	ScopeID uint32
	// Timestamp in microseconds since the epoch.
	Timestamp int64
	// Latency in microseconds between the request and the value update.
	Latency   int64
	ValueType ValueType
	Value     [8]byte
	Err       error
}

func (v FieldValue) Float64() float64 {
	return math.Float64frombits(binary.NativeEndian.Uint64(v.Value[:]))
}

func (v FieldValue) Uint32() uint32 {
	return binary.NativeEndian.Uint32(v.Value[:4])
}

func (v FieldValue) Uint64() uint64 {
	return binary.NativeEndian.Uint64(v.Value[:])
}

func (v FieldValue) Int32() int32 {
	return int32(binary.NativeEndian.Uint32(v.Value[:4]))
}

func (v FieldValue) Int64() int64 {
	return int64(binary.NativeEndian.Uint64(v.Value[:]))
}

type ConfidentialComputeCapabilities struct {
	CpuCaps  ConfidentialComputeCpuCaps
	GpusCaps ConfidentialComputeGpusCaps
}

// ConfidentialComputeGpuCertificate holds the GPU certificate chains. Only
// the leading CertChainSize and AttestationCertChainSize bytes of the
// arrays are meaningful.
type ConfidentialComputeGpuCertificate struct {
	CertChainSize            uint32
	AttestationCertChainSize uint32
	CertChain                [GpuCertChainSize]byte
	AttestationCertChain     [GpuAttestationCertChainSize]byte
}

func (c *ConfidentialComputeGpuCertificate) CertChainBytes() []byte {
	return c.CertChain[:c.CertChainSize]
}

func (c *ConfidentialComputeGpuCertificate) AttestationCertChainBytes() []byte {
	return c.AttestationCertChain[:c.AttestationCertChainSize]
}

// ConfidentialComputeGpuAttestationReport holds the attestation report for
// the caller supplied Nonce and, when present, the CEC attestation report.
type ConfidentialComputeGpuAttestationReport struct {
	Nonce                         [CcGpuAttestationNonceSize]byte
	AttestationReportSize         uint32
	AttestationReport             [CcGpuAttestationReportSize]byte
	IsCecAttestationReportPresent bool
	CecAttestationReportSize      uint32
	CecAttestationReport          [CcGpuCecAttestationReportSize]byte
}

func (r *ConfidentialComputeGpuAttestationReport) AttestationReportBytes() []byte {
	return r.AttestationReport[:r.AttestationReportSize]
}

// CecAttestationReportBytes returns nil when no CEC report is present.
func (r *ConfidentialComputeGpuAttestationReport) CecAttestationReportBytes() []byte {
	if !r.IsCecAttestationReportPresent {
		return nil
	}
	return r.CecAttestationReport[:r.CecAttestationReportSize]
}
