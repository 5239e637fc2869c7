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
	gonvml "github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/bits-and-blooms/bitset"
)

type ClockType uint32

const (
	ClockGraphics = ClockType(gonvml.CLOCK_GRAPHICS)
	ClockSM       = ClockType(gonvml.CLOCK_SM)
	ClockMem      = ClockType(gonvml.CLOCK_MEM)
	ClockVideo    = ClockType(gonvml.CLOCK_VIDEO)
)

type TemperatureSensor uint32

const TemperatureGPU = TemperatureSensor(gonvml.TEMPERATURE_GPU)

type MemoryErrorType uint32

const (
	MemoryErrorCorrected   = MemoryErrorType(gonvml.MEMORY_ERROR_TYPE_CORRECTED)
	MemoryErrorUncorrected = MemoryErrorType(gonvml.MEMORY_ERROR_TYPE_UNCORRECTED)
)

type EccCounterType uint32

const (
	EccCounterVolatile  = EccCounterType(gonvml.VOLATILE_ECC)
	EccCounterAggregate = EccCounterType(gonvml.AGGREGATE_ECC)
)

type PageRetirementCause uint32

const (
	PageRetirementMultipleSingleBitEccErrors = PageRetirementCause(gonvml.PAGE_RETIREMENT_CAUSE_MULTIPLE_SINGLE_BIT_ECC_ERRORS)
	PageRetirementDoubleBitEccError          = PageRetirementCause(gonvml.PAGE_RETIREMENT_CAUSE_DOUBLE_BIT_ECC_ERROR)
)

type EncoderType uint32

const (
	EncoderH264 = EncoderType(gonvml.ENCODER_QUERY_H264)
	EncoderHEVC = EncoderType(gonvml.ENCODER_QUERY_HEVC)
)

type GpuOperationMode uint32

const (
	GpuOperationModeAllOn   = GpuOperationMode(gonvml.GOM_ALL_ON)
	GpuOperationModeCompute = GpuOperationMode(gonvml.GOM_COMPUTE)
	GpuOperationModeLowDP   = GpuOperationMode(gonvml.GOM_LOW_DP)
)

// nvmlEnableState_t
const (
	featureDisabled = uint32(gonvml.FEATURE_DISABLED)
	featureEnabled  = uint32(gonvml.FEATURE_ENABLED)
)

func enableState(enabled bool) uint32 {
	if enabled {
		return featureEnabled
	}
	return featureDisabled
}

// VgpuCapability selects a capability for VgpuType.Capabilities.
type VgpuCapability uint32

const (
	VgpuCapNvlinkP2P VgpuCapability = iota
	VgpuCapGpuDirect
	VgpuCapMultiVgpuExclusive
	VgpuCapExclusiveType
	VgpuCapExclusiveSize
)

// ValueType identifies the member of the value union in a FieldValue.
type ValueType uint32

const (
	ValueTypeDouble ValueType = iota
	ValueTypeUnsignedInt
	ValueTypeUnsignedLong
	ValueTypeUnsignedLongLong
	ValueTypeSignedLongLong
	ValueTypeSignedInt
)

type ConfidentialComputeCpuCaps uint32

const (
	ConfidentialComputeCpuCapsNone ConfidentialComputeCpuCaps = iota
	ConfidentialComputeCpuCapsAmdSev
	ConfidentialComputeCpuCapsIntelTdx
)

type ConfidentialComputeGpusCaps uint32

const (
	ConfidentialComputeGpusNotCapable ConfidentialComputeGpusCaps = iota
	ConfidentialComputeGpusCapable
)

// ClocksThrottleReasons is the bit mask returned by
// Device.CurrentClocksThrottleReasons.
type ClocksThrottleReasons uint64

const (
	ClocksThrottleReasonGpuIdle                   ClocksThrottleReasons = 0x0000000000000001
	ClocksThrottleReasonApplicationsClocksSetting ClocksThrottleReasons = 0x0000000000000002
	ClocksThrottleReasonSwPowerCap                ClocksThrottleReasons = 0x0000000000000004
	ClocksThrottleReasonHwSlowdown                ClocksThrottleReasons = 0x0000000000000008
	ClocksThrottleReasonSyncBoost                 ClocksThrottleReasons = 0x0000000000000010
	ClocksThrottleReasonSwThermalSlowdown         ClocksThrottleReasons = 0x0000000000000020
	ClocksThrottleReasonHwThermalSlowdown         ClocksThrottleReasons = 0x0000000000000040
	ClocksThrottleReasonHwPowerBrakeSlowdown      ClocksThrottleReasons = 0x0000000000000080
	ClocksThrottleReasonDisplayClockSetting       ClocksThrottleReasons = 0x0000000000000100
	ClocksThrottleReasonNone                      ClocksThrottleReasons = 0x0000000000000000
)

// Has reports whether every bit of reason is set.
func (r ClocksThrottleReasons) Has(reason ClocksThrottleReasons) bool {
	return r&reason == reason
}

// List splits the mask into its individual reasons, lowest bit first.
func (r ClocksThrottleReasons) List() []ClocksThrottleReasons {
	var reasons []ClocksThrottleReasons
	b := bitset.From([]uint64{uint64(r)})
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		reasons = append(reasons, ClocksThrottleReasons(uint64(1)<<i))
	}
	return reasons
}
