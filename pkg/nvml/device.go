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

	"github.com/bits-and-blooms/bitset"

	"github.com/NVIDIA/nvml-safe/internal/pkg/capabilities"
	"github.com/NVIDIA/nvml-safe/internal/pkg/marshal"
	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

var warnIfMissingControlCapabilities = capabilities.WarnIfMissingControlCapabilities

// Device is a GPU handle obtained from a Library. It stays usable as long
// as the Library is not shut down. The zero Device is not bound to a
// library and every accessor on it fails.
type Device struct {
	lib    *Library
	handle uintptr
}

// Library returns the library the device was obtained from.
func (d Device) Library() *Library {
	return d.lib
}

func (d Device) syms() *symtab.Table {
	return d.lib.table()
}

func (d Device) uint32Query(symbol string, sym func(device uintptr, v *uint32) int32) (uint32, error) {
	return call(d.lib, symbol, sym != nil, func() (uint32, error) {
		var v uint32
		ret := sym(d.handle, &v)
		return v, d.lib.status(symbol, ret)
	})
}

func (d Device) uint64Query(symbol string, sym func(device uintptr, v *uint64) int32) (uint64, error) {
	return call(d.lib, symbol, sym != nil, func() (uint64, error) {
		var v uint64
		ret := sym(d.handle, &v)
		return v, d.lib.status(symbol, ret)
	})
}

func (d Device) clockQuery(symbol string, sym func(device uintptr, clockType uint32, v *uint32) int32, clock ClockType) (uint32, error) {
	return call(d.lib, symbol, sym != nil, func() (uint32, error) {
		var mhz uint32
		ret := sym(d.handle, uint32(clock), &mhz)
		return mhz, d.lib.status(symbol, ret)
	})
}

func (d Device) textQuery(symbol string, capacity uint32, sym func(device uintptr, buf *byte, length uint32) int32) (string, error) {
	return call(d.lib, symbol, sym != nil, func() (string, error) {
		return d.lib.text(symbol, capacity, func(buf []byte) int32 {
			return sym(d.handle, &buf[0], uint32(len(buf)))
		})
	})
}

// control runs a device setter and logs a privilege hint when NVML refuses
// it.
func (d Device) control(symbol string, present bool, fn func() int32) error {
	err := d.lib.guard(symbol, present, func() error {
		return d.lib.status(symbol, fn())
	})
	if errors.Is(err, ErrInsufficientPermissions) {
		warnIfMissingControlCapabilities(d.lib.logger, symbol)
	}
	return err
}

func (d Device) Name() (string, error) {
	return d.textQuery(symtab.DeviceGetName, symtab.DeviceNameV2BufferSize, d.syms().DeviceGetName)
}

// UUID returns the GPU- prefixed UUID string.
func (d Device) UUID() (string, error) {
	return d.textQuery(symtab.DeviceGetUUID, symtab.DeviceUUIDV2BufferSize, d.syms().DeviceGetUUID)
}

func (d Device) Serial() (string, error) {
	return d.textQuery(symtab.DeviceGetSerial, symtab.DeviceSerialBufferSize, d.syms().DeviceGetSerial)
}

// Index returns the NVML index of the device, which may differ from the
// CUDA index.
func (d Device) Index() (uint32, error) {
	return d.uint32Query(symtab.DeviceGetIndex, d.syms().DeviceGetIndex)
}

func (d Device) PciInfo() (PciInfo, error) {
	sym := d.syms().DeviceGetPciInfo
	return call(d.lib, symtab.DeviceGetPciInfo, sym != nil, func() (PciInfo, error) {
		var pci symtab.PciInfo
		if err := d.lib.status(symtab.DeviceGetPciInfo, sym(d.handle, &pci)); err != nil {
			return PciInfo{}, err
		}

		busID, err := marshal.CString(pci.BusID[:])
		if err != nil {
			return PciInfo{}, encodingError(symtab.DeviceGetPciInfo, err)
		}
		return PciInfo{
			BusID:          busID,
			Domain:         pci.Domain,
			Bus:            pci.Bus,
			Device:         pci.Device,
			PciDeviceID:    pci.PciDeviceID,
			PciSubSystemID: pci.PciSubSystemID,
		}, nil
	})
}

func (d Device) MemoryInfo() (MemoryInfo, error) {
	sym := d.syms().DeviceGetMemoryInfo
	return call(d.lib, symtab.DeviceGetMemoryInfo, sym != nil, func() (MemoryInfo, error) {
		var mem symtab.Memory
		ret := sym(d.handle, &mem)
		return MemoryInfo{Total: mem.Total, Free: mem.Free, Used: mem.Used}, d.lib.status(symtab.DeviceGetMemoryInfo, ret)
	})
}

func (d Device) UtilizationRates() (Utilization, error) {
	sym := d.syms().DeviceGetUtilizationRates
	return call(d.lib, symtab.DeviceGetUtilizationRates, sym != nil, func() (Utilization, error) {
		var u symtab.Utilization
		ret := sym(d.handle, &u)
		return Utilization{Gpu: u.Gpu, Memory: u.Memory}, d.lib.status(symtab.DeviceGetUtilizationRates, ret)
	})
}

// ClockInfo returns the current clock in MHz.
func (d Device) ClockInfo(clock ClockType) (uint32, error) {
	return d.clockQuery(symtab.DeviceGetClockInfo, d.syms().DeviceGetClockInfo, clock)
}

// MaxClockInfo returns the maximum clock in MHz.
func (d Device) MaxClockInfo(clock ClockType) (uint32, error) {
	return d.clockQuery(symtab.DeviceGetMaxClockInfo, d.syms().DeviceGetMaxClockInfo, clock)
}

// ApplicationsClock returns the clock applications will run at, in MHz.
func (d Device) ApplicationsClock(clock ClockType) (uint32, error) {
	return d.clockQuery(symtab.DeviceGetApplicationsClock, d.syms().DeviceGetApplicationsClock, clock)
}

// SetApplicationsClocks sets the memory and graphics application clocks in
// MHz. Requires root or CAP_SYS_ADMIN.
func (d Device) SetApplicationsClocks(memClockMHz, graphicsClockMHz uint32) error {
	sym := d.syms().DeviceSetApplicationsClocks
	return d.control(symtab.DeviceSetApplicationsClocks, sym != nil, func() int32 {
		return sym(d.handle, memClockMHz, graphicsClockMHz)
	})
}

func (d Device) ResetApplicationsClocks() error {
	sym := d.syms().DeviceResetApplicationsClocks
	return d.control(symtab.DeviceResetApplicationsClocks, sym != nil, func() int32 {
		return sym(d.handle)
	})
}

func (d Device) AutoBoostedClocksEnabled() (AutoBoostClocksEnabledInfo, error) {
	sym := d.syms().DeviceGetAutoBoostedClocksEnabled
	return call(d.lib, symtab.DeviceGetAutoBoostedClocksEnabled, sym != nil, func() (AutoBoostClocksEnabledInfo, error) {
		var enabled, enabledDefault uint32
		ret := sym(d.handle, &enabled, &enabledDefault)
		return AutoBoostClocksEnabledInfo{
			IsEnabled:        enabled == featureEnabled,
			IsEnabledDefault: enabledDefault == featureEnabled,
		}, d.lib.status(symtab.DeviceGetAutoBoostedClocksEnabled, ret)
	})
}

func (d Device) CurrentClocksThrottleReasons() (ClocksThrottleReasons, error) {
	reasons, err := d.uint64Query(symtab.DeviceGetCurrentClocksThrottleReasons, d.syms().DeviceGetCurrentClocksThrottleReasons)
	return ClocksThrottleReasons(reasons), err
}

func (d Device) IsEccEnabled() (EccModeState, error) {
	sym := d.syms().DeviceGetEccMode
	return call(d.lib, symtab.DeviceGetEccMode, sym != nil, func() (EccModeState, error) {
		var current, pending uint32
		ret := sym(d.handle, &current, &pending)
		return EccModeState{
			CurrentlyEnabled: current == featureEnabled,
			PendingEnabled:   pending == featureEnabled,
		}, d.lib.status(symtab.DeviceGetEccMode, ret)
	})
}

// SetEccMode sets the pending ECC mode, applied after the next reboot.
// Requires root or CAP_SYS_ADMIN.
func (d Device) SetEccMode(enabled bool) error {
	sym := d.syms().DeviceSetEccMode
	return d.control(symtab.DeviceSetEccMode, sym != nil, func() int32 {
		return sym(d.handle, enableState(enabled))
	})
}

func (d Device) TotalEccErrors(errorType MemoryErrorType, counterType EccCounterType) (uint64, error) {
	sym := d.syms().DeviceGetTotalEccErrors
	return call(d.lib, symtab.DeviceGetTotalEccErrors, sym != nil, func() (uint64, error) {
		var count uint64
		ret := sym(d.handle, uint32(errorType), uint32(counterType), &count)
		return count, d.lib.status(symtab.DeviceGetTotalEccErrors, ret)
	})
}

// RetiredPages lists the pages retired for cause. If pages are retired
// between sizing and filling the list, an InsufficientSize error is
// returned.
func (d Device) RetiredPages(cause PageRetirementCause) ([]RetiredPage, error) {
	sym := d.syms().DeviceGetRetiredPages

	var timestamps []uint64
	addresses, err := negotiate(d.lib, symtab.DeviceGetRetiredPages, sym != nil,
		func(count *uint32) int32 {
			return sym(d.handle, uint32(cause), count, nil, nil)
		},
		func(count *uint32, addrs []uint64) int32 {
			timestamps = allocate[uint64](d.lib, uint32(len(addrs)))
			return sym(d.handle, uint32(cause), count, &addrs[0], &timestamps[0])
		})
	if err != nil {
		return nil, err
	}

	pages := make([]RetiredPage, len(addresses))
	for i, addr := range addresses {
		pages[i] = RetiredPage{Address: addr, Timestamp: timestamps[i]}
	}
	return pages, nil
}

func (d Device) PowerManagementLimitConstraints() (PowerManagementConstraints, error) {
	sym := d.syms().DeviceGetPowerManagementLimitConstraints
	return call(d.lib, symtab.DeviceGetPowerManagementLimitConstraints, sym != nil, func() (PowerManagementConstraints, error) {
		var c PowerManagementConstraints
		ret := sym(d.handle, &c.MinLimit, &c.MaxLimit)
		return c, d.lib.status(symtab.DeviceGetPowerManagementLimitConstraints, ret)
	})
}

// PowerManagementLimit returns the power limit in milliwatts.
func (d Device) PowerManagementLimit() (uint32, error) {
	return d.uint32Query(symtab.DeviceGetPowerManagementLimit, d.syms().DeviceGetPowerManagementLimit)
}

func (d Device) PowerManagementDefaultLimit() (uint32, error) {
	return d.uint32Query(symtab.DeviceGetPowerManagementDefaultLimit, d.syms().DeviceGetPowerManagementDefaultLimit)
}

// EnforcedPowerLimit returns the limit actually in effect, in milliwatts.
func (d Device) EnforcedPowerLimit() (uint32, error) {
	return d.uint32Query(symtab.DeviceGetEnforcedPowerLimit, d.syms().DeviceGetEnforcedPowerLimit)
}

// SetPowerManagementLimit sets the power limit in milliwatts. The value must
// lie within PowerManagementLimitConstraints. Requires root or
// CAP_SYS_ADMIN.
func (d Device) SetPowerManagementLimit(limit uint32) error {
	sym := d.syms().DeviceSetPowerManagementLimit
	return d.control(symtab.DeviceSetPowerManagementLimit, sym != nil, func() int32 {
		return sym(d.handle, limit)
	})
}

// PowerUsage returns the current draw in milliwatts.
func (d Device) PowerUsage() (uint32, error) {
	return d.uint32Query(symtab.DeviceGetPowerUsage, d.syms().DeviceGetPowerUsage)
}

// TotalEnergyConsumption returns the energy consumed since the driver was
// last reloaded, in millijoules.
func (d Device) TotalEnergyConsumption() (uint64, error) {
	return d.uint64Query(symtab.DeviceGetTotalEnergyConsumption, d.syms().DeviceGetTotalEnergyConsumption)
}

// Temperature returns the sensor reading in degrees Celsius.
func (d Device) Temperature(sensor TemperatureSensor) (uint32, error) {
	sym := d.syms().DeviceGetTemperature
	return call(d.lib, symtab.DeviceGetTemperature, sym != nil, func() (uint32, error) {
		var temp uint32
		ret := sym(d.handle, uint32(sensor), &temp)
		return temp, d.lib.status(symtab.DeviceGetTemperature, ret)
	})
}

func (d Device) utilizationQuery(symbol string, sym func(device uintptr, utilization, samplingPeriodUs *uint32) int32) (UtilizationInfo, error) {
	return call(d.lib, symbol, sym != nil, func() (UtilizationInfo, error) {
		var u UtilizationInfo
		ret := sym(d.handle, &u.Utilization, &u.SamplingPeriod)
		return u, d.lib.status(symbol, ret)
	})
}

func (d Device) EncoderUtilization() (UtilizationInfo, error) {
	return d.utilizationQuery(symtab.DeviceGetEncoderUtilization, d.syms().DeviceGetEncoderUtilization)
}

func (d Device) DecoderUtilization() (UtilizationInfo, error) {
	return d.utilizationQuery(symtab.DeviceGetDecoderUtilization, d.syms().DeviceGetDecoderUtilization)
}

func (d Device) EncoderStats() (EncoderStats, error) {
	sym := d.syms().DeviceGetEncoderStats
	return call(d.lib, symtab.DeviceGetEncoderStats, sym != nil, func() (EncoderStats, error) {
		var s EncoderStats
		ret := sym(d.handle, &s.SessionCount, &s.AverageFps, &s.AverageLatency)
		return s, d.lib.status(symtab.DeviceGetEncoderStats, ret)
	})
}

// EncoderCapacity returns the remaining encoder capacity for encoderType, in
// percent.
func (d Device) EncoderCapacity(encoderType EncoderType) (uint32, error) {
	sym := d.syms().DeviceGetEncoderCapacity
	return call(d.lib, symtab.DeviceGetEncoderCapacity, sym != nil, func() (uint32, error) {
		var capacity uint32
		ret := sym(d.handle, uint32(encoderType), &capacity)
		return capacity, d.lib.status(symtab.DeviceGetEncoderCapacity, ret)
	})
}

func (d Device) CudaComputeCapability() (CudaComputeCapability, error) {
	sym := d.syms().DeviceGetCudaComputeCapability
	return call(d.lib, symtab.DeviceGetCudaComputeCapability, sym != nil, func() (CudaComputeCapability, error) {
		var c CudaComputeCapability
		ret := sym(d.handle, &c.Major, &c.Minor)
		return c, d.lib.status(symtab.DeviceGetCudaComputeCapability, ret)
	})
}

func (d Device) GpuOperationMode() (OperationModeState, error) {
	sym := d.syms().DeviceGetGpuOperationMode
	return call(d.lib, symtab.DeviceGetGpuOperationMode, sym != nil, func() (OperationModeState, error) {
		var current, pending uint32
		ret := sym(d.handle, &current, &pending)
		return OperationModeState{
			Current: GpuOperationMode(current),
			Pending: GpuOperationMode(pending),
		}, d.lib.status(symtab.DeviceGetGpuOperationMode, ret)
	})
}

// CpuAffinity returns the set of CPUs close to the device, out of the first
// numCPUs CPUs of the system.
func (d Device) CpuAffinity(numCPUs uint) (*bitset.BitSet, error) {
	sym := d.syms().DeviceGetCpuAffinity
	return call(d.lib, symtab.DeviceGetCpuAffinity, sym != nil, func() (*bitset.BitSet, error) {
		words := uint32((numCPUs + 63) / 64)
		if words == 0 {
			words = 1
		}
		set := allocate[uint64](d.lib, words)
		if err := d.lib.status(symtab.DeviceGetCpuAffinity, sym(d.handle, words, &set[0])); err != nil {
			return nil, err
		}
		return bitset.From(set), nil
	})
}

// FieldValuesFor samples the given fields in one call. A field the device
// cannot report carries its own Err; the call itself still succeeds.
func (d Device) FieldValuesFor(fields []FieldId) ([]FieldValue, error) {
	sym := d.syms().DeviceGetFieldValues
	return call(d.lib, symtab.DeviceGetFieldValues, sym != nil, func() ([]FieldValue, error) {
		if len(fields) == 0 {
			return []FieldValue{}, nil
		}

		raw := allocate[symtab.FieldValue](d.lib, uint32(len(fields)))
		for i, f := range fields {
			raw[i].FieldID = uint32(f)
		}
		if err := d.lib.status(symtab.DeviceGetFieldValues, sym(d.handle, int32(len(raw)), &raw[0])); err != nil {
			return nil, err
		}

		values := make([]FieldValue, len(raw))
		for i, v := range raw {
			values[i] = FieldValue{
				Field:     FieldId(v.FieldID),
				ScopeID:   v.ScopeID,
				Timestamp: v.Timestamp,
				Latency:   v.LatencyUsec,
				ValueType: ValueType(v.ValueType),
				Value:     v.Value,
				Err:       statusError(symtab.DeviceGetFieldValues, v.NvmlReturn),
			}
		}
		return values, nil
	})
}

func (d Device) vgpuTypes(symbol string, sym func(device uintptr, count *uint32, ids *uint32) int32) ([]VgpuType, error) {
	ids, err := negotiate(d.lib, symbol, sym != nil,
		func(count *uint32) int32 {
			return sym(d.handle, count, nil)
		},
		func(count *uint32, ids []uint32) int32 {
			return sym(d.handle, count, &ids[0])
		})
	if err != nil {
		return nil, err
	}

	types := make([]VgpuType, len(ids))
	for i, id := range ids {
		types[i] = NewVgpuType(d, id)
	}
	return types, nil
}

// VgpuSupportedTypes lists the vGPU types the device supports.
func (d Device) VgpuSupportedTypes() ([]VgpuType, error) {
	return d.vgpuTypes(symtab.DeviceGetSupportedVgpus, d.syms().DeviceGetSupportedVgpus)
}

// VgpuCreatableTypes lists the vGPU types that can currently be created on
// the device, given the vGPUs already running on it.
func (d Device) VgpuCreatableTypes() ([]VgpuType, error) {
	return d.vgpuTypes(symtab.DeviceGetCreatableVgpus, d.syms().DeviceGetCreatableVgpus)
}
