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

package fakenvml

import (
	"bytes"
	"maps"
	"unsafe"

	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

// writeText copies text and a terminating NUL into the caller's buffer.
func writeText(buf *byte, length uint32, text string) int32 {
	if buf == nil || uint32(len(text)) >= length {
		return symtab.ErrorInsufficientSize
	}
	dst := unsafe.Slice(buf, length)
	n := copy(dst, text)
	dst[n] = 0
	return symtab.Success
}

func writeRaw(buf *byte, length uint32, raw []byte) int32 {
	if buf == nil || uint32(len(raw)) > length {
		return symtab.ErrorInsufficientSize
	}
	copy(unsafe.Slice(buf, length), raw)
	return symtab.Success
}

// writeIDs follows the size negotiation convention: with too small a count
// the required count is reported along with INSUFFICIENT_SIZE.
func writeIDs(count *uint32, out *uint32, ids []uint32) int32 {
	n := uint32(len(ids))
	if n == 0 {
		*count = 0
		return symtab.Success
	}
	if out == nil || *count < n {
		*count = n
		return symtab.ErrorInsufficientSize
	}
	copy(unsafe.Slice(out, *count), ids)
	*count = n
	return symtab.Success
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func lookup[K comparable, V any](m map[K]V, k K, out *V) int32 {
	v, ok := m[k]
	if !ok {
		return symtab.ErrorNotSupported
	}
	*out = v
	return symtab.Success
}

func boolState(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Table returns the entry points backed by f, without the symbols passed to
// Remove.
func (f *Fake) Table() *symtab.Table {
	t := &symtab.Table{}

	t.Init = func() int32 {
		return f.init(symtab.Init, 0)
	}
	t.InitWithFlags = func(flags uint32) int32 {
		return f.init(symtab.InitWithFlags, flags)
	}
	t.Shutdown = func() int32 {
		return f.system(symtab.Shutdown, func() int32 {
			f.initialized = false
			return symtab.Success
		})
	}

	t.SystemGetDriverVersion = func(version *byte, length uint32) int32 {
		return f.system(symtab.SystemGetDriverVersion, func() int32 {
			return writeText(version, length, f.DriverVersion)
		})
	}
	t.SystemGetNVMLVersion = func(version *byte, length uint32) int32 {
		return f.system(symtab.SystemGetNVMLVersion, func() int32 {
			return writeText(version, length, f.NVMLVersion)
		})
	}
	t.SystemGetCudaDriverVersion = func(version *int32) int32 {
		return f.system(symtab.SystemGetCudaDriverVersion, func() int32 {
			*version = f.CudaDriverVersion
			return symtab.Success
		})
	}
	t.SystemGetConfComputeCapabilities = func(caps *symtab.ConfComputeSystemCaps) int32 {
		return f.system(symtab.SystemGetConfComputeCapabilities, func() int32 {
			*caps = f.CCCaps
			return symtab.Success
		})
	}

	t.DeviceGetCount = func(count *uint32) int32 {
		return f.system(symtab.DeviceGetCount, func() int32 {
			*count = uint32(len(f.GPUs))
			return symtab.Success
		})
	}
	t.DeviceGetHandleByIndex = func(index uint32, device *uintptr) int32 {
		return f.system(symtab.DeviceGetHandleByIndex, func() int32 {
			if index >= uint32(len(f.GPUs)) {
				return symtab.ErrorInvalidArgument
			}
			*device = handleOf(int(index))
			return symtab.Success
		})
	}
	t.DeviceGetHandleByUUID = func(uuid string, device *uintptr) int32 {
		return f.system(symtab.DeviceGetHandleByUUID, func() int32 {
			for i, g := range f.GPUs {
				if g.UUID == uuid {
					*device = handleOf(i)
					return symtab.Success
				}
			}
			return symtab.ErrorNotFound
		})
	}
	t.DeviceGetHandleByPciBusID = func(busID string, device *uintptr) int32 {
		return f.system(symtab.DeviceGetHandleByPciBusID, func() int32 {
			for i, g := range f.GPUs {
				if cstring(g.PCI.BusID[:]) == busID {
					*device = handleOf(i)
					return symtab.Success
				}
			}
			return symtab.ErrorNotFound
		})
	}

	t.DeviceGetName = func(device uintptr, name *byte, length uint32) int32 {
		return f.device(symtab.DeviceGetName, device, func(g *GPU) int32 {
			if g.RawName != nil {
				return writeRaw(name, length, g.RawName)
			}
			return writeText(name, length, g.Name)
		})
	}
	t.DeviceGetUUID = func(device uintptr, uuid *byte, length uint32) int32 {
		return f.device(symtab.DeviceGetUUID, device, func(g *GPU) int32 {
			return writeText(uuid, length, g.UUID)
		})
	}
	t.DeviceGetSerial = func(device uintptr, serial *byte, length uint32) int32 {
		return f.device(symtab.DeviceGetSerial, device, func(g *GPU) int32 {
			return writeText(serial, length, g.Serial)
		})
	}
	t.DeviceGetIndex = func(device uintptr, index *uint32) int32 {
		return f.device(symtab.DeviceGetIndex, device, func(g *GPU) int32 {
			*index = g.Index
			return symtab.Success
		})
	}
	t.DeviceGetPciInfo = func(device uintptr, pci *symtab.PciInfo) int32 {
		return f.device(symtab.DeviceGetPciInfo, device, func(g *GPU) int32 {
			*pci = g.PCI
			return symtab.Success
		})
	}
	t.DeviceGetMemoryInfo = func(device uintptr, memory *symtab.Memory) int32 {
		return f.device(symtab.DeviceGetMemoryInfo, device, func(g *GPU) int32 {
			*memory = g.Memory
			return symtab.Success
		})
	}
	t.DeviceGetUtilizationRates = func(device uintptr, utilization *symtab.Utilization) int32 {
		return f.device(symtab.DeviceGetUtilizationRates, device, func(g *GPU) int32 {
			*utilization = g.Utilization
			return symtab.Success
		})
	}

	t.DeviceGetClockInfo = func(device uintptr, clockType uint32, clockMHz *uint32) int32 {
		return f.device(symtab.DeviceGetClockInfo, device, func(g *GPU) int32 {
			return lookup(g.Clocks, clockType, clockMHz)
		})
	}
	t.DeviceGetMaxClockInfo = func(device uintptr, clockType uint32, clockMHz *uint32) int32 {
		return f.device(symtab.DeviceGetMaxClockInfo, device, func(g *GPU) int32 {
			return lookup(g.MaxClocks, clockType, clockMHz)
		})
	}
	t.DeviceGetApplicationsClock = func(device uintptr, clockType uint32, clockMHz *uint32) int32 {
		return f.device(symtab.DeviceGetApplicationsClock, device, func(g *GPU) int32 {
			return lookup(g.AppClocks, clockType, clockMHz)
		})
	}
	t.DeviceSetApplicationsClocks = func(device uintptr, memClockMHz, graphicsClockMHz uint32) int32 {
		return f.device(symtab.DeviceSetApplicationsClocks, device, func(g *GPU) int32 {
			if g.ReadOnly {
				return symtab.ErrorNoPermission
			}
			if memClockMHz > g.MaxClocks[ClockMem] || graphicsClockMHz > g.MaxClocks[ClockGraphics] {
				return symtab.ErrorInvalidArgument
			}
			g.AppClocks[ClockMem] = memClockMHz
			g.AppClocks[ClockGraphics] = graphicsClockMHz
			return symtab.Success
		})
	}
	t.DeviceResetApplicationsClocks = func(device uintptr) int32 {
		return f.device(symtab.DeviceResetApplicationsClocks, device, func(g *GPU) int32 {
			if g.ReadOnly {
				return symtab.ErrorNoPermission
			}
			g.AppClocks = maps.Clone(g.DefaultAppClocks)
			return symtab.Success
		})
	}
	t.DeviceGetAutoBoostedClocksEnabled = func(device uintptr, isEnabled, defaultIsEnabled *uint32) int32 {
		return f.device(symtab.DeviceGetAutoBoostedClocksEnabled, device, func(g *GPU) int32 {
			*isEnabled = boolState(g.AutoBoost)
			*defaultIsEnabled = boolState(g.AutoBoostDefault)
			return symtab.Success
		})
	}
	t.DeviceGetCurrentClocksThrottleReasons = func(device uintptr, reasons *uint64) int32 {
		return f.device(symtab.DeviceGetCurrentClocksThrottleReasons, device, func(g *GPU) int32 {
			*reasons = g.ThrottleReasons
			return symtab.Success
		})
	}

	t.DeviceGetEccMode = func(device uintptr, current, pending *uint32) int32 {
		return f.device(symtab.DeviceGetEccMode, device, func(g *GPU) int32 {
			if !g.EccSupported {
				return symtab.ErrorNotSupported
			}
			*current = boolState(g.EccCurrent)
			*pending = boolState(g.EccPending)
			return symtab.Success
		})
	}
	t.DeviceSetEccMode = func(device uintptr, ecc uint32) int32 {
		return f.device(symtab.DeviceSetEccMode, device, func(g *GPU) int32 {
			switch {
			case !g.EccSupported:
				return symtab.ErrorNotSupported
			case g.ReadOnly:
				return symtab.ErrorNoPermission
			case ecc > 1:
				return symtab.ErrorInvalidArgument
			}
			g.EccPending = ecc == 1
			return symtab.Success
		})
	}
	t.DeviceGetTotalEccErrors = func(device uintptr, errorType, _ uint32, count *uint64) int32 {
		return f.device(symtab.DeviceGetTotalEccErrors, device, func(g *GPU) int32 {
			if !g.EccSupported {
				return symtab.ErrorNotSupported
			}
			return lookup(g.EccErrors, errorType, count)
		})
	}
	t.DeviceGetRetiredPages = func(device uintptr, cause uint32, pageCount *uint32, addresses, timestamps *uint64) int32 {
		return f.device(symtab.DeviceGetRetiredPages, device, func(g *GPU) int32 {
			pages := g.RetiredPages[cause]
			n := uint32(len(pages))
			if n == 0 {
				*pageCount = 0
				return symtab.Success
			}
			if addresses == nil || timestamps == nil || *pageCount < n {
				*pageCount = n
				return symtab.ErrorInsufficientSize
			}
			addrs := unsafe.Slice(addresses, *pageCount)
			stamps := unsafe.Slice(timestamps, *pageCount)
			for i, p := range pages {
				addrs[i] = p.Address
				stamps[i] = p.Timestamp
			}
			*pageCount = n
			return symtab.Success
		})
	}

	t.DeviceGetPowerManagementLimitConstraints = func(device uintptr, minLimit, maxLimit *uint32) int32 {
		return f.power(symtab.DeviceGetPowerManagementLimitConstraints, device, func(g *GPU) int32 {
			*minLimit, *maxLimit = g.PowerMin, g.PowerMax
			return symtab.Success
		})
	}
	t.DeviceGetPowerManagementLimit = func(device uintptr, limit *uint32) int32 {
		return f.power(symtab.DeviceGetPowerManagementLimit, device, func(g *GPU) int32 {
			*limit = g.PowerLimit
			return symtab.Success
		})
	}
	t.DeviceGetPowerManagementDefaultLimit = func(device uintptr, limit *uint32) int32 {
		return f.power(symtab.DeviceGetPowerManagementDefaultLimit, device, func(g *GPU) int32 {
			*limit = g.PowerDefault
			return symtab.Success
		})
	}
	t.DeviceGetEnforcedPowerLimit = func(device uintptr, limit *uint32) int32 {
		return f.power(symtab.DeviceGetEnforcedPowerLimit, device, func(g *GPU) int32 {
			*limit = g.PowerLimit
			return symtab.Success
		})
	}
	t.DeviceSetPowerManagementLimit = func(device uintptr, limit uint32) int32 {
		return f.power(symtab.DeviceSetPowerManagementLimit, device, func(g *GPU) int32 {
			if g.ReadOnly {
				return symtab.ErrorNoPermission
			}
			if limit < g.PowerMin || limit > g.PowerMax {
				return symtab.ErrorInvalidArgument
			}
			g.PowerLimit = limit
			return symtab.Success
		})
	}
	t.DeviceGetPowerUsage = func(device uintptr, power *uint32) int32 {
		return f.power(symtab.DeviceGetPowerUsage, device, func(g *GPU) int32 {
			*power = g.PowerUsage
			return symtab.Success
		})
	}
	t.DeviceGetTotalEnergyConsumption = func(device uintptr, energy *uint64) int32 {
		return f.power(symtab.DeviceGetTotalEnergyConsumption, device, func(g *GPU) int32 {
			*energy = g.Energy
			return symtab.Success
		})
	}
	t.DeviceGetTemperature = func(device uintptr, sensor uint32, temp *uint32) int32 {
		return f.device(symtab.DeviceGetTemperature, device, func(g *GPU) int32 {
			if sensor != 0 {
				return symtab.ErrorInvalidArgument
			}
			*temp = g.Temperature
			return symtab.Success
		})
	}

	t.DeviceGetEncoderUtilization = func(device uintptr, utilization, samplingPeriodUs *uint32) int32 {
		return f.device(symtab.DeviceGetEncoderUtilization, device, func(g *GPU) int32 {
			*utilization, *samplingPeriodUs = g.EncoderUtilization, g.SamplingPeriod
			return symtab.Success
		})
	}
	t.DeviceGetDecoderUtilization = func(device uintptr, utilization, samplingPeriodUs *uint32) int32 {
		return f.device(symtab.DeviceGetDecoderUtilization, device, func(g *GPU) int32 {
			*utilization, *samplingPeriodUs = g.DecoderUtilization, g.SamplingPeriod
			return symtab.Success
		})
	}
	t.DeviceGetEncoderStats = func(device uintptr, sessionCount, averageFps, averageLatency *uint32) int32 {
		return f.device(symtab.DeviceGetEncoderStats, device, func(g *GPU) int32 {
			*sessionCount, *averageFps, *averageLatency = g.EncoderSessions, g.EncoderFps, g.EncoderLatency
			return symtab.Success
		})
	}
	t.DeviceGetEncoderCapacity = func(device uintptr, _ uint32, capacity *uint32) int32 {
		return f.device(symtab.DeviceGetEncoderCapacity, device, func(g *GPU) int32 {
			*capacity = g.EncoderCapacity
			return symtab.Success
		})
	}
	t.DeviceGetCudaComputeCapability = func(device uintptr, major, minor *int32) int32 {
		return f.device(symtab.DeviceGetCudaComputeCapability, device, func(g *GPU) int32 {
			*major, *minor = g.ComputeMajor, g.ComputeMinor
			return symtab.Success
		})
	}
	t.DeviceGetCpuAffinity = func(device uintptr, cpuSetSize uint32, cpuSet *uint64) int32 {
		return f.device(symtab.DeviceGetCpuAffinity, device, func(g *GPU) int32 {
			if cpuSet == nil || cpuSetSize == 0 {
				return symtab.ErrorInvalidArgument
			}
			copy(unsafe.Slice(cpuSet, cpuSetSize), g.CPUAffinity)
			return symtab.Success
		})
	}
	t.DeviceGetFieldValues = func(device uintptr, valuesCount int32, values *symtab.FieldValue) int32 {
		return f.device(symtab.DeviceGetFieldValues, device, func(g *GPU) int32 {
			if values == nil || valuesCount <= 0 {
				return symtab.ErrorInvalidArgument
			}
			out := unsafe.Slice(values, valuesCount)
			for i := range out {
				v := &out[i]
				sample, ok := g.Fields[v.FieldID]
				if !ok {
					v.NvmlReturn = symtab.ErrorNotSupported
					continue
				}
				v.Timestamp = 1700000000000000
				v.LatencyUsec = 10
				v.ValueType = sample.ValueType
				v.Value = sample.Value
				v.NvmlReturn = symtab.Success
			}
			return symtab.Success
		})
	}
	t.DeviceGetGpuOperationMode = func(device uintptr, current, pending *uint32) int32 {
		return f.device(symtab.DeviceGetGpuOperationMode, device, func(g *GPU) int32 {
			*current, *pending = g.OperationMode, g.PendingOperationMode
			return symtab.Success
		})
	}

	t.DeviceGetSupportedVgpus = func(device uintptr, vgpuCount *uint32, vgpuTypeIDs *uint32) int32 {
		return f.device(symtab.DeviceGetSupportedVgpus, device, func(g *GPU) int32 {
			return writeIDs(vgpuCount, vgpuTypeIDs, g.SupportedVgpus)
		})
	}
	t.DeviceGetCreatableVgpus = func(device uintptr, vgpuCount *uint32, vgpuTypeIDs *uint32) int32 {
		return f.device(symtab.DeviceGetCreatableVgpus, device, func(g *GPU) int32 {
			return writeIDs(vgpuCount, vgpuTypeIDs, g.CreatableVgpus)
		})
	}

	t.DeviceGetConfComputeGpuCertificate = func(device uintptr, cert *symtab.ConfComputeGpuCertificate) int32 {
		return f.device(symtab.DeviceGetConfComputeGpuCertificate, device, func(g *GPU) int32 {
			if g.Certificate == nil {
				return symtab.ErrorNotSupported
			}
			*cert = *g.Certificate
			return symtab.Success
		})
	}
	t.DeviceGetConfComputeGpuAttestationReport = func(device uintptr, report *symtab.ConfComputeGpuAttestationReport) int32 {
		return f.device(symtab.DeviceGetConfComputeGpuAttestationReport, device, func(g *GPU) int32 {
			if g.AttestationReport == nil {
				return symtab.ErrorNotSupported
			}
			nonce := report.Nonce
			*report = *g.AttestationReport
			report.Nonce = nonce
			return symtab.Success
		})
	}

	t.VgpuTypeGetClass = func(id uint32, class *byte, size *uint32) int32 {
		return f.vgpu(symtab.VgpuTypeGetClass, id, func(v *VgpuType) int32 {
			return writeText(class, *size, v.Class)
		})
	}
	t.VgpuTypeGetName = func(id uint32, name *byte, size *uint32) int32 {
		return f.vgpu(symtab.VgpuTypeGetName, id, func(v *VgpuType) int32 {
			return writeText(name, *size, v.Name)
		})
	}
	t.VgpuTypeGetLicense = func(id uint32, license *byte, size uint32) int32 {
		return f.vgpu(symtab.VgpuTypeGetLicense, id, func(v *VgpuType) int32 {
			return writeText(license, size, v.License)
		})
	}
	t.VgpuTypeGetCapabilities = func(id uint32, capability uint32, result *uint32) int32 {
		return f.vgpu(symtab.VgpuTypeGetCapabilities, id, func(v *VgpuType) int32 {
			*result = boolState(v.Capabilities[capability])
			return symtab.Success
		})
	}
	t.VgpuTypeGetDeviceID = func(id uint32, deviceID, subsystemID *uint64) int32 {
		return f.vgpu(symtab.VgpuTypeGetDeviceID, id, func(v *VgpuType) int32 {
			*deviceID, *subsystemID = v.DeviceID, v.SubsystemID
			return symtab.Success
		})
	}
	t.VgpuTypeGetFrameRateLimit = func(id uint32, limit *uint32) int32 {
		return f.vgpu(symtab.VgpuTypeGetFrameRateLimit, id, func(v *VgpuType) int32 {
			*limit = v.FrameRateLimit
			return symtab.Success
		})
	}
	t.VgpuTypeGetFramebufferSize = func(id uint32, size *uint64) int32 {
		return f.vgpu(symtab.VgpuTypeGetFramebufferSize, id, func(v *VgpuType) int32 {
			*size = v.FramebufferSize
			return symtab.Success
		})
	}
	t.VgpuTypeGetGpuInstanceProfileID = func(id uint32, profileID *uint32) int32 {
		return f.vgpu(symtab.VgpuTypeGetGpuInstanceProfileID, id, func(v *VgpuType) int32 {
			*profileID = v.InstanceProfileID
			return symtab.Success
		})
	}
	t.VgpuTypeGetMaxInstances = func(device uintptr, id uint32, count *uint32) int32 {
		return f.device(symtab.VgpuTypeGetMaxInstances, device, func(g *GPU) int32 {
			if _, ok := f.VgpuTypes[id]; !ok {
				return symtab.ErrorInvalidArgument
			}
			*count = g.VgpuMaxInstances[id]
			return symtab.Success
		})
	}
	t.VgpuTypeGetMaxInstancesPerVM = func(id uint32, count *uint32) int32 {
		return f.vgpu(symtab.VgpuTypeGetMaxInstancesPerVM, id, func(v *VgpuType) int32 {
			*count = v.MaxInstancesPerVM
			return symtab.Success
		})
	}
	t.VgpuTypeGetNumDisplayHeads = func(id uint32, heads *uint32) int32 {
		return f.vgpu(symtab.VgpuTypeGetNumDisplayHeads, id, func(v *VgpuType) int32 {
			*heads = v.NumDisplayHeads
			return symtab.Success
		})
	}
	t.VgpuTypeGetResolution = func(id uint32, displayIndex uint32, x, y *uint32) int32 {
		return f.vgpu(symtab.VgpuTypeGetResolution, id, func(v *VgpuType) int32 {
			res, ok := v.Resolutions[displayIndex]
			if !ok {
				return symtab.ErrorInvalidArgument
			}
			*x, *y = res[0], res[1]
			return symtab.Success
		})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return t.Without(f.missing...)
}

func (f *Fake) init(symbol string, flags uint32) int32 {
	if code, ok := f.enter(symbol); ok {
		return code
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized = true
	f.initFlags = flags
	return symtab.Success
}

func (f *Fake) power(symbol string, handle uintptr, fn func(g *GPU) int32) int32 {
	return f.device(symbol, handle, func(g *GPU) int32 {
		if !g.PowerSupported {
			return symtab.ErrorNotSupported
		}
		return fn(g)
	})
}
