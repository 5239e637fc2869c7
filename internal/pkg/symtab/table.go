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

// Package symtab holds the typed table of NVML entry points and the C layout
// mirrors passed through them.
package symtab

// Canonical entry point names. Errors and metrics report these names even
// when a fallback symbol was bound.
const (
	Init                                     = "nvmlInit_v2"
	InitWithFlags                            = "nvmlInitWithFlags"
	Shutdown                                 = "nvmlShutdown"
	SystemGetDriverVersion                   = "nvmlSystemGetDriverVersion"
	SystemGetNVMLVersion                     = "nvmlSystemGetNVMLVersion"
	SystemGetCudaDriverVersion               = "nvmlSystemGetCudaDriverVersion_v2"
	SystemGetConfComputeCapabilities         = "nvmlSystemGetConfComputeCapabilities"
	DeviceGetCount                           = "nvmlDeviceGetCount_v2"
	DeviceGetHandleByIndex                   = "nvmlDeviceGetHandleByIndex_v2"
	DeviceGetHandleByUUID                    = "nvmlDeviceGetHandleByUUID"
	DeviceGetHandleByPciBusID                = "nvmlDeviceGetHandleByPciBusId_v2"
	DeviceGetName                            = "nvmlDeviceGetName"
	DeviceGetUUID                            = "nvmlDeviceGetUUID"
	DeviceGetSerial                          = "nvmlDeviceGetSerial"
	DeviceGetIndex                           = "nvmlDeviceGetIndex"
	DeviceGetPciInfo                         = "nvmlDeviceGetPciInfo_v3"
	DeviceGetMemoryInfo                      = "nvmlDeviceGetMemoryInfo"
	DeviceGetUtilizationRates                = "nvmlDeviceGetUtilizationRates"
	DeviceGetClockInfo                       = "nvmlDeviceGetClockInfo"
	DeviceGetMaxClockInfo                    = "nvmlDeviceGetMaxClockInfo"
	DeviceGetApplicationsClock               = "nvmlDeviceGetApplicationsClock"
	DeviceSetApplicationsClocks              = "nvmlDeviceSetApplicationsClocks"
	DeviceResetApplicationsClocks            = "nvmlDeviceResetApplicationsClocks"
	DeviceGetAutoBoostedClocksEnabled        = "nvmlDeviceGetAutoBoostedClocksEnabled"
	DeviceGetCurrentClocksThrottleReasons    = "nvmlDeviceGetCurrentClocksThrottleReasons"
	DeviceGetEccMode                         = "nvmlDeviceGetEccMode"
	DeviceSetEccMode                         = "nvmlDeviceSetEccMode"
	DeviceGetTotalEccErrors                  = "nvmlDeviceGetTotalEccErrors"
	DeviceGetRetiredPages                    = "nvmlDeviceGetRetiredPages_v2"
	DeviceGetPowerManagementLimitConstraints = "nvmlDeviceGetPowerManagementLimitConstraints"
	DeviceGetPowerManagementLimit            = "nvmlDeviceGetPowerManagementLimit"
	DeviceGetPowerManagementDefaultLimit     = "nvmlDeviceGetPowerManagementDefaultLimit"
	DeviceGetEnforcedPowerLimit              = "nvmlDeviceGetEnforcedPowerLimit"
	DeviceSetPowerManagementLimit            = "nvmlDeviceSetPowerManagementLimit"
	DeviceGetPowerUsage                      = "nvmlDeviceGetPowerUsage"
	DeviceGetTotalEnergyConsumption          = "nvmlDeviceGetTotalEnergyConsumption"
	DeviceGetTemperature                     = "nvmlDeviceGetTemperature"
	DeviceGetEncoderUtilization              = "nvmlDeviceGetEncoderUtilization"
	DeviceGetDecoderUtilization              = "nvmlDeviceGetDecoderUtilization"
	DeviceGetEncoderStats                    = "nvmlDeviceGetEncoderStats"
	DeviceGetEncoderCapacity                 = "nvmlDeviceGetEncoderCapacity"
	DeviceGetCudaComputeCapability           = "nvmlDeviceGetCudaComputeCapability"
	DeviceGetCpuAffinity                     = "nvmlDeviceGetCpuAffinity"
	DeviceGetFieldValues                     = "nvmlDeviceGetFieldValues"
	DeviceGetGpuOperationMode                = "nvmlDeviceGetGpuOperationMode"
	DeviceGetSupportedVgpus                  = "nvmlDeviceGetSupportedVgpus"
	DeviceGetCreatableVgpus                  = "nvmlDeviceGetCreatableVgpus"
	DeviceGetConfComputeGpuCertificate       = "nvmlDeviceGetConfComputeGpuCertificate"
	DeviceGetConfComputeGpuAttestationReport = "nvmlDeviceGetConfComputeGpuAttestationReport"
	VgpuTypeGetClass                         = "nvmlVgpuTypeGetClass"
	VgpuTypeGetName                          = "nvmlVgpuTypeGetName"
	VgpuTypeGetLicense                       = "nvmlVgpuTypeGetLicense"
	VgpuTypeGetCapabilities                  = "nvmlVgpuTypeGetCapabilities"
	VgpuTypeGetDeviceID                      = "nvmlVgpuTypeGetDeviceID"
	VgpuTypeGetFrameRateLimit                = "nvmlVgpuTypeGetFrameRateLimit"
	VgpuTypeGetFramebufferSize               = "nvmlVgpuTypeGetFramebufferSize"
	VgpuTypeGetGpuInstanceProfileID          = "nvmlVgpuTypeGetGpuInstanceProfileId"
	VgpuTypeGetMaxInstances                  = "nvmlVgpuTypeGetMaxInstances"
	VgpuTypeGetMaxInstancesPerVM             = "nvmlVgpuTypeGetMaxInstancesPerVm"
	VgpuTypeGetNumDisplayHeads               = "nvmlVgpuTypeGetNumDisplayHeads"
	VgpuTypeGetResolution                    = "nvmlVgpuTypeGetResolution"
)

// Table holds one callable per NVML entry point. A nil field means the
// loaded library does not export the symbol. Device handles are passed as
// the opaque nvmlDevice_t pointer value and every function returns
// nvmlReturn_t.
type Table struct {
	Init          func() int32
	InitWithFlags func(flags uint32) int32
	Shutdown      func() int32

	SystemGetDriverVersion           func(version *byte, length uint32) int32
	SystemGetNVMLVersion             func(version *byte, length uint32) int32
	SystemGetCudaDriverVersion       func(version *int32) int32
	SystemGetConfComputeCapabilities func(caps *ConfComputeSystemCaps) int32

	DeviceGetCount            func(count *uint32) int32
	DeviceGetHandleByIndex    func(index uint32, device *uintptr) int32
	DeviceGetHandleByUUID     func(uuid string, device *uintptr) int32
	DeviceGetHandleByPciBusID func(busID string, device *uintptr) int32

	DeviceGetName             func(device uintptr, name *byte, length uint32) int32
	DeviceGetUUID             func(device uintptr, uuid *byte, length uint32) int32
	DeviceGetSerial           func(device uintptr, serial *byte, length uint32) int32
	DeviceGetIndex            func(device uintptr, index *uint32) int32
	DeviceGetPciInfo          func(device uintptr, pci *PciInfo) int32
	DeviceGetMemoryInfo       func(device uintptr, memory *Memory) int32
	DeviceGetUtilizationRates func(device uintptr, utilization *Utilization) int32

	DeviceGetClockInfo                    func(device uintptr, clockType uint32, clockMHz *uint32) int32
	DeviceGetMaxClockInfo                 func(device uintptr, clockType uint32, clockMHz *uint32) int32
	DeviceGetApplicationsClock            func(device uintptr, clockType uint32, clockMHz *uint32) int32
	DeviceSetApplicationsClocks           func(device uintptr, memClockMHz, graphicsClockMHz uint32) int32
	DeviceResetApplicationsClocks         func(device uintptr) int32
	DeviceGetAutoBoostedClocksEnabled     func(device uintptr, isEnabled, defaultIsEnabled *uint32) int32
	DeviceGetCurrentClocksThrottleReasons func(device uintptr, reasons *uint64) int32

	DeviceGetEccMode        func(device uintptr, current, pending *uint32) int32
	DeviceSetEccMode        func(device uintptr, ecc uint32) int32
	DeviceGetTotalEccErrors func(device uintptr, errorType, counterType uint32, count *uint64) int32
	DeviceGetRetiredPages   func(device uintptr, cause uint32, pageCount *uint32, addresses, timestamps *uint64) int32

	DeviceGetPowerManagementLimitConstraints func(device uintptr, minLimit, maxLimit *uint32) int32
	DeviceGetPowerManagementLimit            func(device uintptr, limit *uint32) int32
	DeviceGetPowerManagementDefaultLimit     func(device uintptr, limit *uint32) int32
	DeviceGetEnforcedPowerLimit              func(device uintptr, limit *uint32) int32
	DeviceSetPowerManagementLimit            func(device uintptr, limit uint32) int32
	DeviceGetPowerUsage                      func(device uintptr, power *uint32) int32
	DeviceGetTotalEnergyConsumption          func(device uintptr, energy *uint64) int32
	DeviceGetTemperature                     func(device uintptr, sensor uint32, temp *uint32) int32

	DeviceGetEncoderUtilization    func(device uintptr, utilization, samplingPeriodUs *uint32) int32
	DeviceGetDecoderUtilization    func(device uintptr, utilization, samplingPeriodUs *uint32) int32
	DeviceGetEncoderStats          func(device uintptr, sessionCount, averageFps, averageLatency *uint32) int32
	DeviceGetEncoderCapacity       func(device uintptr, encoderType uint32, capacity *uint32) int32
	DeviceGetCudaComputeCapability func(device uintptr, major, minor *int32) int32
	DeviceGetCpuAffinity           func(device uintptr, cpuSetSize uint32, cpuSet *uint64) int32
	DeviceGetFieldValues           func(device uintptr, valuesCount int32, values *FieldValue) int32
	DeviceGetGpuOperationMode      func(device uintptr, current, pending *uint32) int32

	DeviceGetSupportedVgpus func(device uintptr, vgpuCount *uint32, vgpuTypeIDs *uint32) int32
	DeviceGetCreatableVgpus func(device uintptr, vgpuCount *uint32, vgpuTypeIDs *uint32) int32

	DeviceGetConfComputeGpuCertificate       func(device uintptr, cert *ConfComputeGpuCertificate) int32
	DeviceGetConfComputeGpuAttestationReport func(device uintptr, report *ConfComputeGpuAttestationReport) int32

	VgpuTypeGetClass                func(id uint32, class *byte, size *uint32) int32
	VgpuTypeGetName                 func(id uint32, name *byte, size *uint32) int32
	VgpuTypeGetLicense              func(id uint32, license *byte, size uint32) int32
	VgpuTypeGetCapabilities         func(id uint32, capability uint32, result *uint32) int32
	VgpuTypeGetDeviceID             func(id uint32, deviceID, subsystemID *uint64) int32
	VgpuTypeGetFrameRateLimit       func(id uint32, limit *uint32) int32
	VgpuTypeGetFramebufferSize      func(id uint32, size *uint64) int32
	VgpuTypeGetGpuInstanceProfileID func(id uint32, profileID *uint32) int32
	VgpuTypeGetMaxInstances         func(device uintptr, id uint32, count *uint32) int32
	VgpuTypeGetMaxInstancesPerVM    func(id uint32, count *uint32) int32
	VgpuTypeGetNumDisplayHeads      func(id uint32, heads *uint32) int32
	VgpuTypeGetResolution           func(id uint32, displayIndex uint32, x, y *uint32) int32
}

type entry struct {
	name string
	// aliases are tried in order when name is not exported.
	aliases []string
	fn      any
}

func (t *Table) entries() []entry {
	return []entry{
		{Init, []string{"nvmlInit"}, &t.Init},
		{InitWithFlags, nil, &t.InitWithFlags},
		{Shutdown, nil, &t.Shutdown},
		{SystemGetDriverVersion, nil, &t.SystemGetDriverVersion},
		{SystemGetNVMLVersion, nil, &t.SystemGetNVMLVersion},
		{SystemGetCudaDriverVersion, []string{"nvmlSystemGetCudaDriverVersion"}, &t.SystemGetCudaDriverVersion},
		{SystemGetConfComputeCapabilities, nil, &t.SystemGetConfComputeCapabilities},
		{DeviceGetCount, []string{"nvmlDeviceGetCount"}, &t.DeviceGetCount},
		{DeviceGetHandleByIndex, []string{"nvmlDeviceGetHandleByIndex"}, &t.DeviceGetHandleByIndex},
		{DeviceGetHandleByUUID, nil, &t.DeviceGetHandleByUUID},
		{DeviceGetHandleByPciBusID, nil, &t.DeviceGetHandleByPciBusID},
		{DeviceGetName, nil, &t.DeviceGetName},
		{DeviceGetUUID, nil, &t.DeviceGetUUID},
		{DeviceGetSerial, nil, &t.DeviceGetSerial},
		{DeviceGetIndex, nil, &t.DeviceGetIndex},
		{DeviceGetPciInfo, nil, &t.DeviceGetPciInfo},
		{DeviceGetMemoryInfo, nil, &t.DeviceGetMemoryInfo},
		{DeviceGetUtilizationRates, nil, &t.DeviceGetUtilizationRates},
		{DeviceGetClockInfo, nil, &t.DeviceGetClockInfo},
		{DeviceGetMaxClockInfo, nil, &t.DeviceGetMaxClockInfo},
		{DeviceGetApplicationsClock, nil, &t.DeviceGetApplicationsClock},
		{DeviceSetApplicationsClocks, nil, &t.DeviceSetApplicationsClocks},
		{DeviceResetApplicationsClocks, nil, &t.DeviceResetApplicationsClocks},
		{DeviceGetAutoBoostedClocksEnabled, nil, &t.DeviceGetAutoBoostedClocksEnabled},
		{DeviceGetCurrentClocksThrottleReasons, []string{"nvmlDeviceGetCurrentClocksEventReasons"}, &t.DeviceGetCurrentClocksThrottleReasons},
		{DeviceGetEccMode, nil, &t.DeviceGetEccMode},
		{DeviceSetEccMode, nil, &t.DeviceSetEccMode},
		{DeviceGetTotalEccErrors, nil, &t.DeviceGetTotalEccErrors},
		{DeviceGetRetiredPages, nil, &t.DeviceGetRetiredPages},
		{DeviceGetPowerManagementLimitConstraints, nil, &t.DeviceGetPowerManagementLimitConstraints},
		{DeviceGetPowerManagementLimit, nil, &t.DeviceGetPowerManagementLimit},
		{DeviceGetPowerManagementDefaultLimit, nil, &t.DeviceGetPowerManagementDefaultLimit},
		{DeviceGetEnforcedPowerLimit, nil, &t.DeviceGetEnforcedPowerLimit},
		{DeviceSetPowerManagementLimit, nil, &t.DeviceSetPowerManagementLimit},
		{DeviceGetPowerUsage, nil, &t.DeviceGetPowerUsage},
		{DeviceGetTotalEnergyConsumption, nil, &t.DeviceGetTotalEnergyConsumption},
		{DeviceGetTemperature, nil, &t.DeviceGetTemperature},
		{DeviceGetEncoderUtilization, nil, &t.DeviceGetEncoderUtilization},
		{DeviceGetDecoderUtilization, nil, &t.DeviceGetDecoderUtilization},
		{DeviceGetEncoderStats, nil, &t.DeviceGetEncoderStats},
		{DeviceGetEncoderCapacity, nil, &t.DeviceGetEncoderCapacity},
		{DeviceGetCudaComputeCapability, nil, &t.DeviceGetCudaComputeCapability},
		{DeviceGetCpuAffinity, nil, &t.DeviceGetCpuAffinity},
		{DeviceGetFieldValues, nil, &t.DeviceGetFieldValues},
		{DeviceGetGpuOperationMode, nil, &t.DeviceGetGpuOperationMode},
		{DeviceGetSupportedVgpus, nil, &t.DeviceGetSupportedVgpus},
		{DeviceGetCreatableVgpus, nil, &t.DeviceGetCreatableVgpus},
		{DeviceGetConfComputeGpuCertificate, nil, &t.DeviceGetConfComputeGpuCertificate},
		{DeviceGetConfComputeGpuAttestationReport, nil, &t.DeviceGetConfComputeGpuAttestationReport},
		{VgpuTypeGetClass, nil, &t.VgpuTypeGetClass},
		{VgpuTypeGetName, nil, &t.VgpuTypeGetName},
		{VgpuTypeGetLicense, nil, &t.VgpuTypeGetLicense},
		{VgpuTypeGetCapabilities, nil, &t.VgpuTypeGetCapabilities},
		{VgpuTypeGetDeviceID, nil, &t.VgpuTypeGetDeviceID},
		{VgpuTypeGetFrameRateLimit, nil, &t.VgpuTypeGetFrameRateLimit},
		{VgpuTypeGetFramebufferSize, nil, &t.VgpuTypeGetFramebufferSize},
		{VgpuTypeGetGpuInstanceProfileID, nil, &t.VgpuTypeGetGpuInstanceProfileID},
		{VgpuTypeGetMaxInstances, nil, &t.VgpuTypeGetMaxInstances},
		{VgpuTypeGetMaxInstancesPerVM, nil, &t.VgpuTypeGetMaxInstancesPerVM},
		{VgpuTypeGetNumDisplayHeads, nil, &t.VgpuTypeGetNumDisplayHeads},
		{VgpuTypeGetResolution, nil, &t.VgpuTypeGetResolution},
	}
}
