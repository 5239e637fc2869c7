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
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/nvml-safe/internal/pkg/fakenvml"
	"github.com/NVIDIA/nvml-safe/internal/pkg/marshal"
	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

func TestIdentity(t *testing.T) {
	f := fakenvml.New()
	d := mustDevice(t, mustOpenFake(t, f), 1)

	name, err := d.Name()
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA A100-SXM4-40GB", name)

	uuid, err := d.UUID()
	require.NoError(t, err)
	assert.Equal(t, "GPU-31cfe05c-ed13-cd17-d7aa-c63db5108c24", uuid)

	serial, err := d.Serial()
	require.NoError(t, err)
	assert.Equal(t, "1324321", serial)

	index, err := d.Index()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), index)

	pci, err := d.PciInfo()
	require.NoError(t, err)
	assert.Equal(t, PciInfo{
		BusID:          "00000000:0F:00.0",
		Bus:            0x0f,
		PciDeviceID:    0x20b010de,
		PciSubSystemID: 0x134f10de,
	}, pci)
}

func TestTextDecoding(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		want    string
		wantErr error
	}{
		{
			name: "When the name fills the buffer but one byte",
			raw:  append([]byte(strings.Repeat("A", symtab.DeviceNameV2BufferSize-1)), 0),
			want: strings.Repeat("A", symtab.DeviceNameV2BufferSize-1),
		},
		{
			name:    "When the buffer has no terminator",
			raw:     []byte(strings.Repeat("A", symtab.DeviceNameV2BufferSize)),
			wantErr: marshal.ErrNoTerminator,
		},
		{
			name:    "When the text is not UTF-8",
			raw:     []byte{'G', 0xff, 0xfe, 0},
			wantErr: marshal.ErrInvalidText,
		},
		{
			name: "When the name is empty",
			raw:  []byte{0},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := fakenvml.New()
			f.GPUs[0].RawName = tc.raw
			d := mustDevice(t, mustOpenFake(t, f), 0)

			name, err := d.Name()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, ErrEncoding)
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, name)
		})
	}
}

func TestMemoryAndUtilization(t *testing.T) {
	d := mustDevice(t, mustOpenFake(t, fakenvml.New()), 0)

	mem, err := d.MemoryInfo()
	require.NoError(t, err)
	assert.Equal(t, MemoryInfo{Total: 40 << 30, Free: 39 << 30, Used: 1 << 30}, mem)

	util, err := d.UtilizationRates()
	require.NoError(t, err)
	assert.Equal(t, Utilization{Gpu: 42, Memory: 17}, util)
}

func TestClocks(t *testing.T) {
	f := fakenvml.New()
	d := mustDevice(t, mustOpenFake(t, f), 0)

	sm, err := d.ClockInfo(ClockSM)
	require.NoError(t, err)
	assert.Equal(t, uint32(1410), sm)

	maxMem, err := d.MaxClockInfo(ClockMem)
	require.NoError(t, err)
	assert.Equal(t, uint32(1215), maxMem)

	_, err = d.ClockInfo(ClockVideo)
	assert.ErrorIs(t, err, ErrNotSupported)

	require.NoError(t, d.SetApplicationsClocks(1215, 1200))
	graphics, err := d.ApplicationsClock(ClockGraphics)
	require.NoError(t, err)
	assert.Equal(t, uint32(1200), graphics)

	assert.ErrorIs(t, d.SetApplicationsClocks(1215, 9999), ErrInvalidArgument)

	require.NoError(t, d.ResetApplicationsClocks())
	graphics, err = d.ApplicationsClock(ClockGraphics)
	require.NoError(t, err)
	assert.Equal(t, uint32(1095), graphics)

	boost, err := d.AutoBoostedClocksEnabled()
	require.NoError(t, err)
	assert.Equal(t, AutoBoostClocksEnabledInfo{IsEnabled: false, IsEnabledDefault: true}, boost)

	reasons, err := d.CurrentClocksThrottleReasons()
	require.NoError(t, err)
	assert.True(t, reasons.Has(ClocksThrottleReasonGpuIdle))
	assert.True(t, reasons.Has(ClocksThrottleReasonSwPowerCap))
	assert.False(t, reasons.Has(ClocksThrottleReasonHwSlowdown))
	assert.Equal(t, []ClocksThrottleReasons{ClocksThrottleReasonGpuIdle, ClocksThrottleReasonSwPowerCap}, reasons.List())
}

func TestEcc(t *testing.T) {
	f := fakenvml.New()
	d := mustDevice(t, mustOpenFake(t, f), 0)

	mode, err := d.IsEccEnabled()
	require.NoError(t, err)
	assert.Equal(t, EccModeState{CurrentlyEnabled: true, PendingEnabled: true}, mode)

	require.NoError(t, d.SetEccMode(false))
	mode, err = d.IsEccEnabled()
	require.NoError(t, err)
	assert.Equal(t, EccModeState{CurrentlyEnabled: true, PendingEnabled: false}, mode)

	corrected, err := d.TotalEccErrors(MemoryErrorCorrected, EccCounterVolatile)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), corrected)

	pages, err := d.RetiredPages(PageRetirementMultipleSingleBitEccErrors)
	require.NoError(t, err)
	assert.Equal(t, []RetiredPage{
		{Address: 0x1000, Timestamp: 1700000000},
		{Address: 0x2000, Timestamp: 1700000100},
	}, pages)

	pages, err = d.RetiredPages(PageRetirementDoubleBitEccError)
	require.NoError(t, err)
	assert.NotNil(t, pages)
	assert.Empty(t, pages)

	f.Update(func() {
		f.GPUs[0].EccSupported = false
	})
	_, err = d.IsEccEnabled()
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestPower(t *testing.T) {
	f := fakenvml.New()
	d := mustDevice(t, mustOpenFake(t, f), 0)

	constraints, err := d.PowerManagementLimitConstraints()
	require.NoError(t, err)
	assert.Equal(t, PowerManagementConstraints{MinLimit: 5000, MaxLimit: 300000}, constraints)

	require.NoError(t, d.SetPowerManagementLimit(200000))
	limit, err := d.PowerManagementLimit()
	require.NoError(t, err)
	assert.Equal(t, uint32(200000), limit)

	enforced, err := d.EnforcedPowerLimit()
	require.NoError(t, err)
	assert.Equal(t, uint32(200000), enforced)

	def, err := d.PowerManagementDefaultLimit()
	require.NoError(t, err)
	assert.Equal(t, uint32(250000), def)

	assert.ErrorIs(t, d.SetPowerManagementLimit(400000), ErrInvalidArgument)

	usage, err := d.PowerUsage()
	require.NoError(t, err)
	assert.Equal(t, uint32(61000), usage)

	energy, err := d.TotalEnergyConsumption()
	require.NoError(t, err)
	assert.Equal(t, uint64(123456789), energy)

	temp, err := d.Temperature(TemperatureGPU)
	require.NoError(t, err)
	assert.Equal(t, uint32(34), temp)
}

func TestEncoderAndCompute(t *testing.T) {
	d := mustDevice(t, mustOpenFake(t, fakenvml.New()), 1)

	enc, err := d.EncoderUtilization()
	require.NoError(t, err)
	assert.Equal(t, UtilizationInfo{Utilization: 5, SamplingPeriod: 167000}, enc)

	dec, err := d.DecoderUtilization()
	require.NoError(t, err)
	assert.Equal(t, UtilizationInfo{Utilization: 2, SamplingPeriod: 167000}, dec)

	stats, err := d.EncoderStats()
	require.NoError(t, err)
	assert.Equal(t, EncoderStats{SessionCount: 1, AverageFps: 30, AverageLatency: 900}, stats)

	capacity, err := d.EncoderCapacity(EncoderHEVC)
	require.NoError(t, err)
	assert.Equal(t, uint32(90), capacity)

	cc, err := d.CudaComputeCapability()
	require.NoError(t, err)
	assert.Equal(t, CudaComputeCapability{Major: 8, Minor: 0}, cc)

	mode, err := d.GpuOperationMode()
	require.NoError(t, err)
	assert.Equal(t, OperationModeState{Current: GpuOperationModeAllOn, Pending: GpuOperationModeAllOn}, mode)

	affinity, err := d.CpuAffinity(8)
	require.NoError(t, err)
	cpus := make([]uint, affinity.Count())
	affinity.NextSetMany(0, cpus)
	assert.Equal(t, []uint{4, 5, 6, 7}, cpus)
}

func TestFieldValues(t *testing.T) {
	d := mustDevice(t, mustOpenFake(t, fakenvml.New()), 0)

	values, err := d.FieldValuesFor([]FieldId{82, 9999})
	require.NoError(t, err)
	require.Len(t, values, 2)

	assert.NoError(t, values[0].Err)
	assert.Equal(t, FieldId(82), values[0].Field)
	assert.Equal(t, ValueTypeUnsignedInt, values[0].ValueType)
	assert.Equal(t, uint32(45), values[0].Uint32())

	assert.Equal(t, FieldId(9999), values[1].Field)
	assert.ErrorIs(t, values[1].Err, ErrNotSupported)

	empty, err := d.FieldValuesFor(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestConfidentialCompute(t *testing.T) {
	f := fakenvml.New()
	cert := &symtab.ConfComputeGpuCertificate{CertChainSize: 3, AttestationCertChainSize: 2}
	copy(cert.CertChain[:], "abc")
	copy(cert.AttestationCertChain[:], "xy")
	report := &symtab.ConfComputeGpuAttestationReport{AttestationReportSize: 4}
	copy(report.AttestationReport[:], "rprt")
	f.GPUs[0].Certificate = cert
	f.GPUs[0].AttestationReport = report
	l := mustOpenFake(t, f)
	d := mustDevice(t, l, 0)

	got, err := d.ConfidentialComputeGpuCertificate()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got.CertChainBytes())
	assert.Equal(t, []byte("xy"), got.AttestationCertChainBytes())

	var nonce [CcGpuAttestationNonceSize]byte
	copy(nonce[:], "0123456789abcdef0123456789abcdef")
	rep, err := d.ConfidentialComputeGpuAttestationReport(nonce)
	require.NoError(t, err)
	assert.Equal(t, nonce, rep.Nonce)
	assert.Equal(t, []byte("rprt"), rep.AttestationReportBytes())
	assert.Nil(t, rep.CecAttestationReportBytes())

	_, err = mustDevice(t, l, 1).ConfidentialComputeGpuCertificate()
	assert.ErrorIs(t, err, ErrNotSupported)

	f.Update(func() {
		cert.CertChainSize = GpuCertChainSize + 1
	})
	_, err = d.ConfidentialComputeGpuCertificate()
	assert.ErrorIs(t, err, ErrEncoding)
	assert.ErrorIs(t, err, marshal.ErrLengthOverflow)
}

func TestInvalidHandle(t *testing.T) {
	l := mustOpenFake(t, fakenvml.New())
	d := Device{lib: l, handle: 0}

	_, err := d.Name()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = d.PowerUsage()
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMissingSymbol(t *testing.T) {
	f := fakenvml.New()
	f.Remove(symtab.DeviceGetSerial, symtab.DeviceGetRetiredPages, symtab.DeviceSetEccMode)
	allocations := 0
	l := mustOpenFake(t, f, withAllocHook(func(int) { allocations++ }))
	d := mustDevice(t, l, 0)
	before := f.TotalCalls()

	_, err := d.Serial()
	assert.ErrorIs(t, err, &Error{Kind: KindFunctionNotFound, Symbol: symtab.DeviceGetSerial})
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Zero(t, e.Code)

	_, err = d.RetiredPages(PageRetirementDoubleBitEccError)
	assert.ErrorIs(t, err, ErrFunctionNotFound)

	assert.ErrorIs(t, d.SetEccMode(true), ErrFunctionNotFound)

	assert.Equal(t, before, f.TotalCalls())
	assert.Zero(t, allocations)

	name, err := d.Name()
	require.NoError(t, err, "other entry points keep working")
	assert.NotEmpty(t, name)
}

func TestControlWithoutPermission(t *testing.T) {
	f := fakenvml.New()
	f.GPUs[0].ReadOnly = true
	d := mustDevice(t, mustOpenFake(t, f), 0)

	var warned []string
	orig := warnIfMissingControlCapabilities
	warnIfMissingControlCapabilities = func(_ *slog.Logger, operation string) {
		warned = append(warned, operation)
	}
	defer func() {
		warnIfMissingControlCapabilities = orig
	}()

	assert.ErrorIs(t, d.SetPowerManagementLimit(100000), ErrInsufficientPermissions)
	assert.ErrorIs(t, d.ResetApplicationsClocks(), ErrInsufficientPermissions)
	assert.Equal(t, []string{symtab.DeviceSetPowerManagementLimit, symtab.DeviceResetApplicationsClocks}, warned)
}

func TestQueriesAreIdempotent(t *testing.T) {
	l := mustOpenFake(t, fakenvml.New())
	d := mustDevice(t, l, 0)

	queries := map[string]func() (any, error){
		"PciInfo":    func() (any, error) { return d.PciInfo() },
		"MemoryInfo": func() (any, error) { return d.MemoryInfo() },
		"RetiredPages": func() (any, error) {
			return d.RetiredPages(PageRetirementMultipleSingleBitEccErrors)
		},
		"VgpuSupportedTypes": func() (any, error) { return d.VgpuSupportedTypes() },
		"DriverVersion":      func() (any, error) { return l.DriverVersion() },
		"VgpuLicense":        func() (any, error) { return NewVgpuType(d, 11).License() },
	}

	for name, query := range queries {
		t.Run(name, func(t *testing.T) {
			first, err := query()
			require.NoError(t, err)
			second, err := query()
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}
