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

// Package fakenvml is an in-memory NVML used to exercise the binding layer
// without a driver. It hands out a symtab.Table whose entry points read and
// write Go state following the native calling conventions.
package fakenvml

import (
	"maps"
	"sync"

	gonvml "github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

// Clock types, as used by the Clocks maps of GPU.
var (
	ClockGraphics = uint32(gonvml.CLOCK_GRAPHICS)
	ClockSM       = uint32(gonvml.CLOCK_SM)
	ClockMem      = uint32(gonvml.CLOCK_MEM)
)

type RetiredPage struct {
	Address   uint64
	Timestamp uint64
}

// FieldSample is the value reported for one field id.
type FieldSample struct {
	ValueType uint32
	Value     [8]byte
}

type GPU struct {
	Name   string
	UUID   string
	Serial string
	// RawName, when set, is copied into the name buffer verbatim with no
	// terminator added.
	RawName []byte

	Index uint32
	PCI   symtab.PciInfo

	Memory      symtab.Memory
	Utilization symtab.Utilization

	Clocks           map[uint32]uint32
	MaxClocks        map[uint32]uint32
	AppClocks        map[uint32]uint32
	DefaultAppClocks map[uint32]uint32
	AutoBoost        bool
	AutoBoostDefault bool
	ThrottleReasons  uint64

	EccSupported bool
	EccCurrent   bool
	EccPending   bool
	EccErrors    map[uint32]uint64
	RetiredPages map[uint32][]RetiredPage

	PowerSupported bool
	PowerMin       uint32
	PowerMax       uint32
	PowerLimit     uint32
	PowerDefault   uint32
	PowerUsage     uint32
	Energy         uint64
	Temperature    uint32

	EncoderUtilization uint32
	DecoderUtilization uint32
	SamplingPeriod     uint32
	EncoderSessions    uint32
	EncoderFps         uint32
	EncoderLatency     uint32
	EncoderCapacity    uint32

	ComputeMajor         int32
	ComputeMinor         int32
	OperationMode        uint32
	PendingOperationMode uint32
	CPUAffinity          []uint64
	Fields               map[uint32]FieldSample

	SupportedVgpus   []uint32
	CreatableVgpus   []uint32
	VgpuMaxInstances map[uint32]uint32

	Certificate       *symtab.ConfComputeGpuCertificate
	AttestationReport *symtab.ConfComputeGpuAttestationReport

	// ReadOnly makes every setter fail with NO_PERMISSION.
	ReadOnly bool
}

type VgpuType struct {
	Class             string
	Name              string
	License           string
	Capabilities      map[uint32]bool
	DeviceID          uint64
	SubsystemID       uint64
	FrameRateLimit    uint32
	FramebufferSize   uint64
	InstanceProfileID uint32
	MaxInstancesPerVM uint32
	NumDisplayHeads   uint32
	Resolutions       map[uint32][2]uint32
}

// Fake holds the state behind the table. Exported fields may be set freely
// before the table is first used; afterwards change them through Update.
type Fake struct {
	DriverVersion     string
	NVMLVersion       string
	CudaDriverVersion int32
	CCCaps            symtab.ConfComputeSystemCaps
	GPUs              []*GPU
	VgpuTypes         map[uint32]*VgpuType

	mu          sync.Mutex
	initialized bool
	initFlags   uint32
	calls       map[string]int
	overrides   map[string]int32
	missing     []string
	onCall      func(symbol string, n int)
}

// New returns a fake with two GPUs sharing a set of vGPU types.
func New() *Fake {
	return &Fake{
		DriverVersion:     "550.54.15",
		NVMLVersion:       "12.550.54.15",
		CudaDriverVersion: 12040,
		CCCaps:            symtab.ConfComputeSystemCaps{CpuCaps: 1, GpusCaps: 1},
		GPUs:              []*GPU{newGPU(0), newGPU(1)},
		VgpuTypes: map[uint32]*VgpuType{
			11: {
				Class:             "Compute",
				Name:              "GRID A100-4C",
				License:           "NVIDIA-Virtual-Compute-Server,9.0;Quadro-Virtual-DWS,5.0",
				Capabilities:      map[uint32]bool{0: true},
				DeviceID:          0x1234,
				SubsystemID:       0x5678,
				FrameRateLimit:    60,
				FramebufferSize:   4 << 30,
				InstanceProfileID: 0xffffffff,
				MaxInstancesPerVM: 1,
				NumDisplayHeads:   1,
				Resolutions:       map[uint32][2]uint32{0: {4096, 2160}},
			},
			12: {
				Class:             "Quadro",
				Name:              "GRID A100-8Q",
				License:           "Quadro-Virtual-DWS,5.0",
				Capabilities:      map[uint32]bool{},
				DeviceID:          0x20b0,
				SubsystemID:       0x1533,
				FrameRateLimit:    60,
				FramebufferSize:   8 << 30,
				InstanceProfileID: 0xffffffff,
				MaxInstancesPerVM: 4,
				NumDisplayHeads:   4,
				Resolutions:       map[uint32][2]uint32{0: {7680, 4320}, 1: {5120, 2880}},
			},
		},
		calls:     map[string]int{},
		overrides: map[string]int32{},
	}
}

func newGPU(index uint32) *GPU {
	uuids := []string{
		"GPU-b8ea3855-276c-c9cb-b366-c6fa655957c5",
		"GPU-31cfe05c-ed13-cd17-d7aa-c63db5108c24",
	}
	busIDs := []string{"00000000:07:00.0", "00000000:0F:00.0"}

	g := &GPU{
		Name:   "NVIDIA A100-SXM4-40GB",
		UUID:   uuids[index],
		Serial: "132432" + string(rune('0'+index)),
		Index:  index,
		PCI: symtab.PciInfo{
			Bus:            []uint32{0x07, 0x0f}[index],
			PciDeviceID:    0x20b010de,
			PciSubSystemID: 0x134f10de,
		},
		Memory:           symtab.Memory{Total: 40 << 30, Free: 39 << 30, Used: 1 << 30},
		Utilization:      symtab.Utilization{Gpu: 42, Memory: 17},
		Clocks:           map[uint32]uint32{ClockGraphics: 1410, ClockSM: 1410, ClockMem: 1215},
		MaxClocks:        map[uint32]uint32{ClockGraphics: 1410, ClockSM: 1410, ClockMem: 1215},
		DefaultAppClocks: map[uint32]uint32{ClockGraphics: 1095, ClockMem: 1215},
		AutoBoostDefault: true,
		ThrottleReasons:  0x1 | 0x4,
		EccSupported:     true,
		EccCurrent:       true,
		EccPending:       true,
		EccErrors:        map[uint32]uint64{0: 3, 1: 0},
		RetiredPages: map[uint32][]RetiredPage{
			0: {{Address: 0x1000, Timestamp: 1700000000}, {Address: 0x2000, Timestamp: 1700000100}},
		},
		PowerSupported:     true,
		PowerMin:           5000,
		PowerMax:           300000,
		PowerLimit:         250000,
		PowerDefault:       250000,
		PowerUsage:         61000,
		Energy:             123456789,
		Temperature:        34,
		EncoderUtilization: 5,
		DecoderUtilization: 2,
		SamplingPeriod:     167000,
		EncoderSessions:    1,
		EncoderFps:         30,
		EncoderLatency:     900,
		EncoderCapacity:    90,
		ComputeMajor:       8,
		ComputeMinor:       0,
		CPUAffinity:        []uint64{0x0f << (index * 4)},
		Fields: map[uint32]FieldSample{
			// NVML_FI_DEV_MEMORY_TEMP
			82: {ValueType: 1, Value: [8]byte{45}},
		},
		SupportedVgpus:   []uint32{11, 12},
		CreatableVgpus:   []uint32{12},
		VgpuMaxInstances: map[uint32]uint32{11: 10, 12: 5},
	}
	copy(g.PCI.BusID[:], busIDs[index])
	copy(g.PCI.BusIDLegacy[:], busIDs[index])
	g.AppClocks = maps.Clone(g.DefaultAppClocks)
	return g
}

// Remove makes the table returned by Table report the symbols as not
// exported.
func (f *Fake) Remove(symbols ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing = append(f.missing, symbols...)
}

// Fail makes symbol return code without touching any state.
func (f *Fake) Fail(symbol string, code int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[symbol] = code
}

// OnCall registers hook to run before every entry point body. n is the
// number of calls made to symbol so far, this one included. The hook may
// call Update.
func (f *Fake) OnCall(hook func(symbol string, n int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onCall = hook
}

// Update runs fn with the state locked.
func (f *Fake) Update(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

// RemoveVgpuType forgets a vGPU type id, so later calls with it fail.
func (f *Fake) RemoveVgpuType(id uint32) {
	f.Update(func() {
		delete(f.VgpuTypes, id)
	})
}

// Calls returns how many times symbol was invoked.
func (f *Fake) Calls(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

// TotalCalls returns the number of entry point invocations of any kind.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *Fake) Initialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

// InitFlags returns the flags passed to nvmlInitWithFlags.
func (f *Fake) InitFlags() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initFlags
}

// enter records a call and reports an overriding status, if any.
func (f *Fake) enter(symbol string) (int32, bool) {
	f.mu.Lock()
	f.calls[symbol]++
	n := f.calls[symbol]
	code, overridden := f.overrides[symbol]
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook(symbol, n)
	}
	return code, overridden
}

func (f *Fake) system(symbol string, fn func() int32) int32 {
	if code, ok := f.enter(symbol); ok {
		return code
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return symtab.ErrorUninitialized
	}
	return fn()
}

func (f *Fake) device(symbol string, handle uintptr, fn func(g *GPU) int32) int32 {
	return f.system(symbol, func() int32 {
		if handle == 0 || handle > uintptr(len(f.GPUs)) {
			return symtab.ErrorInvalidArgument
		}
		return fn(f.GPUs[handle-1])
	})
}

func (f *Fake) vgpu(symbol string, id uint32, fn func(v *VgpuType) int32) int32 {
	return f.system(symbol, func() int32 {
		v, ok := f.VgpuTypes[id]
		if !ok {
			return symtab.ErrorInvalidArgument
		}
		return fn(v)
	})
}

func handleOf(index int) uintptr {
	return uintptr(index + 1)
}
