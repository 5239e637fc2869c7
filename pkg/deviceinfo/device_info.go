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
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/nvml-safe/pkg/nvml"
)

// maxConcurrentQueries bounds the number of GPUs gathered at once.
const maxConcurrentQueries = 8

var (
	nvmlClient = nvml.Client
	numCPU     = runtime.NumCPU
)

var _ Provider = (*Info)(nil)

type Info struct {
	gpus []GPUInfo
	gOpt DeviceOptions
}

func (s *Info) GPUCount() uint {
	return uint(len(s.gpus))
}

func (s *Info) GPUs() []GPUInfo {
	return s.gpus
}

func (s *Info) GPU(i uint) GPUInfo {
	return s.gpus[i]
}

func (s *Info) GOpts() DeviceOptions {
	return s.gOpt
}

// Initialize takes a snapshot of every GPU visible through the process-wide
// NVML library.
func Initialize(gOpt DeviceOptions) (*Info, error) {
	lib := nvmlClient()
	if lib == nil {
		return nil, fmt.Errorf("NVML library not initialized")
	}

	logrus.Info("Initializing GPU inventory")

	devices, err := lib.Devices()
	if err != nil {
		return nil, err
	}

	s := &Info{
		gpus: make([]GPUInfo, len(devices)),
		gOpt: gOpt,
	}

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentQueries)
	for i, device := range devices {
		i, device := i, device
		g.Go(func() error {
			info, err := gatherGPU(device)
			if err != nil {
				return fmt.Errorf("cannot read GPU %d: %w", i, err)
			}
			s.gpus[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	err = s.VerifyDevicePresence(gOpt)
	if err == nil {
		logrus.Debugf("GPU inventory of %d devices initialized", len(s.gpus))
	}
	return s, err
}

func gatherGPU(d nvml.Device) (GPUInfo, error) {
	info := GPUInfo{Device: d}

	index, err := d.Index()
	if err != nil {
		return info, err
	}
	info.Index = uint(index)

	if info.Name, err = d.Name(); err != nil {
		return info, err
	}
	if info.UUID, err = d.UUID(); err != nil {
		return info, err
	}
	info.ParsedUUID, err = uuid.Parse(strings.TrimPrefix(info.UUID, "GPU-"))
	if err != nil {
		logrus.Warnf("GPU %d reports a malformed UUID %q; err: %v", index, info.UUID, err)
	}

	if info.PCI, err = d.PciInfo(); err != nil {
		return info, err
	}
	if info.ComputeCapability, err = d.CudaComputeCapability(); err != nil {
		return info, err
	}

	if info.PowerLimits, err = optional(d.PowerManagementLimitConstraints()); err != nil {
		return info, err
	}
	if info.Ecc, err = optional(d.IsEccEnabled()); err != nil {
		return info, err
	}

	affinity, err := d.CpuAffinity(uint(numCPU()))
	switch {
	case err == nil:
		info.CPUAffinity = getCoreArray(affinity)
	case unsupported(err):
		logrus.Debugf("GPU %d does not report CPU affinity", index)
	default:
		return info, err
	}

	info.VgpuTypes, err = gatherVgpuTypes(d)
	return info, err
}

func gatherVgpuTypes(d nvml.Device) ([]VgpuTypeInfo, error) {
	types, err := d.VgpuSupportedTypes()
	if unsupported(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	infos := make([]VgpuTypeInfo, 0, len(types))
	for _, t := range types {
		info := VgpuTypeInfo{Type: t}
		if info.Name, err = t.Name(); err != nil {
			return nil, fmt.Errorf("vGPU type %d: %w", t.ID(), err)
		}
		if info.Class, err = t.ClassName(); err != nil {
			return nil, fmt.Errorf("vGPU type %d: %w", t.ID(), err)
		}
		if info.FramebufferSize, err = t.FramebufferSize(); err != nil {
			return nil, fmt.Errorf("vGPU type %d: %w", t.ID(), err)
		}
		if info.MaxInstances, err = t.MaxInstances(); err != nil {
			return nil, fmt.Errorf("vGPU type %d: %w", t.ID(), err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func unsupported(err error) bool {
	return errors.Is(err, nvml.ErrNotSupported) || errors.Is(err, nvml.ErrFunctionNotFound)
}

// optional turns an unsupported query into a nil result.
func optional[T any](v T, err error) (*T, error) {
	if unsupported(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func getCoreArray(b *bitset.BitSet) []uint {
	var cores []uint
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		cores = append(cores, i)
	}
	return cores
}

func (s *Info) GPUIDExists(gpuID int) bool {
	return slices.ContainsFunc(s.gpus, func(g GPUInfo) bool {
		return g.Index == uint(gpuID)
	})
}

func (s *Info) VerifyDevicePresence(gOpt DeviceOptions) error {
	if gOpt.Flex {
		return nil
	}

	if len(gOpt.MajorRange) > 0 && gOpt.MajorRange[0] != -1 {
		// Verify we can find all the specified gpus
		for _, gpuID := range gOpt.MajorRange {
			if !s.GPUIDExists(gpuID) {
				return fmt.Errorf("couldn't find requested GPU ID '%d'", gpuID)
			}
		}
	}

	return nil
}

func (s *Info) IsGPUWatched(index uint) bool {
	if !s.GPUIDExists(int(index)) {
		return false
	}

	if s.gOpt.Flex {
		return true
	}

	// When MajorRange contains -1 value, every GPU is watched
	if len(s.gOpt.MajorRange) > 0 && s.gOpt.MajorRange[0] == -1 {
		return true
	}

	return slices.Contains(s.gOpt.MajorRange, int(index))
}

// GPUByUUID returns the GPU with the given GPU- prefixed UUID.
func GPUByUUID(deviceInfo Provider, gpuUUID string) (GPUInfo, bool) {
	for _, g := range deviceInfo.GPUs() {
		if g.UUID == gpuUUID {
			return g, true
		}
	}
	return GPUInfo{}, false
}
