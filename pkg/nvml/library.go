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

// Package nvml is a safe binding over the dynamically loaded NVIDIA
// Management Library.
//
// A Library is opened once and hands out Device values, which in turn hand
// out VgpuType values. Every accessor returns a typed result or an *Error;
// nothing panics across the boundary. All handles are safe for concurrent
// use. After Library.Shutdown every accessor on every handle derived from
// it returns an Uninitialized error.
package nvml

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/NVIDIA/nvml-safe/internal/pkg/appconfig"
	"github.com/NVIDIA/nvml-safe/internal/pkg/dl"
	"github.com/NVIDIA/nvml-safe/internal/pkg/prerequisites"
	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

var (
	dlOpen             = dl.Open
	checkPrerequisites = prerequisites.Validate
)

var emptyTable = &symtab.Table{}

// Library is an initialized NVML instance.
type Library struct {
	// mu is held for reading across every native call and for writing by
	// Shutdown, so the shared object is never unloaded under a running call.
	mu     sync.RWMutex
	closed bool

	syms    *symtab.Table
	shared  dl.Library
	path    string
	logger  *slog.Logger
	metrics *callMetrics

	sizeAttempts uint
	allocHook    func(elements int)
}

// Open loads the NVML shared object, resolves its entry points and
// initializes it. Configuration is taken from the defaults, then the NVML_*
// environment variables, then opts.
func Open(opts ...Option) (*Library, error) {
	config := appconfig.Default()
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("invalid NVML configuration: %w", err)
	}
	o := newOptions(config, opts)

	if !o.config.SkipPrerequisites {
		if err := checkPrerequisites(o.config.LibraryPath); err != nil {
			o.logger.Error(fmt.Sprintf("NVML prerequisites are not met; err: %v", err))
			return nil, &Error{Kind: KindLibraryNotFound, Err: err}
		}
	}

	o.logger.Info("Attempting to load NVML library.", slog.String("library", o.config.LibraryPath))
	shared, err := dlOpen(o.config.LibraryPath, o.config.LoadFlags)
	if err != nil {
		o.logger.Error(fmt.Sprintf("Cannot load NVML library; err: %v", err))
		return nil, &Error{Kind: KindLibraryNotFound, Err: err}
	}

	l, err := newLibrary(symtab.Resolve(shared, o.logger), shared, o)
	if err != nil {
		if cerr := shared.Close(); cerr != nil {
			o.logger.Warn(fmt.Sprintf("Cannot unload NVML library; err: %v", cerr))
		}
		return nil, err
	}

	return l, nil
}

// NewWithSymbolTable initializes a Library over an already resolved table.
// No shared object is loaded or unloaded. The environment is not consulted.
func NewWithSymbolTable(table *symtab.Table, opts ...Option) (*Library, error) {
	if table == nil {
		return nil, &Error{Kind: KindInvalidArgument, Err: errors.New("nil symbol table")}
	}
	return newLibrary(table, nil, newOptions(appconfig.Default(), opts))
}

func newLibrary(table *symtab.Table, shared dl.Library, o options) (*Library, error) {
	metrics, err := newCallMetrics(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("cannot register NVML metrics: %w", err)
	}

	l := &Library{
		syms:         table,
		shared:       shared,
		path:         o.config.LibraryPath,
		logger:       o.logger,
		metrics:      metrics,
		sizeAttempts: o.config.SizeNegotiationAttempts,
		allocHook:    o.allocHook,
	}
	if shared != nil {
		l.path = shared.Name()
	}

	if err := l.init(o.config.InitFlags); err != nil {
		l.logger.Error(fmt.Sprintf("Cannot init NVML library; err: %v", err))
		return nil, err
	}
	l.logger.Info("NVML library initialized.", slog.String("library", l.path))

	return l, nil
}

func (l *Library) init(flags uint32) error {
	if flags != 0 {
		sym := l.syms.InitWithFlags
		return l.guard(symtab.InitWithFlags, sym != nil, func() error {
			return l.status(symtab.InitWithFlags, sym(flags))
		})
	}

	sym := l.syms.Init
	return l.guard(symtab.Init, sym != nil, func() error {
		return l.status(symtab.Init, sym())
	})
}

// Shutdown waits for running calls, shuts NVML down and unloads the shared
// object. It is safe to call more than once.
func (l *Library) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	if sym := l.syms.Shutdown; sym != nil {
		if err := l.status(symtab.Shutdown, sym()); err != nil {
			errs = append(errs, err)
		}
	}
	if l.shared != nil {
		if err := l.shared.Close(); err != nil {
			errs = append(errs, &Error{Kind: KindLibraryNotFound, Err: err})
		}
	}

	l.logger.Info("NVML library shut down.", slog.String("library", l.path))
	return errors.Join(errs...)
}

// Path returns the soname or path the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// HasSymbol reports whether the loaded library exports the entry point.
func (l *Library) HasSymbol(symbol string) bool {
	return l.table().Has(symbol)
}

func (l *Library) table() *symtab.Table {
	if l == nil {
		return emptyTable
	}
	return l.syms
}

// guard runs fn while the library is pinned. Missing symbols fail before fn
// gets a chance to allocate anything.
func (l *Library) guard(symbol string, present bool, fn func() error) error {
	if l == nil {
		return &Error{Kind: KindUninitialized, Symbol: symbol, Err: errNoLibrary}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return &Error{Kind: KindUninitialized, Symbol: symbol, Err: ErrLibraryClosed}
	}
	if !present {
		err := &Error{Kind: KindFunctionNotFound, Symbol: symbol}
		l.metrics.observe(symbol, err)
		return err
	}

	return fn()
}

// status records and translates the status of one native call.
func (l *Library) status(symbol string, ret int32) error {
	err := statusError(symbol, ret)
	l.metrics.observe(symbol, err)
	return err
}

// call is guard for accessors producing a value. The zero value is returned
// with any error.
func call[T any](l *Library, symbol string, present bool, fn func() (T, error)) (T, error) {
	var v T
	err := l.guard(symbol, present, func() error {
		var err error
		v, err = fn()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func (l *Library) DriverVersion() (string, error) {
	sym := l.table().SystemGetDriverVersion
	return call(l, symtab.SystemGetDriverVersion, sym != nil, func() (string, error) {
		return l.text(symtab.SystemGetDriverVersion, symtab.SystemDriverVersionBufferSize, func(buf []byte) int32 {
			return sym(&buf[0], uint32(len(buf)))
		})
	})
}

func (l *Library) NVMLVersion() (string, error) {
	sym := l.table().SystemGetNVMLVersion
	return call(l, symtab.SystemGetNVMLVersion, sym != nil, func() (string, error) {
		return l.text(symtab.SystemGetNVMLVersion, symtab.SystemNVMLVersionBufferSize, func(buf []byte) int32 {
			return sym(&buf[0], uint32(len(buf)))
		})
	})
}

func (l *Library) CudaDriverVersion() (CudaDriverVersion, error) {
	sym := l.table().SystemGetCudaDriverVersion
	return call(l, symtab.SystemGetCudaDriverVersion, sym != nil, func() (CudaDriverVersion, error) {
		var v int32
		ret := sym(&v)
		return cudaDriverVersion(v), l.status(symtab.SystemGetCudaDriverVersion, ret)
	})
}

// ConfidentialComputeCapabilities reports the confidential compute support
// of the CPU and of the installed GPUs.
func (l *Library) ConfidentialComputeCapabilities() (ConfidentialComputeCapabilities, error) {
	sym := l.table().SystemGetConfComputeCapabilities
	return call(l, symtab.SystemGetConfComputeCapabilities, sym != nil, func() (ConfidentialComputeCapabilities, error) {
		var caps symtab.ConfComputeSystemCaps
		ret := sym(&caps)
		return ConfidentialComputeCapabilities{
			CpuCaps:  ConfidentialComputeCpuCaps(caps.CpuCaps),
			GpusCaps: ConfidentialComputeGpusCaps(caps.GpusCaps),
		}, l.status(symtab.SystemGetConfComputeCapabilities, ret)
	})
}

func (l *Library) DeviceCount() (uint32, error) {
	sym := l.table().DeviceGetCount
	return call(l, symtab.DeviceGetCount, sym != nil, func() (uint32, error) {
		var count uint32
		ret := sym(&count)
		return count, l.status(symtab.DeviceGetCount, ret)
	})
}

func (l *Library) DeviceByIndex(index uint32) (Device, error) {
	sym := l.table().DeviceGetHandleByIndex
	return call(l, symtab.DeviceGetHandleByIndex, sym != nil, func() (Device, error) {
		var handle uintptr
		ret := sym(index, &handle)
		return Device{lib: l, handle: handle}, l.status(symtab.DeviceGetHandleByIndex, ret)
	})
}

// DeviceByUUID looks a device up by its GPU- or MIG- prefixed UUID.
func (l *Library) DeviceByUUID(uuid string) (Device, error) {
	sym := l.table().DeviceGetHandleByUUID
	return call(l, symtab.DeviceGetHandleByUUID, sym != nil, func() (Device, error) {
		var handle uintptr
		ret := sym(uuid, &handle)
		return Device{lib: l, handle: handle}, l.status(symtab.DeviceGetHandleByUUID, ret)
	})
}

// DeviceByPciBusID looks a device up by its domain:bus:device.function
// address.
func (l *Library) DeviceByPciBusID(busID string) (Device, error) {
	sym := l.table().DeviceGetHandleByPciBusID
	return call(l, symtab.DeviceGetHandleByPciBusID, sym != nil, func() (Device, error) {
		var handle uintptr
		ret := sym(busID, &handle)
		return Device{lib: l, handle: handle}, l.status(symtab.DeviceGetHandleByPciBusID, ret)
	})
}

// Devices returns every device in index order.
func (l *Library) Devices() ([]Device, error) {
	count, err := l.DeviceCount()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, count)
	for i := uint32(0); i < count; i++ {
		device, err := l.DeviceByIndex(i)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", i, err)
		}
		devices = append(devices, device)
	}

	return devices, nil
}
