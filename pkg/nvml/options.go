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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/nvml-safe/internal/pkg/appconfig"
)

type options struct {
	config     appconfig.Config
	logger     *slog.Logger
	registerer prometheus.Registerer
	// allocHook observes every buffer allocated for a boundary call.
	allocHook func(elements int)
}

// Option configures Open and NewWithSymbolTable.
type Option func(*options)

// WithLibraryPath sets the soname or path of the NVML shared object.
func WithLibraryPath(path string) Option {
	return func(o *options) {
		o.config.LibraryPath = path
	}
}

// WithLoadFlags sets the dlopen mode.
func WithLoadFlags(flags int) Option {
	return func(o *options) {
		o.config.LoadFlags = flags
	}
}

// WithInitFlags initializes the library through nvmlInitWithFlags.
func WithInitFlags(flags uint32) Option {
	return func(o *options) {
		o.config.InitFlags = flags
	}
}

// WithLogger sets the logger for library lifecycle events. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer enables the nvml_boundary_calls_total counter on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithSizeNegotiationAttempts lets size-negotiated queries run up to
// attempts times while the native side keeps reporting InsufficientSize.
// The default of 1 surfaces the first InsufficientSize to the caller.
func WithSizeNegotiationAttempts(attempts uint) Option {
	return func(o *options) {
		if attempts == 0 {
			attempts = 1
		}
		o.config.SizeNegotiationAttempts = attempts
	}
}

// WithoutPrerequisites skips the library location and architecture checks
// run by Open before dlopen.
func WithoutPrerequisites() Option {
	return func(o *options) {
		o.config.SkipPrerequisites = true
	}
}

func withAllocHook(hook func(elements int)) Option {
	return func(o *options) {
		o.allocHook = hook
	}
}

func newOptions(config appconfig.Config, opts []Option) options {
	o := options{config: config}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
