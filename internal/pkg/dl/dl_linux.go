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

//go:build linux

package dl

import (
	"fmt"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

const (
	RTLDLazy   = purego.RTLD_LAZY
	RTLDNow    = purego.RTLD_NOW
	RTLDLocal  = purego.RTLD_LOCAL
	RTLDGlobal = purego.RTLD_GLOBAL
)

var _ Library = (*dynamicLibrary)(nil)

type dynamicLibrary struct {
	name   string
	handle uintptr
}

// Open loads the shared object name with the given dlopen flags.
func Open(name string, flags int) (Library, error) {
	handle, err := purego.Dlopen(name, flags)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", name)
	}

	return &dynamicLibrary{name: name, handle: handle}, nil
}

func (l *dynamicLibrary) Name() string {
	return l.name
}

func (l *dynamicLibrary) Lookup(symbol string) (uintptr, error) {
	if l.handle == 0 {
		return 0, errors.Errorf("%s is not open", l.name)
	}

	addr, err := purego.Dlsym(l.handle, symbol)
	if err != nil {
		return 0, errors.Wrapf(ErrSymbolNotFound, "%s: %v", symbol, err)
	}
	if addr == 0 {
		return 0, errors.Wrap(ErrSymbolNotFound, symbol)
	}

	return addr, nil
}

func (l *dynamicLibrary) Bind(fptr any, symbol string) (err error) {
	addr, err := l.Lookup(symbol)
	if err != nil {
		return err
	}

	// RegisterFunc panics on signatures it cannot express.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cannot bind %s: %v", symbol, r)
		}
	}()
	purego.RegisterFunc(fptr, addr)

	return nil
}

func (l *dynamicLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}

	if err := purego.Dlclose(l.handle); err != nil {
		return errors.Wrapf(err, "error closing %s", l.name)
	}
	l.handle = 0

	return nil
}
