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
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/nvml-safe/internal/pkg/fakenvml"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func openFake(f *fakenvml.Fake, opts ...Option) (*Library, error) {
	return NewWithSymbolTable(f.Table(), append([]Option{WithLogger(discardLogger)}, opts...)...)
}

func mustOpenFake(t *testing.T, f *fakenvml.Fake, opts ...Option) *Library {
	t.Helper()
	l, err := openFake(f, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = l.Shutdown()
	})
	return l
}

func mustDevice(t *testing.T, l *Library, index uint32) Device {
	t.Helper()
	d, err := l.DeviceByIndex(index)
	require.NoError(t, err)
	return d
}
