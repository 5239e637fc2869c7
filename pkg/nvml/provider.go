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
	"fmt"
	"log/slog"
	"sync"
)

var (
	clientMu sync.Mutex
	client   *Library
	open     = Open
)

// Initialize opens the process-wide Library. It is a no-op when one is
// already set.
func Initialize(opts ...Option) error {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client != nil {
		slog.Info("NVML already initialized.")
		return nil
	}

	l, err := open(opts...)
	if err != nil {
		return err
	}
	client = l
	return nil
}

// Client returns the process-wide Library, or nil before Initialize.
func Client() *Library {
	clientMu.Lock()
	defer clientMu.Unlock()
	return client
}

// SetClient replaces the process-wide Library. The previous one is not shut
// down.
func SetClient(l *Library) {
	clientMu.Lock()
	defer clientMu.Unlock()
	client = l
}

// reset clears the process-wide Library.
func reset() {
	client = nil
}

// Cleanup shuts the process-wide Library down and clears it.
func Cleanup() {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client == nil {
		return
	}
	if err := client.Shutdown(); err != nil {
		slog.Warn(fmt.Sprintf("Cannot shut down NVML library; err: %v", err))
	}
	reset()
}
