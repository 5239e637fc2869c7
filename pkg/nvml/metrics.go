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

	"github.com/prometheus/client_golang/prometheus"
)

const resultSuccess = "success"

// callMetrics counts boundary calls per entry point and result. A nil
// *callMetrics records nothing.
type callMetrics struct {
	calls *prometheus.CounterVec
}

func newCallMetrics(reg prometheus.Registerer) (*callMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nvml",
		Name:      "boundary_calls_total",
		Help:      "Number of NVML entry point invocations by symbol and result.",
	}, []string{"symbol", "result"})

	if err := reg.Register(calls); err != nil {
		// Several libraries may share one registry.
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		calls = existing
	}

	return &callMetrics{calls: calls}, nil
}

func (m *callMetrics) observe(symbol string, err error) {
	if m == nil {
		return
	}

	result := resultSuccess
	if err != nil {
		result = KindOf(err).String()
	}
	m.calls.WithLabelValues(symbol, result).Inc()
}
