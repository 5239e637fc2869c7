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

package symtab

import (
	"log/slog"
	"reflect"
)

// Binder binds an exported symbol to a typed Go func variable.
type Binder interface {
	Bind(fptr any, symbol string) error
}

// Resolve binds every entry point of the table against b. Symbols the
// library does not export are left nil; they are reported when called, not
// here. The returned table must not be modified.
func Resolve(b Binder, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Table{}
	entries := t.entries()
	missing := 0

	for _, e := range entries {
		if bindEntry(b, e, logger) {
			continue
		}
		missing++
		logger.Debug("NVML entry point is not exported by the loaded library", slog.String("symbol", e.name))
	}

	logger.Info("Resolved NVML entry points",
		slog.Int("resolved", len(entries)-missing),
		slog.Int("missing", missing))

	return t
}

func bindEntry(b Binder, e entry, logger *slog.Logger) bool {
	for _, name := range append([]string{e.name}, e.aliases...) {
		err := b.Bind(e.fn, name)
		if err == nil {
			if name != e.name {
				logger.Debug("Bound NVML entry point through fallback symbol",
					slog.String("symbol", e.name),
					slog.String("fallback", name))
			}
			return true
		}
	}
	return false
}

// Has reports whether the entry point named symbol was resolved. Unknown
// names report false.
func (t *Table) Has(symbol string) bool {
	for _, e := range t.entries() {
		if e.name == symbol {
			return !reflect.ValueOf(e.fn).Elem().IsNil()
		}
	}
	return false
}

// Missing lists the canonical names of entry points that were not resolved.
func (t *Table) Missing() []string {
	var names []string
	for _, e := range t.entries() {
		if reflect.ValueOf(e.fn).Elem().IsNil() {
			names = append(names, e.name)
		}
	}
	return names
}

// Symbols lists every canonical entry point name known to the table.
func Symbols() []string {
	entries := (&Table{}).entries()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names
}

// Without returns a copy of t with the named entry points cleared, as if
// the library did not export them.
func (t *Table) Without(symbols ...string) *Table {
	c := *t
	drop := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		drop[s] = true
	}
	for _, e := range c.entries() {
		if drop[e.name] {
			fn := reflect.ValueOf(e.fn).Elem()
			fn.Set(reflect.Zero(fn.Type()))
		}
	}
	return &c
}
