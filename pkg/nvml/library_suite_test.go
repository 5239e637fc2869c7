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
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/nvml-safe/internal/pkg/fakenvml"
	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

var _ = Describe("Library", func() {
	var (
		f   *fakenvml.Fake
		lib *Library
	)

	BeforeEach(func() {
		f = fakenvml.New()
		var err error
		lib, err = openFake(f)
		Expect(err).ShouldNot(HaveOccurred())
		DeferCleanup(func() {
			_ = lib.Shutdown()
		})
	})

	Context("when queried from many goroutines", func() {
		It("returns consistent results", func(ctx context.Context) {
			devices, err := lib.Devices()
			Expect(err).ShouldNot(HaveOccurred())

			g, _ := errgroup.WithContext(ctx)
			for i := 0; i < 32; i++ {
				d := devices[i%len(devices)]
				g.Go(func() error {
					for j := 0; j < 50; j++ {
						if _, err := d.Name(); err != nil {
							return err
						}
						types, err := d.VgpuSupportedTypes()
						if err != nil {
							return err
						}
						for _, v := range types {
							if _, err := v.FramebufferSize(); err != nil {
								return err
							}
						}
					}
					return nil
				})
			}
			Expect(g.Wait()).To(Succeed())
			Expect(f.Calls(symtab.DeviceGetName)).To(Equal(32 * 50))
		}, SpecTimeout(30*time.Second))
	})

	Context("when shut down while calls are running", func() {
		It("waits for them and rejects later calls", func() {
			d, err := lib.DeviceByIndex(0)
			Expect(err).ShouldNot(HaveOccurred())

			entered := make(chan struct{})
			release := make(chan struct{})
			var once atomic.Bool
			f.OnCall(func(symbol string, _ int) {
				if symbol == symtab.DeviceGetPowerUsage && once.CompareAndSwap(false, true) {
					close(entered)
					<-release
				}
			})

			done := make(chan error, 1)
			go func() {
				_, err := d.PowerUsage()
				done <- err
			}()
			Eventually(entered).Should(BeClosed())

			shutdown := make(chan error, 1)
			go func() {
				shutdown <- lib.Shutdown()
			}()
			Consistently(shutdown, 100*time.Millisecond).ShouldNot(Receive())

			close(release)
			Eventually(done).Should(Receive(BeNil()))
			Eventually(shutdown).Should(Receive(BeNil()))

			_, err = d.PowerUsage()
			Expect(err).To(MatchError(ErrUninitialized))
		})
	})

	Context("when an entry point is missing", func() {
		BeforeEach(func() {
			f = fakenvml.New()
			f.Remove(symtab.DeviceGetFieldValues)
			var err error
			lib, err = openFake(f)
			Expect(err).ShouldNot(HaveOccurred())
		})

		It("fails with FunctionNotFound and leaves the rest usable", func() {
			d, err := lib.DeviceByIndex(0)
			Expect(err).ShouldNot(HaveOccurred())

			_, err = d.FieldValuesFor([]FieldId{82})
			Expect(err).To(MatchError(ErrFunctionNotFound))
			Expect(f.Calls(symtab.DeviceGetFieldValues)).To(BeZero())

			constraints, err := d.PowerManagementLimitConstraints()
			Expect(err).ShouldNot(HaveOccurred())
			Expect(constraints).To(Equal(PowerManagementConstraints{MinLimit: 5000, MaxLimit: 300000}))
		})
	})

	Context("when a vGPU type is used", func() {
		It("passes the device and subsystem ids through", func() {
			d, err := lib.DeviceByIndex(0)
			Expect(err).ShouldNot(HaveOccurred())

			deviceID, subsystemID, err := NewVgpuType(d, 11).DeviceID()
			Expect(err).ShouldNot(HaveOccurred())
			Expect(deviceID).To(Equal(uint64(0x1234)))
			Expect(subsystemID).To(Equal(uint64(0x5678)))
		})
	})
})
