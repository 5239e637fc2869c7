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
	"github.com/NVIDIA/nvml-safe/internal/pkg/marshal"
	"github.com/NVIDIA/nvml-safe/internal/pkg/symtab"
)

// ConfidentialComputeGpuCertificate returns the certificate chains of a
// device in confidential compute mode.
func (d Device) ConfidentialComputeGpuCertificate() (*ConfidentialComputeGpuCertificate, error) {
	sym := d.syms().DeviceGetConfComputeGpuCertificate
	return call(d.lib, symtab.DeviceGetConfComputeGpuCertificate, sym != nil, func() (*ConfidentialComputeGpuCertificate, error) {
		raw := new(symtab.ConfComputeGpuCertificate)
		if err := d.lib.status(symtab.DeviceGetConfComputeGpuCertificate, sym(d.handle, raw)); err != nil {
			return nil, err
		}

		if _, err := marshal.Payload(raw.CertChain[:], raw.CertChainSize); err != nil {
			return nil, encodingError(symtab.DeviceGetConfComputeGpuCertificate, err)
		}
		if _, err := marshal.Payload(raw.AttestationCertChain[:], raw.AttestationCertChainSize); err != nil {
			return nil, encodingError(symtab.DeviceGetConfComputeGpuCertificate, err)
		}

		return &ConfidentialComputeGpuCertificate{
			CertChainSize:            raw.CertChainSize,
			AttestationCertChainSize: raw.AttestationCertChainSize,
			CertChain:                raw.CertChain,
			AttestationCertChain:     raw.AttestationCertChain,
		}, nil
	})
}

// ConfidentialComputeGpuAttestationReport requests an attestation report
// bound to nonce.
func (d Device) ConfidentialComputeGpuAttestationReport(nonce [CcGpuAttestationNonceSize]byte) (*ConfidentialComputeGpuAttestationReport, error) {
	sym := d.syms().DeviceGetConfComputeGpuAttestationReport
	return call(d.lib, symtab.DeviceGetConfComputeGpuAttestationReport, sym != nil, func() (*ConfidentialComputeGpuAttestationReport, error) {
		raw := &symtab.ConfComputeGpuAttestationReport{Nonce: nonce}
		if err := d.lib.status(symtab.DeviceGetConfComputeGpuAttestationReport, sym(d.handle, raw)); err != nil {
			return nil, err
		}

		if _, err := marshal.Payload(raw.AttestationReport[:], raw.AttestationReportSize); err != nil {
			return nil, encodingError(symtab.DeviceGetConfComputeGpuAttestationReport, err)
		}
		present := raw.IsCecAttestationReportPresent != 0
		if present {
			if _, err := marshal.Payload(raw.CecAttestationReport[:], raw.CecAttestationReportSize); err != nil {
				return nil, encodingError(symtab.DeviceGetConfComputeGpuAttestationReport, err)
			}
		}

		return &ConfidentialComputeGpuAttestationReport{
			Nonce:                         raw.Nonce,
			AttestationReportSize:         raw.AttestationReportSize,
			AttestationReport:             raw.AttestationReport,
			IsCecAttestationReportPresent: present,
			CecAttestationReportSize:      raw.CecAttestationReportSize,
			CecAttestationReport:          raw.CecAttestationReport,
		}, nil
	})
}
