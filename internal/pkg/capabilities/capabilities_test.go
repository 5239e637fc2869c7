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

package capabilities

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withStatus(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "status")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	prev := procSelfStatus
	procSelfStatus = path
	t.Cleanup(func() { procSelfStatus = prev })
}

func TestHasCapability(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		cap     int
		want    bool
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name:    "When CAP_SYS_ADMIN is set",
			status:  "Name:\tnvml\nCapEff:\t000001ffffffffff\n",
			cap:     CAP_SYS_ADMIN,
			want:    true,
			wantErr: assert.NoError,
		},
		{
			name:    "When CAP_SYS_ADMIN is not set",
			status:  "Name:\tnvml\nCapEff:\t00000000a80425fb\n",
			cap:     CAP_SYS_ADMIN,
			want:    false,
			wantErr: assert.NoError,
		},
		{
			name:    "When CapEff is missing",
			status:  "Name:\tnvml\n",
			cap:     CAP_SYS_ADMIN,
			wantErr: assert.Error,
		},
		{
			name:    "When CapEff is malformed",
			status:  "CapEff:\tzz\n",
			cap:     CAP_SYS_ADMIN,
			wantErr: assert.Error,
		},
		{
			name:    "When the capability number is out of range",
			status:  "CapEff:\t0\n",
			cap:     64,
			wantErr: assert.Error,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withStatus(t, tc.status)
			got, err := HasCapability(tc.cap)
			if !tc.wantErr(t, err) {
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCheckSysAdmin(t *testing.T) {
	withStatus(t, "CapEff:\t0000000000200000\n")
	assert.True(t, CheckSysAdmin())

	withStatus(t, "CapEff:\t0000000000000000\n")
	assert.False(t, CheckSysAdmin())
}

func TestWarnIfMissingControlCapabilities(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	withStatus(t, "CapEff:\t0000000000200000\n")
	WarnIfMissingControlCapabilities(logger, "nvmlDeviceSetPowerManagementLimit")
	assert.Empty(t, buf.String())

	withStatus(t, "CapEff:\t0000000000000000\n")
	WarnIfMissingControlCapabilities(logger, "nvmlDeviceSetPowerManagementLimit")
	assert.Contains(t, buf.String(), "CAP_SYS_ADMIN")
	assert.Contains(t, buf.String(), "nvmlDeviceSetPowerManagementLimit")
}
