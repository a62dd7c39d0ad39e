// Copyright 2025 Open PDF Studio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name     string
		yamlData string
		check    func(t *testing.T, c *Config)
		wantErr  bool
	}{
		{
			name:     "empty file keeps defaults",
			yamlData: "---\n",
			check: func(t *testing.T, c *Config) {
				require.Equal(t, "Open PDF Studio", c.PrinterName)
				require.Equal(t, "Microsoft Print To PDF", c.PrinterDriver)
				require.Equal(t, "PORTPROMPT:", c.PrinterPort)
				require.Equal(t, "OpenPDFStudio*", c.LegacyPortPattern)
				require.Equal(t, 8, c.MaxConcurrent)
				require.Equal(t, time.Duration(0), c.Timeout())
			},
		},
		{
			name: "overrides",
			yamlData: `---
printer_name: "Studio PDF"
elevation_timeout: "2m"
elevate_command: "sudo -n"
max_concurrent: 2
verbosity: 2
`,
			check: func(t *testing.T, c *Config) {
				require.Equal(t, "Studio PDF", c.PrinterName)
				require.Equal(t, "Microsoft Print To PDF", c.PrinterDriver)
				require.Equal(t, 2*time.Minute, c.Timeout())
				require.Equal(t, "sudo -n", c.ElevateCommand)
				require.Equal(t, 2, c.MaxConcurrent)
				require.Equal(t, 2, c.Verbosity)
				require.Equal(t, "Studio PDF", c.Printer().Name)
			},
		},
		{name: "bad duration", yamlData: "elevation_timeout: soon\n", wantErr: true},
		{name: "negative duration", yamlData: "elevation_timeout: -1s\n", wantErr: true},
		{name: "zero concurrency", yamlData: "max_concurrent: 0\n", wantErr: true},
		{name: "verbosity out of range", yamlData: "verbosity: 5\n", wantErr: true},
		{name: "empty printer name", yamlData: "printer_name: \"\"\n", wantErr: true},
		{name: "unterminated quote", yamlData: "elevate_command: 'sudo \"-n'\n", wantErr: true},
		{name: "not yaml", yamlData: "printer_name: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConfig([]byte(tt.yamlData))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()

	c, err := Load(fs, "")
	require.NoError(t, err)
	require.Equal(t, "Open PDF Studio", c.PrinterName)

	_, err = Load(fs, "/etc/pdfhelper.yml")
	require.Error(t, err, "an explicit path must exist")

	require.NoError(t, afero.WriteFile(fs, "/etc/pdfhelper.yml", []byte("printer_name: Custom\n"), 0o644))
	c, err = Load(fs, "/etc/pdfhelper.yml")
	require.NoError(t, err)
	require.Equal(t, "Custom", c.PrinterName)

	if path, err := DefaultPath(); err == nil {
		require.NoError(t, afero.WriteFile(fs, path, []byte("max_concurrent: 3\n"), 0o644))
		c, err = Load(fs, "")
		require.NoError(t, err)
		require.Equal(t, 3, c.MaxConcurrent)
	}

	require.NoError(t, afero.WriteFile(fs, "/etc/broken.yml", []byte("max_concurrent: -1\n"), 0o644))
	_, err = Load(fs, "/etc/broken.yml")
	require.Error(t, err)
}
