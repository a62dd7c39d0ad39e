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
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/openpdfstudio/pdfhelper/printer"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed default-config.yml
var defaultConfig []byte

const FileName = "pdfhelper.yml"

type Config struct {
	PrinterName       string   `yaml:"printer_name"`
	PrinterDriver     string   `yaml:"printer_driver"`
	PrinterPort       string   `yaml:"printer_port"`
	LegacyPortPattern string   `yaml:"legacy_port_pattern"`
	ScratchDir        string   `yaml:"scratch_dir,omitempty"`
	SessionDir        string   `yaml:"session_dir,omitempty"`
	LogDir            string   `yaml:"log_dir,omitempty"`
	Verbosity         int      `yaml:"verbosity"`
	ElevationTimeout  Duration `yaml:"elevation_timeout"`
	ElevateCommand    string   `yaml:"elevate_command,omitempty"`
	MaxConcurrent     int      `yaml:"max_concurrent"`
}

// Duration is a time.Duration written as "90s" or "2m" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// NewConfig parses c on top of the embedded defaults, so a file only has
// to name the fields it changes.
func NewConfig(c []byte) (*Config, error) {
	config, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(c, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func DefaultConfig() (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(defaultConfig, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultPath is <user config dir>/OpenPDFStudio/pdfhelper.yml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "OpenPDFStudio", FileName), nil
}

// Load reads the config at path. With an empty path it tries DefaultPath
// and falls back to the embedded defaults when no file is there.
func Load(vfs afero.Fs, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return DefaultConfig()
		}
	}

	afs := &afero.Afero{Fs: vfs}
	content, err := afs.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig()
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	config, err := NewConfig(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.PrinterName == "" {
		return fmt.Errorf("printer_name must not be empty")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", c.MaxConcurrent)
	}
	if c.Verbosity < 0 || c.Verbosity > 2 {
		return fmt.Errorf("verbosity must be 0, 1 or 2, got %d", c.Verbosity)
	}
	if c.ElevationTimeout < 0 {
		return fmt.Errorf("elevation_timeout must not be negative")
	}
	if _, err := shellquote.Split(c.ElevateCommand); err != nil {
		return fmt.Errorf("invalid elevate_command: %w", err)
	}
	return nil
}

func (c *Config) Printer() printer.Config {
	return printer.Config{
		Name:              c.PrinterName,
		Driver:            c.PrinterDriver,
		Port:              c.PrinterPort,
		LegacyPortPattern: c.LegacyPortPattern,
	}
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.ElevationTimeout)
}
