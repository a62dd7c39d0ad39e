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

// Package printer installs, removes and queries the virtual "print to PDF"
// printer the viewer exposes to other applications.
package printer

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"

	"github.com/openpdfstudio/pdfhelper/elevate"
	"github.com/spf13/afero"
)

const (
	DefaultName              = "Open PDF Studio"
	DefaultDriver            = "Microsoft Print To PDF"
	DefaultPort              = "PORTPROMPT:"
	DefaultLegacyPortPattern = "OpenPDFStudio*"
)

// Config names the printer and the queue it is attached to.
type Config struct {
	Name              string
	Driver            string
	Port              string
	LegacyPortPattern string
}

func DefaultConfig() Config {
	return Config{
		Name:              DefaultName,
		Driver:            DefaultDriver,
		Port:              DefaultPort,
		LegacyPortPattern: DefaultLegacyPortPattern,
	}
}

// ElevatedRunner runs a script body with administrator rights. It is
// satisfied by *elevate.Runner.
type ElevatedRunner interface {
	Run(ctx context.Context, body string) error
}

type State int

const (
	NotInstalled State = iota
	Installed
)

func (s State) String() string {
	if s == Installed {
		return "installed"
	}
	return "not installed"
}

// Lifecycle drives the printer through install and removal. Mutations go
// through Runner; queries run unprivileged through Exec.
type Lifecycle struct {
	Config    Config
	Runner    ElevatedRunner
	Exec      elevate.CmdExecutor
	Fs        afero.Fs
	Verbosity int
	// GOOS selects the platform behaviour. New sets it to runtime.GOOS.
	GOOS string
}

func New(cfg Config, runner ElevatedRunner) *Lifecycle {
	return &Lifecycle{
		Config: cfg,
		Runner: runner,
		Exec:   elevate.DefaultCmdExecutor,
		Fs:     afero.NewOsFs(),
		GOOS:   runtime.GOOS,
	}
}

func (l *Lifecycle) windows() bool {
	return l.GOOS == "windows"
}

// Install replaces any printer with the configured name by a fresh one.
// Errors from the elevated run are returned unchanged.
func (l *Lifecycle) Install(ctx context.Context) error {
	if !l.windows() {
		return elevate.ErrUnsupportedPlatform
	}
	if l.Verbosity >= 1 {
		log.Printf("Installing printer %q", l.Config.Name)
	}
	return l.Runner.Run(ctx, installScript(l.Config))
}

// Remove deletes the printer and any ports left by older installs. An
// absent printer is not an error.
func (l *Lifecycle) Remove(ctx context.Context) error {
	if !l.windows() {
		return elevate.ErrUnsupportedPlatform
	}
	if l.Verbosity >= 1 {
		log.Printf("Removing printer %q", l.Config.Name)
	}
	return l.Runner.Run(ctx, removeScript(l.Config))
}

// IsInstalled reports whether a printer with exactly the configured name
// exists. It never elevates and never changes anything.
func (l *Lifecycle) IsInstalled(ctx context.Context) (bool, error) {
	if !l.windows() {
		return false, elevate.ErrUnsupportedPlatform
	}
	out, err := l.powershell(ctx, queryScript(l.Config))
	if err != nil {
		return false, fmt.Errorf("failed to query printer %q: %w", l.Config.Name, err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == l.Config.Name {
			return true, nil
		}
	}
	return false, nil
}

func (l *Lifecycle) State(ctx context.Context) (State, error) {
	ok, err := l.IsInstalled(ctx)
	if err != nil {
		return NotInstalled, err
	}
	if ok {
		return Installed, nil
	}
	return NotInstalled, nil
}

func (l *Lifecycle) powershell(ctx context.Context, command string) ([]byte, error) {
	if l.Verbosity >= 2 {
		log.Printf("DEBUG: running powershell: %s", command)
	}
	return l.executor()(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", command)
}

func (l *Lifecycle) executor() elevate.CmdExecutor {
	if l.Exec == nil {
		return elevate.DefaultCmdExecutor
	}
	return l.Exec
}
