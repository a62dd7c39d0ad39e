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

package elevate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// CmdExecutor runs a command to completion and returns its combined output.
// Implementations return a *LaunchError when the process could not be
// started at all. This lets us mock command exec in unit tests.
type CmdExecutor func(ctx context.Context, name string, arg ...string) ([]byte, error)

func DefaultCmdExecutor(ctx context.Context, name string, arg ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, arg...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && ctx.Err() == nil {
			return out, &LaunchError{Err: err}
		}
	}
	return out, err
}

// Launcher starts argv with elevated privileges and blocks until the
// process exits. The launch may show an OS consent prompt that this
// process cannot dismiss.
type Launcher interface {
	Launch(ctx context.Context, argv []string) error
}

// CommandLauncher runs argv behind a fixed prefix such as `pkexec` or
// `sudo -n`. An empty prefix runs argv directly, which is what an already
// elevated process wants.
type CommandLauncher struct {
	Prefix    []string
	Exec      CmdExecutor
	Verbosity int
}

// NewCommandLauncher parses prefix with shell quoting rules.
func NewCommandLauncher(prefix string) (*CommandLauncher, error) {
	parts, err := shellquote.Split(prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to parse elevate command %q: %w", prefix, err)
	}
	return &CommandLauncher{Prefix: parts, Exec: DefaultCmdExecutor}, nil
}

func (c *CommandLauncher) Launch(ctx context.Context, argv []string) error {
	full := append(append([]string{}, c.Prefix...), argv...)
	if len(full) == 0 {
		return &LaunchError{Err: errors.New("empty command")}
	}
	if c.Verbosity >= 2 {
		log.Printf("DEBUG: launching %s", shellquote.Join(full...))
	}
	out, err := c.executor()(ctx, full[0], full[1:]...)
	if c.Verbosity >= 2 && len(out) > 0 {
		log.Printf("DEBUG: %s output: %s", full[0], strings.TrimSpace(string(out)))
	}
	return err
}

func (c *CommandLauncher) executor() CmdExecutor {
	if c.Exec == nil {
		return DefaultCmdExecutor
	}
	return c.Exec
}

// UACLauncher asks a non-elevated PowerShell to start argv with the RunAs
// verb and wait for it. Declining the UAC prompt makes Start-Process throw,
// which surfaces here as a non-zero exit and, to the runner, as a missing
// log.
type UACLauncher struct {
	Exec      CmdExecutor
	Verbosity int
}

func (u *UACLauncher) Launch(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return &LaunchError{Err: errors.New("empty command")}
	}
	command := StartProcessCommand(argv)
	if u.Verbosity >= 2 {
		log.Printf("DEBUG: launching elevated: %s", command)
	}
	run := u.Exec
	if run == nil {
		run = DefaultCmdExecutor
	}
	out, err := run(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", command)
	if u.Verbosity >= 2 && len(out) > 0 {
		log.Printf("DEBUG: powershell output: %s", strings.TrimSpace(string(out)))
	}
	return err
}

// StartProcessCommand builds the PowerShell command that runs argv
// elevated, waits, and propagates the child's exit code.
func StartProcessCommand(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	args := make([]string, 0, len(argv)-1)
	for _, a := range argv[1:] {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		args = append(args, QuotePS(a))
	}
	cmd := "$p = Start-Process -FilePath " + QuotePS(argv[0])
	if len(args) > 0 {
		cmd += " -ArgumentList " + strings.Join(args, ",")
	}
	cmd += " -Verb RunAs -Wait -PassThru -WindowStyle Hidden; exit $p.ExitCode"
	return cmd
}
