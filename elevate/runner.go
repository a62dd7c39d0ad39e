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

// Package elevate runs short scripts with administrator privileges and
// reports how they ended. The exit status of the consent wrapper cannot
// tell a declined prompt from a failed script, so each script writes a
// sentinel or its error message to a log file next to it.
package elevate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// IsElevatedFunc is a testable indirection for elevation checks.
var IsElevatedFunc = IsElevated

// Options configures NewRunner.
type Options struct {
	// ScratchDir holds one private directory per run. Defaults to os.TempDir().
	ScratchDir string
	// ElevateCommand overrides the platform elevation mechanism, e.g. "sudo -n".
	ElevateCommand string
	// Timeout bounds the wait for the elevated process. Zero waits forever.
	Timeout   time.Duration
	Verbosity int
}

// Request is one elevated invocation and the files backing it. The
// script and log live in Dir, which is private to the calling user.
type Request struct {
	Body       string
	Dir        string
	ScriptPath string
	LogPath    string
}

// Runner executes script bodies elevated. It is safe for concurrent use;
// every call gets its own script and log file.
type Runner struct {
	Fs         afero.Fs
	ScratchDir string
	Dialect    Dialect
	Launcher   Launcher
	Timeout    time.Duration
	Verbosity  int
	// NewID returns a value unique to each call. Defaults to a timestamp
	// plus a random UUID.
	NewID func() string
}

// NewRunner creates a Runner for the current platform. When the process
// is already elevated the script is run directly without a prompt.
func NewRunner(opts Options) (*Runner, error) {
	var launcher Launcher
	elevated, err := IsElevatedFunc()
	if err != nil {
		log.Printf("Failed to determine elevation, assuming not elevated: %v", err)
	}
	if elevated {
		launcher = &CommandLauncher{Exec: DefaultCmdExecutor, Verbosity: opts.Verbosity}
	} else {
		launcher, err = defaultLauncher(opts.ElevateCommand)
		if err != nil {
			return nil, err
		}
		switch l := launcher.(type) {
		case *CommandLauncher:
			l.Verbosity = opts.Verbosity
		case *UACLauncher:
			l.Verbosity = opts.Verbosity
		}
	}

	return &Runner{
		Fs:         afero.NewOsFs(),
		ScratchDir: opts.ScratchDir,
		Dialect:    defaultDialect(),
		Launcher:   launcher,
		Timeout:    opts.Timeout,
		Verbosity:  opts.Verbosity,
	}, nil
}

// Run executes body elevated and returns nil, *ScriptError, ErrNoOutput,
// *LaunchError or *IOError.
func (r *Runner) Run(ctx context.Context, body string) error {
	return r.Execute(ctx, body).Err()
}

// Execute executes body elevated and classifies the result. The run
// directory and everything in it is removed before it returns, whatever
// the outcome.
func (r *Runner) Execute(ctx context.Context, body string) Result {
	req := r.NewRequest(body)

	if err := r.makeRunDir(req); err != nil {
		return ioFailure(err)
	}
	defer r.cleanup(req)

	if err := r.prepare(req); err != nil {
		return ioFailure(err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	launchErr := r.Launcher.Launch(ctx, r.Dialect.Interpreter(req.ScriptPath))

	content, err := r.readLog(req.LogPath)
	if err != nil {
		log.Printf("Failed to read elevated script log %s: %v", req.LogPath, err)
	}

	res := classify(content, launchErr, ctx.Err())
	if r.Verbosity >= 1 {
		log.Printf("Elevated script finished in %s: %s", time.Since(start).Round(time.Millisecond), res.Outcome)
	}
	if r.Verbosity >= 2 && launchErr != nil {
		log.Printf("DEBUG: launcher returned: %v", launchErr)
	}
	return res
}

// NewRequest allocates a unique run directory for body. Nothing is
// created on disk.
func (r *Runner) NewRequest(body string) Request {
	dir := filepath.Join(r.scratchDir(), "pdfhelper-"+r.newID())
	return Request{
		Body:       body,
		Dir:        dir,
		ScriptPath: filepath.Join(dir, "script"+r.Dialect.Extension()),
		LogPath:    filepath.Join(dir, "script.log"),
	}
}

// makeRunDir creates the private run directory. Mkdir fails if the path
// already exists, so a directory planted by someone else is never used
// or removed.
func (r *Runner) makeRunDir(req Request) error {
	if err := r.Fs.MkdirAll(r.scratchDir(), 0o700); err != nil {
		return &IOError{Op: "create scratch directory", Err: err}
	}
	if err := r.Fs.Mkdir(req.Dir, 0o700); err != nil {
		return &IOError{Op: "create run directory", Err: err}
	}
	return nil
}

// prepare writes the wrapped script and an empty log into the run
// directory. The log is ours so it stays readable after an elevated
// process with a restrictive umask truncates and writes it.
func (r *Runner) prepare(req Request) error {
	script := r.Dialect.Wrap(req.Body, req.LogPath)
	if err := afero.WriteFile(r.Fs, req.ScriptPath, []byte(script), 0o600); err != nil {
		return &IOError{Op: "write script", Err: err}
	}
	if err := afero.WriteFile(r.Fs, req.LogPath, nil, 0o600); err != nil {
		return &IOError{Op: "create log", Err: err}
	}
	if err := verifyScript(r.Fs, req.ScriptPath); err != nil {
		return &IOError{Op: "verify script", Err: err}
	}
	return nil
}

func ioFailure(err error) Result {
	return Result{Outcome: OutcomeIOError, Message: err.Error(), cause: err}
}

// readLog returns the decoded log. A missing log is an empty log.
func (r *Runner) readLog(path string) (string, error) {
	raw, err := afero.ReadFile(r.Fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return decodeLog(raw)
}

func (r *Runner) cleanup(req Request) {
	if err := r.Fs.RemoveAll(req.Dir); err != nil {
		log.Printf("Failed to remove %s: %v", req.Dir, err)
	}
}

func (r *Runner) scratchDir() string {
	if r.ScratchDir == "" {
		return os.TempDir()
	}
	return r.ScratchDir
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString())
}

// decodeLog strips a UTF-8 or UTF-16 byte order mark and converts the log
// to UTF-8. Windows PowerShell writes a BOM with -Encoding UTF8.
func decodeLog(raw []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode log: %w", err)
	}
	return string(out), nil
}
