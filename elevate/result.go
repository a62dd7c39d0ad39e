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
	"errors"
	"fmt"
	"strings"
)

// Sentinel is the token an elevated script writes to its log on success.
const Sentinel = "PDFHELPER_OK"

var (
	// ErrNoOutput means the elevated script left no log behind. Almost
	// always the user declined the administrator prompt.
	ErrNoOutput = errors.New("no result from elevated script; the administrator prompt may have been declined")

	ErrUnsupportedPlatform = errors.New("operation is not supported on this platform")
)

// ScriptError carries the message the elevated script caught and logged.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return "elevated script failed: " + e.Message
}

// LaunchError means the elevated process could not be started, or never
// produced a log before it was stopped.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch elevated process: %v", e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IOError means the script or its log could not be prepared, so nothing
// was launched.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeScriptError
	OutcomeNoOutput
	OutcomeLaunchFailure
	OutcomeIOError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeScriptError:
		return "script-error"
	case OutcomeNoOutput:
		return "no-output"
	case OutcomeLaunchFailure:
		return "launch-failure"
	case OutcomeIOError:
		return "io-error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the classified outcome of one elevated run.
type Result struct {
	Outcome Outcome
	Message string
	// cause keeps the original error for errors.Is/As.
	cause error
}

// Err converts the result into the error taxonomy callers match on.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeOK:
		return nil
	case OutcomeScriptError:
		return &ScriptError{Message: r.Message}
	case OutcomeNoOutput:
		return ErrNoOutput
	case OutcomeIOError:
		var ioErr *IOError
		if errors.As(r.cause, &ioErr) {
			return ioErr
		}
		return &IOError{Op: "prepare elevated script", Err: r.cause}
	default:
		if r.cause != nil {
			return &LaunchError{Err: r.cause}
		}
		return &LaunchError{Err: errors.New(r.Message)}
	}
}

// classify maps the decoded log content and the launcher's error onto an
// Outcome. A recognizable log always wins over the process exit status
// because the consent wrapper's exit code says nothing about the script.
func classify(logContent string, launchErr error, ctxErr error) Result {
	content := strings.TrimSpace(logContent)

	var le *LaunchError
	if content == "" && errors.As(launchErr, &le) {
		return Result{Outcome: OutcomeLaunchFailure, Message: le.Err.Error(), cause: le.Err}
	}
	if content == "" && ctxErr != nil {
		return Result{Outcome: OutcomeLaunchFailure, Message: ctxErr.Error(), cause: ctxErr}
	}

	switch {
	case content == Sentinel:
		return Result{Outcome: OutcomeOK}
	case content != "":
		return Result{Outcome: OutcomeScriptError, Message: content}
	default:
		return Result{Outcome: OutcomeNoOutput}
	}
}
