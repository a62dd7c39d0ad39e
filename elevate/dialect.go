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
	"strings"

	"github.com/kballard/go-shellquote"
)

// Dialect knows how to wrap a script body in the self-reporting envelope
// and how to invoke the resulting script file.
type Dialect interface {
	// Extension is the script file suffix, including the dot.
	Extension() string
	// Wrap returns a script that runs body and then writes either Sentinel
	// or the caught failure message to logPath. On failure the script
	// exits non-zero.
	Wrap(body string, logPath string) string
	// Interpreter returns the argv that runs scriptPath.
	Interpreter(scriptPath string) []string
}

// PowerShell wraps bodies in try/catch and runs them with powershell.exe.
type PowerShell struct{}

func (PowerShell) Extension() string { return ".ps1" }

func (PowerShell) Wrap(body string, logPath string) string {
	var sb strings.Builder
	sb.WriteString("$ErrorActionPreference = 'Stop'\r\n")
	sb.WriteString("$pdfhelperLog = " + QuotePS(logPath) + "\r\n")
	sb.WriteString("try {\r\n")
	for _, line := range strings.Split(strings.TrimRight(body, "\r\n"), "\n") {
		sb.WriteString("    " + strings.TrimRight(line, "\r") + "\r\n")
	}
	sb.WriteString("    Set-Content -LiteralPath $pdfhelperLog -Value " + QuotePS(Sentinel) + " -Encoding UTF8\r\n")
	sb.WriteString("} catch {\r\n")
	sb.WriteString("    Set-Content -LiteralPath $pdfhelperLog -Value $_.Exception.Message -Encoding UTF8\r\n")
	sb.WriteString("    exit 1\r\n")
	sb.WriteString("}\r\n")
	sb.WriteString("exit 0\r\n")
	return sb.String()
}

func (PowerShell) Interpreter(scriptPath string) []string {
	return []string{"powershell.exe", "-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-File", scriptPath}
}

// QuotePS returns s as a single-quoted PowerShell string literal.
func QuotePS(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// POSIXShell runs bodies in a `set -e` subshell with /bin/sh. The body's
// stderr becomes the failure message; its stdout is discarded.
type POSIXShell struct{}

func (POSIXShell) Extension() string { return ".sh" }

func (POSIXShell) Wrap(body string, logPath string) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString("pdfhelper_log=" + shellquote.Join(logPath) + "\n")
	sb.WriteString("pdfhelper_err=$( (\n")
	sb.WriteString("set -e\n")
	sb.WriteString(strings.TrimRight(body, "\n") + "\n")
	sb.WriteString(") 2>&1 >/dev/null )\n")
	sb.WriteString("pdfhelper_status=$?\n")
	sb.WriteString("if [ \"$pdfhelper_status\" -eq 0 ]; then\n")
	sb.WriteString("\tprintf '%s\\n' " + shellquote.Join(Sentinel) + " > \"$pdfhelper_log\"\n")
	sb.WriteString("\texit 0\n")
	sb.WriteString("fi\n")
	sb.WriteString("[ -n \"$pdfhelper_err\" ] || pdfhelper_err=\"script exited with status $pdfhelper_status\"\n")
	sb.WriteString("printf '%s\\n' \"$pdfhelper_err\" > \"$pdfhelper_log\"\n")
	sb.WriteString("exit 1\n")
	return sb.String()
}

func (POSIXShell) Interpreter(scriptPath string) []string {
	return []string{"/bin/sh", scriptPath}
}
