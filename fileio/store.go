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

// Package fileio holds the plain file operations the viewer delegates to
// the helper: the session blob, whole-file reads and writes, and scratch
// PDFs handed to the print pipeline.
package fileio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	AppDirName      = "OpenPDFStudio"
	SessionFileName = "session.json"
	TempPDFPrefix   = "pdfhelper-print-"
)

var ErrNotTempFile = errors.New("refusing to delete a file that was not created by write_temp_pdf")

type Store struct {
	Fs         afero.Fs
	SessionDir string
	ScratchDir string
}

// NewStore returns a Store on the OS filesystem. Empty directories fall
// back to the per-user data directory and os.TempDir().
func NewStore(sessionDir, scratchDir string) *Store {
	if sessionDir == "" {
		sessionDir = DefaultSessionDir()
	}
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &Store{
		Fs:         afero.NewOsFs(),
		SessionDir: sessionDir,
		ScratchDir: scratchDir,
	}
}

// DefaultSessionDir is <local data dir>/OpenPDFStudio, i.e. %LOCALAPPDATA%
// on windows and $XDG_DATA_HOME or ~/.local/share elsewhere.
func DefaultSessionDir() string {
	if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
		return filepath.Join(dir, AppDirName)
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppDirName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", AppDirName)
	}
	return AppDirName
}

func (s *Store) SessionPath() string {
	return filepath.Join(s.SessionDir, SessionFileName)
}

// SaveSession replaces the session blob. The blob is opaque to us.
func (s *Store) SaveSession(data string) error {
	if err := s.Fs.MkdirAll(s.SessionDir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp := s.SessionPath() + ".tmp"
	if err := afero.WriteFile(s.Fs, tmp, []byte(data), 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := s.Fs.Rename(tmp, s.SessionPath()); err != nil {
		_ = s.Fs.Remove(tmp)
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// LoadSession returns the saved blob. ok is false when there is none or
// it cannot be read.
func (s *Store) LoadSession() (data string, ok bool) {
	b, err := afero.ReadFile(s.Fs, s.SessionPath())
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (s *Store) ReadFile(path string) ([]byte, error) {
	b, err := afero.ReadFile(s.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b, nil
}

// WriteBase64 decodes data and writes it to path, replacing any content.
func (s *Store) WriteBase64(path string, data string) error {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("invalid base64 data: %w", err)
	}
	if err := afero.WriteFile(s.Fs, path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *Store) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := s.Fs.Stat(path)
	return err == nil
}

// WriteTempPDF stores data in a new scratch file and returns its path.
func (s *Store) WriteTempPDF(data []byte) (string, error) {
	if err := s.Fs.MkdirAll(s.ScratchDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	f, err := afero.TempFile(s.Fs, s.ScratchDir, TempPDFPrefix+"*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary PDF: %w", err)
	}
	name := f.Name()
	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.Fs.Remove(name)
		return "", fmt.Errorf("failed to write temporary PDF: %w", err)
	}
	return name, nil
}

// DeleteTempFile removes a file made by WriteTempPDF. Anything else is
// rejected with ErrNotTempFile. A file that is already gone is not an error.
func (s *Store) DeleteTempFile(path string) error {
	if !s.isTempPDF(path) {
		return fmt.Errorf("%w: %s", ErrNotTempFile, path)
	}
	if err := s.Fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (s *Store) isTempPDF(path string) bool {
	clean := filepath.Clean(path)
	return filepath.Dir(clean) == filepath.Clean(s.ScratchDir) &&
		strings.HasPrefix(filepath.Base(clean), TempPDFPrefix) &&
		strings.HasSuffix(clean, ".pdf")
}
