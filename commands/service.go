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

package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/user"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/openpdfstudio/pdfhelper/defaultapp"
	"github.com/openpdfstudio/pdfhelper/fileio"
	"github.com/openpdfstudio/pdfhelper/locks"
	"github.com/openpdfstudio/pdfhelper/printer"
)

// ErrUnknownCommand is returned by Dispatch for names it has no handler for.
var ErrUnknownCommand = errors.New("unknown command")

type handler func(ctx context.Context, args json.RawMessage) (any, error)

// Service is the command surface the viewer talks to. Every operation
// takes JSON arguments and returns a JSON-encodable result or an error.
type Service struct {
	Locks      *locks.Manager
	Printer    *printer.Lifecycle
	Files      *fileio.Store
	DefaultApp *defaultapp.Checker
	// Username defaults to the OS account name.
	Username func() (string, error)
	// OpenedFile is the document the viewer was launched with, if any.
	OpenedFile string
	// DevMode is reported to the viewer by is_dev_mode.
	DevMode   bool
	Verbosity int

	handlers map[string]handler
}

func NewService(lm *locks.Manager, lc *printer.Lifecycle, store *fileio.Store, checker *defaultapp.Checker) *Service {
	s := &Service{
		Locks:      lm,
		Printer:    lc,
		Files:      store,
		DefaultApp: checker,
		Username:   currentUsername,
	}
	s.handlers = map[string]handler{
		"lock":                         s.lock,
		"unlock":                       s.unlock,
		"install_virtual_printer":      s.installPrinter,
		"remove_virtual_printer":       s.removePrinter,
		"is_virtual_printer_installed": s.isPrinterInstalled,
		"list_printers":                s.listPrinters,
		"print":                        s.print,
		"save_session":                 s.saveSession,
		"load_session":                 s.loadSession,
		"read_file":                    s.readFile,
		"write_file":                   s.writeFile,
		"file_exists":                  s.fileExists,
		"write_temp_pdf":               s.writeTempPDF,
		"delete_temp_file":             s.deleteTempFile,
		"is_default_pdf_app":           s.isDefaultPDFApp,
		"open_default_apps_settings":   s.openDefaultAppsSettings,
		"get_username":                 s.getUsername,
		"open_url":                     s.openURL,
		"get_opened_file":              s.getOpenedFile,
		"is_dev_mode":                  s.isDevMode,
	}
	return s
}

// Commands lists the names Dispatch accepts, sorted.
func (s *Service) Commands() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs one command. A panicking handler is reported as an error
// and never takes the process down.
func (s *Service) Dispatch(ctx context.Context, command string, args json.RawMessage) (result any, err error) {
	h, ok := s.handlers[command]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic while handling %s: %v\n%s", command, r, debug.Stack())
			result, err = nil, fmt.Errorf("internal error while handling %s: %v", command, r)
		}
	}()
	if s.Verbosity >= 2 {
		log.Printf("DEBUG: dispatching %s", command)
	}
	return h(ctx, args)
}

// Elevates reports whether command may wait on an administrator prompt.
func (s *Service) Elevates(command string) bool {
	switch command {
	case "install_virtual_printer", "remove_virtual_printer":
		return true
	default:
		return false
	}
}

// Close releases every lock still held.
func (s *Service) Close() error {
	if s.Locks == nil {
		return nil
	}
	return s.Locks.Close()
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

type dataArgs struct {
	Data string `json:"data"`
}

type writeArgs struct {
	Path string `json:"path"`
	Data string `json:"data"`
}

type urlArgs struct {
	URL string `json:"url"`
}

type printArgs struct {
	Path        string `json:"path"`
	PrinterName string `json:"printer_name"`
}

func (s *Service) lock(_ context.Context, args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ok, err := s.Locks.Lock(a.Path)
	if err != nil {
		return nil, err
	}
	if s.Verbosity >= 1 && !s.Locks.Mandatory() {
		log.Printf("Locked %s (advisory only: other programs may still write to it)", a.Path)
	}
	return ok, nil
}

func (s *Service) unlock(_ context.Context, args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.Locks.Unlock(a.Path)
}

func (s *Service) installPrinter(ctx context.Context, _ json.RawMessage) (any, error) {
	if err := s.Printer.Install(ctx); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Service) removePrinter(ctx context.Context, _ json.RawMessage) (any, error) {
	if err := s.Printer.Remove(ctx); err != nil {
		return nil, err
	}
	return true, nil
}

// isPrinterInstalled never fails; a query that cannot run counts as absent.
func (s *Service) isPrinterInstalled(ctx context.Context, _ json.RawMessage) (any, error) {
	ok, err := s.Printer.IsInstalled(ctx)
	if err != nil {
		if s.Verbosity >= 1 {
			log.Printf("Printer query failed, reporting not installed: %v", err)
		}
		return false, nil
	}
	return ok, nil
}

func (s *Service) listPrinters(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.Printer.List(ctx)
}

func (s *Service) print(ctx context.Context, args json.RawMessage) (any, error) {
	var a printArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.Printer.Print(ctx, a.Path, a.PrinterName); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Service) saveSession(_ context.Context, args json.RawMessage) (any, error) {
	var a dataArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.Files.SaveSession(a.Data); err != nil {
		return nil, err
	}
	return true, nil
}

// loadSession returns null when there is no session.
func (s *Service) loadSession(_ context.Context, _ json.RawMessage) (any, error) {
	data, ok := s.Files.LoadSession()
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (s *Service) readFile(_ context.Context, args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	b, err := s.Files.ReadFile(a.Path)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (s *Service) writeFile(_ context.Context, args json.RawMessage) (any, error) {
	var a writeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.Files.WriteBase64(a.Path, a.Data); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Service) fileExists(_ context.Context, args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.Files.Exists(a.Path), nil
}

func (s *Service) writeTempPDF(_ context.Context, args json.RawMessage) (any, error) {
	var a dataArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	b, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return s.Files.WriteTempPDF(b)
}

func (s *Service) deleteTempFile(_ context.Context, args json.RawMessage) (any, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.Files.DeleteTempFile(a.Path); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Service) isDefaultPDFApp(_ context.Context, _ json.RawMessage) (any, error) {
	return s.DefaultApp.IsDefaultPDFApp(), nil
}

func (s *Service) openDefaultAppsSettings(ctx context.Context, _ json.RawMessage) (any, error) {
	return s.DefaultApp.OpenSettings(ctx)
}

func (s *Service) getUsername(_ context.Context, _ json.RawMessage) (any, error) {
	return s.Username()
}

func (s *Service) openURL(ctx context.Context, args json.RawMessage) (any, error) {
	var a urlArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.DefaultApp.OpenURL(ctx, a.URL); err != nil {
		return nil, err
	}
	return true, nil
}

// getOpenedFile answers null when the viewer was started without a document.
func (s *Service) getOpenedFile(_ context.Context, _ json.RawMessage) (any, error) {
	if s.OpenedFile == "" {
		return nil, nil
	}
	return s.OpenedFile, nil
}

func (s *Service) isDevMode(_ context.Context, _ json.RawMessage) (any, error) {
	return s.DevMode, nil
}

// currentUsername returns the bare account name, without the DOMAIN// prefix windows adds.
func currentUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	name := u.Username
	if i := strings.LastIndex(name, "\\"); i >= 0 {
		name = name[i+1:]
	}
	return name, nil
}
