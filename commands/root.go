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
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/openpdfstudio/pdfhelper/commands/config"
	"github.com/openpdfstudio/pdfhelper/defaultapp"
	"github.com/openpdfstudio/pdfhelper/elevate"
	"github.com/openpdfstudio/pdfhelper/fileio"
	"github.com/openpdfstudio/pdfhelper/locks"
	"github.com/openpdfstudio/pdfhelper/printer"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// GlobalOptions holds the persistent flags shared by every subcommand.
type GlobalOptions struct {
	Fs         afero.Fs
	ConfigPath string
	LogDir     string // Directory to write output logs
	Verbosity  int    // Default verbosity is 0, 1 is verbose, 2 is debug
}

func (o *GlobalOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.ConfigPath, "config", "", "Path to pdfhelper.yml (default: user config dir)")
	cmd.PersistentFlags().StringVar(&o.LogDir, "log-dir", "", "Also append logs to pdfhelper.log in this directory")
	cmd.PersistentFlags().CountVarP(&o.Verbosity, "verbose", "v", "Verbose output, repeat for debug output")
}

// LoadConfig reads the config file and applies the command line overrides.
func (o *GlobalOptions) LoadConfig() (*config.Config, error) {
	vfs := o.Fs
	if vfs == nil {
		vfs = afero.NewOsFs()
	}
	cfg, err := config.Load(vfs, o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.LogDir != "" {
		cfg.LogDir = o.LogDir
	}
	if o.Verbosity > cfg.Verbosity {
		cfg.Verbosity = min(o.Verbosity, 2)
	}
	return cfg, nil
}

// NewServiceFn builds the Service behind every command. Tests may override
// it to inject mocks.
var NewServiceFn = NewServiceFromConfig

// NewServiceFromConfig wires the lock manager, the elevated runner and the
// collaborators for cfg.
func NewServiceFromConfig(cfg *config.Config) (*Service, error) {
	runner, err := elevate.NewRunner(elevate.Options{
		ScratchDir:     cfg.ScratchDir,
		ElevateCommand: cfg.ElevateCommand,
		Timeout:        cfg.Timeout(),
		Verbosity:      cfg.Verbosity,
	})
	if err != nil {
		return nil, err
	}

	lm := locks.NewDefaultManager()
	lm.Verbosity = cfg.Verbosity

	lc := printer.New(cfg.Printer(), runner)
	lc.Verbosity = cfg.Verbosity

	svc := NewService(lm, lc, fileio.NewStore(cfg.SessionDir, cfg.ScratchDir), defaultapp.NewChecker())
	svc.Verbosity = cfg.Verbosity
	if cfg.Verbosity >= 2 {
		log.Printf("DEBUG: using lock strategy %s, mandatory=%v", lm.StrategyName(), lm.Mandatory())
	}
	return svc, nil
}

// SetupLogging sends log output to w and, if logDir is set, also to
// pdfhelper.log in that directory. The returned func closes the log file.
func SetupLogging(vfs afero.Fs, logDir string, w io.Writer) func() {
	if logDir == "" {
		log.SetOutput(w)
		return func() {}
	}
	logFilePath := filepath.Join(logDir, "pdfhelper.log")
	logFile, err := vfs.OpenFile(logFilePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o660)
	if err != nil {
		log.SetOutput(w)
		log.Printf("Failed to open log for writing: %v \n", err)
		return func() {}
	}
	log.SetOutput(io.MultiWriter(w, logFile))
	return func() { logFile.Close() }
}

// prepare loads config, routes logging to stderr and builds the Service.
// Stdout is left for command output and the serve protocol.
func (o *GlobalOptions) prepare() (*config.Config, *Service, func(), error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	vfs := o.Fs
	if vfs == nil {
		vfs = afero.NewOsFs()
	}
	closeLog := SetupLogging(vfs, cfg.LogDir, os.Stderr)
	if cfg.Verbosity >= 2 {
		log.Printf("DEBUG: running with config: %+v", *cfg)
	}
	svc, err := NewServiceFn(cfg)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	return cfg, svc, closeLog, nil
}

// NewServeCmd returns the command the viewer starts as its long-lived helper.
func NewServeCmd(opts *GlobalOptions) *cobra.Command {
	var devMode bool
	cmd := &cobra.Command{
		Use:   "serve [file.pdf]",
		Short: "Answer newline delimited JSON requests on stdin until EOF",
		Long: `Reads one JSON request per line from stdin and writes one JSON response
per line to stdout:

  {"id":1,"command":"lock","args":{"path":"/home/me/a.pdf"}}
  {"id":1,"result":true}

Requests run concurrently; match responses by id. Locks are released
when stdin closes or the helper is interrupted.

A .pdf path given as an argument is what get_opened_file answers.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, closeLog, err := opts.prepare()
			if err != nil {
				return err
			}
			defer closeLog()

			svc.OpenedFile = openedFile(args)
			svc.DevMode = devMode
			if cfg.Verbosity >= 1 && svc.OpenedFile != "" {
				log.Printf("Started with %s", svc.OpenedFile)
			}

			srv := &Server{Service: svc, MaxConcurrent: cfg.MaxConcurrent, Verbosity: cfg.Verbosity}
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&devMode, "dev", false, "Report development mode to the viewer")
	return cmd
}

// openedFile returns the absolute path of the first .pdf argument, or "".
func openedFile(args []string) string {
	for _, arg := range args {
		if !strings.EqualFold(filepath.Ext(arg), ".pdf") {
			continue
		}
		abs, err := filepath.Abs(arg)
		if err != nil {
			return arg
		}
		return abs
	}
	return ""
}
