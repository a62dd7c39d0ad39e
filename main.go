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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/openpdfstudio/pdfhelper/commands"
	"github.com/spf13/cobra"
)

var (
	// These can be overridden at build time using ldflags. For example:
	// go build -v -o /usr/local/bin/pdfhelper -ldflags "-X main.Version=${VERSION}"
	Version = "unversioned"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		SilenceUsage: true,
		Use:          "pdfhelper",
		Short:        "Native helper for the Open PDF Studio viewer",
		Long: `pdfhelper performs the operations the viewer cannot: it holds files
open so other programs cannot overwrite them mid-edit and runs the
administrator-only printer setup behind the OS consent prompt.

The viewer runs "pdfhelper serve" and talks to it over stdin and stdout.`,
		Version: Version,
	}
	opts.AddFlags(rootCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of pdfhelper",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}

	rootCmd.AddCommand(
		commands.NewServeCmd(opts),
		commands.NewPrinterCmd(opts),
		versionCmd,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
