package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/openpdfstudio/pdfhelper/printer"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"
	"golang.org/x/term"
)

// ConfirmPrompt is used to ask the user for confirmation before removing the
// printer. Tests can override this to avoid interactive prompts.
var ConfirmPrompt = func(prompt string) (bool, error) {
	fmt.Print(prompt)
	r := bufio.NewReader(os.Stdin)
	s, err := r.ReadString('\n')
	if err != nil {
		return false, err
	}
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "y" || s == "yes", nil
}

// IsTerminalFunc reports whether stdin is interactive.
var IsTerminalFunc = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type OutputFormat enumflag.Flag

const (
	OutputTable OutputFormat = iota
	OutputJSON
)

var OutputFormatIds = map[OutputFormat][]string{
	OutputTable: {"table"},
	OutputJSON:  {"json"},
}

// NewPrinterCmd returns the printer parent command with subcommands
func NewPrinterCmd(opts *GlobalOptions) *cobra.Command {
	printerCmd := &cobra.Command{
		Use:   "printer",
		Short: "Install, remove and inspect the virtual PDF printer",
		Args:  cobra.NoArgs,
	}

	// withService runs fn against a freshly built Service.
	withService := func(fn func(ctx context.Context, svc *Service) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			_, svc, closeLog, err := opts.prepare()
			if err != nil {
				return err
			}
			defer closeLog()
			defer svc.Close()
			return fn(cmd.Context(), svc)
		}
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the virtual printer (requires admin, prompts for consent)",
		Args:  cobra.NoArgs,
	}
	installCmd.RunE = withService(func(ctx context.Context, svc *Service) error {
		if err := svc.Printer.Install(ctx); err != nil {
			return err
		}
		fmt.Fprintf(installCmd.OutOrStdout(), "Installed printer %q\n", svc.Printer.Config.Name)
		return nil
	})

	var yes bool
	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the virtual printer and leftover ports (requires admin)",
		Args:  cobra.NoArgs,
	}
	removeCmd.RunE = withService(func(ctx context.Context, svc *Service) error {
		if !yes && IsTerminalFunc() {
			ok, err := ConfirmPrompt(fmt.Sprintf("Remove printer %q? [y/N]: ", svc.Printer.Config.Name))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(removeCmd.OutOrStdout(), "Aborted")
				return nil
			}
		}
		if err := svc.Printer.Remove(ctx); err != nil {
			return err
		}
		fmt.Fprintf(removeCmd.OutOrStdout(), "Removed printer %q\n", svc.Printer.Config.Name)
		return nil
	})
	removeCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Remove without confirmation")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the virtual printer is installed",
		Args:  cobra.NoArgs,
	}
	statusCmd.RunE = withService(func(ctx context.Context, svc *Service) error {
		state, err := svc.Printer.State(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(statusCmd.OutOrStdout(), "%s: %s\n", svc.Printer.Config.Name, state)
		return nil
	})

	output := OutputTable
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the printers known to the OS",
		Args:  cobra.NoArgs,
	}
	listCmd.RunE = withService(func(ctx context.Context, svc *Service) error {
		infos, err := svc.Printer.List(ctx)
		if err != nil {
			return err
		}
		return writePrinters(listCmd.OutOrStdout(), infos, output)
	})
	listCmd.Flags().Var(
		enumflag.New(&output, "output", OutputFormatIds, enumflag.EnumCaseInsensitive),
		"output",
		"Output format: table or json")

	var printerName string
	printCmd := &cobra.Command{
		Use:   "print <file>",
		Short: "Send a file to a printer through the OS document handler",
		Args:  cobra.ExactArgs(1),
	}
	printCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *Service) error {
			return svc.Printer.Print(ctx, args[0], printerName)
		})(cmd, args)
	}
	printCmd.Flags().StringVarP(&printerName, "printer", "p", "", "Printer name (default: the system default printer)")

	printerCmd.AddCommand(installCmd, removeCmd, statusCmd, listCmd, printCmd)
	return printerCmd
}

func writePrinters(w io.Writer, infos []printer.Info, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDRIVER\tSTATUS\tDEFAULT")
	for _, p := range infos {
		def := ""
		if p.IsDefault {
			def = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Driver, p.Status, def)
	}
	return tw.Flush()
}
