package printer

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// ErrFileNotFound is returned by Print when the document does not exist.
var ErrFileNotFound = errors.New("file to print does not exist")

// Print hands path to the OS document handler for printing. An empty
// printerName prints to the default printer. Rendering is the handler's job.
func (l *Lifecycle) Print(ctx context.Context, path string, printerName string) error {
	if path == "" {
		return fmt.Errorf("no file to print")
	}
	if l.Fs != nil {
		if _, err := l.Fs.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
	}
	if l.Verbosity >= 1 {
		log.Printf("Printing %s to %q", path, printerName)
	}

	var err error
	if l.windows() {
		_, err = l.powershell(ctx, printScript(path, printerName))
	} else {
		args := []string{}
		if printerName != "" {
			args = append(args, "-d", printerName)
		}
		args = append(args, "--", path)
		var out []byte
		out, err = l.executor()(ctx, "lp", args...)
		if err != nil && len(out) > 0 {
			err = fmt.Errorf("%w: %s", err, out)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to print %s: %w", path, err)
	}
	return nil
}
