//go:build !windows
// +build !windows

package elevate

import "os"

// pkexec goes through polkit, which shows the desktop's own consent dialog.
const defaultElevateCommand = "pkexec"

// IsElevated returns true if the current process is running as root.
func IsElevated() (bool, error) {
	return os.Geteuid() == 0, nil
}

func defaultDialect() Dialect {
	return POSIXShell{}
}

func defaultLauncher(elevateCommand string) (Launcher, error) {
	if elevateCommand == "" {
		elevateCommand = defaultElevateCommand
	}
	return NewCommandLauncher(elevateCommand)
}
