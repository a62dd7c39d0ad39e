//go:build !windows
// +build !windows

package elevate

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/afero"
)

// verifyScript refuses to elevate a script that someone other than us
// could have rewritten after we wrote it.
func verifyScript(vfs afero.Fs, path string) error {
	fi, err := vfs.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat script: %w", err)
	}
	if mode := fi.Mode().Perm(); mode&0o022 != 0 {
		return fmt.Errorf("script %s is writable by others (mode %o)", path, mode)
	}
	// Sys() is unavailable on in-memory filesystems
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		if uid := os.Geteuid(); int(st.Uid) != uid {
			return fmt.Errorf("script %s is owned by uid %d, expected %d", path, st.Uid, uid)
		}
	}
	return nil
}
