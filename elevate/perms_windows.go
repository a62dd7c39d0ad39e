//go:build windows
// +build windows

package elevate

import (
	"fmt"

	"github.com/spf13/afero"
)

// verifyScript only checks the script is still there. Go reports synthetic
// mode bits on windows; the per-user temp directory's ACL protects it.
func verifyScript(vfs afero.Fs, path string) error {
	if _, err := vfs.Stat(path); err != nil {
		return fmt.Errorf("failed to stat script: %w", err)
	}
	return nil
}
