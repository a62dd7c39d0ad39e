//go:build windows
// +build windows

package locks

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sys/windows"
)

// ShareReadStrategy opens files with GENERIC_READ and FILE_SHARE_READ only.
// While the handle is open the OS rejects any other open that asks for
// write or delete access, so the lock is mandatory.
type ShareReadStrategy struct{}

func newPlatformStrategy(_ afero.Fs) Strategy {
	return &ShareReadStrategy{}
}

func (s *ShareReadStrategy) Acquire(path string) (Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}

	h, err := windows.CreateFile(
		p,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		switch {
		case errors.Is(err, windows.ERROR_SHARING_VIOLATION):
			return nil, fmt.Errorf("%w: %v", ErrLockHeld, err)
		case errors.Is(err, windows.ERROR_ACCESS_DENIED):
			// CreateFile on a directory without FILE_FLAG_BACKUP_SEMANTICS
			if fi, statErr := os.Stat(path); statErr == nil && fi.IsDir() {
				return nil, ErrIsDirectory
			}
		}
		return nil, err
	}
	return os.NewFile(uintptr(h), path), nil
}

func (s *ShareReadStrategy) Mandatory() bool {
	return true
}

func (s *ShareReadStrategy) Name() string {
	return "share-read"
}
