//go:build !windows
// +build !windows

package locks

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// AdvisoryStrategy opens files read-only and takes a shared, non-blocking
// flock(2). Other processes that also use flock will see the lock; plain
// writers will not. Files without a descriptor (in-memory filesystems)
// are only held open.
type AdvisoryStrategy struct {
	Fs afero.Fs
}

func newPlatformStrategy(fs afero.Fs) Strategy {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &AdvisoryStrategy{Fs: fs}
}

type fder interface {
	Fd() uintptr
}

func (s *AdvisoryStrategy) Acquire(path string) (Handle, error) {
	info, err := s.Fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrIsDirectory
	}

	f, err := s.Fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}

	if fd, ok := f.(fder); ok {
		if err := unix.Flock(int(fd.Fd()), unix.LOCK_SH|unix.LOCK_NB); err != nil {
			_ = f.Close()
			if errors.Is(err, unix.EWOULDBLOCK) {
				return nil, ErrLockHeld
			}
			return nil, fmt.Errorf("flock: %w", err)
		}
	}
	return f, nil
}

func (s *AdvisoryStrategy) Mandatory() bool {
	return false
}

func (s *AdvisoryStrategy) Name() string {
	return "advisory-flock"
}
