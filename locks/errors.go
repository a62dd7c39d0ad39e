package locks

import (
	"errors"
	"fmt"
)

var (
	// ErrLockHeld is returned when another process already holds a
	// conflicting lock on the file.
	ErrLockHeld = errors.New("file is locked by another process")

	ErrIsDirectory = errors.New("path is a directory")
	ErrEmptyPath   = errors.New("path is empty")
)

// IOError reports a failure to open, lock or release a file. The wrapped
// error is the OS error, so errors.Is(err, fs.ErrNotExist) and friends work.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s file %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
