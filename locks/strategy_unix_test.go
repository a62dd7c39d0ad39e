//go:build !windows
// +build !windows

package locks

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func tryExclusiveFlock(t *testing.T, path string) error {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	}
	return err
}

func TestAdvisoryStrategyBlocksCooperatingWriters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))

	m := NewManager(NewTable(), DefaultStrategy(afero.NewOsFs()))
	require.False(t, m.Mandatory())

	_, err := m.Lock(path)
	require.NoError(t, err)
	require.ErrorIs(t, tryExclusiveFlock(t, path), unix.EWOULDBLOCK)

	_, err = m.Unlock(path)
	require.NoError(t, err)
	require.NoError(t, tryExclusiveFlock(t, path))

	// The file content is never touched.
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(content))
}

func TestAdvisoryStrategyHeldElsewhere(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	other, err := os.Open(path)
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, unix.Flock(int(other.Fd()), unix.LOCK_EX|unix.LOCK_NB))

	m := NewManager(NewTable(), DefaultStrategy(afero.NewOsFs()))
	ok, err := m.Lock(path)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrLockHeld)
	require.False(t, m.IsLocked(path))
}

func TestAdvisoryStrategyErrors(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(NewTable(), DefaultStrategy(afero.NewOsFs()))

	_, err := m.Lock(filepath.Join(dir, "missing.pdf"))
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = m.Lock(dir)
	require.ErrorIs(t, err, ErrIsDirectory)
}

func TestAdvisoryStrategyInMemory(t *testing.T) {
	memFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFs, "/docs/a.pdf", []byte("x"), 0o644))

	m := NewManager(NewTable(), DefaultStrategy(memFs))
	ok, err := m.Lock("/docs/a.pdf")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, m.IsLocked("/docs/a.pdf"))

	ok, err = m.Unlock("/docs/a.pdf")
	require.NoError(t, err)
	require.True(t, ok)
}
