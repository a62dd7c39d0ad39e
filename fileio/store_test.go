package fileio

import (
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return &Store{
		Fs:         afero.NewMemMapFs(),
		SessionDir: "/data/OpenPDFStudio",
		ScratchDir: "/tmp",
	}
}

func TestSession(t *testing.T) {
	s := newTestStore()

	_, ok := s.LoadSession()
	require.False(t, ok)

	require.NoError(t, s.SaveSession(`{"tabs":["/a.pdf"]}`))
	data, ok := s.LoadSession()
	require.True(t, ok)
	require.Equal(t, `{"tabs":["/a.pdf"]}`, data)

	require.NoError(t, s.SaveSession(`{}`))
	data, _ = s.LoadSession()
	require.Equal(t, `{}`, data)

	exists, err := afero.Exists(s.Fs, s.SessionPath()+".tmp")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestSaveSessionReadOnly(t *testing.T) {
	s := newTestStore()
	s.Fs = afero.NewReadOnlyFs(s.Fs)
	require.Error(t, s.SaveSession("{}"))
}

func TestReadWriteBase64(t *testing.T) {
	s := newTestStore()
	payload := []byte("%PDF-1.7\n\x00\xff binary")

	require.NoError(t, s.WriteBase64("/docs/out.pdf", base64.StdEncoding.EncodeToString(payload)))
	got, err := s.ReadFile("/docs/out.pdf")
	require.NoError(t, err)
	require.Equal(t, payload, got)

	require.Error(t, s.WriteBase64("/docs/bad.pdf", "not base64!"))
	require.False(t, s.Exists("/docs/bad.pdf"))

	_, err = s.ReadFile("/docs/missing.pdf")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestExists(t *testing.T) {
	s := newTestStore()
	require.NoError(t, afero.WriteFile(s.Fs, "/docs/a.pdf", nil, 0o644))

	require.True(t, s.Exists("/docs/a.pdf"))
	require.True(t, s.Exists("/docs"))
	require.False(t, s.Exists("/docs/b.pdf"))
	require.False(t, s.Exists(""))
}

func TestTempPDF(t *testing.T) {
	s := newTestStore()

	path, err := s.WriteTempPDF([]byte("%PDF"))
	require.NoError(t, err)
	require.Equal(t, filepath.Clean(s.ScratchDir), filepath.Dir(path))
	require.True(t, strings.HasPrefix(filepath.Base(path), TempPDFPrefix))
	require.True(t, strings.HasSuffix(path, ".pdf"))

	other, err := s.WriteTempPDF([]byte("%PDF"))
	require.NoError(t, err)
	require.NotEqual(t, path, other)

	require.NoError(t, s.DeleteTempFile(path))
	require.False(t, s.Exists(path))
	require.NoError(t, s.DeleteTempFile(path), "deleting twice is fine")
	require.True(t, s.Exists(other))
}

// flushFailFs hands out files whose Close fails, like a disk that fills
// up when buffered data is flushed.
type flushFailFs struct {
	afero.Fs
}

func (f flushFailFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return flushFailFile{file}, nil
}

type flushFailFile struct {
	afero.File
}

func (f flushFailFile) Close() error {
	_ = f.File.Close()
	return errors.New("no space left on device")
}

func TestWriteTempPDFReportsCloseFailure(t *testing.T) {
	mem := afero.NewMemMapFs()
	s := &Store{Fs: flushFailFs{mem}, ScratchDir: "/tmp"}

	path, err := s.WriteTempPDF([]byte("%PDF"))
	require.ErrorContains(t, err, "no space left on device")
	require.Empty(t, path)

	entries, err := afero.ReadDir(mem, "/tmp")
	require.NoError(t, err)
	require.Empty(t, entries, "a partial file must not be left behind")
}

func TestDeleteTempFileRejectsOtherFiles(t *testing.T) {
	s := newTestStore()
	require.NoError(t, afero.WriteFile(s.Fs, "/docs/report.pdf", nil, 0o644))
	require.NoError(t, afero.WriteFile(s.Fs, "/tmp/notes.pdf", nil, 0o644))

	for _, p := range []string{
		"/docs/report.pdf",
		"/tmp/notes.pdf",
		"/tmp/sub/" + TempPDFPrefix + "1.pdf",
		"/tmp/" + TempPDFPrefix + "1.txt",
		"/tmp/../docs/report.pdf",
	} {
		require.ErrorIs(t, s.DeleteTempFile(p), ErrNotTempFile, p)
	}
	require.True(t, s.Exists("/docs/report.pdf"))
	require.True(t, s.Exists("/tmp/notes.pdf"))
}
