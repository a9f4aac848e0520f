package transfer

import (
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VelSave/internal/fsys"
)

type recordingFS struct {
	fsys.FileSystem
	copies  int
	copyErr error
}

func (r *recordingFS) CopyFile(src, dst string, overwrite bool) (int64, error) {
	r.copies++
	if r.copyErr != nil {
		return 3, r.copyErr
	}
	return r.FileSystem.CopyFile(src, dst, overwrite)
}

func newFS(t *testing.T, files map[string]string) (*recordingFS, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	for p, content := range files {
		require.NoError(t, mem.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, afero.WriteFile(mem, p, []byte(content), 0o644))
	}
	return &recordingFS{FileSystem: fsys.New(mem)}, mem
}

func TestTransferFile_Success(t *testing.T) {
	fs, mem := newFS(t, map[string]string{"/src/dir/a.txt": "hello"})
	c := NewCopier(fs, testclock.NewClock(time.Now()))

	out := c.TransferFile("/src/dir/a.txt", "/dst/dir/a.txt", true)
	require.True(t, out.IsSuccess(), "outcome: %+v", out)
	assert.EqualValues(t, 5, out.Bytes)
	assert.EqualValues(t, 0, out.ElapsedMs)
	assert.NoError(t, out.Err)

	data, err := afero.ReadFile(mem, "/dst/dir/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestTransferFile_BlankPaths(t *testing.T) {
	fs, _ := newFS(t, nil)
	c := NewCopier(fs, nil)

	out := c.TransferFile("  ", "/dst/a.txt", true)
	assert.False(t, out.IsSuccess())
	assert.Equal(t, CodeInvalidSource, out.Code)
	assert.Negative(t, out.ElapsedMs)
	assert.True(t, errors.Is(out.Err, errors.NotValid))

	out = c.TransferFile("/src/a.txt", "", true)
	assert.Equal(t, CodeInvalidDestination, out.Code)
	assert.Negative(t, out.ElapsedMs)

	assert.Zero(t, fs.copies)
}

func TestTransferFile_SourceNotFoundNeverCopies(t *testing.T) {
	fs, _ := newFS(t, nil)
	c := NewCopier(fs, nil)

	out := c.TransferFile("/src/missing.txt", "/dst/missing.txt", true)
	assert.False(t, out.IsSuccess())
	assert.Equal(t, CodeSourceNotFound, out.Code)
	assert.Zero(t, out.Bytes)
	assert.LessOrEqual(t, out.ElapsedMs, int64(-1))
	assert.True(t, errors.Is(out.Err, errors.NotFound))
	assert.Zero(t, fs.copies, "copy primitive must not be invoked")
}

func TestTransferFile_IOErrorCarriesErrno(t *testing.T) {
	fs, _ := newFS(t, map[string]string{"/src/a.txt": "hello"})
	fs.copyErr = &syscallPathError{errno: syscall.ENOSPC}
	c := NewCopier(fs, testclock.NewClock(time.Now()))

	out := c.TransferFile("/src/a.txt", "/dst/a.txt", true)
	assert.False(t, out.IsSuccess())
	assert.Equal(t, -int(syscall.ENOSPC), out.Code)
	assert.EqualValues(t, 3, out.Bytes, "partial byte count is reported")
	assert.EqualValues(t, -1, out.ElapsedMs)
	assert.Equal(t, 1, fs.copies)
}

func TestTransferFile_IOErrorWithoutErrno(t *testing.T) {
	fs, _ := newFS(t, map[string]string{"/src/a.txt": "hello"})
	fs.copyErr = errors.New("device went away")
	c := NewCopier(fs, nil)

	out := c.TransferFile("/src/a.txt", "/dst/a.txt", true)
	assert.Equal(t, CodeIO, out.Code)
	assert.Negative(t, out.ElapsedMs)
}

type syscallPathError struct {
	errno syscall.Errno
}

func (e *syscallPathError) Error() string { return "write /dst/a.txt: " + e.errno.Error() }
func (e *syscallPathError) Unwrap() error { return e.errno }
