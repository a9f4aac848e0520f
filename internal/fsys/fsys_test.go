package fsys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemFS(t *testing.T, files map[string]string) *Afero {
	t.Helper()
	mem := afero.NewMemMapFs()
	for p, content := range files {
		require.NoError(t, mem.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, afero.WriteFile(mem, p, []byte(content), 0o644))
	}
	return New(mem)
}

func TestBlankPathsAreNotValid(t *testing.T) {
	fs := newMemFS(t, nil)

	for _, p := range []string{"", "   ", "\t\n"} {
		_, err := fs.DirectoryExists(p)
		assert.True(t, errors.Is(err, errors.NotValid), "DirectoryExists(%q): %v", p, err)

		err = fs.CreateDirectory(p)
		assert.True(t, errors.Is(err, errors.NotValid), "CreateDirectory(%q): %v", p, err)

		_, err = fs.FileExists(p)
		assert.True(t, errors.Is(err, errors.NotValid), "FileExists(%q): %v", p, err)

		_, err = fs.FileSize(p)
		assert.True(t, errors.Is(err, errors.NotValid), "FileSize(%q): %v", p, err)

		_, err = fs.EnumerateFiles(p)
		assert.True(t, errors.Is(err, errors.NotValid), "EnumerateFiles(%q): %v", p, err)

		_, err = fs.EnumerateDirectories(p)
		assert.True(t, errors.Is(err, errors.NotValid), "EnumerateDirectories(%q): %v", p, err)

		_, err = fs.CopyFile(p, "/dst", true)
		assert.True(t, errors.Is(err, errors.NotValid), "CopyFile(%q, ...): %v", p, err)

		_, err = fs.CopyFile("/src", p, true)
		assert.True(t, errors.Is(err, errors.NotValid), "CopyFile(..., %q): %v", p, err)
	}
}

func TestExistence(t *testing.T) {
	fs := newMemFS(t, map[string]string{"/src/a.txt": "hello"})

	ok, err := fs.DirectoryExists("/src")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.DirectoryExists("/src/a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fs.FileExists("/src/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.FileExists("/src")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fs.FileExists("/src/missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileSize(t *testing.T) {
	fs := newMemFS(t, map[string]string{"/src/a.txt": "hello"})

	size, err := fs.FileSize("/src/a.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	_, err = fs.FileSize("/src/missing.txt")
	assert.True(t, errors.Is(err, errors.NotFound), "got %v", err)

	_, err = fs.FileSize("/src")
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
}

func TestCreateDirectoryIsIdempotent(t *testing.T) {
	fs := newMemFS(t, nil)

	require.NoError(t, fs.CreateDirectory("/dst/a/b/c"))
	require.NoError(t, fs.CreateDirectory("/dst/a/b/c"))

	for _, d := range []string{"/dst", "/dst/a", "/dst/a/b", "/dst/a/b/c"} {
		ok, err := fs.DirectoryExists(d)
		require.NoError(t, err)
		assert.True(t, ok, d)
	}
}

func TestEnumerateIsSortedAndNonRecursive(t *testing.T) {
	fs := newMemFS(t, map[string]string{
		"/src/b.txt":        "b",
		"/src/a.txt":        "a",
		"/src/z/inner.txt":  "i",
		"/src/m/deep/x.txt": "x",
	})

	files, err := fs.EnumerateFiles("/src")
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a.txt", "/src/b.txt"}, files)

	dirs, err := fs.EnumerateDirectories("/src")
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/m", "/src/z"}, dirs)

	_, err = fs.EnumerateFiles("/missing")
	assert.Error(t, err)
}

func symlinkOrSkip(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

func TestEnumerateFollowsLinks(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	other := filepath.Join(root, "other")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.MkdirAll(other, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(other, "b.txt"), []byte("bb"), 0o644))

	symlinkOrSkip(t, other, filepath.Join(src, "linked"))
	symlinkOrSkip(t, filepath.Join(src, "a.txt"), filepath.Join(src, "alias.txt"))
	symlinkOrSkip(t, filepath.Join(root, "missing"), filepath.Join(src, "dangling"))
	symlinkOrSkip(t, src, filepath.Join(src, "sub", "up"))

	fs := NewOS()

	files, err := fs.EnumerateFiles(src)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(src, "a.txt"), filepath.Join(src, "alias.txt")}, files)
	for _, f := range files {
		_, err := fs.FileSize(f)
		assert.NoError(t, err, f)
	}

	dirs, err := fs.EnumerateDirectories(src)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(src, "linked"), filepath.Join(src, "sub")}, dirs)

	inner, err := fs.EnumerateFiles(filepath.Join(src, "linked"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(src, "linked", "b.txt")}, inner)

	loops, err := fs.EnumerateDirectories(filepath.Join(src, "sub"))
	require.NoError(t, err)
	assert.Empty(t, loops)
	subFiles, err := fs.EnumerateFiles(filepath.Join(src, "sub"))
	require.NoError(t, err)
	assert.Empty(t, subFiles)
}

func TestCopyFile(t *testing.T) {
	fs := newMemFS(t, map[string]string{
		"/src/a.txt": "hello world",
		"/dst/a.txt": "old",
	})

	_, err := fs.CopyFile("/src/a.txt", "/dst/a.txt", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist), "got %v", err)

	n, err := fs.CopyFile("/src/a.txt", "/dst/a.txt", true)
	require.NoError(t, err)
	assert.EqualValues(t, 11, n)

	data, err := afero.ReadFile(fs.fs, "/dst/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	_, err = fs.CopyFile("/src/missing.txt", "/dst/missing.txt", true)
	assert.True(t, os.IsNotExist(err), "got %v", err)
}

func TestJoinAndRel(t *testing.T) {
	fs := newMemFS(t, nil)

	assert.Equal(t, filepath.Join("/dst", "folder", "file.txt"), fs.Join("/dst", "folder", "file.txt"))

	rel, err := fs.Rel("/src", "/src/folder/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("folder", "file.txt"), rel)

	_, err = fs.Rel(" ", "/src/x")
	assert.True(t, errors.Is(err, errors.NotValid))
}
