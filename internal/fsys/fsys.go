// Package fsys is the filesystem port used by the backup engine and the
// transfer layer. Paths are passed through as given; callers compose them
// with Join and Rel.
package fsys

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/spf13/afero"
)

var logger = loggo.GetLogger("velsave.fsys")

// FileSystem is the set of operations the engine needs from a filesystem.
// Every path-taking method fails with an errors.NotValid error when the path
// is empty or whitespace only.
type FileSystem interface {
	DirectoryExists(path string) (bool, error)
	// CreateDirectory creates path and any missing parents. It is a no-op
	// when the directory already exists.
	CreateDirectory(path string) error
	FileExists(path string) (bool, error)
	// FileSize fails with errors.NotFound when the file does not exist.
	FileSize(path string) (int64, error)
	// EnumerateFiles lists the regular files directly inside dir, sorted by
	// name. Symbolic links are classified by their target; dangling links
	// are left out.
	EnumerateFiles(dir string) ([]string, error)
	// EnumerateDirectories lists the subdirectories directly inside dir,
	// sorted by name. A link to dir itself or one of its ancestors is left
	// out so a walk always terminates.
	EnumerateDirectories(dir string) ([]string, error)
	CopyFile(src, dst string, overwrite bool) (int64, error)
	Join(elem ...string) string
	Rel(base, target string) (string, error)
}

// Afero implements FileSystem on top of an afero.Fs.
type Afero struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Afero {
	return &Afero{fs: fs}
}

// NewOS returns a FileSystem backed by the host filesystem.
func NewOS() *Afero {
	return New(afero.NewOsFs())
}

func checkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NotValidf("blank path")
	}
	return nil
}

func (a *Afero) DirectoryExists(path string) (bool, error) {
	if err := checkPath(path); err != nil {
		return false, err
	}
	ok, err := afero.DirExists(a.fs, path)
	if err != nil {
		return false, errors.Annotatef(err, "stat %s", path)
	}
	return ok, nil
}

func (a *Afero) CreateDirectory(path string) error {
	if err := checkPath(path); err != nil {
		return err
	}
	if err := a.fs.MkdirAll(path, 0o755); err != nil {
		return errors.Annotatef(err, "create directory %s", path)
	}
	return nil
}

func (a *Afero) FileExists(path string) (bool, error) {
	if err := checkPath(path); err != nil {
		return false, err
	}
	info, err := a.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Annotatef(err, "stat %s", path)
	}
	return !info.IsDir(), nil
}

func (a *Afero) FileSize(path string) (int64, error) {
	if err := checkPath(path); err != nil {
		return 0, err
	}
	info, err := a.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NotFoundf("file %s", path)
		}
		return 0, errors.Annotatef(err, "stat %s", path)
	}
	if info.IsDir() {
		return 0, errors.NotValidf("file %s (is a directory)", path)
	}
	return info.Size(), nil
}

func (a *Afero) EnumerateFiles(dir string) ([]string, error) {
	return a.list(dir, false)
}

func (a *Afero) EnumerateDirectories(dir string) ([]string, error) {
	return a.list(dir, true)
}

func (a *Afero) list(dir string, dirs bool) ([]string, error) {
	if err := checkPath(dir); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		return nil, errors.Annotatef(err, "read directory %s", dir)
	}
	var out []string
	for _, info := range infos {
		p := filepath.Join(dir, info.Name())
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := a.fs.Stat(p)
			if err != nil {
				if !dirs {
					logger.Warningf("skip %s: dangling link: %v", p, err)
				}
				continue
			}
			if target.IsDir() && a.isAncestor(dir, target) {
				if dirs {
					logger.Warningf("skip %s: links back to %s", p, dir)
				}
				continue
			}
			info = target
		}
		if dirs {
			if info.IsDir() {
				out = append(out, p)
			}
			continue
		}
		if info.Mode().IsRegular() {
			out = append(out, p)
		} else if !info.IsDir() {
			logger.Debugf("skip %s: not a regular file (%s)", p, info.Mode().Type())
		}
	}
	sort.Strings(out)
	return out, nil
}

// isAncestor reports whether target is dir or one of its parents.
func (a *Afero) isAncestor(dir string, target os.FileInfo) bool {
	for cur := filepath.Clean(dir); ; {
		if info, err := a.fs.Stat(cur); err == nil && os.SameFile(info, target) {
			return true
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return false
		}
		cur = parent
	}
}

// CopyFile copies src to dst and returns the number of bytes written. When
// overwrite is false and dst exists the copy fails with os.ErrExist.
func (a *Afero) CopyFile(src, dst string, overwrite bool) (int64, error) {
	if err := checkPath(src); err != nil {
		return 0, err
	}
	if err := checkPath(dst); err != nil {
		return 0, err
	}
	if !overwrite {
		if _, err := a.fs.Stat(dst); err == nil {
			return 0, &os.PathError{Op: "copy", Path: dst, Err: os.ErrExist}
		}
	}

	in, err := a.fs.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	mode := os.FileMode(0o644)
	if info, err := in.Stat(); err == nil {
		mode = info.Mode().Perm()
	}
	out, err := a.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, err
	}
	if err := out.Close(); err != nil {
		return n, err
	}
	return n, nil
}

func (a *Afero) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func (a *Afero) Rel(base, target string) (string, error) {
	if err := checkPath(base); err != nil {
		return "", err
	}
	if err := checkPath(target); err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", errors.Trace(err)
	}
	return rel, nil
}

var _ FileSystem = (*Afero)(nil)
