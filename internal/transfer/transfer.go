package transfer

import (
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"VelSave/internal/fsys"
)

var logger = loggo.GetLogger("velsave.transfer")

const (
	CodeOK                 = 0
	CodeInvalidSource      = -1
	CodeInvalidDestination = -2
	CodeSourceNotFound     = -3
	// CodeIO is used for I/O failures that carry no native error number.
	CodeIO = -4
)

// Outcome is the result of one file copy attempt. On failure ElapsedMs is
// negative with a magnitude of at least one millisecond.
type Outcome struct {
	Bytes     int64
	ElapsedMs int64
	Code      int
	Err       error
}

func (o Outcome) IsSuccess() bool {
	return o.Code == CodeOK
}

type Transferer interface {
	// TransferFile never returns an error; failures are encoded in the
	// outcome.
	TransferFile(src, dst string, overwrite bool) Outcome
}

type Copier struct {
	fs    fsys.FileSystem
	clock clock.Clock
}

func NewCopier(fs fsys.FileSystem, clk clock.Clock) *Copier {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Copier{fs: fs, clock: clk}
}

func (c *Copier) TransferFile(src, dst string, overwrite bool) Outcome {
	if strings.TrimSpace(src) == "" {
		return failed(0, 0, CodeInvalidSource, errors.NotValidf("blank source path"))
	}
	if strings.TrimSpace(dst) == "" {
		return failed(0, 0, CodeInvalidDestination, errors.NotValidf("blank destination path"))
	}

	exists, err := c.fs.FileExists(src)
	if err != nil {
		return failed(0, 0, codeFor(err), err)
	}
	if !exists {
		return failed(0, 0, CodeSourceNotFound, errors.NotFoundf("source file %s", src))
	}

	if err := c.fs.CreateDirectory(filepath.Dir(dst)); err != nil {
		return failed(0, 0, codeFor(err), err)
	}

	start := c.clock.Now()
	n, err := c.fs.CopyFile(src, dst, overwrite)
	elapsed := c.clock.Now().Sub(start)
	if err != nil {
		logger.Warningf("copy %s -> %s failed after %d bytes: %v", src, dst, n, err)
		return failed(n, elapsed, codeFor(err), err)
	}
	return Outcome{Bytes: n, ElapsedMs: elapsed.Milliseconds(), Code: CodeOK}
}

func failed(n int64, elapsed time.Duration, code int, err error) Outcome {
	ms := elapsed.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return Outcome{Bytes: n, ElapsedMs: -ms, Code: code, Err: err}
}

// codeFor maps an I/O error to its negated native errno, or CodeIO when the
// error carries none.
func codeFor(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return -int(errno)
	}
	return CodeIO
}

var _ Transferer = (*Copier)(nil)
