package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/spf13/afero"

	"VelSave/internal/lock"
)

const (
	xmlHeader  = `<?xml version="1.0" encoding="utf-8"?>` + "\n"
	xmlOpen    = "<Logs>"
	xmlClose   = "</Logs>"
	jsonOpen   = "["
	jsonClose  = "]"
	entryInset = "  "
)

// FileLogger appends records to <Dir>/YYYY-MM-DD.json or .xml. The day is
// taken from the record timestamp in UTC. Each append rewrites only the
// closing tail of the container so the file stays a valid document.
type FileLogger struct {
	fs     afero.Fs
	dir    string
	format Format
	locker lock.Locker
	clock  clock.Clock
}

func NewFileLogger(opts Options) (*FileLogger, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.NotValidf("empty log directory")
	}
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, errors.Trace(err)
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	dir := filepath.Clean(opts.Dir)
	locker := opts.Locker
	if locker == nil {
		key := dir
		if abs, err := filepath.Abs(dir); err == nil {
			key = abs
		}
		m, err := lock.NewMutex(lock.MutexOptions{
			Name:    lock.MutexName("velsave-log", key),
			Timeout: opts.LockTimeout,
			Clock:   clk,
		})
		if err != nil {
			return nil, errors.Trace(err)
		}
		locker = m
	}
	return &FileLogger{fs: fs, dir: dir, format: format, locker: locker, clock: clk}, nil
}

func (l *FileLogger) Dir() string {
	return l.dir
}

// PathFor is the log file that holds records stamped with rec's day.
func (l *FileLogger) PathFor(rec Record) string {
	return filepath.Join(l.dir, rec.Timestamp.UTC().Format("2006-01-02")+l.format.ext())
}

func (l *FileLogger) Write(ctx context.Context, rec Record) error {
	if rec.Timestamp.IsZero() {
		rec = rec.WithTimestamp(l.clock.Now())
	}
	entry, err := l.encode(rec)
	if err != nil {
		return errors.Annotate(err, "encode log record")
	}
	if err := l.locker.Acquire(ctx); err != nil {
		return errors.Annotate(err, "lock event log")
	}
	defer func() {
		if err := l.locker.Release(ctx); err != nil {
			logger.Warningf("release event log lock: %v", err)
		}
	}()

	if err := l.fs.MkdirAll(l.dir, 0o755); err != nil {
		return errors.Annotatef(err, "create log dir %s", l.dir)
	}
	path := l.PathFor(rec)
	if err := l.appendEntry(path, entry); err != nil {
		return errors.Annotatef(err, "append to %s", path)
	}
	logger.Tracef("%s %s -> %s", rec.Event, rec.Source, rec.Destination)
	return nil
}

func (l *FileLogger) encode(rec Record) ([]byte, error) {
	if l.format == FormatXML {
		return xml.MarshalIndent(rec, entryInset, entryInset)
	}
	return json.MarshalIndent(rec, entryInset, entryInset)
}

func (l *FileLogger) appendEntry(path string, entry []byte) error {
	f, err := l.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	existing, err := io.ReadAll(f)
	if err != nil {
		_ = f.Close()
		return err
	}

	var (
		offset int64
		chunk  []byte
	)
	if len(bytes.TrimSpace(existing)) == 0 {
		chunk = l.fresh(entry)
	} else {
		offset, chunk, err = l.tail(existing, entry)
		if err != nil {
			_ = f.Close()
			return err
		}
	}
	if _, err := f.WriteAt(chunk, offset); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// fresh is a whole document holding a single entry.
func (l *FileLogger) fresh(entry []byte) []byte {
	var b bytes.Buffer
	if l.format == FormatXML {
		b.WriteString(xmlHeader)
		b.WriteString(xmlOpen + "\n")
		b.WriteString(entryInset)
		b.Write(entry)
		b.WriteString("\n" + xmlClose + "\n")
		return b.Bytes()
	}
	b.WriteString(jsonOpen + "\n")
	b.WriteString(entryInset)
	b.Write(entry)
	b.WriteString("\n" + jsonClose + "\n")
	return b.Bytes()
}

// tail locates the closing token of an existing document and returns the
// offset to overwrite from and the bytes replacing it.
func (l *FileLogger) tail(existing, entry []byte) (int64, []byte, error) {
	closing := jsonClose
	if l.format == FormatXML {
		closing = xmlClose
	}
	idx := bytes.LastIndex(existing, []byte(closing))
	if idx < 0 {
		return 0, nil, errors.NotValidf("log file without closing %s", closing)
	}
	head := bytes.TrimRight(existing[:idx], " \t\r\n")
	offset := int64(len(head))

	var b bytes.Buffer
	if l.format == FormatJSON && !bytes.HasSuffix(head, []byte(jsonOpen)) {
		b.WriteString(",")
	}
	b.WriteString("\n" + entryInset)
	b.Write(entry)
	b.WriteString("\n" + closing + "\n")
	return offset, b.Bytes(), nil
}

var _ Logger = (*FileLogger)(nil)
