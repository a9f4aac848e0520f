// Package eventlog writes the structured per-day event log of backup runs.
package eventlog

import (
	"context"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/spf13/afero"

	"VelSave/internal/lock"
)

var logger = loggo.GetLogger("velsave.eventlog")

type Logger interface {
	Write(ctx context.Context, rec Record) error
}

type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatXML:
		return FormatXML, nil
	}
	return "", errors.NotSupportedf("log format %q", s)
}

func (f Format) ext() string {
	return "." + string(f)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Write(context.Context, Record) error { return nil }

type Options struct {
	Enabled bool
	Format  string
	Dir     string

	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Locker serialises writers. When nil a system mutex named after Dir
	// is used, waiting at most LockTimeout.
	Locker      lock.Locker
	LockTimeout time.Duration
	Clock       clock.Clock
}

// New returns a FileLogger when logging is enabled and Nop otherwise.
func New(opts Options) (Logger, error) {
	if !opts.Enabled {
		return Nop{}, nil
	}
	return NewFileLogger(opts)
}
