package lock

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/mutex/v2"
	"github.com/zeebo/blake3"
)

const (
	DefaultMutexTimeout = 10 * time.Second
	DefaultMutexDelay   = 20 * time.Millisecond

	maxMutexName = 40
)

// MutexName derives a valid system mutex name from a prefix and an arbitrary
// key such as a directory path. Equal keys always map to the same name.
func MutexName(prefix, key string) string {
	sum := blake3.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	n := maxMutexName - len(prefix) - 1
	if n < 8 {
		n = 8
	}
	if n > len(digest) {
		n = len(digest)
	}
	return prefix + "-" + digest[:n]
}

type MutexOptions struct {
	Name    string
	Timeout time.Duration
	Delay   time.Duration
	Clock   clock.Clock
}

// MutexLocker is a named, system-wide mutex. Acquire waits at most Timeout
// and then fails with an errors.Timeout error.
type MutexLocker struct {
	spec     mutex.Spec
	mu       sync.Mutex
	releaser mutex.Releaser
}

func NewMutex(opts MutexOptions) (*MutexLocker, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultMutexTimeout
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultMutexDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	spec := mutex.Spec{
		Name:    opts.Name,
		Clock:   opts.Clock,
		Delay:   opts.Delay,
		Timeout: opts.Timeout,
	}
	if err := spec.Validate(); err != nil {
		return nil, errors.Annotatef(err, "mutex %q", opts.Name)
	}
	return &MutexLocker{spec: spec}, nil
}

func (l *MutexLocker) Name() string {
	return l.spec.Name
}

func (l *MutexLocker) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.releaser != nil {
		return errors.Errorf("mutex %q already held by this locker", l.spec.Name)
	}
	spec := l.spec
	spec.Cancel = ctx.Done()
	r, err := mutex.Acquire(spec)
	switch {
	case err == nil:
		l.releaser = r
		return nil
	case errors.Is(err, mutex.ErrTimeout):
		return errors.Timeoutf("acquiring mutex %q within %s", l.spec.Name, l.spec.Timeout)
	case errors.Is(err, mutex.ErrCancelled):
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Trace(err)
	default:
		return errors.Annotatef(err, "acquire mutex %q", l.spec.Name)
	}
}

func (l *MutexLocker) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.releaser == nil {
		return nil
	}
	l.releaser.Release()
	l.releaser = nil
	return nil
}

var _ Locker = (*MutexLocker)(nil)
