package lock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/spf13/afero"
)

const RunLockName = "velsave-run"

// Holder describes the process that owns a run lock file.
type Holder struct {
	PID      int       `json:"pid"`
	Owner    string    `json:"owner,omitempty"`
	Acquired time.Time `json:"acquired"`
}

func (h Holder) String() string {
	owner := h.Owner
	if owner == "" {
		owner = "unknown"
	}
	return fmt.Sprintf("pid %d running %s since %s", h.PID, owner, h.Acquired.Format(time.RFC3339))
}

// LocalLocker keeps job runs one at a time through an exclusively created
// lock file holding a Holder record. A record older than TTL is taken to be
// left behind by a crashed run and is replaced.
type LocalLocker struct {
	fs    afero.Fs
	clock clock.Clock
	path  string
	owner string
	ttl   time.Duration

	mu   sync.Mutex
	held *Holder
}

type LocalOptions struct {
	Dir  string
	Name string
	// Owner names what the lock is taken for, such as the job selection of a
	// run. It is reported to processes that find the lock held.
	Owner string
	TTL   time.Duration
	Fs    afero.Fs
	Clock clock.Clock
}

func DefaultLockDir() string {
	return filepath.Join(os.TempDir(), "velsave")
}

func NewLocal(opts LocalOptions) (*LocalLocker, error) {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultLockDir()
	}
	name := opts.Name
	if name == "" {
		name = RunLockName
	}
	if filepath.Base(name) != name {
		return nil, errors.NotValidf("lock name %q", name)
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	return &LocalLocker{
		fs:    opts.Fs,
		clock: opts.Clock,
		path:  filepath.Join(dir, name+".lock"),
		owner: opts.Owner,
		ttl:   opts.TTL,
	}, nil
}

func (l *LocalLocker) Path() string {
	return l.path
}

// Holder reads the current lock record. It fails with errors.NotFound when
// nobody holds the lock.
func (l *LocalLocker) Holder() (Holder, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if os.IsNotExist(err) {
		return Holder{}, errors.NotFoundf("run lock %s", l.path)
	}
	if err != nil {
		return Holder{}, errors.Annotatef(err, "read run lock %s", l.path)
	}
	var h Holder
	if err := json.Unmarshal(data, &h); err != nil {
		return Holder{}, errors.NotValidf("run lock %s contents", l.path)
	}
	return h, nil
}

func (l *LocalLocker) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held != nil {
		return errors.AlreadyExistsf("run lock %s in this process", l.path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.Annotatef(err, "create lock dir")
	}

	h := Holder{PID: os.Getpid(), Owner: l.owner, Acquired: l.clock.Now().UTC()}
	err := l.create(h)
	if os.IsExist(err) {
		if err = l.replaceStale(); err == nil {
			err = l.create(h)
		}
	}
	if err != nil {
		return errors.Annotatef(err, "acquire run lock")
	}
	l.held = &h
	return nil
}

func (l *LocalLocker) create(h Holder) error {
	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	data, _ := json.Marshal(h)
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		_ = l.fs.Remove(l.path)
		return errors.Annotatef(err, "write run lock %s", l.path)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = l.fs.Remove(l.path)
		return errors.Annotatef(err, "sync run lock %s", l.path)
	}
	return errors.Annotatef(f.Close(), "close run lock %s", l.path)
}

// replaceStale removes an existing lock file when its record is older than
// the TTL, and reports who holds it otherwise. Unreadable records are aged
// by the file's modification time.
func (l *LocalLocker) replaceStale() error {
	h, err := l.Holder()
	if errors.Is(err, errors.NotFound) {
		return nil
	}
	if err != nil && !errors.Is(err, errors.NotValid) {
		return errors.Trace(err)
	}
	since := h.Acquired
	if err != nil {
		info, statErr := l.fs.Stat(l.path)
		if statErr != nil {
			return errors.Annotatef(statErr, "stat run lock %s", l.path)
		}
		since = info.ModTime()
	}
	if l.ttl <= 0 || l.clock.Now().Sub(since) < l.ttl {
		if err != nil {
			return errors.AlreadyExistsf("run lock %s (unreadable record)", l.path)
		}
		return errors.AlreadyExistsf("run lock %s held by %s", l.path, h)
	}
	logger.Warningf("replacing stale run lock %s (%s)", l.path, h)
	if err := l.fs.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Annotatef(err, "remove stale run lock %s", l.path)
	}
	return nil
}

func (l *LocalLocker) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		return nil
	}
	defer func() { l.held = nil }()

	// Keep a record written by a process that replaced ours as stale.
	if h, err := l.Holder(); err == nil && (h.PID != l.held.PID || !h.Acquired.Equal(l.held.Acquired)) {
		return errors.Errorf("run lock %s taken over by %s", l.path, h)
	}
	if err := l.fs.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Annotatef(err, "release run lock %s", l.path)
	}
	return nil
}

var _ Locker = (*LocalLocker)(nil)
