// Package engine executes backup jobs: it walks the source tree, decides per
// file whether the policy calls for a copy, transfers it and reports
// progress after every copy.
package engine

import (
	"context"
	"path/filepath"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"VelSave/internal/eventlog"
	"VelSave/internal/fsys"
	"VelSave/internal/job"
	"VelSave/internal/state"
	"VelSave/internal/transfer"
)

var logger = loggo.GetLogger("velsave.engine")

const ErrUnsupportedPolicy = errors.ConstError("unsupported backup policy")

// ProgressSink receives a snapshot after every state change of a run.
type ProgressSink interface {
	Update(p state.Progress) error
}

type Config struct {
	FS       fsys.FileSystem
	Transfer transfer.Transferer
	Sink     ProgressSink
	// Log defaults to eventlog.Nop.
	Log   eventlog.Logger
	Clock clock.Clock
}

func (c Config) Validate() error {
	if c.FS == nil {
		return errors.NotValidf("nil FS")
	}
	if c.Transfer == nil {
		return errors.NotValidf("nil Transfer")
	}
	if c.Sink == nil {
		return errors.NotValidf("nil Sink")
	}
	return nil
}

type Engine struct {
	fs       fsys.FileSystem
	transfer transfer.Transferer
	sink     ProgressSink
	log      eventlog.Logger
	clock    clock.Clock
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Log == nil {
		cfg.Log = eventlog.Nop{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	return &Engine{
		fs:       cfg.FS,
		transfer: cfg.Transfer,
		sink:     cfg.Sink,
		log:      cfg.Log,
		clock:    cfg.Clock,
	}, nil
}

// Summary counts what a run did. Failed transfers are counted here and in
// the event log; they never make Execute return an error.
type Summary struct {
	Total   int
	Copied  int
	Skipped int
	Failed  int
	Bytes   int64
}

type sourceFile struct {
	path string
	size int64
}

// run carries the counters of one Execute call.
type run struct {
	job            job.Job
	totalFiles     int
	totalBytes     int64
	remainingFiles int
	remainingBytes int64
	summary        Summary
}

func (r *run) snapshot(status state.Status, src, dst string) state.Progress {
	return state.Progress{
		JobID:              r.job.ID,
		JobName:            r.job.Name,
		Status:             status,
		TotalFiles:         r.totalFiles,
		TotalBytes:         r.totalBytes,
		RemainingFiles:     r.remainingFiles,
		RemainingBytes:     r.remainingBytes,
		Percent:            state.Percent(r.totalFiles-r.remainingFiles, r.totalFiles),
		CurrentSource:      src,
		CurrentDestination: dst,
	}
}

// Execute runs j to completion. Files are processed one at a time in
// traversal order; the context is checked between files.
func (e *Engine) Execute(ctx context.Context, j job.Job) (Summary, error) {
	r := &run{job: j}
	if !j.Policy.Valid() {
		return r.summary, e.fail(r, errors.Annotatef(ErrUnsupportedPolicy, "job %q type %q", j.Name, j.Policy))
	}

	files, err := e.collect(j.Source)
	if err != nil {
		return r.summary, e.fail(r, errors.Annotatef(err, "enumerate %s", j.Source))
	}
	r.totalFiles = len(files)
	for _, f := range files {
		r.totalBytes += f.size
	}
	r.remainingFiles = r.totalFiles
	r.remainingBytes = r.totalBytes
	r.summary.Total = r.totalFiles

	start := e.clock.Now()
	initial := r.snapshot(state.StatusActive, "", "")
	initial.Percent = 0
	if err := e.push(initial); err != nil {
		return r.summary, err
	}
	logger.Infof("job %d %q: %d files, %d bytes, %s", j.ID, j.Name, r.totalFiles, r.totalBytes, j.Policy)
	started := eventlog.NewRecord(j.Name, eventlog.EventRunStarted, start).
		WithPaths(j.Source, j.Destination).
		WithTransfer(r.totalBytes, 0)
	if err := e.write(ctx, started); err != nil {
		return r.summary, e.fail(r, err)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return r.summary, e.fail(r, err)
		}
		if err := e.processFile(ctx, r, f); err != nil {
			return r.summary, e.fail(r, err)
		}
	}

	r.remainingFiles = 0
	r.remainingBytes = 0
	if err := e.push(r.snapshot(state.StatusDone, "", "")); err != nil {
		return r.summary, err
	}
	elapsed := e.clock.Now().Sub(start)
	ended := eventlog.NewRecord(j.Name, eventlog.EventRunEnded, e.clock.Now()).
		WithPaths(j.Source, j.Destination).
		WithTransfer(r.summary.Bytes, elapsed.Milliseconds())
	if err := e.write(ctx, ended); err != nil {
		return r.summary, errors.Trace(err)
	}
	logger.Infof("job %d %q done: copied %d, skipped %d, failed %d",
		j.ID, j.Name, r.summary.Copied, r.summary.Skipped, r.summary.Failed)
	return r.summary, nil
}

func (e *Engine) processFile(ctx context.Context, r *run, f sourceFile) error {
	rel, err := e.fs.Rel(r.job.Source, f.path)
	if err != nil {
		return errors.Annotatef(err, "relative path of %s", f.path)
	}
	dst := e.fs.Join(r.job.Destination, rel)

	if !e.needsCopy(r.job.Policy, f, dst) {
		r.summary.Skipped++
		logger.Debugf("skip %s", f.path)
		return nil
	}

	if err := e.ensureParent(ctx, r.job, dst); err != nil {
		return err
	}

	out := e.transfer.TransferFile(f.path, dst, true)
	rec := eventlog.NewRecord(r.job.Name, eventlog.EventFileTransferred, e.clock.Now()).
		WithPaths(f.path, dst).
		WithTransfer(out.Bytes, out.ElapsedMs)

	r.remainingFiles--
	if out.IsSuccess() {
		r.summary.Copied++
		r.summary.Bytes += out.Bytes
		r.remainingBytes -= out.Bytes
	} else {
		r.summary.Failed++
		r.remainingBytes -= f.size
		rec = rec.WithEvent(eventlog.EventTransferError)
		logger.Warningf("copy %s -> %s failed (code %d): %v", f.path, dst, out.Code, out.Err)
	}
	if r.remainingBytes < 0 {
		r.remainingBytes = 0
	}

	if err := e.push(r.snapshot(state.StatusActive, f.path, dst)); err != nil {
		return err
	}
	return e.write(ctx, rec)
}

// needsCopy applies the backup policy. Differential copies when the
// destination directory or file is missing or the sizes differ. A failed
// lookup counts as a difference so the transfer reports the real error.
func (e *Engine) needsCopy(p job.Policy, f sourceFile, dst string) bool {
	if p == job.PolicyComplete {
		return true
	}
	dir := filepath.Dir(dst)
	ok, err := e.fs.DirectoryExists(dir)
	if err != nil {
		logger.Warningf("check %s: %v", dir, err)
		return true
	}
	if !ok {
		return true
	}
	ok, err = e.fs.FileExists(dst)
	if err != nil {
		logger.Warningf("check %s: %v", dst, err)
		return true
	}
	if !ok {
		return true
	}
	size, err := e.fs.FileSize(dst)
	if err != nil {
		logger.Warningf("size of %s: %v", dst, err)
		return true
	}
	return size != f.size
}

func (e *Engine) ensureParent(ctx context.Context, j job.Job, dst string) error {
	dir := filepath.Dir(dst)
	ok, err := e.fs.DirectoryExists(dir)
	if err != nil {
		logger.Warningf("check %s: %v", dir, err)
		return nil
	}
	if ok {
		return nil
	}
	if err := e.fs.CreateDirectory(dir); err != nil {
		// The transfer reports the failure for this file.
		logger.Warningf("create %s: %v", dir, err)
		return nil
	}
	rec := eventlog.NewRecord(j.Name, eventlog.EventDirectoryCreated, e.clock.Now()).WithPaths("", dir)
	return e.write(ctx, rec)
}

// collect lists every file below root: a directory's own files first, then
// each subdirectory in name order.
func (e *Engine) collect(root string) ([]sourceFile, error) {
	var out []sourceFile
	var walk func(dir string) error
	walk = func(dir string) error {
		files, err := e.fs.EnumerateFiles(dir)
		if err != nil {
			return errors.Trace(err)
		}
		for _, p := range files {
			size, err := e.fs.FileSize(p)
			if err != nil {
				return errors.Trace(err)
			}
			out = append(out, sourceFile{path: p, size: size})
		}
		dirs, err := e.fs.EnumerateDirectories(dir)
		if err != nil {
			return errors.Trace(err)
		}
		for _, d := range dirs {
			if err := walk(d); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return out, nil
}

// sinkError marks a failure of the progress sink itself. No further
// snapshot is attempted after one.
type sinkError struct {
	error
}

func (e sinkError) Unwrap() error {
	return e.error
}

func (e *Engine) push(p state.Progress) error {
	p.Timestamp = e.clock.Now()
	if err := e.sink.Update(p); err != nil {
		return sinkError{errors.Annotatef(err, "record progress of job %d", p.JobID)}
	}
	return nil
}

func (e *Engine) write(ctx context.Context, rec eventlog.Record) error {
	if err := e.log.Write(ctx, rec); err != nil {
		return errors.Annotatef(err, "write %s event", rec.Event)
	}
	return nil
}

// fail pushes an ERROR snapshot carrying the counters reached so far and
// returns err. Sink failures are returned as they are.
func (e *Engine) fail(r *run, err error) error {
	logger.Errorf("job %d %q: %v", r.job.ID, r.job.Name, err)
	var se sinkError
	if errors.As(err, &se) {
		return err
	}
	if pushErr := e.push(r.snapshot(state.StatusError, "", "")); pushErr != nil {
		logger.Warningf("%v", pushErr)
	}
	return err
}
