package engine

import (
	"context"
	"time"

	"github.com/juju/clock"

	"VelSave/internal/job"
	"VelSave/internal/notifier"
)

type Executor interface {
	Execute(ctx context.Context, j job.Job) (Summary, error)
}

type Result struct {
	Job      job.Job
	Summary  Summary
	Duration time.Duration
	Err      error
}

// Batch runs jobs strictly one after another. A failing job does not stop
// the jobs after it; a cancelled context does.
type Batch struct {
	Engine Executor
	// Notifier is optional. Its failures are logged and never change a
	// job's result.
	Notifier notifier.Notifier
	// OnStart and OnResult are optional progress hooks for callers.
	OnStart  func(i int, j job.Job)
	OnResult func(Result)
	Clock    clock.Clock
}

func (b *Batch) Run(ctx context.Context, jobs []job.Job) []Result {
	clk := b.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	results := make([]Result, 0, len(jobs))
	for i, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		if b.OnStart != nil {
			b.OnStart(i, j)
		}
		b.notifyStart(ctx, j)
		start := clk.Now()
		summary, err := b.Engine.Execute(ctx, j)
		res := Result{Job: j, Summary: summary, Duration: clk.Now().Sub(start), Err: err}
		results = append(results, res)
		b.notifyEnd(ctx, res)
		if b.OnResult != nil {
			b.OnResult(res)
		}
	}
	return results
}

func (b *Batch) notifyStart(ctx context.Context, j job.Job) {
	if b.Notifier == nil {
		return
	}
	if err := b.Notifier.NotifyStart(ctx, j.Name); err != nil {
		logger.Warningf("notify start of %q: %v", j.Name, err)
	}
}

func (b *Batch) notifyEnd(ctx context.Context, res Result) {
	if b.Notifier == nil {
		return
	}
	var err error
	if res.Err != nil {
		err = b.Notifier.NotifyError(ctx, res.Job.Name, res.Err)
	} else {
		err = b.Notifier.NotifySuccess(ctx, res.Job.Name, notifier.Report{
			Duration: res.Duration,
			Copied:   res.Summary.Copied,
			Skipped:  res.Summary.Skipped,
			Failed:   res.Summary.Failed,
			Bytes:    res.Summary.Bytes,
		})
	}
	if err != nil {
		logger.Warningf("notify end of %q: %v", res.Job.Name, err)
	}
}
