package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"VelSave/internal/config"
	"VelSave/internal/fsys"
	"VelSave/internal/lock"
)

type CheckResult struct {
	Name   string
	OK     bool
	Detail string
}

func Run(ctx context.Context, cfg *config.Config) []CheckResult {
	var results []CheckResult

	results = append(results, CheckResult{
		Name:   "config",
		OK:     cfg != nil,
		Detail: "configuration loaded",
	})
	if cfg == nil {
		return results
	}

	stateDir := filepath.Dir(cfg.StateFile)
	ok, detail := checkWritable(stateDir)
	results = append(results, CheckResult{Name: "state dir", OK: ok, Detail: detail})

	if cfg.Log != nil && cfg.Log.Enabled {
		ok, detail = checkWritable(cfg.Log.Dir)
		results = append(results, CheckResult{Name: "log dir", OK: ok, Detail: detail})

		ok, detail = checkLogMutex(ctx, cfg.Log.Dir)
		results = append(results, CheckResult{Name: "log mutex", OK: ok, Detail: detail})
	} else {
		results = append(results, CheckResult{Name: "log dir", OK: true, Detail: "event log disabled"})
	}

	ok, detail = checkRunLock(ctx, stateDir)
	results = append(results, CheckResult{Name: "run lock", OK: ok, Detail: detail})

	results = append(results, checkSources(cfg.Jobs)...)
	return results
}

func checkWritable(dir string) (bool, string) {
	if dir == "" {
		return false, "no directory configured"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Sprintf("create %s failed: %v", dir, err)
	}
	f, err := os.CreateTemp(dir, "velsave-doctor-*")
	if err != nil {
		return false, fmt.Sprintf("create temp file failed in %s: %v", dir, err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString("test"); err != nil {
		_ = f.Close()
		return false, fmt.Sprintf("write temp file failed: %v", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Sprintf("close temp file failed: %v", err)
	}
	return true, fmt.Sprintf("writable (%s)", dir)
}

func checkRunLock(ctx context.Context, dir string) (bool, string) {
	l, err := lock.NewLocal(lock.LocalOptions{Dir: dir, Name: "velsave-doctor"})
	if err != nil {
		return false, fmt.Sprintf("local lock init failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := l.Acquire(ctx); err != nil {
		return false, fmt.Sprintf("local lock acquire failed: %v", err)
	}
	if err := l.Release(context.Background()); err != nil {
		return false, fmt.Sprintf("local lock release failed: %v", err)
	}
	run, err := lock.NewLocal(lock.LocalOptions{Dir: dir, Name: lock.RunLockName})
	if err != nil {
		return false, fmt.Sprintf("run lock init failed: %v", err)
	}
	if h, err := run.Holder(); err == nil {
		return true, fmt.Sprintf("lock dir accessible (%s), run lock held by %s", dir, h)
	}
	return true, fmt.Sprintf("lock dir accessible (%s)", dir)
}

func checkLogMutex(ctx context.Context, dir string) (bool, string) {
	key := dir
	if abs, err := filepath.Abs(dir); err == nil {
		key = abs
	}
	name := lock.MutexName("velsave-log", key)
	m, err := lock.NewMutex(lock.MutexOptions{Name: name, Timeout: 2 * time.Second})
	if err != nil {
		return false, fmt.Sprintf("log mutex init failed: %v", err)
	}
	if err := m.Acquire(ctx); err != nil {
		return false, fmt.Sprintf("log mutex %s: %v", name, err)
	}
	_ = m.Release(ctx)
	return true, fmt.Sprintf("log mutex free (%s)", name)
}

func checkSources(jobs []config.JobConfig) []CheckResult {
	fs := fsys.NewOS()
	var out []CheckResult
	for _, j := range jobs {
		name := fmt.Sprintf("job %d", j.ID)
		ok, err := fs.DirectoryExists(j.Source)
		switch {
		case err != nil:
			out = append(out, CheckResult{Name: name, OK: false, Detail: fmt.Sprintf("%s: %v", j.Name, err)})
		case !ok:
			out = append(out, CheckResult{Name: name, OK: false, Detail: fmt.Sprintf("%s: source %s not found", j.Name, j.Source)})
		default:
			out = append(out, CheckResult{Name: name, OK: true, Detail: fmt.Sprintf("%s: source %s", j.Name, j.Source)})
		}
	}
	return out
}
