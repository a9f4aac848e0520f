package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"VelSave/internal/config"
	"VelSave/internal/engine"
	"VelSave/internal/eventlog"
	"VelSave/internal/fsys"
	"VelSave/internal/job"
	"VelSave/internal/lock"
	"VelSave/internal/state"
	"VelSave/internal/transfer"
)

// runLockTTL bounds how long a crashed run can block the next one.
const runLockTTL = 12 * time.Hour

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(configPath, false)
}

// loadConfigForEdit loads the config and its job set for commands that
// rewrite the file.
func loadConfigForEdit() (*config.Config, *job.Set, string, error) {
	path := config.ResolveConfigPath(configPath)
	cfg, err := config.LoadConfig(path, false)
	if err != nil {
		return nil, nil, "", err
	}
	set, err := cfg.JobSet()
	if err != nil {
		return nil, nil, "", err
	}
	return cfg, set, path, nil
}

func saveJobs(cfg *config.Config, set *job.Set, path string) error {
	cfg.SetJobs(set)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	return config.Write(cfg, path)
}

func openState(cfg *config.Config) (*state.Store, error) {
	s, err := state.Open(cfg.StateFile, nil)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	return s, nil
}

func newEventLog(cfg *config.Config) (eventlog.Logger, error) {
	if cfg.Log == nil {
		return eventlog.Nop{}, nil
	}
	return eventlog.New(eventlog.Options{
		Enabled: cfg.Log.Enabled,
		Format:  cfg.Log.Format,
		Dir:     cfg.Log.Dir,
	})
}

func newEngine(cfg *config.Config, sink engine.ProgressSink) (*engine.Engine, error) {
	log, err := newEventLog(cfg)
	if err != nil {
		return nil, fmt.Errorf("event log: %w", err)
	}
	fs := fsys.NewOS()
	return engine.New(engine.Config{
		FS:       fs,
		Transfer: transfer.NewCopier(fs, nil),
		Sink:     sink,
		Log:      log,
	})
}

// withRunLock gives fn sole write access to the state file across
// processes. Job runs and job edits that touch the state both take it; owner
// is shown to anyone who finds the lock held.
func withRunLock(ctx context.Context, cfg *config.Config, owner string, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	l, err := lock.NewLocal(lock.LocalOptions{
		Dir:   filepath.Dir(cfg.StateFile),
		Name:  lock.RunLockName,
		Owner: owner,
		TTL:   runLockTTL,
	})
	if err != nil {
		return err
	}
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if err := l.Release(context.Background()); err != nil {
			logger.Warningf("release run lock: %v", err)
		}
	}()
	return fn()
}

func parseID(arg string) (int, error) {
	ids, err := job.ParseSelection(arg)
	if err != nil || len(ids) != 1 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return ids[0], nil
}

func warnf(cmd *cobra.Command) func(string) {
	return func(msg string) { cmd.PrintErrln("Warning:", msg) }
}
