// Package notifier sends optional job notifications.
package notifier

import (
	"context"
	"time"

	"VelSave/internal/config"
)

// Report summarises a finished job for a success notification.
type Report struct {
	Duration time.Duration
	Copied   int
	Skipped  int
	Failed   int
	Bytes    int64
}

type Notifier interface {
	NotifyStart(ctx context.Context, jobName string) error
	NotifySuccess(ctx context.Context, jobName string, r Report) error
	NotifyError(ctx context.Context, jobName string, err error) error
}

// FromConfig returns the configured notifier, or nil when none is enabled.
func FromConfig(cfg *config.Config) (Notifier, error) {
	if cfg == nil || cfg.Notifications == nil {
		return nil, nil
	}
	d := cfg.Notifications.Discord
	if d == nil || !d.Enabled {
		return nil, nil
	}
	n, err := NewDiscordNotifier(d)
	if err != nil {
		return nil, err
	}
	return n, nil
}
