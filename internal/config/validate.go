package config

import (
	"errors"
	"fmt"
	"strings"

	"VelSave/internal/eventlog"
	"VelSave/internal/job"
)

var (
	ErrInvalidLogFormat = errors.New("invalid log format: must be 'json' or 'xml'")
	ErrInvalidJob       = errors.New("invalid job")
)

// Validate normalises paths in place and checks log settings and jobs.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	cfg.StateFile = NormalizePath(cfg.StateFile)
	if cfg.Log != nil {
		cfg.Log.Dir = NormalizePath(cfg.Log.Dir)
		format, err := eventlog.ParseFormat(cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("%w: got %q", ErrInvalidLogFormat, cfg.Log.Format)
		}
		cfg.Log.Format = string(format)
		if cfg.Log.Enabled && cfg.Log.Dir == "" {
			return fmt.Errorf("log.dir is required when logging is enabled")
		}
	}
	if d := discord(cfg); d != nil && d.Enabled && strings.TrimSpace(d.WebhookURL) == "" {
		return fmt.Errorf("notifications.discord.webhook_url is required when discord is enabled")
	}

	ids := make(map[int]struct{}, len(cfg.Jobs))
	names := make(map[string]struct{}, len(cfg.Jobs))
	for i := range cfg.Jobs {
		jc := &cfg.Jobs[i]
		jc.Name = strings.TrimSpace(jc.Name)
		jc.Source = NormalizePath(jc.Source)
		jc.Destination = NormalizePath(jc.Destination)
		if jc.ID <= 0 {
			return fmt.Errorf("%w: jobs[%d] has id %d (must be positive)", ErrInvalidJob, i, jc.ID)
		}
		if _, dup := ids[jc.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidJob, jc.ID)
		}
		ids[jc.ID] = struct{}{}
		key := strings.ToLower(jc.Name)
		if _, dup := names[key]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidJob, jc.Name)
		}
		names[key] = struct{}{}
		j, err := jc.Job()
		if err != nil {
			return fmt.Errorf("%w: jobs[%d]: %v", ErrInvalidJob, i, err)
		}
		if err := j.Validate(); err != nil {
			return fmt.Errorf("%w: jobs[%d]: %v", ErrInvalidJob, i, err)
		}
		jc.Type = string(j.Policy)
	}
	return nil
}

func discord(cfg *Config) *DiscordConfig {
	if cfg.Notifications == nil {
		return nil
	}
	return cfg.Notifications.Discord
}

// Job converts the config entry into a job. Only the backup type is
// checked here.
func (jc JobConfig) Job() (job.Job, error) {
	policy, err := job.ParsePolicy(jc.Type)
	if err != nil {
		return job.Job{}, err
	}
	return job.Job{
		ID:          jc.ID,
		Name:        jc.Name,
		Source:      jc.Source,
		Destination: jc.Destination,
		Policy:      policy,
	}, nil
}

func FromJob(j job.Job) JobConfig {
	return JobConfig{
		ID:          j.ID,
		Name:        j.Name,
		Source:      j.Source,
		Destination: j.Destination,
		Type:        string(j.Policy),
	}
}

// JobSet builds the job set from the configured jobs.
func (c *Config) JobSet() (*job.Set, error) {
	jobs := make([]job.Job, 0, len(c.Jobs))
	for _, jc := range c.Jobs {
		j, err := jc.Job()
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidJob, jc.Name, err)
		}
		jobs = append(jobs, j)
	}
	return job.NewSet(jobs)
}

// SetJobs replaces the configured jobs with the contents of s.
func (c *Config) SetJobs(s *job.Set) {
	all := s.All()
	c.Jobs = make([]JobConfig, 0, len(all))
	for _, j := range all {
		c.Jobs = append(c.Jobs, FromJob(j))
	}
}
