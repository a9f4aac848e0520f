package config

import "github.com/spf13/viper"

type Config struct {
	StateFile     string               `mapstructure:"state_file" yaml:"state_file"`
	Log           *LogConfig           `mapstructure:"log" yaml:"log,omitempty"`
	Notifications *NotificationsConfig `mapstructure:"notifications" yaml:"notifications,omitempty"`
	Jobs          []JobConfig          `mapstructure:"jobs" yaml:"jobs"`
}

type LogConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Format  string `mapstructure:"format" yaml:"format"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

type JobConfig struct {
	ID          int    `mapstructure:"id" yaml:"id"`
	Name        string `mapstructure:"name" yaml:"name"`
	Source      string `mapstructure:"source" yaml:"source"`
	Destination string `mapstructure:"destination" yaml:"destination"`
	Type        string `mapstructure:"type" yaml:"type"`
}

type NotificationsConfig struct {
	Discord *DiscordConfig `mapstructure:"discord" yaml:"discord,omitempty"`
}

type DiscordConfig struct {
	Enabled        bool             `mapstructure:"enabled" yaml:"enabled"`
	WebhookURL     string           `mapstructure:"webhook_url" yaml:"webhook_url"`
	TimeoutSeconds int              `mapstructure:"timeout_seconds" yaml:"timeout_seconds,omitempty"`
	Events         []string         `mapstructure:"events" yaml:"events,omitempty"`
	Retry          *DiscordRetry    `mapstructure:"retry" yaml:"retry,omitempty"`
	Mentions       *DiscordMentions `mapstructure:"mentions" yaml:"mentions,omitempty"`
}

type DiscordRetry struct {
	Attempts  int `mapstructure:"attempts" yaml:"attempts"`
	BackoffMs int `mapstructure:"backoff_ms" yaml:"backoff_ms"`
}

type DiscordMentions struct {
	OnError string `mapstructure:"on_error" yaml:"on_error,omitempty"`
}

func Unmarshal(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
