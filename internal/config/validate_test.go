package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validJob(id int, name string) JobConfig {
	return JobConfig{ID: id, Name: name, Source: "/src/" + name, Destination: "/dst/" + name, Type: "complete"}
}

func TestValidate_NilConfig(t *testing.T) {
	err := Validate(nil)
	if err == nil {
		t.Fatal("Validate(nil) should return error")
	}
}

func TestValidate_EmptyConfig(t *testing.T) {
	if err := Validate(&Config{}); err != nil {
		t.Errorf("Validate(empty) should succeed: %v", err)
	}
}

func TestValidate_LogFormat(t *testing.T) {
	cfg := &Config{Log: &LogConfig{Enabled: true, Format: "csv", Dir: "/logs"}}
	if err := Validate(cfg); !errors.Is(err, ErrInvalidLogFormat) {
		t.Errorf("expected ErrInvalidLogFormat, got %v", err)
	}

	cfg = &Config{Log: &LogConfig{Enabled: true, Format: "XML", Dir: "/logs/"}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Log.Format != "xml" || cfg.Log.Dir != "/logs" {
		t.Errorf("log = %+v", cfg.Log)
	}

	cfg = &Config{Log: &LogConfig{Enabled: true}}
	if err := Validate(cfg); err == nil {
		t.Error("enabled log without dir should fail")
	}
}

func TestValidate_Jobs(t *testing.T) {
	tests := []struct {
		name string
		jobs []JobConfig
	}{
		{"zero id", []JobConfig{validJob(0, "a")}},
		{"duplicate id", []JobConfig{validJob(1, "a"), validJob(1, "b")}},
		{"duplicate name", []JobConfig{validJob(1, "a"), validJob(2, "A")}},
		{"blank name", []JobConfig{{ID: 1, Name: " ", Source: "/s", Destination: "/d", Type: "complete"}}},
		{"blank source", []JobConfig{{ID: 1, Name: "a", Destination: "/d", Type: "complete"}}},
		{"blank destination", []JobConfig{{ID: 1, Name: "a", Source: "/s", Type: "complete"}}},
		{"unknown type", []JobConfig{{ID: 1, Name: "a", Source: "/s", Destination: "/d", Type: "mirror"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Config{Jobs: tt.jobs})
			if !errors.Is(err, ErrInvalidJob) {
				t.Errorf("expected ErrInvalidJob, got %v", err)
			}
		})
	}
}

func TestValidate_NormalizesJobs(t *testing.T) {
	cfg := &Config{Jobs: []JobConfig{{ID: 3, Name: " docs ", Source: "/home//me/docs/", Destination: "/mnt/b/./docs", Type: "Diff"}}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	jc := cfg.Jobs[0]
	if jc.Name != "docs" || jc.Source != "/home/me/docs" || jc.Destination != "/mnt/b/docs" || jc.Type != "differential" {
		t.Errorf("job = %+v", jc)
	}
}

func TestValidate_DiscordNeedsWebhook(t *testing.T) {
	cfg := &Config{Notifications: &NotificationsConfig{Discord: &DiscordConfig{Enabled: true}}}
	if err := Validate(cfg); err == nil {
		t.Error("enabled discord without webhook should fail")
	}
}

func TestNormalizePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"clean", "/backup", "/backup"},
		{"trailing slash", "/backup/", "/backup"},
		{"double slash middle", "/backup//database", "/backup/database"},
		{"dot segments", "/backup/./x/../db", "/backup/db"},
		{"home", "~/docs", filepath.Join(home, "docs")},
		{"home alone", "~", home},
		{"surrounding blanks", "  /data ", "/data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePath(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
