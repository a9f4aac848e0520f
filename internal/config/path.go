package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	AppDirName        = "velsave"
	DefaultConfigName = "config.yaml"
	DefaultStateName  = "state.json"
	DefaultLogDirName = "logs"
)

const EnvConfigPath = "VELSAVE_CONFIG"

// DefaultConfigDir is the per-user configuration directory, falling back to
// the working directory when the platform has none.
func DefaultConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return AppDirName
	}
	return filepath.Join(base, AppDirName)
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), DefaultConfigName)
}

// ResolveConfigPath picks the explicit override, then $VELSAVE_CONFIG, then
// the default location.
func ResolveConfigPath(override string) string {
	if override != "" {
		return override
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath()
}

// NormalizePath trims blanks, expands a leading ~ and cleans the result.
// Empty input stays empty.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return filepath.Clean(p)
}
