package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "VELSAVE"

// ErrNotFound is returned by Load when the config file does not exist.
var ErrNotFound = errors.New("config file not found")

func Load(path string, checkPerms bool) (*viper.Viper, error) {
	path = ResolveConfigPath(path)
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	ApplyDefaults(v, filepath.Dir(path))

	if checkPerms {
		if err := checkConfigPermissions(path); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return v, nil
}

// ApplyDefaults places the state file and the event log next to the config
// file unless the config says otherwise.
func ApplyDefaults(v *viper.Viper, dir string) {
	v.SetDefault("state_file", filepath.Join(dir, DefaultStateName))
	v.SetDefault("log.enabled", true)
	v.SetDefault("log.format", "json")
	v.SetDefault("log.dir", filepath.Join(dir, DefaultLogDirName))
}

// LoadConfig loads, decodes and validates the config at path.
func LoadConfig(path string, checkPerms bool) (*Config, error) {
	v, err := Load(path, checkPerms)
	if err != nil {
		return nil, err
	}
	cfg, err := Unmarshal(v)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default is the config written by init: no jobs, log and state next to
// the config file.
func Default(path string) *Config {
	dir := filepath.Dir(path)
	return &Config{
		StateFile: filepath.Join(dir, DefaultStateName),
		Log: &LogConfig{
			Enabled: true,
			Format:  "json",
			Dir:     filepath.Join(dir, DefaultLogDirName),
		},
		Jobs: []JobConfig{},
	}
}

func checkConfigPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	mode := info.Mode().Perm()

	if mode&0077 != 0 {
		return fmt.Errorf("config file %s has overly permissive mode %s (recommended: 0600)", path, mode)
	}
	return nil
}
