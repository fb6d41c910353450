package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bpeabody/git-meta/internal/storage"
)

// DefaultParallelism is the default number of sub-repos worked on at once.
const DefaultParallelism = 100

// Environment variables that override config file settings.
const (
	EnvParallelism = "GIT_META_PARALLELISM"
	EnvLogLevel    = "GIT_META_LOG_LEVEL"
	EnvConfigPath  = "GIT_META_CONFIG"
)

// FetchConfig holds fetch-related configuration
type FetchConfig struct {
	// RemoteMissing fetches commits a sub-repo lacks from its URL.
	RemoteMissing bool `toml:"remote_missing"`
}

// LogConfig holds diagnostic logging configuration
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn or error
}

// StatusConfig holds status command configuration
type StatusConfig struct {
	ShowUntracked bool `toml:"show_untracked"`
}

// Config holds the git-meta configuration
type Config struct {
	Parallelism int          `toml:"parallelism"`
	Fetch       FetchConfig  `toml:"fetch"`
	Log         LogConfig    `toml:"log"`
	Status      StatusConfig `toml:"status"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Parallelism: DefaultParallelism,
		Fetch:       FetchConfig{RemoteMissing: true},
		Log:         LogConfig{Level: "info"},
	}
}

// Path returns the config file location: $GIT_META_CONFIG if set, otherwise
// ~/.config/git-meta/config.toml.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "git-meta", "config.toml"), nil
}

// Load reads the config file and applies environment overrides.
// Returns Default() if the file doesn't exist (no error).
// Returns an error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return Default(), err
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// LoadFile reads config from path, filling unset values with defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("invalid parallelism %d: must be at least 1", c.Parallelism)
	}
	return validateEnum(strings.ToLower(c.Log.Level), "log.level", ValidLogLevels)
}

// applyEnv overlays environment variables read through getenv.
func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvParallelism); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", EnvParallelism, v)
		}
		cfg.Parallelism = n
	}
	if v := getenv(EnvLogLevel); v != "" {
		if err := validateEnum(strings.ToLower(v), EnvLogLevel, ValidLogLevels); err != nil {
			return err
		}
		cfg.Log.Level = v
	}
	return nil
}

const defaultConfig = `# git-meta configuration

# Maximum number of sub-repos read, fetched or cherry-picked at once
parallelism = 100

# Fetch settings
[fetch]
# Fetch commits missing from an open sub-repo from the URL recorded in
# .gitmodules before replaying them
remote_missing = true

# Diagnostic logging: "debug", "info", "warn" or "error"
# Overridden by GIT_META_LOG_LEVEL; -v/--verbose implies "debug"
[log]
level = "info"

# Status settings
# [status]
# show_untracked = false

# Per meta-repo overrides can be placed in .gitmeta.toml at the meta-repo root:
#
# parallelism = 8
# [fetch]
# remote_missing = false
`

// Init creates a default config file at Path().
// If force is true, overwrites an existing file.
// Returns the path to the created file.
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	return path, InitAt(path, force)
}

// InitAt writes the default config file to path.
func InitAt(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New("config file already exists: " + path)
		}
	}
	return storage.WriteFileAtomic(path, []byte(defaultConfig), 0o644)
}

// DefaultContent returns the commented default config file.
func DefaultContent() string {
	return defaultConfig
}
