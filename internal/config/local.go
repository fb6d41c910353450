package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LocalConfigFileName is the per meta-repo config file at the work tree root.
const LocalConfigFileName = ".gitmeta.toml"

// LocalConfig holds per meta-repo overrides.
// Nil fields are not set and inherit from the global config.
type LocalConfig struct {
	Parallelism *int        `toml:"parallelism"`
	Fetch       LocalFetch  `toml:"fetch"`
	Status      LocalStatus `toml:"status"`
}

// LocalFetch holds local fetch overrides
type LocalFetch struct {
	RemoteMissing *bool `toml:"remote_missing"`
}

// LocalStatus holds local status overrides
type LocalStatus struct {
	ShowUntracked *bool `toml:"show_untracked"`
}

// LoadLocal reads .gitmeta.toml from the meta-repo at repoPath.
// Returns nil (no error) if the file doesn't exist.
// Returns an error only on parse or validation failure.
func LoadLocal(repoPath string) (*LocalConfig, error) {
	configFile := filepath.Join(repoPath, LocalConfigFileName)

	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read local config %s: %w", configFile, err)
	}

	var local LocalConfig
	if err := toml.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("failed to parse local config %s: %w", configFile, err)
	}

	if local.Parallelism != nil && *local.Parallelism < 1 {
		return nil, fmt.Errorf("invalid parallelism %d in %s: must be at least 1", *local.Parallelism, configFile)
	}
	return &local, nil
}
