package git

import (
	"context"
	"fmt"
	"strings"
)

// ConfigSource selects where config values are read from.
type ConfigSource struct {
	File string // path of a config file (relative to the work tree)
	Blob string // blob name such as "HEAD:.gitmodules" or ":.gitmodules"
}

func (s ConfigSource) args() []string {
	if s.Blob != "" {
		return []string{"--blob", s.Blob}
	}
	return []string{"--file", s.File}
}

// ConfigRegexp returns all key/value pairs of source whose key matches pattern.
// A missing match is not an error.
func ConfigRegexp(ctx context.Context, repoPath string, source ConfigSource, pattern string) (map[string]string, error) {
	args := append([]string{"config"}, source.args()...)
	args = append(args, "--null", "--get-regexp", pattern)

	values := make(map[string]string)
	output, err := outputGit(ctx, repoPath, args...)
	if err != nil {
		if exitedWith(err, 1) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read config: %v", err)
	}

	// --null separates key and value with a newline and records with NUL
	for _, rec := range strings.Split(string(output), "\x00") {
		if rec == "" {
			continue
		}
		key, value, _ := strings.Cut(rec, "\n")
		values[key] = value
	}
	return values, nil
}

// SetConfig writes key = value into the config file.
func SetConfig(ctx context.Context, repoPath, file, key, value string) error {
	if err := runGit(ctx, repoPath, "config", "--file", file, key, value); err != nil {
		return fmt.Errorf("failed to set %s: %v", key, err)
	}
	return nil
}

// RemoveConfigSection removes a section from the config file (or from the
// repository config when file is ""). A missing section is not an error.
func RemoveConfigSection(ctx context.Context, repoPath, file, section string) error {
	args := []string{"config"}
	if file != "" {
		args = append(args, "--file", file)
	}
	args = append(args, "--remove-section", section)

	err := runGit(ctx, repoPath, args...)
	if err != nil && !exitedWith(err, 128) && !exitedWith(err, 5) {
		return fmt.Errorf("failed to remove %s: %v", section, err)
	}
	return nil
}
