// Package config handles loading and validation of git-meta configuration.
//
// Configuration is read from ~/.config/git-meta/config.toml (or the file
// named by GIT_META_CONFIG), with per meta-repo overrides from .gitmeta.toml
// at the meta-repo root.
//
// # Configuration Sources (highest priority first)
//
//   - GIT_META_PARALLELISM, GIT_META_LOG_LEVEL env vars
//   - .gitmeta.toml in the meta-repo (parallelism, fetch, status)
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - parallelism: sub-repos worked on at once (default: 100)
//   - fetch.remote_missing: fetch commits a sub-repo lacks (default: true)
//   - log.level: diagnostic log level (default: "info")
//   - status.show_untracked: list untracked files in status (default: false)
package config
