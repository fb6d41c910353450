package config

// MergeLocal merges a local per meta-repo config into a global config,
// returning a new Config without mutating the global.
// Returns global unchanged if local is nil.
func MergeLocal(global *Config, local *LocalConfig) *Config {
	if local == nil {
		return global
	}

	// Log settings are global only and carried over by the copy.
	merged := *global

	if local.Parallelism != nil {
		merged.Parallelism = *local.Parallelism
	}
	if local.Fetch.RemoteMissing != nil {
		merged.Fetch.RemoteMissing = *local.Fetch.RemoteMissing
	}
	if local.Status.ShowUntracked != nil {
		merged.Status.ShowUntracked = *local.Status.ShowUntracked
	}
	return &merged
}
