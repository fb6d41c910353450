package git

import (
	"context"
	"fmt"
	"strings"
)

// StatusEntry is one record of "git status --porcelain".
// X is the index status and Y the work tree status.
type StatusEntry struct {
	X    byte
	Y    byte
	Path string
}

// IsUnmerged reports whether the entry describes a conflict.
func (e StatusEntry) IsUnmerged() bool {
	if e.X == 'U' || e.Y == 'U' {
		return true
	}
	pair := string([]byte{e.X, e.Y})
	return pair == "AA" || pair == "DD"
}

// IsUntracked reports whether the entry is an untracked file.
func (e StatusEntry) IsUntracked() bool {
	return e.X == '?'
}

// Status lists changed files of the meta level, ignoring submodule pointers.
// Untracked files are reported only when untracked is true.
func Status(ctx context.Context, repoPath string, untracked bool) ([]StatusEntry, error) {
	mode := "--untracked-files=no"
	if untracked {
		mode = "--untracked-files=all"
	}
	output, err := outputGit(ctx, repoPath, "status", "--porcelain", "-z", "--ignore-submodules=all", mode)
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %v", err)
	}
	return parseStatus(output), nil
}

func parseStatus(output []byte) []StatusEntry {
	var entries []StatusEntry
	records := strings.Split(string(output), "\x00")
	for i := 0; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 4 {
			continue
		}
		e := StatusEntry{X: rec[0], Y: rec[1], Path: rec[3:]}
		entries = append(entries, e)
		// renames and copies are followed by the source path
		if e.X == 'R' || e.X == 'C' {
			i++
		}
	}
	return entries
}
