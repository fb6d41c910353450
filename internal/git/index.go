package git

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IndexEntry is one line fed to "git update-index --index-info".
// A Mode of "0" removes every stage of Path.
type IndexEntry struct {
	Mode  string
	SHA   string
	Stage int
	Path  string
}

// RemoveEntry returns the entry that drops Path from the index.
func RemoveEntry(path string) IndexEntry {
	return IndexEntry{Mode: "0", SHA: ZeroSHA, Path: path}
}

func (e IndexEntry) line() string {
	if e.Mode == "0" {
		return fmt.Sprintf("0 %s\t%s", ZeroSHA, e.Path)
	}
	return fmt.Sprintf("%s %s %d\t%s", e.Mode, e.SHA, e.Stage, e.Path)
}

// UpdateIndex applies entries to the index in one update-index call.
// Entries are applied in order, so a removal followed by staged entries for
// the same path replaces it.
func UpdateIndex(ctx context.Context, repoPath string, entries []IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	var input strings.Builder
	for _, e := range entries {
		input.WriteString(e.line())
		input.WriteByte(0)
	}
	if _, err := inputGit(ctx, repoPath, strings.NewReader(input.String()), nil, "update-index", "-z", "--index-info"); err != nil {
		return fmt.Errorf("failed to update index: %v", err)
	}
	return nil
}

// UnmergedPaths returns the sorted paths that have conflict stages in the index.
func UnmergedPaths(ctx context.Context, repoPath string) ([]string, error) {
	output, err := outputGit(ctx, repoPath, "ls-files", "--unmerged", "-z")
	if err != nil {
		return nil, fmt.Errorf("failed to list unmerged paths: %v", err)
	}
	seen := make(map[string]bool)
	var paths []string
	for _, e := range parseStageEntries(output) {
		if !seen[e.Path] {
			seen[e.Path] = true
			paths = append(paths, e.Path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// parseStageEntries parses "ls-files --stage -z" output, whose records are
// "mode sha stage\tpath".
func parseStageEntries(output []byte) []IndexEntry {
	var entries []IndexEntry
	for _, rec := range strings.Split(string(output), "\x00") {
		meta, path, ok := strings.Cut(rec, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 {
			continue
		}
		stage, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		entries = append(entries, IndexEntry{Mode: fields[0], SHA: fields[1], Stage: stage, Path: path})
	}
	return entries
}

// IndexGitlinks returns the stage-0 submodule pointers recorded in the index.
func IndexGitlinks(ctx context.Context, repoPath string) (map[string]string, error) {
	output, err := outputGit(ctx, repoPath, "ls-files", "--stage", "-z")
	if err != nil {
		return nil, fmt.Errorf("failed to list index: %v", err)
	}
	links := make(map[string]string)
	for _, e := range parseStageEntries(output) {
		if e.Mode == ModeGitlink && e.Stage == 0 {
			links[e.Path] = e.SHA
		}
	}
	return links, nil
}

// HasIndexPath reports whether path has a stage-0 entry in the index.
func HasIndexPath(ctx context.Context, repoPath, path string) (bool, error) {
	output, err := outputGit(ctx, repoPath, "ls-files", "--stage", "-z", "--", path)
	if err != nil {
		return false, fmt.Errorf("failed to list index: %v", err)
	}
	for _, e := range parseStageEntries(output) {
		if e.Path == path && e.Stage == 0 {
			return true, nil
		}
	}
	return false, nil
}

// WriteTree writes the index as a tree object and returns its id.
// Fails while the index has unmerged entries.
func WriteTree(ctx context.Context, repoPath string) (string, error) {
	output, err := outputGit(ctx, repoPath, "write-tree")
	if err != nil {
		return "", fmt.Errorf("failed to write tree: %v", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HasStagedChanges reports whether the index differs from HEAD.
func HasStagedChanges(ctx context.Context, repoPath string) (bool, error) {
	err := runGit(ctx, repoPath, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	if exitedWith(err, 1) {
		return true, nil
	}
	return false, fmt.Errorf("failed to diff index: %v", err)
}
