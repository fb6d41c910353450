package cherrypick

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bpeabody/git-meta/internal/git"
	"github.com/bpeabody/git-meta/internal/parallel"
	"github.com/bpeabody/git-meta/internal/submodule"
)

// IndexEditor collects meta index edits from concurrent workers and writes
// them in one update-index call.
type IndexEditor struct {
	mu      sync.Mutex
	entries []git.IndexEntry
	urls    map[string]string
}

// NewIndexEditor creates an empty editor.
func NewIndexEditor() *IndexEditor {
	return &IndexEditor{urls: make(map[string]string)}
}

// Stage queues entries. Entries of one call stay together and in order.
func (e *IndexEditor) Stage(entries ...git.IndexEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, entries...)
}

// StagePointer queues a gitlink for path.
func (e *IndexEditor) StagePointer(path, sha string) {
	e.Stage(git.IndexEntry{Mode: git.ModeGitlink, SHA: sha, Path: path})
}

// SetURL queues a .gitmodules change; an empty url removes the submodule.
func (e *IndexEditor) SetURL(path, url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.urls[path] = url
}

// Len returns the number of queued index entries.
func (e *IndexEditor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Flush rewrites .gitmodules if needed and applies all queued entries.
// The editor is empty afterwards.
func (e *IndexEditor) Flush(ctx context.Context, repoPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.entries
	if len(e.urls) > 0 {
		modules, err := submodule.WriteURLs(ctx, repoPath, e.urls)
		if err != nil {
			return err
		}
		entries = append(entries, modules)
	}
	if err := git.UpdateIndex(ctx, repoPath, entries); err != nil {
		return err
	}

	e.entries = nil
	e.urls = make(map[string]string)
	return nil
}

// ChangeSubmodules applies simple pointer updates. Open sub-repos are moved
// to the new commit; closed ones only get their gitlink and a placeholder
// directory. Failures inside one sub-repo are returned per path; other
// failures abort.
func ChangeSubmodules(ctx context.Context, opener *submodule.Opener, idx *IndexEditor, simple map[string]*submodule.Pointer, opts Options) (map[string]string, error) {
	var removed, open, closed []string
	for path, ptr := range simple {
		switch {
		case ptr == nil:
			removed = append(removed, path)
		case opener.IsOpen(path):
			open = append(open, path)
		default:
			closed = append(closed, path)
		}
	}
	sort.Strings(removed)
	sort.Strings(open)
	sort.Strings(closed)

	for _, path := range removed {
		if err := opener.Remove(ctx, path); err != nil {
			return nil, err
		}
		idx.SetURL(path, "")
		idx.Stage(git.RemoveEntry(path))
	}

	for _, path := range closed {
		idx.StagePointer(path, simple[path].SHA)
		setURL(idx, path, simple[path].URL)
	}
	if len(closed) > 0 {
		_, err := parallel.DoInBatches(ctx, closed, opts.limit(), func(_ context.Context, batch []string) ([]struct{}, error) {
			for _, path := range batch {
				if err := opener.EnsurePlaceholder(path); err != nil {
					return nil, fmt.Errorf("failed to create %s: %w", path, err)
				}
			}
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
	}

	failures, err := parallel.Do(ctx, open, opts.limit(), func(ctx context.Context, path string) (string, error) {
		ptr := simple[path]
		subRepo := opener.Path(path)
		if opts.Fetch {
			if err := git.Fetch(ctx, subRepo, ptr.URL, ptr.SHA); err != nil {
				return err.Error(), nil
			}
		}
		if err := git.ResetHard(ctx, subRepo, ptr.SHA); err != nil {
			return err.Error(), nil
		}
		idx.StagePointer(path, ptr.SHA)
		setURL(idx, path, ptr.URL)
		return "", nil
	})
	if err != nil {
		return nil, err
	}

	errs := make(map[string]string)
	for i, msg := range failures {
		if msg != "" {
			errs[open[i]] = msg
		}
	}
	return errs, nil
}

// setURL records url for a pointer update. A commit whose .gitmodules lacks
// the path leaves the current URL alone; only removals drop it.
func setURL(idx *IndexEditor, path, url string) {
	if url != "" {
		idx.SetURL(path, url)
	}
}

// WriteConflicts queues conflict stages for every path, replacing whatever
// the index holds there.
func WriteConflicts(idx *IndexEditor, conflicts map[string]Conflict) {
	paths := make([]string, 0, len(conflicts))
	for path := range conflicts {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		c := conflicts[path]
		entries := []git.IndexEntry{git.RemoveEntry(path)}
		for stage, side := range []*ConflictEntry{c.Ancestor, c.Ours, c.Theirs} {
			if side == nil {
				continue
			}
			entries = append(entries, git.IndexEntry{Mode: side.Mode, SHA: side.SHA, Stage: stage + 1, Path: path})
		}
		idx.Stage(entries...)
	}
}

// ApplyMetaChanges applies the changes commit made to regular files of the
// meta-repo (everything except submodule pointers and .gitmodules) to the
// index and work tree. It returns the files left conflicted.
func ApplyMetaChanges(ctx context.Context, repoPath string, commit *git.Commit) ([]string, error) {
	diff, err := git.DiffTree(ctx, repoPath, commit.FirstParent(), commit.SHA)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, c := range diff {
		if c.IsGitlink() || c.Path == submodule.GitmodulesFile {
			continue
		}
		paths = append(paths, c.Path)
	}
	if len(paths) == 0 {
		return nil, nil
	}

	patch, err := git.DiffPatch(ctx, repoPath, commit.FirstParent(), commit.SHA, paths)
	if err != nil {
		return nil, err
	}
	return git.ApplyPatch(ctx, repoPath, patch)
}
