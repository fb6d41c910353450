package cherrypick

import (
	"context"
	"sort"

	"github.com/bpeabody/git-meta/internal/git"
	"github.com/bpeabody/git-meta/internal/log"
	"github.com/bpeabody/git-meta/internal/submodule"
)

// SubmoduleChange is how a commit moved one submodule pointer.
// An empty SHA means the submodule did not exist on that side.
type SubmoduleChange struct {
	OldSHA string
	NewSHA string
}

// ConflictEntry is one side of a conflicted index path.
type ConflictEntry struct {
	Mode string
	SHA  string
}

// Conflict holds the three index stages of a conflicted path.
// Nil entries are absent on that side.
type Conflict struct {
	Ancestor *ConflictEntry
	Ours     *ConflictEntry
	Theirs   *ConflictEntry
}

// Changes is the classification of one commit's submodule changes.
type Changes struct {
	// Simple pointer updates that can be applied as is. A nil pointer
	// deletes the submodule.
	Simple map[string]*submodule.Pointer

	// Changes need their commits replayed inside the sub-repo.
	Changes map[string]SubmoduleChange

	// Conflicts cannot be resolved automatically.
	Conflicts map[string]Conflict
}

// IsEmpty reports whether the commit touched no submodule in a way that
// needs work.
func (c *Changes) IsEmpty() bool {
	return len(c.Simple) == 0 && len(c.Changes) == 0 && len(c.Conflicts) == 0
}

func gitlinkEntry(sha string) *ConflictEntry {
	if sha == "" {
		return nil
	}
	return &ConflictEntry{Mode: git.ModeGitlink, SHA: sha}
}

// submoduleDiff returns the submodule pointers target changed relative to its
// first parent.
func submoduleDiff(ctx context.Context, repoPath string, target *git.Commit) (map[string]SubmoduleChange, error) {
	diff, err := git.DiffTree(ctx, repoPath, target.FirstParent(), target.SHA)
	if err != nil {
		return nil, err
	}
	changed := make(map[string]SubmoduleChange)
	for _, c := range diff {
		if !c.IsGitlink() {
			continue
		}
		var change SubmoduleChange
		if c.OldMode == git.ModeGitlink {
			change.OldSHA = c.OldSHA
		}
		if c.NewMode == git.ModeGitlink {
			change.NewSHA = c.NewSHA
		}
		changed[c.Path] = change
	}
	return changed, nil
}

// ComputeChanges classifies the submodule changes made by target against the
// state of head. head must be a commit.
func ComputeChanges(ctx context.Context, repoPath, head, targetSHA string) (*Changes, error) {
	target, err := git.ReadCommit(ctx, repoPath, targetSHA)
	if err != nil {
		return nil, err
	}
	changed, err := submoduleDiff(ctx, repoPath, target)
	if err != nil {
		return nil, err
	}

	result := &Changes{
		Simple:    make(map[string]*submodule.Pointer),
		Changes:   make(map[string]SubmoduleChange),
		Conflicts: make(map[string]Conflict),
	}
	if len(changed) == 0 {
		return result, nil
	}

	paths := make([]string, 0, len(changed))
	for path := range changed {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	ours, err := git.LsTree(ctx, repoPath, head, paths...)
	if err != nil {
		return nil, err
	}
	base, err := git.MergeBase(ctx, repoPath, head, target.SHA)
	if err != nil {
		return nil, err
	}
	var ancestors map[string]git.TreeEntry
	if base != "" {
		if ancestors, err = git.LsTree(ctx, repoPath, base, paths...); err != nil {
			return nil, err
		}
	}
	urls, err := submodule.URLsAtCommit(ctx, repoPath, target.SHA)
	if err != nil {
		return nil, err
	}

	conflict := func(path string, our *ConflictEntry, theirs string) {
		c := Conflict{Ours: our, Theirs: gitlinkEntry(theirs)}
		if e, ok := ancestors[path]; ok {
			c.Ancestor = &ConflictEntry{Mode: e.Mode, SHA: e.SHA}
		}
		result.Conflicts[path] = c
	}

	for _, path := range paths {
		change := changed[path]
		entry, inHead := ours[path]

		switch {
		case !inHead:
			switch {
			case change.NewSHA == "":
				// already gone
			case change.OldSHA == "":
				result.Simple[path] = &submodule.Pointer{SHA: change.NewSHA, URL: urls[path]}
			default:
				conflict(path, nil, change.NewSHA)
			}

		case !entry.IsGitlink():
			conflict(path, &ConflictEntry{Mode: entry.Mode, SHA: entry.SHA}, change.NewSHA)

		case change.OldSHA == "":
			if entry.SHA != change.NewSHA {
				conflict(path, gitlinkEntry(entry.SHA), change.NewSHA)
			}

		case change.NewSHA == "":
			if entry.SHA == change.OldSHA {
				result.Simple[path] = nil
			} else {
				conflict(path, gitlinkEntry(entry.SHA), "")
			}

		case entry.SHA == change.NewSHA:
			// already applied

		case entry.SHA == change.OldSHA:
			result.Simple[path] = &submodule.Pointer{SHA: change.NewSHA, URL: urls[path]}

		default:
			result.Changes[path] = change
		}
	}

	log.FromContext(ctx).Debug("classified submodule changes",
		"commit", target.SHA,
		"simple", len(result.Simple),
		"replay", len(result.Changes),
		"conflicts", len(result.Conflicts))
	return result, nil
}

// URLChanges returns the sorted paths of submodules that exist on both sides
// of commit but whose URL the commit changed.
func URLChanges(ctx context.Context, repoPath string, commit *git.Commit) ([]string, error) {
	before, err := submodule.URLsAtCommit(ctx, repoPath, commit.FirstParent())
	if err != nil {
		return nil, err
	}
	after, err := submodule.URLsAtCommit(ctx, repoPath, commit.SHA)
	if err != nil {
		return nil, err
	}
	var paths []string
	for path, url := range after {
		if old, ok := before[path]; ok && old != url {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
