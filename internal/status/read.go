package status

import (
	"context"
	"sort"
	"strings"

	"github.com/bpeabody/git-meta/internal/git"
	"github.com/bpeabody/git-meta/internal/parallel"
	"github.com/bpeabody/git-meta/internal/sequencer"
	"github.com/bpeabody/git-meta/internal/submodule"
)

// Options controls what Read collects.
type Options struct {
	// Paths limits the submodules read to these paths and anything below
	// them. Empty reads every submodule.
	Paths []string

	// ShowUntracked reports untracked files as Added in Workdir.
	ShowUntracked bool

	// Parallelism caps how many sub-repos are read at once.
	Parallelism int
}

// Read returns the status of the repository at repoPath, recursing into every
// open sub-repo. Submodules are keyed by path. Only failures to run git are
// returned as errors; any repository state yields a status.
func Read(ctx context.Context, repoPath string, opts Options) (*RepoStatus, error) {
	head, err := git.Head(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	branch, err := git.GetCurrentBranch(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	rs := &RepoStatus{
		CurrentBranch: branch,
		HeadCommit:    head,
		Staged:        make(map[string]FileStatus),
		Workdir:       make(map[string]FileStatus),
		Submodules:    make(map[string]*Submodule),
	}

	entries, err := git.Status(ctx, repoPath, opts.ShowUntracked)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		classify(rs, e)
	}

	gitDir, err := git.GitDir(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	rs.Sequencer, err = sequencer.Read(ctx, gitDir)
	if err != nil {
		return nil, err
	}

	subs, err := readSubmodules(ctx, repoPath, head, opts)
	if err != nil {
		return nil, err
	}
	rs.Submodules = subs
	return rs, nil
}

func classify(rs *RepoStatus, e git.StatusEntry) {
	switch {
	case e.IsUnmerged():
		rs.Staged[e.Path] = Conflicted
		return
	case e.IsUntracked():
		rs.Workdir[e.Path] = Added
		return
	}

	switch e.X {
	case 'A', 'R', 'C':
		rs.Staged[e.Path] = Added
	case 'M', 'T':
		rs.Staged[e.Path] = Modified
	case 'D':
		rs.Staged[e.Path] = Removed
	}

	switch e.Y {
	case 'M', 'T':
		rs.Workdir[e.Path] = Modified
	case 'D':
		rs.Workdir[e.Path] = Removed
	case 'A':
		rs.Workdir[e.Path] = Added
	}
}

func readSubmodules(ctx context.Context, repoPath, head string, opts Options) (map[string]*Submodule, error) {
	var headLinks, headURLs map[string]string
	if head != "" {
		var err error
		if headLinks, err = git.Gitlinks(ctx, repoPath, head); err != nil {
			return nil, err
		}
		if headURLs, err = submodule.URLsAtCommit(ctx, repoPath, head); err != nil {
			return nil, err
		}
	}
	indexLinks, err := git.IndexGitlinks(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	indexURLs, err := submodule.URLsInIndex(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var paths []string
	for _, links := range []map[string]string{headLinks, indexLinks} {
		for path := range links {
			if !seen[path] && wanted(path, opts.Paths) {
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}
	sort.Strings(paths)

	opener := submodule.NewOpener(repoPath)
	limit := opts.Parallelism
	if limit <= 0 {
		limit = parallel.DefaultLimit
	}
	nested := Options{ShowUntracked: opts.ShowUntracked, Parallelism: limit}

	results, err := parallel.Do(ctx, paths, limit, func(ctx context.Context, path string) (*Submodule, error) {
		sub := &Submodule{}
		var subRepo string
		if opener.IsOpen(path) {
			subRepo = opener.Path(path)
		}

		if sha, ok := headLinks[path]; ok {
			sub.Commit = &submodule.Pointer{SHA: sha, URL: headURLs[path]}
		}
		if sha, ok := indexLinks[path]; ok {
			rel := Unknown
			if sub.Commit != nil {
				rel = relation(ctx, subRepo, sub.Commit.SHA, sha)
			}
			sub.Index = &Index{SHA: sha, URL: indexURLs[path], Relation: rel}
		}

		if subRepo != "" && sub.Index != nil {
			subStatus, err := Read(ctx, subRepo, nested)
			if err != nil {
				return nil, err
			}
			sub.Workdir = &Workdir{
				Status:   subStatus,
				Relation: relation(ctx, subRepo, sub.Index.SHA, subStatus.HeadCommit),
			}
		}
		return sub, nil
	})
	if err != nil {
		return nil, err
	}

	subs := make(map[string]*Submodule, len(paths))
	for i, path := range paths {
		subs[path] = results[i]
	}
	return subs, nil
}

func wanted(path string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		f = strings.TrimSuffix(f, "/")
		if path == f || strings.HasPrefix(path, f+"/") {
			return true
		}
	}
	return false
}

// relation reports how to relates to from, looked up in the sub-repo at
// repo. Without a sub-repo or the objects the answer is Unknown.
func relation(ctx context.Context, repo, from, to string) CommitRelation {
	if from == to {
		return Same
	}
	if repo == "" || from == "" || to == "" {
		return Unknown
	}
	if !git.HasCommit(ctx, repo, from) || !git.HasCommit(ctx, repo, to) {
		return Unknown
	}
	if ok, err := git.IsAncestor(ctx, repo, from, to); err != nil {
		return Unknown
	} else if ok {
		return Ahead
	}
	if ok, err := git.IsAncestor(ctx, repo, to, from); err != nil {
		return Unknown
	} else if ok {
		return Behind
	}
	return Unrelated
}
