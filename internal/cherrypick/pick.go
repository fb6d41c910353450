package cherrypick

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"

	"github.com/bpeabody/git-meta/internal/git"
	"github.com/bpeabody/git-meta/internal/log"
	"github.com/bpeabody/git-meta/internal/parallel"
	"github.com/bpeabody/git-meta/internal/sequencer"
	"github.com/bpeabody/git-meta/internal/submodule"
)

// PickResult collects what replaying commits in sub-repos did.
type PickResult struct {
	// Commits maps sub-repo path to source commit -> new commit.
	Commits map[string]map[string]string

	// Conflicts maps sub-repo path to the commit that stopped with conflicts.
	Conflicts map[string]string

	// Errors maps sub-repo path to a failure message.
	Errors map[string]string
}

func newPickResult() *PickResult {
	return &PickResult{
		Commits:   make(map[string]map[string]string),
		Conflicts: make(map[string]string),
		Errors:    make(map[string]string),
	}
}

// OK reports whether every sub-repo finished without conflicts or errors.
func (r *PickResult) OK() bool {
	return len(r.Conflicts) == 0 && len(r.Errors) == 0
}

// merge adds the outcomes of other to r. Entries of other win.
func (r *PickResult) merge(other *PickResult) {
	mergeCommits(r.Commits, other.Commits)
	maps.Copy(r.Conflicts, other.Conflicts)
	maps.Copy(r.Errors, other.Errors)
}

// subOutcome is the result of working on one sub-repo.
type subOutcome struct {
	commits  map[string]string
	conflict string
	err      string
}

func (r *PickResult) add(path string, o subOutcome) {
	if len(o.commits) > 0 {
		r.Commits[path] = o.commits
	}
	if o.conflict != "" {
		r.Conflicts[path] = o.conflict
	}
	if o.err != "" {
		r.Errors[path] = o.err
	}
}

// PickSubs replays the commits of every change inside its sub-repo and
// stages the resulting sub-repo HEADs. urls supplies the fetch location of
// each sub-repo. Closed sub-repos cannot be replayed and are reported as
// errors.
func PickSubs(ctx context.Context, opener *submodule.Opener, idx *IndexEditor, changes map[string]SubmoduleChange, urls map[string]string, opts Options) (*PickResult, error) {
	paths := make([]string, 0, len(changes))
	for path := range changes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	outcomes, err := parallel.Do(ctx, paths, opts.limit(), func(ctx context.Context, path string) (subOutcome, error) {
		subRepo, err := opener.Open(path)
		if errors.Is(err, submodule.ErrClosed) {
			return subOutcome{err: fmt.Sprintf("submodule %s is closed; open it to cherry-pick its commits", path)}, nil
		}
		if err != nil {
			return subOutcome{}, err
		}

		o, pickErr := pickSub(ctx, subRepo, changes[path], urls[path], opts)
		if pickErr != nil {
			o.err = pickErr.Error()
		}
		stageHead(ctx, idx, path, subRepo, &o)
		return o, nil
	})
	if err != nil {
		return nil, err
	}

	result := newPickResult()
	for i, path := range paths {
		result.add(path, outcomes[i])
	}
	return result, nil
}

func pickSub(ctx context.Context, subRepo string, change SubmoduleChange, url string, opts Options) (subOutcome, error) {
	if opts.Fetch {
		for _, sha := range []string{change.OldSHA, change.NewSHA} {
			if err := git.Fetch(ctx, subRepo, url, sha); err != nil {
				return subOutcome{}, err
			}
		}
	}

	commits, err := git.RevList(ctx, subRepo, change.OldSHA, change.NewSHA)
	if err != nil {
		return subOutcome{}, err
	}
	if len(commits) == 0 {
		return subOutcome{}, nil
	}

	head, err := git.Head(ctx, subRepo)
	if err != nil {
		return subOutcome{}, err
	}
	ref, err := git.HeadRef(ctx, subRepo)
	if err != nil {
		return subOutcome{}, err
	}
	gitDir, err := git.GitDir(ctx, subRepo)
	if err != nil {
		return subOutcome{}, err
	}

	state := &sequencer.State{
		Type:         sequencer.CherryPick,
		OriginalHead: sequencer.CommitAndRef{SHA: head, Ref: ref},
		Target:       sequencer.CommitAndRef{SHA: change.NewSHA},
		Commits:      commits,
	}

	log.FromContext(ctx).Debug("replaying sub-repo commits", "repo", subRepo, "count", len(commits))
	return replay(ctx, subRepo, gitDir, state, make(map[string]string))
}

// replay cherry-picks state's commits from CurrentCommit on. The sub-repo
// sequencer points at each commit before it is attempted, so a conflict or a
// failure leaves it at that commit; once all are done it is removed.
func replay(ctx context.Context, subRepo, gitDir string, state *sequencer.State, commits map[string]string) (subOutcome, error) {
	for i := state.CurrentCommit; i < len(state.Commits); i++ {
		state = state.WithCurrentCommit(i)
		if err := sequencer.Write(gitDir, state); err != nil {
			return subOutcome{commits: commits}, err
		}

		sha := state.Commits[i]
		outcome, err := git.CherryPick(ctx, subRepo, sha)
		if err != nil {
			return subOutcome{commits: commits}, err
		}

		switch outcome {
		case git.Picked:
			newSHA, err := git.Head(ctx, subRepo)
			if err != nil {
				return subOutcome{commits: commits}, err
			}
			commits[sha] = newSHA
		case git.Conflicted:
			return subOutcome{commits: commits, conflict: sha}, nil
		}
	}

	if err := sequencer.Clean(gitDir); err != nil {
		return subOutcome{commits: commits}, err
	}
	return subOutcome{commits: commits}, nil
}

// stageHead stages the current HEAD of the sub-repo in the meta index.
func stageHead(ctx context.Context, idx *IndexEditor, path, subRepo string, o *subOutcome) {
	head, err := git.Head(ctx, subRepo)
	if err != nil {
		if o.err == "" {
			o.err = err.Error()
		}
		return
	}
	if head != "" {
		idx.StagePointer(path, head)
	}
}

// ContinueSubs resumes the interrupted replays of every open sub-repo and
// restages all open sub-repo HEADs.
func ContinueSubs(ctx context.Context, opener *submodule.Opener, idx *IndexEditor, opts Options) (*PickResult, error) {
	paths, err := opener.OpenPaths(ctx)
	if err != nil {
		return nil, err
	}

	outcomes, err := parallel.Do(ctx, paths, opts.limit(), func(ctx context.Context, path string) (subOutcome, error) {
		subRepo := opener.Path(path)
		o, contErr := continueSub(ctx, subRepo)
		if contErr != nil {
			o.err = contErr.Error()
		}
		stageHead(ctx, idx, path, subRepo, &o)
		return o, nil
	})
	if err != nil {
		return nil, err
	}

	result := newPickResult()
	for i, path := range paths {
		result.add(path, outcomes[i])
	}
	return result, nil
}

func continueSub(ctx context.Context, subRepo string) (subOutcome, error) {
	gitDir, err := git.GitDir(ctx, subRepo)
	if err != nil {
		return subOutcome{}, err
	}
	state, err := sequencer.Read(ctx, gitDir)
	if err != nil || state == nil {
		return subOutcome{}, err
	}

	commits := make(map[string]string)
	sha := state.Current()
	next := state.CurrentCommit
	if git.CherryPickInProgress(ctx, subRepo) {
		outcome, err := git.CherryPickContinue(ctx, subRepo)
		if err != nil {
			return subOutcome{}, err
		}
		switch outcome {
		case git.Conflicted:
			return subOutcome{conflict: sha}, nil
		case git.Picked:
			newSHA, err := git.Head(ctx, subRepo)
			if err != nil {
				return subOutcome{}, err
			}
			commits[sha] = newSHA
		}
		next++
	} else {
		done, err := committedByHand(ctx, subRepo, sha)
		if err != nil {
			return subOutcome{}, err
		}
		if done {
			next++
		}
	}

	if next >= len(state.Commits) {
		if err := sequencer.Clean(gitDir); err != nil {
			return subOutcome{commits: commits}, err
		}
		return subOutcome{commits: commits}, nil
	}
	return replay(ctx, subRepo, gitDir, state.WithCurrentCommit(next), commits)
}

// committedByHand reports whether HEAD of the sub-repo is the user's own
// commit of sha: same author and subject. Otherwise sha never got applied,
// for example because the pick failed before touching the index.
func committedByHand(ctx context.Context, subRepo, sha string) (bool, error) {
	head, err := git.Head(ctx, subRepo)
	if err != nil || head == "" {
		return false, err
	}
	if head == sha {
		return true, nil
	}
	headCommit, err := git.ReadCommit(ctx, subRepo, head)
	if err != nil {
		return false, err
	}
	picked, err := git.ReadCommit(ctx, subRepo, sha)
	if err != nil {
		return false, err
	}
	return headCommit.Author == picked.Author && subject(headCommit.Message) == subject(picked.Message), nil
}

// abortSub rolls an open sub-repo back to sha, dropping any replay in progress.
// An empty sha leaves HEAD alone.
func abortSub(ctx context.Context, subRepo, sha string) error {
	if err := git.CherryPickAbort(ctx, subRepo); err != nil {
		return err
	}
	gitDir, err := git.GitDir(ctx, subRepo)
	if err != nil {
		return err
	}
	if err := sequencer.Clean(gitDir); err != nil {
		return err
	}
	if sha == "" || !git.HasCommit(ctx, subRepo, sha) {
		return nil
	}
	return git.ResetHard(ctx, subRepo, sha)
}

func mergeCommits(dst map[string]map[string]string, src map[string]map[string]string) {
	for path, commits := range src {
		if dst[path] == nil {
			dst[path] = make(map[string]string)
		}
		maps.Copy(dst[path], commits)
	}
}
