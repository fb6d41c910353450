package cherrypick

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bpeabody/git-meta/internal/git"
	"github.com/bpeabody/git-meta/internal/log"
	"github.com/bpeabody/git-meta/internal/parallel"
	"github.com/bpeabody/git-meta/internal/sequencer"
	"github.com/bpeabody/git-meta/internal/status"
	"github.com/bpeabody/git-meta/internal/submodule"
)

// Options configures a cherry-pick operation.
type Options struct {
	// Parallelism caps how many sub-repos are worked on at once.
	Parallelism int

	// Fetch fetches commits missing from open sub-repos from their URL.
	Fetch bool
}

func (o Options) limit() int {
	if o.Parallelism < 1 {
		return parallel.DefaultLimit
	}
	return o.Parallelism
}

// Result describes a finished or interrupted cherry-pick.
type Result struct {
	// NewCommits maps each picked commit to the meta commit created for it.
	// Commits that changed nothing are absent.
	NewCommits map[string]string

	// NewCommit is the last meta commit created, if any.
	NewCommit string

	// SubmoduleCommits maps sub-repo path to source commit -> new commit.
	SubmoduleCommits map[string]map[string]string

	// ErrorMessage describes the conflicts and failures that stopped the
	// operation. Empty when it completed.
	ErrorMessage string
}

// Succeeded reports whether the operation ran to completion.
func (r *Result) Succeeded() bool {
	return r.ErrorMessage == ""
}

func newResult() *Result {
	return &Result{
		NewCommits:       make(map[string]string),
		SubmoduleCommits: make(map[string]map[string]string),
	}
}

// operation is one locked cherry-pick, continue or abort on a meta-repo.
type operation struct {
	repo   string
	gitDir string
	opener *submodule.Opener
	opts   Options
	lock   *sequencer.FileLock
}

func begin(ctx context.Context, repoPath string, opts Options) (*operation, error) {
	gitDir, err := git.GitDir(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	lock := sequencer.NewLock(gitDir)
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, sequencer.ErrLocked) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("failed to lock %s: %w", gitDir, err)
	}
	return &operation{
		repo:   repoPath,
		gitDir: gitDir,
		opener: submodule.NewOpener(repoPath),
		opts:   opts,
		lock:   lock,
	}, nil
}

func (op *operation) end() {
	op.lock.Unlock()
}

// CherryPick applies commits, in order, on top of HEAD of the meta-repo at
// repoPath. Each commit produces at most one meta commit.
//
// When a commit cannot be applied cleanly the returned Result carries an
// ErrorMessage, the conflicts are left in the index and the operation stays
// in progress for Continue or Abort.
func CherryPick(ctx context.Context, repoPath string, commits []string, opts Options) (*Result, error) {
	if len(commits) == 0 {
		return nil, fmt.Errorf("no commits to cherry-pick")
	}

	op, err := begin(ctx, repoPath, opts)
	if err != nil {
		return nil, err
	}
	defer op.end()

	existing, err := sequencer.Read(ctx, op.gitDir)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w (%s)", ErrInProgress, strings.ToLower(existing.Type.String()))
	}

	shas := make([]string, 0, len(commits))
	for _, c := range commits {
		sha, err := git.ResolveCommit(ctx, repoPath, c)
		if err != nil {
			return nil, err
		}
		shas = append(shas, sha)
	}

	rs, err := status.Read(ctx, repoPath, status.Options{Parallelism: opts.Parallelism})
	if err != nil {
		return nil, err
	}
	if rs.HeadCommit == "" {
		return nil, ErrUnbornHead
	}
	if !rs.IsDeepClean(true) {
		return nil, ErrDirty
	}

	for _, sha := range shas {
		commit, err := git.ReadCommit(ctx, repoPath, sha)
		if err != nil {
			return nil, err
		}
		paths, err := URLChanges(ctx, repoPath, commit)
		if err != nil {
			return nil, err
		}
		if len(paths) > 0 {
			return nil, fmt.Errorf("%w: %s changes %s", ErrURLChange, sha, strings.Join(paths, ", "))
		}
	}

	headRef, err := git.HeadRef(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	state := &sequencer.State{
		Type:         sequencer.CherryPick,
		OriginalHead: sequencer.CommitAndRef{SHA: rs.HeadCommit, Ref: headRef},
		Target:       sequencer.CommitAndRef{SHA: shas[len(shas)-1]},
		Commits:      shas,
	}
	if err := sequencer.Write(op.gitDir, state); err != nil {
		return nil, err
	}

	result := newResult()
	if err := op.run(ctx, state, result); err != nil {
		return nil, err
	}
	if result.Succeeded() && len(result.NewCommits) == 0 {
		return result, ErrNothingToCommit
	}
	return result, nil
}

// run picks state's commits from CurrentCommit on, persisting progress after
// each one, and cleans the sequencer when the last one is done.
func (op *operation) run(ctx context.Context, state *sequencer.State, result *Result) error {
	for i := state.CurrentCommit; i < len(state.Commits); i++ {
		state = state.WithCurrentCommit(i)
		if err := sequencer.Write(op.gitDir, state); err != nil {
			return err
		}

		report, err := op.pick(ctx, state.Current(), result)
		if err != nil {
			return err
		}
		if report != "" {
			result.ErrorMessage = report
			return nil
		}
	}
	return sequencer.Clean(op.gitDir)
}

// pick applies one commit. A non-empty report means the commit stopped with
// conflicts and nothing was committed.
func (op *operation) pick(ctx context.Context, sha string, result *Result) (string, error) {
	l := log.FromContext(ctx)

	commit, err := git.ReadCommit(ctx, op.repo, sha)
	if err != nil {
		return "", err
	}
	head, err := git.Head(ctx, op.repo)
	if err != nil {
		return "", err
	}

	changes, err := ComputeChanges(ctx, op.repo, head, sha)
	if err != nil {
		return "", err
	}
	urls, err := submodule.URLsAtCommit(ctx, op.repo, sha)
	if err != nil {
		return "", err
	}

	metaConflicts, err := ApplyMetaChanges(ctx, op.repo, commit)
	if err != nil {
		return "", err
	}

	idx := NewIndexEditor()
	changeErrors, err := ChangeSubmodules(ctx, op.opener, idx, changes.Simple, op.opts)
	if err != nil {
		return "", err
	}
	WriteConflicts(idx, changes.Conflicts)

	picked, err := PickSubs(ctx, op.opener, idx, changes.Changes, urls, op.opts)
	if err != nil {
		return "", err
	}
	if err := idx.Flush(ctx, op.repo); err != nil {
		return "", err
	}
	mergeCommits(result.SubmoduleCommits, picked.Commits)

	for path, msg := range changeErrors {
		picked.Errors[path] = msg
	}
	r := report{
		commit:        sha,
		conflicts:     changes.Conflicts,
		metaConflicts: metaConflicts,
		pick:          picked,
	}
	if msg := r.String(); msg != "" {
		l.Debug("cherry-pick stopped", "commit", sha)
		return msg, nil
	}

	newSHA, err := op.finish(ctx, commit)
	if err != nil {
		return "", err
	}
	if newSHA != "" {
		result.NewCommits[sha] = newSHA
		result.NewCommit = newSHA
		l.Debug("created meta commit", "source", sha, "commit", newSHA)
	}
	return "", nil
}

// finish commits the index on top of HEAD with the identity and message of
// commit. It returns "" when the index matches HEAD.
func (op *operation) finish(ctx context.Context, commit *git.Commit) (string, error) {
	unmerged, err := git.UnmergedPaths(ctx, op.repo)
	if err != nil {
		return "", err
	}
	if len(unmerged) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnresolved, strings.Join(unmerged, ", "))
	}

	staged, err := git.HasStagedChanges(ctx, op.repo)
	if err != nil {
		return "", err
	}
	if !staged {
		return "", nil
	}

	head, err := git.Head(ctx, op.repo)
	if err != nil {
		return "", err
	}
	tree, err := git.WriteTree(ctx, op.repo)
	if err != nil {
		return "", err
	}
	newSHA, err := git.CommitTree(ctx, op.repo, tree, []string{head}, commit.Message, commit.Author, commit.Committer)
	if err != nil {
		return "", err
	}
	if err := git.UpdateHead(ctx, op.repo, newSHA, "cherry-pick: "+subject(commit.Message)); err != nil {
		return "", err
	}
	return newSHA, nil
}

// Continue resumes the cherry-pick in progress after the user resolved its
// conflicts.
func Continue(ctx context.Context, repoPath string, opts Options) (*Result, error) {
	op, err := begin(ctx, repoPath, opts)
	if err != nil {
		return nil, err
	}
	defer op.end()

	state, err := sequencer.Read(ctx, op.gitDir)
	if err != nil {
		return nil, err
	}
	if state == nil || state.Type != sequencer.CherryPick {
		return nil, ErrNoOperation
	}

	unmerged, err := git.UnmergedPaths(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	if len(unmerged) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnresolved, strings.Join(unmerged, ", "))
	}

	current := state.Current()
	pending, err := op.pendingReplays(ctx, current)
	if err != nil {
		return nil, err
	}

	result := newResult()
	idx := NewIndexEditor()
	picked, err := ContinueSubs(ctx, op.opener, idx, opts)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		urls, err := submodule.URLsAtCommit(ctx, repoPath, current)
		if err != nil {
			return nil, err
		}
		replayed, err := PickSubs(ctx, op.opener, idx, pending, urls, opts)
		if err != nil {
			return nil, err
		}
		picked.merge(replayed)
	}
	if err := idx.Flush(ctx, repoPath); err != nil {
		return nil, err
	}
	mergeCommits(result.SubmoduleCommits, picked.Commits)

	if msg := (report{commit: current, pick: picked}).String(); msg != "" {
		result.ErrorMessage = msg
		return result, nil
	}

	commit, err := git.ReadCommit(ctx, repoPath, current)
	if err != nil {
		return nil, err
	}
	newSHA, err := op.finish(ctx, commit)
	if err != nil {
		return nil, err
	}
	if newSHA != "" {
		result.NewCommits[current] = newSHA
		result.NewCommit = newSHA
	}

	if state.IsLast() {
		return result, sequencer.Clean(op.gitDir)
	}
	if err := op.run(ctx, state.WithCurrentCommit(state.CurrentCommit+1), result); err != nil {
		return nil, err
	}
	return result, nil
}

// pendingReplays returns the sub-repo replays of commit sha that never
// started, typically because the sub-repo was closed when the commit stopped.
// Such a sub-repo still has the pointer of HEAD staged and carries no replay
// state of its own. Sub-repos that are still closed are included so they are
// reported again.
func (op *operation) pendingReplays(ctx context.Context, sha string) (map[string]SubmoduleChange, error) {
	head, err := git.Head(ctx, op.repo)
	if err != nil {
		return nil, err
	}
	changes, err := ComputeChanges(ctx, op.repo, head, sha)
	if err != nil {
		return nil, err
	}
	if len(changes.Changes) == 0 {
		return nil, nil
	}

	headLinks, err := git.Gitlinks(ctx, op.repo, head)
	if err != nil {
		return nil, err
	}
	staged, err := git.IndexGitlinks(ctx, op.repo)
	if err != nil {
		return nil, err
	}

	pending := make(map[string]SubmoduleChange)
	for path, change := range changes.Changes {
		if staged[path] != headLinks[path] {
			continue
		}
		if op.opener.IsOpen(path) {
			gitDir, err := git.GitDir(ctx, op.opener.Path(path))
			if err != nil {
				return nil, err
			}
			subState, err := sequencer.Read(ctx, gitDir)
			if err != nil {
				return nil, err
			}
			if subState != nil {
				continue
			}
		}
		pending[path] = change
	}
	return pending, nil
}

// Abort abandons the cherry-pick in progress and restores the meta-repo and
// its open sub-repos to where they were when it started.
func Abort(ctx context.Context, repoPath string, opts Options) error {
	op, err := begin(ctx, repoPath, opts)
	if err != nil {
		return err
	}
	defer op.end()

	state, err := sequencer.Read(ctx, op.gitDir)
	if err != nil {
		return err
	}
	if state == nil {
		return ErrNoOperation
	}
	original := state.OriginalHead.SHA

	pointers, err := git.Gitlinks(ctx, repoPath, original)
	if err != nil {
		return err
	}
	staged, err := git.IndexGitlinks(ctx, repoPath)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	var open []string
	for _, links := range []map[string]string{pointers, staged} {
		for path := range links {
			if !seen[path] && op.opener.IsOpen(path) {
				seen[path] = true
				open = append(open, path)
			}
		}
	}
	sort.Strings(open)

	_, err = parallel.Do(ctx, open, opts.limit(), func(ctx context.Context, path string) (struct{}, error) {
		if err := abortSub(ctx, op.opener.Path(path), pointers[path]); err != nil {
			return struct{}{}, fmt.Errorf("failed to abort %s: %w", path, err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	if err := git.ResetHard(ctx, repoPath, original); err != nil {
		return err
	}

	// placeholders of submodules the operation added
	for path := range staged {
		if _, ok := pointers[path]; !ok && !op.opener.IsOpen(path) {
			if err := os.Remove(op.opener.Path(path)); err != nil && !os.IsNotExist(err) {
				log.FromContext(ctx).Warn("failed to remove placeholder", "path", path, "err", err)
			}
		}
	}

	return sequencer.Clean(op.gitDir)
}

func subject(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return line
}
