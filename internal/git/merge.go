package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// MergeBase returns the best common ancestor of a and b, or "" when the
// histories are unrelated.
func MergeBase(ctx context.Context, repoPath, a, b string) (string, error) {
	output, err := outputGit(ctx, repoPath, "merge-base", a, b)
	if err != nil {
		if exitedWith(err, 1) {
			return "", nil
		}
		return "", fmt.Errorf("failed to compute merge base of %s and %s: %v", a, b, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func IsAncestor(ctx context.Context, repoPath, ancestor, descendant string) (bool, error) {
	err := runGit(ctx, repoPath, "merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}
	if exitedWith(err, 1) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare %s and %s: %v", ancestor, descendant, err)
}

// RevList returns the commits reachable from to but not from from, oldest
// first. An empty from lists the whole history of to.
func RevList(ctx context.Context, repoPath, from, to string) ([]string, error) {
	args := []string{"rev-list", "--reverse", "--topo-order", to}
	if from != "" {
		args = append(args, "^"+from)
	}
	output, err := outputGit(ctx, repoPath, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits %s..%s: %v", from, to, err)
	}
	return strings.Fields(string(output)), nil
}

// Fetch makes sure sha and its ancestry are available locally, fetching it
// from url when it is missing.
func Fetch(ctx context.Context, repoPath, url, sha string) error {
	if HasCommit(ctx, repoPath, sha) {
		return nil
	}
	if url == "" {
		return fmt.Errorf("commit %s is missing and no url is configured", sha)
	}
	if err := runGit(ctx, repoPath, "fetch", "--quiet", "--no-tags", url, sha); err != nil {
		return fmt.Errorf("failed to fetch %s from %s: %v", sha, url, err)
	}
	return nil
}

// PickOutcome describes what a cherry-pick step did.
type PickOutcome int

const (
	// Picked means a new commit was created.
	Picked PickOutcome = iota
	// Skipped means the change was already present and no commit was made.
	Skipped
	// Conflicted means the index now holds conflict stages.
	Conflicted
)

// editorEnv keeps cherry-pick from opening an editor.
var editorEnv = []string{"GIT_EDITOR=true"}

// CherryPick applies commit sha on top of HEAD.
// Merge commits are picked relative to their first parent.
func CherryPick(ctx context.Context, repoPath, sha string) (PickOutcome, error) {
	c, err := ReadCommit(ctx, repoPath, sha)
	if err != nil {
		return 0, err
	}

	args := []string{"cherry-pick", "--allow-empty", "--allow-empty-message"}
	if len(c.Parents) > 1 {
		args = append(args, "-m", "1")
	}
	args = append(args, sha)

	_, pickErr := inputGit(ctx, repoPath, nil, editorEnv, args...)
	if pickErr == nil {
		return Picked, nil
	}
	return resolvePickFailure(ctx, repoPath, pickErr)
}

// CherryPickContinue commits the resolved in-progress cherry-pick, or skips
// it when the resolution left nothing to commit.
func CherryPickContinue(ctx context.Context, repoPath string) (PickOutcome, error) {
	unmerged, err := UnmergedPaths(ctx, repoPath)
	if err != nil {
		return 0, err
	}
	if len(unmerged) > 0 {
		return Conflicted, nil
	}

	staged, err := HasStagedChanges(ctx, repoPath)
	if err != nil {
		return 0, err
	}
	if !staged {
		if err := runGit(ctx, repoPath, "cherry-pick", "--skip"); err != nil {
			return 0, fmt.Errorf("failed to skip empty cherry-pick: %v", err)
		}
		return Skipped, nil
	}

	if _, err := inputGit(ctx, repoPath, nil, editorEnv, "cherry-pick", "--continue"); err != nil {
		return 0, fmt.Errorf("failed to continue cherry-pick: %v", err)
	}
	return Picked, nil
}

// CherryPickAbort abandons an in-progress cherry-pick, if any.
func CherryPickAbort(ctx context.Context, repoPath string) error {
	if !CherryPickInProgress(ctx, repoPath) {
		return nil
	}
	if err := runGit(ctx, repoPath, "cherry-pick", "--abort"); err != nil {
		return fmt.Errorf("failed to abort cherry-pick: %v", err)
	}
	return nil
}

// CherryPickInProgress reports whether CHERRY_PICK_HEAD exists.
func CherryPickInProgress(ctx context.Context, repoPath string) bool {
	return runGit(ctx, repoPath, "rev-parse", "--verify", "--quiet", "CHERRY_PICK_HEAD") == nil
}

func resolvePickFailure(ctx context.Context, repoPath string, pickErr error) (PickOutcome, error) {
	unmerged, err := UnmergedPaths(ctx, repoPath)
	if err != nil {
		return 0, err
	}
	if len(unmerged) > 0 {
		return Conflicted, nil
	}
	if CherryPickInProgress(ctx, repoPath) {
		staged, err := HasStagedChanges(ctx, repoPath)
		if err != nil {
			return 0, err
		}
		if !staged {
			// the change is already part of HEAD
			if err := runGit(ctx, repoPath, "cherry-pick", "--skip"); err != nil {
				return 0, fmt.Errorf("failed to skip empty cherry-pick: %v", err)
			}
			return Skipped, nil
		}
	}
	return 0, fmt.Errorf("cherry-pick failed: %v", pickErr)
}

// DiffPatch returns a binary patch of paths between the trees of from and to.
func DiffPatch(ctx context.Context, repoPath, from, to string, paths []string) ([]byte, error) {
	if from == "" {
		from = EmptyTreeSHA
	}
	args := append([]string{"diff", "--binary", "--full-index", "--no-renames", "--no-color", from, to, "--"}, paths...)
	output, err := outputGit(ctx, repoPath, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %v", from, to, err)
	}
	return output, nil
}

// ApplyPatch applies patch to the index and work tree with a three-way
// fallback. It returns the paths left conflicted; other failures are errors.
func ApplyPatch(ctx context.Context, repoPath string, patch []byte) ([]string, error) {
	if len(bytes.TrimSpace(patch)) == 0 {
		return nil, nil
	}
	_, applyErr := inputGit(ctx, repoPath, bytes.NewReader(patch), nil, "apply", "--index", "--3way", "--whitespace=nowarn")
	unmerged, err := UnmergedPaths(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	if applyErr != nil && len(unmerged) == 0 {
		return nil, fmt.Errorf("failed to apply changes: %v", applyErr)
	}
	return unmerged, nil
}
