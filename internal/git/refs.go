package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// Head returns the commit HEAD points to, or "" when HEAD is unborn.
func Head(ctx context.Context, repoPath string) (string, error) {
	output, err := outputGit(ctx, repoPath, "rev-parse", "--verify", "--quiet", "HEAD")
	if err != nil {
		if exitedWith(err, 1) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read HEAD: %v", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HeadRef returns the full ref HEAD is attached to (e.g. "refs/heads/main"),
// or "" for a detached HEAD.
func HeadRef(ctx context.Context, repoPath string) (string, error) {
	output, err := outputGit(ctx, repoPath, "symbolic-ref", "--quiet", "HEAD")
	if err != nil {
		if exitedWith(err, 1) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read HEAD ref: %v", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// GetCurrentBranch returns the short name of the current branch, or "" for a
// detached HEAD.
func GetCurrentBranch(ctx context.Context, repoPath string) (string, error) {
	ref, err := HeadRef(ctx, repoPath)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(ref, "refs/heads/"), nil
}

// UpdateHead moves HEAD (and the branch it is attached to) to sha.
func UpdateHead(ctx context.Context, repoPath, sha, reason string) error {
	if err := runGit(ctx, repoPath, "update-ref", "-m", reason, "HEAD", sha); err != nil {
		return fmt.Errorf("failed to update HEAD: %v", err)
	}
	return nil
}

// ResetHard resets HEAD, index and work tree to sha.
func ResetHard(ctx context.Context, repoPath, sha string) error {
	if err := runGit(ctx, repoPath, "reset", "--hard", "--quiet", sha); err != nil {
		return fmt.Errorf("failed to reset to %s: %v", sha, err)
	}
	return nil
}

// CommitTree creates a commit object for tree with the given parents and
// identity and returns its id. HEAD is not moved.
func CommitTree(ctx context.Context, repoPath, tree string, parents []string, message string, author, committer Signature) (string, error) {
	args := []string{"commit-tree", tree}
	for _, p := range parents {
		args = append(args, "-p", p)
	}

	env := []string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_COMMITTER_NAME=" + committer.Name,
		"GIT_COMMITTER_EMAIL=" + committer.Email,
	}
	if author.Date != "" {
		env = append(env, "GIT_AUTHOR_DATE="+author.Date)
	}
	if committer.Date != "" {
		env = append(env, "GIT_COMMITTER_DATE="+committer.Date)
	}

	output, err := inputGit(ctx, repoPath, bytes.NewBufferString(message), env, args...)
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %v", err)
	}
	return strings.TrimSpace(string(output)), nil
}
