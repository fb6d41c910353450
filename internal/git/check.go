package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrGitNotFound indicates git is not installed or not in PATH
var ErrGitNotFound = fmt.Errorf("git not found: please install git (https://git-scm.com)")

// CheckGit verifies that git is available in PATH
func CheckGit() error {
	_, err := exec.LookPath("git")
	if err != nil {
		return ErrGitNotFound
	}
	return nil
}

// IsInsideRepoPath returns true if the given path is inside a git work tree
func IsInsideRepoPath(ctx context.Context, path string) bool {
	err := runGit(ctx, path, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// Toplevel returns the root of the work tree containing path.
func Toplevel(ctx context.Context, path string) (string, error) {
	output, err := outputGit(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not in a git repository: %v", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// GitDir returns the absolute path of the repository's git directory
// (".git" for ordinary repos, ".git/modules/<name>" for absorbed submodules).
func GitDir(ctx context.Context, repoPath string) (string, error) {
	output, err := outputGit(ctx, repoPath, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", fmt.Errorf("failed to locate git dir: %v", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// IsRepoRoot reports whether path is the top of its own repository, which is
// how an open submodule is recognised: a ".git" file or directory is present.
func IsRepoRoot(path string) bool {
	_, err := os.Lstat(filepath.Join(path, ".git"))
	return err == nil
}
