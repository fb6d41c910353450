package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// resolveTempDir creates a temp directory and resolves macOS symlinks.
func resolveTempDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(tmpDir)
	require.NoError(t, err)
	return resolved
}

// configureTestRepo sets git user config and disables GPG signing.
func configureTestRepo(t *testing.T, repoPath string) {
	t.Helper()
	ctx := context.Background()
	for _, args := range [][]string{
		{"config", "user.email", "test@test.com"},
		{"config", "user.name", "Test User"},
		{"config", "commit.gpgsign", "false"},
	} {
		require.NoError(t, runGit(ctx, repoPath, args...), "git %v", args)
	}
}

// setupTestRepo creates a git repo with main branch, initial commit, and git config.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	repoPath := filepath.Join(resolveTempDir(t), "test-repo")

	ctx := context.Background()
	require.NoError(t, runGit(ctx, "", "init", "-b", "main", repoPath))
	configureTestRepo(t, repoPath)
	commitFile(t, repoPath, "README.md", "# test\n", "Initial commit")
	return repoPath
}

// commitFile writes name with content, commits it and returns the new HEAD.
func commitFile(t *testing.T, repoPath, name, content, message string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(repoPath, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0o644))
	require.NoError(t, runGit(ctx, repoPath, "add", name))
	require.NoError(t, runGit(ctx, repoPath, "commit", "-q", "-m", message))
	head, err := Head(ctx, repoPath)
	require.NoError(t, err)
	return head
}
