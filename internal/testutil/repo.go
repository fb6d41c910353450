// Package testutil builds throwaway git repositories for tests.
// It shells out to the git binary, which must be installed.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bpeabody/git-meta/internal/cmd"
)

// Repo is a git repository living in a test temp dir.
type Repo struct {
	t    *testing.T
	Path string
}

// TempDir returns a temp directory with symlinks resolved (macOS /var).
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

// NewRepo initializes an empty repository named name under a fresh temp dir.
func NewRepo(t *testing.T, name string) *Repo {
	t.Helper()
	path := filepath.Join(TempDir(t), name)
	_, err := cmd.OutputContext(context.Background(), "", "git", "init", "-q", "-b", "main", path)
	require.NoError(t, err)
	r := &Repo{t: t, Path: path}
	r.configure()
	return r
}

// Clone clones src into dest and configures the clone for committing.
func Clone(t *testing.T, src, dest string) *Repo {
	t.Helper()
	_, err := cmd.OutputContext(context.Background(), "", "git", "clone", "-q", src, dest)
	require.NoError(t, err)
	r := &Repo{t: t, Path: dest}
	r.configure()
	return r
}

func (r *Repo) configure() {
	r.t.Helper()
	r.Git("config", "user.email", "test@test.com")
	r.Git("config", "user.name", "Test User")
	r.Git("config", "commit.gpgsign", "false")
}

// Git runs git in the repository and returns trimmed stdout.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	out, err := cmd.OutputContext(context.Background(), "", "git", append([]string{"-C", r.Path}, args...)...)
	require.NoError(r.t, err, "git %s", strings.Join(args, " "))
	return strings.TrimSpace(string(out))
}

// GitEnv runs git with extra environment variables.
func (r *Repo) GitEnv(env []string, args ...string) string {
	r.t.Helper()
	out, err := cmd.Exec(context.Background(), cmd.Options{Env: env}, "git", append([]string{"-C", r.Path}, args...)...)
	require.NoError(r.t, err, "git %s", strings.Join(args, " "))
	return strings.TrimSpace(string(out))
}

// WriteFile writes a work tree file, creating parent directories.
func (r *Repo) WriteFile(name, content string) {
	r.t.Helper()
	path := filepath.Join(r.Path, filepath.FromSlash(name))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

// ReadFile returns the content of a work tree file.
func (r *Repo) ReadFile(name string) string {
	r.t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Path, filepath.FromSlash(name)))
	require.NoError(r.t, err)
	return string(data)
}

// Exists reports whether a work tree path exists.
func (r *Repo) Exists(name string) bool {
	_, err := os.Lstat(filepath.Join(r.Path, filepath.FromSlash(name)))
	return err == nil
}

// CommitFile writes, stages and commits one file and returns the new HEAD.
func (r *Repo) CommitFile(name, content, message string) string {
	r.t.Helper()
	r.WriteFile(name, content)
	r.Git("add", "--", name)
	return r.Commit(message)
}

// Commit commits whatever is staged (possibly nothing) and returns HEAD.
func (r *Repo) Commit(message string) string {
	r.t.Helper()
	r.Git("commit", "-q", "--allow-empty", "-m", message)
	return r.Head()
}

// Head returns the HEAD commit.
func (r *Repo) Head() string {
	r.t.Helper()
	return r.Git("rev-parse", "HEAD")
}

// GitDir returns the absolute git directory.
func (r *Repo) GitDir() string {
	r.t.Helper()
	return r.Git("rev-parse", "--absolute-git-dir")
}

// SetGitlink stages a submodule pointer at path. The work tree directory is
// created when missing so closed submodules look like placeholders.
func (r *Repo) SetGitlink(path, sha string) {
	r.t.Helper()
	require.NoError(r.t, os.MkdirAll(filepath.Join(r.Path, filepath.FromSlash(path)), 0o755))
	r.Git("update-index", "--add", "--cacheinfo", "160000,"+sha+","+path)
}

// RemoveGitlink unstages the submodule pointer at path.
func (r *Repo) RemoveGitlink(path string) {
	r.t.Helper()
	r.Git("update-index", "--force-remove", path)
}

// SetURL records the URL of the submodule at path in .gitmodules and stages it.
func (r *Repo) SetURL(path, url string) {
	r.t.Helper()
	r.Git("config", "-f", ".gitmodules", "submodule."+path+".path", path)
	r.Git("config", "-f", ".gitmodules", "submodule."+path+".url", url)
	r.Git("add", ".gitmodules")
}

// RemoveURL drops the submodule at path from .gitmodules and stages the result.
func (r *Repo) RemoveURL(path string) {
	r.t.Helper()
	r.Git("config", "-f", ".gitmodules", "--remove-section", "submodule."+path)
	r.Git("add", ".gitmodules")
}

// Gitlink returns the pointer recorded for path in treeish, or "".
func (r *Repo) Gitlink(treeish, path string) string {
	r.t.Helper()
	out := r.Git("ls-tree", treeish, "--", path)
	fields := strings.Fields(out)
	if len(fields) < 3 || fields[0] != "160000" {
		return ""
	}
	return fields[2]
}

// Sub returns a handle for the nested repository at path.
func (r *Repo) Sub(path string) *Repo {
	return &Repo{t: r.t, Path: filepath.Join(r.Path, filepath.FromSlash(path))}
}
