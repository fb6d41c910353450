package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stretchr/testify/require"

	"github.com/bpeabody/git-meta/internal/cmd"
)

// Edit changes one path of a tree. An empty Mode removes the path.
type Edit struct {
	Path    string
	Mode    string
	SHA     string
	content *string
}

// Gitlink sets a submodule pointer.
func Gitlink(path, sha string) Edit {
	return Edit{Path: path, Mode: "160000", SHA: sha}
}

// File sets a regular file.
func File(path, content string) Edit {
	return Edit{Path: path, Mode: "100644", content: &content}
}

// Remove deletes a path.
func Remove(path string) Edit {
	return Edit{Path: path}
}

// Gitmodules sets .gitmodules to describe urls (path -> url).
func Gitmodules(urls map[string]string) Edit {
	paths := make([]string, 0, len(urls))
	for p := range urls {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "[submodule %q]\n\tpath = %s\n\turl = %s\n", p, p, urls[p])
	}
	return File(".gitmodules", b.String())
}

// CommitTree creates a commit whose tree is parent's tree with edits applied
// and returns its id. An empty parent starts from the empty tree. HEAD, the
// index and the work tree are left alone.
func (r *Repo) CommitTree(parent, message string, edits ...Edit) string {
	r.t.Helper()
	env := []string{"GIT_INDEX_FILE=" + filepath.Join(r.t.TempDir(), "index")}

	if parent != "" {
		r.GitEnv(env, "read-tree", parent)
	}
	for _, e := range edits {
		switch {
		case e.Mode == "":
			r.GitEnv(env, "update-index", "--force-remove", e.Path)
		case e.content != nil:
			sha := r.hashBlob(*e.content)
			r.GitEnv(env, "update-index", "--add", "--cacheinfo", e.Mode+","+sha+","+e.Path)
		default:
			r.GitEnv(env, "update-index", "--add", "--cacheinfo", e.Mode+","+e.SHA+","+e.Path)
		}
	}
	tree := r.GitEnv(env, "write-tree")

	args := []string{"commit-tree", tree, "-m", message}
	if parent != "" {
		args = append(args, "-p", parent)
	}
	return r.Git(args...)
}

func (r *Repo) hashBlob(content string) string {
	r.t.Helper()
	out, err := cmd.Exec(context.Background(), cmd.Options{Stdin: strings.NewReader(content)},
		"git", "-C", r.Path, "hash-object", "-w", "--stdin")
	require.NoError(r.t, err)
	return strings.TrimSpace(string(out))
}

// BlobSHA returns the blob id of path in treeish.
func (r *Repo) BlobSHA(treeish, path string) string {
	r.t.Helper()
	return r.Git("rev-parse", treeish+":"+path)
}

// ResetTo moves HEAD (and the branch it is on, even when unborn), the index
// and the work tree to commit.
func (r *Repo) ResetTo(commit string) {
	r.t.Helper()
	r.Git("update-ref", "HEAD", commit)
	r.Git("reset", "-q", "--hard")
}
