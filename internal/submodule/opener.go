package submodule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bpeabody/git-meta/internal/git"
)

// Opener hands out sub-repo handles for a meta-repo.
// A handle is the absolute work tree path of the sub-repo; closed submodules
// only get pointer edits and have no handle.
type Opener struct {
	metaPath string
}

// NewOpener creates an Opener for the meta-repo at metaPath.
func NewOpener(metaPath string) *Opener {
	return &Opener{metaPath: metaPath}
}

// MetaPath returns the meta-repo work tree.
func (o *Opener) MetaPath() string {
	return o.metaPath
}

// Path returns the work tree location of the submodule at path.
func (o *Opener) Path(path string) string {
	return filepath.Join(o.metaPath, filepath.FromSlash(path))
}

// IsOpen reports whether the submodule at path is checked out.
func (o *Opener) IsOpen(path string) bool {
	return git.IsRepoRoot(o.Path(path))
}

// Open returns the handle of an open submodule, or ErrClosed.
func (o *Opener) Open(path string) (string, error) {
	if !o.IsOpen(path) {
		return "", fmt.Errorf("%s: %w", path, ErrClosed)
	}
	return o.Path(path), nil
}

// OpenPaths returns the sorted paths of the open submodules among the gitlinks
// recorded in the meta index.
func (o *Opener) OpenPaths(ctx context.Context) ([]string, error) {
	links, err := git.IndexGitlinks(ctx, o.metaPath)
	if err != nil {
		return nil, err
	}
	var open []string
	for path := range links {
		if o.IsOpen(path) {
			open = append(open, path)
		}
	}
	sort.Strings(open)
	return open, nil
}

// EnsurePlaceholder creates the empty directory git expects for a closed
// submodule so the path does not show up as deleted.
func (o *Opener) EnsurePlaceholder(path string) error {
	return os.MkdirAll(o.Path(path), 0o755)
}

// Remove deletes the work tree of the submodule at path and drops its
// section from the meta-repo's local config.
func (o *Opener) Remove(ctx context.Context, path string) error {
	if err := os.RemoveAll(o.Path(path)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return git.RemoveConfigSection(ctx, o.metaPath, "", "submodule."+path)
}
