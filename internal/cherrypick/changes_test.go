package cherrypick

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpeabody/git-meta/internal/git"
	"github.com/bpeabody/git-meta/internal/submodule"
	"github.com/bpeabody/git-meta/internal/testutil"
)

const (
	fake1 = "1111111111111111111111111111111111111111"
	fake2 = "2222222222222222222222222222222222222222"
	fake3 = "3333333333333333333333333333333333333333"

	urlA = "https://example.com/a.git"
	urlF = "https://example.com/f.git"
)

func TestComputeChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meta := testutil.NewRepo(t, "meta")

	base := meta.CommitTree("", "base",
		testutil.File("README.md", "# meta\n"),
		testutil.File("e", "file\n"),
		testutil.Gitlink("a", fake1),
		testutil.Gitlink("b", fake1),
		testutil.Gitlink("c", fake1),
		testutil.Gitlink("d", fake1),
		testutil.Gitlink("i", fake1),
		testutil.Gitlink("j", fake1),
		testutil.Gitlink("k", fake1),
		testutil.Gitmodules(map[string]string{"a": urlA}),
	)
	head := meta.CommitTree(base, "ours",
		testutil.Gitlink("b", fake3),
		testutil.Gitlink("d", fake3),
		testutil.Gitlink("g", fake2),
		testutil.Gitlink("h", fake3),
		testutil.Remove("i"),
		testutil.Remove("j"),
		testutil.Gitlink("k", fake2),
	)
	target := meta.CommitTree(base, "theirs",
		testutil.Gitlink("a", fake2),
		testutil.Gitlink("b", fake2),
		testutil.Remove("c"),
		testutil.Remove("d"),
		testutil.Remove("e"),
		testutil.Gitlink("e", fake2),
		testutil.Gitlink("f", fake2),
		testutil.Gitlink("g", fake2),
		testutil.Gitlink("h", fake2),
		testutil.Gitlink("i", fake2),
		testutil.Remove("j"),
		testutil.Gitlink("k", fake2),
		testutil.Gitmodules(map[string]string{"a": urlA, "f": urlF}),
	)

	changes, err := ComputeChanges(ctx, meta.Path, head, target)
	require.NoError(t, err)

	assert.Equal(t, map[string]*submodule.Pointer{
		"a": {SHA: fake2, URL: urlA},
		"c": nil,
		"f": {SHA: fake2, URL: urlF},
	}, changes.Simple)

	assert.Equal(t, map[string]SubmoduleChange{
		"b": {OldSHA: fake1, NewSHA: fake2},
	}, changes.Changes)

	blob := meta.BlobSHA(base, "e")
	link := func(sha string) *ConflictEntry { return &ConflictEntry{Mode: git.ModeGitlink, SHA: sha} }
	assert.Equal(t, map[string]Conflict{
		"d": {Ancestor: link(fake1), Ours: link(fake3)},
		"e": {
			Ancestor: &ConflictEntry{Mode: "100644", SHA: blob},
			Ours:     &ConflictEntry{Mode: "100644", SHA: blob},
			Theirs:   link(fake2),
		},
		"h": {Ours: link(fake3), Theirs: link(fake2)},
		"i": {Ancestor: link(fake1), Theirs: link(fake2)},
	}, changes.Conflicts)
}

func TestComputeChangesUnrelatedRoot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meta := testutil.NewRepo(t, "meta")

	head := meta.CommitTree("", "ours", testutil.Gitlink("x", fake1))
	root := meta.CommitTree("", "theirs",
		testutil.Gitlink("x", fake2),
		testutil.Gitlink("z", fake3),
	)

	changes, err := ComputeChanges(ctx, meta.Path, head, root)
	require.NoError(t, err)

	// an addition that already exists with another sha has no ancestor
	assert.Equal(t, map[string]Conflict{
		"x": {
			Ours:   &ConflictEntry{Mode: git.ModeGitlink, SHA: fake1},
			Theirs: &ConflictEntry{Mode: git.ModeGitlink, SHA: fake2},
		},
	}, changes.Conflicts)
	assert.Equal(t, map[string]*submodule.Pointer{"z": {SHA: fake3}}, changes.Simple)
	assert.Empty(t, changes.Changes)
}

func TestComputeChangesIgnoresRegularFiles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meta := testutil.NewRepo(t, "meta")

	base := meta.CommitTree("", "base", testutil.File("a.txt", "a\n"))
	target := meta.CommitTree(base, "edit", testutil.File("a.txt", "b\n"))

	changes, err := ComputeChanges(ctx, meta.Path, base, target)
	require.NoError(t, err)
	assert.True(t, changes.IsEmpty())
}

func TestURLChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	meta := testutil.NewRepo(t, "meta")

	base := meta.CommitTree("", "base",
		testutil.Gitlink("a", fake1),
		testutil.Gitmodules(map[string]string{"a": urlA}),
	)
	added := meta.CommitTree(base, "add f",
		testutil.Gitlink("f", fake1),
		testutil.Gitmodules(map[string]string{"a": urlA, "f": urlF}),
	)
	moved := meta.CommitTree(added, "move a",
		testutil.Gitmodules(map[string]string{"a": "https://mirror.example.com/a.git", "f": urlF}),
	)

	for _, tt := range []struct {
		name   string
		commit string
		want   []string
	}{
		{"root commit", base, nil},
		{"addition", added, nil},
		{"url change", moved, []string{"a"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c, err := git.ReadCommit(ctx, meta.Path, tt.commit)
			require.NoError(t, err)
			paths, err := URLChanges(ctx, meta.Path, c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths)
		})
	}
}
