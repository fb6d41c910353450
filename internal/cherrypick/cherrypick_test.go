package cherrypick

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpeabody/git-meta/internal/git"
	"github.com/bpeabody/git-meta/internal/log"
	"github.com/bpeabody/git-meta/internal/sequencer"
	"github.com/bpeabody/git-meta/internal/status"
	"github.com/bpeabody/git-meta/internal/submodule"
	"github.com/bpeabody/git-meta/internal/testutil"
)

const urlX = "https://example.com/x.git"

var testOpts = Options{Parallelism: 4, Fetch: true}

func readSequencer(t *testing.T, repo *testutil.Repo) *sequencer.State {
	t.Helper()
	state, err := sequencer.Read(context.Background(), repo.GitDir())
	require.NoError(t, err)
	return state
}

func requireClean(t *testing.T, repo *testutil.Repo) {
	t.Helper()
	rs, err := status.Read(context.Background(), repo.Path, status.Options{})
	require.NoError(t, err)
	require.True(t, rs.IsClean(), "staged=%v workdir=%v", rs.Staged, rs.Workdir)
}

// closedFixture is a meta-repo whose HEAD has a closed submodule x at fake1
// on top of base.
type closedFixture struct {
	meta *testutil.Repo
	base string
	head string
}

func newClosedFixture(t *testing.T, headEdits ...testutil.Edit) *closedFixture {
	t.Helper()
	meta := testutil.NewRepo(t, "meta")
	base := meta.CommitTree("", "base",
		testutil.File("README.md", "# meta\n"),
		testutil.Gitlink("x", fake1),
		testutil.Gitmodules(map[string]string{"x": urlX}),
	)
	head := base
	if len(headEdits) > 0 {
		head = meta.CommitTree(base, "ours", headEdits...)
	}
	meta.ResetTo(head)
	return &closedFixture{meta: meta, base: base, head: head}
}

// openFixture is a meta-repo with an open submodule s whose source history
// forks at a: b on main, c on other. HEAD points s at c; feature is a meta
// commit that moves s from a to b.
type openFixture struct {
	meta    *testutil.Repo
	src     *testutil.Repo
	sub     *testutil.Repo
	a, b, c string
	head    string
	feature string
}

func newOpenFixture(t *testing.T, conflicting bool) *openFixture {
	t.Helper()

	src := testutil.NewRepo(t, "src")
	a := src.CommitFile("f.txt", "base\n", "a")
	var b, c string
	if conflicting {
		b = src.CommitFile("f.txt", "theirs\n", "b")
		src.Git("checkout", "-q", "-b", "other", a)
		c = src.CommitFile("f.txt", "ours\n", "c")
	} else {
		b = src.CommitFile("b.txt", "b\n", "b")
		src.Git("checkout", "-q", "-b", "other", a)
		c = src.CommitFile("c.txt", "c\n", "c")
	}

	meta := testutil.NewRepo(t, "meta")
	base := meta.CommitTree("", "add s",
		testutil.File("README.md", "# meta\n"),
		testutil.Gitlink("s", a),
		testutil.Gitmodules(map[string]string{"s": src.Path}),
	)
	head := meta.CommitTree(base, "move s", testutil.Gitlink("s", c))
	feature := meta.CommitTree(base, "pick me", testutil.Gitlink("s", b))
	meta.ResetTo(head)

	sub := testutil.Clone(t, src.Path, filepath.Join(meta.Path, "s"))
	sub.ResetTo(c)

	return &openFixture{meta: meta, src: src, sub: sub, a: a, b: b, c: c, head: head, feature: feature}
}

func TestCherryPickClosedFastForward(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newClosedFixture(t, testutil.File("README.md", "changed\n"))
	target := f.meta.CommitTree(f.base, "bump x", testutil.Gitlink("x", fake2))

	res, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)

	head := f.meta.Head()
	assert.Equal(t, map[string]string{target: head}, res.NewCommits)
	assert.Equal(t, head, res.NewCommit)
	assert.Equal(t, f.head, f.meta.Git("rev-parse", "HEAD^"))
	assert.Equal(t, fake2, f.meta.Gitlink("HEAD", "x"))
	assert.Equal(t, "bump x", f.meta.Git("log", "-1", "--format=%s"))
	assert.Equal(t, "changed\n", f.meta.ReadFile("README.md"))
	assert.Nil(t, readSequencer(t, f.meta))
	requireClean(t, f.meta)
}

func TestCherryPickPureAddition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newClosedFixture(t)
	const urlY = "https://example.com/y.git"
	target := f.meta.CommitTree(f.base, "add y",
		testutil.Gitlink("lib/y", fake2),
		testutil.Gitmodules(map[string]string{"x": urlX, "lib/y": urlY}),
	)

	res, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)

	assert.Equal(t, fake2, f.meta.Gitlink("HEAD", "lib/y"))
	assert.True(t, f.meta.Exists("lib/y"), "placeholder directory")

	urls, err := submodule.URLsAtCommit(ctx, f.meta.Path, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": urlX, "lib/y": urlY}, urls)
	requireClean(t, f.meta)
}

func TestCherryPickDeletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newClosedFixture(t, testutil.File("README.md", "changed\n"))
	target := f.meta.CommitTree(f.base, "drop x",
		testutil.Remove("x"),
		testutil.Remove(".gitmodules"),
	)

	res, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)

	assert.Equal(t, "", f.meta.Gitlink("HEAD", "x"))
	assert.False(t, f.meta.Exists("x"))
	assert.False(t, f.meta.Exists(".gitmodules"))
	requireClean(t, f.meta)
}

func TestCherryPickDeletionConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newClosedFixture(t, testutil.Gitlink("x", fake2))
	target := f.meta.CommitTree(f.base, "drop x", testutil.Remove("x"))

	res, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.ErrorMessage, "Conflicting entries for submodule x")
	assert.Empty(t, res.NewCommits)

	stages := f.meta.Git("ls-files", "--stage", "--", "x")
	assert.Equal(t, "160000 "+fake1+" 1\tx\n160000 "+fake2+" 2\tx", stages)

	state := readSequencer(t, f.meta)
	require.NotNil(t, state)
	assert.Equal(t, sequencer.CherryPick, state.Type)
	assert.Equal(t, sequencer.CommitAndRef{SHA: f.head, Ref: "refs/heads/main"}, state.OriginalHead)
	assert.Equal(t, []string{target}, state.Commits)

	_, err = Continue(ctx, f.meta.Path, testOpts)
	assert.ErrorIs(t, err, ErrUnresolved)

	require.NoError(t, Abort(ctx, f.meta.Path, testOpts))
	assert.Equal(t, f.head, f.meta.Head())
	assert.Nil(t, readSequencer(t, f.meta))
	unmerged, err := git.UnmergedPaths(ctx, f.meta.Path)
	require.NoError(t, err)
	assert.Empty(t, unmerged)
	requireClean(t, f.meta)
}

func TestCherryPickLinearOpenSubmodule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newOpenFixture(t, false)

	// move HEAD back so s is at a and the feature is a fast-forward
	f.meta.ResetTo(f.meta.Git("rev-parse", f.head+"^"))
	f.sub.ResetTo(f.a)

	res, err := CherryPick(ctx, f.meta.Path, []string{f.feature}, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)

	assert.Equal(t, f.b, f.sub.Head())
	assert.Equal(t, f.b, f.meta.Gitlink("HEAD", "s"))
	assert.Empty(t, res.SubmoduleCommits)
	requireClean(t, f.meta)
}

func TestCherryPickDivergentReplay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newOpenFixture(t, false)

	res, err := CherryPick(ctx, f.meta.Path, []string{f.feature}, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)

	picked := f.sub.Head()
	assert.Equal(t, f.c, f.sub.Git("rev-parse", picked+"^"))
	assert.Equal(t, map[string]map[string]string{"s": {f.b: picked}}, res.SubmoduleCommits)
	assert.Equal(t, picked, f.meta.Gitlink("HEAD", "s"))
	assert.Equal(t, f.head, f.meta.Git("rev-parse", "HEAD^"))
	assert.Equal(t, "b\n", f.sub.ReadFile("b.txt"))
	assert.Equal(t, "c\n", f.sub.ReadFile("c.txt"))

	assert.Nil(t, readSequencer(t, f.meta))
	assert.Nil(t, readSequencer(t, f.sub))
	requireClean(t, f.meta)
}

func TestCherryPickSubmoduleConflictAbort(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newOpenFixture(t, true)

	res, err := CherryPick(ctx, f.meta.Path, []string{f.feature}, testOpts)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.ErrorMessage, "Submodule s is conflicted")
	assert.Empty(t, res.NewCommits)
	assert.True(t, git.CherryPickInProgress(ctx, f.sub.Path))

	subState := readSequencer(t, f.sub)
	require.NotNil(t, subState)
	assert.Equal(t, []string{f.b}, subState.Commits)
	assert.Equal(t, f.c, subState.OriginalHead.SHA)

	_, err = CherryPick(ctx, f.meta.Path, []string{f.feature}, testOpts)
	assert.ErrorIs(t, err, ErrInProgress)

	require.NoError(t, Abort(ctx, f.meta.Path, testOpts))
	assert.Equal(t, f.head, f.meta.Head())
	assert.Equal(t, f.c, f.sub.Head())
	assert.False(t, git.CherryPickInProgress(ctx, f.sub.Path))
	assert.Equal(t, "ours\n", f.sub.ReadFile("f.txt"))
	assert.Nil(t, readSequencer(t, f.meta))
	assert.Nil(t, readSequencer(t, f.sub))
	requireClean(t, f.meta)
}

func TestCherryPickSubmoduleConflictContinue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newOpenFixture(t, true)

	res, err := CherryPick(ctx, f.meta.Path, []string{f.feature}, testOpts)
	require.NoError(t, err)
	require.False(t, res.Succeeded())

	// still conflicted in the sub-repo
	res, err = Continue(ctx, f.meta.Path, testOpts)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.ErrorMessage, "Submodule s is conflicted")

	f.sub.WriteFile("f.txt", "resolved\n")
	f.sub.Git("add", "f.txt")

	res, err = Continue(ctx, f.meta.Path, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)

	picked := f.sub.Head()
	assert.Equal(t, f.c, f.sub.Git("rev-parse", picked+"^"))
	assert.Equal(t, "resolved\n", f.sub.ReadFile("f.txt"))
	assert.Equal(t, map[string]map[string]string{"s": {f.b: picked}}, res.SubmoduleCommits)
	assert.Equal(t, f.meta.Head(), res.NewCommit)
	assert.Equal(t, picked, f.meta.Gitlink("HEAD", "s"))
	assert.Equal(t, "pick me", f.meta.Git("log", "-1", "--format=%s"))

	assert.Nil(t, readSequencer(t, f.meta))
	assert.Nil(t, readSequencer(t, f.sub))
	requireClean(t, f.meta)
}

func TestCherryPickClosedSubmoduleNeedsReplay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newClosedFixture(t, testutil.Gitlink("x", fake3))
	target := f.meta.CommitTree(f.base, "bump x", testutil.Gitlink("x", fake2))

	res, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.ErrorMessage, "submodule x is closed")
	require.NotNil(t, readSequencer(t, f.meta))

	require.NoError(t, Abort(ctx, f.meta.Path, testOpts))
	assert.Nil(t, readSequencer(t, f.meta))
	requireClean(t, f.meta)
}

func TestCherryPickContinueAfterOpeningSubmodule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newOpenFixture(t, false)

	subPath := filepath.Join(f.meta.Path, "s")
	require.NoError(t, os.RemoveAll(subPath))
	require.NoError(t, os.Mkdir(subPath, 0o755))

	res, err := CherryPick(ctx, f.meta.Path, []string{f.feature}, testOpts)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.ErrorMessage, "submodule s is closed")

	// still closed
	res, err = Continue(ctx, f.meta.Path, testOpts)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.ErrorMessage, "submodule s is closed")
	assert.Empty(t, res.NewCommits)
	assert.Equal(t, f.head, f.meta.Head())

	sub := testutil.Clone(t, f.src.Path, subPath)
	sub.ResetTo(f.c)

	res, err = Continue(ctx, f.meta.Path, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)

	picked := sub.Head()
	assert.Equal(t, f.c, sub.Git("rev-parse", picked+"^"))
	assert.Equal(t, "b\n", sub.ReadFile("b.txt"))
	assert.Equal(t, map[string]map[string]string{"s": {f.b: picked}}, res.SubmoduleCommits)
	assert.Equal(t, f.meta.Head(), res.NewCommit)
	assert.Equal(t, f.head, f.meta.Git("rev-parse", "HEAD^"))
	assert.Equal(t, picked, f.meta.Gitlink("HEAD", "s"))

	assert.Nil(t, readSequencer(t, f.meta))
	assert.Nil(t, readSequencer(t, sub))
	requireClean(t, f.meta)
}

func TestCherryPickContinueRetriesFailedSubmoduleCommit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := testutil.NewRepo(t, "src")
	a := src.CommitFile("f.txt", "base\n", "a")
	a1 := src.CommitFile("one.txt", "1\n", "a1")
	a2 := src.CommitFile("two.txt", "2\n", "a2")
	a3 := src.CommitFile("three.txt", "3\n", "a3")
	src.Git("checkout", "-q", "-b", "other", a)
	c := src.CommitFile("c.txt", "c\n", "c")

	meta := testutil.NewRepo(t, "meta")
	base := meta.CommitTree("", "add s",
		testutil.File("README.md", "# meta\n"),
		testutil.Gitlink("s", a),
		testutil.Gitmodules(map[string]string{"s": src.Path}),
	)
	head := meta.CommitTree(base, "move s", testutil.Gitlink("s", c))
	feature := meta.CommitTree(base, "pick me", testutil.Gitlink("s", a3))
	meta.ResetTo(head)

	sub := testutil.Clone(t, src.Path, filepath.Join(meta.Path, "s"))
	sub.ResetTo(c)

	// blocks the pick of a2 without leaving a cherry-pick in progress
	sub.WriteFile("two.txt", "untracked\n")

	res, err := CherryPick(ctx, meta.Path, []string{feature}, testOpts)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.ErrorMessage, "Error in submodule s")
	assert.False(t, git.CherryPickInProgress(ctx, sub.Path))

	subState := readSequencer(t, sub)
	require.NotNil(t, subState)
	assert.Equal(t, []string{a1, a2, a3}, subState.Commits)
	assert.Equal(t, 1, subState.CurrentCommit)

	require.NoError(t, os.Remove(filepath.Join(sub.Path, "two.txt")))

	res, err = Continue(ctx, meta.Path, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)

	assert.Equal(t, "a3\na2\na1", sub.Git("log", "--format=%s", c+"..HEAD"))
	assert.Equal(t, "2\n", sub.ReadFile("two.txt"))
	require.Contains(t, res.SubmoduleCommits, "s")
	assert.ElementsMatch(t, []string{a2, a3}, keys(res.SubmoduleCommits["s"]))
	assert.Equal(t, sub.Head(), meta.Gitlink("HEAD", "s"))

	assert.Nil(t, readSequencer(t, meta))
	assert.Nil(t, readSequencer(t, sub))
	requireClean(t, meta)
}

func TestCherryPickKeepsURLWhenTargetLacksGitmodules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newClosedFixture(t, testutil.File("README.md", "changed\n"))
	target := f.meta.CommitTree(f.base, "bump x",
		testutil.Gitlink("x", fake2),
		testutil.Remove(".gitmodules"),
	)

	res, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)

	assert.Equal(t, fake2, f.meta.Gitlink("HEAD", "x"))
	urls, err := submodule.URLsAtCommit(ctx, f.meta.Path, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": urlX}, urls)
	requireClean(t, f.meta)
}

func TestAbortWarnsWhenPlaceholderIsNotEmpty(t *testing.T) {
	t.Parallel()
	f := newClosedFixture(t, testutil.Gitlink("x", fake2))
	const urlY = "https://example.com/y.git"
	target := f.meta.CommitTree(f.base, "swap x for y",
		testutil.Remove("x"),
		testutil.Gitlink("lib/y", fake3),
		testutil.Gitmodules(map[string]string{"x": urlX, "lib/y": urlY}),
	)

	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(&buf, false, false))

	res, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	require.NoError(t, err)
	require.False(t, res.Succeeded())
	require.True(t, f.meta.Exists("lib/y"), "placeholder directory")

	f.meta.WriteFile("lib/y/junk.txt", "junk\n")

	require.NoError(t, Abort(ctx, f.meta.Path, testOpts))
	assert.Contains(t, buf.String(), "failed to remove placeholder")
	assert.Contains(t, buf.String(), "lib/y")
	assert.Equal(t, f.head, f.meta.Head())
	assert.Nil(t, readSequencer(t, f.meta))
}

func TestCherryPickWhileLocked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newClosedFixture(t)
	target := f.meta.CommitTree(f.base, "bump x", testutil.Gitlink("x", fake2))

	lock := sequencer.NewLock(f.meta.GitDir())
	require.NoError(t, lock.Lock())

	_, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	assert.ErrorIs(t, err, ErrBusy)
	assert.True(t, IsUserError(err))
	assert.ErrorIs(t, Abort(ctx, f.meta.Path, testOpts), ErrBusy)

	require.NoError(t, lock.Unlock())
	res, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	require.NoError(t, err)
	assert.True(t, res.Succeeded(), res.ErrorMessage)
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCherryPickMultipleCommits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newClosedFixture(t, testutil.File("README.md", "changed\n"))
	first := f.meta.CommitTree(f.base, "one", testutil.Gitlink("x", fake2))
	second := f.meta.CommitTree(first, "two",
		testutil.Gitlink("x", fake3),
		testutil.File("notes/todo.txt", "ship it\n"),
	)

	res, err := CherryPick(ctx, f.meta.Path, []string{first, second}, testOpts)
	require.NoError(t, err)
	require.True(t, res.Succeeded(), res.ErrorMessage)
	require.Len(t, res.NewCommits, 2)

	assert.Equal(t, res.NewCommits[second], f.meta.Head())
	assert.Equal(t, res.NewCommits[first], f.meta.Git("rev-parse", "HEAD^"))
	assert.Equal(t, fake3, f.meta.Gitlink("HEAD", "x"))
	assert.Equal(t, fake2, f.meta.Gitlink("HEAD^", "x"))
	assert.Equal(t, "ship it\n", f.meta.ReadFile("notes/todo.txt"))
	assert.Equal(t, "changed\n", f.meta.ReadFile("README.md"))
	assert.Nil(t, readSequencer(t, f.meta))
	requireClean(t, f.meta)
}

func TestCherryPickNothingToCommit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newClosedFixture(t, testutil.Gitlink("x", fake2))
	target := f.meta.CommitTree(f.base, "same bump", testutil.Gitlink("x", fake2))

	res, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
	assert.ErrorIs(t, err, ErrNothingToCommit)
	require.NotNil(t, res)
	assert.Empty(t, res.NewCommits)
	assert.Equal(t, f.head, f.meta.Head())
	assert.Nil(t, readSequencer(t, f.meta))
}

func TestCherryPickPreconditions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("dirty meta file", func(t *testing.T) {
		t.Parallel()
		f := newClosedFixture(t)
		target := f.meta.CommitTree(f.base, "bump", testutil.Gitlink("x", fake2))
		f.meta.WriteFile("README.md", "dirty\n")

		_, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
		assert.ErrorIs(t, err, ErrDirty)
		assert.True(t, IsUserError(err))
		assert.Nil(t, readSequencer(t, f.meta), "no sequencer before the checks pass")
	})

	t.Run("dirty sub-repo", func(t *testing.T) {
		t.Parallel()
		f := newOpenFixture(t, false)
		f.sub.WriteFile("c.txt", "dirty\n")

		_, err := CherryPick(ctx, f.meta.Path, []string{f.feature}, testOpts)
		assert.ErrorIs(t, err, ErrDirty)
		assert.Nil(t, readSequencer(t, f.meta))
	})

	t.Run("url change", func(t *testing.T) {
		t.Parallel()
		f := newClosedFixture(t)
		target := f.meta.CommitTree(f.base, "move x",
			testutil.Gitmodules(map[string]string{"x": "https://mirror.example.com/x.git"}),
		)

		_, err := CherryPick(ctx, f.meta.Path, []string{target}, testOpts)
		assert.ErrorIs(t, err, ErrURLChange)
		assert.Contains(t, err.Error(), "x")
		assert.Nil(t, readSequencer(t, f.meta))
	})

	t.Run("unknown commit", func(t *testing.T) {
		t.Parallel()
		f := newClosedFixture(t)

		_, err := CherryPick(ctx, f.meta.Path, []string{"no-such-commit"}, testOpts)
		require.Error(t, err)
		assert.False(t, IsUserError(err))
	})

	t.Run("no operation", func(t *testing.T) {
		t.Parallel()
		f := newClosedFixture(t)

		_, err := Continue(ctx, f.meta.Path, testOpts)
		assert.ErrorIs(t, err, ErrNoOperation)
		assert.ErrorIs(t, Abort(ctx, f.meta.Path, testOpts), ErrNoOperation)
	})

	t.Run("continue needs a cherry-pick", func(t *testing.T) {
		t.Parallel()
		f := newClosedFixture(t)
		require.NoError(t, sequencer.Write(f.meta.GitDir(), &sequencer.State{
			Type:         sequencer.Rebase,
			OriginalHead: sequencer.CommitAndRef{SHA: f.head},
			Target:       sequencer.CommitAndRef{SHA: f.head},
			Commits:      []string{f.head},
		}))

		_, err := Continue(ctx, f.meta.Path, testOpts)
		assert.ErrorIs(t, err, ErrNoOperation)

		_, err = CherryPick(ctx, f.meta.Path, []string{f.head}, testOpts)
		assert.ErrorIs(t, err, ErrInProgress)
		assert.True(t, strings.Contains(err.Error(), "rebase"))
	})
}

func TestReport(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", report{commit: fake1, pick: newPickResult()}.String())

	r := report{
		commit:        fake1,
		conflicts:     map[string]Conflict{"b": {}, "a": {}},
		metaConflicts: []string{"README.md"},
		pick: &PickResult{
			Conflicts: map[string]string{"s": fake2},
			Errors:    map[string]string{"t": "boom"},
		},
	}
	assert.Equal(t, "Cherry-pick of 11111111 stopped:\n"+
		"Conflicting entries for submodule a\n"+
		"Conflicting entries for submodule b\n"+
		"Conflict in README.md\n"+
		"Submodule s is conflicted while cherry-picking 22222222\n"+
		"Error in submodule t: boom\n", r.String())
}
