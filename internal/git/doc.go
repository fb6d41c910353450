// Package git provides git operations via shell commands.
//
// All operations call the git CLI through [github.com/bpeabody/git-meta/internal/cmd]
// with "git -C <repo>", so user configuration (SSH keys, credential helpers,
// hooks) applies unchanged.
//
// # Commits and Trees
//
//   - [Head], [HeadRef], [GetCurrentBranch]: where HEAD points
//   - [ReadCommit], [ResolveCommit], [HasCommit]: commit objects
//   - [LsTree], [Gitlinks], [DiffTree]: tree contents and differences
//   - [CommitTree], [UpdateHead]: create commits and move HEAD
//
// # Index
//
// The index is edited directly with "update-index --index-info", which can
// write conflict stages as well as ordinary entries:
//
//   - [UpdateIndex], [RemoveEntry]: batch index edits
//   - [UnmergedPaths], [IndexGitlinks], [HasStagedChanges]: index queries
//   - [WriteTree]: turn the index into a tree
//
// # History and Replay
//
//   - [MergeBase], [IsAncestor], [RevList]: commit graph queries
//   - [Fetch]: fetch single commits from a URL
//   - [CherryPick], [CherryPickContinue], [CherryPickAbort]: replay commits
//     inside a sub-repository, reporting conflicts as [Conflicted]
//   - [DiffPatch], [ApplyPatch]: move file changes between commits
//
// # Configuration
//
// [ConfigRegexp] reads git config from a file, blob or the index, which is how
// .gitmodules is read at arbitrary commits; [SetConfig] and
// [RemoveConfigSection] edit it.
package git
