package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

const (
	// ZeroSHA is the all-zero object id git uses for "no object".
	ZeroSHA = "0000000000000000000000000000000000000000"

	// EmptyTreeSHA is the id of the empty tree.
	EmptyTreeSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

	// ModeGitlink is the tree mode of a submodule pointer.
	ModeGitlink = "160000"
)

// IsValidSHA reports whether s is a full lowercase hex object id (SHA-1 or SHA-256).
func IsValidSHA(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Signature is an author or committer line of a commit.
// Date is kept in git's raw "<unix> <tz>" form so it round-trips exactly.
type Signature struct {
	Name  string
	Email string
	Date  string
}

// Commit is a parsed commit object.
type Commit struct {
	SHA       string
	Tree      string
	Parents   []string
	Author    Signature
	Committer Signature
	Message   string
}

// FirstParent returns the first parent of c, or "" for a root commit.
func (c *Commit) FirstParent() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// ResolveCommit resolves rev to a full commit id.
func ResolveCommit(ctx context.Context, repoPath, rev string) (string, error) {
	output, err := outputGit(ctx, repoPath, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("unknown commit %q", rev)
	}
	return strings.TrimSpace(string(output)), nil
}

// HasCommit reports whether the commit sha is present in the repository's object store.
func HasCommit(ctx context.Context, repoPath, sha string) bool {
	if sha == "" {
		return false
	}
	return runGit(ctx, repoPath, "cat-file", "-e", sha+"^{commit}") == nil
}

// ReadCommit reads and parses the commit sha.
func ReadCommit(ctx context.Context, repoPath, sha string) (*Commit, error) {
	output, err := outputGit(ctx, repoPath, "cat-file", "commit", sha)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %v", sha, err)
	}
	c, err := parseCommit(output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse commit %s: %w", sha, err)
	}
	c.SHA = sha
	return c, nil
}

func parseCommit(data []byte) (*Commit, error) {
	header, message, _ := bytes.Cut(data, []byte("\n\n"))

	c := &Commit{Message: string(message)}
	for _, line := range strings.Split(string(header), "\n") {
		// continuation lines of multi-line headers (gpgsig, mergetag)
		if strings.HasPrefix(line, " ") {
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "tree":
			c.Tree = value
		case "parent":
			c.Parents = append(c.Parents, value)
		case "author":
			c.Author = parseSignature(value)
		case "committer":
			c.Committer = parseSignature(value)
		}
	}
	if c.Tree == "" {
		return nil, fmt.Errorf("missing tree header")
	}
	return c, nil
}

// parseSignature parses "Name <email> 1700000000 +0100".
func parseSignature(s string) Signature {
	open := strings.Index(s, "<")
	closing := strings.LastIndex(s, ">")
	if open < 0 || closing < open {
		return Signature{Name: strings.TrimSpace(s)}
	}
	return Signature{
		Name:  strings.TrimSpace(s[:open]),
		Email: s[open+1 : closing],
		Date:  strings.TrimSpace(s[closing+1:]),
	}
}

// TreeEntry is one entry of a tree listing.
type TreeEntry struct {
	Mode string
	Type string
	SHA  string
	Path string
}

// IsGitlink reports whether the entry is a submodule pointer.
func (e TreeEntry) IsGitlink() bool {
	return e.Mode == ModeGitlink
}

// LsTree lists the entries of treeish at exactly the given paths.
// Paths that do not exist are omitted from the result.
func LsTree(ctx context.Context, repoPath, treeish string, paths ...string) (map[string]TreeEntry, error) {
	entries := make(map[string]TreeEntry)
	if len(paths) == 0 {
		return entries, nil
	}

	args := append([]string{"ls-tree", "-z", "--full-tree", treeish, "--"}, paths...)
	output, err := outputGit(ctx, repoPath, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tree %s: %v", treeish, err)
	}
	for _, e := range parseTreeEntries(output) {
		entries[e.Path] = e
	}
	return entries, nil
}

// Gitlinks returns every submodule pointer (path -> sha) recorded in treeish.
func Gitlinks(ctx context.Context, repoPath, treeish string) (map[string]string, error) {
	output, err := outputGit(ctx, repoPath, "ls-tree", "-r", "-z", "--full-tree", treeish)
	if err != nil {
		return nil, fmt.Errorf("failed to list tree %s: %v", treeish, err)
	}
	links := make(map[string]string)
	for _, e := range parseTreeEntries(output) {
		if e.IsGitlink() {
			links[e.Path] = e.SHA
		}
	}
	return links, nil
}

// parseTreeEntries parses "mode type sha\tpath" records separated by NUL.
func parseTreeEntries(output []byte) []TreeEntry {
	var entries []TreeEntry
	for _, rec := range strings.Split(string(output), "\x00") {
		if rec == "" {
			continue
		}
		meta, path, ok := strings.Cut(rec, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 {
			continue
		}
		entries = append(entries, TreeEntry{Mode: fields[0], Type: fields[1], SHA: fields[2], Path: path})
	}
	return entries
}

// TreeChange is one path changed between two trees.
// Modes are "000000" and SHAs ZeroSHA on the side where the path is absent.
type TreeChange struct {
	OldMode string
	NewMode string
	OldSHA  string
	NewSHA  string
	Status  byte
	Path    string
}

// IsGitlink reports whether either side of the change is a submodule pointer.
func (c TreeChange) IsGitlink() bool {
	return c.OldMode == ModeGitlink || c.NewMode == ModeGitlink
}

// DiffTree lists the paths that differ between the trees of from and to.
// An empty from means the empty tree.
func DiffTree(ctx context.Context, repoPath, from, to string) ([]TreeChange, error) {
	if from == "" {
		from = EmptyTreeSHA
	}
	output, err := outputGit(ctx, repoPath, "diff-tree", "-r", "-z", "--no-renames", "--no-commit-id", from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %v", from, to, err)
	}
	return parseDiffTree(output), nil
}

// parseDiffTree parses ":oldmode newmode oldsha newsha status\0path\0" records.
func parseDiffTree(output []byte) []TreeChange {
	var changes []TreeChange
	fields := strings.Split(string(output), "\x00")
	for i := 0; i+1 < len(fields); i += 2 {
		meta := strings.TrimPrefix(fields[i], ":")
		parts := strings.Fields(meta)
		if len(parts) != 5 || parts[4] == "" {
			continue
		}
		changes = append(changes, TreeChange{
			OldMode: parts[0],
			NewMode: parts[1],
			OldSHA:  parts[2],
			NewSHA:  parts[3],
			Status:  parts[4][0],
			Path:    fields[i+1],
		})
	}
	return changes
}

// HashObject writes the file at path (relative to the work tree) into the
// object store and returns its blob id.
func HashObject(ctx context.Context, repoPath, path string) (string, error) {
	output, err := outputGit(ctx, repoPath, "hash-object", "-w", "--", path)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %v", path, err)
	}
	return strings.TrimSpace(string(output)), nil
}
