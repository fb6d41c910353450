// Package status models the combined state of a meta-repo and its
// sub-repos: file changes at each level, submodule pointers in HEAD, the
// index and the work tree, and nested statuses of open sub-repos.
package status

import (
	"maps"
	"sort"

	"github.com/bpeabody/git-meta/internal/sequencer"
	"github.com/bpeabody/git-meta/internal/submodule"
)

// FileStatus is the change recorded for one path.
type FileStatus int

const (
	Added FileStatus = iota
	Modified
	Removed
	Conflicted
)

func (s FileStatus) String() string {
	switch s {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case Conflicted:
		return "conflicted"
	}
	return "unknown"
}

// CommitRelation describes how one commit relates to another.
type CommitRelation int

const (
	// Same means both commits are identical.
	Same CommitRelation = iota
	// Ahead means the newer commit descends from the older one.
	Ahead
	// Behind means the older commit descends from the newer one.
	Behind
	// Unknown means the relation could not be determined, usually because
	// the sub-repo is closed or lacks one of the commits.
	Unknown
	// Unrelated means neither commit descends from the other.
	Unrelated
)

func (r CommitRelation) String() string {
	switch r {
	case Same:
		return "same"
	case Ahead:
		return "ahead"
	case Behind:
		return "behind"
	case Unrelated:
		return "unrelated"
	}
	return "unknown"
}

// Index is a submodule pointer staged in the meta index.
// Relation compares it with the pointer in HEAD.
type Index struct {
	SHA      string
	URL      string
	Relation CommitRelation
}

// Workdir is the checked out state of an open sub-repo.
// Relation compares the sub-repo HEAD with the staged pointer.
type Workdir struct {
	Status   *RepoStatus
	Relation CommitRelation
}

// Submodule is the state of one sub-repo as seen from the meta-repo.
// Commit and Index are nil when the submodule is absent from HEAD or the
// index; Workdir is nil when the sub-repo is closed.
type Submodule struct {
	Commit  *submodule.Pointer
	Index   *Index
	Workdir *Workdir
}

// IsOpen reports whether the sub-repo is checked out.
func (s *Submodule) IsOpen() bool {
	return s.Workdir != nil
}

// IsNew reports whether the submodule was added in the index but not committed.
func (s *Submodule) IsNew() bool {
	return s.Commit == nil && s.Index != nil
}

// IsCommitted reports whether the staged pointer and URL match HEAD.
func (s *Submodule) IsCommitted() bool {
	if s.Commit == nil || s.Index == nil {
		return s.Commit == nil && s.Index == nil
	}
	return s.Commit.SHA == s.Index.SHA && s.Commit.URL == s.Index.URL
}

// IsClean reports whether the submodule has no staged pointer change and,
// when open, its HEAD matches the index and its own status is clean.
func (s *Submodule) IsClean() bool {
	if !s.IsCommitted() {
		return false
	}
	if s.Workdir == nil {
		return true
	}
	return s.Workdir.Relation == Same && s.Workdir.Status.IsClean()
}

// WithIndex returns a copy of s with a different staged pointer.
func (s Submodule) WithIndex(idx *Index) *Submodule {
	s.Index = idx
	return &s
}

// WithWorkdir returns a copy of s with a different work tree state.
func (s Submodule) WithWorkdir(wd *Workdir) *Submodule {
	s.Workdir = wd
	return &s
}

// RepoStatus is a snapshot of one repository level.
// CurrentBranch is "" when HEAD is detached; HeadCommit is "" when HEAD is
// unborn. Sequencer is non-nil while a sequenced operation is in progress.
type RepoStatus struct {
	CurrentBranch string
	HeadCommit    string
	Staged        map[string]FileStatus
	Workdir       map[string]FileStatus
	Submodules    map[string]*Submodule
	Sequencer     *sequencer.State
}

// IsClean reports whether nothing is staged or modified at this level and
// every submodule is clean.
func (r *RepoStatus) IsClean() bool {
	return r.IsDeepClean(true)
}

// IsDeepClean is IsClean where includeMeta controls whether this level's own
// file changes count; submodules are always checked, recursively.
func (r *RepoStatus) IsDeepClean(includeMeta bool) bool {
	if includeMeta && (len(r.Staged) != 0 || len(r.Workdir) != 0) {
		return false
	}
	for _, sub := range r.Submodules {
		if !sub.IsClean() {
			return false
		}
	}
	return true
}

// SubmoduleNames returns the sorted submodule names.
func (r *RepoStatus) SubmoduleNames() []string {
	names := make([]string, 0, len(r.Submodules))
	for name := range r.Submodules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of r whose maps can be changed independently.
func (r *RepoStatus) Clone() *RepoStatus {
	c := *r
	c.Staged = maps.Clone(r.Staged)
	c.Workdir = maps.Clone(r.Workdir)
	c.Submodules = maps.Clone(r.Submodules)
	return &c
}

// WithSubmodule returns a copy of r with the named submodule replaced.
func (r *RepoStatus) WithSubmodule(name string, sub *Submodule) *RepoStatus {
	c := r.Clone()
	if c.Submodules == nil {
		c.Submodules = make(map[string]*Submodule)
	}
	c.Submodules[name] = sub
	return c
}
