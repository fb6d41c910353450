// Package sequencer models an in-progress multi-step operation (cherry-pick,
// merge, rebase) and persists it inside the repository's git directory so
// the operation can be continued or aborted later.
package sequencer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bpeabody/git-meta/internal/git"
)

// Type is the kind of sequenced operation.
type Type int

const (
	CherryPick Type = iota
	Merge
	Rebase
)

var typeNames = map[Type]string{
	CherryPick: "CHERRY_PICK",
	Merge:      "MERGE",
	Rebase:     "REBASE",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType parses the on-disk name of a Type.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown sequencer type %q", s)
}

// CommitAndRef records a commit and, optionally, the ref that named it when
// the operation started.
type CommitAndRef struct {
	SHA string
	Ref string
}

// State is the persisted form of an in-progress operation.
// Values are never modified in place; use the With* methods.
type State struct {
	Type          Type
	OriginalHead  CommitAndRef
	Target        CommitAndRef
	Commits       []string
	CurrentCommit int
}

// Validate checks the invariants every persisted state must satisfy.
func (s *State) Validate() error {
	if _, ok := typeNames[s.Type]; !ok {
		return fmt.Errorf("invalid type %d", int(s.Type))
	}
	if !git.IsValidSHA(s.OriginalHead.SHA) {
		return fmt.Errorf("invalid original head %q", s.OriginalHead.SHA)
	}
	if !git.IsValidSHA(s.Target.SHA) {
		return fmt.Errorf("invalid target %q", s.Target.SHA)
	}
	if len(s.Commits) == 0 {
		return errors.New("no commits")
	}
	for _, c := range s.Commits {
		if !git.IsValidSHA(c) {
			return fmt.Errorf("invalid commit %q", c)
		}
	}
	if s.CurrentCommit < 0 || s.CurrentCommit >= len(s.Commits) {
		return fmt.Errorf("current commit %d out of range [0, %d)", s.CurrentCommit, len(s.Commits))
	}
	return nil
}

// Current returns the commit being processed.
func (s *State) Current() string {
	return s.Commits[s.CurrentCommit]
}

// IsLast reports whether the current commit is the final one.
func (s *State) IsLast() bool {
	return s.CurrentCommit == len(s.Commits)-1
}

// Remaining returns the commits from the current one to the end.
func (s *State) Remaining() []string {
	return s.Commits[s.CurrentCommit:]
}

// WithCurrentCommit returns a copy of s pointing at commit index i.
func (s *State) WithCurrentCommit(i int) *State {
	c := s.Clone()
	c.CurrentCommit = i
	return c
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.Commits = slices.Clone(s.Commits)
	return &c
}

// Equal reports whether two states are identical.
func (s *State) Equal(o *State) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Type == o.Type &&
		s.OriginalHead == o.OriginalHead &&
		s.Target == o.Target &&
		s.CurrentCommit == o.CurrentCommit &&
		slices.Equal(s.Commits, o.Commits)
}
