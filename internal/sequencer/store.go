package sequencer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bpeabody/git-meta/internal/log"
	"github.com/bpeabody/git-meta/internal/storage"
)

// DirName is the directory, relative to the git dir, holding the state.
const DirName = "meta_sequencer"

const (
	typeFile          = "TYPE"
	originalHeadFile  = "ORIGINAL_HEAD"
	targetFile        = "TARGET"
	commitsFile       = "COMMITS"
	currentCommitFile = "CURRENT_COMMIT"
)

var recordFiles = []string{typeFile, originalHeadFile, targetFile, commitsFile, currentCommitFile}

// Dir returns the sequencer directory for a git dir.
func Dir(gitDir string) string {
	return filepath.Join(gitDir, DirName)
}

// Write replaces any sequencer state stored under gitDir with state.
// The previous directory is removed entirely, and the new one appears
// atomically, so stale records can never leak into a later read.
func Write(gitDir string, state *State) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("refusing to write sequencer state: %w", err)
	}

	files := map[string][]byte{
		typeFile:          []byte(state.Type.String() + "\n"),
		originalHeadFile:  formatCommitAndRef(state.OriginalHead),
		targetFile:        formatCommitAndRef(state.Target),
		commitsFile:       []byte(strings.Join(state.Commits, "\n") + "\n"),
		currentCommitFile: []byte(strconv.Itoa(state.CurrentCommit)),
	}
	if err := storage.WriteDirAtomic(Dir(gitDir), files); err != nil {
		return fmt.Errorf("failed to write sequencer state: %w", err)
	}
	return nil
}

// Read returns the sequencer state stored under gitDir, or nil when there is
// none. A malformed state, including a regular file in place of the
// directory, also reads as nil and is logged. Only unexpected I/O errors are
// returned.
func Read(ctx context.Context, gitDir string) (*State, error) {
	dir := Dir(gitDir)
	files, err := storage.ReadDirFiles(dir, recordFiles...)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		if errors.Is(err, storage.ErrNotDir) {
			log.FromContext(ctx).Warn("ignoring malformed sequencer state", "dir", dir, "err", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sequencer state: %w", err)
	}

	state, err := parse(files)
	if err != nil {
		log.FromContext(ctx).Warn("ignoring malformed sequencer state", "dir", dir, "err", err)
		return nil, nil
	}
	return state, nil
}

// Clean removes the sequencer state under gitDir. It is a no-op when none exists.
func Clean(gitDir string) error {
	if err := storage.RemoveDir(Dir(gitDir)); err != nil {
		return fmt.Errorf("failed to remove sequencer state: %w", err)
	}
	return nil
}

func formatCommitAndRef(c CommitAndRef) []byte {
	if c.Ref == "" {
		return []byte(c.SHA + "\n")
	}
	return []byte(c.SHA + "\n" + c.Ref + "\n")
}

func parse(files map[string][]byte) (*State, error) {
	typeLines, err := lines(files[typeFile])
	if err != nil || len(typeLines) != 1 {
		return nil, fmt.Errorf("bad %s", typeFile)
	}
	t, err := ParseType(typeLines[0])
	if err != nil {
		return nil, err
	}

	original, err := parseCommitAndRef(files[originalHeadFile])
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", originalHeadFile, err)
	}
	target, err := parseCommitAndRef(files[targetFile])
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", targetFile, err)
	}

	commits, err := lines(files[commitsFile])
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", commitsFile, err)
	}

	current, err := strconv.Atoi(strings.TrimSpace(string(files[currentCommitFile])))
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", currentCommitFile, err)
	}

	state := &State{
		Type:          t,
		OriginalHead:  original,
		Target:        target,
		Commits:       commits,
		CurrentCommit: current,
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

// lines splits newline-terminated records.
func lines(data []byte) ([]string, error) {
	s := string(data)
	if !strings.HasSuffix(s, "\n") {
		return nil, errors.New("missing trailing newline")
	}
	out := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for _, l := range out {
		if l == "" {
			return nil, errors.New("empty record")
		}
	}
	return out, nil
}

func parseCommitAndRef(data []byte) (CommitAndRef, error) {
	ls, err := lines(data)
	if err != nil {
		return CommitAndRef{}, err
	}
	switch len(ls) {
	case 1:
		return CommitAndRef{SHA: ls[0]}, nil
	case 2:
		return CommitAndRef{SHA: ls[0], Ref: ls[1]}, nil
	default:
		return CommitAndRef{}, fmt.Errorf("expected 1 or 2 lines, got %d", len(ls))
	}
}
