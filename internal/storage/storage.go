// Package storage provides atomic file and directory writes for the sequencer
// state kept in a repository's git directory and for config files.
package storage

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNotDir is returned by ReadDirFiles when the path is not a directory.
var ErrNotDir = errors.New("not a directory")

// WriteFileAtomic writes data to path through a temp file and a rename,
// creating the parent directory if needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, perm); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// WriteDirAtomic replaces the directory at path with one containing exactly
// files (name -> content). The new directory is fully written under a
// temporary sibling name before it is renamed into place, so a reader sees
// either no directory or a complete one.
func WriteDirAtomic(path string, files map[string][]byte) error {
	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp(parent, filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}

	for name, data := range files {
		if err := os.WriteFile(filepath.Join(tempDir, name), data, 0o644); err != nil {
			os.RemoveAll(tempDir)
			return err
		}
	}

	if err := os.RemoveAll(path); err != nil {
		os.RemoveAll(tempDir)
		return err
	}

	if err := os.Rename(tempDir, path); err != nil {
		os.RemoveAll(tempDir)
		return err
	}
	return nil
}

// ReadDirFiles reads the named files from dir.
// Returns os.ErrNotExist (wrapped) if dir or any file is missing.
func ReadDirFiles(dir string, names ...string) (map[string][]byte, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "read", Path: dir, Err: ErrNotDir}
	}

	files := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files[name] = data
	}
	return files, nil
}

// RemoveDir removes dir and everything below it. Missing directories are not an error.
func RemoveDir(dir string) error {
	return os.RemoveAll(dir)
}
