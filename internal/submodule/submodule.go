// Package submodule reads and writes the submodule URL map kept in
// .gitmodules and tells open (checked out) sub-repos from closed ones.
package submodule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bpeabody/git-meta/internal/git"
)

// GitmodulesFile is the name of the submodule config file at the meta root.
const GitmodulesFile = ".gitmodules"

// ErrClosed is returned when a sub-repo handle is requested for a submodule
// that is not checked out.
var ErrClosed = errors.New("submodule is not open")

// Pointer is a submodule commit together with the URL it is fetched from.
type Pointer struct {
	SHA string
	URL string
}

// Entry is one [submodule "name"] section of .gitmodules.
type Entry struct {
	Name string
	Path string
	URL  string
}

const entryPattern = `^submodule\..*\.(path|url)$`

// ReadEntries parses the .gitmodules found at source into path -> Entry.
func ReadEntries(ctx context.Context, repoPath string, source git.ConfigSource) (map[string]Entry, error) {
	values, err := git.ConfigRegexp(ctx, repoPath, source, entryPattern)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Entry)
	for key, value := range values {
		rest := strings.TrimPrefix(key, "submodule.")
		idx := strings.LastIndex(rest, ".")
		if idx < 0 {
			continue
		}
		name, field := rest[:idx], rest[idx+1:]
		e, ok := byName[name]
		if !ok {
			e = &Entry{Name: name, Path: name}
			byName[name] = e
		}
		switch field {
		case "path":
			e.Path = value
		case "url":
			e.URL = value
		}
	}

	entries := make(map[string]Entry, len(byName))
	for _, e := range byName {
		entries[e.Path] = *e
	}
	return entries, nil
}

// URLs converts entries to a path -> URL map.
func URLs(entries map[string]Entry) map[string]string {
	urls := make(map[string]string, len(entries))
	for path, e := range entries {
		urls[path] = e.URL
	}
	return urls
}

// URLsAtCommit reads the path -> URL map recorded in commit.
// A commit without .gitmodules yields an empty map.
func URLsAtCommit(ctx context.Context, repoPath, commit string) (map[string]string, error) {
	if commit == "" {
		return map[string]string{}, nil
	}
	found, err := git.LsTree(ctx, repoPath, commit, GitmodulesFile)
	if err != nil {
		return nil, err
	}
	if _, ok := found[GitmodulesFile]; !ok {
		return map[string]string{}, nil
	}
	entries, err := ReadEntries(ctx, repoPath, git.ConfigSource{Blob: commit + ":" + GitmodulesFile})
	if err != nil {
		return nil, err
	}
	return URLs(entries), nil
}

// URLsInIndex reads the path -> URL map staged in the index.
func URLsInIndex(ctx context.Context, repoPath string) (map[string]string, error) {
	staged, err := git.HasIndexPath(ctx, repoPath, GitmodulesFile)
	if err != nil {
		return nil, err
	}
	if !staged {
		return map[string]string{}, nil
	}
	entries, err := ReadEntries(ctx, repoPath, git.ConfigSource{Blob: ":" + GitmodulesFile})
	if err != nil {
		return nil, err
	}
	return URLs(entries), nil
}

// WriteURLs applies changes (path -> URL, "" removes the submodule) to the
// work tree .gitmodules and returns the index entry that stages the result.
// Paths without a section get one named after the path.
func WriteURLs(ctx context.Context, repoPath string, changes map[string]string) (git.IndexEntry, error) {
	file := filepath.Join(repoPath, GitmodulesFile)

	var entries map[string]Entry
	if _, err := os.Stat(file); err == nil {
		entries, err = ReadEntries(ctx, repoPath, git.ConfigSource{File: GitmodulesFile})
		if err != nil {
			return git.IndexEntry{}, err
		}
	} else {
		entries = map[string]Entry{}
	}

	paths := make([]string, 0, len(changes))
	for path := range changes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		url := changes[path]
		e, exists := entries[path]
		if url == "" {
			if exists {
				if err := git.RemoveConfigSection(ctx, repoPath, GitmodulesFile, "submodule."+e.Name); err != nil {
					return git.IndexEntry{}, err
				}
				delete(entries, path)
			}
			continue
		}
		if !exists {
			e = Entry{Name: path, Path: path}
			if err := git.SetConfig(ctx, repoPath, GitmodulesFile, "submodule."+e.Name+".path", path); err != nil {
				return git.IndexEntry{}, err
			}
		}
		if e.URL != url {
			if err := git.SetConfig(ctx, repoPath, GitmodulesFile, "submodule."+e.Name+".url", url); err != nil {
				return git.IndexEntry{}, err
			}
		}
		entries[path] = Entry{Name: e.Name, Path: path, URL: url}
	}

	if len(entries) == 0 {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return git.IndexEntry{}, fmt.Errorf("failed to remove %s: %w", GitmodulesFile, err)
		}
		return git.RemoveEntry(GitmodulesFile), nil
	}

	sha, err := git.HashObject(ctx, repoPath, GitmodulesFile)
	if err != nil {
		return git.IndexEntry{}, err
	}
	return git.IndexEntry{Mode: "100644", SHA: sha, Path: GitmodulesFile}, nil
}
