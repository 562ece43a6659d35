// Package collector validates user-supplied source paths and expands them
// into the flat, ordered list of candidate files for one run.
package collector

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrInvalidSource wraps every source validation failure: the path does not
// exist, is not readable, or is neither a regular file nor a directory.
var ErrInvalidSource = errors.New("invalid source")

// Collect expands sources into a single ordered list of absolute,
// symlink-resolved candidate file paths. Results are concatenated per
// source argument in the order given; within a directory source, entries
// follow lexical listing order, which is stable within one run.
//
// Directory sources contribute their direct regular-file children, or with
// recurse every regular file beneath them. destAbs (the resolved
// destination root, may be empty if it does not exist yet) is never
// collected and is pruned from recursive walks.
func Collect(sources []string, recurse bool, destAbs string) ([]string, error) {
	var files []string
	for _, src := range sources {
		abs, err := validate(src)
		if err != nil {
			return nil, err
		}
		if destAbs != "" && abs == destAbs {
			return nil, fmt.Errorf("%w: %s is the destination directory", ErrInvalidSource, src)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSource, src, err)
		}
		if !info.IsDir() {
			files = append(files, abs)
			continue
		}

		var collected []string
		if recurse {
			collected, err = walkDir(abs, destAbs)
		} else {
			collected, err = listDir(abs)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSource, src, err)
		}
		files = append(files, collected...)
	}
	return files, nil
}

// validate checks that src exists, is readable, and is a regular file or
// directory, returning its absolute symlink-resolved path.
func validate(src string) (string, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidSource, src, err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidSource, src, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidSource, src, err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file or directory", ErrInvalidSource, src)
	}

	// Readability check up front so the failure names the offending
	// argument instead of surfacing mid-walk.
	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not readable: %v", ErrInvalidSource, src, err)
	}
	f.Close()

	return abs, nil
}

// listDir returns the direct children of dir that are regular files, in
// lexical order. Subdirectories and non-regular entries are silently
// excluded.
func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// walkDir returns every regular file beneath dir, pruning the destination
// subtree so a run never re-collects its own output.
func walkDir(dir, destAbs string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if destAbs != "" && path == destAbs {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
