// Package project locates the dbt project directory and keeps the
// SQLFluff configuration file pointed at it.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrDBTDirNotFound is returned when no directory named "dbt" exists
// under the search root.
var ErrDBTDirNotFound = errors.New("no dbt directory found")

// skipDirs are directory names never descended into during the search.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"dbt_packages": true,
	"target":       true,
	".fluffctl":    true,
	"audit_folder": true,
}

// FindDBTDir walks root recursively and returns the absolute path of the
// directory named "dbt" with the shortest absolute path. When several
// candidates have equally short paths the first one encountered in walk
// order wins. Returns ErrDBTDirNotFound when no candidate exists.
func FindDBTDir(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve search root: %w", err)
	}

	var best string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot && skipDirs[d.Name()] {
			return fs.SkipDir
		}
		if d.Name() == "dbt" {
			if best == "" || len(path) < len(best) {
				best = path
			}
			// A dbt directory does not contain further dbt projects we
			// would prefer; no need to descend.
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan %s: %w", absRoot, err)
	}

	if best == "" {
		return "", fmt.Errorf("%w under %s", ErrDBTDirNotFound, absRoot)
	}
	return best, nil
}

// RelativeTo converts target to a path relative to base with forward
// slashes, the form SQLFluff expects in project_dir regardless of OS.
func RelativeTo(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s against %s: %w", target, base, err)
	}
	return filepath.ToSlash(rel), nil
}

// NormalizeSlashes rewrites a path to forward slashes and collapses any
// repeated separators left behind by hand-edited configs.
func NormalizeSlashes(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}
