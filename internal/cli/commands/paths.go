package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// collectSQLFiles expands the given arguments into a sorted list of .sql
// files. Directories are walked recursively; plain files are taken as
// given. With no arguments the models directory is used.
func collectSQLFiles(modelsDir string, args []string) ([]string, error) {
	roots := args
	if len(roots) == 0 {
		roots = []string{modelsDir}
	}

	seen := make(map[string]bool)
	var files []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("path does not exist: %s", root)
		}

		if !info.IsDir() {
			if abs, err := filepath.Abs(root); err == nil && !seen[abs] {
				seen[abs] = true
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if skipNames[d.Name()] && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".sql") {
				return nil
			}
			if abs, err := filepath.Abs(path); err == nil && !seen[abs] {
				seen[abs] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// skipNames mirrors the directories the dbt locator never descends into.
var skipNames = map[string]bool{
	".git":         true,
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"dbt_packages": true,
	"target":       true,
	".fluffctl":    true,
}
