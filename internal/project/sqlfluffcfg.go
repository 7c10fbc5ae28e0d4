package project

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrProjectDirKeyNotFound is returned when the config file contains no
// project_dir line to patch.
var ErrProjectDirKeyNotFound = errors.New("no project_dir line found")

// projectDirLine matches a project_dir assignment, capturing any leading
// whitespace so the patched line keeps the file's indentation.
var projectDirLine = regexp.MustCompile(`^(\s*)project_dir\s*=`)

// PatchResult describes the outcome of a PatchProjectDir call.
type PatchResult struct {
	ConfigPath string
	OldValue   string
	NewValue   string
	Changed    bool
}

// PatchProjectDir rewrites the first project_dir line of the SQLFluff
// config at path to point at newDir (already relative and slash
// normalized). All other lines are preserved byte for byte, so re-running
// with the same value is a no-op. A config without a project_dir line is
// an error and the file is left untouched.
func PatchProjectDir(path, newDir string) (*PatchResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	newDir = NormalizeSlashes(newDir)
	lines := strings.Split(string(data), "\n")

	patched := false
	result := &PatchResult{ConfigPath: path, NewValue: newDir}
	for i, line := range lines {
		// Preserve a CRLF ending if the file has one.
		eol := ""
		body := line
		if strings.HasSuffix(body, "\r") {
			eol = "\r"
			body = strings.TrimSuffix(body, "\r")
		}

		m := projectDirLine.FindStringSubmatch(body)
		if m == nil {
			continue
		}

		result.OldValue = strings.TrimSpace(strings.SplitN(body, "=", 2)[1])
		lines[i] = m[1] + "project_dir = " + newDir + eol
		patched = true
		break
	}

	if !patched {
		return nil, fmt.Errorf("%w in %s", ErrProjectDirKeyNotFound, path)
	}

	out := strings.Join(lines, "\n")
	if out == string(data) {
		// Already pointing at the resolved directory.
		return result, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("failed to write config %s: %w", path, err)
	}

	result.Changed = true
	return result, nil
}

// Settings holds the handful of SQLFluff settings the harness reports on.
// Everything else in the file is opaque to us; only SQLFluff interprets it.
type Settings struct {
	Dialect    string
	Templater  string
	ProjectDir string
}

// ReadSettings scans the SQLFluff config for the dialect, templater and
// project_dir keys. Missing keys are returned as empty strings.
func ReadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	s := &Settings{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "dialect":
			if s.Dialect == "" {
				s.Dialect = value
			}
		case "templater":
			if s.Templater == "" {
				s.Templater = value
			}
		case "project_dir":
			if s.ProjectDir == "" {
				s.ProjectDir = value
			}
		}
	}
	return s, nil
}
