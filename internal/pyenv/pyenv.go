// Package pyenv manages the Python virtual environment SQLFluff runs in.
//
// The harness never vendors SQLFluff itself; it creates an isolated venv
// with a base interpreter and installs the pinned requirements into it.
package pyenv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// EnvPython is the environment variable naming the base interpreter.
const EnvPython = "FLUFFCTL_PYTHON"

var (
	// ErrInterpreterNotFound is returned when no Python interpreter can
	// be resolved from flags, config, environment, or PATH.
	ErrInterpreterNotFound = errors.New("python interpreter not found")
	// ErrRequirementsNotFound is returned when the requirements file is
	// missing.
	ErrRequirementsNotFound = errors.New("requirements file not found")
)

// ResolveInterpreter picks the base Python interpreter. Precedence:
// explicit (flag or config) > $FLUFFCTL_PYTHON > python3/python on PATH.
func ResolveInterpreter(explicit string) (string, error) {
	if explicit != "" {
		if p, err := exec.LookPath(explicit); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: %q is not executable", ErrInterpreterNotFound, explicit)
	}
	if fromEnv := os.Getenv(EnvPython); fromEnv != "" {
		if p, err := exec.LookPath(fromEnv); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: $%s=%q is not executable", ErrInterpreterNotFound, EnvPython, fromEnv)
	}
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: set $%s or install python on PATH", ErrInterpreterNotFound, EnvPython)
}

// Env is a Python virtual environment on disk.
type Env struct {
	// Python is the base interpreter used to create the venv.
	Python string
	// Dir is the venv directory.
	Dir string

	Logger *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// binDir returns the venv's executable directory (bin on Unix, Scripts
// on Windows).
func (e *Env) binDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.Dir, "Scripts")
	}
	return filepath.Join(e.Dir, "bin")
}

// Tool returns the path of an executable inside the venv.
func (e *Env) Tool(name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(e.binDir(), name)
}

// Exists reports whether the venv has been created.
func (e *Env) Exists() bool {
	cfg := filepath.Join(e.Dir, "pyvenv.cfg")
	if _, err := os.Stat(cfg); err == nil {
		return true
	}
	return false
}

// Remove deletes the venv directory. The path must look like a venv
// (pyvenv.cfg present) so a misconfigured Dir never wipes arbitrary
// directories.
func (e *Env) Remove() error {
	if !e.Exists() {
		return nil
	}
	e.logger().Info("removing virtual environment", "dir", e.Dir)
	return os.RemoveAll(e.Dir)
}

// Create builds the venv with the base interpreter. Creating over an
// existing venv is a no-op.
func (e *Env) Create(ctx context.Context) error {
	if e.Exists() {
		e.logger().Debug("venv already exists", "dir", e.Dir)
		return nil
	}
	if e.Python == "" {
		return ErrInterpreterNotFound
	}
	e.logger().Info("creating virtual environment", "dir", e.Dir, "python", e.Python)
	return e.run(ctx, e.Python, "-m", "venv", e.Dir)
}

// InstallRequirements installs the pinned dependency list into the venv
// with the venv's own pip.
func (e *Env) InstallRequirements(ctx context.Context, requirementsPath string) error {
	if _, err := os.Stat(requirementsPath); err != nil {
		return fmt.Errorf("%w: %s", ErrRequirementsNotFound, requirementsPath)
	}
	if !e.Exists() {
		return fmt.Errorf("venv does not exist at %s, run setup first", e.Dir)
	}
	pip := e.Tool("pip")
	e.logger().Info("installing requirements", "file", requirementsPath)
	if err := e.run(ctx, pip, "install", "--upgrade", "pip"); err != nil {
		return fmt.Errorf("failed to upgrade pip: %w", err)
	}
	if err := e.run(ctx, pip, "install", "-r", requirementsPath); err != nil {
		return fmt.Errorf("failed to install requirements: %w", err)
	}
	return nil
}

func (e *Env) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if out, err := cmd.Output(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(string(out))
		}
		return fmt.Errorf("%s %s: %w (%s)", filepath.Base(name), strings.Join(args, " "), err, msg)
	}
	return nil
}
