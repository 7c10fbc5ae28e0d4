// Package sqlfluff shells out to the external SQLFluff tool.
//
// All SQL-structural work (dialect parsing, rule evaluation, safe
// auto-fixing, dbt template rendering) happens inside SQLFluff; this
// package only builds command lines, runs them, and decodes the JSON
// lint output.
package sqlfluff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrNotInstalled is returned when the sqlfluff executable cannot be run.
var ErrNotInstalled = errors.New("sqlfluff is not installed")

// Runner invokes a sqlfluff executable.
type Runner struct {
	// Bin is the path to the sqlfluff executable, usually inside the
	// managed venv.
	Bin string
	// ConfigPath is passed as --config when set.
	ConfigPath string
	// Dialect is passed as --dialect when set. Normally the dialect
	// lives in the config file instead.
	Dialect string
	// Rules restricts lint/fix to these rule codes (--rules).
	Rules []string
	// Excluded disables rule codes on top of the config file
	// (--exclude-rules).
	Excluded []string

	Logger *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) commonArgs() []string {
	var args []string
	if r.Dialect != "" {
		args = append(args, "--dialect", r.Dialect)
	}
	if r.ConfigPath != "" {
		args = append(args, "--config", r.ConfigPath)
	}
	if len(r.Rules) > 0 {
		args = append(args, "--rules", strings.Join(r.Rules, ","))
	}
	if len(r.Excluded) > 0 {
		args = append(args, "--exclude-rules", strings.Join(r.Excluded, ","))
	}
	return args
}

// Lint runs `sqlfluff lint --format json` on the given paths and decodes
// the per-file violation lists. A non-zero exit with valid JSON output
// means violations were found and is not an error.
func (r *Runner) Lint(ctx context.Context, paths ...string) ([]FileResult, error) {
	args := append([]string{"lint", "--format", "json"}, r.commonArgs()...)
	args = append(args, paths...)

	stdout, stderr, err := r.run(ctx, args)
	if err != nil && len(bytes.TrimSpace(stdout)) == 0 {
		return nil, fmt.Errorf("sqlfluff lint failed: %w (%s)", err, strings.TrimSpace(string(stderr)))
	}

	results, perr := ParseLintOutput(stdout)
	if perr != nil {
		return nil, fmt.Errorf("failed to parse sqlfluff lint output: %w", perr)
	}
	return results, nil
}

// Fix runs `sqlfluff fix` on a path, letting SQLFluff rewrite the file
// in place. --force skips the interactive confirmation prompt. With
// dryRun the tool reports what it would change without rewriting.
func (r *Runner) Fix(ctx context.Context, path string, dryRun bool) error {
	args := []string{"fix", "--force"}
	if dryRun {
		args = append(args, "--dry-run")
	}
	args = append(args, r.commonArgs()...)
	args = append(args, path)

	_, stderr, err := r.run(ctx, args)
	if err != nil {
		return fmt.Errorf("sqlfluff fix %s failed: %w (%s)", path, err, strings.TrimSpace(string(stderr)))
	}
	return nil
}

// Version runs the executable and returns its version string.
func (r *Runner) Version(ctx context.Context) (string, error) {
	stdout, stderr, err := r.run(ctx, []string{"--version"})
	if err != nil {
		return "", fmt.Errorf("%w: %v (%s)", ErrNotInstalled, err, strings.TrimSpace(string(stderr)))
	}
	return strings.TrimSpace(string(stdout)), nil
}

func (r *Runner) run(ctx context.Context, args []string) ([]byte, []byte, error) {
	bin := r.Bin
	if bin == "" {
		bin = "sqlfluff"
	}
	r.logger().Debug("running sqlfluff", "bin", bin, "args", args)

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
