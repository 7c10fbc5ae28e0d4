package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/harborview-data/fluffctl/internal/audit"
	"github.com/harborview-data/fluffctl/internal/cli/output"
	"github.com/harborview-data/fluffctl/internal/preformat"
	"github.com/harborview-data/fluffctl/internal/project"
	"github.com/harborview-data/fluffctl/internal/sqlfluff"
)

// FixOptions holds options for the fix command.
type FixOptions struct {
	Audit       bool // Record per-stage snapshots to the audit directory
	Watch       bool // Keep running and fix files as they change
	NoQualify   bool // Skip the unqualified-reference rewrite
	NoPreformat bool // Skip the pre-format pipeline, run sqlfluff fix only
	Noqa        bool // Suppress violations sqlfluff fix cannot repair
	DryRun      bool // Report what would change without writing anything
	Jobs        int  // Overrides the configured concurrency when > 0
}

// NewFixCommand creates the fix command.
func NewFixCommand() *cobra.Command {
	opts := &FixOptions{}
	cmd := &cobra.Command{
		Use:   "fix [paths...]",
		Short: "Pre-format SQL files and auto-fix them with SQLFluff",
		Long: `Format SQL files in two passes.

The first pass is a deterministic pre-formatter that flattens the file
and reapplies newlines, leading commas and indentation, with Jinja
blocks, strings and comments protected from rewriting. Files that
already carry the pass-1 version stamp are skipped. The second pass
hands the file to 'sqlfluff fix' for rule-driven cleanup.

Unqualified column references flagged by SQLFluff get a
'requires_table_reference.' prefix so the ambiguity is visible in the
diff instead of silently guessed at. With --noqa, violations that
auto-fixing cannot repair get a '-- noqa: <code>' suppression comment
on the offending line before the fix runs.`,
		Example: `  # Fix everything under the models directory
  fluffctl fix

  # Fix one file and keep per-stage audit snapshots
  fluffctl fix models/marts/fct_orders.sql --audit

  # Suppress whatever sqlfluff cannot auto-fix
  fluffctl fix --noqa

  # Preview without touching any file
  fluffctl fix --dry-run

  # Re-fix files as they change
  fluffctl fix --watch

  # SQLFluff only, no pre-formatting
  fluffctl fix --no-preformat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Audit, "audit", false, "Record per-stage snapshots to the audit directory")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Watch for changes and re-fix modified files")
	cmd.Flags().BoolVar(&opts.NoQualify, "no-qualify", false, "Skip the unqualified-reference rewrite")
	cmd.Flags().BoolVar(&opts.NoPreformat, "no-preformat", false, "Skip pre-formatting, run sqlfluff fix only")
	cmd.Flags().BoolVar(&opts.Noqa, "noqa", false, "Add noqa suppressions for violations sqlfluff cannot fix")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report what would change without writing any file")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 0, "Maximum files fixed concurrently (default from config)")

	return cmd
}

// FileFix is the per-file outcome reported by the fix command.
type FileFix struct {
	Path         string `json:"path"`
	Skipped      bool   `json:"skipped"`
	Qualified    int    `json:"qualified,omitempty"`
	NoqaAdded    int    `json:"noqa_added,omitempty"`
	DiffDetected bool   `json:"diff_detected,omitempty"`
	Error        string `json:"error,omitempty"`
}

// FixOutput is the JSON output for the fix command.
type FixOutput struct {
	Files    []FileFix `json:"files"`
	Fixed    int       `json:"fixed"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	DryRun   bool      `json:"dry_run,omitempty"`
	AuditDir string    `json:"audit_dir,omitempty"`
}

// fixer bundles everything one fix invocation needs; watch mode reuses
// it across filesystem events.
type fixer struct {
	cmdCtx *CommandContext
	runner *sqlfluff.Runner
	trail  *audit.Trail
	opts   *FixOptions
}

func runFix(cmd *cobra.Command, opts *FixOptions, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	if len(args) == 0 {
		if err := cfg.ValidateModelsDir(); err != nil {
			return err
		}
	}

	runner := cmdCtx.Runner()
	if cfg.Lint != nil {
		runner.Excluded = cfg.Lint.Excluded
	}

	var trail *audit.Trail
	if opts.Audit {
		trail = audit.New(cfg.AuditDir, true)
	}

	f := &fixer{cmdCtx: cmdCtx, runner: runner, trail: trail, opts: opts}

	if opts.Watch {
		return f.watch(cmd.Context(), args)
	}

	files, err := collectSQLFiles(cfg.ModelsDir, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		r.Warning("No SQL files found")
		return nil
	}

	out := f.fixAll(cmd.Context(), files)
	out.DryRun = opts.DryRun
	if trail != nil {
		out.AuditDir = trail.Dir()
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		renderFixReport(r, out)
	}

	if out.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to fix", out.Failed)
	}
	return nil
}

// jobs returns the effective concurrency limit.
func (f *fixer) jobs() int {
	if f.opts.Jobs > 0 {
		return f.opts.Jobs
	}
	if f.cmdCtx.Cfg.Jobs > 0 {
		return f.cmdCtx.Cfg.Jobs
	}
	return 1
}

// fixAll fixes the given files with bounded concurrency. Per-file
// failures are collected, not fatal, so one broken model never blocks
// the rest of the tree.
func (f *fixer) fixAll(ctx context.Context, files []string) *FixOutput {
	var mu sync.Mutex
	out := &FixOutput{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.jobs())

	for _, path := range files {
		g.Go(func() error {
			res := f.fixOne(ctx, path)
			mu.Lock()
			defer mu.Unlock()
			out.Files = append(out.Files, res)
			switch {
			case res.Error != "":
				out.Failed++
			case res.Skipped:
				out.Skipped++
			default:
				out.Fixed++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Path < out.Files[j].Path })
	return out
}

// fixOne runs the full pipeline on a single file. In dry-run mode
// nothing is written, so current stays equal to the on-disk content
// and every pass only reports what it would do.
func (f *fixer) fixOne(ctx context.Context, path string) FileFix {
	res := FileFix{Path: path}
	logger := f.cmdCtx.Logger

	raw, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	original := string(raw)

	current := original
	var pre preformat.Result
	if f.opts.NoPreformat {
		pre = preformat.Result{Text: original}
	} else {
		pre = preformat.Run(original, preformat.Options{RecordStages: f.trail != nil})
		if pre.Skipped {
			logger.Debug("already formatted", "path", path)
			res.Skipped = true
			return res
		}
		res.DiffDetected = pre.DiffDetected
		if !f.opts.DryRun {
			current = pre.Text
			if err := writeBack(path, current); err != nil {
				res.Error = err.Error()
				return res
			}
		}
	}

	if !f.opts.NoQualify {
		n, err := f.qualify(ctx, path, &current)
		if err != nil {
			// Qualification is best effort; sqlfluff fix still runs.
			logger.Warn("qualification pass failed", "path", path, "error", err)
		}
		res.Qualified = n
	}

	if f.opts.Noqa {
		n, err := f.noqa(ctx, path, &current)
		if err != nil {
			logger.Warn("noqa pass failed", "path", path, "error", err)
		}
		res.NoqaAdded = n
	}

	if err := f.runner.Fix(ctx, path, f.opts.DryRun); err != nil {
		res.Error = err.Error()
		return res
	}

	if f.trail != nil && !f.opts.DryRun {
		rel := relToRoot(f.cmdCtx.Cfg.ProjectRoot, path)
		if err := f.trail.Record(rel, original, pre); err != nil {
			logger.Warn("failed to write audit trail", "path", path, "error", err)
		}
	}

	logger.Debug("fixed", "path", path, "qualified", res.Qualified)
	return res
}

// qualify lints the file for unqualified references and prefixes each
// flagged column with the review placeholder. Returns the number of
// rewrites applied. A file already carrying the placeholder is waiting
// on a human and is not linted again.
func (f *fixer) qualify(ctx context.Context, path string, current *string) (int, error) {
	if preformat.HasQualifierPlaceholder(*current) {
		return 0, nil
	}

	lintRunner := *f.runner
	lintRunner.Rules = []string{sqlfluff.RuleUnqualifiedReference}
	lintRunner.Excluded = nil

	results, err := lintRunner.Lint(ctx, path)
	if err != nil {
		return 0, err
	}
	fields := sqlfluff.UnqualifiedFields(results)
	if len(fields) == 0 {
		return 0, nil
	}

	qualified, n := preformat.QualifyFields(*current, fields)
	if n == 0 || f.opts.DryRun {
		return n, nil
	}
	if err := writeBack(path, qualified); err != nil {
		return 0, err
	}
	*current = qualified
	return n, nil
}

// noqa lints the file and appends suppression comments for every
// violation sqlfluff fix cannot repair, so they stop failing later
// lint runs.
func (f *fixer) noqa(ctx context.Context, path string, current *string) (int, error) {
	results, err := f.runner.Lint(ctx, path)
	if err != nil {
		return 0, err
	}
	unfixable := sqlfluff.Unfixable(results)
	if len(unfixable) == 0 {
		return 0, nil
	}

	annotated, n := sqlfluff.AnnotateNoqa(*current, unfixable)
	if n == 0 || f.opts.DryRun {
		return n, nil
	}
	if err := writeBack(path, annotated); err != nil {
		return 0, err
	}
	*current = annotated
	return n, nil
}

// writeBack rewrites a source file preserving its permissions.
func writeBack(path, content string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func relToRoot(root, path string) string {
	rel, err := project.RelativeTo(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return rel
}

// watchDebounce is how long a file must stay quiet before it is fixed.
// Editors write in bursts and sqlfluff fix itself touches the file.
const watchDebounce = 500 * time.Millisecond

// watch fixes files as they change until the context is canceled.
func (f *fixer) watch(ctx context.Context, args []string) error {
	cfg := f.cmdCtx.Cfg
	r := f.cmdCtx.Renderer

	roots := args
	if len(roots) == 0 {
		roots = []string{cfg.ModelsDir}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range roots {
		if err := addRecursive(watcher, root); err != nil {
			return err
		}
	}

	r.Println(fmt.Sprintf("Watching %s for changes (Ctrl-C to stop)", strings.Join(roots, ", ")))

	timers := make(map[string]*time.Timer)
	var mu sync.Mutex

	fire := func(path string) {
		res := f.fixOne(ctx, path)
		switch {
		case res.Error != "":
			r.StatusLine(path, "error", res.Error)
		case res.Skipped:
			// Our own rewrite; the stamp keeps it from looping.
		default:
			detail := ""
			if res.Qualified > 0 {
				detail = fmt.Sprintf("%d reference(s) need a table qualifier", res.Qualified)
			}
			r.StatusLine(path, "success", detail)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
					continue
				}
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".sql") {
				continue
			}

			mu.Lock()
			if t, ok := timers[event.Name]; ok {
				t.Reset(watchDebounce)
			} else {
				path := event.Name
				timers[path] = time.AfterFunc(watchDebounce, func() {
					mu.Lock()
					delete(timers, path)
					mu.Unlock()
					fire(path)
				})
			}
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.cmdCtx.Logger.Warn("watch error", "error", err)
		}
	}
}

// addRecursive watches a directory tree. fsnotify does not recurse on
// its own.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skipNames[d.Name()] && path != root {
			return fs.SkipDir
		}
		return watcher.Add(path)
	})
}

func renderFixReport(r *output.Renderer, out *FixOutput) {
	for _, f := range out.Files {
		switch {
		case f.Error != "":
			r.StatusLine(f.Path, "error", f.Error)
		case f.Skipped:
			r.StatusLine(f.Path, "info", "already formatted")
		default:
			var notes []string
			if f.Qualified > 0 {
				notes = append(notes, fmt.Sprintf("%d reference(s) need a table qualifier", f.Qualified))
			}
			if f.NoqaAdded > 0 {
				notes = append(notes, fmt.Sprintf("%d noqa suppression(s) added", f.NoqaAdded))
			}
			if f.DiffDetected {
				notes = append(notes, "content diff detected, review audit trail")
			}
			r.StatusLine(f.Path, "success", strings.Join(notes, "; "))
		}
	}

	r.Println("")
	summary := fmt.Sprintf("%d fixed, %d skipped, %d failed", out.Fixed, out.Skipped, out.Failed)
	if out.DryRun {
		summary += " (dry run, no files written)"
	}
	if out.Failed > 0 {
		r.Error(summary)
	} else {
		r.Success(summary)
	}
	if out.AuditDir != "" {
		r.Println("Audit trail: " + out.AuditDir)
	}
}
