package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harborview-data/fluffctl/internal/cli/output"
	"github.com/harborview-data/fluffctl/internal/sqlfluff"
)

// LintOptions holds options for the lint command.
type LintOptions struct {
	Rules    []string
	Excluded []string
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint SQL files with SQLFluff",
		Long: `Run SQLFluff against SQL files and report violations.

Without arguments the configured models directory is linted. Rule
evaluation, dialect parsing and dbt template rendering all happen
inside SQLFluff; fluffctl only collects the files, invokes the tool
and renders its JSON report.

Exits non-zero when violations are found.`,
		Example: `  # Lint the models directory
  fluffctl lint

  # Lint specific files or directories
  fluffctl lint models/staging models/marts/fct_orders.sql

  # Restrict to specific rules
  fluffctl lint --rules RF02,L010`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, opts, args)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Rules, "rules", nil, "Only evaluate these rule codes")
	cmd.Flags().StringSliceVar(&opts.Excluded, "exclude-rules", nil, "Additionally exclude these rule codes")

	return cmd
}

// LintOutput is the JSON output for the lint command.
type LintOutput struct {
	Files      []sqlfluff.FileResult `json:"files"`
	FileCount  int                   `json:"file_count"`
	Violations int                   `json:"violations"`
}

func runLint(cmd *cobra.Command, opts *LintOptions, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	if len(args) == 0 {
		if err := cfg.ValidateModelsDir(); err != nil {
			return err
		}
	}

	files, err := collectSQLFiles(cfg.ModelsDir, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		r.Warning("No SQL files found")
		return nil
	}

	runner := cmdCtx.Runner()
	runner.Rules = opts.Rules
	runner.Excluded = opts.Excluded
	if cfg.Lint != nil {
		if len(runner.Rules) == 0 {
			runner.Rules = cfg.Lint.Rules
		}
		if len(runner.Excluded) == 0 {
			runner.Excluded = cfg.Lint.Excluded
		}
	}

	results, err := runner.Lint(cmd.Context(), files...)
	if err != nil {
		return err
	}

	out := &LintOutput{
		Files:      results,
		FileCount:  len(files),
		Violations: sqlfluff.TotalViolations(results),
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		renderLintReport(r, out)
	}

	if out.Violations > 0 {
		return fmt.Errorf("%d violation(s) in %d file(s)", out.Violations, countFilesWithViolations(results))
	}
	return nil
}

func countFilesWithViolations(results []sqlfluff.FileResult) int {
	n := 0
	for _, fr := range results {
		if len(fr.Violations) > 0 {
			n++
		}
	}
	return n
}

func renderLintReport(r *output.Renderer, out *LintOutput) {
	var rows [][]string
	for _, fr := range out.Files {
		for _, v := range fr.Violations {
			rows = append(rows, []string{
				fr.Filepath,
				strconv.Itoa(v.Line) + ":" + strconv.Itoa(v.Pos),
				v.Code,
				v.Description,
			})
		}
	}

	if len(rows) == 0 {
		r.Success(fmt.Sprintf("All clear: %d file(s) linted, no violations", out.FileCount))
		return
	}

	r.Table([]string{"File", "Position", "Rule", "Description"}, rows)
	r.Println("")
	r.Error(fmt.Sprintf("%d violation(s) across %d file(s)", out.Violations, out.FileCount))
}
