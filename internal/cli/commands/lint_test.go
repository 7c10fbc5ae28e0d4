package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harborview-data/fluffctl/internal/cli/testutil"
	"github.com/harborview-data/fluffctl/internal/sqlfluff"
)

func TestCountFilesWithViolations(t *testing.T) {
	results := []sqlfluff.FileResult{
		{Filepath: "a.sql", Violations: []sqlfluff.Violation{{Code: "RF02"}}},
		{Filepath: "b.sql"},
		{Filepath: "c.sql", Violations: []sqlfluff.Violation{{Code: "L010"}, {Code: "L014"}}},
	}
	assert.Equal(t, 2, countFilesWithViolations(results))
	assert.Equal(t, 0, countFilesWithViolations(nil))
}

func TestRenderLintReportClean(t *testing.T) {
	r := testutil.NewTestRenderer("markdown", false)

	renderLintReport(r.Renderer, &LintOutput{
		Files:     []sqlfluff.FileResult{{Filepath: "a.sql"}},
		FileCount: 1,
	})

	assert.Contains(t, r.Out.String(), "no violations")
}

func TestRenderLintReportWithViolations(t *testing.T) {
	r := testutil.NewTestRenderer("markdown", false)

	out := &LintOutput{
		Files: []sqlfluff.FileResult{
			{
				Filepath: "models/stg_orders.sql",
				Violations: []sqlfluff.Violation{
					{Line: 3, Pos: 8, Code: "RF02", Description: "Unqualified reference 'order_id' found in select with more than one referenced table/view."},
				},
			},
		},
		FileCount:  1,
		Violations: 1,
	}
	renderLintReport(r.Renderer, out)

	got := r.Out.String() + r.ErrOut.String()
	assert.Contains(t, got, "models/stg_orders.sql")
	assert.Contains(t, got, "3:8")
	assert.Contains(t, got, "RF02")
	assert.Contains(t, got, "1 violation(s)")
}

func TestLintCommandMetadata(t *testing.T) {
	cmd := NewLintCommand()
	assert.Equal(t, "lint [paths...]", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("rules"))
	assert.NotNil(t, cmd.Flags().Lookup("exclude-rules"))
}

func TestFixCommandMetadata(t *testing.T) {
	cmd := NewFixCommand()
	for _, flag := range []string{"audit", "watch", "no-qualify", "no-preformat", "noqa", "dry-run", "jobs"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
}
