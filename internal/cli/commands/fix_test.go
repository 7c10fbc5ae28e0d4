package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborview-data/fluffctl/internal/cli/config"
	"github.com/harborview-data/fluffctl/internal/cli/testutil"
	"github.com/harborview-data/fluffctl/internal/preformat"
	"github.com/harborview-data/fluffctl/internal/sqlfluff"
)

func newTestFixer(t *testing.T, opts *FixOptions) (*fixer, *testutil.TestRenderer) {
	t.Helper()
	r := testutil.NewTestRenderer("markdown", false)
	cmdCtx := &CommandContext{
		Cfg:      &config.Config{ProjectRoot: t.TempDir(), Jobs: 2},
		Logger:   slog.Default(),
		Renderer: r.Renderer,
	}
	return &fixer{
		cmdCtx: cmdCtx,
		runner: &sqlfluff.Runner{Bin: "sqlfluff"},
		opts:   opts,
	}, r
}

func TestFixOneSkipsStampedFiles(t *testing.T) {
	f, _ := newTestFixer(t, &FixOptions{})

	path := filepath.Join(t.TempDir(), "stg.sql")
	stamped := preformat.InsertVersionStamp("SELECT 1\n")
	require.NoError(t, os.WriteFile(path, []byte(stamped), 0o644))

	res := f.fixOne(context.Background(), path)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Error)

	// Untouched on disk.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, stamped, string(data))
}

func TestFixOneMissingFile(t *testing.T) {
	f, _ := newTestFixer(t, &FixOptions{})

	res := f.fixOne(context.Background(), filepath.Join(t.TempDir(), "missing.sql"))
	assert.NotEmpty(t, res.Error)
	assert.False(t, res.Skipped)
}

func TestFixAllCountsSkipped(t *testing.T) {
	f, _ := newTestFixer(t, &FixOptions{})

	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.sql", "b.sql"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(preformat.InsertVersionStamp("SELECT 1\n")), 0o644))
		files = append(files, path)
	}

	out := f.fixAll(context.Background(), files)
	assert.Equal(t, 2, out.Skipped)
	assert.Equal(t, 0, out.Fixed)
	assert.Equal(t, 0, out.Failed)
	require.Len(t, out.Files, 2)
	assert.Equal(t, files[0], out.Files[0].Path, "results must be sorted by path")
}

func TestFixerJobs(t *testing.T) {
	f, _ := newTestFixer(t, &FixOptions{})
	assert.Equal(t, 2, f.jobs(), "config value used by default")

	f.opts.Jobs = 8
	assert.Equal(t, 8, f.jobs(), "flag overrides config")

	f.opts.Jobs = 0
	f.cmdCtx.Cfg.Jobs = 0
	assert.Equal(t, 1, f.jobs(), "never less than one worker")
}

func TestQualifySkipsPlaceholderedContent(t *testing.T) {
	f, _ := newTestFixer(t, &FixOptions{})
	f.runner.Bin = filepath.Join(t.TempDir(), "no-such-sqlfluff")

	// With a broken runner any lint attempt would fail, so a nil error
	// proves the placeholdered file was not linted again.
	current := "SELECT requires_table_reference.a FROM t"
	n, err := f.qualify(context.Background(), "model.sql", &current)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, "SELECT requires_table_reference.a FROM t", current)
}

func TestFixOneDryRunLeavesFileUntouched(t *testing.T) {
	f, _ := newTestFixer(t, &FixOptions{DryRun: true, NoQualify: true})
	f.runner.Bin = filepath.Join(t.TempDir(), "no-such-sqlfluff")

	path := filepath.Join(t.TempDir(), "stg.sql")
	raw := "select a, b from t\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	res := f.fixOne(context.Background(), path)
	assert.False(t, res.Skipped)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, string(data), "dry run must not rewrite the file")
}

func TestWriteBackPreservesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT 1\n"), 0o600))

	require.NoError(t, writeBack(path, "SELECT 2\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRelToRoot(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "models", "stg.sql")
	assert.Equal(t, filepath.ToSlash(filepath.Join("models", "stg.sql")), relToRoot(root, inside))

	// Paths outside the root fall back to the base name.
	assert.Equal(t, "other.sql", relToRoot(root, filepath.Join(t.TempDir(), "other.sql")))
}

func TestRenderFixReport(t *testing.T) {
	r := testutil.NewTestRenderer("markdown", false)

	out := &FixOutput{
		Files: []FileFix{
			{Path: "a.sql", NoqaAdded: 2},
			{Path: "b.sql", Skipped: true},
			{Path: "c.sql", Error: "boom"},
		},
		Fixed:   1,
		Skipped: 1,
		Failed:  1,
	}
	renderFixReport(r.Renderer, out)

	got := r.Out.String() + r.ErrOut.String()
	assert.Contains(t, got, "a.sql")
	assert.Contains(t, got, "2 noqa suppression(s) added")
	assert.Contains(t, got, "already formatted")
	assert.Contains(t, got, "boom")
	assert.Contains(t, got, "1 fixed, 1 skipped, 1 failed")
}

func TestRenderFixReportDryRun(t *testing.T) {
	r := testutil.NewTestRenderer("markdown", false)

	renderFixReport(r.Renderer, &FixOutput{
		Files:  []FileFix{{Path: "a.sql"}},
		Fixed:  1,
		DryRun: true,
	})

	assert.Contains(t, r.Out.String(), "dry run, no files written")
}
