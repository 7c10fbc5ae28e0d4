// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/harborview-data/fluffctl/internal/cli/output"
)

// SetupTestProject creates a temporary project with SQL fixtures, a
// SQLFluff config and a dbt directory, laid out like a scaffolded
// project.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	dirs := []string{
		filepath.Join(tmpDir, "models", "staging"),
		filepath.Join(tmpDir, "models", "marts"),
		filepath.Join(tmpDir, "dbt"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	stgOrders := `SELECT o.order_id, o.customer_id, o.status
FROM {{ source('raw', 'orders') }} AS o
WHERE o.status != 'cancelled'
`
	if err := os.WriteFile(filepath.Join(tmpDir, "models", "staging", "stg_orders.sql"),
		[]byte(stgOrders), 0o644); err != nil {
		t.Fatalf("failed to create stg_orders.sql: %v", err)
	}

	sqlfluffCfg := `[sqlfluff]
dialect = snowflake
templater = dbt

[sqlfluff:templater:dbt]
project_dir = ./dbt
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".sqlfluff"), []byte(sqlfluffCfg), 0o644); err != nil {
		t.Fatalf("failed to create .sqlfluff: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "fluffctl.yaml"), []byte(""), 0o644); err != nil {
		t.Fatalf("failed to create fluffctl.yaml: %v", err)
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a test renderer with the given mode and TTY
// state. Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}
