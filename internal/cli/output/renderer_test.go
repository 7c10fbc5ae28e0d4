package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{"auto on tty", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit json on tty", ModeJSON, true, ModeJSON},
		{"empty defaults to auto", "", false, ModeMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newBufferedRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestSuccessMarkdown(t *testing.T) {
	r, out, _ := newBufferedRenderer(ModeMarkdown, false)
	r.Success("done")
	assert.Equal(t, "**done**\n", out.String())
}

func TestWarningAndErrorGoToStderr(t *testing.T) {
	r, out, errOut := newBufferedRenderer(ModeMarkdown, false)
	r.Warning("careful")
	r.Error("broken")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "> Warning: careful")
	assert.Contains(t, errOut.String(), "> Error: broken")
}

func TestHeaderMarkdown(t *testing.T) {
	r, out, _ := newBufferedRenderer(ModeMarkdown, false)
	r.Header(2, "Checks")
	assert.Equal(t, "## Checks\n", out.String())
}

func TestStatusLine(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newBufferedRenderer(ModeMarkdown, false)
		r.StatusLine("venv", "success", ".venv")
		assert.Equal(t, "- venv: success (.venv)\n", out.String())
	})

	t.Run("text without detail", func(t *testing.T) {
		r, out, _ := newBufferedRenderer(ModeText, false)
		r.StatusLine("venv", "error", "")
		assert.Contains(t, out.String(), "venv")
		assert.Contains(t, out.String(), "✗")
	})
}

func TestJSON(t *testing.T) {
	r, out, _ := newBufferedRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"violations": 3}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["violations"])
}

func TestTable(t *testing.T) {
	t.Run("markdown pipe table", func(t *testing.T) {
		r, out, _ := newBufferedRenderer(ModeMarkdown, false)
		r.Table([]string{"File", "Rule"}, [][]string{{"a.sql", "RF02"}})

		got := out.String()
		assert.Contains(t, got, "| File |")
		assert.Contains(t, got, "| a.sql |")
	})

	t.Run("text box table", func(t *testing.T) {
		r, out, _ := newBufferedRenderer(ModeText, false)
		r.Table([]string{"File", "Rule"}, [][]string{{"a.sql", "RF02"}})

		got := out.String()
		assert.Contains(t, got, "a.sql")
		assert.Contains(t, got, "RF02")
		assert.False(t, strings.HasPrefix(got, "| File"))
	})
}
