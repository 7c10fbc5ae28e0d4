package sqlfluff

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotateNoqa(t *testing.T) {
	sql := "SELECT a\n, b\nFROM t"
	out, n := AnnotateNoqa(sql, []Violation{
		{Line: 2, Code: "LT09"},
	})

	assert.Equal(t, 1, n)
	assert.Equal(t, "SELECT a\n, b -- noqa: LT09\nFROM t", out)
}

func TestAnnotateNoqaTrimsTrailingWhitespace(t *testing.T) {
	out, n := AnnotateNoqa("SELECT a   \nFROM t", []Violation{{Line: 1, Code: "LT01"}})

	assert.Equal(t, 1, n)
	assert.Equal(t, "SELECT a -- noqa: LT01\nFROM t", out)
}

func TestAnnotateNoqaAppendsToExistingComment(t *testing.T) {
	sql := "SELECT a -- noqa: LT09\nFROM t"
	out, n := AnnotateNoqa(sql, []Violation{{Line: 1, Code: "RF04"}})

	assert.Equal(t, 1, n)
	assert.Equal(t, "SELECT a -- noqa: LT09,RF04\nFROM t", out)
}

func TestAnnotateNoqaSkipsDuplicateCodes(t *testing.T) {
	sql := "SELECT a -- noqa: LT09,RF04\nFROM t"
	out, n := AnnotateNoqa(sql, []Violation{
		{Line: 1, Code: "LT09"},
		{Line: 1, Code: "RF04"},
	})

	assert.Equal(t, 0, n)
	assert.Equal(t, sql, out)
}

func TestAnnotateNoqaIgnoresBadViolations(t *testing.T) {
	sql := "SELECT a\nFROM t"
	out, n := AnnotateNoqa(sql, []Violation{
		{Line: 0, Code: "LT09"},
		{Line: 99, Code: "LT09"},
		{Line: 1, Code: ""},
	})

	assert.Equal(t, 0, n)
	assert.Equal(t, sql, out)
}

func TestUnfixable(t *testing.T) {
	fix := json.RawMessage(`{"edit_type": "replace"}`)
	results := []FileResult{{
		Filepath: "a.sql",
		Violations: []Violation{
			{Line: 1, Code: "LT01", Fixes: []json.RawMessage{fix}},
			{Line: 3, Code: "RF04"},
			{Line: 5, Code: "AM04", Fixes: []json.RawMessage{}},
		},
	}}

	unfixable := Unfixable(results)
	require.Len(t, unfixable, 2)
	assert.Equal(t, "RF04", unfixable[0].Code)
	assert.Equal(t, "AM04", unfixable[1].Code)

	assert.True(t, results[0].Violations[0].Fixable())
	assert.False(t, results[0].Violations[1].Fixable())
}

func TestUnfixableParsesFixesField(t *testing.T) {
	raw := `[{"filepath": "a.sql", "violations": [
		{"line_no": 1, "line_pos": 1, "code": "LT01", "description": "spacing", "fixes": [{"edit_type": "replace"}]},
		{"line_no": 2, "line_pos": 1, "code": "RF04", "description": "keyword used as identifier", "fixes": []}
	]}]`
	results, err := ParseLintOutput([]byte(raw))
	require.NoError(t, err)

	unfixable := Unfixable(results)
	require.Len(t, unfixable, 1)
	assert.Equal(t, "RF04", unfixable[0].Code)
	assert.Equal(t, 2, unfixable[0].Line)
}
