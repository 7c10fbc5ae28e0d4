package sqlfluff

import (
	"encoding/json"
	"regexp"
	"sort"
)

// FileResult is one file's entry in SQLFluff's JSON lint output.
type FileResult struct {
	Filepath   string      `json:"filepath"`
	Violations []Violation `json:"violations"`
}

// Violation is a single rule violation reported by SQLFluff.
type Violation struct {
	Line        int    `json:"line_no"`
	Pos         int    `json:"line_pos"`
	Code        string `json:"code"`
	Description string `json:"description"`
	// Fixes lists the edits `sqlfluff fix` would apply. An empty list
	// means the violation survives auto-fixing.
	Fixes []json.RawMessage `json:"fixes,omitempty"`
}

// Fixable reports whether sqlfluff fix can repair the violation.
func (v Violation) Fixable() bool {
	return len(v.Fixes) > 0
}

// RuleUnqualifiedReference is SQLFluff's "references without a table
// qualifier are ambiguous" rule.
const RuleUnqualifiedReference = "RF02"

// ParseLintOutput decodes the JSON array produced by
// `sqlfluff lint --format json`. Empty output decodes to no results.
func ParseLintOutput(data []byte) ([]FileResult, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var results []FileResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// TotalViolations counts violations across all files.
func TotalViolations(results []FileResult) int {
	n := 0
	for _, fr := range results {
		n += len(fr.Violations)
	}
	return n
}

// Unfixable returns the violations auto-fixing cannot repair, in
// report order.
func Unfixable(results []FileResult) []Violation {
	var out []Violation
	for _, fr := range results {
		for _, v := range fr.Violations {
			if !v.Fixable() {
				out = append(out, v)
			}
		}
	}
	return out
}

// quotedField pulls the first single-quoted token out of a violation
// description, e.g. "Unqualified reference 'order_id' found ...".
var quotedField = regexp.MustCompile(`'([^']+)'`)

// UnqualifiedFields extracts the distinct column names flagged by the
// RF02 rule, sorted for deterministic rewriting.
func UnqualifiedFields(results []FileResult) []string {
	seen := map[string]bool{}
	for _, fr := range results {
		for _, v := range fr.Violations {
			if v.Code != RuleUnqualifiedReference {
				continue
			}
			m := quotedField.FindStringSubmatch(v.Description)
			if m == nil {
				continue
			}
			seen[m[1]] = true
		}
	}
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
