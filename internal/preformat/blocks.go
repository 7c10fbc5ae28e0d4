package preformat

import "regexp"

// span is a half-open [start, end] byte range covering a parenthesized
// block, including both parens.
type span struct {
	start, end int
}

func inSpan(idx int, spans []span) bool {
	for _, s := range spans {
		if s.start <= idx && idx <= s.end {
			return true
		}
	}
	return false
}

var identBeforeParen = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)*)\s*$`)

// isFunctionCallAt reports whether the open paren at idx directly follows
// a known function name.
func isFunctionCallAt(sql string, idx int) bool {
	m := identBeforeParen.FindStringSubmatch(sql[:idx])
	if m == nil {
		return false
	}
	return IsKnownFunction(m[1])
}

// findBlocks scans the SQL once and classifies every balanced paren pair
// as a function-call block or a subquery block. Unbalanced parens are
// ignored; the formatting passes then leave them alone.
func findBlocks(sql string) (functionBlocks, selectBlocks []span) {
	type open struct {
		idx        int
		isFunction bool
	}
	var stack []open

	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '(':
			stack = append(stack, open{idx: i, isFunction: isFunctionCallAt(sql, i)})
		case ')':
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.isFunction {
				functionBlocks = append(functionBlocks, span{start: top.idx, end: i})
			} else if containsSelect(sql[top.idx+1 : i]) {
				selectBlocks = append(selectBlocks, span{start: top.idx, end: i})
			}
		}
	}
	return functionBlocks, selectBlocks
}

var selectWord = regexp.MustCompile(`(?i)\bselect\b`)

func containsSelect(s string) bool {
	return selectWord.MatchString(s)
}
