package preformat

import (
	"regexp"
	"strings"
)

const indentUnit = "    "

var majorClausePrefixes = []string{
	"SELECT", "FROM", "WHERE", "GROUP BY", "ORDER BY", "HAVING",
	"JOIN", "INNER JOIN", "LEFT JOIN", "RIGHT JOIN", "FULL JOIN",
	"UNION", "EXCEPT", "INTERSECT", "INSERT", "VALUES",
}

func startsWithMajorClause(line string) bool {
	upper := strings.ToUpper(strings.TrimSpace(line))
	for _, clause := range majorClausePrefixes {
		if strings.HasPrefix(upper, clause) {
			return true
		}
	}
	return false
}

var (
	caseStartRe = regexp.MustCompile(`(?i)\bCASE\b`)
	caseEndRe   = regexp.MustCompile(`(?i)\bEND\b`)
)

// Indent applies the additive two-child indentation scheme: every line
// that opens a parenthesized block indents its contents until the
// matching close, and every major clause indents the lines that belong
// to it until the next clause at the same depth. CASE expressions get
// extra levels for WHEN/THEN/ELSE branches. Levels from overlapping
// blocks add up.
func Indent(sql string) string {
	lines := strings.Split(sql, "\n")
	indents := make([]int, len(lines))

	depthBefore := func(index int) int {
		depth := 0
		for j := 0; j <= index; j++ {
			depth += strings.Count(lines[j], "(")
			depth -= strings.Count(lines[j], ")")
		}
		return depth
	}

	caseExtra := func(line string, inCase bool) int {
		if !inCase {
			return 0
		}
		upper := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(upper, "WHEN "):
			return 1
		case strings.HasPrefix(upper, "THEN"), strings.HasPrefix(upper, "ELSE"):
			return 2
		case strings.HasPrefix(upper, "AND "), strings.HasPrefix(upper, "OR "):
			return 1
		case strings.HasPrefix(upper, "END"):
			return 1
		}
		return 0
	}

	indentMajorClause := func(start int, parenAdjust bool) {
		startDepth := 0
		if start > 0 {
			startDepth = depthBefore(start - 1)
		}
		stopThreshold := startDepth
		if parenAdjust {
			stopThreshold--
		}

		inCase := false
		caseDepth := 0

		for i := start + 1; i < len(lines); i++ {
			stripped := strings.TrimSpace(lines[i])
			before := depthBefore(i - 1)
			after := before + strings.Count(lines[i], "(") - strings.Count(lines[i], ")")

			if caseStartRe.MatchString(stripped) && !inCase {
				inCase = true
				caseDepth = before
			}
			if caseEndRe.MatchString(stripped) && inCase && before == caseDepth {
				inCase = false
			}

			if strings.HasPrefix(stripped, ";") {
				break
			}
			if startsWithMajorClause(stripped) && before == startDepth {
				break
			}
			if after < stopThreshold {
				break
			}

			indents[i] += 1 + caseExtra(stripped, inCase)
		}
	}

	indentParenBlock := func(start int) {
		depth := 1
		for i := start + 1; i < len(lines) && depth > 0; i++ {
			stripped := strings.TrimSpace(lines[i])
			depth += strings.Count(stripped, "(")
			depth -= strings.Count(stripped, ")")
			if depth <= 0 {
				break
			}
			indents[i]++
		}
	}

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		parenTrigger := strings.HasSuffix(stripped, "(")
		majorTrigger := startsWithMajorClause(stripped)

		if parenTrigger {
			indentParenBlock(i)
		}
		if majorTrigger {
			indentMajorClause(i, parenTrigger)
		}
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			out[i] = ""
			continue
		}
		out[i] = strings.Repeat(indentUnit, indents[i]) + stripped
	}
	return strings.Join(out, "\n")
}

// CTEClosingParens gives the closing paren of each CTE its own line with
// a blank line on either side, so CTE boundaries stand out.
func CTEClosingParens(sql string) string {
	cteStart := regexp.MustCompile(`(?i)^(WITH|,)\s+\w+\s+AS\s*\($`)

	var out []string
	depth := 0
	inCTE := false

	for _, line := range strings.Split(sql, "\n") {
		stripped := strings.TrimSpace(line)
		if cteStart.MatchString(strings.ToUpper(stripped)) {
			inCTE = true
			depth = 1
			out = append(out, line)
			continue
		}
		if inCTE {
			depth += strings.Count(stripped, "(")
			depth -= strings.Count(stripped, ")")
			if depth == 0 && strings.Contains(stripped, ")") {
				out = append(out, "", ")", "")
				inCTE = false
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
