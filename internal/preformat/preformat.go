// Package preformat normalizes raw SQL text before it is handed to
// SQLFluff for rule-based fixing.
//
// SQLFluff's auto-fix works best on SQL that already has clause and
// comma line breaks in roughly the right places; these passes get a
// hand-written one-liner into that shape. Everything here is plain text
// manipulation. No SQL is parsed: Jinja expressions, comments and
// string literals are replaced with placeholders up front so no pass
// can touch them, and restored at the end.
package preformat

import (
	"fmt"
	"regexp"
	"strings"
)

// Version is the current pre-format pass version. Bump when a pass
// changes behavior so already-stamped files are reprocessed.
const Version = 1

var versionStampRe = regexp.MustCompile(`(?im)^\s*--\s*sqlfluff-pass1-version:\s*(\d+)\s*\n?`)

// HasVersionStamp reports whether sql carries a stamp at or above the
// current pass version.
func HasVersionStamp(sql string) bool {
	m := versionStampRe.FindStringSubmatch(sql)
	if m == nil {
		return false
	}
	var v int
	fmt.Sscanf(m[1], "%d", &v)
	return v >= Version
}

// InsertVersionStamp prepends the pass version comment, replacing any
// stamp from an earlier version.
func InsertVersionStamp(sql string) string {
	sql = versionStampRe.ReplaceAllString(sql, "")
	return fmt.Sprintf("-- sqlfluff-pass1-version: %d\n%s", Version, strings.TrimLeft(sql, "\n"))
}

var (
	whitespaceRun     = regexp.MustCompile(`\s+`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([,;])`)
	commaNoSpace      = regexp.MustCompile(`,(\S)`)
	spacesBeforeComma = regexp.MustCompile(`\s*,`)
	commaSpacing      = regexp.MustCompile(`,\s*`)
	extraNewlines     = regexp.MustCompile(`\n{3,}`)
)

// FlattenWhitespace collapses all whitespace to single spaces, producing
// a one-line statement with normalized comma spacing.
func FlattenWhitespace(sql string) string {
	flat := whitespaceRun.ReplaceAllString(sql, " ")
	flat = spaceBeforePunct.ReplaceAllString(flat, "$1")
	flat = commaNoSpace.ReplaceAllString(flat, ", $1")
	return strings.TrimSpace(flat)
}

// Flattened lowercases and flattens sql for semantic-shape comparison.
// With removeAllSpaces the result ignores spacing entirely, which is how
// the pipeline detects whether a pass changed anything beyond layout.
func Flattened(sql string, removeAllSpaces bool) string {
	flat := strings.TrimSpace(whitespaceRun.ReplaceAllString(sql, " "))
	if removeAllSpaces {
		flat = strings.ReplaceAll(flat, " ", "")
	}
	return strings.ToLower(flat)
}

// PadCommaSpacing spaces commas out so the comma pass can treat them
// uniformly.
func PadCommaSpacing(sql string) string {
	sql = spacesBeforeComma.ReplaceAllString(sql, " ,")
	return commaSpacing.ReplaceAllString(sql, ", ")
}

// NormalizeCommaSpacing ensures exactly one space after every comma.
func NormalizeCommaSpacing(sql string) string {
	return commaSpacing.ReplaceAllString(sql, ", ")
}

// Keywords that trigger a line break, longest first so the alternation
// prefers compound forms.
var keywordOrder = []string{
	"LEFT JOIN", "RIGHT JOIN", "INNER JOIN", "OUTER JOIN", "FULL JOIN",
	"GROUP BY", "ORDER BY", "SELECT", "FROM", "WHERE", "HAVING", "JOIN",
	"UNION", "LIMIT", "WITH", "WHEN", "THEN", "ELSE", "OVER", "END",
	"AND", "OR", "ON",
}

// majorClauses get a blank line before them; the rest get a plain break.
var majorClauses = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP BY": true,
	"ORDER BY": true, "HAVING": true, "JOIN": true, "INNER JOIN": true,
	"LEFT JOIN": true, "RIGHT JOIN": true, "FULL JOIN": true,
	"OUTER JOIN": true,
}

var keywordRe = func() *regexp.Regexp {
	escaped := make([]string, len(keywordOrder))
	for i, kw := range keywordOrder {
		escaped[i] = strings.ReplaceAll(regexp.QuoteMeta(kw), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}()

// KeywordNewlines breaks the flattened statement before each clause
// keyword, uppercasing the keyword as it goes.
func KeywordNewlines(sql string) string {
	return keywordRe.ReplaceAllStringFunc(sql, func(kw string) string {
		canonical := strings.ToUpper(whitespaceRun.ReplaceAllString(kw, " "))
		if majorClauses[canonical] {
			return "\n\n" + canonical
		}
		return "\n" + canonical
	})
}

// selectEnders mark the end of a SELECT column list.
var selectEnders = []string{"FROM", "WHERE", "GROUP BY", "HAVING", "ORDER BY", "LIMIT"}

// CommaNewlines moves commas in SELECT column lists onto their own
// leading-comma lines, leaving commas inside function calls alone.
func CommaNewlines(sql string) string {
	functionBlocks, selectBlocks := findBlocks(sql)

	var result strings.Builder
	var buffer strings.Builder
	inSelectColumns := false

	for i := 0; i < len(sql); i++ {
		if len(sql) >= i+6 && strings.EqualFold(sql[i:i+6], "select") {
			inSelectColumns = true
			buffer.WriteString(sql[i : i+6])
			i += 5
			continue
		}
		if inSelectColumns {
			rest := strings.ToUpper(sql[i:])
			for _, k := range selectEnders {
				if strings.HasPrefix(rest, k) {
					inSelectColumns = false
					break
				}
			}
		}

		ch := sql[i]
		if ch != ',' {
			buffer.WriteByte(ch)
			continue
		}

		// Segments flush trimmed on both ends so the separator fully
		// controls the spacing around each comma.
		seg := strings.TrimRight(strings.TrimLeft(buffer.String(), " \t"), " \t\n")
		if (inSelectColumns || inSpan(i, selectBlocks)) && !inSpan(i, functionBlocks) {
			result.WriteString(seg)
			result.WriteString("\n, ")
		} else {
			result.WriteString(seg + ", ")
		}
		buffer.Reset()
	}

	if strings.TrimSpace(buffer.String()) != "" {
		result.WriteString(strings.TrimSpace(buffer.String()))
	}
	return extraNewlines.ReplaceAllString(strings.TrimSpace(result.String()), "\n\n")
}

// SemicolonNewlines puts every semicolon on its own line.
func SemicolonNewlines(sql string) string {
	var b strings.Builder
	for i := 0; i < len(sql); i++ {
		if sql[i] == ';' {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
			b.WriteString(";\n")
			continue
		}
		b.WriteByte(sql[i])
	}
	return b.String()
}

// NewlineAfterOpenParens adds a line break after every open paren that
// does not belong to a function call.
func NewlineAfterOpenParens(sql string) string {
	functionBlocks, _ := findBlocks(sql)
	var b strings.Builder
	for i := 0; i < len(sql); i++ {
		b.WriteByte(sql[i])
		if sql[i] == '(' && !inSpan(i, functionBlocks) {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// NewlineAroundCloseParens breaks lines around non-function closing
// parens. A paren followed by AS stays on its own line with the alias.
func NewlineAroundCloseParens(sql string) string {
	functionBlocks, _ := findBlocks(sql)
	var b strings.Builder
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if ch != ')' || inSpan(i, functionBlocks) {
			b.WriteByte(ch)
			continue
		}

		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		b.WriteByte(')')

		lookahead := strings.ToLower(sql[i+1 : min(i+4, len(sql))])
		if !strings.HasPrefix(lookahead, " as") && !strings.HasPrefix(lookahead, "as") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// NormalizeExtraNewlines caps blank runs at one empty line.
func NormalizeExtraNewlines(sql string) string {
	return extraNewlines.ReplaceAllString(sql, "\n\n")
}

var commentMidLine = regexp.MustCompile(`([^\n])--`)

// EnsureCommentNewlines moves trailing line comments onto their own line.
func EnsureCommentNewlines(sql string) string {
	return commentMidLine.ReplaceAllString(sql, "$1\n--")
}
