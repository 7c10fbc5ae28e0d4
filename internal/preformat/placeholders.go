package preformat

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder patterns, in matching priority order. Comments are matched
// before strings so quote characters inside comments never open a string.
var placeholderPatterns = []struct {
	pattern string
	label   string
}{
	{`--[^\n]*`, "SQL_COMMENT"},
	{`/\*(?s:.)*?\*/`, "SQL_BLOCK_COMMENT"},
	{`\{\{(?s:.)*?\}\}`, "JINJA"},
	{`\{%-?(?s:.)*?-?%\}`, "JINJA"},
	{`\{#(?s:.)*?#\}`, "JINJA_COMMENT"},
	{`'(?:''|[^'])*'`, "SINGLE_QUOTED_STRING"},
	{`"(?:""|[^"])*"`, "DOUBLE_QUOTED_STRING"},
}

var placeholderRegex = func() *regexp.Regexp {
	parts := make([]string, len(placeholderPatterns))
	for i, p := range placeholderPatterns {
		parts[i] = "(" + p.pattern + ")"
	}
	return regexp.MustCompile(strings.Join(parts, "|"))
}()

// anchoredPatterns re-tests a match to find which alternative produced it;
// ReplaceAllStringFunc does not expose submatch indexes.
var anchoredPatterns = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(placeholderPatterns))
	for i, p := range placeholderPatterns {
		res[i] = regexp.MustCompile(`^(?:` + p.pattern + `)$`)
	}
	return res
}()

// Placeholders maps generated tokens back to the original text they hide.
type Placeholders map[string]string

// ExtractPlaceholders replaces Jinja expressions, comments, and quoted
// strings with opaque tokens so the formatting passes cannot disturb
// them. Restore with RestorePlaceholders.
func ExtractPlaceholders(sql string) (string, Placeholders) {
	replacements := Placeholders{}
	counter := 0

	out := placeholderRegex.ReplaceAllStringFunc(sql, func(match string) string {
		label := labelFor(match)
		counter++
		key := fmt.Sprintf("__PLACEHOLDER_%s_%04d__", label, counter)
		replacements[key] = match
		return key
	})
	return out, replacements
}

func labelFor(match string) string {
	for i, re := range anchoredPatterns {
		if re.MatchString(match) {
			return placeholderPatterns[i].label
		}
	}
	return "UNKNOWN"
}

// RestorePlaceholders substitutes the original text back for every token.
func RestorePlaceholders(sql string, replacements Placeholders) string {
	for key, original := range replacements {
		sql = strings.ReplaceAll(sql, key, original)
	}
	return sql
}
