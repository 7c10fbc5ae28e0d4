package preformat

import (
	"regexp"
	"strings"
)

// QualifierPlaceholder is the dummy table reference prefixed onto
// columns SQLFluff flags as unqualified. It is deliberately loud: a
// human still has to replace it with the real table alias, but after
// the rewrite SQLFluff can fix everything else around it.
const QualifierPlaceholder = "requires_table_reference"

// HasQualifierPlaceholder reports whether sql already carries placeholder
// qualifiers from an earlier run.
func HasQualifierPlaceholder(sql string) bool {
	return strings.Contains(sql, QualifierPlaceholder+".")
}

// QualifyFields prefixes every bare occurrence of the given column names
// with the qualifier placeholder. Occurrences already qualified with any
// table reference are left alone. Returns the rewritten SQL and the
// number of replacements.
func QualifyFields(sql string, fields []string) (string, int) {
	total := 0
	for _, field := range fields {
		re := regexp.MustCompile(`(^|[^.\w])(` + regexp.QuoteMeta(field) + `)\b`)
		count := 0
		sql = re.ReplaceAllStringFunc(sql, func(m string) string {
			sub := re.FindStringSubmatch(m)
			count++
			return sub[1] + QualifierPlaceholder + "." + sub[2]
		})
		total += count
	}
	return sql, total
}
