package sqlfluff

import "strings"

const noqaMarker = "-- noqa:"

// AnnotateNoqa appends "-- noqa: <code>" suppression comments to the
// lines named by the violations, so rules that auto-fixing cannot
// repair stop failing subsequent lint runs. A line that already carries
// a noqa comment gets the extra code appended to it; codes already
// listed on the line are not repeated. Returns the annotated SQL and
// the number of codes added.
func AnnotateNoqa(sql string, violations []Violation) (string, int) {
	lines := strings.Split(sql, "\n")
	added := 0

	for _, v := range violations {
		idx := v.Line - 1
		if v.Code == "" || idx < 0 || idx >= len(lines) {
			continue
		}
		line := lines[idx]
		if strings.Contains(line, noqaMarker) {
			if !lineHasNoqaCode(line, v.Code) {
				lines[idx] = line + "," + v.Code
				added++
			}
			continue
		}
		lines[idx] = strings.TrimRight(line, " \t\r") + " " + noqaMarker + " " + v.Code
		added++
	}

	return strings.Join(lines, "\n"), added
}

// lineHasNoqaCode reports whether the line's noqa comment already lists
// the rule code.
func lineHasNoqaCode(line, code string) bool {
	_, after, ok := strings.Cut(line, noqaMarker)
	if !ok {
		return false
	}
	for _, c := range strings.Split(after, ",") {
		if strings.TrimSpace(c) == code {
			return true
		}
	}
	return false
}
