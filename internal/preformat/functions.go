package preformat

import "strings"

// snowflakeFunctions is the set of function names whose parenthesized
// argument lists are kept on one line. An open paren preceded by one of
// these names is a function call, not a subquery or grouping.
var snowflakeFunctions = map[string]bool{}

func init() {
	names := []string{
		"ARRAY_AGG", "AVG", "CAST", "COALESCE", "COUNT", "DATEADD", "DATEDIFF",
		"FIRST_VALUE", "LAST_VALUE", "LISTAGG", "MAX", "MIN", "ROW_NUMBER",
		"SUM", "TO_DATE", "TO_TIMESTAMP", "NVL", "IFF", "CASE", "DECODE",
		"LEAD", "LAG", "RANK", "DENSE_RANK", "NTILE", "ABS", "CEIL", "CEILING",
		"FLOOR", "ROUND", "TRUNC", "EXP", "LN", "LOG", "LOG10", "MOD", "POWER",
		"SQRT", "SIGN", "SIN", "COS", "TAN", "ASIN", "ACOS", "ATAN", "ATAN2",
		"COSH", "SINH", "TANH", "GREATEST", "LEAST", "NULLIF", "REGEXP_REPLACE",
		"REGEXP_SUBSTR", "SPLIT_PART", "SUBSTR", "SUBSTRING", "TRIM", "LTRIM",
		"RTRIM", "UPPER", "LOWER", "INITCAP", "REPLACE", "REVERSE", "CONCAT",
		"CONCAT_WS", "LPAD", "RPAD", "LEFT", "RIGHT", "POSITION", "CHARINDEX",
		"ASCII", "CHR", "TO_CHAR", "TO_NUMBER", "TO_VARCHAR", "TO_DECIMAL",
		"TO_DOUBLE", "TO_BOOLEAN", "TO_VARIANT", "TO_OBJECT", "TO_ARRAY",
		"TRY_CAST", "TRY_TO_DATE", "TRY_TO_TIMESTAMP",
	}
	for _, n := range names {
		snowflakeFunctions[n] = true
	}
}

// IsKnownFunction reports whether name (qualified or not) is in the
// function set.
func IsKnownFunction(name string) bool {
	parts := strings.Split(name, ".")
	return snowflakeFunctions[strings.ToUpper(parts[len(parts)-1])]
}
