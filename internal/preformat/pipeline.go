package preformat

// Stage is a named snapshot of the SQL after one pipeline pass, recorded
// for the audit trail.
type Stage struct {
	Name    string
	Content string
}

// Options controls a pipeline run.
type Options struct {
	// RecordStages keeps a snapshot after each pass.
	RecordStages bool
}

// Result is the outcome of running the pipeline on one file.
type Result struct {
	// Text is the formatted SQL including the version stamp.
	Text string
	// Skipped is true when the input already carried a current stamp.
	Skipped bool
	// DiffDetected is true when the output differs from the input
	// beyond whitespace and casing, which should never happen and
	// means a pass mangled something.
	DiffDetected bool
	// Stages holds per-pass snapshots when Options.RecordStages is set.
	Stages []Stage
}

// Run executes the full pre-format pipeline on raw SQL.
func Run(raw string, opts Options) Result {
	if HasVersionStamp(raw) {
		return Result{Text: raw, Skipped: true}
	}

	var stages []Stage
	record := func(name, content string) {
		if opts.RecordStages {
			stages = append(stages, Stage{Name: name, Content: content})
		}
	}

	sql, placeholders := ExtractPlaceholders(raw)
	record("placeholders", sql)

	sql = FlattenWhitespace(sql)
	record("flatten", sql)

	sql = PadCommaSpacing(sql)
	record("commas_padded", sql)

	sql = KeywordNewlines(sql)
	record("keywords", sql)

	sql = CommaNewlines(sql)
	record("commas", sql)

	sql = SemicolonNewlines(sql)
	record("semicolons", sql)

	sql = NewlineAfterOpenParens(sql)
	record("after_open_paren", sql)

	sql = NewlineAroundCloseParens(sql)
	record("around_close_paren", sql)

	sql = CTEClosingParens(sql)
	record("cte_close_paren", sql)

	sql = NormalizeExtraNewlines(sql)
	record("normalized_newlines", sql)

	sql = Indent(sql)
	record("indentation", sql)

	sql = NormalizeCommaSpacing(sql)
	record("commas_normalized", sql)

	sql = RestorePlaceholders(sql, placeholders)
	record("placeholders_restored", sql)

	sql = EnsureCommentNewlines(sql)
	record("comment_newlines", sql)

	diffDetected := Flattened(raw, true) != Flattened(sql, true)

	stamped := InsertVersionStamp(sql)
	record("with_version_comment", stamped)

	return Result{
		Text:         stamped,
		DiffDetected: diffDetected,
		Stages:       stages,
	}
}
