// Package output provides mode-aware rendering for CLI commands.
//
// The renderer adapts its output to the environment: styled text on a
// terminal, plain markdown when piped, and machine-readable JSON on
// request. Commands never write to stdout directly; they go through a
// Renderer so that every command honors the --output flag the same way.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

const (
	// ModeAuto picks text on a TTY and markdown otherwise.
	ModeAuto Mode = "auto"
	// ModeText renders styled terminal output.
	ModeText Mode = "text"
	// ModeMarkdown renders plain markdown suitable for piping.
	ModeMarkdown Mode = "markdown"
	// ModeJSON renders machine-readable JSON.
	ModeJSON Mode = "json"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out     io.Writer
	errOut  io.Writer
	mode    Mode
	isTTY   bool
	profile termenv.Profile
}

// NewRenderer creates a renderer, detecting TTY state from the output writer.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errOut, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
// Used by tests to force a mode regardless of the actual environment.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	profile := termenv.Ascii
	if isTTY {
		profile = termenv.ColorProfile()
	}
	return &Renderer{
		out:     out,
		errOut:  errOut,
		mode:    mode,
		isTTY:   isTTY,
		profile: profile,
	}
}

// EffectiveMode resolves ModeAuto to the concrete mode in use.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether the output writer is a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Out returns the underlying output writer.
func (r *Renderer) Out() io.Writer {
	return r.out
}

func (r *Renderer) style(s string, f func(termenv.Style) termenv.Style) string {
	if r.EffectiveMode() != ModeText || !r.isTTY {
		return s
	}
	return f(termenv.String(s)).String()
}

// Println writes a line to stdout.
func (r *Renderer) Println(s string) {
	fmt.Fprintln(r.out, s)
}

// Printf writes formatted output to stdout.
func (r *Renderer) Printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// Success writes a success message.
func (r *Renderer) Success(s string) {
	switch r.EffectiveMode() {
	case ModeMarkdown:
		fmt.Fprintf(r.out, "**%s**\n", s)
	default:
		fmt.Fprintln(r.out, r.style("✓ "+s, func(st termenv.Style) termenv.Style {
			return st.Foreground(r.profile.Color("2")).Bold()
		}))
	}
}

// Warning writes a warning message to stderr.
func (r *Renderer) Warning(s string) {
	switch r.EffectiveMode() {
	case ModeMarkdown:
		fmt.Fprintf(r.errOut, "> Warning: %s\n", s)
	default:
		fmt.Fprintln(r.errOut, r.style("! "+s, func(st termenv.Style) termenv.Style {
			return st.Foreground(r.profile.Color("3"))
		}))
	}
}

// Error writes an error message to stderr.
func (r *Renderer) Error(s string) {
	switch r.EffectiveMode() {
	case ModeMarkdown:
		fmt.Fprintf(r.errOut, "> Error: %s\n", s)
	default:
		fmt.Fprintln(r.errOut, r.style("✗ "+s, func(st termenv.Style) termenv.Style {
			return st.Foreground(r.profile.Color("1")).Bold()
		}))
	}
}

// Header writes a section header at the given level.
func (r *Renderer) Header(level int, s string) {
	switch r.EffectiveMode() {
	case ModeMarkdown:
		fmt.Fprintf(r.out, "%s %s\n", strings.Repeat("#", level), s)
	default:
		fmt.Fprintln(r.out, r.style(s, func(st termenv.Style) termenv.Style {
			return st.Bold().Underline()
		}))
	}
}

// StatusLine writes a labeled status entry. Status is one of
// "success", "warn", "error", or "info".
func (r *Renderer) StatusLine(label, status, detail string) {
	if r.EffectiveMode() == ModeMarkdown {
		if detail != "" {
			fmt.Fprintf(r.out, "- %s: %s (%s)\n", label, status, detail)
		} else {
			fmt.Fprintf(r.out, "- %s: %s\n", label, status)
		}
		return
	}

	symbol := "•"
	color := "7"
	switch status {
	case "success":
		symbol, color = "✓", "2"
	case "warn":
		symbol, color = "!", "3"
	case "error":
		symbol, color = "✗", "1"
	}
	line := fmt.Sprintf("  %s %s", symbol, label)
	if detail != "" {
		line += "  " + detail
	}
	fmt.Fprintln(r.out, r.style(line, func(st termenv.Style) termenv.Style {
		return st.Foreground(r.profile.Color(color))
	}))
}

// JSON marshals v with indentation and writes it to stdout.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
