package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

var colorEnabled = true

// DisableColors turns off ANSI styling in Format and Fprint.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI styling back on.
func EnableColors() { colorEnabled = true }

func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// Format renders the error for a terminal: a header line, the location
// with its surrounding lines, the wrapped detail, then the hint.
func (e *FiberError) Format() string {
	var b strings.Builder

	header := "ERROR: " + e.Message
	if e.Code != "" {
		header = "ERROR " + e.Code + ": " + e.Message
	}
	fmt.Fprintf(&b, "\n%s\n\n", paint(header, ansiRed, ansiBold))

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", paint(e.Location.String(), ansiCyan))
		if len(e.Context) > 0 {
			e.writeContext(&b)
			b.WriteString("\n")
		}
	}

	if lines := wrapText(e.Detail, 70); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("Hint: ", ansiCyan), e.Suggestion)
	}
	return b.String()
}

// writeContext prints the captured source lines, marking the error line
// and, when known, the column.
func (e *FiberError) writeContext(b *strings.Builder) {
	first := e.Location.Line - len(e.Context)/2
	bar := paint(" │ ", ansiGray)
	for i, line := range e.Context {
		n := first + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "    %4d%s%s\n", n, bar, line)
			continue
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", paint("→ ", ansiRed), n, bar, line)
		if e.Location.Column > 0 {
			fmt.Fprintf(b, "       %s%s%s\n", paint("│ ", ansiGray),
				strings.Repeat(" ", e.Location.Column-1), paint("^", ansiRed))
		}
	}
}

// FormatCompact returns "file:line: CODE: message" with empty parts omitted.
func (e *FiberError) FormatCompact() string {
	parts := make([]string, 0, 3)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// FormatJSON returns the error as a single JSON object.
func (e *FiberError) FormatJSON() string {
	je := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
	if e.Location != nil {
		je.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	out, err := json.Marshal(je)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(out)
}

// wrapText splits text into lines of at most width bytes, breaking on
// spaces. A single word longer than width gets its own line.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}

// Fprint writes err to w, using Format for FiberErrors.
func Fprint(w io.Writer, err error) {
	if fe, ok := err.(*FiberError); ok {
		fmt.Fprint(w, fe.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint("ERROR:", ansiRed, ansiBold), err.Error())
}

// PrintError writes err to stderr.
func PrintError(err error) { Fprint(os.Stderr, err) }
