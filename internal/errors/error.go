package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Category groups error codes by the subsystem that reports them.
type Category string

const (
	CategoryElement    Category = "element"
	CategoryConfig     Category = "config"
	CategoryReconciler Category = "reconciler"
	CategoryProtocol   Category = "protocol"
	CategoryServer     Category = "server"
	CategoryCLI        Category = "cli"
)

// contextLines is how many source lines WithLocation captures around the
// error line.
const contextLines = 5

// Location is a position in a source document. Column is optional.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l *Location) String() string {
	if l == nil {
		return ""
	}
	s := l.File + ":" + strconv.Itoa(l.Line)
	if l.Column > 0 {
		s += ":" + strconv.Itoa(l.Column)
	}
	return s
}

// FiberError is a coded error. Code selects a registry entry that supplies
// Category, Message and Detail; the rest is attached by the caller.
type FiberError struct {
	Code     string
	Category Category
	Message  string
	Detail   string

	// Location and Context point into the document that caused the error.
	Location *Location
	Context  []string

	Suggestion string
	Wrapped    error
}

func (e *FiberError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

func (e *FiberError) Unwrap() error { return e.Wrapped }

// Is matches another FiberError with the same non-empty code, so
// errors.Is(err, New("E202")) tests for a code.
func (e *FiberError) Is(target error) bool {
	t, ok := target.(*FiberError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithLocation records where the error occurred and, when file can be
// read, the lines around it.
func (e *FiberError) WithLocation(file string, line, column int) *FiberError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = sourceLines(file, line-contextLines/2, line+contextLines/2)
	return e
}

func (e *FiberError) WithSuggestion(s string) *FiberError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registry's explanation.
func (e *FiberError) WithDetail(d string) *FiberError {
	e.Detail = d
	return e
}

func (e *FiberError) Wrap(err error) *FiberError {
	e.Wrapped = err
	return e
}

// sourceLines returns lines first through last (1-based, inclusive) of
// file, clipped to the file's length.
func sourceLines(file string, first, last int) []string {
	if file == "" {
		return nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	first = max(first, 1)
	last = min(last, len(lines))
	if first > last {
		return nil
	}
	return lines[first-1 : last]
}

// New returns the registered error for code. Unregistered codes produce
// an "Unknown error" with no category.
func New(code string) *FiberError {
	tmpl, ok := registry[code]
	if !ok {
		return &FiberError{Code: code, Message: "Unknown error"}
	}
	return &FiberError{
		Code:     code,
		Category: tmpl.Category,
		Message:  tmpl.Message,
		Detail:   tmpl.Detail,
	}
}

// Newf returns an uncoded error.
func Newf(category Category, format string, args ...any) *FiberError {
	return &FiberError{Category: category, Message: fmt.Sprintf(format, args...)}
}

// FromError returns the FiberError in err's chain, or wraps err in the
// error registered for code.
func FromError(err error, code string) *FiberError {
	if err == nil {
		return nil
	}
	var fe *FiberError
	if stderrors.As(err, &fe) {
		return fe
	}
	return New(code).Wrap(err)
}
