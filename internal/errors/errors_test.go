package errors

import (
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "element error",
			code:    "E102",
			wantMsg: "Element is missing a type",
			wantCat: CategoryElement,
		},
		{
			name:    "reconciler error",
			code:    "E301",
			wantMsg: "Fiber has no parent",
			wantCat: CategoryReconciler,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "tree.yaml")
	if err.Message != `file "tree.yaml" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestFiberError_Error(t *testing.T) {
	err := New("E101")
	if got, want := err.Error(), "E101: Invalid element document"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err2 := &FiberError{Message: "plain"}
	if err2.Error() != "plain" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "plain")
	}

	err3 := New("E201").Wrap(io.ErrUnexpectedEOF)
	if !strings.HasSuffix(err3.Error(), io.ErrUnexpectedEOF.Error()) {
		t.Errorf("Error() = %q, want wrapped message suffix", err3.Error())
	}
}

func TestIsAndUnwrap(t *testing.T) {
	err := New("E201").Wrap(io.ErrUnexpectedEOF)

	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should find the wrapped error")
	}
	if !stderrors.Is(err, New("E201")) {
		t.Error("errors.Is should match the same code")
	}
	if stderrors.Is(err, New("E202")) {
		t.Error("errors.Is should not match a different code")
	}

	var fe *FiberError
	if !stderrors.As(err, &fe) || fe.Code != "E201" {
		t.Errorf("errors.As = %v", fe)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E101") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("E103")
	if FromError(orig, "E101") != orig {
		t.Error("FromError should pass through FiberError values")
	}

	wrapped := FromError(io.EOF, "E101")
	if wrapped.Code != "E101" || wrapped.Wrapped != io.EOF {
		t.Errorf("FromError = %+v", wrapped)
	}
}

func TestWithLocationReadsContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.yaml")
	content := "type: div\nchildren:\n  - props: {}\n  - hello\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E102").WithLocation(path, 3, 5)
	if err.Location.String() != path+":3:5" {
		t.Errorf("Location = %q", err.Location.String())
	}
	if len(err.Context) != 4 {
		t.Fatalf("Context lines = %d, want 4: %q", len(err.Context), err.Context)
	}
	if err.Context[2] != "  - props: {}" {
		t.Errorf("Context[2] = %q", err.Context[2])
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E102").WithSuggestion("add a type")
	err.Location = &Location{File: "tree.yaml", Line: 2, Column: 3}
	err.Context = []string{"type: div", "children:", "  - props: {}"}

	out := err.Format()
	for _, want := range []string{
		"ERROR E102: Element is missing a type",
		"tree.yaml:2:3",
		"→    2 │ children:",
		"Hint: add a type",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E104")
	err.Location = &Location{File: "a.yaml", Line: 7}
	if got, want := err.FormatCompact(), "a.yaml:7: E104: Invalid child node"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	out := New("E204").FormatJSON()
	if !strings.Contains(out, `"code":"E204"`) || !strings.Contains(out, `"category":"config"`) {
		t.Errorf("FormatJSON() = %s", out)
	}
}

func TestRegistryCodesHaveMessages(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%s) missing", code)
		}
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s has empty message or category", code)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText of empty string should be nil")
	}
}

func TestFprintPlainError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Fprint(&b, stderrors.New("boom"))
	if got := b.String(); got != "\nERROR: boom\n\n" {
		t.Errorf("Fprint() = %q", got)
	}
}
