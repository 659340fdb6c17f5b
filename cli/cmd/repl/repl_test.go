package repl

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/gold/lang"
)

func TestEvalInput(t *testing.T) {
	t.Parallel()

	s := lang.NewSession()

	steps := []struct {
		input string
		want  string
		last  string
	}{
		{"let x = 20", "null", ""},
		{"x + 1", "21", "21"},
		{"_ * 2", "42", "42"},
		{"null", "null", "42"},
		{"[_, x]", "[42, 20]", "[42, 20]"},
	}

	for _, step := range steps {
		v, err := evalInput(t.Context(), s, step.input)
		if err != nil {
			t.Fatalf("evalInput(%q) error = %v", step.input, err)
		}

		if got := v.String(); got != step.want {
			t.Errorf("evalInput(%q) = %s, want %s", step.input, got, step.want)
		}

		last, ok := s.Lookup(resultName)
		if step.last == "" {
			if ok {
				t.Errorf("after %q, %s = %s, want unbound", step.input, resultName, last)
			}

			continue
		}

		if !ok || last.String() != step.last {
			t.Errorf("after %q, %s = %v, want %s", step.input, resultName, last, step.last)
		}
	}

	if _, err := evalInput(t.Context(), s, "missing"); err == nil {
		t.Error("evalInput(missing) succeeded")
	}
}

func TestPreload(t *testing.T) {
	t.Parallel()

	s := lang.NewSession()

	src := `let base = 8000 in {port: base + 80, "host-name": "localhost"}`
	if err := preload(t.Context(), s, strings.NewReader(src)); err != nil {
		t.Fatal(err)
	}

	if v, ok := s.Lookup("port"); !ok || v.String() != "8080" {
		t.Errorf("port = %v, %t, want 8080", v, ok)
	}

	if _, ok := s.Lookup("host-name"); !ok {
		t.Error("host-name not bound")
	}

	if _, ok := s.Lookup("base"); ok {
		t.Error("let body binding leaked into the session")
	}

	if err := preload(t.Context(), lang.NewSession(), strings.NewReader("[1, 2]")); err != nil {
		t.Errorf("preload(list) error = %v", err)
	}

	if err := preload(t.Context(), lang.NewSession(), strings.NewReader("{a: }")); err == nil {
		t.Error("preload(syntax error) succeeded")
	}
}

func TestIsDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"let x = 1", true},
		{`import "std" as std`, true},
		{"letter", false},
		{"x + 1", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isDefinition(tt.input); got != tt.want {
			t.Errorf("isDefinition(%q) = %t, want %t", tt.input, got, tt.want)
		}
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	s := lang.NewSession()

	_, err := s.Eval(t.Context(), "missing + 1")
	if err == nil {
		t.Fatal("Eval(missing + 1) succeeded")
	}

	if got := formatError("missing + 1", err); !strings.Contains(got, "missing") {
		t.Errorf("formatError() = %q, lacks the unbound name", got)
	}

	if got := formatError("x", errors.New("boom")); !strings.Contains(got, "error: boom") {
		t.Errorf("formatError() = %q, want plain error", got)
	}
}

func TestSplitInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "\n\n", nil},
		{"single", "let x = 1\n", []string{"let x = 1"}},
		{"multiline", "let f = |x|\n  x * 2\n\nf(3)\n", []string{"let f = |x|\n  x * 2", "f(3)"}},
		{"extra blank lines", "\n1\n\n\n  \n2", []string{"1", "2"}},
		{"crlf", "1\r\n\r\n2\r\n", []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := splitInputs(tt.text); !slices.Equal(got, tt.want) {
				t.Errorf("splitInputs(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestReplay(t *testing.T) {
	t.Parallel()

	s, inputs, err := replay(t.Context(), "let x = 2\n\nlet y = x * 21\n\ny\n")
	if err != nil {
		t.Fatal(err)
	}

	if len(inputs) != 3 {
		t.Errorf("replay() inputs = %q, want 3", inputs)
	}

	if v, ok := s.Lookup(resultName); !ok || v.String() != "42" {
		t.Errorf("%s = %v, want 42", resultName, v)
	}

	_, _, err = replay(t.Context(), "let x = 1\n\nx + nope\n")
	if err == nil || !strings.HasPrefix(err.Error(), "input 2:") {
		t.Errorf("replay() error = %v, want input 2 failure", err)
	}
}
