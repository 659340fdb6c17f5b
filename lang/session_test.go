package lang

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestSession(t *testing.T) {
	t.Parallel()

	s := NewSession()

	steps := []struct {
		input string
		want  string
	}{
		{"let x = 2", "null"},
		{"x * 3", "6"},
		{"import \"std\" as std\nlet double = |n| n * 2 let y = double(x)", "null"},
		{"std.sum([x, y])", "6"},
		{"let [a, ...b] = [1, 2, 3]", "null"},
		{"b", "[2, 3]"},
		{"let x = 10", "null"},
		{"double(x)", "20"},
		{"let z = 1 in z + x", "11"},
	}

	for _, step := range steps {
		v, err := s.Eval(t.Context(), step.input)
		if err != nil {
			t.Fatalf("Eval(%q) error = %v", step.input, err)
		}

		if got := v.String(); got != step.want {
			t.Errorf("Eval(%q) = %s, want %s", step.input, got, step.want)
		}
	}

	names := s.Names()
	for _, want := range []string{"x", "y", "double", "std", "a", "b", "len"} {
		if !slices.Contains(names, want) {
			t.Errorf("Names() lacks %q", want)
		}
	}

	if slices.Contains(names, "z") {
		t.Error("Names() includes a let body binding")
	}

	if i, j := slices.Index(names, "x"), slices.Index(names, "len"); i > j {
		t.Error("Names() lists builtins before session bindings")
	}
}

func TestSession_Errors(t *testing.T) {
	t.Parallel()

	s := NewSession()

	_, err := s.Eval(t.Context(), "missing + 1")
	if !isLookup(LookupUnbound)(err) || !strings.HasPrefix(err.Error(), "Error: unbound name 'missing'") {
		t.Errorf("error = %v, want rendered unbound name", err)
	}

	_, err = s.Eval(t.Context(), "let q = ")

	var se SyntaxError
	if !errors.As(err, &se) {
		t.Errorf("error = %v, want syntax error", err)
	}

	_, err = s.Eval(t.Context(), "let [p] = [1, 2]")
	if !errors.Is(err, ErrListTooLong) {
		t.Errorf("error = %v, want list too long", err)
	}
}

func TestSession_Define(t *testing.T) {
	t.Parallel()

	s := NewSession()

	if _, ok := s.Lookup("port"); ok {
		t.Fatal("Lookup(port) found a binding before Define")
	}

	if err := s.Define("port", Int(8080)); err != nil {
		t.Fatal(err)
	}

	v, ok := s.Lookup("port")
	if !ok || v.String() != "8080" {
		t.Fatalf("Lookup(port) = %v, %t, want 8080", v, ok)
	}

	got, err := s.Eval(t.Context(), "port + 1")
	if err != nil {
		t.Fatal(err)
	}

	if got.String() != "8081" {
		t.Errorf("port + 1 = %s, want 8081", got)
	}

	if _, ok := s.Lookup("len"); !ok {
		t.Error("Lookup(len) did not find the builtin")
	}
}
