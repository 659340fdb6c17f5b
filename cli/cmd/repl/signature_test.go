package repl

import (
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/gold/lang"
)

func TestDetectFunctionCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		cursor int
		want   functionCall
	}{
		{"not in call", "greeting", 8, functionCall{}},
		{"empty args", "add(", 4, functionCall{"add", 0, true}},
		{"second arg", "add(1, 2", 8, functionCall{"add", 1, true}},
		{"member path", "sys.path.cat(a, ", 16, functionCall{"sys.path.cat", 1, true}},
		{"after nested call", "f(g(1, 2), ", 11, functionCall{"f", 1, true}},
		{"inside nested call", "f(g(1, ", 7, functionCall{"g", 1, true}},
		{"list argument", "f([1, 2], ", 10, functionCall{"f", 1, true}},
		{"map argument", "f({a: 1, b: 2}", 14, functionCall{"f", 0, true}},
		{"grouping", "(1 + 2", 6, functionCall{}},
		{"closed call", "f(a) + 1", 8, functionCall{}},
		{"cursor mid input", "add(1, 2)", 5, functionCall{"add", 0, true}},
		{"cursor past end", "len(", 10, functionCall{"len", 0, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := detectFunctionCall(tt.input, tt.cursor); got != tt.want {
				t.Errorf("detectFunctionCall(%q, %d) = %+v, want %+v",
					tt.input, tt.cursor, got, tt.want)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	t.Parallel()

	s := lang.NewSession(lang.WithResolver(lang.SysResolver()))

	const defs = `import "sys" as sys
let add = |a, b| a + b
let scale = |x; factor = 2| x * factor
let rest = |first, ...more| first
let cfg = {f: |x| x, n: 1}`

	if _, err := s.Eval(t.Context(), defs); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		wantSig    string
		wantParams []string
	}{
		{"add", "add(a, b)", []string{"a", "b"}},
		{"scale", "scale(x, factor:?)", []string{"x", "factor:?"}},
		{"rest", "rest(first, ...more)", []string{"first", "...more"}},
		{"cfg.f", "cfg.f(x)", []string{"x"}},
		{"len", "len(value)", []string{"value"}},
		{"map", "map(fn, list)", []string{"fn", "list"}},
		{"sys.env", "sys.env(name, default:)", []string{"name", "default:"}},
		{"sys.path.cat", "sys.path.cat(...elem)", []string{"...elem"}},
		{"cfg", "", nil},
		{"cfg.n", "", nil},
		{"missing", "", nil},
		{"cfg.missing", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sig, params := getSignature(s, tt.name)
			if sig != tt.wantSig {
				t.Errorf("getSignature(%q) = %q, want %q", tt.name, sig, tt.wantSig)
			}

			if !slices.Equal(params, tt.wantParams) {
				t.Errorf("getSignature(%q) params = %q, want %q", tt.name, params, tt.wantParams)
			}
		})
	}
}

func TestSignatureOf_Unnamed(t *testing.T) {
	t.Parallel()

	v, err := lang.Eval(t.Context(), "|x, y = 1| x")
	if err != nil {
		t.Fatal(err)
	}

	if sig, _ := signatureOf(v, ""); sig != "fn(x, y?)" {
		t.Errorf("signatureOf() = %q, want %q", sig, "fn(x, y?)")
	}

	v, err = lang.Eval(t.Context(), "len")
	if err != nil {
		t.Fatal(err)
	}

	if sig, _ := signatureOf(v, ""); sig != "len(value)" {
		t.Errorf("signatureOf() = %q, want %q", sig, "len(value)")
	}
}

func TestRenderSignatureHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		signature  string
		params     []string
		currentArg int
	}{
		{"no params", "greeting()", nil, 0},
		{"first param", "add(x, y)", []string{"x", "y"}, 0},
		{"second param", "add(x, y)", []string{"x", "y"}, 1},
		{"past last param", "add(x, y)", []string{"x", "y"}, 4},
		{"variadic", "cat(...elem)", []string{"...elem"}, 0},
		{"variadic repeated", "cat(...elem)", []string{"...elem"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := renderSignatureHint(tt.signature, tt.params, tt.currentArg)
			if got == "" {
				t.Fatalf("renderSignatureHint(%q) is empty", tt.signature)
			}

			for _, p := range tt.params {
				if !strings.Contains(got, p) {
					t.Errorf("renderSignatureHint(%q) = %q, lacks %q", tt.signature, got, p)
				}
			}
		})
	}

	if got := renderSignatureHint("", nil, 0); got != "" {
		t.Errorf("renderSignatureHint(\"\") = %q, want empty", got)
	}
}
