package lang

import (
	"errors"
	"strings"
	"testing"
)

func TestParseExpr_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, e Expr)
	}{
		{
			name:   "product_binds_tighter_than_sum",
			source: "1 + 2 * 3",
			check: func(t *testing.T, e Expr) {
				add := mustBinary(t, e, BinOpAdd)
				mustBinary(t, add.Right, BinOpMultiply)
			},
		},
		{
			name:   "negation_of_power",
			source: "-x^2",
			check: func(t *testing.T, e Expr) {
				neg, ok := e.(*UnaryExpr)
				if !ok || neg.Op != UnOpNegate {
					t.Fatalf("got %T, want negation", e)
				}

				mustBinary(t, neg.Operand, BinOpPower)
			},
		},
		{
			name:   "power_right_associative",
			source: "2^3^2",
			check: func(t *testing.T, e Expr) {
				pow := mustBinary(t, e, BinOpPower)
				mustBinary(t, pow.Right, BinOpPower)
			},
		},
		{
			name:   "power_exponent_may_be_negated",
			source: "2^-1",
			check: func(t *testing.T, e Expr) {
				pow := mustBinary(t, e, BinOpPower)
				if _, ok := pow.Right.(*UnaryExpr); !ok {
					t.Errorf("exponent = %T, want *UnaryExpr", pow.Right)
				}
			},
		},
		{
			name:   "and_binds_tighter_than_or",
			source: "a or b and c",
			check: func(t *testing.T, e Expr) {
				or := mustBinary(t, e, BinOpOr)
				mustBinary(t, or.Right, BinOpAnd)
			},
		},
		{
			name:   "equality_below_inequality",
			source: "a < b == c > d",
			check: func(t *testing.T, e Expr) {
				eq := mustBinary(t, e, BinOpEqual)
				mustBinary(t, eq.Left, BinOpLess)
				mustBinary(t, eq.Right, BinOpGreater)
			},
		},
		{
			name:   "sum_left_associative",
			source: "a - b - c",
			check: func(t *testing.T, e Expr) {
				sub := mustBinary(t, e, BinOpSubtract)
				mustBinary(t, sub.Left, BinOpSubtract)
			},
		},
		{
			name:   "postfix_chain",
			source: "a.b[0](1)",
			check: func(t *testing.T, e Expr) {
				call, ok := e.(*CallExpr)
				if !ok {
					t.Fatalf("got %T, want *CallExpr", e)
				}

				idx := mustBinary(t, call.Func, BinOpIndex)
				mustBinary(t, idx.Left, BinOpIndex)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := ParseExpr(t.Context(), tt.source)
			if err != nil {
				t.Fatalf("ParseExpr(%q) error = %v", tt.source, err)
			}

			tt.check(t, e)
		})
	}
}

func mustBinary(t *testing.T, e Expr, op BinOp) *BinaryExpr {
	t.Helper()

	b, ok := e.(*BinaryExpr)
	if !ok {
		t.Fatalf("got %T, want *BinaryExpr %s", e, op)
	}

	if b.Op != op {
		t.Fatalf("operator = %s, want %s", b.Op, op)
	}

	return b
}

func TestParseExpr_Strings(t *testing.T) {
	t.Run("plain_collapses_to_literal", func(t *testing.T) {
		t.Parallel()

		e, err := ParseExpr(t.Context(), `"hello"`)
		if err != nil {
			t.Fatal(err)
		}

		lit, ok := e.(*Literal)
		if !ok {
			t.Fatalf("got %T, want *Literal", e)
		}

		if !lit.Value.StrictEqual(String("hello")) {
			t.Errorf("value = %v, want \"hello\"", lit.Value)
		}
	})

	t.Run("interpolated", func(t *testing.T) {
		t.Parallel()

		e, err := ParseExpr(t.Context(), `"a${b}c"`)
		if err != nil {
			t.Fatal(err)
		}

		s, ok := e.(*StringExpr)
		if !ok {
			t.Fatalf("got %T, want *StringExpr", e)
		}

		if len(s.Parts) != 3 {
			t.Fatalf("parts = %d, want 3", len(s.Parts))
		}

		if s.Parts[0].Raw != "a" || s.Parts[1].Expr == nil || s.Parts[2].Raw != "c" {
			t.Errorf("parts = %+v", s.Parts)
		}
	})

	t.Run("escapes", func(t *testing.T) {
		t.Parallel()

		e, err := ParseExpr(t.Context(), `"q\"\$x"`)
		if err != nil {
			t.Fatal(err)
		}

		lit, ok := e.(*Literal)
		if !ok {
			t.Fatalf("got %T, want *Literal", e)
		}

		if s, _ := lit.Value.Str(); s != `q"$x` {
			t.Errorf("value = %q, want %q", s, `q"$x`)
		}
	})
}

func TestParse_Imports(t *testing.T) {
	t.Parallel()

	f, err := Parse(t.Context(), "import \"std\" as s\nimport \"x.gold\" as {a, b}\ns.sum([a, b])")
	if err != nil {
		t.Fatal(err)
	}

	if len(f.Imports) != 2 {
		t.Fatalf("imports = %d, want 2", len(f.Imports))
	}

	if f.Imports[0].Path != "std" || f.Imports[1].Path != "x.gold" {
		t.Errorf("paths = %q, %q", f.Imports[0].Path, f.Imports[1].Path)
	}

	if f.Imports[1].Binding.Type() != BindingMap {
		t.Errorf("binding = %s, want map", f.Imports[1].Binding.Type())
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   SyntaxElement
	}{
		{"missing_else", "if true then 1", SyntaxElse},
		{"missing_then", "if true 1 else 2", SyntaxThen},
		{"missing_in", "let a = 1 a", SyntaxIn},
		{"trailing_input", "1 2", SyntaxEndOfInput},
		{"missing_equals", "let a 1 in a", SyntaxEquals},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(t.Context(), tt.source)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.source)
			}

			var se SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want SyntaxError", err)
			}

			found := false
			for _, el := range se.Expected {
				found = found || el == tt.want
			}

			if !found {
				t.Errorf("expected = %v, want it to include %s", se.Expected, tt.want)
			}

			if !strings.HasPrefix(err.Error(), "Error: expected") {
				t.Errorf("error not rendered: %q", err.Error())
			}
		})
	}
}

func TestParse_MultipleSlurps(t *testing.T) {
	t.Parallel()

	_, err := Parse(t.Context(), "let [a, ...b, ...c] = [1] in a")

	var se SyntaxError
	if !errors.As(err, &se) || !se.MultiSlurp {
		t.Fatalf("error = %v, want multiple slurp error", err)
	}
}

func TestParse_DepthLimit(t *testing.T) {
	t.Parallel()

	source := strings.Repeat("[", 100) + strings.Repeat("]", 100)

	if _, err := Parse(t.Context(), source, WithMaxDepth(50)); !errors.Is(err, ErrTooDeep) {
		t.Errorf("error = %v, want recursion limit", err)
	}

	if _, err := Parse(t.Context(), source, WithMaxDepth(500)); err != nil {
		t.Errorf("error = %v, want success", err)
	}
}

func TestDedent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single_line", " hello\n", "hello"},
		{"common_indent", "\n    a\n      b\n", "a\n  b"},
		{"first_line_kept", "head\n  a\n  b\n", "head\na\nb"},
		{"blank_lines_ignored", "\n    a\n\n    b\n", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := dedent(tt.in); got != tt.want {
				t.Errorf("dedent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
