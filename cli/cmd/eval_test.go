package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, text string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.gold")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestEvalRun(t *testing.T) {
	t.Parallel()

	conf := `let base = 8000 in {name: "gold", port: base + 80}`
	scale := `|x; factor = 2| x * factor`

	tests := []struct {
		name string
		eval Eval
		want string
	}{
		{
			name: "gold",
			eval: Eval{Format: FormatGold, Source: writeSource(t, conf)},
			want: "{name: \"gold\", port: 8080}\n",
		},
		{
			name: "json",
			eval: Eval{Format: FormatJSON, Source: writeSource(t, conf)},
			want: "{\"name\":\"gold\",\"port\":8080}\n",
		},
		{
			name: "call",
			eval: Eval{Format: FormatGold, Source: writeSource(t, scale), Args: []string{"21"}},
			want: "42\n",
		},
		{
			name: "call with keyword",
			eval: Eval{Format: FormatGold, Source: writeSource(t, scale), Args: []string{"21", "factor=3"}},
			want: "63\n",
		},
		{
			name: "expression argument",
			eval: Eval{Format: FormatGold, Source: writeSource(t, scale), Args: []string{"20 + 1", "factor=2 + 1"}},
			want: "63\n",
		},
		{
			name: "inline",
			eval: Eval{Format: FormatJSON, Expr: "[1, 2, 3]", Source: stdinSource},
			want: "[1,2,3]\n",
		},
		{
			name: "inline call",
			eval: Eval{Format: FormatGold, Expr: scale, Source: "5", Args: []string{"factor=10"}},
			want: "50\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			ctx := WithOutput(t.Context(), &out)

			if err := tt.eval.Run(ctx); err != nil {
				t.Fatalf("Eval.Run() error = %v", err)
			}

			if out.String() != tt.want {
				t.Errorf("Eval.Run() wrote %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestEvalRun_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		eval   Eval
		target error
	}{
		{"unbound", Eval{Format: FormatGold, Source: writeSource(t, "{a: missing}")}, ErrEvaluate},
		{"syntax", Eval{Format: FormatGold, Expr: "{a: }"}, ErrEvaluate},
		{"bad argument", Eval{Format: FormatGold, Expr: "|x| x", Source: "nope"}, ErrEvaluate},
		{"not callable", Eval{Format: FormatGold, Expr: "1", Source: "2"}, ErrEvaluate},
		{"format", Eval{Format: "toml", Expr: "1"}, ErrEncode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out, rep bytes.Buffer

			ctx := WithReport(WithOutput(t.Context(), &out), &rep)

			err := tt.eval.Run(ctx)
			if !errors.Is(err, tt.target) {
				t.Fatalf("Eval.Run() error = %v, want %v", err, tt.target)
			}

			if tt.target == ErrEvaluate && rep.Len() == 0 {
				t.Error("Eval.Run() wrote no error report")
			}
		})
	}
}

func TestSplitKeyword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg     string
		name    string
		expr    string
		keyword bool
	}{
		{"42", "", "42", false},
		{"x=1", "x", "1", true},
		{"log_level=\"debug\"", "log_level", "\"debug\"", true},
		{"a==b", "", "a==b", false},
		{"=1", "", "=1", false},
		{"\"k\"=1", "", "\"k\"=1", false},
		{"1x=2", "", "1x=2", false},
		{"f=a == b", "f", "a == b", true},
	}

	for _, tt := range tests {
		name, expr, keyword := splitKeyword(tt.arg)
		if name != tt.name || expr != tt.expr || keyword != tt.keyword {
			t.Errorf("splitKeyword(%q) = %q, %q, %t, want %q, %q, %t",
				tt.arg, name, expr, keyword, tt.name, tt.expr, tt.keyword)
		}
	}
}
