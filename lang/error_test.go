package lang

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"testing"
)

func TestError_RenderWith(t *testing.T) {
	tests := []struct {
		name   string
		source string
		loc    Location
		want   []string
	}{
		{
			name:   "single_line",
			source: "let abc = 1\nin abc",
			loc:    Location{Offset: 4, Line: 1, Length: 3},
			want: []string{
				"let abc = 1",
				"    ^^^",
				"while evaluating at 1:4",
			},
		},
		{
			name:   "clipped_to_line_end",
			source: "let abc = 1\nin abc",
			loc:    Location{Offset: 4, Line: 1, Length: 20},
			want: []string{
				"let abc = 1",
				"    ^^^^^^^",
				"while evaluating at 1:4",
			},
		},
		{
			name:   "second_line",
			source: "let abc = 1\nin abc",
			loc:    Location{Offset: 15, Line: 2, Length: 3},
			want: []string{
				"in abc",
				"   ^^^",
				"while evaluating at 2:3",
			},
		},
		{
			name:   "end_of_input",
			source: "1 +",
			loc:    Location{Offset: 3, Line: 1, Length: 1},
			want: []string{
				"1 +",
				"   ",
				"while evaluating at 1:3",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := NewError(ErrTooDeep).Tag(tt.loc, ActionEvaluate)
			got := strings.Split(err.RenderWith(tt.source, RenderStyle{}), "\n")

			want := append([]string{"Error: recursion limit exceeded"}, tt.want...)
			if strings.Join(got, "\n") != strings.Join(want, "\n") {
				t.Errorf("RenderWith() =\n%s\nwant\n%s",
					strings.Join(got, "\n"), strings.Join(want, "\n"))
			}
		})
	}
}

func TestError_RenderStyle(t *testing.T) {
	t.Parallel()

	bracket := func(s string) string { return "[" + s + "]" }

	err := NewError(ErrOutOfRange).Tag(Location{Offset: 0, Line: 1, Length: 1}, ActionEvaluate)
	got := err.RenderWith("x", RenderStyle{Reason: bracket, Caret: bracket})

	want := "[Error: value out of range]\nx\n[^]\nwhile evaluating at 1:0"
	if got != want {
		t.Errorf("RenderWith() = %q, want %q", got, want)
	}
}

func TestError_Stack(t *testing.T) {
	t.Parallel()

	inner := Location{Offset: 5, Line: 1, Length: 1}
	outer := Location{Offset: 0, Line: 1, Length: 8}

	err := NewError(ErrListTooShort).Tag(inner, ActionBind).Tag(outer, ActionEvaluate)

	stack := err.Stack()
	if len(stack) != 2 || stack[0].Loc != inner || stack[1].Action != ActionEvaluate {
		t.Fatalf("Stack() = %+v", stack)
	}

	stack[0].Action = ActionSplat
	if err.Stack()[0].Action != ActionBind {
		t.Error("Stack() returned shared storage")
	}

	want := "list too short (while pattern matching at line 1, offset 5)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestError_Rendered(t *testing.T) {
	t.Parallel()

	err := NewError(ErrTooLong).Tag(Location{Line: 1, Length: 1}, ActionEvaluate)
	if err.Rendered() {
		t.Fatal("new error reports rendered")
	}

	err.Render("x")
	if !err.Rendered() || !strings.HasPrefix(err.Error(), "Error: value too long\n") {
		t.Errorf("Error() = %q after Render", err.Error())
	}

	if err.Unrender().Rendered() {
		t.Error("Unrender() kept the report")
	}
}

func TestWrapError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		t.Parallel()

		if WrapError(nil) != nil {
			t.Error("WrapError(nil) != nil")
		}
	})

	t.Run("existing_error", func(t *testing.T) {
		t.Parallel()

		e := NewError(ErrOutOfRange)
		if got := WrapError(fmt.Errorf("context: %w", e)); got != e {
			t.Errorf("WrapError() = %v, want the wrapped *Error", got)
		}
	})

	t.Run("reason", func(t *testing.T) {
		t.Parallel()

		if got := WrapError(ErrTooLarge); got.Reason() != ErrTooLarge {
			t.Errorf("Reason() = %v, want %v", got.Reason(), ErrTooLarge)
		}
	})

	t.Run("external", func(t *testing.T) {
		t.Parallel()

		got := WrapError(fs.ErrPermission)

		var ee ExternalError
		if !errors.As(got, &ee) || ee.Msg != fs.ErrPermission.Error() {
			t.Errorf("WrapError() = %v, want external error", got)
		}

		if !errors.Is(got, fs.ErrPermission) {
			t.Error("cause not preserved")
		}
	})
}

func TestError_With(t *testing.T) {
	t.Parallel()

	base := NewError(ErrTooDeep).Tag(Location{Line: 3, Length: 1}, ActionImport)
	derived := base.With(slog.String("path", "a.gold"))

	if derived == base {
		t.Fatal("With() returned the receiver")
	}

	if len(base.LogValue().Group()) != len(derived.LogValue().Group())-1 {
		t.Error("With() did not add exactly one attribute")
	}

	attrs := map[string]slog.Value{}
	for _, a := range derived.LogValue().Group() {
		attrs[a.Key] = a.Value
	}

	if attrs["action"].String() != "importing" || attrs["line"].Int64() != 3 ||
		attrs["path"].String() != "a.gold" {
		t.Errorf("LogValue() = %v", derived.LogValue())
	}
}

func TestReasonMessages(t *testing.T) {
	tests := []struct {
		reason Reason
		want   string
	}{
		{expected(SyntaxColon), "expected ':'"},
		{expected(SyntaxCloseBracket, SyntaxComma), "expected ']' or ','"},
		{expected(SyntaxPipe, SyntaxSemicolon, SyntaxComma), "expected |, ';' or ','"},
		{SyntaxError{MultiSlurp: true}, "only one slurp allowed in this context"},
		{LookupError{Kind: LookupUnbound, Key: Intern("x")}, "unbound name 'x'"},
		{UnpackError{Kind: UnpackTypeMismatch, Binding: BindingList, Type: TypeMap}, "expected list, found map"},
		{InternalError{Code: InternalSetInFrozenNamespace}, "internal error 001 - this should not happen, please file a bug report"},
		{TypeMismatch{Kind: MismatchArgCount, Min: 1, Max: 2, Got: 3}, "expected 1 to 2 arguments, got 3"},
		{TypeMismatch{Kind: MismatchBinOp, BinOp: BinOpAdd, Type: TypeInt, Right: TypeString}, "unsuitable types for '+': int and str"},
		{ValueError{Kind: ValueVersion, Version: 9}, "unsupported serialization version 9"},
		{FileSystemError{Kind: FileSystemNoParent, Path: "/"}, "path has no parent: /"},
		{ImportError{Path: "x"}, "unknown import: 'x'"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := tt.reason.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
