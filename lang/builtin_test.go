package lang

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`len("héllo")`, "5"},
		{"len([1, 2])", "2"},
		{"len({a: 1})", "1"},
		{"range(3)", "[0, 1, 2]"},
		{"range(2, 4)", "[2, 3]"},
		{"range(4, 2)", "[]"},
		{"int(2.6)", "3"},
		{`int("123456789012345678901234567890")`, "123456789012345678901234567890"},
		{"int(true)", "1"},
		{"float(2)", "2.0"},
		{`float("1.25")`, "1.25"},
		{"bool(0)", "false"},
		{`bool("")`, "true"},
		{"str(1.0)", `"1.0"`},
		{"str([1, \"a\"])", `"[1, \"a\"]"`},
		{"map(|x| x + 1, [1, 2])", "[2, 3]"},
		{"filter(|x| x > 1, [1, 2, 3])", "[2, 3]"},
		{"items({a: 1, b: 2})", `[["a", 1], ["b", 2]]`},
		{"exp(0)", "1.0"},
		{"log(4, 2)", "2.0"},
		{"log(1)", "0.0"},
		{`ord("A")`, "65"},
		{"chr(955)", `"λ"`},
		{"isint(1)", "true"},
		{"isint(1.0)", "false"},
		{`isstr("x")`, "true"},
		{"isnull(null)", "true"},
		{"isbool(false)", "true"},
		{"isfloat(1.5)", "true"},
		{"isnumber(9223372036854775808)", "true"},
		{"isobject({})", "true"},
		{"islist([])", "true"},
		{"isfunc(|x| x)", "true"},
		{"isfunc(len)", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()

			if got := evalString(t, tt.source); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	tests := []struct {
		name string
		fn   BuiltinFunc
		args []Value
		want func(error) bool
	}{
		{"len_arity", builtinLen, nil, isMismatch(MismatchArgCount)},
		{"len_type", builtinLen, []Value{Int(1)}, isMismatch(MismatchExpectedArg)},
		{"range_type", builtinRange, []Value{Float(1)}, isMismatch(MismatchExpectedArg)},
		{"range_too_large", builtinRange, []Value{Int(0), Int(math.MaxInt64)}, is(ErrTooLarge)},
		{"int_nan", builtinInt, []Value{Float(math.NaN())}, isConvert(TypeInt)},
		{"int_bad_string", builtinInt, []Value{String("12x")}, isConvert(TypeInt)},
		{"float_bad_string", builtinFloat, []Value{String("x")}, isConvert(TypeFloat)},
		{"ord_long", builtinOrd, []Value{String("ab")}, is(ErrTooLong)},
		{"ord_empty", builtinOrd, []Value{String("")}, is(ErrTooLong)},
		{"chr_range", builtinChr, []Value{Int(-1)}, is(ErrOutOfRange)},
		{"chr_surrogate", builtinChr, []Value{Int(0xD800)}, is(ErrOutOfRange)},
		{"exp_type", builtinExp, []Value{String("1")}, isMismatch(MismatchExpectedArg)},
		{"items_type", builtinItems, []Value{NewList()}, isMismatch(MismatchExpectedArg)},
		{"map_arity", builtinMap, []Value{NewList()}, isMismatch(MismatchArgCount)},
		{"predicate_arity", typePredicate(TypeInt), nil, isMismatch(MismatchArgCount)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.fn(nil, tt.args, nil)
			if err == nil || !tt.want(err) {
				t.Errorf("error = %v", err)
			}
		})
	}
}

func isConvert(typ Type) func(error) bool {
	return func(err error) bool {
		var ve ValueError

		return errors.As(err, &ve) && ve.Kind == ValueConvert && ve.Type == typ
	}
}

func TestBuiltins_ExpectedArgMessage(t *testing.T) {
	t.Parallel()

	_, err := builtinLen(nil, []Value{Int(1)}, nil)

	want := "unsuitable type for parameter 1 - expected str, list or map, got int"
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func TestBuiltins_Names(t *testing.T) {
	t.Parallel()

	names := slices.Collect(StandardBuiltins().Names())

	if !slices.IsSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}

	for _, want := range []string{"len", "range", "map", "filter", "isfunc"} {
		if !slices.Contains(names, want) {
			t.Errorf("names lack %q", want)
		}
	}

	if _, ok := StandardBuiltins().Lookup(Intern("nope")); ok {
		t.Error("Lookup(nope) succeeded")
	}
}
