package lang

import (
	"iter"
	"maps"
	"math"
	"math/big"
	"slices"
	"strconv"
	"sync"
	"unicode/utf8"
)

// Builtins is the table of native functions that forms the root scope of
// every evaluation.
type Builtins struct {
	table map[Key]*Builtin
}

// StandardBuiltins returns the builtin table, constructed on first use.
var StandardBuiltins = sync.OnceValue(func() *Builtins {
	b := &Builtins{table: make(map[Key]*Builtin)}

	for name, fn := range map[string]BuiltinFunc{
		"len":      builtinLen,
		"range":    builtinRange,
		"int":      builtinInt,
		"float":    builtinFloat,
		"bool":     builtinBool,
		"str":      builtinStr,
		"map":      builtinMap,
		"filter":   builtinFilter,
		"items":    builtinItems,
		"exp":      builtinExp,
		"log":      builtinLog,
		"ord":      builtinOrd,
		"chr":      builtinChr,
		"isint":    typePredicate(TypeInt),
		"isstr":    typePredicate(TypeString),
		"isnull":   typePredicate(TypeNull),
		"isbool":   typePredicate(TypeBool),
		"isfloat":  typePredicate(TypeFloat),
		"isnumber": typePredicate(TypeNumber),
		"isobject": typePredicate(TypeMap),
		"islist":   typePredicate(TypeList),
		"isfunc":   typePredicate(TypeFunction),
	} {
		b.table[Intern(name)] = &Builtin{Name: name, Fn: fn}
	}

	return b
})

// Lookup returns the builtin named k as a value.
func (b *Builtins) Lookup(k Key) (Value, bool) {
	fn, ok := b.table[k]
	if !ok {
		return Value{}, false
	}

	return builtinValue(fn), true
}

// Names iterates over the builtin names in sorted order.
func (b *Builtins) Names() iter.Seq[string] {
	names := make([]string, 0, len(b.table))
	for k := range maps.Keys(b.table) {
		names = append(names, k.String())
	}

	slices.Sort(names)

	return slices.Values(names)
}

func builtinLen(_ Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 1 {
		return Value{}, argCount(1, 1, len(args))
	}

	switch x := args[0]; x.kind {
	case KindKey, KindString:
		s, _ := x.Str()

		return Int(int64(utf8.RuneCountInString(s))), nil
	case KindList:
		l, _ := x.List()

		return Int(int64(l.Len())), nil
	case KindMap:
		m, _ := x.Map()

		return Int(int64(m.Len())), nil
	default:
		return Value{}, expectedArg(0, TypeString|TypeList|TypeMap, x)
	}
}

func builtinRange(_ Caller, args []Value, _ *Map) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Value{}, argCount(1, 2, len(args))
	}

	for i, x := range args {
		if x.kind != KindInt {
			return Value{}, expectedArg(i, TypeInt, x)
		}
	}

	start, stop := int64(0), args[0].i
	if len(args) == 2 {
		start, stop = args[0].i, args[1].i
	}

	if stop <= start {
		return NewList(), nil
	}

	if stop-start > math.MaxInt32 {
		return Value{}, NewError(ErrTooLarge)
	}

	items := make([]Value, 0, stop-start)
	for i := start; i < stop; i++ {
		items = append(items, Int(i))
	}

	return NewList(items...), nil
}

func builtinInt(_ Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 1 {
		return Value{}, argCount(1, 1, len(args))
	}

	switch x := args[0]; x.kind {
	case KindInt, KindBigInt:
		return x, nil
	case KindFloat:
		if math.IsNaN(x.f) || math.IsInf(x.f, 0) {
			return Value{}, NewError(ValueError{Kind: ValueConvert, Type: TypeInt})
		}

		r := math.Round(x.f)
		if r >= math.MinInt64 && r < math.MaxInt64 {
			return Int(int64(r)), nil
		}

		i, _ := big.NewFloat(r).Int(nil)

		return BigInt(i), nil
	case KindBool:
		return Int(x.i), nil
	case KindKey, KindString:
		s, _ := x.Str()

		i, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return Value{}, NewError(ValueError{Kind: ValueConvert, Type: TypeInt})
		}

		return BigInt(i), nil
	default:
		return Value{}, expectedArg(0, TypeInt|TypeFloat|TypeBool|TypeString, x)
	}
}

func builtinFloat(_ Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 1 {
		return Value{}, argCount(1, 1, len(args))
	}

	switch x := args[0]; x.kind {
	case KindInt, KindBigInt:
		return Float(toFloat(x)), nil
	case KindFloat:
		return x, nil
	case KindBool:
		return Float(float64(x.i)), nil
	case KindKey, KindString:
		s, _ := x.Str()

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, NewError(ValueError{Kind: ValueConvert, Type: TypeFloat})
		}

		return Float(f), nil
	default:
		return Value{}, expectedArg(0, TypeInt|TypeFloat|TypeBool|TypeString, x)
	}
}

func builtinBool(_ Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 1 {
		return Value{}, argCount(1, 1, len(args))
	}

	return Bool(args[0].Truthy()), nil
}

func builtinStr(_ Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 1 {
		return Value{}, argCount(1, 1, len(args))
	}

	if x := args[0]; x.Type() == TypeString {
		return x, nil
	}

	return String(args[0].String()), nil
}

func builtinMap(c Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 2 {
		return Value{}, argCount(2, 2, len(args))
	}

	l, ok := args[1].List()
	if !ok {
		return Value{}, expectedArg(1, TypeList, args[1])
	}

	items := make([]Value, 0, l.Len())

	for _, x := range l.All() {
		y, err := c.Call(args[0], []Value{x}, nil)
		if err != nil {
			return Value{}, err
		}

		items = append(items, y)
	}

	return NewList(items...), nil
}

func builtinFilter(c Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 2 {
		return Value{}, argCount(2, 2, len(args))
	}

	l, ok := args[1].List()
	if !ok {
		return Value{}, expectedArg(1, TypeList, args[1])
	}

	var items []Value

	for _, x := range l.All() {
		keep, err := c.Call(args[0], []Value{x}, nil)
		if err != nil {
			return Value{}, err
		}

		if keep.Truthy() {
			items = append(items, x)
		}
	}

	return NewList(items...), nil
}

func builtinItems(_ Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 1 {
		return Value{}, argCount(1, 1, len(args))
	}

	m, ok := args[0].Map()
	if !ok {
		return Value{}, expectedArg(0, TypeMap, args[0])
	}

	items := make([]Value, 0, m.Len())
	for k, v := range m.All() {
		items = append(items, NewList(keyString(k), v))
	}

	return NewList(items...), nil
}

// numericArgs returns the float value of args[0] and, if present, args[1].
func numericArgs(args []Value) (x, base float64, hasBase bool, err error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, false, argCount(1, 2, len(args))
	}

	for i, a := range args {
		if !isNumber(a) {
			return 0, 0, false, expectedArg(i, TypeNumber, a)
		}
	}

	x = toFloat(args[0])
	if len(args) == 2 {
		return x, toFloat(args[1]), true, nil
	}

	return x, 0, false, nil
}

// builtinExp computes e^x, or base^x with two arguments.
func builtinExp(_ Caller, args []Value, _ *Map) (Value, error) {
	x, base, hasBase, err := numericArgs(args)
	if err != nil {
		return Value{}, err
	}

	if hasBase {
		return Float(math.Pow(base, x)), nil
	}

	return Float(math.Exp(x)), nil
}

// builtinLog computes ln x, or the logarithm of x in base with two
// arguments.
func builtinLog(_ Caller, args []Value, _ *Map) (Value, error) {
	x, base, hasBase, err := numericArgs(args)
	if err != nil {
		return Value{}, err
	}

	if hasBase {
		return Float(math.Log(x) / math.Log(base)), nil
	}

	return Float(math.Log(x)), nil
}

func builtinOrd(_ Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 1 {
		return Value{}, argCount(1, 1, len(args))
	}

	s, ok := args[0].Str()
	if !ok {
		return Value{}, expectedArg(0, TypeString, args[0])
	}

	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || n != len(s) {
		return Value{}, NewError(ErrTooLong)
	}

	return Int(int64(r)), nil
}

func builtinChr(_ Caller, args []Value, _ *Map) (Value, error) {
	if len(args) != 1 {
		return Value{}, argCount(1, 1, len(args))
	}

	switch x := args[0]; x.kind {
	case KindInt:
		if x.i < 0 || x.i > utf8.MaxRune || !utf8.ValidRune(rune(x.i)) {
			return Value{}, NewError(ErrOutOfRange)
		}

		return String(string(rune(x.i))), nil
	case KindBigInt:
		return Value{}, NewError(ErrOutOfRange)
	default:
		return Value{}, expectedArg(0, TypeInt, x)
	}
}

// typePredicate returns a builtin reporting whether its single argument has
// one of the types in t.
func typePredicate(t Type) BuiltinFunc {
	return func(_ Caller, args []Value, _ *Map) (Value, error) {
		if len(args) != 1 {
			return Value{}, argCount(1, 1, len(args))
		}

		return Bool(args[0].Type()&t != 0), nil
	}
}
