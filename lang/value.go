package lang

import (
	"context"
	"iter"
	"math/big"
	"strconv"
	"unique"
)

// Key is an interned string used for identifiers, map keys, and short string
// values. Keys compare in constant time.
type Key struct {
	h unique.Handle[string]
}

// Intern returns the Key for s.
func Intern(s string) Key { return Key{unique.Make(s)} }

// String returns the text of the key.
func (k Key) String() string {
	if k == (Key{}) {
		return ""
	}

	return k.h.Value()
}

// maxInternLen is the length below which string values are interned.
const maxInternLen = 20

// Type is a bit set of user-visible value types. A single bit names the type
// of a value; several bits describe the types a parameter accepts.
type Type uint16

const (
	TypeInt Type = 1 << iota
	TypeFloat
	TypeBool
	TypeString
	TypeList
	TypeMap
	TypeFunction
	TypeNull
)

// TypeNumber is the set of numeric types.
const TypeNumber = TypeInt | TypeFloat

var typeNames = [...]string{
	"int", "float", "bool", "str", "list", "map", "function", "null",
}

// names returns the name of every type in the set, in bit order.
func (t Type) names() []string {
	var names []string

	for i, name := range typeNames {
		if t&(1<<i) != 0 {
			names = append(names, name)
		}
	}

	return names
}

func (t Type) String() string {
	names := t.names()
	if len(names) == 0 {
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}

	return joinOr(names)
}

// Kind is the concrete representation of a value. Several kinds share a
// user-visible [Type].
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindBigInt
	KindFloat
	KindKey
	KindString
	KindBool
	KindList
	KindMap
	KindFunction
	KindBuiltin
	KindCallable
)

// Value is an immutable language value. The zero Value is null. Copying a
// Value never copies list or map contents.
type Value struct {
	p    any // *big.Int, *List, *Map, *Function, *Builtin, *Callable
	s    string
	k    Key
	f    float64
	i    int64
	kind Kind
}

// Null returns the null value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// BigInt returns an integer value for x, stored natively when it fits. The
// value takes ownership of x.
func BigInt(x *big.Int) Value {
	if x.IsInt64() {
		return Int(x.Int64())
	}

	return Value{kind: KindBigInt, p: x}
}

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}

	return v
}

// String returns a string value. Short strings are interned.
func String(s string) Value {
	if len(s) < maxInternLen {
		return keyString(Intern(s))
	}

	return heapString(s)
}

func keyString(k Key) Value     { return Value{kind: KindKey, k: k} }
func heapString(s string) Value { return Value{kind: KindString, s: s} }

// NewList returns a list value holding vals. The list takes ownership of the
// slice.
func NewList(vals ...Value) Value {
	return Value{kind: KindList, p: &List{items: vals}}
}

// NewMap returns a map value wrapping m. The map must not be modified
// afterwards.
func NewMap(m *Map) Value {
	if m == nil {
		m = MakeMap(0)
	}

	return Value{kind: KindMap, p: m}
}

// NewCallable wraps a host function as a callable value.
func NewCallable(name string, fn HostFunc) Value {
	return Value{kind: KindCallable, p: &Callable{Name: name, Fn: fn}}
}

func functionValue(f *Function) Value { return Value{kind: KindFunction, p: f} }
func builtinValue(b *Builtin) Value   { return Value{kind: KindBuiltin, p: b} }

// Kind returns the representation of v.
func (v Value) Kind() Kind { return v.kind }

// Type returns the user-visible type of v.
func (v Value) Type() Type {
	switch v.kind {
	case KindInt, KindBigInt:
		return TypeInt
	case KindFloat:
		return TypeFloat
	case KindKey, KindString:
		return TypeString
	case KindBool:
		return TypeBool
	case KindList:
		return TypeList
	case KindMap:
		return TypeMap
	case KindFunction, KindBuiltin, KindCallable:
		return TypeFunction
	default:
		return TypeNull
	}
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the native integer held by v.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Big returns v as an arbitrary-precision integer if it is any integer.
// The result must not be modified.
func (v Value) Big() (*big.Int, bool) {
	switch v.kind {
	case KindInt:
		return big.NewInt(v.i), true
	case KindBigInt:
		x, _ := v.p.(*big.Int)

		return x, true
	default:
		return nil, false
	}
}

// Float returns the float held by v.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) { return v.i != 0, v.kind == KindBool }

// Str returns the text of a string value of either representation.
func (v Value) Str() (string, bool) {
	switch v.kind {
	case KindKey:
		return v.k.String(), true
	case KindString:
		return v.s, true
	default:
		return "", false
	}
}

// Key returns the interned key of a string value of either representation.
func (v Value) Key() (Key, bool) {
	switch v.kind {
	case KindKey:
		return v.k, true
	case KindString:
		return Intern(v.s), true
	default:
		return Key{}, false
	}
}

// List returns the list held by v.
func (v Value) List() (*List, bool) {
	l, ok := v.p.(*List)

	return l, ok && v.kind == KindList
}

// Map returns the map held by v.
func (v Value) Map() (*Map, bool) {
	m, ok := v.p.(*Map)

	return m, ok && v.kind == KindMap
}

// Function returns the closure held by v.
func (v Value) Function() (*Function, bool) {
	f, ok := v.p.(*Function)

	return f, ok
}

// Builtin returns the builtin held by v.
func (v Value) Builtin() (*Builtin, bool) {
	b, ok := v.p.(*Builtin)

	return b, ok
}

// Callable returns the host callable held by v.
func (v Value) Callable() (*Callable, bool) {
	c, ok := v.p.(*Callable)

	return c, ok
}

// Truthy reports the truth value of v: null, false, zero numbers are false,
// everything else is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool, KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	default:
		return true
	}
}

// List is an immutable ordered sequence of values.
type List struct {
	items []Value
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}

	return len(l.items)
}

// At returns the element at index i.
func (l *List) At(i int) Value { return l.items[i] }

// All iterates over the elements with their indices.
func (l *List) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Values returns a copy of the elements.
func (l *List) Values() []Value {
	return append([]Value(nil), l.items...)
}

// Map is an insertion-ordered map from keys to values. A Map is mutable
// while it is being built; once wrapped by [NewMap] it must be treated as
// read-only.
type Map struct {
	index map[Key]int
	keys  []Key
	vals  []Value
}

// MakeMap returns an empty map with room for n entries.
func MakeMap(n int) *Map {
	return &Map{
		index: make(map[Key]int, n),
		keys:  make([]Key, 0, n),
		vals:  make([]Value, 0, n),
	}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Get returns the value stored under k.
func (m *Map) Get(k Key) (Value, bool) {
	if m == nil {
		return Value{}, false
	}

	i, ok := m.index[k]
	if !ok {
		return Value{}, false
	}

	return m.vals[i], true
}

// Lookup is Get by string.
func (m *Map) Lookup(name string) (Value, bool) { return m.Get(Intern(name)) }

// Set stores v under k. Replacing an existing key keeps its position.
func (m *Map) Set(k Key, v Value) {
	if i, ok := m.index[k]; ok {
		m.vals[i] = v

		return
	}

	m.index[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

// Delete removes k, shifting later entries down to preserve order.
func (m *Map) Delete(k Key) {
	i, ok := m.index[k]
	if !ok {
		return
	}

	delete(m.index, k)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)

	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
}

// Clone returns a shallow copy of m.
func (m *Map) Clone() *Map {
	c := &Map{
		index: make(map[Key]int, m.Len()),
		keys:  make([]Key, m.Len()),
		vals:  make([]Value, m.Len()),
	}

	if m == nil {
		return c
	}

	copy(c.keys, m.keys)
	copy(c.vals, m.vals)

	for k, i := range m.index {
		c.index[k] = i
	}

	return c
}

// All iterates over the entries in insertion order.
func (m *Map) All() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		if m == nil {
			return
		}

		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

// Keys iterates over the keys in insertion order.
func (m *Map) Keys() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		if m == nil {
			return
		}

		for _, k := range m.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Function is a closure: a function literal paired with the values of its
// free names at the time it was created.
type Function struct {
	Positional *ListBinding
	Keywords   *MapBinding // nil when no keyword parameters are declared
	Body       Expr
	Closure    *Map
}

// Caller invokes functions on behalf of builtins such as map and filter.
type Caller interface {
	Call(fn Value, args []Value, kwargs *Map) (Value, error)
}

// BuiltinFunc implements a builtin function.
type BuiltinFunc func(c Caller, args []Value, kwargs *Map) (Value, error)

// Builtin is a named native function.
type Builtin struct {
	Name string
	Fn   BuiltinFunc
}

// HostFunc is a function supplied by the embedding application.
type HostFunc func(ctx context.Context, args []Value, kwargs *Map) (Value, error)

// Callable is a host function exposed as a value.
type Callable struct {
	Name string
	Fn   HostFunc
}
