package lang

import (
	"math/big"
	"reflect"
	"slices"
	"strings"
)

// FromGo converts a plain Go value into a Value. It accepts the forms
// produced by [ToJSON] as well as any integer, float, slice, array, or map
// with string keys. Maps are ordered by key since Go maps have no order.
func FromGo(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float64:
		return Float(x), nil
	case *big.Int:
		return BigInt(new(big.Int).Set(x)), nil
	case Object:
		m := MakeMap(len(x))

		for _, mem := range x {
			v, err := FromGo(mem.Value)
			if err != nil {
				return Value{}, err
			}

			m.Set(Intern(mem.Key), v)
		}

		return NewMap(m), nil
	}

	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return BigInt(new(big.Int).SetUint64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}

		return FromGo(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return NewList(), nil
		}

		items := make([]Value, rv.Len())

		for i := range rv.Len() {
			v, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}

			items[i] = v
		}

		return NewList(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(a.String(), b.String())
		})

		m := MakeMap(len(keys))

		for _, k := range keys {
			v, err := FromGo(rv.MapIndex(k).Interface())
			if err != nil {
				return Value{}, err
			}

			m.Set(Intern(k.String()), v)
		}

		return NewMap(m), nil
	}

	return Value{}, NewError(ValueError{Kind: ValueConvert, Type: TypeMap | TypeList})
}
