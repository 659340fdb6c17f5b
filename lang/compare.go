package lang

import "strings"

// Compare orders v against r. Numbers compare exactly across
// representations and strings compare bytewise. The second result is false
// when the values are not comparable.
func (v Value) Compare(r Value) (int, bool) {
	if isNumber(v) && isNumber(r) {
		return cmpNumber(v, r)
	}

	if ls, ok := v.Str(); ok {
		if rs, ok := r.Str(); ok {
			return strings.Compare(ls, rs), true
		}
	}

	return 0, false
}

// Equal reports value equality, as used by the == operator: numbers are
// equal when mathematically equal, strings when their text matches, and
// lists and maps when their contents are equal. Functions are never equal.
func (v Value) Equal(r Value) bool {
	if isNumber(v) && isNumber(r) {
		c, ok := cmpNumber(v, r)

		return ok && c == 0
	}

	switch v.kind {
	case KindNull:
		return r.kind == KindNull
	case KindBool:
		return r.kind == KindBool && v.i == r.i
	case KindKey, KindString:
		if v.kind == KindKey && r.kind == KindKey {
			return v.k == r.k
		}

		ls, _ := v.Str()
		rs, ok := r.Str()

		return ok && ls == rs
	case KindList:
		rl, ok := r.List()
		if !ok {
			return false
		}

		ll, _ := v.List()
		if ll.Len() != rl.Len() {
			return false
		}

		for i, x := range ll.items {
			if !x.Equal(rl.items[i]) {
				return false
			}
		}

		return true
	case KindMap:
		rm, ok := r.Map()
		if !ok {
			return false
		}

		lm, _ := v.Map()
		if lm.Len() != rm.Len() {
			return false
		}

		for k, x := range lm.All() {
			y, ok := rm.Get(k)
			if !ok || !x.Equal(y) {
				return false
			}
		}

		return true
	case KindBuiltin:
		rb, ok := r.Builtin()
		lb, _ := v.Builtin()

		return ok && lb.Name == rb.Name
	default:
		return false
	}
}

// StrictEqual reports whether v and r have the same representation and
// contents. Unlike [Value.Equal], 1 and 1.0 differ, as do an interned and a
// heap string with the same text. Functions and callables are never equal.
func (v Value) StrictEqual(r Value) bool {
	if v.kind != r.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindInt, KindBool:
		return v.i == r.i
	case KindBigInt:
		return toBig(v).Cmp(toBig(r)) == 0
	case KindFloat:
		return v.f == r.f
	case KindKey:
		return v.k == r.k
	case KindString:
		return v.s == r.s
	case KindList:
		ll, _ := v.List()
		rl, _ := r.List()

		if ll.Len() != rl.Len() {
			return false
		}

		for i, x := range ll.items {
			if !x.StrictEqual(rl.items[i]) {
				return false
			}
		}

		return true
	case KindMap:
		lm, _ := v.Map()
		rm, _ := r.Map()

		if lm.Len() != rm.Len() {
			return false
		}

		for i, k := range lm.keys {
			if rm.keys[i] != k || !lm.vals[i].StrictEqual(rm.vals[i]) {
				return false
			}
		}

		return true
	case KindBuiltin:
		lb, _ := v.Builtin()
		rb, _ := r.Builtin()

		return lb.Name == rb.Name
	default:
		return false
	}
}
