package lang

import (
	"math"
	"math/big"
)

// numeric classifies a pair of operands for arithmetic promotion.
type numeric int

const (
	numNone  numeric = iota
	numInt           // both native
	numBig           // both integers, at least one arbitrary-precision
	numFloat         // both numbers, at least one float
)

func promote(l, r Value) numeric {
	switch {
	case l.kind == KindInt && r.kind == KindInt:
		return numInt
	case isInteger(l) && isInteger(r):
		return numBig
	case isNumber(l) && isNumber(r):
		return numFloat
	default:
		return numNone
	}
}

func isInteger(v Value) bool { return v.kind == KindInt || v.kind == KindBigInt }
func isNumber(v Value) bool  { return isInteger(v) || v.kind == KindFloat }

// toFloat converts a number to float64, rounding arbitrary-precision values
// to the nearest representable float.
func toFloat(v Value) float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindBigInt:
		f, _ := new(big.Float).SetInt(v.p.(*big.Int)).Float64()

		return f
	default:
		return v.f
	}
}

// toBig returns a fresh copy of an integer as *big.Int.
func toBig(v Value) *big.Int {
	if v.kind == KindInt {
		return big.NewInt(v.i)
	}

	return new(big.Int).Set(v.p.(*big.Int))
}

// Add returns l + r. Numbers add, strings and lists concatenate.
func (v Value) Add(r Value) (Value, error) {
	switch promote(v, r) {
	case numInt:
		if sum := v.i + r.i; (sum > v.i) == (r.i > 0) {
			return Int(sum), nil
		}

		return BigInt(new(big.Int).Add(toBig(v), toBig(r))), nil
	case numBig:
		return BigInt(new(big.Int).Add(toBig(v), toBig(r))), nil
	case numFloat:
		return Float(toFloat(v) + toFloat(r)), nil
	}

	if ls, ok := v.Str(); ok {
		if rs, ok := r.Str(); ok {
			return heapString(ls + rs), nil
		}
	}

	if ll, ok := v.List(); ok {
		if rl, ok := r.List(); ok {
			items := make([]Value, 0, ll.Len()+rl.Len())
			items = append(items, ll.items...)
			items = append(items, rl.items...)

			return NewList(items...), nil
		}
	}

	return Value{}, binOpMismatch(BinOpAdd, v, r)
}

// Sub returns l - r.
func (v Value) Sub(r Value) (Value, error) {
	switch promote(v, r) {
	case numInt:
		diff := v.i - r.i
		if (diff < v.i) == (r.i > 0) {
			return Int(diff), nil
		}

		return BigInt(new(big.Int).Sub(toBig(v), toBig(r))), nil
	case numBig:
		return BigInt(new(big.Int).Sub(toBig(v), toBig(r))), nil
	case numFloat:
		return Float(toFloat(v) - toFloat(r)), nil
	default:
		return Value{}, binOpMismatch(BinOpSubtract, v, r)
	}
}

// Mul returns l * r.
func (v Value) Mul(r Value) (Value, error) {
	switch promote(v, r) {
	case numInt:
		if p, ok := mulInt64(v.i, r.i); ok {
			return Int(p), nil
		}

		return BigInt(new(big.Int).Mul(toBig(v), toBig(r))), nil
	case numBig:
		return BigInt(new(big.Int).Mul(toBig(v), toBig(r))), nil
	case numFloat:
		return Float(toFloat(v) * toFloat(r)), nil
	default:
		return Value{}, binOpMismatch(BinOpMultiply, v, r)
	}
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}

	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) ||
		(b == -1 && a == math.MinInt64) {
		return 0, false
	}

	return p, true
}

// Div returns l / r. Division of numbers always yields a float.
func (v Value) Div(r Value) (Value, error) {
	if promote(v, r) == numNone {
		return Value{}, binOpMismatch(BinOpDivide, v, r)
	}

	return Float(toFloat(v) / toFloat(r)), nil
}

// IntDiv returns l // r. Integer operands truncate toward zero; float
// operands floor. An integer divisor of zero is out of range.
func (v Value) IntDiv(r Value) (Value, error) {
	switch promote(v, r) {
	case numInt:
		if r.i == 0 {
			return Value{}, NewError(ErrOutOfRange)
		}

		if v.i == math.MinInt64 && r.i == -1 {
			return BigInt(new(big.Int).Neg(toBig(v))), nil
		}

		return Int(v.i / r.i), nil
	case numBig:
		d := toBig(r)
		if d.Sign() == 0 {
			return Value{}, NewError(ErrOutOfRange)
		}

		return BigInt(new(big.Int).Quo(toBig(v), d)), nil
	case numFloat:
		return Float(math.Floor(toFloat(v) / toFloat(r))), nil
	default:
		return Value{}, binOpMismatch(BinOpIntegerDivide, v, r)
	}
}

// Pow returns l ^ r. An integer raised to a non-negative integer stays an
// integer; anything else is computed in floating point.
func (v Value) Pow(r Value) (Value, error) {
	if isInteger(v) && r.kind == KindInt && r.i >= 0 {
		if r.i > math.MaxUint32 {
			return Value{}, NewError(ErrTooLarge)
		}

		if v.kind == KindInt {
			if p, ok := powInt64(v.i, uint64(r.i)); ok {
				return Int(p), nil
			}
		}

		return BigInt(new(big.Int).Exp(toBig(v), big.NewInt(r.i), nil)), nil
	}

	if !isNumber(v) || !isNumber(r) {
		return Value{}, binOpMismatch(BinOpPower, v, r)
	}

	return Float(math.Pow(toFloat(v), toFloat(r))), nil
}

func powInt64(base int64, exp uint64) (int64, bool) {
	result := int64(1)

	for exp > 0 {
		if exp&1 == 1 {
			var ok bool
			if result, ok = mulInt64(result, base); !ok {
				return 0, false
			}
		}

		exp >>= 1
		if exp > 0 {
			var ok bool
			if base, ok = mulInt64(base, base); !ok {
				return 0, false
			}
		}
	}

	return result, true
}

// Neg returns -v.
func (v Value) Neg() (Value, error) {
	switch v.kind {
	case KindInt:
		if v.i == math.MinInt64 {
			return BigInt(new(big.Int).Neg(toBig(v))), nil
		}

		return Int(-v.i), nil
	case KindBigInt:
		return BigInt(new(big.Int).Neg(toBig(v))), nil
	case KindFloat:
		return Float(-v.f), nil
	default:
		return Value{}, NewError(TypeMismatch{
			Kind: MismatchUnOp, UnOp: UnOpNegate, Type: v.Type(),
		})
	}
}

// Index returns v[r]: list elements by non-negative integer position and
// map entries by string key.
func (v Value) Index(r Value) (Value, error) {
	if l, ok := v.List(); ok && isInteger(r) {
		if r.kind != KindInt || r.i < 0 || r.i >= int64(l.Len()) {
			return Value{}, NewError(ErrOutOfRange)
		}

		return l.At(int(r.i)), nil
	}

	if m, ok := v.Map(); ok {
		if k, ok := r.Key(); ok {
			val, ok := m.Get(k)
			if !ok {
				return Value{}, unassigned(k)
			}

			return val, nil
		}
	}

	return Value{}, binOpMismatch(BinOpIndex, v, r)
}

// cmpNumber compares two numbers. A native integer paired with a float is
// widened to float, as in arithmetic; an arbitrary-precision integer paired
// with a float is compared exactly. It reports false when either is NaN.
func cmpNumber(l, r Value) (int, bool) {
	switch promote(l, r) {
	case numInt:
		switch {
		case l.i < r.i:
			return -1, true
		case l.i > r.i:
			return 1, true
		default:
			return 0, true
		}
	case numBig:
		return toBig(l).Cmp(toBig(r)), true
	case numFloat:
		if l.kind != KindBigInt && r.kind != KindBigInt {
			lf, rf := toFloat(l), toFloat(r)

			switch {
			case lf < rf:
				return -1, true
			case lf > rf:
				return 1, true
			case lf == rf:
				return 0, true
			default:
				return 0, false
			}
		}

		lf, lok := exactFloat(l)
		rf, rok := exactFloat(r)

		if !lok || !rok {
			return 0, false
		}

		return lf.Cmp(rf), true
	default:
		return 0, false
	}
}

// exactFloat converts a number to a big.Float without rounding. Infinities
// are preserved; NaN is rejected.
func exactFloat(v Value) (*big.Float, bool) {
	switch v.kind {
	case KindBigInt:
		x := v.p.(*big.Int)

		return new(big.Float).SetPrec(uint(max(x.BitLen(), 64))).SetInt(x), true
	default:
		if math.IsNaN(v.f) {
			return nil, false
		}

		return new(big.Float).SetFloat64(v.f), true
	}
}
