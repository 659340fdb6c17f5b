package lang

import (
	"bytes"
	"math/big"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Serialization format versions. Unmarshal rejects data written by a newer
// version, or by a version older than MinSerializeVersion.
const (
	SerializeVersion    = 1
	MinSerializeVersion = 1
)

// Extension type IDs used in the serialized form.
const (
	extBigInt  int8 = 1
	extBuiltin int8 = 2
)

// Marshal serializes v into a versioned msgpack envelope stamped with the
// current time. Lists and maps are written as msgpack arrays and maps with
// map order preserved. Builtins are written by name. Closures and host
// callables cannot be serialized.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)

	if err := enc.EncodeArrayLen(3); err != nil {
		return nil, WrapError(err)
	}

	if err := enc.EncodeInt(SerializeVersion); err != nil {
		return nil, WrapError(err)
	}

	if err := enc.EncodeTime(time.Now()); err != nil {
		return nil, WrapError(err)
	}

	if err := encodeValue(enc, v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func encodeValue(enc *msgpack.Encoder, v Value) error {
	var err error

	switch v.kind {
	case KindNull:
		err = enc.EncodeNil()
	case KindBool:
		err = enc.EncodeBool(v.i != 0)
	case KindInt:
		err = enc.EncodeInt(v.i)
	case KindFloat:
		err = enc.EncodeFloat64(v.f)
	case KindKey, KindString:
		s, _ := v.Str()
		err = enc.EncodeString(s)
	case KindBigInt:
		x, _ := v.Big()
		err = encodeExt(enc, extBigInt, x.Bytes(), x.Sign() < 0)
	case KindBuiltin:
		b, _ := v.Builtin()
		err = encodeExt(enc, extBuiltin, []byte(b.Name), false)
	case KindList:
		l, _ := v.List()

		if err := enc.EncodeArrayLen(l.Len()); err != nil {
			return WrapError(err)
		}

		for _, x := range l.All() {
			if err := encodeValue(enc, x); err != nil {
				return err
			}
		}
	case KindMap:
		m, _ := v.Map()

		if err := enc.EncodeMapLen(m.Len()); err != nil {
			return WrapError(err)
		}

		for k, x := range m.All() {
			if err := enc.EncodeString(k.String()); err != nil {
				return WrapError(err)
			}

			if err := encodeValue(enc, x); err != nil {
				return err
			}
		}
	default:
		return mismatch(MismatchSerialize, v.Type())
	}

	if err != nil {
		return WrapError(err)
	}

	return nil
}

// encodeExt writes an extension value. For big integers the first payload
// byte holds the sign.
func encodeExt(enc *msgpack.Encoder, id int8, data []byte, neg bool) error {
	if id == extBigInt {
		sign := byte(0)
		if neg {
			sign = 1
		}

		data = append([]byte{sign}, data...)
	}

	if err := enc.EncodeExtHeader(id, len(data)); err != nil {
		return err
	}

	_, err := enc.Writer().Write(data)

	return err
}

// Unmarshal decodes an envelope written by [Marshal], returning the value
// and the time it was written.
func Unmarshal(data []byte) (Value, time.Time, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return Value{}, time.Time{}, WrapError(err)
	}

	if n != 3 {
		return Value{}, time.Time{}, NewError(ValueError{Kind: ValueVersion})
	}

	version, err := dec.DecodeInt()
	if err != nil {
		return Value{}, time.Time{}, WrapError(err)
	}

	if version > SerializeVersion || version < MinSerializeVersion {
		return Value{}, time.Time{},
			NewError(ValueError{Kind: ValueVersion, Version: version})
	}

	saved, err := dec.DecodeTime()
	if err != nil {
		return Value{}, time.Time{}, WrapError(err)
	}

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, time.Time{}, err
	}

	return v, saved, nil
}

func decodeValue(dec *msgpack.Decoder) (Value, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return Value{}, WrapError(err)
	}

	switch {
	case c == msgpcode.Nil:
		return Value{}, wrapDecode(dec.DecodeNil())

	case c == msgpcode.True || c == msgpcode.False:
		b, err := dec.DecodeBool()

		return Bool(b), wrapDecode(err)

	case c == msgpcode.Float || c == msgpcode.Double:
		f, err := dec.DecodeFloat64()

		return Float(f), wrapDecode(err)

	case msgpcode.IsFixedNum(c),
		c >= msgpcode.Uint8 && c <= msgpcode.Uint64,
		c >= msgpcode.Int8 && c <= msgpcode.Int64:
		i, err := dec.DecodeInt64()

		return Int(i), wrapDecode(err)

	case msgpcode.IsString(c):
		s, err := dec.DecodeString()

		return String(s), wrapDecode(err)

	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return Value{}, WrapError(err)
		}

		items := make([]Value, 0, max(n, 0))

		for range n {
			x, err := decodeValue(dec)
			if err != nil {
				return Value{}, err
			}

			items = append(items, x)
		}

		return NewList(items...), nil

	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return Value{}, WrapError(err)
		}

		m := MakeMap(max(n, 0))

		for range n {
			k, err := dec.DecodeString()
			if err != nil {
				return Value{}, WrapError(err)
			}

			x, err := decodeValue(dec)
			if err != nil {
				return Value{}, err
			}

			m.Set(Intern(k), x)
		}

		return NewMap(m), nil

	case msgpcode.IsExt(c):
		return decodeExt(dec)

	default:
		return Value{}, NewError(ValueError{Kind: ValueConvert, Type: TypeNull})
	}
}

func decodeExt(dec *msgpack.Decoder) (Value, error) {
	id, n, err := dec.DecodeExtHeader()
	if err != nil {
		return Value{}, WrapError(err)
	}

	data := make([]byte, n)
	if err := dec.ReadFull(data); err != nil {
		return Value{}, WrapError(err)
	}

	switch id {
	case extBigInt:
		if len(data) == 0 {
			return Value{}, NewError(ValueError{Kind: ValueConvert, Type: TypeInt})
		}

		x := new(big.Int).SetBytes(data[1:])
		if data[0] != 0 {
			x.Neg(x)
		}

		return BigInt(x), nil

	case extBuiltin:
		if v, ok := StandardBuiltins().Lookup(Intern(string(data))); ok {
			return v, nil
		}

		return Value{}, unbound(Intern(string(data)))

	default:
		return Value{}, NewError(ValueError{Kind: ValueConvert, Type: TypeFunction})
	}
}

func wrapDecode(err error) error {
	if err != nil {
		return WrapError(err)
	}

	return nil
}
