package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Object is a JSON-like object that keeps the order of its members.
type Object []Member

// Member is one key and value of an [Object].
type Member struct {
	Key   string
	Value any
}

// MarshalJSON writes the members in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(m.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalYAML converts the members to an ordered YAML mapping.
func (o Object) MarshalYAML() (any, error) {
	ms := make(yaml.MapSlice, len(o))
	for i, m := range o {
		ms[i] = yaml.MapItem{Key: m.Key, Value: m.Value}
	}

	return ms, nil
}

// ToJSON converts v to plain Go values: nil, bool, int64, float64, string,
// []any and [Object]. Functions have no JSON-like form, and integers must
// fit in 64 bits.
func ToJSON(v Value) (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.i != 0, nil
	case KindInt:
		return v.i, nil
	case KindBigInt:
		return nil, NewError(ErrTooLarge)
	case KindFloat:
		return v.f, nil
	case KindKey, KindString:
		s, _ := v.Str()

		return s, nil
	case KindList:
		l, _ := v.List()

		items := make([]any, 0, l.Len())

		for _, x := range l.All() {
			y, err := ToJSON(x)
			if err != nil {
				return nil, err
			}

			items = append(items, y)
		}

		return items, nil
	case KindMap:
		m, _ := v.Map()

		obj := make(Object, 0, m.Len())

		for k, x := range m.All() {
			y, err := ToJSON(x)
			if err != nil {
				return nil, err
			}

			obj = append(obj, Member{Key: k.String(), Value: y})
		}

		return obj, nil
	default:
		return nil, mismatch(MismatchJSON, v.Type())
	}
}

// EncodeJSON writes v as JSON to w, indented by indent spaces per level if
// indent is positive.
func EncodeJSON(_ context.Context, w io.Writer, v Value, indent int) error {
	doc, err := ToJSON(v)
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return WrapError(err)
	}

	if indent > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", strings.Repeat(" ", indent)); err != nil {
			return WrapError(err)
		}

		data = buf.Bytes()
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// EncodeYAML writes v as YAML to w. A non-positive indent selects flow
// style.
func EncodeYAML(ctx context.Context, w io.Writer, v Value, indent int) error {
	doc, err := ToJSON(v)
	if err != nil {
		return err
	}

	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, doc, opts...)
	if err != nil {
		return WrapError(err)
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// EncodeGold writes v as a gold literal to w. With a positive indent, lists
// and maps are spread over several lines with trailing commas.
func EncodeGold(_ context.Context, w io.Writer, v Value, indent int) error {
	var sb strings.Builder

	if indent <= 0 {
		v.writeTo(&sb)
	} else {
		writeIndented(&sb, v, indent, 0)
	}

	_, err := fmt.Fprintln(w, sb.String())

	return err
}

func writeIndented(sb *strings.Builder, v Value, indent, depth int) {
	pad := strings.Repeat(" ", (depth+1)*indent)

	switch v.kind {
	case KindList:
		l, _ := v.List()
		if l.Len() == 0 {
			sb.WriteString("[]")

			return
		}

		sb.WriteString("[\n")

		for _, x := range l.All() {
			sb.WriteString(pad)
			writeIndented(sb, x, indent, depth+1)
			sb.WriteString(",\n")
		}

		sb.WriteString(strings.Repeat(" ", depth*indent))
		sb.WriteByte(']')
	case KindMap:
		m, _ := v.Map()
		if m.Len() == 0 {
			sb.WriteString("{}")

			return
		}

		sb.WriteString("{\n")

		for k, x := range m.All() {
			sb.WriteString(pad)
			writeKey(sb, k)
			sb.WriteString(": ")
			writeIndented(sb, x, indent, depth+1)
			sb.WriteString(",\n")
		}

		sb.WriteString(strings.Repeat(" ", depth*indent))
		sb.WriteByte('}')
	default:
		v.writeTo(sb)
	}
}
