package lang

import (
	"math"
	"strconv"
	"strings"
)

// Format returns the text of v as it appears when interpolated into a
// string. Only strings, numbers, booleans and null can be interpolated.
func (v Value) Format() (string, error) {
	switch v.kind {
	case KindKey, KindString:
		s, _ := v.Str()

		return s, nil
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	case KindBigInt:
		x, _ := v.Big()

		return x.String(), nil
	case KindFloat:
		return formatFloat(v.f), nil
	case KindBool:
		return strconv.FormatBool(v.i != 0), nil
	case KindNull:
		return "null", nil
	default:
		return "", mismatch(MismatchInterpolate, v.Type())
	}
}

// formatFloat writes f in plain decimal notation with the fewest digits that
// round-trip.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// String returns v written as a source literal where one exists. Strings are
// quoted, integral floats keep a decimal point, and map keys are written
// bare. Functions print as placeholders.
func (v Value) String() string {
	var sb strings.Builder

	v.writeTo(&sb)

	return sb.String()
}

func (v Value) writeTo(sb *strings.Builder) {
	switch v.kind {
	case KindKey, KindString:
		s, _ := v.Str()
		sb.WriteByte('"')
		sb.WriteString(escapeString(s))
		sb.WriteByte('"')
	case KindFloat:
		s := formatFloat(v.f)
		sb.WriteString(s)

		if !strings.ContainsAny(s, ".nN") {
			sb.WriteString(".0")
		}
	case KindList:
		l, _ := v.List()

		sb.WriteByte('[')

		for i, x := range l.All() {
			if i > 0 {
				sb.WriteString(", ")
			}

			x.writeTo(sb)
		}

		sb.WriteByte(']')
	case KindMap:
		m, _ := v.Map()

		sb.WriteByte('{')

		first := true
		for k, x := range m.All() {
			if !first {
				sb.WriteString(", ")
			}

			first = false

			writeKey(sb, k)
			sb.WriteString(": ")
			x.writeTo(sb)
		}

		sb.WriteByte('}')
	case KindFunction:
		sb.WriteString("<function>")
	case KindBuiltin:
		b, _ := v.Builtin()
		sb.WriteString("<builtin " + b.Name + ">")
	case KindCallable:
		c, _ := v.Callable()
		sb.WriteString("<callable " + c.Name + ">")
	default:
		s, _ := v.Format()
		sb.WriteString(s)
	}
}

// writeKey writes k bare when it would parse back as the same map key, and
// quoted otherwise.
func writeKey(sb *strings.Builder, k Key) {
	name := k.String()

	_, reserved := keywords[name]
	if name == "" || reserved || strings.ContainsAny(name, mapKeyStop) ||
		strings.HasPrefix(name, "...") {
		sb.WriteByte('"')
		sb.WriteString(escapeString(name))
		sb.WriteByte('"')

		return
	}

	sb.WriteString(name)
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)

// escapeString escapes the characters that are special inside a string
// literal.
func escapeString(s string) string { return stringEscaper.Replace(s) }
