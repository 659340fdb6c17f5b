package lang

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"
)

func mustEval(t *testing.T, source string) Value {
	t.Helper()

	v, err := Eval(t.Context(), source)
	if err != nil {
		t.Fatalf("Eval(%q) error = %v", source, err)
	}

	return v
}

func TestEncodeJSON(t *testing.T) {
	tests := []struct {
		name   string
		source string
		indent int
		want   string
	}{
		{"compact_ordered", `{b: 1, a: [true, null, 1.5, "x"]}`, 0, `{"b":1,"a":[true,null,1.5,"x"]}` + "\n"},
		{"indented", "{a: [1]}", 2, "{\n  \"a\": [\n    1\n  ]\n}\n"},
		{"scalar", `"q\"uote"`, 0, `"q\"uote"` + "\n"},
		{"empty_map", "{}", 0, "{}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := EncodeJSON(t.Context(), &buf, mustEval(t, tt.source), tt.indent); err != nil {
				t.Fatal(err)
			}

			if buf.String() != tt.want {
				t.Errorf("EncodeJSON() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestEncodeYAML(t *testing.T) {
	v := mustEval(t, "{zeta: 1, alpha: [1, 2], name: \"gold\"}")

	for _, indent := range []int{0, 2, 4} {
		var buf bytes.Buffer
		if err := EncodeYAML(t.Context(), &buf, v, indent); err != nil {
			t.Fatalf("indent %d: %v", indent, err)
		}

		out := buf.String()

		z, a, n := strings.Index(out, "zeta"), strings.Index(out, "alpha"), strings.Index(out, "name")
		if z < 0 || z > a || a > n {
			t.Errorf("indent %d: keys out of order:\n%s", indent, out)
		}

		if indent <= 0 && !strings.HasPrefix(out, "{") {
			t.Errorf("indent %d: want flow style, got:\n%s", indent, out)
		}
	}
}

func TestEncodeGold(t *testing.T) {
	v := mustEval(t, `{a: [1, 2], b: {}, "c d": "\$"}`)

	t.Run("inline", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := EncodeGold(t.Context(), &buf, v, 0); err != nil {
			t.Fatal(err)
		}

		want := `{a: [1, 2], b: {}, "c d": "\$"}` + "\n"
		if buf.String() != want {
			t.Errorf("EncodeGold() = %q, want %q", buf.String(), want)
		}
	})

	t.Run("indented_round_trip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := EncodeGold(t.Context(), &buf, v, 2); err != nil {
			t.Fatal(err)
		}

		want := "{\n  a: [\n    1,\n    2,\n  ],\n  b: {},\n  \"c d\": \"\\$\",\n}\n"
		if buf.String() != want {
			t.Errorf("EncodeGold() = %q, want %q", buf.String(), want)
		}

		back := mustEval(t, buf.String())
		if !back.StrictEqual(v) {
			t.Errorf("re-evaluated = %v, want %v", back, v)
		}
	})
}

func TestToJSON_Errors(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 80)

	tests := []struct {
		name string
		v    Value
		want func(error) bool
	}{
		{"big_integer", BigInt(huge), is(ErrTooLarge)},
		{"function", mustEval(t, "|x| x"), isMismatch(MismatchJSON)},
		{"nested_builtin", NewList(mustLookup(t, "len")), isMismatch(MismatchJSON)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ToJSON(tt.v); !tt.want(err) {
				t.Errorf("ToJSON() error = %v", err)
			}

			var buf bytes.Buffer
			if err := EncodeJSON(t.Context(), &buf, tt.v, 0); err == nil || buf.Len() > 0 {
				t.Errorf("EncodeJSON() wrote %q, err = %v", buf.String(), err)
			}
		})
	}
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"string", "x", `"x"`},
		{"int32", int32(-3), "-3"},
		{"uint64_max", uint64(1<<64 - 1), "18446744073709551615"},
		{"uint_small", uint(7), "7"},
		{"float32", float32(0.5), "0.5"},
		{"slice", []int{1, 2}, "[1, 2]"},
		{"nil_slice", []string(nil), "[]"},
		{"array", [2]bool{true, false}, "[true, false]"},
		{"sorted_map", map[string]any{"b": 1, "a": []any{nil, "s"}}, `{a: [null, "s"], b: 1}`},
		{"object", Object{{"z", int64(1)}, {"a", 2.5}}, "{z: 1, a: 2.5}"},
		{"pointer", new(int), "0"},
		{"nil_pointer", (*int)(nil), "null"},
		{"value", Int(9), "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := FromGo(tt.in)
			if err != nil {
				t.Fatalf("FromGo() error = %v", err)
			}

			if v.String() != tt.want {
				t.Errorf("FromGo() = %s, want %s", v, tt.want)
			}
		})
	}
}

func TestFromGo_Unsupported(t *testing.T) {
	for name, in := range map[string]any{
		"int_keys": map[int]int{1: 1},
		"channel":  make(chan int),
		"func":     func() {},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var ve ValueError
			if _, err := FromGo(in); !errors.As(err, &ve) || ve.Kind != ValueConvert {
				t.Errorf("FromGo() error = %v, want conversion error", err)
			}
		})
	}
}

func TestToJSON_FromGo(t *testing.T) {
	t.Parallel()

	v := mustEval(t, `{name: "gold", ports: [80, 443], tls: {enabled: true, ratio: 0.5}, none: null}`)

	doc, err := ToJSON(v)
	if err != nil {
		t.Fatal(err)
	}

	back, err := FromGo(doc)
	if err != nil {
		t.Fatal(err)
	}

	if !back.StrictEqual(v) {
		t.Errorf("FromGo(ToJSON(v)) = %v, want %v", back, v)
	}
}
