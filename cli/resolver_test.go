package cli

import (
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	val, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", name, err)
	}

	return val
}

func TestLoadGold(t *testing.T) {
	t.Parallel()

	const src = `import "sys" as sys
let level = "debug" in {
  log: {level: level, pretty: false},
  "max-depth": 64,
  import_path: ["a", sys.path.cat("b", "c")],
  ratio: 0.5,
}`

	r, err := loadGold(t.Context())(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log-pretty", false},
		{"max-depth", "64"},
		{"import-path", []any{"a", "b/c"}},
		{"ratio", "0.5"},
		{"missing", nil},
		{"log", nil},
	}

	for _, tt := range tests {
		got := resolveFlag(t, r, tt.flag)

		if list, ok := tt.want.([]any); ok {
			if gotList, ok := got.([]any); !ok || !slices.Equal(gotList, list) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.flag, got, tt.want)
			}

			continue
		}

		if got != tt.want {
			t.Errorf("Resolve(%q) = %#v, want %#v", tt.flag, got, tt.want)
		}
	}
}

func TestLoadGold_Ignored(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"{log: }",
		"[1, 2]",
		`import "std" as std
{}`,
		"{a: missing}",
	} {
		r, err := loadGold(t.Context())(strings.NewReader(src))
		if err != nil {
			t.Errorf("loadGold(%q) error = %v", src, err)

			continue
		}

		if c, ok := r.(config); !ok || len(c) != 0 {
			t.Errorf("loadGold(%q) = %v, want empty config", src, r)
		}
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	const src = `
log:
  level: warn
  caller: true
max-depth: 32
import-path:
  - /etc/gold
  - lib
`

	r, err := loadYAML(t.Context())(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}

	if got := resolveFlag(t, r, "log-level"); got != "warn" {
		t.Errorf("log-level = %v, want warn", got)
	}

	if got := resolveFlag(t, r, "log-caller"); got != true {
		t.Errorf("log-caller = %v, want true", got)
	}

	if got := resolveFlag(t, r, "max-depth"); got != "32" {
		t.Errorf("max-depth = %#v, want \"32\"", got)
	}

	got, ok := resolveFlag(t, r, "import-path").([]any)
	if !ok || !slices.Equal(got, []any{"/etc/gold", "lib"}) {
		t.Errorf("import-path = %v", got)
	}

	r, err = loadYAML(t.Context())(strings.NewReader("log: [unclosed"))
	if err != nil {
		t.Fatal(err)
	}

	if c, ok := r.(config); !ok || len(c) != 0 {
		t.Errorf("loadYAML(invalid) = %v, want empty config", r)
	}
}

func TestConfig_Flatten(t *testing.T) {
	t.Parallel()

	c := makeConfig(map[string]any{
		"b": map[string]any{"y": 1, "x": map[string]any{"deep": "v"}},
		"a": int64(-3),
		"f": 1.25,
	})

	want := config{
		"a":        "-3",
		"b-x-deep": "v",
		"b-y":      "1",
		"f":        "1.25",
	}

	if !maps.Equal(c, want) {
		t.Errorf("makeConfig() = %v, want %v", c, want)
	}

	if got := makeConfig("scalar"); len(got) != 0 {
		t.Errorf("makeConfig(scalar) = %v, want empty", got)
	}
}

func TestConfig_UnderscoreFallback(t *testing.T) {
	t.Parallel()

	c := config{"log_level": "debug", "max-depth": "8"}

	if got := resolveFlag(t, c, "log-level"); got != "debug" {
		t.Errorf("log-level = %v, want debug", got)
	}

	if got := resolveFlag(t, c, "max-depth"); got != "8" {
		t.Errorf("max-depth = %v, want 8", got)
	}

	if err := c.Validate(nil); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
