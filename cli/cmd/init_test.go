package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/gold/lang"
)

type initFlags struct {
	Name    string `default:"gold"`
	Level   string `default:"info"`
	Depth   int    `default:"3"`
	Verbose bool   `default:"true"`
	Tags    []string
	Secret  string `default:"x"    hidden:""`
}

func initContext(t *testing.T, confPath string) context.Context {
	t.Helper()

	var cli initFlags

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(t.Context(), ktx)
}

func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		force    bool
		existing bool
		wantErr  error
	}{
		{"create", false, false, nil},
		{"overwrite with force", true, true, nil},
		{"exists without force", false, true, ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "nested", "config.gold")

			if tt.existing {
				if err := os.MkdirAll(filepath.Dir(confPath), 0o700); err != nil {
					t.Fatal(err)
				}

				if err := os.WriteFile(confPath, []byte("{}"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			err := (&Init{Force: tt.force}).Run(initContext(t, confPath))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() error = %v", err)
			}

			v, err := lang.EvalFile(t.Context(), confPath)
			if err != nil {
				t.Fatalf("generated config does not evaluate: %v", err)
			}

			m, ok := v.Map()
			if !ok {
				t.Fatalf("generated config = %v, want map", v)
			}

			want := map[string]string{
				"name":    `"gold"`,
				"level":   `"info"`,
				"depth":   "3",
				"verbose": "true",
			}

			if m.Len() != len(want) {
				t.Errorf("generated config = %v, want %d entries", v, len(want))
			}

			for k, s := range want {
				if x, ok := m.Lookup(k); !ok || x.String() != s {
					t.Errorf("config[%s] = %v, want %s", k, x, s)
				}
			}
		})
	}
}

func TestConfigObject_Order(t *testing.T) {
	t.Parallel()

	ktx := kongContextFrom(initContext(t, "unused"))

	var keys []string
	for _, m := range configObject(ktx) {
		keys = append(keys, m.Key)
	}

	want := []string{"name", "level", "depth", "verbose"}
	if len(keys) != len(want) {
		t.Fatalf("configObject() keys = %q, want %q", keys, want)
	}

	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("configObject() keys = %q, want %q", keys, want)

			break
		}
	}
}
