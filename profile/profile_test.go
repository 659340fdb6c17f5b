package profile

import (
	"context"
	"slices"
	"testing"
)

func TestSettings_Enabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode string
		want bool
	}{
		{"", false},
		{"bogus", false},
		{"cpu", slices.Contains(Modes(), "cpu")},
	}

	for _, tt := range tests {
		if got := (Settings{Mode: tt.mode}).Enabled(); got != tt.want {
			t.Errorf("Settings{Mode: %q}.Enabled() = %t, want %t", tt.mode, got, tt.want)
		}
	}
}

func TestSettings_StartDisabled(t *testing.T) {
	t.Parallel()

	stop := Settings{Mode: "bogus", Dir: t.TempDir()}.Start()
	if stop == nil {
		t.Fatal("Start() returned nil")
	}

	stop()
}

func TestDo(t *testing.T) {
	t.Parallel()

	type key struct{}

	ctx := context.WithValue(t.Context(), key{}, "v")

	called := false

	Do(ctx, "eval", func(ctx context.Context) {
		called = ctx.Value(key{}) == "v"
	})

	if !called {
		t.Error("Do() did not call fn with the derived context")
	}
}
