package cli

import (
	"os"
	"testing"

	"github.com/ardnew/gold/log"
)

func TestScanBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    string
		assigned bool
		negated  bool
		wantOn   bool
		wantOK   bool
	}{
		{"", false, false, true, true},
		{"", false, true, false, true},
		{"false", true, false, false, true},
		{"true", true, true, false, true},
		{"0", true, true, true, true},
		{"maybe", true, false, false, false},
	}

	for _, tt := range tests {
		on, ok := scanBool(tt.value, tt.assigned, tt.negated)
		if on != tt.wantOn || ok != tt.wantOK {
			t.Errorf("scanBool(%q, %t, %t) = %t, %t, want %t, %t",
				tt.value, tt.assigned, tt.negated, on, ok, tt.wantOn, tt.wantOK)
		}
	}
}

func TestLogConfig_Scan(t *testing.T) {
	t.Cleanup(func() { log.Config(log.WithDefaults(os.Stderr)) })

	var f logConfig

	f.scan([]string{
		"eval", "--log-level", "debug",
		"--log-format=json",
		"--no-log-pretty",
		"--log-caller=true",
		"--log-time-layout", "kitchen",
		"app.gold",
	})

	if f.Format != "json" || f.Pretty || !f.Caller {
		t.Errorf("scan() = %+v", f)
	}

	if f.Level != "debug" {
		t.Errorf("Level = %q, want debug", f.Level)
	}

	if f.TimeLayout != "" {
		t.Errorf("TimeLayout = %q, want unscanned", f.TimeLayout)
	}
}
