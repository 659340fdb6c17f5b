package log

import (
	"bytes"
	"slices"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"Info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"debug+2", LevelDebug + 2},
		{"verbose", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevels(t *testing.T) {
	t.Parallel()

	want := []string{"trace", "debug", "info", "warn", "error"}
	if got := slices.Collect(Levels()); !slices.Equal(got, want) {
		t.Errorf("Levels() = %q, want %q", got, want)
	}

	for _, name := range want {
		if got := ParseLevel(name).String(); got != name {
			t.Errorf("ParseLevel(%q).String() = %q", name, got)
		}
	}

	if got := (LevelInfo + 2).String(); got != "info+2" {
		t.Errorf("(LevelInfo + 2).String() = %q, want info+2", got)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{" JSON ", FormatJSON},
		{"text", FormatText},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for name := range Formats() {
		if got := ParseFormat(name).String(); got != name {
			t.Errorf("ParseFormat(%q).String() = %q", name, got)
		}
	}

	if got := Format(7).String(); got != "format(7)" {
		t.Errorf("Format(7).String() = %q", got)
	}
}

func TestMakeFormatTimeFunc(t *testing.T) {
	t.Parallel()

	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2023-10-15T14:30:45Z"},
		{"rfc-3339-nano", "2023-10-15T14:30:45.123456789Z"},
		{"Kitchen", "2:30PM"},
		{"ms", "Oct 15 14:30:45.123"},
		{"2006/01/02", "2023/10/15"},
		{"", ""},
		{"  ", ""},
		{"none", ""},
	}

	for _, tt := range tests {
		if got := makeFormatTimeFunc(tt.layout)(now); got != tt.want {
			t.Errorf("layout %q: got %q, want %q", tt.layout, got, tt.want)
		}
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	base := makeConfig(&buf)
	if base.level != DefaultLevel || base.format != DefaultFormat ||
		base.caller != DefaultCaller || base.pretty != DefaultPretty {
		t.Fatalf("makeConfig() = %+v, want defaults", base)
	}

	c := apply(base,
		WithLevel(LevelTrace),
		WithFormat(FormatText),
		WithCaller(true),
		WithPretty(false),
		WithOutput(nil),
	)

	if c.level != LevelTrace || c.format != FormatText || !c.caller || c.pretty {
		t.Errorf("options not applied: %+v", c)
	}

	if base.level != DefaultLevel || base.output != &buf {
		t.Error("options modified the original config")
	}

	if c.output == nil {
		t.Error("WithOutput(nil) left a nil writer")
	}

	if d := apply(c, WithDefaults(&buf)); d.level != DefaultLevel || d.output != &buf {
		t.Errorf("WithDefaults() = %+v", d)
	}
}
