package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPackage_DefaultLogger(t *testing.T) {
	original := Default()
	defer func() { defaultLog = original }()

	var buf bytes.Buffer

	defaultLog = Make(&buf)
	Config(WithLevel(LevelDebug), WithPretty(false), WithFormat(FormatText), WithTimeLayout("none"))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.fn("message", slog.String("key", "value"))

		if got, want := buf.String(), "level="+tt.level+" msg=message key=value\n"; got != want {
			t.Errorf("%s() wrote %q, want %q", tt.name, got, want)
		}
	}

	buf.Reset()
	TraceContext(t.Context(), "hidden")

	if buf.Len() != 0 {
		t.Errorf("TraceContext() wrote %q below the configured level", buf.String())
	}

	Config(WithCaller(true))
	InfoContext(t.Context(), "located")

	if !strings.Contains(buf.String(), "pkg_test.go") {
		t.Errorf("InfoContext() source = %q, want pkg_test.go", buf.String())
	}
}
