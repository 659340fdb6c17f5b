package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func decodeRecord(t *testing.T, line []byte) map[string]any {
	t.Helper()

	var rec map[string]any
	if err := json.Unmarshal(line, &rec); err != nil {
		t.Fatalf("record %q: %v", line, err)
	}

	return rec
}

func TestLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false), WithLevel(LevelTrace), WithTimeLayout("none"))
	l.TraceContext(t.Context(), "cache miss", slog.String("path", "lib.gold"), slog.Int("n", 2))

	rec := decodeRecord(t, buf.Bytes())

	if rec["level"] != "TRACE" || rec["msg"] != "cache miss" ||
		rec["path"] != "lib.gold" || rec["n"] != float64(2) {
		t.Errorf("record = %v", rec)
	}

	if _, ok := rec["time"]; ok {
		t.Errorf("record has a timestamp: %v", rec)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false), WithFormat(FormatText), WithLevel(LevelWarn))

	l.Trace("trace message")
	l.Debug("debug message")
	l.Info("info message")

	if buf.Len() != 0 {
		t.Errorf("records below warn written: %q", buf.String())
	}

	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	for _, want := range []string{"level=WARN", "warn message", "level=ERROR", "error message"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestLogger_Caller(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	Make(&buf, WithPretty(false), WithCaller(true)).Info("here")

	rec := decodeRecord(t, buf.Bytes())

	src, ok := rec["source"].(map[string]any)
	if !ok {
		t.Fatalf("record has no source: %v", rec)
	}

	if file, _ := src["file"].(string); !strings.HasSuffix(file, "log_test.go") {
		t.Errorf("source file = %q, want log_test.go", file)
	}
}

func TestLogger_WithAndWrap(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false)).With(slog.String("component", "store"))
	l.Info("opened")

	if rec := decodeRecord(t, buf.Bytes()); rec["component"] != "store" {
		t.Errorf("record = %v, want component attribute", rec)
	}

	buf.Reset()

	w := l.Wrap(WithFormat(FormatText))
	w.Info("text record")

	if out := buf.String(); !strings.Contains(out, "msg=\"text record\"") {
		t.Errorf("wrapped output = %q", out)
	}

	if l.format != FormatJSON || w.format != FormatText {
		t.Error("Wrap modified the original logger")
	}
}

func TestLogger_Pretty(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer

	Make(&text, WithFormat(FormatText), WithTimeLayout("none")).
		Info("evaluated", slog.String("path", "a.gold"), slog.Bool("cached", true))

	if got := text.String(); got != "info evaluated path=a.gold cached=true\n" {
		t.Errorf("pretty text = %q", got)
	}

	Make(&js, WithFormat(FormatJSON), WithTimeLayout("none")).
		With(slog.String("component", "repl")).
		Warn("history", slog.Group("file", slog.Int("entries", 3)))

	rec := decodeRecord(t, js.Bytes())

	group, _ := rec["file"].(map[string]any)
	if rec["level"] != "warn" || rec["component"] != "repl" || group["entries"] != float64(3) {
		t.Errorf("pretty json = %s", js.String())
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	t.Parallel()

	var l Logger

	l.Info("discarded")
	l.ErrorContext(context.Background(), "discarded")

	if w := l.With(slog.String("k", "v")); w.Logger != nil {
		t.Error("With on zero Logger returned a live logger")
	}
}

func TestLogger_Concurrent(t *testing.T) {
	t.Parallel()

	var (
		buf bytes.Buffer
		wg  sync.WaitGroup
	)

	l := Make(&syncWriter{w: &buf}, WithPretty(false), WithFormat(FormatText))

	for i := range 16 {
		wg.Go(func() {
			l.With(slog.Int("worker", i)).Info("working")
		})
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 16 {
		t.Errorf("wrote %d records, want 16", n)
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}
