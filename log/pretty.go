package log

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by the pretty handlers. Styles are bound to
// a renderer for the handler's writer, so color is dropped automatically when
// the writer is not a terminal.
type palette struct {
	key      lipgloss.Style
	str      lipgloss.Style
	num      lipgloss.Style
	yes      lipgloss.Style
	no       lipgloss.Style
	duration lipgloss.Style
	time     lipgloss.Style
	null     lipgloss.Style
	message  lipgloss.Style
	level    map[Level]lipgloss.Style
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:      fg("8"),
		str:      fg("6"),
		num:      fg("3"),
		yes:      fg("2"),
		no:       fg("1"),
		duration: fg("5"),
		time:     fg("4"),
		null:     fg("8"),
		message:  r.NewStyle().Bold(true),
		level: map[Level]lipgloss.Style{
			LevelTrace: fg("8"),
			LevelDebug: fg("4"),
			LevelInfo:  fg("2"),
			LevelWarn:  fg("3"),
			LevelError: fg("1").Bold(true),
		},
	}
}

func (p palette) levelStyle(level slog.Level) lipgloss.Style {
	switch l := Level(level); {
	case l >= LevelError:
		return p.level[LevelError]
	case l >= LevelWarn:
		return p.level[LevelWarn]
	case l >= LevelInfo:
		return p.level[LevelInfo]
	case l >= LevelDebug:
		return p.level[LevelDebug]
	default:
		return p.level[LevelTrace]
	}
}

// recordTime formats the record time with the configured layout, or returns
// false if timestamps are disabled.
func recordTime(opts *slog.HandlerOptions, t time.Time) (string, bool) {
	if t.IsZero() {
		return "", false
	}

	a := slog.Time(slog.TimeKey, t)
	if opts.ReplaceAttr != nil {
		a = opts.ReplaceAttr(nil, a)
	}

	if a.Key == "" {
		return "", false
	}

	if a.Value.Kind() == slog.KindTime {
		return a.Value.Time().Format(time.RFC3339), true
	}

	return a.Value.String(), true
}

// recordSource returns the "file:line" of the record's caller.
func recordSource(opts *slog.HandlerOptions, r slog.Record) (string, bool) {
	if !opts.AddSource {
		return "", false
	}

	src := r.Source()
	if src == nil || src.File == "" {
		return "", false
	}

	return src.File + ":" + strconv.Itoa(src.Line), true
}

// prettyTextHandler implements a colorized single-line text handler. Groups
// are flattened into dotted keys.
type prettyTextHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	style  palette
	preset []byte // attrs added with WithAttrs, already formatted
	prefix string // dotted group path
}

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyTextHandler {
	return &prettyTextHandler{
		opts:  *opts,
		mu:    &sync.Mutex{},
		w:     w,
		style: makePalette(w),
	}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if ts, ok := recordTime(&h.opts, r.Time); ok {
		buf.WriteString(h.style.time.Render(ts))
		buf.WriteByte(' ')
	}

	buf.WriteString(h.style.levelStyle(r.Level).Render(
		strings.ToLower(Level(r.Level).String())))

	if src, ok := recordSource(&h.opts, r); ok {
		buf.WriteByte(' ')
		buf.WriteString(h.style.key.Render(src))
	}

	buf.WriteByte(' ')
	buf.WriteString(h.style.message.Render(r.Message))

	buf.Write(h.preset)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, h.prefix, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	buf := bytes.NewBuffer(bytes.Clone(h.preset))

	for _, a := range attrs {
		h.writeAttr(buf, h.prefix, a)
	}

	c := *h
	c.preset = buf.Bytes()

	return &c
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, group, ga)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(h.style.key.Render(prefix + a.Key + "="))
	buf.WriteString(h.value(a.Value))
}

func (h *prettyTextHandler) value(v slog.Value) string {
	p := h.style

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(v.String())

	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")

	case slog.KindDuration:
		return p.duration.Render(v.Duration().String())

	case slog.KindTime:
		return p.time.Render(v.Time().Format(time.RFC3339Nano))

	default:
		if level, ok := v.Any().(slog.Level); ok {
			return p.levelStyle(level).Render(Level(level).String())
		}

		if v.Any() == nil {
			return p.null.Render("null")
		}

		return p.str.Render(v.String())
	}
}

// prettyJSONHandler implements an indented, colorized JSON-like handler.
// Groups are written as nested objects.
type prettyJSONHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	style  palette
	groups []string
	preset [][]slog.Attr // preset[i] holds attrs added inside groups[:i]
}

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyJSONHandler {
	return &prettyJSONHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		style:  makePalette(w),
		preset: make([][]slog.Attr, 1),
	}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	top := make([]slog.Attr, 0, 4)

	if ts, ok := recordTime(&h.opts, r.Time); ok {
		top = append(top, slog.String(slog.TimeKey, ts))
	}

	top = append(top, slog.Any(slog.LevelKey, r.Level))

	if src, ok := recordSource(&h.opts, r); ok {
		top = append(top, slog.String(slog.SourceKey, src))
	}

	top = append(top, slog.String(slog.MessageKey, r.Message))

	n := len(h.groups)
	attrs := append([]slog.Attr(nil), h.preset[n]...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	for i := n - 1; i >= 0; i-- {
		group := slog.Attr{Key: h.groups[i], Value: slog.GroupValue(attrs...)}
		attrs = append(append([]slog.Attr(nil), h.preset[i]...), group)
	}

	buf := new(bytes.Buffer)
	h.writeObject(buf, append(top, attrs...), 1)
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.preset = append([][]slog.Attr(nil), h.preset...)

	n := len(h.groups)
	c.preset[n] = append(h.preset[n][:len(h.preset[n]):len(h.preset[n])], attrs...)

	return &c
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	c.preset = append(h.preset[:len(h.preset):len(h.preset)], nil)

	return &c
}

func (h *prettyJSONHandler) writeObject(buf *bytes.Buffer, attrs []slog.Attr, depth int) {
	buf.WriteString("{")

	first := true

	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			continue
		}

		if !first {
			buf.WriteByte(',')
		}

		first = false

		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("  ", depth))
		buf.WriteString(h.style.key.Render(strconv.Quote(a.Key)))
		buf.WriteString(": ")

		if a.Value.Kind() == slog.KindGroup {
			h.writeObject(buf, a.Value.Group(), depth+1)

			continue
		}

		buf.WriteString(h.value(a.Value))
	}

	if !first {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat("  ", depth-1))
	}

	buf.WriteString("}")
}

func (h *prettyJSONHandler) value(v slog.Value) string {
	p := h.style

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(strconv.Quote(v.String()))

	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")

	case slog.KindDuration:
		return p.duration.Render(strconv.Quote(v.Duration().String()))

	case slog.KindTime:
		return p.time.Render(strconv.Quote(v.Time().Format(time.RFC3339Nano)))

	default:
		if level, ok := v.Any().(slog.Level); ok {
			return p.levelStyle(level).Render(strconv.Quote(Level(level).String()))
		}

		if v.Any() == nil {
			return p.null.Render("null")
		}

		if err, ok := v.Any().(error); ok {
			return p.str.Render(strconv.Quote(err.Error()))
		}

		data, err := json.Marshal(v.Any())
		if err != nil {
			return p.str.Render(strconv.Quote(v.String()))
		}

		return p.str.Render(string(data))
	}
}
