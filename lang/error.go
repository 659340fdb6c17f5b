package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Location identifies a span of source text by byte offset, 1-based line
// number, and byte length.
type Location struct {
	Offset int
	Line   int
	Length int
}

// Span returns the smallest location covering both l and r, assuming l
// starts no later than r.
func Span(l, r Location) Location {
	return Location{
		Offset: l.Offset,
		Line:   l.Line,
		Length: r.Offset + r.Length - l.Offset,
	}
}

// End returns the offset immediately following the location.
func (l Location) End() int { return l.Offset + l.Length }

// Action describes what the evaluator was doing when an error passed through
// a location.
type Action int

const (
	ActionAssign Action = iota
	ActionBind
	ActionEvaluate
	ActionFormat
	ActionImport
	ActionIterate
	ActionLookupName
	ActionParse
	ActionSlurp
	ActionSplat
)

func (a Action) String() string {
	switch a {
	case ActionAssign:
		return "assigning"
	case ActionBind:
		return "pattern matching"
	case ActionEvaluate, ActionLookupName:
		return "evaluating"
	case ActionFormat:
		return "interpolating"
	case ActionImport:
		return "importing"
	case ActionIterate:
		return "iterating"
	case ActionParse:
		return "parsing"
	case ActionSlurp:
		return "slurping"
	case ActionSplat:
		return "splatting"
	default:
		return "Action(" + strconv.Itoa(int(a)) + ")"
	}
}

// Frame is one entry of an error's context stack.
type Frame struct {
	Loc    Location
	Action Action
}

// Reason is the cause of an [Error]. The set of reasons is closed; every
// reason type in this package implements it.
type Reason interface {
	error
	reason()
}

// Error is the error type returned by parsing and evaluation. It carries a
// reason and a stack of (location, action) frames accumulated while the error
// propagates outward, innermost first.
type Error struct {
	reason   Reason
	cause    error
	stack    []Frame
	rendered string
	attrs    []slog.Attr
}

// NewError creates an Error with the given reason and an empty stack.
func NewError(reason Reason) *Error {
	return &Error{reason: reason}
}

// WrapError converts any error into an *Error. An *Error anywhere in the
// chain of err is returned as-is; other errors become [ExternalError]
// reasons with err preserved as the cause.
func WrapError(err error) *Error {
	if err == nil {
		return nil
	}

	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	var r Reason
	if errors.As(err, &r) {
		return &Error{reason: r, cause: err}
	}

	return &Error{reason: ExternalError{Msg: err.Error()}, cause: err}
}

// Reason returns the cause of the error.
func (e *Error) Reason() Reason { return e.reason }

// Stack returns a copy of the error's context frames, innermost first.
func (e *Error) Stack() []Frame {
	stack := make([]Frame, len(e.stack))
	copy(stack, e.stack)

	return stack
}

// Tag appends a context frame to the stack and returns e.
func (e *Error) Tag(loc Location, action Action) *Error {
	e.stack = append(e.stack, Frame{Loc: loc, Action: action})

	return e
}

// Rendered reports whether the error has been rendered against source text.
func (e *Error) Rendered() bool { return e.rendered != "" }

// Render formats the error as a multi-line report against the source text it
// was produced from, caches the result, and returns e.
func (e *Error) Render(source string) *Error {
	e.rendered = e.RenderWith(source, RenderStyle{})

	return e
}

// Unrender drops any cached report, e.g. before re-rendering an error raised
// in an imported module against the importing source.
func (e *Error) Unrender() *Error {
	e.rendered = ""

	return e
}

// RenderStyle decorates the parts of a rendered report. Nil functions leave
// their part unchanged.
type RenderStyle struct {
	Reason func(string) string
	Source func(string) string
	Caret  func(string) string
	Trail  func(string) string
}

func (s RenderStyle) apply(f func(string) string, text string) string {
	if f == nil {
		return text
	}

	return f(text)
}

// RenderWith formats the error as a multi-line report against source,
// decorating each part with style. The report starts with the reason, and
// each frame contributes the source line containing it, a caret span clipped
// to the end of that line, and a trailing "while <action> at <line>:<col>".
func (e *Error) RenderWith(source string, style RenderStyle) string {
	var sb strings.Builder

	sb.WriteString(style.apply(style.Reason, "Error: "+e.reasonText()))

	for _, f := range e.stack {
		off := min(max(f.Loc.Offset, 0), len(source))
		bol := strings.LastIndexByte(source[:off], '\n') + 1
		col := off - bol

		eol := len(source)
		if i := strings.IndexByte(source[bol:], '\n'); i >= 0 {
			eol = bol + i
		}

		carets := max(min(off+f.Loc.Length, eol)-off, 0)

		sb.WriteByte('\n')
		sb.WriteString(style.apply(style.Source, source[bol:eol]))
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", col))
		sb.WriteString(style.apply(style.Caret, strings.Repeat("^", carets)))
		sb.WriteByte('\n')
		sb.WriteString(style.apply(style.Trail,
			"while "+f.Action.String()+" at "+
				strconv.Itoa(f.Loc.Line)+":"+strconv.Itoa(col)))
	}

	// An error raised while importing another file carries the report
	// rendered against that file.
	if inner, ok := e.cause.(*Error); ok && inner.Rendered() {
		sb.WriteByte('\n')
		sb.WriteString(inner.rendered)
	}

	return sb.String()
}

func (e *Error) reasonText() string {
	if e.reason == nil {
		return "unknown error"
	}

	return e.reason.Error()
}

// Error implements the error interface. A rendered error returns its report;
// otherwise the reason is followed by the innermost frame's position.
func (e *Error) Error() string {
	if e.rendered != "" {
		return e.rendered
	}

	msg := e.reasonText()
	if len(e.stack) > 0 {
		f := e.stack[0]
		msg += " (while " + f.Action.String() +
			" at line " + strconv.Itoa(f.Loc.Line) +
			", offset " + strconv.Itoa(f.Loc.Offset) + ")"
	}

	return msg
}

// Unwrap exposes the reason and the underlying cause, if any, to
// [errors.Is] and [errors.As].
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.reason != nil {
		errs = append(errs, e.reason)
	}

	if e.cause != nil {
		errs = append(errs, e.cause)
	}

	return errs
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	attrs = append(attrs, slog.String("error", e.reasonText()))

	if len(e.stack) > 0 {
		f := e.stack[0]
		attrs = append(attrs,
			slog.String("action", f.Action.String()),
			slog.Int("line", f.Loc.Line),
			slog.Int("depth", len(e.stack)),
		)
	}

	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		reason:   e.reason,
		cause:    e.cause,
		stack:    e.Stack(),
		rendered: e.rendered,
		attrs:    newAttrs,
	}
}

// asError converts err into an *Error without copying an existing one.
func asError(err error) *Error {
	if ee, ok := err.(*Error); ok {
		return ee
	}

	return WrapError(err)
}

// tag is a convenience for tagging an arbitrary error.
func tag(err error, loc Location, action Action) *Error {
	return asError(err).Tag(loc, action)
}
