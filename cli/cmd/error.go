package cmd

import (
	"log/slog"
	"slices"
)

// Error is a command failure: a fixed message identifying what failed, the
// cause, and attributes logged alongside it.
//
// The exported Err values are sentinels. [Error.Wrap] and [Error.With] derive
// new errors that still match their sentinel with [errors.Is].
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns a sentinel with the given message.
func NewError(msg string) *Error { return &Error{msg: msg} }

var (
	ErrEvaluate    = NewError("evaluate source")
	ErrEncode      = NewError("encode result")
	ErrWriteConfig = NewError("write configuration file")
	ErrFileExists  = NewError("file exists (use --force to overwrite)")
)

// Error returns "msg: cause", omitting whichever part is empty.
func (e *Error) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	}

	return e.msg + ": " + e.err.Error()
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	s, ok := target.(*Error)

	return ok && s.err == nil && s.msg == e.msg
}

// Wrap returns a copy of e caused by err.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With returns a copy of e with attrs appended to its attributes.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = append(slices.Clip(e.attrs), attrs...)

	return &c
}

// LogValue implements [slog.LogValuer]. A cause that is itself a
// [slog.LogValuer], such as an evaluation error, is logged structurally.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	switch cause := e.err.(type) {
	case nil:
	case slog.LogValuer:
		attrs = append(attrs, slog.Any("cause", cause))
	default:
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}
