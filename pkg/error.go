package pkg

import (
	"fmt"
	"slices"
	"strings"
)

// Error is a chain of errors, innermost first, printed joined by ": ".
// Each element matches with [errors.Is] and [errors.As].
//
// The Err values below are single-element sentinels. Wrap them with the
// underlying cause, which leaves the sentinel itself unchanged:
//
//	return pkg.ErrReadInput.Wrap(err)
//
// Errors raised while parsing or evaluating gold source are reported by
// package lang instead.
type Error []error

var (
	ErrReadInput     = MakeErrorf("failed to read input")
	ErrWriteOutput   = MakeErrorf("failed to write output")
	ErrJSONMarshal   = MakeErrorf("JSON marshal error")
	ErrYAMLMarshal   = MakeErrorf("YAML marshal error")
	ErrInvalidFormat = MakeErrorf("invalid format")
	ErrOpenStore     = MakeErrorf("failed to open value store")
	ErrStoreRead     = MakeErrorf("value store read error")
	ErrStoreWrite    = MakeErrorf("value store write error")
)

// MakeError flattens errs into a single chain. Nil errors are dropped; with
// none left, MakeError returns nil.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		e = append(e, UnwrapErrors(err)...)
	}

	return e
}

// MakeErrorf returns a chain holding one formatted error.
func MakeErrorf(format string, args ...any) Error {
	return Error{fmt.Errorf(format, args...)}
}

func (e Error) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, ": ")
}

// Wrap returns a copy of e with err appended as the outer errors.
func (e Error) Wrap(err ...error) Error {
	return append(slices.Clip(e), err...)
}

// Wrapf returns a copy of e with a formatted error appended.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

func (e Error) Unwrap() []error { return e }

// UnwrapErrors flattens the tree of errors wrapped by err, innermost first,
// ending with err itself.
func UnwrapErrors(err error) Error {
	var chain Error

	switch w := err.(type) {
	case nil:
		return nil
	case interface{ Unwrap() []error }:
		for _, inner := range w.Unwrap() {
			chain = append(chain, UnwrapErrors(inner)...)
		}
	case interface{ Unwrap() error }:
		chain = UnwrapErrors(w.Unwrap())
	}

	return append(chain, err)
}
