package cmd

import (
	"errors"
	"log/slog"
	"testing"
)

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := ErrWriteConfig.Wrap(cause).With(slog.String("path", "/tmp/x"))

	if got, want := err.Error(), "write configuration file: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, cause) {
		t.Error("wrapped error does not match its sentinel and cause")
	}

	if errors.Is(err, ErrEncode) || errors.Is(ErrWriteConfig, err) {
		t.Error("matched an unrelated error")
	}

	if ErrWriteConfig.err != nil || len(ErrWriteConfig.attrs) != 0 {
		t.Error("Wrap or With modified the sentinel")
	}

	if got := NewError("").Wrap(cause).Error(); got != "disk full" {
		t.Errorf("Error() without message = %q", got)
	}

	attrs := err.LogValue().Group()
	if len(attrs) != 3 || attrs[0].Value.String() != "write configuration file" ||
		attrs[1].Value.String() != "disk full" || attrs[2].Key != "path" {
		t.Errorf("LogValue() = %v", attrs)
	}
}
