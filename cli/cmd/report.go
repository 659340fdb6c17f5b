package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/gold/lang"
)

type reportKey struct{}

// WithReport returns a new context.Context directing evaluation error reports
// to w instead of standard error.
func WithReport(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, reportKey{}, w)
}

func reportFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(reportKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stderr
}

// ReportStyle returns the style used to color error reports written to w.
// Colors are dropped when w is not a terminal.
func ReportStyle(w io.Writer) lang.RenderStyle {
	r := lipgloss.NewRenderer(w)

	render := func(s lipgloss.Style) func(string) string {
		return func(text string) string { return s.Render(text) }
	}

	return lang.RenderStyle{
		Reason: render(r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)),
		Caret:  render(r.NewStyle().Foreground(lipgloss.Color("1"))),
		Trail:  render(r.NewStyle().Foreground(lipgloss.Color("8"))),
	}
}

// report writes the diagnostic report of an evaluation error against src and
// returns err wrapped for logging. Errors that did not come from the
// evaluator, or were already reported, are returned unchanged.
func report(ctx context.Context, src source, err error) error {
	var le *lang.Error
	if errors.Is(err, ErrEvaluate) || !errors.As(err, &le) {
		return err
	}

	w := reportFrom(ctx)

	fmt.Fprintln(w, le.RenderWith(src.text, ReportStyle(w)))

	return ErrEvaluate.Wrap(err).With(slog.String("path", src.path))
}
