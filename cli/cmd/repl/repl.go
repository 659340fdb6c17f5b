package repl

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/log"
)

// inputMode selects how a submitted line is handled: evaluated as gold, or
// run as a REPL command.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

var prompt = [...]string{modeEval: "➜ ", modeCtrl: " :"}

// resultName is bound to the value of the last input that produced one.
const resultName = "_"

const helpText = `
: Commands (press Esc to toggle mode):

  help     Print this cruft
  list     List the names bound in the session
  edit     Edit the session inputs in external $EDITOR
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type an expression to evaluate it, or bind names for later inputs with
    let x = 1  or  import "sys" as sys
  The last value is bound to _
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

var (
	promptStyle = [...]lipgloss.Style{
		modeEval: fg("6").Bold(true),
		modeCtrl: fg("5").Bold(true),
	}
	inputStyle      = fg("15")
	resultStyle     = fg("2")
	errorStyle      = fg("1")
	hintStyle       = fg("8")
	suggestionStyle = fg("4")
	selectedStyle   = fg("0").Background(lipgloss.Color("4"))
	caretStyle      = fg("3").Bold(true)
)

// errorRender styles rendered evaluation errors.
var errorRender = lang.RenderStyle{
	Reason: styled(errorStyle.Bold(true)),
	Caret:  styled(caretStyle),
	Trail:  styled(hintStyle),
}

func styled(s lipgloss.Style) func(string) string {
	return func(str string) string { return s.Render(str) }
}

// echo returns input as it is printed above the prompt once submitted.
func echo(mode inputMode, input string) string {
	return promptStyle[mode].Render(prompt[mode]) + inputStyle.Render(input)
}

// formatError renders err for the input that caused it.
func formatError(input string, err error) string {
	var le *lang.Error
	if errors.As(err, &le) {
		return le.RenderWith(input, errorRender)
	}

	return errorStyle.Render("error: " + err.Error())
}

// Config configures a REPL.
type Config struct {
	// Source, if not nil, is evaluated before the first prompt. The entries
	// of a map it evaluates to are bound in the session.
	Source io.Reader
	// History is the path of the history file; empty disables persistence.
	History string
	Logger  log.Logger
	Options []lang.Option
}

// Run starts the REPL and blocks until the user exits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer func() { cancel(err) }()

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("history", cfg.History),
		slog.Bool("has_source", cfg.Source != nil))

	session := lang.NewSession(cfg.Options...)

	if cfg.Source != nil {
		if err := preload(ctx, session, cfg.Source); err != nil {
			return err
		}

		cfg.Logger.TraceContext(ctx, "repl source loaded",
			slog.Int("name_count", len(session.Names())))
	}

	history := NewHistory(cfg.History)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	cfg.Logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()))

	_, err = tea.NewProgram(
		newModel(ctx, session, history, cfg),
		tea.WithContext(ctx),
	).Run()

	return err
}

// preload evaluates the source read from r in s, binding the entries of a
// map result.
func preload(ctx context.Context, s *lang.Session, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	v, err := s.Eval(ctx, string(data))
	if err != nil {
		return err
	}

	m, ok := v.Map()
	if !ok {
		return nil
	}

	for k, x := range m.All() {
		if err := s.Define(k.String(), x); err != nil {
			return err
		}
	}

	return nil
}

// evalInput evaluates one input in s and binds its value, unless null, to
// [resultName].
func evalInput(ctx context.Context, s *lang.Session, input string) (lang.Value, error) {
	v, err := s.Eval(ctx, input)
	if err != nil {
		return lang.Value{}, err
	}

	if !v.IsNull() {
		if err := s.Define(resultName, v); err != nil {
			return lang.Value{}, err
		}
	}

	return v, nil
}

// isDefinition reports whether input starts with a binding keyword.
func isDefinition(input string) bool {
	word, _, _ := wordBounds(input, 0)

	return word == "let" || word == "import"
}
