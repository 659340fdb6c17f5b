package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/log"
)

// Messages delivered when the external editor returns.
type (
	editDoneMsg struct {
		session    *lang.Session
		transcript []string
	}
	editCancelledMsg struct{}
	editDeclinedMsg  struct{}
	editErrorMsg     struct{ err error }
)

// buffer is the text and cursor of an input line.
type buffer struct {
	text   string
	cursor int
}

// completion is the state of the candidate bar.
type completion struct {
	matches    fuzzy.Matches
	start, end int // bounds of the word being completed
	selected   int // index into matches while cycling, else -1
	cycling    bool
	saved      buffer // input before cycling began
}

// recall is the state saved on entering command history with Alt+Up/Down,
// restored when navigation runs off either end.
type recall struct {
	mode inputMode
	buffer
}

type model struct {
	ctxFunc    func() context.Context
	keys       keyMap
	input      textinput.Model
	session    *lang.Session
	opts       []lang.Option
	logger     log.Logger
	transcript []string // inputs evaluated without error, in order
	history    *History
	pos        int // history entry shown, or history.Len() for new input
	comp       completion
	recall     *recall
	parked     [2]buffer // input of the inactive mode
	mode       inputMode
	width      int
	quitting   bool
}

const defaultWidth = 80

func newModel(ctx context.Context, session *lang.Session, history *History, cfg Config) model {
	ti := textinput.New()
	ti.Prompt = promptStyle[modeEval].Render(prompt[modeEval])
	ti.CharLimit = 1024
	ti.Width = defaultWidth
	ti.Focus()

	return model{
		ctxFunc: func() context.Context { return ctx },
		keys:    defaultKeyMap(),
		input:   ti,
		session: session,
		opts:    cfg.Options,
		logger:  cfg.Logger,
		history: history,
		pos:     history.Len(),
		comp:    completion{selected: -1},
		width:   defaultWidth,
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(prompt[modeEval]) - 2

		return m, nil

	case editDoneMsg:
		m.session, m.transcript = msg.session, msg.transcript
		m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
			slog.Int("input_count", len(m.transcript)))

		return m, tea.Println(resultStyle.Render("✔ session replayed"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return m.input.View() + "\n" + m.statusLine() + "\n"
}

// statusLine is the line below the prompt: the history position, a usage
// hint, the signature of the enclosing call, or the candidate bar.
func (m model) statusLine() string {
	text := m.input.Value()

	if m.pos < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.pos+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(text) == "" {
		if m.mode == modeCtrl {
			return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
		}

		return hintStyle.Render("Type an expression or press Esc for commands")
	}

	if call := detectFunctionCall(text, m.input.Position()); call.inCall &&
		m.mode == modeEval && len(m.comp.matches) == 0 {
		sig, params := getSignature(m.session, call.name)

		return renderSignatureHint(sig, params, call.argIndex)
	}

	return m.renderCandidateBar()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()))

	k := m.keys
	empty := m.input.Value() == ""

	switch {
	case key.Matches(msg, k.Interrupt) && empty, key.Matches(msg, k.EOF) && empty:
		m.quitting = true

		return m, tea.Quit

	case key.Matches(msg, k.Interrupt):
		m.input.SetValue("")
		m.comp.cycling = false
		m.recall = nil
		m.pos = m.history.Len()
		m.refresh(false)

		return m, nil

	case key.Matches(msg, k.EOF):
		return m, nil

	case key.Matches(msg, k.Submit):
		m.recall = nil
		if m.comp.cycling && len(m.comp.matches) > 0 {
			// Enter keeps the selected candidate without submitting.
			m.comp.cycling = false
			m.refresh(true)

			return m, nil
		}

		return m.submit()

	case key.Matches(msg, k.NextMatch):
		return m.cycle(1), nil

	case key.Matches(msg, k.PrevMatch):
		return m.cycle(-1), nil

	case key.Matches(msg, k.OlderCtrl):
		return m.recallCtrl(-1), nil

	case key.Matches(msg, k.NewerCtrl):
		return m.recallCtrl(1), nil

	case key.Matches(msg, k.Older):
		return m.older(), nil

	case key.Matches(msg, k.Newer):
		return m.newer(), nil

	case key.Matches(msg, k.OlderMode):
		return m.stepInMode(-1), nil

	case key.Matches(msg, k.NewerMode):
		return m.stepInMode(1), nil

	case key.Matches(msg, k.ToggleMode):
		if m.comp.cycling {
			m.comp.cycling = false
			m.setInput(m.comp.saved)
			m.refresh(false)

			return m, nil
		}

		m.recall = nil

		return m.switchMode(1 - m.mode), nil
	}

	typed := msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace
	if !typed || key.Matches(msg, k.Accept) {
		m.comp.cycling = false
	}

	if !typed {
		m.recall = nil
	}

	var cmd tea.Cmd

	m.pos = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh(typed)

	return m, cmd
}

func (m *model) setInput(b buffer) {
	m.input.SetValue(b.text)
	m.input.SetCursor(b.cursor)
}

func (m model) current() buffer {
	return buffer{text: m.input.Value(), cursor: m.input.Position()}
}

// cycle completes the current word with the next candidate in direction
// step. A sole candidate is completed and confirmed.
func (m model) cycle(step int) model {
	n := len(m.comp.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		m.complete(m.comp.matches[0].Str)

		return m

	case m.comp.cycling:
		m.comp.selected = (m.comp.selected + step + n) % n

	default:
		m.comp.cycling = true
		m.comp.saved = m.current()

		m.comp.selected = 0
		if step < 0 {
			m.comp.selected = n - 1
		}
	}

	m.replaceWord(m.comp.matches[m.comp.selected].Str)

	return m
}

// complete replaces the current word with s and closes the candidate bar.
func (m *model) complete(s string) {
	m.replaceWord(s)
	m.comp.cycling = false
	m.comp.selected = -1
	m.comp.matches = nil
}

// replaceWord replaces the word being completed with s and moves the cursor
// after it.
func (m *model) replaceWord(s string) {
	text := m.input.Value()
	end := m.comp.start + len(s)

	m.input.SetValue(text[:m.comp.start] + s + text[m.comp.end:])
	m.input.SetCursor(end)

	m.comp.end = end
}

// refresh recomputes the candidates for the input. With confirm set, a word
// that already equals its sole candidate is completed, which is wanted after
// typing but not after deleting or moving the cursor.
func (m *model) refresh(confirm bool) {
	m.comp.matches, m.comp.start, m.comp.end = m.computeMatches()

	if !m.comp.cycling {
		m.comp.selected = -1
	}

	if confirm && len(m.comp.matches) == 1 {
		if only := m.comp.matches[0].Str; m.input.Value()[m.comp.start:m.comp.end] == only {
			m.complete(only)
		}
	}
}

func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.parked = [2]buffer{}
	m.input.SetValue("")

	_ = m.history.Add(input, m.mode)
	m.pos = m.history.Len()

	if m.mode == modeCtrl {
		return m.command(input)
	}

	ctx := m.ctxFunc()
	shown := tea.Println(echo(modeEval, input))

	m.logger.TraceContext(ctx, "repl eval", slog.String("input", input))

	result, err := evalInput(ctx, m.session, input)
	if err != nil {
		m.logger.TraceContext(ctx, "repl eval failed", slog.Any("error", err))

		return m, tea.Sequence(shown, tea.Println(formatError(input, err)))
	}

	m.transcript = append(m.transcript, input)

	m.logger.TraceContext(ctx, "repl eval result",
		slog.String("type", result.Type().String()))

	if result.IsNull() && isDefinition(input) {
		return m, shown
	}

	return m, tea.Sequence(shown, tea.Println(resultStyle.Render(result.String())))
}

func (m model) command(input string) (model, tea.Cmd) {
	name, rest, _ := strings.Cut(input, " ")
	args := strings.Fields(rest)
	shown := tea.Println(echo(modeCtrl, input))

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", name),
		slog.Any("args", args))

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(shown, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(shown, tea.Printf("%s\n", helpText))

	case "l", "list":
		return m, tea.Sequence(shown, tea.Println(m.listNames(args...)))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(shown, m.edit())
	}

	return m, tea.Println(errorStyle.Render("Unknown command: " + name + " (try 'help')"))
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		ctxFunc:    m.ctxFunc,
		transcript: m.transcript,
		opts:       m.opts,
		logger:     m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.session == nil:
			return editCancelledMsg{}
		}

		return editDoneMsg{session: cmd.session, transcript: cmd.replayed}
	})
}

// listNames lists the names bound in the session with a preview of their
// values. Builtins are listed only if named in filter; a non-empty filter
// lists only the names it contains.
func (m model) listNames(filter ...string) string {
	var b strings.Builder

	for _, name := range m.session.Names() {
		if len(filter) > 0 && !slices.Contains(filter, name) {
			continue
		}

		v, ok := m.session.Lookup(name)
		if !ok {
			continue
		}

		if fn, ok := v.Builtin(); ok && fn.Name == name && len(filter) == 0 {
			continue
		}

		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(formatPreview(v)))
	}

	return b.String()
}

// switchMode makes mode active, parking the input of the other mode.
func (m model) switchMode(mode inputMode) model {
	if mode == m.mode {
		return m
	}

	m.parked[m.mode] = m.current()
	m.mode = mode
	m.input.Prompt = promptStyle[mode].Render(prompt[mode])
	m.setInput(m.parked[mode])
	m.refresh(false)

	return m
}
