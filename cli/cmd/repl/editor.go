package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/log"
	"github.com/ardnew/gold/pkg"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-evaluate-retry loop.
// It writes the session transcript to a temp file, opens the user's editor,
// and replays the result in a new session. On error the user is prompted to
// re-edit; declining exits the program.
type editCommand struct {
	ctxFunc    func() context.Context
	transcript []string
	opts       []lang.Option
	logger     log.Logger
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer

	// Results, set when the edit is accepted.
	session  *lang.Session
	replayed []string
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. Inputs in the edited file are separated by
// blank lines. If the user declines to re-edit after an error, Run returns
// [ErrEditDeclined].
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	content := strings.Join(c.transcript, "\n\n") + "\n"

	f, err := os.CreateTemp(os.TempDir(), pkg.Name+"-repl-*"+pkg.Extension)
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		// An empty file cancels the edit.
		if strings.TrimSpace(data) == "" {
			return nil
		}

		session, inputs, replayErr := replay(ctx, data, c.opts...)
		c.logger.TraceContext(
			ctx,
			"editor replay attempt",
			slog.Int("content_length", len(data)),
			slog.Int("inputs", len(inputs)),
			slog.Bool("success", replayErr == nil),
		)

		if replayErr == nil {
			c.session, c.replayed = session, inputs

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", replayErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = data
	}
}

// splitInputs splits edited text into inputs at blank lines.
func splitInputs(text string) []string {
	var (
		inputs []string
		cur    []string
	)

	flush := func() {
		if in := strings.TrimSpace(strings.Join(cur, "\n")); in != "" {
			inputs = append(inputs, in)
		}

		cur = cur[:0]
	}

	for line := range strings.Lines(text) {
		if strings.TrimSpace(line) == "" {
			flush()

			continue
		}

		cur = append(cur, strings.TrimRight(line, "\r\n"))
	}

	flush()

	return inputs
}

// replay evaluates each input of text in a new session.
func replay(ctx context.Context, text string, opts ...lang.Option) (*lang.Session, []string, error) {
	s := lang.NewSession(opts...)
	inputs := splitInputs(text)

	for i, in := range inputs {
		if _, err := evalInput(ctx, s, in); err != nil {
			return nil, nil, fmt.Errorf("input %d: %w", i+1, err)
		}
	}

	return s, inputs, nil
}

// runEditor launches the user's editor on the given file path and returns
// the edited file content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) (string, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}

	if editor == "" {
		editor = defaultEditor
	}

	args := strings.Fields(editor)

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
