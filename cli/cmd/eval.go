package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/log"
	"github.com/ardnew/gold/profile"
)

// Eval evaluates a source file and writes its value.
//
// If the file evaluates to a function and arguments are given, the function
// is called with them. Each argument is a gold expression; an argument of
// the form name=expr is passed as a keyword argument.
type Eval struct {
	Format string `default:"gold" enum:"gold,json,yaml" help:"Output format (${enum})."                short:"o"`
	Indent int    `default:"0"                          help:"Indent width; 0 writes the compact form." short:"i"`
	Expr   string `                                     help:"Evaluate this source text instead of a file." short:"e"`

	Source string   `arg:"" default:"-" help:"Source input file or '-' for stdin" name:"source"`
	Args   []string `arg:""             help:"Arguments to call the result with"  name:"args"   optional:""`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := e.source()
	if err != nil {
		return err
	}

	start := time.Now()

	var v lang.Value

	profile.Do(ctx, "eval", func(ctx context.Context) {
		v, err = src.eval(ctx)
		if args := e.args(); err == nil && len(args) > 0 {
			v, err = e.call(ctx, v, args)
		}
	})

	if err != nil {
		return report(ctx, src, err)
	}

	log.DebugContext(ctx, "evaluated source",
		slog.String("path", src.path),
		slog.String("type", v.Type().String()),
		slog.Int("args", len(e.args())),
		slog.Duration("elapsed", time.Since(start)))

	if err := Encode(ctx, outputFrom(ctx), v, e.Format, e.Indent); err != nil {
		return ErrEncode.Wrap(err).With(slog.String("format", e.Format))
	}

	return nil
}

func (e *Eval) source() (source, error) {
	if e.Expr == "" {
		return readSource(e.Source)
	}

	// Inline source has no file, so relative imports resolve against the
	// working directory.
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return source{text: e.Expr, path: filepath.Join(cwd, exprName)}, nil
}

// args returns the call arguments. With inline source, the first positional
// word is an argument rather than a file.
func (e *Eval) args() []string {
	if e.Expr != "" && e.Source != stdinSource && e.Source != "" {
		return append([]string{e.Source}, e.Args...)
	}

	return e.Args
}

// call calls fn with the command line arguments. Arguments are evaluated in
// an empty environment.
func (e *Eval) call(ctx context.Context, fn lang.Value, argv []string) (lang.Value, error) {
	opts := optionsFrom(ctx)

	var (
		args   []lang.Value
		kwargs *lang.Map
	)

	for _, arg := range argv {
		name, expr, keyword := splitKeyword(arg)

		v, err := lang.Eval(ctx, expr, opts...)
		if err != nil {
			return lang.Value{}, report(ctx, source{text: expr, path: argName}, err)
		}

		if !keyword {
			args = append(args, v)

			continue
		}

		if kwargs == nil {
			kwargs = lang.MakeMap(len(argv))
		}

		kwargs.Set(lang.Intern(name), v)
	}

	return lang.Call(ctx, fn, args, kwargs, opts...)
}

// splitKeyword splits an argument of the form name=expr. An argument whose
// prefix is not an identifier, or whose "=" is part of "==", is positional.
func splitKeyword(arg string) (name, expr string, ok bool) {
	i := strings.IndexByte(arg, '=')
	if i <= 0 || strings.HasPrefix(arg[i:], "==") || !isIdentifier(arg[:i]) {
		return "", arg, false
	}

	return arg[:i], arg[i+1:], true
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return s != ""
}
