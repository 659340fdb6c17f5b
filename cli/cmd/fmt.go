package cmd

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/log"
	"github.com/ardnew/gold/pkg"
	"github.com/ardnew/gold/profile"
)

// Output formats accepted by [Encode].
const (
	FormatGold = "gold"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatGold, FormatJSON, FormatYAML}
}

// Encode writes v to w in the named format. An indent of zero or less
// selects the most compact form of each format.
func Encode(ctx context.Context, w io.Writer, v lang.Value, format string, indent int) error {
	var err error

	profile.Do(ctx, "encode", func(ctx context.Context) {
		switch strings.ToLower(format) {
		case FormatGold:
			err = lang.EncodeGold(ctx, w, v, indent)

		case FormatJSON:
			if err = lang.EncodeJSON(ctx, w, v, indent); err != nil {
				err = pkg.ErrJSONMarshal.Wrap(err)
			}

		case FormatYAML:
			if err = lang.EncodeYAML(ctx, w, v, indent); err != nil {
				err = pkg.ErrYAMLMarshal.Wrap(err)
			}

		default:
			err = pkg.ErrInvalidFormat.Wrapf("%q (valid: %s)",
				format, strings.Join(Formats(), ", "))
		}
	})

	return err
}

// Fmt evaluates a source file and writes the result in the chosen format.
type Fmt struct {
	Gold Gold `cmd:"" default:"withargs" help:"Format as gold syntax (default)."`
	JSON JSON `cmd:""                    help:"Format as JSON."`
	YAML YAML `cmd:""                    help:"Format as YAML."`
}

// Input holds the arguments shared by the fmt subcommands.
type Input struct {
	Indent int `default:"2" help:"Indent width; 0 writes the compact form." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

func (f *Input) run(ctx context.Context, format string) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := readSource(f.Source)
	if err != nil {
		return err
	}

	var v lang.Value

	profile.Do(ctx, "eval", func(ctx context.Context) {
		v, err = src.eval(ctx)
	})

	if err != nil {
		return report(ctx, src, err)
	}

	log.DebugContext(ctx, "formatting result",
		slog.String("format", format),
		slog.String("type", v.Type().String()),
		slog.Int("indent", f.Indent))

	if err := Encode(ctx, outputFrom(ctx), v, format, f.Indent); err != nil {
		return ErrEncode.Wrap(err).With(slog.String("format", format))
	}

	return nil
}

// Gold formats the result as gold source.
type Gold struct {
	Input `embed:""`
}

// Run executes the gold command.
func (g *Gold) Run(ctx context.Context) error { return g.run(ctx, FormatGold) }

// JSON formats the result as JSON.
type JSON struct {
	Input `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error { return j.run(ctx, FormatJSON) }

// YAML formats the result as YAML.
type YAML struct {
	Input `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error { return y.run(ctx, FormatYAML) }
