package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/gold/log"
)

// logLevel and logFormat reconfigure the default logger as soon as kong
// decodes them, so that errors reported while parsing the remaining flags
// already use the requested level and format.
type (
	logLevel  string
	logFormat string
)

func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(text))))

	return nil
}

func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(text))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"${logLevelEnum}"  help:"Set log level (${enum})."`
	Format     logFormat `default:"text"    enum:"${logFormatEnum}" help:"Set log format (${enum})."`
	TimeLayout string    `default:"RFC3339"                         help:"Set timestamp layout, by name or Go layout."`
	Caller     bool      `default:"false"                           help:"Include the source location of each record." negatable:""`
	Pretty     bool      `default:"true"                            help:"Colorize records."                            negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

// options returns the logger options selected by the parsed flags.
func (f *logConfig) options() []log.Option {
	return []log.Option{
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	}
}

// start configures the default logger from every parsed flag.
func (f *logConfig) start(ctx context.Context) {
	log.Config(f.options()...)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty))
}

// scan applies the logging flags found in args before kong parses them, so
// that the flags take effect wherever they appear on the command line.
func (f *logConfig) scan(args []string) {
	text := map[string]func(string){
		"level":  func(v string) { _ = f.Level.UnmarshalText([]byte(v)) },
		"format": func(v string) { _ = f.Format.UnmarshalText([]byte(v)) },
	}

	flag := map[string]func(bool){
		"pretty": func(on bool) { f.Pretty = on; log.Config(log.WithPretty(on)) },
		"caller": func(on bool) { f.Caller = on; log.Config(log.WithCaller(on)) },
	}

	for i := 0; i < len(args); i++ {
		arg, value, assigned := strings.Cut(args[i], "=")

		name, negated := strings.CutPrefix(arg, "--no-log-")
		if !negated {
			var ok bool
			if name, ok = strings.CutPrefix(arg, "--log-"); !ok {
				continue
			}
		}

		if set, ok := text[name]; ok && !negated {
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				value = args[i]
			}

			set(value)

			continue
		}

		if set, ok := flag[name]; ok {
			if on, ok := scanBool(value, assigned, negated); ok {
				set(on)
			}
		}
	}
}

// scanBool returns the state selected by a boolean flag. A value is only
// read when explicitly assigned with "=".
func scanBool(value string, assigned, negated bool) (on, ok bool) {
	if !assigned {
		return !negated, true
	}

	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, false
	}

	return v != negated, true
}
