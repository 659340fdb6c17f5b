package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/gold/cli/cmd"
	"github.com/ardnew/gold/pkg"
)

// CLI is the top-level command-line interface for gold.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`
	Lang  langConfig  `embed:"" group:"lang"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Init cmd.Init `cmd:"" help:"Write the current flags to the configuration file."`
	Fmt  cmd.Fmt  `cmd:"" help:"Evaluate a source file and format its value."`
	Repl cmd.Repl `cmd:"" help:"Start an interactive session."`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate a source file, calling the result with any arguments."`
}

// Flag groups shown in help.
var (
	logGroup   = kong.Group{Key: "log", Title: "Logging options"}
	langGroup  = kong.Group{Key: "lang", Title: "Evaluation options"}
	pprofGroup = kong.Group{Key: "pprof", Title: "Profiling (pprof)"}
)

// Run executes the gold CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	files := configFiles()

	vars := kong.Vars{
		"version":            pkg.Version,
		cmd.ConfigIdentifier: files[pkg.Extension],
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Lang.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{logGroup, langGroup, pprofGroup}),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			Tree:                true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, files[".json"]),
		kong.Configuration(loadYAML(ctx), files[".yaml"], files[".yml"]),
		kong.Configuration(loadGold(ctx), files[pkg.Extension]),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx)

	// No-op unless built with the pprof tag and a mode is selected.
	defer cli.Pprof.start(ctx)()

	opts, done := cli.Lang.options(ctx)
	defer done()

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithOptions(ctx, opts...)

	return ktx.Run(ctx, &cli)
}
