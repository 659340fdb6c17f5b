package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/gold/cli/cmd/repl"
	"github.com/ardnew/gold/log"
	"github.com/ardnew/gold/pkg"
)

// Repl starts an interactive session.
type Repl struct {
	History bool `default:"true" help:"Persist prompt history." negatable:""`

	Source string `arg:"" help:"Source file whose map entries are bound before the first prompt." name:"source" optional:"" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	cfg := repl.Config{
		Logger:  log.Default(),
		Options: optionsFrom(ctx),
	}

	if r.History {
		cfg.History = pkg.HistoryFile()
	}

	if r.Source != "" {
		f, err := os.Open(r.Source)
		if err != nil {
			return pkg.ErrReadInput.Wrap(err)
		}
		defer f.Close()

		cfg.Source = f
	}

	log.DebugContext(ctx, "starting repl",
		slog.String("source", r.Source),
		slog.String("history", cfg.History))

	return repl.Run(ctx, cfg)
}
