package cli

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/gold/cli/cmd"
	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/log"
	"github.com/ardnew/gold/store"
)

// langConfig holds the evaluator options shared by all commands.
type langConfig struct {
	MaxDepth   int           `default:"${maxDepth}" help:"Maximum nesting and call depth."                 name:"max-depth"`
	ImportPath []string      `                      help:"Directory searched for imports (repeatable)." name:"import-path" short:"I" type:"path"`
	CacheDir   string        `default:"${cache}"    help:"Directory of the persistent value store."     name:"cache-dir"                type:"path"`
	NoStore    bool          `default:"false"       help:"Disable the persistent value store."          name:"no-store"`
	StoreTTL   time.Duration `default:"720h"        help:"Discard stored values older than this."      name:"store-ttl"`
}

func (*langConfig) vars() kong.Vars {
	return kong.Vars{
		"maxDepth": strconv.Itoa(lang.DefaultMaxDepth),
	}
}

// options opens the value store, unless disabled, and returns the evaluator
// options for the configured flags. The returned function closes the store.
func (f *langConfig) options(ctx context.Context) ([]lang.Option, func()) {
	var (
		st   lang.Store
		done = func() {}
	)

	if !f.NoStore {
		db, err := store.Open(ctx, f.CacheDir, store.WithLogger(log.Default()))
		if err != nil {
			// Evaluation works without the store, only slower.
			log.WarnContext(ctx, "value store unavailable",
				slog.String("dir", f.CacheDir),
				slog.Any("error", err))
		} else {
			f.prune(ctx, db)

			st = db
			done = func() {
				if err := db.Close(); err != nil {
					log.WarnContext(ctx, "close value store", slog.Any("error", err))
				}
			}
		}
	}

	// Imported files see the same host modules as the file importing them.
	var host lang.Resolver

	opts := []lang.Option{
		lang.WithMaxDepth(f.MaxDepth),
		lang.WithLogger(log.Default()),
		lang.WithStore(st),
		lang.WithResolver(lang.ResolverFunc(
			func(ctx context.Context, path string) (lang.Value, error) {
				return host.Resolve(ctx, path)
			},
		)),
	}

	dirs := cmd.UniqueDirs(f.ImportPath)

	seq := make([]lang.Resolver, 0, len(dirs)+1)
	seq = append(seq, lang.SysResolver())

	for _, dir := range dirs {
		seq = append(seq, lang.CachedResolver(st, lang.FileResolver(dir, opts...), opts...))
	}

	host = lang.SeqResolver(seq...)

	log.DebugContext(ctx, "evaluator configured",
		slog.Int("max_depth", f.MaxDepth),
		slog.Any("import_path", dirs),
		slog.Bool("store", st != nil))

	return opts, done
}

// prune removes the entries of db saved more than StoreTTL ago. A
// non-positive TTL keeps every entry.
func (f *langConfig) prune(ctx context.Context, db *store.SQLite) {
	if f.StoreTTL <= 0 {
		return
	}

	n, err := db.Prune(ctx, time.Now().Add(-f.StoreTTL))
	if err != nil {
		log.WarnContext(ctx, "prune value store", slog.Any("error", err))

		return
	}

	log.DebugContext(ctx, "pruned value store",
		slog.Int64("entries", n),
		slog.Duration("ttl", f.StoreTTL))
}
