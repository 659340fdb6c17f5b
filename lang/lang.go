package lang

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Eval parses and evaluates source. Imports resolve against the bundled std
// module and then the host resolver, if one is configured.
//
// An error is returned as an *Error rendered against source.
func Eval(ctx context.Context, source string, opts ...Option) (Value, error) {
	cfg := makeConfig(opts...)

	return evalSource(ctx, source, &cfg, SeqResolver(StdResolver(), cfg.host()))
}

// EvalPath evaluates source as if it had been read from path, so that
// relative imports resolve against the directory containing path.
func EvalPath(ctx context.Context, source, path string, opts ...Option) (Value, error) {
	cfg := makeConfig(opts...)

	dir, err := parentDir(path)
	if err != nil {
		return Value{}, err
	}

	files := CachedResolver(cfg.store, FileResolver(dir, cfg.options()...), opts...)

	return evalSource(ctx, source, &cfg,
		SeqResolver(StdResolver(), cfg.host(), files))
}

// EvalFile reads and evaluates the source file at path.
func EvalFile(ctx context.Context, path string, opts ...Option) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Value{}, &Error{
			reason: FileSystemError{Kind: FileSystemRead, Path: path},
			cause:  err,
		}
	}

	return EvalPath(ctx, string(data), path, opts...)
}

// Call invokes a function value with positional and keyword arguments.
// Keyword arguments may be nil.
func Call(ctx context.Context, fn Value, args []Value, kwargs *Map, opts ...Option) (Value, error) {
	cfg := makeConfig(opts...)

	v, err := newEvaluator(ctx, &cfg).Call(fn, args, kwargs)
	if err != nil {
		return Value{}, WrapError(err)
	}

	return v, nil
}

func evalSource(ctx context.Context, source string, cfg *config, r Resolver) (Value, error) {
	f, err := parseCached(ctx, source, cfg)
	if err != nil {
		return Value{}, asError(err).With().Render(source)
	}

	start := time.Now()

	v, err := newEvaluator(ctx, cfg).evalFile(f, r)
	if err != nil {
		cfg.logger.TraceContext(ctx, "eval failed", slog.Any("error", err))

		return Value{}, asError(err).Render(source)
	}

	cfg.logger.TraceContext(ctx, "eval complete",
		slog.String("type", v.Type().String()),
		slog.Duration("elapsed", time.Since(start)))

	return v, nil
}

// parentDir returns the directory that relative imports from path resolve
// against.
func parentDir(path string) (string, error) {
	clean := filepath.Clean(path)

	dir := filepath.Dir(clean)
	if path == "" || dir == clean {
		return "", NewError(FileSystemError{Kind: FileSystemNoParent, Path: path})
	}

	return dir, nil
}

// reraise starts a fresh stack for an error that was rendered against
// another source, keeping the original report as its cause.
func reraise(e *Error) *Error {
	return &Error{reason: e.reason, cause: e}
}

// host returns the configured host resolver, wrapped by the store if one is
// configured.
func (c *config) host() Resolver {
	if c.resolver == nil {
		return nil
	}

	return CachedResolver(c.store, c.resolver, c.options()...)
}

// options reproduces c as a list of options for nested evaluations.
func (c *config) options() []Option {
	return []Option{
		WithMaxDepth(c.key.MaxDepth),
		WithLogger(c.logger),
		WithResolver(c.resolver),
		WithStore(c.store),
	}
}

// IsNotExist reports whether err was caused by a missing source file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
