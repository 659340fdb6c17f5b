package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/pkg"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type optionsKey struct{}

// WithOptions returns a new context.Context carrying the evaluator options
// shared by all commands.
func WithOptions(ctx context.Context, opts ...lang.Option) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

func optionsFrom(ctx context.Context) []lang.Option {
	opts, _ := ctx.Value(optionsKey{}).([]lang.Option)

	return opts
}

type outputKey struct{}

// WithOutput returns a new context.Context directing command output to w
// instead of standard output.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// stdinName is the file name reported for source read from stdin. Relative
// imports in such source resolve against the working directory.
const stdinName = "<stdin>"

// exprName is the file name reported for source given with --expr.
const exprName = "<expr>"

// argName is the file name reported for a command line argument.
const argName = "<arg>"

// source is gold source text and the path it was read from.
type source struct {
	text string
	path string
}

// readSource reads the source file at path, or standard input if path is
// "-".
func readSource(path string) (source, error) {
	if path == stdinSource || path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return source{}, pkg.ErrReadInput.Wrap(err)
		}

		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}

		return source{text: string(data), path: filepath.Join(cwd, stdinName)}, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return source{}, pkg.ErrReadInput.Wrap(err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return source{}, pkg.ErrReadInput.Wrap(err)
	}

	return source{text: string(data), path: abs}, nil
}

// eval evaluates s with the options carried by ctx.
func (s source) eval(ctx context.Context) (lang.Value, error) {
	return lang.EvalPath(ctx, s.text, s.path, optionsFrom(ctx)...)
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// UniqueDirs returns the directories in paths that exist, in order, with
// duplicates removed. Two paths are duplicates if they resolve to the same
// device and inode, so symlinks and relative spellings of one directory are
// kept once.
func UniqueDirs(paths []string) []string {
	dirs := make([]string, 0, len(paths))
	seen := make(map[fileKey]struct{}, len(paths))

	for _, path := range paths {
		dir, ok := resolveDir(path)
		if !ok {
			continue
		}

		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		if key, ok := makeFileKey(info); ok {
			if _, exists := seen[key]; exists {
				continue
			}

			seen[key] = struct{}{}
		}

		dirs = append(dirs, dir)
	}

	return dirs
}

// resolveDir returns the absolute path of path with symlinks evaluated.
func resolveDir(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", false
	}

	return resolved, true
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
