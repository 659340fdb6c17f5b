package lang

import (
	"context"
	_ "embed"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
)

// Resolver maps an import path to a value.
//
// A resolver that cannot satisfy a path returns an error whose reason is
// [ImportError], allowing [SeqResolver] to try the next resolver.
type Resolver interface {
	Resolve(ctx context.Context, path string) (Value, error)
}

// ResolverFunc adapts a host function to the [Resolver] interface.
type ResolverFunc func(ctx context.Context, path string) (Value, error)

// Resolve calls f(ctx, path).
func (f ResolverFunc) Resolve(ctx context.Context, path string) (Value, error) {
	return f(ctx, path)
}

// Fingerprinter is implemented by resolvers whose results can be cached
// across runs. Fingerprint returns a digest that changes whenever the value
// resolved for path would change, or false if the path is not cacheable.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (uint64, bool)
}

// NullResolver satisfies no imports.
type NullResolver struct{}

// Resolve always fails with an [ImportError].
func (NullResolver) Resolve(_ context.Context, path string) (Value, error) {
	return Value{}, unknownImport(path)
}

//go:embed std.gold
var stdSource string

var stdModule = sync.OnceValues(func() (Value, error) {
	cfg := makeConfig()

	return evalSource(context.Background(), stdSource, &cfg, NullResolver{})
})

type stdResolver struct{}

// StdResolver returns a resolver for the bundled "std" module.
func StdResolver() Resolver { return stdResolver{} }

func (stdResolver) Resolve(_ context.Context, path string) (Value, error) {
	if path != "std" {
		return Value{}, unknownImport(path)
	}

	return stdModule()
}

type seqResolver []Resolver

// SeqResolver tries each resolver in order and returns the first success.
// If every resolver fails, the error is an [ImportError] whose cause is the
// first failure that was not itself an unknown import.
func SeqResolver(rs ...Resolver) Resolver {
	return seqResolver(slices.DeleteFunc(slices.Clone(rs),
		func(r Resolver) bool { return r == nil }))
}

func (s seqResolver) Resolve(ctx context.Context, path string) (Value, error) {
	var first error

	for _, r := range s {
		v, err := r.Resolve(ctx, path)
		if err == nil {
			return v, nil
		}

		var ie ImportError
		if first == nil && !errors.As(err, &ie) {
			first = err
		}
	}

	return Value{}, &Error{reason: ImportError{Path: path}, cause: first}
}

// importChainKey carries the files currently being imported.
type importChainKey struct{}

func importChain(ctx context.Context) []string {
	chain, _ := ctx.Value(importChainKey{}).([]string)

	return chain
}

func withImport(ctx context.Context, path string) context.Context {
	chain := importChain(ctx)

	return context.WithValue(ctx, importChainKey{},
		append(chain[:len(chain):len(chain)], path))
}

type fileResolver struct {
	root string
	opts []Option
}

// FileResolver returns a resolver that evaluates import paths as source
// files relative to root. Imported files are evaluated with opts, and their
// own relative imports resolve against their parent directory.
func FileResolver(root string, opts ...Option) Resolver {
	return &fileResolver{root: root, opts: opts}
}

func (r *fileResolver) target(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(r.root, path)
}

func (r *fileResolver) Resolve(ctx context.Context, path string) (Value, error) {
	target := r.target(path)

	if slices.Contains(importChain(ctx), target) {
		return Value{}, NewError(ErrTooDeep)
	}

	data, sum, err := readFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return Value{}, unknownImport(path)
	}

	if err != nil {
		return Value{}, &Error{
			reason: FileSystemError{Kind: FileSystemRead, Path: target},
			cause:  err,
		}
	}

	addDependency(ctx, target, sum)

	return EvalPath(withImport(ctx, target), string(data), target, r.opts...)
}

// Fingerprint digests the location, content and modification time of the
// file an import path refers to.
func (r *fileResolver) Fingerprint(_ context.Context, path string) (uint64, bool) {
	target := r.target(path)

	_, sum, err := readFile(target)
	if err != nil {
		return 0, false
	}

	return xxh3.HashString(target) ^ sum, true
}

// readFile reads a source file and digests its content and modification
// time.
func readFile(path string) ([]byte, uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	return data, xxh3.Hash(data) ^ uint64(info.ModTime().UnixNano()), nil
}

// dependency is a source file read while resolving an import, with the
// digest it had at the time.
type dependency struct {
	Path string `msgpack:"path"`
	Sum  uint64 `msgpack:"sum"`
}

// current reports whether the file still has the recorded digest.
func (d dependency) current() bool {
	_, sum, err := readFile(d.Path)

	return err == nil && sum == d.Sum
}

// dependencies collects the source files read by one resolution, including
// those read by its nested imports.
type dependencies struct {
	mu   sync.Mutex
	seen map[string]uint64
}

func (d *dependencies) add(path string, sum uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen == nil {
		d.seen = make(map[string]uint64)
	}

	d.seen[path] = sum
}

func (d *dependencies) list() []dependency {
	d.mu.Lock()
	defer d.mu.Unlock()

	deps := make([]dependency, 0, len(d.seen))
	for path, sum := range d.seen {
		deps = append(deps, dependency{Path: path, Sum: sum})
	}

	slices.SortFunc(deps, func(a, b dependency) int {
		return strings.Compare(a.Path, b.Path)
	})

	return deps
}

// dependenciesKey carries the collectors of every cached resolution in
// progress, outermost first.
type dependenciesKey struct{}

func withDependencies(ctx context.Context, d *dependencies) context.Context {
	outer, _ := ctx.Value(dependenciesKey{}).([]*dependencies)

	return context.WithValue(ctx, dependenciesKey{},
		append(outer[:len(outer):len(outer)], d))
}

// addDependency records a source file with every collector in ctx.
func addDependency(ctx context.Context, path string, sum uint64) {
	all, _ := ctx.Value(dependenciesKey{}).([]*dependencies)
	for _, d := range all {
		d.add(path, sum)
	}
}

// Store persists serialized values between runs.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key string, data []byte) error
}

type cachedResolver struct {
	store Store
	inner Resolver
	fp    Fingerprinter
	cfg   config
}

// CachedResolver wraps r so that resolved values are saved in store and
// reused while the fingerprint of their path is unchanged and every source
// file read to produce them, including nested imports, is unchanged.
// Resolvers that do not implement [Fingerprinter] are returned unwrapped.
func CachedResolver(store Store, r Resolver, opts ...Option) Resolver {
	fp, ok := r.(Fingerprinter)
	if !ok || store == nil {
		return r
	}

	cfg := makeConfig(opts...)

	return &cachedResolver{store: store, inner: r, fp: fp, cfg: cfg}
}

// cacheEntry is the stored form of a resolved value.
type cacheEntry struct {
	Deps  []dependency `msgpack:"deps"`
	Value []byte       `msgpack:"value"`
}

func (c *cachedResolver) Resolve(ctx context.Context, path string) (Value, error) {
	sum, ok := c.fp.Fingerprint(ctx, path)
	if !ok {
		return c.inner.Resolve(ctx, path)
	}

	log := c.cfg.logger
	key := strconv.FormatUint(xxh3.HashString(path)^sum, 36)

	if v, ok := c.load(ctx, path, key); ok {
		return v, nil
	}

	start := time.Now()
	deps := &dependencies{}

	v, err := c.inner.Resolve(withDependencies(ctx, deps), path)
	if err != nil {
		return Value{}, err
	}

	log.TraceContext(ctx, "cache miss",
		slog.String("path", path),
		slog.Duration("elapsed", time.Since(start)))

	data, err := Marshal(v)
	if err != nil {
		log.TraceContext(ctx, "value not cacheable",
			slog.String("path", path), slog.Any("error", err))

		return v, nil
	}

	data, err = msgpack.Marshal(&cacheEntry{Deps: deps.list(), Value: data})
	if err != nil {
		return v, nil
	}

	if err := c.store.Store(ctx, key, data); err != nil {
		log.TraceContext(ctx, "cache store failed",
			slog.String("path", path), slog.Any("error", err))
	}

	return v, nil
}

// load returns the value stored under key if every file it was read from is
// unchanged. The files are recorded with the resolutions enclosing ctx.
func (c *cachedResolver) load(ctx context.Context, path, key string) (Value, bool) {
	log := c.cfg.logger

	data, found, err := c.store.Load(ctx, key)
	if err != nil {
		log.TraceContext(ctx, "cache load failed",
			slog.String("path", path), slog.Any("error", err))
	}

	if !found {
		return Value{}, false
	}

	var entry cacheEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		log.TraceContext(ctx, "cache entry unreadable",
			slog.String("path", path), slog.Any("error", err))

		return Value{}, false
	}

	for _, d := range entry.Deps {
		if !d.current() {
			log.TraceContext(ctx, "cache entry stale",
				slog.String("path", path),
				slog.String("changed", d.Path))

			return Value{}, false
		}
	}

	v, saved, err := Unmarshal(entry.Value)
	if err != nil {
		log.TraceContext(ctx, "cache entry unreadable",
			slog.String("path", path), slog.Any("error", err))

		return Value{}, false
	}

	for _, d := range entry.Deps {
		addDependency(ctx, d.Path, d.Sum)
	}

	log.TraceContext(ctx, "cache hit",
		slog.String("path", path),
		slog.Time("saved", saved))

	return v, true
}
