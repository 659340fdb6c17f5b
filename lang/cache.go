package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// globalCache stores parse results keyed by the hash of the source text and
// the options that affect parsing. Nodes are immutable, so a cached file is
// shared by every evaluation of the same source.
var globalCache sync.Map

// state tracks the parse of one source.
type state struct {
	once sync.Once
	file *File
	err  error
}

// hashOptions encodes options using gob and hashes with xxh3.
// Returns a hash that uniquely identifies the options configuration.
func hashOptions(opts optionsKey) uint64 {
	var buf bytes.Buffer

	_ = gob.NewEncoder(&buf).Encode(opts)

	return xxh3.Hash(buf.Bytes())
}

// cacheKey returns the key under which source parsed with opts is cached.
func cacheKey(source string, opts optionsKey) string {
	return strconv.FormatUint(xxh3.HashString(source)^hashOptions(opts), 36)
}

// parseCached parses source once per process for each distinct set of
// options. Errors are cached too and must be copied before they are
// modified.
func parseCached(ctx context.Context, source string, cfg *config) (*File, error) {
	key := cacheKey(source, cfg.key)

	value, hit := globalCache.LoadOrStore(key, new(state))

	st, ok := value.(*state)
	if !ok {
		return parse(ctx, source, cfg)
	}

	cfg.logger.TraceContext(ctx, "cache lookup",
		slog.String("key", key),
		slog.Bool("cache_hit", hit))

	st.once.Do(func() {
		st.file, st.err = parse(ctx, source, cfg)
	})

	return st.file, st.err
}

// ClearCache removes all cached parse results.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() {
	globalCache.Clear()
}

// readSource drains r through an asynchronous read-ahead buffer.
func readSource(ctx context.Context, r io.Reader, cfg *config) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", WrapError(err).With(slog.String("source", "reader"))
	}

	cfg.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true))

	return string(data), nil
}

// ParseReader reads all of r and parses it as a source file.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*File, error) {
	cfg := makeConfig(opts...)

	source, err := readSource(ctx, r, &cfg)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, source, opts...)
}

// EvalReader reads all of r and evaluates it as with [Eval].
func EvalReader(ctx context.Context, r io.Reader, opts ...Option) (Value, error) {
	cfg := makeConfig(opts...)

	source, err := readSource(ctx, r, &cfg)
	if err != nil {
		return Value{}, err
	}

	return Eval(ctx, source, opts...)
}
