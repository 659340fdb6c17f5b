package lang

import "github.com/ardnew/gold/log"

// DefaultMaxDepth is the default bound on parser nesting and evaluator call
// depth. Use [WithMaxDepth] to override it.
const DefaultMaxDepth = 512

// optionsKey holds the options that affect parse results.
// This type is gob-encodable for cache key hashing.
type optionsKey struct {
	MaxDepth int
}

// config holds the effective options of a parse or evaluation.
type config struct {
	logger   log.Logger
	resolver Resolver
	store    Store
	key      optionsKey
}

// Option configures parsing or evaluation behavior.
type Option func(*config)

// WithMaxDepth sets the maximum nesting depth accepted by the parser and
// the maximum function call depth of the evaluator.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.key.MaxDepth = depth
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithResolver sets the host import resolver, consulted after the bundled
// std module and before paths relative to the importing file.
func WithResolver(r Resolver) Option {
	return func(c *config) {
		c.resolver = r
	}
}

// WithStore caches the values produced by the host and file resolvers in s
// across runs.
func WithStore(s Store) Option {
	return func(c *config) {
		c.store = s
	}
}

// applyDefaults sets default option values.
func applyDefaults(c *config) {
	c.key.MaxDepth = DefaultMaxDepth
}

// applyOptions applies functional options in order.
func applyOptions(c *config, opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func makeConfig(opts ...Option) config {
	var c config

	applyDefaults(&c)
	applyOptions(&c, opts...)

	if c.key.MaxDepth <= 0 {
		c.key.MaxDepth = DefaultMaxDepth
	}

	return c
}
