// Package cmd implements the gold subcommands: eval, fmt, init, and repl.
//
// Commands receive their evaluator options and the parsed [kong.Context]
// through the [context.Context] passed to Run; see [WithOptions] and
// [WithContext].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path of
	// the gold configuration file written by [Init].
	ConfigIdentifier = "config"
)
