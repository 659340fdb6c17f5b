// Package cli contains the command line interface for gold.
//
// # Usage
//
// Without a subcommand, gold evaluates a source file and writes its value:
//
//	gold config.gold
//	gold -o json config.gold
//	gold -e '|x; scale = 2| x * scale' 21 scale=3
//
// If the file evaluates to a function, the remaining arguments are evaluated
// as gold expressions and passed to it. Arguments of the form name=expr are
// keyword arguments.
//
// Other subcommands:
//
//	gold fmt json config.gold    # format as JSON (also gold, yaml)
//	gold repl [defs.gold]        # interactive session
//	gold init                    # write current flags to config.gold
//
// # Configuration
//
// Flag defaults are read from config.gold, config.json, config.yaml, or
// config.yml in the user configuration directory. A gold configuration file
// may import the "sys" module and must evaluate to a map; nested maps are
// flattened into hyphenated flag names:
//
//	import "sys" as sys
//	{log: {level: "debug"}, "import-path": [sys.path.cat(sys.user.home, "gold")]}
//
// Command-line flags override configuration values.
//
// # Evaluation Options
//
//   - --import-path, -I: Directory searched for imports (repeatable)
//   - --max-depth: Maximum nesting and call depth
//   - --cache-dir: Directory of the persistent value store
//   - --no-store: Evaluate without the persistent value store
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o gold .
//
// Then --pprof-mode enables a profile and --pprof-dir sets its output
// directory (default: ~/.cache/gold/pprof).
package cli
