package cli

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/gold/lang"
	"github.com/ardnew/gold/log"
)

// loadGold returns a [kong.ConfigurationLoader] for configuration files
// written in gold.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(loadGold(ctx), "/path/to/config.gold")
//
// The file must evaluate to a map. Its entries are converted as follows:
//   - Keys name flags, with hyphens or underscores (e.g., "log-level" or
//     "log_level")
//   - Nested maps are flattened, joining keys with "-", so
//     {log: {level: "debug"}} sets --log-level
//   - Lists become repeated flag values
//   - Numbers are passed to Kong as strings
//
// Only the "sys" host module can be imported.
//
// Example gold config file:
//
//	import "sys" as sys
//	{
//	  log: {level: "debug", pretty: sys.env("NO_COLOR") == null},
//	  "import-path": [sys.path.cat(sys.user.home, "lib", "gold")],
//	}
//
// Command-line flags override config file values.
func loadGold(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		v, err := lang.EvalReader(ctx, r, lang.WithResolver(lang.SysResolver()))
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration", slog.Any("error", err))

			return config{}, nil
		}

		x, err := lang.ToJSON(v)
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration", slog.Any("error", err))

			return config{}, nil
		}

		obj, ok := x.(lang.Object)
		if !ok {
			log.WarnContext(ctx, "ignoring configuration",
				slog.String("type", v.Type().String()))

			return config{}, nil
		}

		return makeConfig(obj), nil
	}
}

// loadYAML returns a [kong.ConfigurationLoader] for YAML configuration
// files. Mappings are flattened the same way as by [loadGold].
func loadYAML(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		data, err := io.ReadAll(r)
		if err == nil {
			err = yaml.UnmarshalContext(ctx, data, &doc)
		}

		if err != nil {
			log.WarnContext(ctx, "ignoring configuration", slog.Any("error", err))

			return config{}, nil
		}

		return makeConfig(doc), nil
	}
}

// config implements [kong.Resolver] for flattened configuration maps.
type config map[string]any

func makeConfig(x any) config {
	c := make(config)
	c.flatten("", x)

	return c
}

// flatten stores the leaves of x in c, joining the keys of nested maps with
// "-".
func (c config) flatten(prefix string, x any) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}

		return prefix + "-" + key
	}

	switch x := x.(type) {
	case lang.Object:
		for _, m := range x {
			c.flatten(join(m.Key), m.Value)
		}

	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(x)) {
			c.flatten(join(k), x[k])
		}

	default:
		if prefix != "" {
			c[prefix] = flagValue(x)
		}
	}
}

// flagValue converts a configuration value to a form Kong can decode.
// Kong requires numbers as strings for parsing.
func flagValue(x any) any {
	switch x := x.(type) {
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		list := make([]any, len(x))
		for i, e := range x {
			list[i] = flagValue(e)
		}

		return list
	default:
		return x
	}
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// Kong flags use hyphens (e.g., "log-level") but gold identifiers
	// may use underscores. Try both forms.
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	if value, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}
