//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/gold/log"
	"github.com/ardnew/gold/pkg"
	"github.com/ardnew/gold/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"Enable profiling"         placeholder:"${enum}" short:"p"`
	Dir  string `default:"${pprofDir}"                          help:"Profile output directory"                                 type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(profile.Modes(), ","),
		"pprofDir":      filepath.Join(pkg.CacheDir(), profile.Tag),
	}
}

// start starts the profiler selected by the flags and returns the function
// that stops it.
func (f pprofConfig) start(ctx context.Context) (stop func()) {
	s := profile.Settings{Mode: f.Mode, Dir: f.Dir, Quiet: true}
	if !s.Enabled() {
		return func() {}
	}

	attrs := []slog.Attr{slog.String("mode", f.Mode), slog.String("dir", f.Dir)}

	log.DebugContext(ctx, "pprof start", attrs...)

	halt := s.Start()

	return func() {
		halt()
		log.DebugContext(ctx, "pprof stop", attrs...)
	}
}
