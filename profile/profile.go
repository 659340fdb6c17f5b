package profile

import (
	"context"
	"slices"
)

// Settings selects a profile and where it is written.
type Settings struct {
	Mode  string // one of [Modes]; empty disables profiling
	Dir   string // output directory; empty uses the working directory
	Quiet bool   // suppress the profiler's own log lines
}

// Enabled reports whether s names a mode supported by this build.
func (s Settings) Enabled() bool {
	return s.Mode != "" && slices.Contains(Modes(), s.Mode)
}

// Start begins profiling and returns the function that stops it and flushes
// the profile. If s is not [Settings.Enabled], Start does nothing.
func (s Settings) Start() (stop func()) {
	if !s.Enabled() {
		return func() {}
	}

	return start(s)
}

// Do calls fn with ctx carrying the pprof label phase=phase. Without the
// pprof build tag, fn is called directly.
func Do(ctx context.Context, phase string, fn func(context.Context)) {
	do(ctx, phase, fn)
}
