// Package profile provides optional runtime profiling for the gold command.
//
// # Overview
//
// This package integrates [github.com/pkg/profile] to capture profiles while
// gold source is parsed and evaluated. Profiling must be enabled at build
// time using the "pprof" build tag:
//
//	go build -tags pprof -o gold .
//
// When built without the tag, [Settings.Start] does nothing,
// [Modes] is empty, and [Do] simply calls its function.
//
// # Available Profiling Modes
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// # Labels
//
// [Do] runs a function with pprof labels attached, so that samples taken
// while parsing, evaluating or encoding can be told apart:
//
//	go tool pprof -tagfocus=phase=eval gold cpu.pprof
//
// # Command-Line Usage
//
//	# CPU profile of one evaluation, written to the cache directory
//	gold --pprof-mode cpu eval config.gold
//
//	# Heap profile written to ./profiles
//	gold --pprof-mode heap --pprof-dir ./profiles fmt json config.gold
//
// The default output directory is the "pprof" subdirectory of the gold cache
// directory, for example $XDG_CACHE_HOME/gold/pprof on Linux.
//
// # HTTP-Based Profiling
//
// When built with the pprof tag, this package also imports [net/http/pprof],
// which registers handlers at /debug/pprof/ on [net/http.DefaultServeMux] for
// hosts that embed the evaluator in a long-running server.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
