// Package lang implements gold, a small pure-expression language for
// configuration.
//
// A gold program is a single expression, optionally preceded by import
// statements. Evaluating it produces a [Value]: null, a boolean, an
// arbitrary-precision integer, a float, a string, a list, a map with string
// keys kept in insertion order, or a function. Nothing in the language has
// side effects.
//
// # Syntax
//
//	import "std" as std
//	import "shared.gold" as {defaults}
//
//	let base = 8000
//	let ports = [for i in range(3): base + i]
//	in {
//	  ...defaults,
//	  name: "server-${ports[0]}",
//	  ports: ports,
//	  when len(ports) > 1: replicated: true,
//	  scale: |x; factor = 2| x * factor,
//	  total: std.sum(ports),
//	  motd::
//	    Indented lines following a double colon
//	    form a multi-line string.
//	}
//
// Lists and maps support splats (`...xs`), comprehension loops (`for b in
// xs: e`) and conditions (`when c: e`). Bindings destructure lists and maps
// with defaults and slurps. Functions are closures written `|a, b; kw = 1|
// body` or `{|kw|} body`; they capture the values of their free names when
// created and cannot refer to themselves.
//
// # Evaluation
//
// [Eval] evaluates source text, [EvalFile] a file on disk, and [Call] a
// function value. Imports are satisfied by a [Resolver]: the bundled "std"
// module is always available, paths relative to the importing file are
// resolved when the source has a location, and hosts may add their own with
// [WithResolver], such as the "sys" module of [SysResolver].
//
// Errors are *[Error] values whose [Reason] identifies the failure and
// whose stack of frames records where it occurred. Errors returned by the
// entry points are rendered against the source, with the offending spans
// marked.
//
// Parsing is cached per process by source and options, and resolved imports
// may be cached across runs in a [Store] with [WithStore].
package lang
