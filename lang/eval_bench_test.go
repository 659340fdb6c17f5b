package lang

import (
	"context"
	"fmt"
	"testing"
)

// BenchmarkEval benchmarks parsing and evaluation of complete programs.
func BenchmarkEval(b *testing.B) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "simple_arithmetic",
			source: "let x = 10 let y = 20 in x + y",
		},
		{
			name:   "interpolation",
			source: `let name = "World" in "Hello, ${name}!"`,
		},
		{
			name:   "comprehension",
			source: "[for x in range(100) when x // 2 * 2 == x: x * x]",
		},
		{
			name:   "map_build",
			source: "{for i in range(50): \"k${i}\": i}",
		},
		{
			name:   "std_call",
			source: "import \"std\" as std\nstd.sum(range(100))",
		},
		{
			name:   "recursion",
			source: "let fib = |f, n| if n < 2 then n else f(f, n - 1) + f(f, n - 2) in fib(fib, 12)",
		},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			if _, err := Eval(context.Background(), tt.source); err != nil {
				b.Fatalf("eval error: %v", err)
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := Eval(context.Background(), tt.source); err != nil {
					b.Fatalf("eval error: %v", err)
				}
			}
		})
	}
}

// BenchmarkParse_CacheEffect compares parsing fresh source against parsing
// source that is already cached.
func BenchmarkParse_CacheEffect(b *testing.B) {
	const source = `{name: "gold", ports: [80, 443], tls: {enabled: true}}`

	ClearCache()

	b.Run("first_parse", func(b *testing.B) {
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := Parse(context.Background(), fmt.Sprintf("[%d, %s]", i, source)); err != nil {
				b.Fatalf("parse error: %v", err)
			}
		}
	})

	b.Run("cached_parse", func(b *testing.B) {
		_, _ = Parse(context.Background(), source)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := Parse(context.Background(), source); err != nil {
				b.Fatalf("parse error: %v", err)
			}
		}
	})
}

// BenchmarkSession benchmarks incremental evaluation against a growing
// namespace.
func BenchmarkSession(b *testing.B) {
	s := NewSession()

	if _, err := s.Eval(context.Background(), "let double = |n| n * 2 let base = 21"); err != nil {
		b.Fatalf("define error: %v", err)
	}

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := s.Eval(context.Background(), "double(base)"); err != nil {
			b.Fatalf("eval error: %v", err)
		}
	}
}
