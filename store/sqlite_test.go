package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ardnew/gold/lang"
)

func openMemory(t *testing.T) *SQLite {
	t.Helper()

	s, err := OpenDSN(t.Context(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestSQLite_LoadStore(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	ctx := t.Context()

	if _, found, err := s.Load(ctx, "k"); err != nil || found {
		t.Fatalf("Load(missing) = %t, %v", found, err)
	}

	for _, data := range [][]byte{[]byte("first"), []byte("second")} {
		if err := s.Store(ctx, "k", data); err != nil {
			t.Fatal(err)
		}

		got, found, err := s.Load(ctx, "k")
		if err != nil || !found || !bytes.Equal(got, data) {
			t.Errorf("Load(k) = %q, %t, %v, want %q", got, found, err, data)
		}
	}

	if err := s.Store(ctx, "other", []byte("x")); err != nil {
		t.Fatal(err)
	}

	if n, err := s.Len(ctx); err != nil || n != 2 {
		t.Errorf("Len() = %d, %v, want 2", n, err)
	}
}

func TestSQLite_Prune(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	ctx := t.Context()

	for _, key := range []string{"a", "b", "c"} {
		if err := s.Store(ctx, key, []byte(key)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Errorf("Prune(past) = %d, %v, want 0", n, err)
	}

	n, err = s.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 3 {
		t.Errorf("Prune(future) = %d, %v, want 3", n, err)
	}

	if l, err := s.Len(ctx); err != nil || l != 0 {
		t.Errorf("Len() = %d, %v, want 0", l, err)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "cache")

	s, err := Open(t.Context(), dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Store(t.Context(), "k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("database file: %v", err)
	}

	s, err = Open(t.Context(), dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if got, found, err := s.Load(t.Context(), "k"); err != nil || !found || string(got) != "v" {
		t.Errorf("Load(k) after reopen = %q, %t, %v", got, found, err)
	}
}

func TestCachedResolver(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	ctx := t.Context()
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.gold")

	write := func(src string, mtime time.Time) {
		t.Helper()

		if err := os.WriteFile(lib, []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := os.Chtimes(lib, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	r := lang.CachedResolver(s, lang.FileResolver(dir), lang.WithStore(s))

	resolve := func(want string, entries int) {
		t.Helper()

		v, err := r.Resolve(ctx, "lib.gold")
		if err != nil {
			t.Fatal(err)
		}

		if v.String() != want {
			t.Errorf("Resolve() = %s, want %s", v, want)
		}

		if n, err := s.Len(ctx); err != nil || n != entries {
			t.Errorf("Len() = %d, %v, want %d", n, err, entries)
		}
	}

	now := time.Now()

	write(`{port: 80 * 100}`, now)
	resolve("{port: 8000}", 1)
	resolve("{port: 8000}", 1)

	write(`{port: 443}`, now.Add(time.Second))
	resolve("{port: 443}", 2)

	if _, err := r.Resolve(ctx, "missing.gold"); err == nil {
		t.Error("Resolve(missing.gold) succeeded")
	}
}

func TestCachedResolver_NestedImport(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	ctx := t.Context()
	dir := t.TempDir()
	now := time.Now()

	write := func(name, src string, mtime time.Time) {
		t.Helper()

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	eval := func(want string) {
		t.Helper()

		v, err := lang.EvalFile(ctx, filepath.Join(dir, "main.gold"), lang.WithStore(s))
		if err != nil {
			t.Fatal(err)
		}

		if v.String() != want {
			t.Errorf("EvalFile() = %s, want %s", v, want)
		}
	}

	write("main.gold", "import \"a.gold\" as a\na.b + 0", now)
	write("a.gold", "import \"b.gold\" as b\n{b: b}", now)
	write("b.gold", "1", now)

	eval("1")
	eval("1")

	write("b.gold", "2", now.Add(time.Second))
	eval("2")

	write("b.gold", "1", now)
	eval("1")
}
