package pkg

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "gold" {
		t.Errorf("Expected Name to be %q, got %q", "gold", Name)
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Expected Author to contain ardnew, got %v", Author)
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	err := ErrReadInput.Wrap(io.ErrUnexpectedEOF)

	if !errors.Is(err, ErrReadInput[0]) {
		t.Error("wrapped error does not match sentinel")
	}

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("wrapped error does not match cause")
	}

	if got, want := err.Error(), "failed to read input: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if len(ErrReadInput) != 1 {
		t.Errorf("Wrap() modified the sentinel: %v", ErrReadInput)
	}
}

func TestError_Wrapf(t *testing.T) {
	t.Parallel()

	err := ErrInvalidFormat.Wrapf("%q (valid: %s)", "toml", "gold, json, yaml")

	if got, want := err.Error(), `invalid format: "toml" (valid: gold, json, yaml)`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnwrapErrors(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	joined := errors.Join(inner, io.EOF)

	chain := UnwrapErrors(MakeError(joined))
	if !slices.Contains(chain, inner) || !slices.Contains(chain, io.EOF) {
		t.Errorf("UnwrapErrors() = %v", chain)
	}

	if UnwrapErrors(nil) != nil {
		t.Error("UnwrapErrors(nil) is not nil")
	}

	if MakeError() != nil {
		t.Error("MakeError() is not nil")
	}
}

func TestPrefixOf(t *testing.T) {
	t.Parallel()

	if got := prefixOf("/usr/bin/gold"); got == "" {
		t.Error("prefixOf() is empty")
	}
}

func TestDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"config": ConfigDir(),
		"cache":  CacheDir(),
	} {
		if filepath.Base(dir) != Prefix() {
			t.Errorf("%s dir %q does not end in %q", name, dir, Prefix())
		}
	}

	if filepath.Dir(HistoryFile()) != CacheDir() {
		t.Errorf("HistoryFile() = %q, want under %q", HistoryFile(), CacheDir())
	}
}
