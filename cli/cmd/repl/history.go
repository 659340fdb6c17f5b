package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

// HistoryEntry is one line of prompt input and the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// String returns the entry as a line of the history file.
func (e HistoryEntry) String() string {
	prefix := "E:"
	if e.Mode == modeCtrl {
		prefix = "C:"
	}

	return prefix + e.Line + "\n"
}

// parseEntry decodes a line of the history file. A line without a mode
// prefix is an expression.
func parseEntry(line string) HistoryEntry {
	if rest, ok := strings.CutPrefix(line, "C:"); ok {
		return HistoryEntry{Line: rest, Mode: modeCtrl}
	}

	return HistoryEntry{Line: strings.TrimPrefix(line, "E:"), Mode: modeEval}
}

// History holds the prompt input of both modes, oldest first. Each entry is
// unique per mode; entering a line again moves it to the end.
//
// With a non-empty path, the history is mirrored to a file with one
// [HistoryEntry.String] per line.
type History struct {
	mu      sync.RWMutex
	path    string
	entries []HistoryEntry
}

// NewHistory returns an empty history backed by the file at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with those of the history file. A missing file
// is an empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = h.entries[:0]

	if h.path == "" {
		return nil
	}

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			h.entries = append(h.entries, parseEntry(line))
		}
	}

	return sc.Err()
}

// Add records line as the newest entry of mode. Blank lines are ignored.
func (h *History) Add(line string, mode inputMode) error {
	e := HistoryEntry{Line: strings.TrimSpace(line), Mode: mode}
	if e.Line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == e {
		return nil
	}

	i := slices.Index(h.entries, e)
	if i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
	}

	h.entries = append(h.entries, e)

	if i >= 0 {
		return h.save(os.O_TRUNC, h.entries)
	}

	return h.save(os.O_APPEND, h.entries[len(h.entries)-1:])
}

// save writes entries to the history file opened with flag, which is either
// os.O_TRUNC or os.O_APPEND. The caller holds h.mu.
func (h *History) save(flag int, entries []HistoryEntry) error {
	if h.path == "" {
		return nil
	}

	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|flag, 0o600)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, e := range entries {
		_, _ = w.WriteString(e.String())
	}

	return errors.Join(w.Flush(), f.Close())
}

// At returns entry i, where 0 is the oldest.
func (h *History) At(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}
