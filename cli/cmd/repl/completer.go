package repl

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/gold/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "clear", "quit"}

// keywords are completed at the top level along with bound names.
var keywords = []string{
	"let", "in", "if", "then", "else", "for", "when", "import", "as",
	"and", "or", "not", "true", "false", "null",
}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes. Only identifier characters continue a word.
func isWordBoundary(r rune) bool {
	return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
		!unicode.In(r, unicode.Mn, unicode.Mc, unicode.Pc)
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary (after a space,
// between dots, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the current word.
// For input "x + server.http.ho" with the word "ho", the parent path is
// "server.http". Returns "" for words not preceded by a dot.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, ".")

	// Walk backward collecting identifiers joined by dots.
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.Trim(prefix[pos:], ".")
}

// resolvePath looks up a dotted member path in the session.
func resolvePath(s *lang.Session, path string) (lang.Value, bool) {
	segments := strings.Split(path, ".")

	v, ok := s.Lookup(segments[0])
	if !ok {
		return lang.Value{}, false
	}

	for _, seg := range segments[1:] {
		m, ok := v.Map()
		if !ok {
			return lang.Value{}, false
		}

		if v, ok = m.Lookup(seg); !ok {
			return lang.Value{}, false
		}
	}

	return v, true
}

// childCandidates returns the names that are valid completions for the given
// parent path. For an empty parent, returns all names visible in the session
// followed by the keywords. For a non-empty parent, returns the keys of the
// map the path refers to that can be written after a dot.
func childCandidates(s *lang.Session, parent string) []string {
	if parent == "" {
		return append(s.Names(), keywords...)
	}

	v, ok := resolvePath(s, parent)
	if !ok {
		return nil
	}

	m, ok := v.Map()
	if !ok {
		return nil
	}

	var names []string

	for k := range m.Keys() {
		if name := k.String(); isIdentifier(name) {
			names = append(names, name)
		}
	}

	return names
}

func isIdentifier(s string) bool {
	if s == "" || slices.Contains(keywords, s) {
		return false
	}

	for i, r := range s {
		if isWordBoundary(r) || (i == 0 && unicode.IsDigit(r)) {
			return false
		}
	}

	return true
}

// computeMatches ranks the completion candidates for the word at the
// cursor and returns them with the byte bounds of that word. An empty word
// has no matches at the top level, which leaves the hint line visible, but
// matches every member after a dot.
func (m model) computeMatches() (fuzzy.Matches, int, int) {
	input := m.input.Value()
	word, start, end := wordBounds(input, m.input.Position())

	var candidates []string

	switch {
	case m.mode == modeCtrl && word != "":
		candidates = ctrlCommands

	case m.mode == modeEval && !inString(input, start):
		parent := parentPath(input, start)
		candidates = childCandidates(m.session, parent)

		if word == "" && parent != "" {
			all := make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				all[i] = fuzzy.Match{Str: c, Index: i}
			}

			return all, start, end
		}
	}

	if word == "" || len(candidates) == 0 {
		return nil, start, end
	}

	return fuzzy.Find(word, candidates), start, end
}

// inString reports whether offset pos of input is inside a string literal.
// Interpolations are treated as part of the string.
func inString(input string, pos int) bool {
	var quote rune

	escaped := false

	for _, r := range input[:pos] {
		switch {
		case escaped:
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		}
	}

	return quote != 0
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func (m model) renderCandidateBar() string {
	if len(m.comp.matches) == 0 || m.width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range m.comp.matches {
		selected := m.comp.cycling && i == m.comp.selected
		rendered := renderCandidate(match, selected, m.isFunction(match.Str))
		candidateWidth := lipgloss.Width(rendered)

		entryWidth := candidateWidth
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > m.width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected, function bool) string {
	baseStyle := suggestionStyle
	highlightStyle := suggestionStyle.Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = selectedStyle.Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(ch))
		} else {
			b.WriteString(baseStyle.Render(ch))
		}
	}

	if function {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// isFunction reports whether the candidate name, completed in the current
// member chain, refers to a function.
func (m model) isFunction(name string) bool {
	if parent := parentPath(m.input.Value(), m.comp.start); parent != "" {
		name = parent + "." + name
	}

	v, ok := resolvePath(m.session, name)

	return ok && v.Type() == lang.TypeFunction
}

// maxPreview is the width at which value previews are truncated.
const maxPreview = 40

// formatPreview generates a short preview of a value.
func formatPreview(v lang.Value) string {
	switch v.Type() {
	case lang.TypeMap:
		m, _ := v.Map()

		return "{ " + strconv.Itoa(m.Len()) + " entries }"

	case lang.TypeList:
		l, _ := v.List()

		return "[ " + strconv.Itoa(l.Len()) + " items ]"

	case lang.TypeFunction:
		if sig, _ := signatureOf(v, ""); sig != "" {
			return sig
		}
	}

	s := v.String()
	if utf8.RuneCountInString(s) > maxPreview {
		return string([]rune(s)[:maxPreview-3]) + "..."
	}

	return s
}
