package repl

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/eager/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "show", "eval", "edit", "clear", "quit"}

// keywords are the names every session can invoke.
var keywords = []string{"eager!", "lazy!", "macro_rules!", "eager_macro_rules!"}

// isWordBoundary reports whether r ends a completion word. The `!` of an
// invocation belongs to the word so that `add!` completes as one unit.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '&', '|', '^',
		',', ';', ':', '?', '.', '$', '#', '@':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte boundaries within input.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

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

// macroCandidates returns the invocation forms of every name in reg, followed
// by the keywords.
func macroCandidates(reg *lang.Registry) []string {
	names := reg.Names()
	out := make([]string, 0, len(names)+len(keywords))

	for _, name := range names {
		out = append(out, name+"!")
	}

	return append(out, keywords...)
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best first.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())
	if word == "" {
		return nil, nil, wordStart, wordEnd
	}

	switch {
	case m.mode == modeExpand:
		candidates = macroCandidates(m.session.registry)

	case wordStart == 0:
		candidates = ctrlCommands

	case isShowCommand(input[:wordStart]):
		candidates = m.session.registry.Names()

	default:
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// isShowCommand reports whether prefix is a show command awaiting its
// argument.
func isShowCommand(prefix string) bool {
	switch strings.TrimSpace(prefix) {
	case "s", "show":
		return true
	}

	return false
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// width. Matched characters are highlighted and the selected candidate uses
// the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
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

func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}

// preview summarizes m for the list command: its rule count, whether it is
// eager-enabled and the first line of its documentation.
func preview(m *lang.Macro) string {
	var b strings.Builder

	b.WriteString(strconv.Itoa(len(m.Rules())))

	if len(m.Rules()) == 1 {
		b.WriteString(" rule")
	} else {
		b.WriteString(" rules")
	}

	if m.Eager() {
		b.WriteString(", eager")
	}

	if doc := m.Doc(); len(doc) > 0 {
		line := strings.TrimSpace(doc[0])
		if len(line) > 40 {
			line = line[:37] + "..."
		}

		b.WriteString(" | " + line)
	}

	return b.String()
}
