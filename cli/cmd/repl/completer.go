package repl

import (
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/nixsyn/lang"
	"github.com/ardnew/nixsyn/lang/tree"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "tree", "errors", "stats", "kinds", "edit", "reload", "clear", "quit",
}

// queryOperators are the word operators of the query language.
var queryOperators = []string{
	"and", "or", "not", "in", "matches", "contains", "startsWith", "endsWith",
	"true", "false",
}

// bareCandidates are completed outside string literals: the node fields a
// query can refer to, the kind names usable as shorthand, operators and
// builtin functions.
var bareCandidates = sync.OnceValue(func() []string {
	var names []string

	names = append(names, lang.QueryFields()...)
	names = append(names, lang.KindNames()...)
	names = append(names, queryOperators...)
	names = append(names, builtinNames()...)

	slices.Sort(names)

	return slices.Compact(names)
})

// quotedCandidates are completed inside string literals, where a query
// compares against kind and field names.
var quotedCandidates = sync.OnceValue(func() []string {
	names := lang.KindNames()
	for f := range tree.Fields() {
		names = append(names, f.String())
	}

	slices.Sort(names)

	return slices.Compact(names)
})

// isWordBoundary reports whether r delimits words for completion: white
// space, quotes, and the operator and punctuation characters of queries.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '.',
		'"', '\'', '`',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%', '^',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor and its byte boundaries within
// input. The word is empty when the cursor sits on a boundary.
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

// inString reports whether offset lies inside a string literal of input.
func inString(input string, offset int) bool {
	var quote rune

	for i, r := range input {
		if i >= offset {
			break
		}

		switch {
		case quote == 0 && (r == '"' || r == '\'' || r == '`'):
			quote = r
		case r == quote:
			quote = 0
		}
	}

	return quote != 0
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best-first, with the word boundaries. An empty word has no
// matches, so the hint line stays visible.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())
	if word == "" {
		return nil, wordStart, wordEnd
	}

	var candidates []string

	switch {
	case m.mode == modeCtrl:
		candidates = ctrlCommands
	case inString(input, wordStart):
		candidates = quotedCandidates()
	default:
		candidates = bareCandidates()
	}

	return fuzzy.Find(word, candidates), wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing) uses
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

		last := i == len(matches)-1

		reserve := ellipsisWidth
		if last {
			reserve = 0
		}

		if i > 0 && used+entryWidth+reserve > width {
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
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if isFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
