// Package search provides case-insensitive substring matching over session
// text, producing a match count and a short context snippet for ranking.
package search

import (
	"strings"
	"unicode/utf8"
)

// Default snippet geometry.
const (
	DefaultContextWindow = 25
	DefaultContextWidth  = 60
	DefaultSummaryWidth  = 50
)

// Options controls how match context is cut.
type Options struct {
	// Window is the number of characters kept on each side of the first match.
	Window int

	// Width is the maximum length of the collapsed context.
	Width int
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultContextWindow
	}
	if o.Width <= 0 {
		o.Width = DefaultContextWidth
	}
	return o
}

// Result is the outcome of matching a query against a session's text.
type Result struct {
	Count   int
	Context string
}

// Matcher counts case-insensitive occurrences of a query across text
// blocks. Feed it every text block in order with Add.
type Matcher struct {
	needle string
	opts   Options
	result Result
}

// NewMatcher returns a matcher for query. The query is trimmed; an empty
// query never matches.
func NewMatcher(query string, opts Options) *Matcher {
	return &Matcher{
		needle: strings.ToLower(strings.TrimSpace(query)),
		opts:   opts.withDefaults(),
	}
}

// Add counts the query's non-overlapping occurrences in text and captures
// context around the first occurrence seen so far.
func (m *Matcher) Add(text string) {
	if m.needle == "" || text == "" {
		return
	}

	lowered := strings.ToLower(text)
	count := strings.Count(lowered, m.needle)
	if count == 0 {
		return
	}
	m.result.Count += count

	if m.result.Context == "" {
		m.result.Context = contextAround(text, lowered, m.needle, m.opts)
	}
}

// Result returns the accumulated count and context.
func (m *Matcher) Result() Result {
	return m.result
}

// Analyze matches query against every text in order.
func Analyze(texts []string, query string, opts Options) Result {
	matcher := NewMatcher(query, opts)
	for _, text := range texts {
		matcher.Add(text)
	}
	return matcher.Result()
}

// contextAround cuts a window of characters around the first occurrence of
// needle. Lowercasing can change byte lengths for some scripts, in which
// case the lowered text is used for the snippet.
func contextAround(text, lowered, needle string, opts Options) string {
	source := text
	if len(lowered) != len(text) {
		source = lowered
	}

	idx := strings.Index(lowered, needle)
	if idx < 0 {
		return ""
	}

	start := idx
	for i := 0; i < opts.Window && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(source[:start])
		start -= size
	}

	end := idx + len(needle)
	for i := 0; i < opts.Window && end < len(source); i++ {
		_, size := utf8.DecodeRuneInString(source[end:])
		end += size
	}

	return Snippet(source[start:end], opts.Width)
}

// Snippet collapses text to a single line and truncates it to width
// characters, marking the cut with an ellipsis.
func Snippet(text string, width int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if width <= 0 || utf8.RuneCountInString(clean) <= width {
		return clean
	}
	if width <= 3 {
		return string([]rune(clean)[:width])
	}
	return string([]rune(clean)[:width-3]) + "..."
}
