package search

import (
	"strings"
	"testing"
)

func TestAnalyzeCountsCaseInsensitive(t *testing.T) {
	texts := []string{
		"Deploy the service, then deploy again",
		"nothing here",
		"DEPLOY",
	}

	result := Analyze(texts, "  deploy ", Options{})
	if result.Count != 3 {
		t.Fatalf("Count = %d, want 3", result.Count)
	}
	if !strings.HasPrefix(result.Context, "Deploy the service") {
		t.Fatalf("Context = %q", result.Context)
	}
}

func TestAnalyzeNonOverlapping(t *testing.T) {
	if got := Analyze([]string{"aaaa"}, "aa", Options{}).Count; got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
}

func TestAnalyzeEmptyQuery(t *testing.T) {
	result := Analyze([]string{"anything"}, "   ", Options{})
	if result.Count != 0 || result.Context != "" {
		t.Fatalf("empty query matched: %#v", result)
	}
}

func TestAnalyzeContextWindow(t *testing.T) {
	text := strings.Repeat("a", 40) + "needle" + strings.Repeat("b", 40)

	result := Analyze([]string{text}, "needle", Options{Window: 5, Width: 100})
	if result.Context != "aaaaaneedlebbbbb" {
		t.Fatalf("Context = %q", result.Context)
	}

	result = Analyze([]string{text}, "needle", Options{})
	if want := strings.Repeat("a", 25) + "needle" + strings.Repeat("b", 25); result.Context != want {
		t.Fatalf("Context = %q, want %q", result.Context, want)
	}

	result = Analyze([]string{text}, "needle", Options{Window: 30})
	want := strings.Repeat("a", 30) + "needle" + strings.Repeat("b", 30)
	if result.Context != want[:57]+"..." {
		t.Fatalf("Context = %q", result.Context)
	}
}

func TestAnalyzeContextCollapsesNewlines(t *testing.T) {
	result := Analyze([]string{"first line\nthe match\nlast"}, "match", Options{})
	if strings.Contains(result.Context, "\n") {
		t.Fatalf("context contains newline: %q", result.Context)
	}
	if result.Context != "first line the match last" {
		t.Fatalf("Context = %q", result.Context)
	}
}

func TestAnalyzeMultibyte(t *testing.T) {
	result := Analyze([]string{"héllo wörld, héllo"}, "HÉLLO", Options{Window: 2})
	if result.Count != 2 {
		t.Fatalf("Count = %d, want 2", result.Count)
	}
	if result.Context != "héllo w" {
		t.Fatalf("Context = %q", result.Context)
	}
}

func TestSnippet(t *testing.T) {
	cases := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 50, "short"},
		{"  padded\nlines  ", 50, "padded lines"},
		{strings.Repeat("x", 60), 50, strings.Repeat("x", 47) + "..."},
		{"abcdef", 2, "ab"},
	}
	for _, tc := range cases {
		if got := Snippet(tc.text, tc.width); got != tc.want {
			t.Fatalf("Snippet(%q, %d) = %q, want %q", tc.text, tc.width, got, tc.want)
		}
	}
}
