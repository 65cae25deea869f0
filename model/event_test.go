package model

import (
	"encoding/json"
	"strings"
	"testing"
)

type kindCounter struct {
	kinds []BlockKind
}

func (c *kindCounter) VisitText(Text)             { c.kinds = append(c.kinds, KindText) }
func (c *kindCounter) VisitThinking(Thinking)     { c.kinds = append(c.kinds, KindThinking) }
func (c *kindCounter) VisitToolUse(ToolUse)       { c.kinds = append(c.kinds, KindToolUse) }
func (c *kindCounter) VisitToolResult(ToolResult) { c.kinds = append(c.kinds, KindToolResult) }
func (c *kindCounter) VisitMeta(Meta)             { c.kinds = append(c.kinds, KindMeta) }
func (c *kindCounter) VisitUnknown(Unknown)       { c.kinds = append(c.kinds, KindUnknown) }

func TestBlockVisitorDispatch(t *testing.T) {
	blocks := []Block{
		Text{Content: "hi"},
		Thinking{Content: "hmm"},
		ToolUse{Name: "shell"},
		ToolResult{Content: "ok"},
		Meta{Label: "Token Count"},
		Unknown{SourceTag: "claude:image"},
	}

	counter := &kindCounter{}
	for _, block := range blocks {
		block.Accept(counter)
	}

	for i, block := range blocks {
		if counter.kinds[i] != block.Kind() {
			t.Fatalf("block %d visited as %s, want %s", i, counter.kinds[i], block.Kind())
		}
	}
}

func TestEventMarshalJSON(t *testing.T) {
	event := Event{
		Role:      RoleAssistant,
		Timestamp: "2025-01-01T00:00:00Z",
		Blocks: []Block{
			Text{Content: "done"},
			ToolUse{Name: "shell", Input: map[string]any{"cmd": "ls"}},
			ToolResult{Content: "file.txt", IsError: true},
			Unknown{SourceTag: "event_msg", Raw: map[string]any{"type": "other"}},
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	got := string(data)
	for _, want := range []string{
		`"role":"assistant"`,
		`{"type":"text","text":"done"}`,
		`{"type":"tool_use","name":"shell","input":{"cmd":"ls"}}`,
		`{"type":"tool_result","content":"file.txt","is_error":true}`,
		`{"type":"unknown","source":"event_msg","raw":{"type":"other"}}`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("marshalled event %s missing %s", got, want)
		}
	}
}

func TestEventJoinedText(t *testing.T) {
	event := Event{
		Role: RoleUser,
		Blocks: []Block{
			Text{Content: " first"},
			Thinking{Content: "ignored"},
			Text{Content: "second "},
		},
	}

	if got := event.JoinedText(); got != "first second" {
		t.Fatalf("JoinedText = %q, want %q", got, "first second")
	}
	if !event.HasText() {
		t.Fatal("HasText = false, want true")
	}
	if (Event{Blocks: []Block{Meta{}}}).HasText() {
		t.Fatal("HasText = true for meta-only event")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"user":      RoleUser,
		"Assistant": RoleAssistant,
		"system":    RoleMeta,
		"developer": RoleMeta,
		"":          RoleMeta,
	}
	for input, want := range cases {
		if got := ParseRole(input); got != want {
			t.Fatalf("ParseRole(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestParseBackend(t *testing.T) {
	if b, err := ParseBackend(" Codex "); err != nil || b != BackendCodex {
		t.Fatalf("ParseBackend(Codex) = %q, %v", b, err)
	}
	if _, err := ParseBackend("cursor"); err == nil {
		t.Fatal("ParseBackend(cursor) expected error")
	}
	if BackendGemini.Abbrev() != "GMN" || BackendClaude.Abbrev() != "CLD" || BackendCodex.Abbrev() != "CDX" {
		t.Fatal("unexpected backend abbreviations")
	}
}

func TestTextEvents(t *testing.T) {
	events := []Event{
		{Role: RoleMeta, Blocks: []Block{Meta{Label: "Session Meta"}}},
		{Role: RoleUser, Blocks: []Block{Text{Content: "one"}}},
		{Role: RoleAssistant, Blocks: []Block{ToolUse{Name: "ls"}}},
		{Role: RoleAssistant, Blocks: []Block{Text{Content: "two"}}},
		{Role: RoleUser, Blocks: []Block{Text{Content: "three"}}},
	}

	joined := func(events []Event) string {
		var parts []string
		for _, event := range events {
			parts = append(parts, event.JoinedText())
		}
		return strings.Join(parts, ",")
	}

	if got := TextEvents(events, 0, 0); len(got) != len(events) {
		t.Fatalf("no limits kept %d events", len(got))
	}
	if got := joined(TextEvents(events, 2, 0)); got != "one,two" {
		t.Fatalf("head = %q", got)
	}
	if got := joined(TextEvents(events, 0, 2)); got != "two,three" {
		t.Fatalf("tail = %q", got)
	}
	if got := joined(TextEvents(events, 2, 1)); got != "one,two" {
		t.Fatalf("head should win over tail, got %q", got)
	}
	if got := joined(TextEvents(events, 0, 10)); got != "one,two,three" {
		t.Fatalf("oversized tail = %q", got)
	}
}
