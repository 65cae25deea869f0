// Package model defines the canonical event stream that every backend log is
// normalized into, along with the descriptor used to identify a session file.
package model

import (
	"encoding/json"
	"strings"
)

// Role identifies who produced an event.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleMeta      Role = "meta"
)

// ParseRole maps a backend role name onto the canonical roles.
// Anything that is neither a user nor an assistant turn (system prompts,
// developer instructions) is treated as meta.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser
	case "assistant":
		return RoleAssistant
	default:
		return RoleMeta
	}
}

// BlockKind is the wire discriminator of a block.
type BlockKind string

const (
	KindText       BlockKind = "text"
	KindThinking   BlockKind = "thinking"
	KindToolUse    BlockKind = "tool_use"
	KindToolResult BlockKind = "tool_result"
	KindMeta       BlockKind = "meta"
	KindUnknown    BlockKind = "unknown"
)

// Block is one typed content unit inside an event. The set of variants is
// closed: only the types in this package implement it.
type Block interface {
	Kind() BlockKind
	Accept(v BlockVisitor)
	isBlock()
}

// BlockVisitor has one method per block variant. Adding a variant adds a
// method here, so every visitor stops compiling until it handles it.
type BlockVisitor interface {
	VisitText(Text)
	VisitThinking(Thinking)
	VisitToolUse(ToolUse)
	VisitToolResult(ToolResult)
	VisitMeta(Meta)
	VisitUnknown(Unknown)
}

// Text is plain conversational text.
type Text struct {
	Content string
}

// Thinking is model reasoning that was surfaced in the log.
type Thinking struct {
	Content string
}

// ToolUse is a tool invocation. Input is arbitrary decoded JSON, or the raw
// argument string when it could not be decoded.
type ToolUse struct {
	Name  string
	Input any
}

// ToolResult is the output of a tool invocation. Content is a string or a
// list of structured parts, passed through as the backend recorded it.
type ToolResult struct {
	Content any
	IsError bool
}

// Meta carries structured metadata such as session headers or token counts.
type Meta struct {
	Label   string
	Content any
}

// Unknown preserves a record shape that no normalizer recognized.
type Unknown struct {
	SourceTag string
	Raw       any
}

func (Text) Kind() BlockKind       { return KindText }
func (Thinking) Kind() BlockKind   { return KindThinking }
func (ToolUse) Kind() BlockKind    { return KindToolUse }
func (ToolResult) Kind() BlockKind { return KindToolResult }
func (Meta) Kind() BlockKind       { return KindMeta }
func (Unknown) Kind() BlockKind    { return KindUnknown }

func (b Text) Accept(v BlockVisitor)       { v.VisitText(b) }
func (b Thinking) Accept(v BlockVisitor)   { v.VisitThinking(b) }
func (b ToolUse) Accept(v BlockVisitor)    { v.VisitToolUse(b) }
func (b ToolResult) Accept(v BlockVisitor) { v.VisitToolResult(b) }
func (b Meta) Accept(v BlockVisitor)       { v.VisitMeta(b) }
func (b Unknown) Accept(v BlockVisitor)    { v.VisitUnknown(b) }

func (Text) isBlock()       {}
func (Thinking) isBlock()   {}
func (ToolUse) isBlock()    {}
func (ToolResult) isBlock() {}
func (Meta) isBlock()       {}
func (Unknown) isBlock()    {}

func (b Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type BlockKind `json:"type"`
		Text string    `json:"text"`
	}{KindText, b.Content})
}

func (b Thinking) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     BlockKind `json:"type"`
		Thinking string    `json:"thinking"`
	}{KindThinking, b.Content})
}

func (b ToolUse) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  BlockKind `json:"type"`
		Name  string    `json:"name"`
		Input any       `json:"input"`
	}{KindToolUse, b.Name, b.Input})
}

func (b ToolResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    BlockKind `json:"type"`
		Content any       `json:"content"`
		IsError bool      `json:"is_error"`
	}{KindToolResult, b.Content, b.IsError})
}

func (b Meta) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    BlockKind `json:"type"`
		Label   string    `json:"label"`
		Content any       `json:"content"`
	}{KindMeta, b.Label, b.Content})
}

func (b Unknown) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   BlockKind `json:"type"`
		Source string    `json:"source"`
		Raw    any       `json:"raw"`
	}{KindUnknown, b.SourceTag, b.Raw})
}

// Event is one turn of the conversation in canonical form.
type Event struct {
	Role Role `json:"role"`

	// Timestamp is the ISO-8601 string recorded by the backend, or empty.
	Timestamp string `json:"timestamp"`

	Blocks []Block `json:"blocks"`
}

// Texts returns the contents of the event's text blocks in order.
func (e Event) Texts() []string {
	var texts []string
	for _, block := range e.Blocks {
		if text, ok := block.(Text); ok {
			texts = append(texts, text.Content)
		}
	}
	return texts
}

// JoinedText returns the event's text blocks joined by a single space and
// trimmed.
func (e Event) JoinedText() string {
	return strings.TrimSpace(strings.Join(e.Texts(), " "))
}

// HasText reports whether any block of the event is a text block.
func (e Event) HasText() bool {
	for _, block := range e.Blocks {
		if _, ok := block.(Text); ok {
			return true
		}
	}
	return false
}

// TextEvents keeps only the first head or, when head is not positive, the
// last tail events that carry text, in their original order. Events
// without text are dropped as well. With neither limit set the events are
// returned unchanged.
func TextEvents(events []Event, head, tail int) []Event {
	if head <= 0 && tail <= 0 {
		return events
	}

	var texts []Event
	for _, event := range events {
		if event.HasText() {
			texts = append(texts, event)
		}
	}
	if head > 0 {
		return texts[:min(head, len(texts))]
	}
	return texts[max(0, len(texts)-tail):]
}
