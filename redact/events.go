package redact

import "github.com/yoavf/as-i-was-saying/model"

// Events returns redacted copies of events. Roles, timestamps, tool names
// and block kinds are kept; every other string is redacted.
func (r *Redactor) Events(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	for i, event := range events {
		blocks := make([]model.Block, len(event.Blocks))
		for j, block := range event.Blocks {
			blocks[j] = r.Block(block)
		}
		out[i] = model.Event{Role: event.Role, Timestamp: event.Timestamp, Blocks: blocks}
	}
	return out
}

// Block returns a redacted copy of one block.
func (r *Redactor) Block(block model.Block) model.Block {
	v := &blockRedactor{r: r}
	block.Accept(v)
	return v.out
}

type blockRedactor struct {
	r   *Redactor
	out model.Block
}

func (v *blockRedactor) VisitText(b model.Text) {
	v.out = model.Text{Content: v.r.String(b.Content)}
}

func (v *blockRedactor) VisitThinking(b model.Thinking) {
	v.out = model.Thinking{Content: v.r.String(b.Content)}
}

func (v *blockRedactor) VisitToolUse(b model.ToolUse) {
	v.out = model.ToolUse{Name: b.Name, Input: v.r.Redact(b.Input)}
}

func (v *blockRedactor) VisitToolResult(b model.ToolResult) {
	v.out = model.ToolResult{Content: v.r.Redact(b.Content), IsError: b.IsError}
}

func (v *blockRedactor) VisitMeta(b model.Meta) {
	v.out = model.Meta{Label: b.Label, Content: v.r.Redact(b.Content)}
}

func (v *blockRedactor) VisitUnknown(b model.Unknown) {
	v.out = model.Unknown{SourceTag: b.SourceTag, Raw: v.r.Redact(b.Raw)}
}
