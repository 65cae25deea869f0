package adapters

import (
	"strings"

	"github.com/yoavf/as-i-was-saying/model"
)

// reasoningPlaceholder stands in for a reasoning item whose summary is empty.
const reasoningPlaceholder = "[Reasoning summary unavailable]"

// CodexAdapter reads OpenAI Codex CLI sessions.
// Codex stores sessions as JSONL files in ~/.codex/sessions/YYYY/MM/DD/rollout-<time>-<uuid>.jsonl.
// Every line carries a type (session_meta, turn_context, event_msg,
// response_item) and a payload.
type CodexAdapter struct{}

// Backend returns the adapter's backend.
func (c *CodexAdapter) Backend() model.Backend {
	return model.BackendCodex
}

// Layout returns the on-disk layout of Codex sessions.
func (c *CodexAdapter) Layout() Layout {
	return Layout{
		EnvVar:     "CODEX_LOG_DIR",
		DefaultDir: ".codex/sessions",
		Format:     FormatJSONL,
		Extension:  ".jsonl",
	}
}

// Normalize converts one Codex row into canonical events.
func (c *CodexAdapter) Normalize(raw map[string]any) []model.Event {
	payload := mapField(raw, "payload")
	timestamp := stringField(raw, "timestamp")

	switch stringField(raw, "type") {
	case "session_meta":
		return metaEvent(payloadTimestamp(payload, timestamp), model.Meta{Label: "Session Meta", Content: payload})
	case "turn_context":
		return metaEvent(payloadTimestamp(payload, timestamp), model.Meta{Label: "Turn Context", Content: payload})
	case "event_msg":
		return c.normalizeEventMsg(payload, timestamp)
	case "response_item":
		return c.normalizeResponseItem(payload, timestamp)
	default:
		return nil
	}
}

// payloadTimestamp prefers the timestamp recorded inside the payload.
func payloadTimestamp(payload map[string]any, rowTimestamp string) string {
	if ts := stringField(payload, "timestamp"); ts != "" {
		return ts
	}
	return rowTimestamp
}

func metaEvent(timestamp string, block model.Block) []model.Event {
	return []model.Event{{Role: model.RoleMeta, Timestamp: timestamp, Blocks: []model.Block{block}}}
}

func singleEvent(role model.Role, timestamp string, block model.Block) []model.Event {
	return []model.Event{{Role: role, Timestamp: timestamp, Blocks: []model.Block{block}}}
}

func (c *CodexAdapter) normalizeEventMsg(payload map[string]any, timestamp string) []model.Event {
	text := stringField(payload, "text")
	if text == "" {
		text = stringField(payload, "message")
	}

	switch stringField(payload, "type") {
	case "user_message":
		return singleEvent(model.RoleUser, timestamp, model.Text{Content: text})
	case "agent_message":
		return singleEvent(model.RoleAssistant, timestamp, model.Text{Content: text})
	case "agent_reasoning":
		return singleEvent(model.RoleAssistant, timestamp, model.Thinking{Content: text})
	case "token_count":
		return metaEvent(timestamp, model.Meta{Label: "Token Count", Content: payload})
	default:
		return metaEvent(timestamp, model.Unknown{SourceTag: "event_msg", Raw: payload})
	}
}

func (c *CodexAdapter) normalizeResponseItem(payload map[string]any, timestamp string) []model.Event {
	itemType := stringField(payload, "type")

	switch itemType {
	case "message":
		return c.normalizeMessage(payload, timestamp)

	case "function_call":
		role := model.RoleAssistant
		if r := stringField(payload, "role"); r != "" {
			role = model.ParseRole(r)
		}
		arguments, ok := payload["arguments"]
		if !ok {
			arguments = ""
		}
		return singleEvent(role, timestamp, model.ToolUse{
			Name:  stringField(payload, "name"),
			Input: parseJSONMaybe(arguments),
		})

	case "function_call_output":
		output, ok := payload["output"]
		if !ok {
			output = ""
		}
		return singleEvent(model.RoleAssistant, timestamp, model.ToolResult{Content: output})

	case "reasoning":
		thinking := reasoningSummary(payload["summary"])
		if thinking == "" {
			thinking = reasoningPlaceholder
		}
		return singleEvent(model.RoleAssistant, timestamp, model.Thinking{Content: thinking})

	default:
		return metaEvent(timestamp, model.Unknown{SourceTag: "response_item:" + itemType, Raw: payload})
	}
}

func (c *CodexAdapter) normalizeMessage(payload map[string]any, timestamp string) []model.Event {
	content, ok := payload["content"].([]any)
	if !ok {
		return nil
	}

	if role := stringField(payload, "role"); role != "" {
		text := joinItemTexts(content)
		if text == "" {
			return nil
		}
		return singleEvent(model.ParseRole(role), timestamp, model.Text{Content: text})
	}

	var events []model.Event
	for _, item := range content {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text := stringField(entry, "text")
		if text == "" {
			continue
		}
		role := model.RoleAssistant
		if stringField(entry, "type") == "input_text" {
			role = model.RoleUser
		}
		events = append(events, singleEvent(role, timestamp, model.Text{Content: text})...)
	}
	return events
}

// joinItemTexts joins the text of each content item with newlines.
func joinItemTexts(items []any) string {
	var parts []string
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if text := stringField(entry, "text"); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// reasoningSummary flattens a reasoning summary into text.
func reasoningSummary(summary any) string {
	switch value := summary.(type) {
	case string:
		return value
	case []any:
		var parts []string
		for _, item := range value {
			if entry, ok := item.(map[string]any); ok {
				if text := stringField(entry, "text"); text != "" {
					parts = append(parts, text)
					continue
				}
			}
			parts = append(parts, stringify(item))
		}
		return strings.TrimSpace(strings.Join(parts, "\n"))
	default:
		return ""
	}
}

// SessionID returns the trailing segment of the rollout file name.
func (c *CodexAdapter) SessionID(path string) string {
	return lastDashSegment(fileStem(path), "rollout-")
}

// FullSessionID returns the id from the session_meta row, falling back to
// the UUID embedded in the file name.
func (c *CodexAdapter) FullSessionID(path string) string {
	var id string
	_ = ReadRecords(path, FormatJSONL, func(record Record) bool {
		if stringField(record.Raw, "type") != "session_meta" {
			return true
		}
		id = stringField(mapField(record.Raw, "payload"), "id")
		return false
	})
	if id != "" {
		return id
	}

	stem := fileStem(path)
	if match := uuidPattern.FindString(stem); match != "" {
		return match
	}
	return strings.TrimPrefix(stem, "rollout-")
}
