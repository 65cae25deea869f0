package adapters

import (
	"strings"

	"github.com/yoavf/as-i-was-saying/model"
)

// GeminiAdapter reads Gemini CLI sessions.
// Gemini stores each session as a single JSON document in
// ~/.gemini/tmp/<project-hash>/chats/session-<time>-<id>.json with a
// messages array whose entries are typed user, gemini, error or info.
type GeminiAdapter struct{}

// Backend returns the adapter's backend.
func (g *GeminiAdapter) Backend() model.Backend {
	return model.BackendGemini
}

// Layout returns the on-disk layout of Gemini sessions.
func (g *GeminiAdapter) Layout() Layout {
	return Layout{
		EnvVar:      "GEMINI_LOG_DIR",
		DefaultDir:  ".gemini/tmp",
		Format:      FormatDocument,
		Extension:   ".json",
		ChatsDir:    "chats",
		FilePattern: "session-*.json",
	}
}

// Normalize converts one Gemini message into canonical events.
func (g *GeminiAdapter) Normalize(raw map[string]any) []model.Event {
	timestamp := stringField(raw, "timestamp")
	messageType := strings.ToLower(stringField(raw, "type"))

	switch messageType {
	case "user":
		return singleEvent(model.RoleUser, timestamp, model.Text{Content: geminiText(raw["content"])})

	case "gemini":
		blocks := g.assistantBlocks(raw)
		if len(blocks) == 0 {
			return nil
		}
		return []model.Event{{Role: model.RoleAssistant, Timestamp: timestamp, Blocks: blocks}}

	case "error", "info":
		label := strings.ToUpper(messageType[:1]) + messageType[1:]
		content, ok := raw["content"]
		if !ok {
			content = ""
		}
		return metaEvent(timestamp, model.Meta{Label: label, Content: content})

	default:
		return nil
	}
}

// geminiText returns message content as text. Newer Gemini CLI versions
// record content as a list of parts.
func geminiText(content any) string {
	switch value := content.(type) {
	case string:
		return value
	case []any:
		var parts []string
		for _, item := range value {
			if part, ok := item.(map[string]any); ok {
				if text := stringField(part, "text"); text != "" {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "\n")
	default:
		return stringify(value)
	}
}

func (g *GeminiAdapter) assistantBlocks(raw map[string]any) []model.Block {
	var blocks []model.Block

	for _, item := range sliceField(raw, "thoughts") {
		thought, ok := item.(map[string]any)
		if !ok {
			continue
		}
		description := stringField(thought, "description")
		if description == "" {
			continue
		}
		if subject := stringField(thought, "subject"); subject != "" {
			description = "**" + subject + "**\n" + description
		}
		blocks = append(blocks, model.Thinking{Content: description})
	}

	if content := geminiText(raw["content"]); content != "" {
		blocks = append(blocks, model.Text{Content: content})
	}

	for _, item := range sliceField(raw, "toolCalls") {
		call, ok := item.(map[string]any)
		if !ok {
			continue
		}
		blocks = append(blocks,
			model.ToolUse{Name: stringField(call, "name"), Input: call["args"]},
			geminiToolResult(sliceField(call, "result")),
		)
	}

	return blocks
}

// geminiToolResult derives a tool result from the first entry of a tool
// call's result list.
func geminiToolResult(results []any) model.ToolResult {
	if len(results) == 0 {
		return model.ToolResult{Content: ""}
	}

	item, ok := results[0].(map[string]any)
	if !ok {
		return model.ToolResult{Content: stringify(results[0])}
	}

	if functionResponse, ok := item["functionResponse"]; ok {
		responseMap, _ := functionResponse.(map[string]any)
		response, ok := responseMap["response"]
		if !ok {
			response = map[string]any{}
		}
		if body, ok := response.(map[string]any); ok {
			if output, ok := body["output"]; ok {
				return model.ToolResult{Content: output}
			}
			if errValue, ok := body["error"]; ok {
				return model.ToolResult{Content: stringify(errValue), IsError: true}
			}
		}
		return model.ToolResult{Content: stringify(response)}
	}

	if errValue, ok := item["error"]; ok {
		if errValue == nil {
			errValue = "Unknown error"
		}
		return model.ToolResult{Content: errValue, IsError: true}
	}

	return model.ToolResult{Content: stringify(item)}
}

// SessionID returns the trailing segment of the session file name.
func (g *GeminiAdapter) SessionID(path string) string {
	return lastDashSegment(fileStem(path), "session-")
}

// FullSessionID returns the sessionId recorded in the document, falling
// back to the file name.
func (g *GeminiAdapter) FullSessionID(path string) string {
	if data, err := readSessionFile(path); err == nil {
		var header struct {
			SessionID any `json:"sessionId"`
		}
		if decodeJSON(data, &header) == nil {
			if id, ok := header.SessionID.(string); ok && id != "" {
				return id
			}
		}
	}

	stem := fileStem(path)
	if match := uuidPattern.FindString(stem); match != "" {
		return match
	}
	return strings.TrimPrefix(stem, "session-")
}
