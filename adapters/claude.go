package adapters

import (
	"strings"

	"github.com/yoavf/as-i-was-saying/model"
)

// ClaudeAdapter reads Claude Code sessions.
// Claude stores sessions as JSONL files in ~/.claude/projects/<project-dir>/<uuid>.jsonl.
// Each line is a row whose type is user, assistant, summary, system and so on;
// only user and assistant rows carry conversation content.
type ClaudeAdapter struct{}

// Backend returns the adapter's backend.
func (c *ClaudeAdapter) Backend() model.Backend {
	return model.BackendClaude
}

// Layout returns the on-disk layout of Claude sessions.
func (c *ClaudeAdapter) Layout() Layout {
	return Layout{
		EnvVar:     "CLAUDE_LOG_DIR",
		DefaultDir: ".claude/projects",
		Format:     FormatJSONL,
		Extension:  ".jsonl",
		Exclude:    "agent-",
	}
}

// Normalize converts one Claude row into canonical events.
func (c *ClaudeAdapter) Normalize(raw map[string]any) []model.Event {
	rowType := stringField(raw, "type")
	if rowType != "user" && rowType != "assistant" {
		return nil
	}

	message := mapField(raw, "message")
	role := stringField(message, "role")
	if role == "" {
		role = rowType
	}

	var blocks []model.Block
	switch content := message["content"].(type) {
	case string:
		blocks = append(blocks, model.Text{Content: content})
	case []any:
		for _, item := range content {
			blocks = append(blocks, claudeBlock(item))
		}
	}

	if len(blocks) == 0 {
		return nil
	}

	return []model.Event{{
		Role:      model.ParseRole(role),
		Timestamp: stringField(raw, "timestamp"),
		Blocks:    blocks,
	}}
}

// claudeBlock decodes one element of a Claude content list.
func claudeBlock(item any) model.Block {
	block, ok := item.(map[string]any)
	if !ok {
		return model.Unknown{SourceTag: "claude:content", Raw: item}
	}

	blockType := stringField(block, "type")
	switch blockType {
	case "text":
		return model.Text{Content: stringField(block, "text")}
	case "thinking":
		return model.Thinking{Content: stringField(block, "thinking")}
	case "tool_use":
		return model.ToolUse{Name: stringField(block, "name"), Input: block["input"]}
	case "tool_result":
		content := block["content"]
		if content == nil {
			content = ""
		}
		isError, _ := block["is_error"].(bool)
		return model.ToolResult{Content: content, IsError: isError}
	default:
		return model.Unknown{SourceTag: "claude:" + blockType, Raw: block}
	}
}

// SessionID returns the first segment of the session file's UUID.
func (c *ClaudeAdapter) SessionID(path string) string {
	return strings.Split(fileStem(path), "-")[0]
}

// FullSessionID returns the UUID embedded in the file name.
func (c *ClaudeAdapter) FullSessionID(path string) string {
	stem := fileStem(path)
	if id := uuidPattern.FindString(stem); id != "" {
		return id
	}
	return strings.TrimPrefix(stem, "agent-")
}
