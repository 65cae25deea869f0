// Package adapters turns the raw log records written by AI assistant CLIs
// (Claude Code, OpenAI Codex, Gemini CLI) into the canonical event model.
// Each backend has one adapter that knows its on-disk layout, its record
// shapes and how it names sessions.
package adapters

import (
	"errors"
	"path/filepath"

	"github.com/yoavf/as-i-was-saying/model"
)

// ErrSessionFileNotFound is returned when a session file does not exist.
// It is distinct from an identifier that matched nothing.
var ErrSessionFileNotFound = errors.New("session file not found")

// Format describes how a backend stores records on disk.
type Format int

const (
	// FormatJSONL stores one JSON object per line.
	FormatJSONL Format = iota
	// FormatDocument stores one JSON document with a messages array.
	FormatDocument
)

// Layout describes where a backend keeps its session files.
type Layout struct {
	// EnvVar overrides the root directory when set.
	EnvVar string

	// DefaultDir is the root relative to the user's home directory.
	DefaultDir string

	Format Format

	// Extension is matched by the recursive walk (JSONL backends).
	Extension string

	// Exclude skips files whose name contains it (sub-agent traces).
	Exclude string

	// ChatsDir and FilePattern locate sessions inside per-project
	// directories. An empty ChatsDir means a recursive walk from the root.
	ChatsDir    string
	FilePattern string
}

// DefaultRoot returns the root directory for a home directory.
func (l Layout) DefaultRoot(home string) string {
	return filepath.Join(home, l.DefaultDir)
}

// Adapter is implemented once per backend.
type Adapter interface {
	// Backend returns the backend this adapter reads.
	Backend() model.Backend

	// Layout returns where and how the backend stores sessions.
	Layout() Layout

	// Normalize converts one raw record into zero or more canonical events.
	// It never fails: shapes it does not understand become Unknown blocks
	// or produce no events.
	Normalize(raw map[string]any) []model.Event

	// SessionID returns the short display token for a session file.
	SessionID(path string) string

	// FullSessionID returns the canonical identifier for a session file,
	// reading the file when the backend records it inside.
	FullSessionID(path string) string
}

// Registry maps backends to their adapters.
type Registry map[model.Backend]Adapter

// NewRegistry returns a registry with every supported backend.
func NewRegistry() Registry {
	return Registry{
		model.BackendClaude: &ClaudeAdapter{},
		model.BackendCodex:  &CodexAdapter{},
		model.BackendGemini: &GeminiAdapter{},
	}
}

// Get returns the adapter for a backend. Unknown backends fall back to the
// Claude adapter, whose record shape is the most common.
func (r Registry) Get(backend model.Backend) Adapter {
	if adapter, ok := r[backend]; ok {
		return adapter
	}
	return r[model.BackendClaude]
}

// Normalize dispatches a raw record to the adapter for backend.
func (r Registry) Normalize(raw map[string]any, backend model.Backend) []model.Event {
	adapter := r.Get(backend)
	if adapter == nil {
		return nil
	}
	return adapter.Normalize(raw)
}
