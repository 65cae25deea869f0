package model

import (
	"fmt"
	"strings"
	"time"
)

// Backend names the assistant tool that produced a log file.
type Backend string

const (
	BackendClaude Backend = "claude"
	BackendCodex  Backend = "codex"
	BackendGemini Backend = "gemini"
)

// Backends lists every supported backend in display order.
var Backends = []Backend{BackendClaude, BackendCodex, BackendGemini}

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Backends {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown backend: %s (expected claude, codex or gemini)", s)
}

// Abbrev returns the three-letter tag used in compact listings.
func (b Backend) Abbrev() string {
	switch b {
	case BackendClaude:
		return "CLD"
	case BackendCodex:
		return "CDX"
	case BackendGemini:
		return "GMN"
	default:
		return strings.ToUpper(string(b))
	}
}

// DisplayName returns a friendly name for the backend.
func (b Backend) DisplayName() string {
	switch b {
	case BackendClaude:
		return "Claude Code"
	case BackendCodex:
		return "Codex"
	case BackendGemini:
		return "Gemini CLI"
	default:
		if b == "" {
			return "Unknown"
		}
		return string(b)
	}
}

// SessionDescriptor identifies one session file and what is known about it.
// The scanner fills the file facts, enrichment fills IDs and summaries, and
// query-mode ranking fills the match fields. Descriptors are passed by value;
// every stage returns a new copy.
type SessionDescriptor struct {
	Path    string    `json:"path"`
	Backend Backend   `json:"backend"`
	ModTime time.Time `json:"mtime"`
	Size    int64     `json:"size"`

	// SessionID is the short display token derived from the file name.
	SessionID string `json:"session_id"`

	// FullSessionID is the canonical identifier used for exact and prefix lookups.
	FullSessionID string `json:"full_session_id"`

	LatestSummary   string `json:"latest_summary"`
	EarliestSummary string `json:"earliest_summary"`

	// MatchCount and MatchContext are only set when ranking by a query.
	MatchCount   int    `json:"match_count,omitempty"`
	MatchContext string `json:"match_context,omitempty"`
}

// Enriched reports whether enrichment found user text for the session.
func (d SessionDescriptor) Enriched() bool {
	return d.LatestSummary != ""
}
