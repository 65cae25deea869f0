package adapters

import (
	"path/filepath"
	"testing"
)

func TestSessionIDs(t *testing.T) {
	cases := []struct {
		adapter Adapter
		path    string
		short   string
	}{
		{&ClaudeAdapter{}, "/x/proj/9f1c2d3e-aaaa-bbbb-cccc-111122223333.jsonl", "9f1c2d3e"},
		{&CodexAdapter{}, "/x/2026/02/12/rollout-2026-02-12T10-00-01-019c4406-8031-7130-a1ab-657bc80bb228.jsonl", "657bc80bb228"},
		{&GeminiAdapter{}, "/x/hash/chats/session-2026-01-01T10-00-ab12cd34.json", "ab12cd34"},
	}

	for _, tc := range cases {
		if got := tc.adapter.SessionID(tc.path); got != tc.short {
			t.Fatalf("%s SessionID(%s) = %q, want %q", tc.adapter.Backend(), tc.path, got, tc.short)
		}
	}
}

func TestClaudeFullSessionID(t *testing.T) {
	adapter := &ClaudeAdapter{}
	if got := adapter.FullSessionID("/p/9f1c2d3e-aaaa-bbbb-cccc-111122223333.jsonl"); got != "9f1c2d3e-aaaa-bbbb-cccc-111122223333" {
		t.Fatalf("FullSessionID = %q", got)
	}
	if got := adapter.FullSessionID("/p/agent-deadbeef.jsonl"); got != "deadbeef" {
		t.Fatalf("FullSessionID = %q, want deadbeef", got)
	}
}

func TestCodexFullSessionIDPrefersSessionMeta(t *testing.T) {
	dir := t.TempDir()
	withMeta := writeFile(t, filepath.Join(dir, "rollout-2026-02-12T10-00-01-00000000-0000-0000-0000-000000000001.jsonl"),
		`{"type":"session_meta","payload":{"id":"019c4406-8031-7130-a1ab-657bc80bb228"}}`+"\n"+
			`{"type":"event_msg","payload":{"type":"user_message","text":"hello"}}`+"\n")
	withoutMeta := writeFile(t, filepath.Join(dir, "rollout-2026-02-12T10-00-02-00000000-0000-0000-0000-000000000002.jsonl"),
		`{"type":"event_msg","payload":{"type":"user_message","text":"hello"}}`+"\n")

	adapter := &CodexAdapter{}
	if got := adapter.FullSessionID(withMeta); got != "019c4406-8031-7130-a1ab-657bc80bb228" {
		t.Fatalf("FullSessionID = %q", got)
	}
	if got := adapter.FullSessionID(withoutMeta); got != "00000000-0000-0000-0000-000000000002" {
		t.Fatalf("FullSessionID = %q", got)
	}
}

func TestGeminiFullSessionID(t *testing.T) {
	dir := t.TempDir()
	withID := writeFile(t, filepath.Join(dir, "session-2026-01-01T10-00-ab12cd34.json"),
		`{"sessionId":"ab12cd34-0000-1111-2222-333344445555","messages":[]}`)
	withoutID := writeFile(t, filepath.Join(dir, "session-2026-01-01T10-01-ef56.json"), `{"messages":[]}`)

	adapter := &GeminiAdapter{}
	if got := adapter.FullSessionID(withID); got != "ab12cd34-0000-1111-2222-333344445555" {
		t.Fatalf("FullSessionID = %q", got)
	}
	if got := adapter.FullSessionID(withoutID); got != "2026-01-01T10-01-ef56" {
		t.Fatalf("FullSessionID = %q", got)
	}
}
