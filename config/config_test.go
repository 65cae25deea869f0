package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yoavf/as-i-was-saying/model"
)

func TestLoadAllowMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	configuration, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load allow missing: %v", err)
	}
	if configuration.Discovery.Since != DefaultSince {
		t.Fatalf("unexpected since %q", configuration.Discovery.Since)
	}
	if configuration.Discovery.GeminiProjectCap != DefaultGeminiProjectCap {
		t.Fatalf("unexpected gemini cap %d", configuration.Discovery.GeminiProjectCap)
	}
	if configuration.Search.ContextWindow != 25 || configuration.Search.ContextWidth != 60 {
		t.Fatalf("unexpected search defaults %+v", configuration.Search)
	}
	if configuration.Resolve.MinPrefixLen != DefaultMinPrefixLen {
		t.Fatalf("unexpected min prefix %d", configuration.Resolve.MinPrefixLen)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Fatal("expected missing required config error")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
roots:
  codex: " /data/codex "
discovery:
  since: " 2W "
  limit: 10
  gemini_project_cap: -1
search:
  context_window: 10
redact:
  level: " STRICT "
  max_len: 500
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	configuration, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load parse: %v", err)
	}
	if configuration.Roots.Codex != "/data/codex" {
		t.Fatalf("unexpected codex root %q", configuration.Roots.Codex)
	}
	if configuration.Discovery.Since != "2w" {
		t.Fatalf("unexpected since %q", configuration.Discovery.Since)
	}
	if configuration.Discovery.Limit != 10 || configuration.Discovery.BackendLimit != DefaultBackendLimit {
		t.Fatalf("unexpected limits %+v", configuration.Discovery)
	}
	if configuration.Discovery.GeminiProjectCap != -1 {
		t.Fatalf("unexpected gemini cap %d", configuration.Discovery.GeminiProjectCap)
	}
	if configuration.Search.ContextWindow != 10 || configuration.Search.ContextWidth != 60 {
		t.Fatalf("unexpected search %+v", configuration.Search)
	}
	if configuration.Redact.Level != RedactStrict || configuration.Redact.MaxLen != 500 {
		t.Fatalf("unexpected redact %+v", configuration.Redact)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []string{
		"discovery:\n  since: 3m\n",
		"redact:\n  level: loud\n",
		"discovery: [unterminated\n",
	}
	for _, content := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(path, false); err == nil {
			t.Fatalf("expected error for config %q", content)
		}
	}
}

func TestRootPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CODEX_LOG_DIR", "")
	t.Setenv("CLAUDE_LOG_DIR", "")
	t.Setenv("GEMINI_LOG_DIR", "/env/gemini")

	configuration := Default()
	configuration.Roots.Claude = "~/claude-logs"

	if got := configuration.Root(model.BackendCodex); got != filepath.Join(home, ".codex", "sessions") {
		t.Fatalf("codex root = %q", got)
	}
	if got := configuration.Root(model.BackendClaude); got != filepath.Join(home, "claude-logs") {
		t.Fatalf("claude root = %q", got)
	}
	if got := configuration.Root(model.BackendGemini); got != "/env/gemini" {
		t.Fatalf("gemini root = %q", got)
	}
	if roots := configuration.AllRoots(); len(roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(roots))
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	if got := DefaultPath(); got != "/tmp/custom.yaml" {
		t.Fatalf("DefaultPath = %q", got)
	}

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := DefaultPath(); got != filepath.Join("/xdg", "aiws", "config.yaml") {
		t.Fatalf("DefaultPath = %q", got)
	}
}

func TestParseLookback(t *testing.T) {
	cases := map[string]time.Duration{
		"12h":   12 * time.Hour,
		" 1d ":  24 * time.Hour,
		"2W":    14 * 24 * time.Hour,
		"3 d":   72 * time.Hour,
		"all":   0,
		" ALL ": 0,
	}
	for value, want := range cases {
		got, err := ParseLookback(value)
		if err != nil {
			t.Fatalf("ParseLookback(%q) returned error: %v", value, err)
		}
		if got != want {
			t.Fatalf("ParseLookback(%q) = %v, want %v", value, got, want)
		}
	}

	for _, value := range []string{"", "bad", "3m", "-1d", "1.5h", "0d", "0h", "99999999999999w", "99999999999999999999h"} {
		if _, err := ParseLookback(value); err == nil {
			t.Fatalf("ParseLookback(%q) expected error", value)
		}
	}
}

func TestCutoff(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 0, 0, 0, time.UTC)
	if !Cutoff(0, now).IsZero() {
		t.Fatal("zero lookback should have no cutoff")
	}
	if got := Cutoff(24*time.Hour, now); !got.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("Cutoff = %v", got)
	}
}
