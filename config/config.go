// Package config loads user defaults for session discovery and redaction
// from a YAML file, layered under environment overrides.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/yoavf/as-i-was-saying/adapters"
	"github.com/yoavf/as-i-was-saying/model"
	"github.com/yoavf/as-i-was-saying/search"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "AIWS_CONFIG"

// Defaults applied when the config file leaves a value unset.
const (
	DefaultSince            = "1w"
	DefaultLimit            = 50
	DefaultBackendLimit     = 20
	DefaultGeminiProjectCap = 20
	DefaultMinPrefixLen     = 6
	DefaultAnonymizeMaxLen  = 2000
)

// Redaction levels.
const (
	RedactNone     = "none"
	RedactStandard = "standard"
	RedactStrict   = "strict"
)

type Config struct {
	Roots     RootPaths         `yaml:"roots"`
	Discovery DiscoveryDefaults `yaml:"discovery"`
	Search    SearchDefaults    `yaml:"search"`
	Resolve   ResolveDefaults   `yaml:"resolve"`
	Redact    RedactDefaults    `yaml:"redact"`
}

type RootPaths struct {
	Claude string `yaml:"claude"`
	Codex  string `yaml:"codex"`
	Gemini string `yaml:"gemini"`
}

type DiscoveryDefaults struct {
	Since string `yaml:"since"`

	// Limit caps sessions per backend when all backends are scanned;
	// BackendLimit applies when a single backend is requested.
	Limit        int `yaml:"limit"`
	BackendLimit int `yaml:"backend_limit"`

	// GeminiProjectCap bounds how many Gemini project directories are
	// scanned, newest first. A negative value scans all of them.
	GeminiProjectCap int `yaml:"gemini_project_cap"`

	SummaryWidth int `yaml:"summary_width"`
}

type SearchDefaults struct {
	ContextWindow int `yaml:"context_window"`
	ContextWidth  int `yaml:"context_width"`
}

type ResolveDefaults struct {
	MinPrefixLen int `yaml:"min_prefix_len"`
}

type RedactDefaults struct {
	Level  string `yaml:"level"`
	MaxLen int    `yaml:"max_len"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var configuration Config
	configuration.normalize()
	return configuration
}

// DefaultPath returns the config file location: $AIWS_CONFIG, then
// $XDG_CONFIG_HOME/aiws/config.yaml, then ~/.config/aiws/config.yaml.
func DefaultPath() string {
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" {
		return path
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "aiws", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "aiws", "config.yaml")
	}
	return filepath.Join(home, ".config", "aiws", "config.yaml")
}

// Load reads the config file at path. A missing file yields the defaults
// when allowMissing is set.
func Load(path string, allowMissing bool) (Config, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return Config{}, fmt.Errorf("config path is required")
	}

	content, err := os.ReadFile(trimmedPath)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return Default(), nil
	}

	var configuration Config
	if err := yaml.Unmarshal(content, &configuration); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	configuration.normalize()
	if err := configuration.validate(); err != nil {
		return Config{}, err
	}
	return configuration, nil
}

func (configuration *Config) normalize() {
	configuration.Roots.Claude = strings.TrimSpace(configuration.Roots.Claude)
	configuration.Roots.Codex = strings.TrimSpace(configuration.Roots.Codex)
	configuration.Roots.Gemini = strings.TrimSpace(configuration.Roots.Gemini)

	configuration.Discovery.Since = strings.ToLower(strings.TrimSpace(configuration.Discovery.Since))
	if configuration.Discovery.Since == "" {
		configuration.Discovery.Since = DefaultSince
	}
	if configuration.Discovery.Limit <= 0 {
		configuration.Discovery.Limit = DefaultLimit
	}
	if configuration.Discovery.BackendLimit <= 0 {
		configuration.Discovery.BackendLimit = DefaultBackendLimit
	}
	if configuration.Discovery.GeminiProjectCap == 0 {
		configuration.Discovery.GeminiProjectCap = DefaultGeminiProjectCap
	}
	if configuration.Discovery.SummaryWidth <= 0 {
		configuration.Discovery.SummaryWidth = search.DefaultSummaryWidth
	}

	if configuration.Search.ContextWindow <= 0 {
		configuration.Search.ContextWindow = search.DefaultContextWindow
	}
	if configuration.Search.ContextWidth <= 0 {
		configuration.Search.ContextWidth = search.DefaultContextWidth
	}

	if configuration.Resolve.MinPrefixLen <= 0 {
		configuration.Resolve.MinPrefixLen = DefaultMinPrefixLen
	}

	configuration.Redact.Level = strings.ToLower(strings.TrimSpace(configuration.Redact.Level))
	if configuration.Redact.Level == "" {
		configuration.Redact.Level = RedactNone
	}
	if configuration.Redact.MaxLen < 0 {
		configuration.Redact.MaxLen = 0
	}
}

func (configuration Config) validate() error {
	if _, err := ParseLookback(configuration.Discovery.Since); err != nil {
		return fmt.Errorf("invalid discovery.since: %w", err)
	}
	if err := ValidateRedactLevel(configuration.Redact.Level); err != nil {
		return fmt.Errorf("invalid redact.level: %w", err)
	}
	return nil
}

// Root returns the log directory for a backend. The backend's environment
// variable wins over the config file, which wins over the default under
// the user's home directory.
func (configuration Config) Root(backend model.Backend) string {
	layout := adapters.NewRegistry().Get(backend).Layout()
	if env := strings.TrimSpace(os.Getenv(layout.EnvVar)); env != "" {
		return expandHome(env)
	}

	var configured string
	switch backend {
	case model.BackendClaude:
		configured = configuration.Roots.Claude
	case model.BackendCodex:
		configured = configuration.Roots.Codex
	case model.BackendGemini:
		configured = configuration.Roots.Gemini
	}
	if configured != "" {
		return expandHome(configured)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return layout.DefaultDir
	}
	return layout.DefaultRoot(home)
}

// AllRoots returns the log directory of every supported backend.
func (configuration Config) AllRoots() map[model.Backend]string {
	roots := make(map[model.Backend]string, len(model.Backends))
	for _, backend := range model.Backends {
		roots[backend] = configuration.Root(backend)
	}
	return roots
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

var lookbackPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*([hdw])\s*$`)

// ParseLookback parses a discovery horizon such as 12h, 3d or 2w. The value
// "all" disables the horizon and returns zero.
func ParseLookback(value string) (time.Duration, error) {
	if strings.EqualFold(strings.TrimSpace(value), "all") {
		return 0, nil
	}

	match := lookbackPattern.FindStringSubmatch(value)
	if match == nil {
		return 0, fmt.Errorf("invalid lookback %q: use formats like 12h, 1d, 2w", value)
	}
	amount, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("invalid lookback %q: %w", value, err)
	}

	if amount == 0 {
		return 0, fmt.Errorf("invalid lookback %q: must be greater than zero (use \"all\" for no limit)", value)
	}

	unit := time.Hour
	switch strings.ToLower(match[2]) {
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	}
	if int64(amount) > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("invalid lookback %q: too large", value)
	}
	return time.Duration(amount) * unit, nil
}

// Cutoff converts a lookback into the oldest modification time to keep.
// A zero lookback means no cutoff.
func Cutoff(lookback time.Duration, now time.Time) time.Time {
	if lookback <= 0 {
		return time.Time{}
	}
	return now.Add(-lookback)
}

// ValidateRedactLevel checks a redaction level name.
func ValidateRedactLevel(level string) error {
	switch level {
	case RedactNone, RedactStandard, RedactStrict:
		return nil
	default:
		return fmt.Errorf("unknown redaction level %q (expected none, standard or strict)", level)
	}
}
