// Package redact pseudonymizes sensitive substrings inside JSON-like values.
// Replacements are content-derived tokens, so the same input always yields
// the same token and redacting a redacted value changes nothing further.
// Redaction is pattern based and not guaranteed to catch everything.
package redact

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yoavf/as-i-was-saying/config"
)

// Token categories.
const (
	CategoryHost  = "HOST"
	CategoryEmail = "EMAIL"
	CategoryUUID  = "UUID"
	CategoryToken = "TOKEN"
)

// UserinfoMarker replaces the user-info part of URLs.
const UserinfoMarker = "REDACTED"

var (
	unixHomePattern    = regexp.MustCompile("(^|[\\s\"'`=~(\\[:,;]|file://)(/Users/|/home/)[^/\\s\"'<>:]+")
	windowsHomePattern = regexp.MustCompile(`(?i)([a-z]:\\Users\\)[^\\\s"'<>:]+`)

	urlPattern      = regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9+.-]*)://(?:([^@/\s"'<>]+)@)?([^:/\s?#"'<>]+)(:\d+)?`)
	ipv4Pattern     = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)
	hostPortPattern = regexp.MustCompile(`\b(localhost|[A-Za-z0-9][A-Za-z0-9-]*(?:\.[A-Za-z0-9-]+)+):(\d{1,5})\b`)
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)

	uuidPattern     = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	keyValuePattern = regexp.MustCompile(`(?i)\b((?:api[_-]?key|access[_-]?key|secret(?:[_-]?key)?|client[_-]?secret|token|password|passwd|pwd)["']?\s*[=:]\s*["']?)([^\s"'&,;}]+)`)
	longHexPattern  = regexp.MustCompile(`\b[0-9a-fA-F]{32,}\b`)

	credentialPattern = regexp.MustCompile(`\b(?:` +
		`sk-[A-Za-z0-9_-]{8,}` +
		`|ghp_[A-Za-z0-9]{20,}` +
		`|github_pat_[A-Za-z0-9_]{20,}` +
		`|xox[abprs]-[A-Za-z0-9-]{10,}` +
		`|AKIA[0-9A-Z]{16}` +
		`|AIza[0-9A-Za-z_-]{35}` +
		`|glpat-[A-Za-z0-9_-]{20,}` +
		`|eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}` +
		`)`)
	bearerPattern = regexp.MustCompile(`(?i)\b(bearer\s+)([A-Za-z0-9._~+/=-]{16,})`)
)

// sourceExtensions are dotted names that look like host:port but are
// file:line references.
var sourceExtensions = map[string]bool{
	"c": true, "cc": true, "cpp": true, "cs": true, "css": true, "go": true,
	"h": true, "html": true, "java": true, "js": true, "json": true, "jsx": true,
	"kt": true, "md": true, "php": true, "py": true, "rb": true, "rs": true,
	"sh": true, "swift": true, "toml": true, "ts": true, "tsx": true, "txt": true,
	"yaml": true, "yml": true,
}

// Options selects how aggressively to redact.
type Options struct {
	// Strict also replaces key=value secrets, long hex runs and UUIDs.
	Strict bool

	// UUIDs replaces UUIDs outside strict mode.
	UUIDs bool

	// MaxLen truncates longer strings around a length marker after
	// substitution. Zero disables truncation.
	MaxLen int
}

// Redactor applies one set of options. Its token table is private to the
// instance; use a fresh Redactor per file or request.
type Redactor struct {
	opts   Options
	tokens map[string]map[string]string
}

// New returns a Redactor.
func New(opts Options) *Redactor {
	if opts.MaxLen < 0 {
		opts.MaxLen = 0
	}
	return &Redactor{opts: opts, tokens: make(map[string]map[string]string)}
}

// ForLevel returns a Redactor for a configured level, or nil for "none".
func ForLevel(level string, maxLen int) (*Redactor, error) {
	if err := config.ValidateRedactLevel(level); err != nil {
		return nil, err
	}
	switch level {
	case config.RedactStandard:
		return New(Options{MaxLen: maxLen}), nil
	case config.RedactStrict:
		return New(Options{Strict: true, MaxLen: maxLen}), nil
	default:
		return nil, nil
	}
}

// Redact returns a copy of value with every string redacted, recursing
// through maps and slices. Other values are returned unchanged.
func (r *Redactor) Redact(value any) any {
	switch v := value.(type) {
	case string:
		return r.String(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = r.Redact(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.Redact(item)
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = r.String(item)
		}
		return out
	default:
		return value
	}
}

// String redacts one string.
func (r *Redactor) String(s string) string {
	if s == "" {
		return s
	}

	s = unixHomePattern.ReplaceAllString(s, "${1}${2}USER")
	s = windowsHomePattern.ReplaceAllString(s, "${1}USER")
	s = r.redactURLs(s)
	s = ipv4Pattern.ReplaceAllStringFunc(s, func(ip string) string {
		return r.token(CategoryHost, ip)
	})
	s = r.redactHostPorts(s)
	s = emailPattern.ReplaceAllStringFunc(s, func(email string) string {
		return r.token(CategoryEmail, email)
	})

	if r.opts.Strict || r.opts.UUIDs {
		s = uuidPattern.ReplaceAllStringFunc(s, func(id string) string {
			return r.token(CategoryUUID, id)
		})
	}
	if r.opts.Strict {
		s = replaceGroup(keyValuePattern, s, 2, func(secret string) string {
			return r.token(CategoryToken, secret)
		})
		s = longHexPattern.ReplaceAllStringFunc(s, func(hexRun string) string {
			return r.token(CategoryToken, hexRun)
		})
	}

	s = credentialPattern.ReplaceAllStringFunc(s, func(credential string) string {
		return r.token(CategoryToken, credential)
	})
	s = replaceGroup(bearerPattern, s, 2, func(credential string) string {
		return r.token(CategoryToken, credential)
	})

	return truncate(s, r.opts.MaxLen)
}

func (r *Redactor) redactURLs(s string) string {
	return replaceMatches(urlPattern, s, func(m []string) string {
		scheme, userinfo, host, port := m[1], m[2], m[3], m[4]
		var b strings.Builder
		b.WriteString(scheme)
		b.WriteString("://")
		if userinfo != "" {
			b.WriteString(UserinfoMarker)
			b.WriteString("@")
		}
		b.WriteString(r.token(CategoryHost, host))
		b.WriteString(port)
		return b.String()
	})
}

func (r *Redactor) redactHostPorts(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range hostPortPattern.FindAllStringSubmatchIndex(s, -1) {
		start, end := loc[0], loc[1]
		host := s[loc[2]:loc[3]]
		if start > 0 && strings.IndexByte(`/\-@`, s[start-1]) >= 0 {
			continue
		}
		if host != "localhost" && sourceExtensions[strings.ToLower(strings.TrimPrefix(path.Ext(host), "."))] {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(r.token(CategoryHost, host))
		b.WriteString(s[loc[3]:end])
		last = end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// token returns the stable replacement for value. Values that already are
// tokens of the category are returned as is.
func (r *Redactor) token(category, value string) string {
	if isToken(category, value) {
		return value
	}
	table := r.tokens[category]
	if table == nil {
		table = make(map[string]string)
		r.tokens[category] = table
	}
	if existing, ok := table[value]; ok {
		return existing
	}
	sum := sha1.Sum([]byte(value))
	token := category + "-" + hex.EncodeToString(sum[:])[:10]
	table[value] = token
	return token
}

func isToken(category, value string) bool {
	digest, ok := strings.CutPrefix(value, category+"-")
	if !ok || len(digest) != 10 {
		return false
	}
	for _, c := range digest {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

// replaceMatches calls fn with the submatches of every match of re.
func replaceMatches(re *regexp.Regexp, s string, fn func([]string) string) string {
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return fn(re.FindStringSubmatch(match))
	})
}

// replaceGroup replaces only capture group n of every match of re.
func replaceGroup(re *regexp.Regexp, s string, n int, fn func(string) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		start, end := loc[2*n], loc[2*n+1]
		if start < 0 {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(fn(s[start:end]))
		last = end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	n := utf8.RuneCountInString(s)
	if n <= maxLen {
		return s
	}
	runes := []rune(s)
	half := maxLen / 2
	return string(runes[:half]) + fmt.Sprintf("[TRUNCATED len=%d]", n) + string(runes[n-half:])
}
