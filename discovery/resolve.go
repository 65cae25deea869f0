package discovery

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yoavf/as-i-was-saying/model"
)

// ErrSessionNotFound is returned when an identifier matches no session.
var ErrSessionNotFound = errors.New("no session matched ID")

// PrefixTooShortError is returned when an identifier that is not an exact
// match is too short to be used as a prefix.
type PrefixTooShortError struct {
	ID  string
	Min int
}

func (e *PrefixTooShortError) Error() string {
	return fmt.Sprintf("prefix lookups require at least %d characters (got %q)", e.Min, e.ID)
}

// AmbiguousIDError is returned when an identifier matches several sessions.
type AmbiguousIDError struct {
	ID         string
	Candidates []model.SessionDescriptor
}

func (e *AmbiguousIDError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous ID prefix %q matches %d sessions:", e.ID, len(e.Candidates))
	for _, c := range e.Candidates {
		fmt.Fprintf(&b, "\n  %s  %-12s  %s  %s", c.Backend.Abbrev(), c.SessionID, c.FullSessionID, c.Path)
	}
	return b.String()
}

// ResolveAmong picks the session identified by id from candidates, which
// must already carry their session identifiers. An exact match on the short
// or full identifier wins; otherwise id must be at least minPrefix
// characters and a unique prefix of one full identifier. Comparison ignores
// case.
func ResolveAmong(candidates []model.SessionDescriptor, id string, minPrefix int) (model.SessionDescriptor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.SessionDescriptor{}, fmt.Errorf("session ID is required")
	}

	var exact []model.SessionDescriptor
	for _, c := range candidates {
		if strings.EqualFold(c.SessionID, id) || strings.EqualFold(c.FullSessionID, id) {
			exact = append(exact, c)
		}
	}
	switch len(exact) {
	case 0:
	case 1:
		return exact[0], nil
	default:
		return model.SessionDescriptor{}, &AmbiguousIDError{ID: id, Candidates: RankByRecency(exact)}
	}

	if utf8.RuneCountInString(id) < minPrefix {
		return model.SessionDescriptor{}, &PrefixTooShortError{ID: id, Min: minPrefix}
	}

	lowered := strings.ToLower(id)
	var prefixed []model.SessionDescriptor
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.FullSessionID), lowered) {
			prefixed = append(prefixed, c)
		}
	}
	switch len(prefixed) {
	case 0:
		return model.SessionDescriptor{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	case 1:
		return prefixed[0], nil
	default:
		return model.SessionDescriptor{}, &AmbiguousIDError{ID: id, Candidates: RankByRecency(prefixed)}
	}
}
