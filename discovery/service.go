package discovery

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yoavf/as-i-was-saying/adapters"
	"github.com/yoavf/as-i-was-saying/config"
	"github.com/yoavf/as-i-was-saying/model"
	"github.com/yoavf/as-i-was-saying/search"
)

// Service finds sessions across every backend's log directory. It keeps no
// state between calls; every call rescans the filesystem.
type Service struct {
	Registry adapters.Registry
	Roots    map[model.Backend]string

	// Limit is the per-backend session count when all backends are
	// listed; BackendLimit applies when one backend is requested.
	Limit        int
	BackendLimit int

	ProjectCap   int
	SummaryWidth int
	MinPrefixLen int
	Search       search.Options

	// Now returns the current time; tests replace it.
	Now func() time.Time
}

// NewService builds a Service from configuration.
func NewService(cfg config.Config) *Service {
	return &Service{
		Registry:     adapters.NewRegistry(),
		Roots:        cfg.AllRoots(),
		Limit:        cfg.Discovery.Limit,
		BackendLimit: cfg.Discovery.BackendLimit,
		ProjectCap:   cfg.Discovery.GeminiProjectCap,
		SummaryWidth: cfg.Discovery.SummaryWidth,
		MinPrefixLen: cfg.Resolve.MinPrefixLen,
		Search: search.Options{
			Window: cfg.Search.ContextWindow,
			Width:  cfg.Search.ContextWidth,
		},
		Now: time.Now,
	}
}

// Query selects sessions for discovery.
type Query struct {
	// Backend restricts discovery to one backend. Empty means every
	// backend whose log directory exists.
	Backend model.Backend

	// Lookback drops sessions modified longer ago. Zero means all time.
	Lookback time.Duration

	// Text switches ranking from recency to query relevance.
	Text string

	// Limit overrides the per-backend session count.
	Limit int
}

// AvailableBackends returns requested when set, otherwise every backend
// whose log directory exists.
func (s *Service) AvailableBackends(requested model.Backend) []model.Backend {
	if requested != "" {
		return []model.Backend{requested}
	}

	var available []model.Backend
	for _, backend := range model.Backends {
		if info, err := os.Stat(s.Roots[backend]); err == nil && info.IsDir() {
			available = append(available, backend)
		}
	}
	return available
}

// Recent returns up to limit of the newest sessions of one backend that
// have user text. Only the newest 2*limit files are read.
func (s *Service) Recent(backend model.Backend, cutoff time.Time, limit int) []model.SessionDescriptor {
	adapter := s.Registry.Get(backend)

	var scanned []model.SessionDescriptor
	for d := range Scan(s.Roots[backend], adapter, ScanOptions{Cutoff: cutoff, ProjectCap: s.ProjectCap}) {
		scanned = append(scanned, d)
	}
	scanned = RankByRecency(scanned)
	if limit > 0 && len(scanned) > limit*2 {
		scanned = scanned[:limit*2]
	}

	var sessions []model.SessionDescriptor
	for _, d := range scanned {
		enriched, ok := Enrich(d, adapter, s.SummaryWidth)
		if !ok {
			continue
		}
		sessions = append(sessions, enriched)
		if limit > 0 && len(sessions) >= limit {
			break
		}
	}
	return sessions
}

// Discover lists sessions across the selected backends, ranked by recency
// or, when q.Text is set, by how often the text occurs.
func (s *Service) Discover(q Query) []model.SessionDescriptor {
	limit := q.Limit
	if limit <= 0 {
		limit = s.Limit
		if q.Backend != "" {
			limit = s.BackendLimit
		}
	}
	cutoff := config.Cutoff(q.Lookback, s.now())

	var sessions []model.SessionDescriptor
	for _, backend := range s.AvailableBackends(q.Backend) {
		sessions = append(sessions, s.Recent(backend, cutoff, limit)...)
	}
	return Rank(sessions, q.Text, FileAnalyzer(s.Registry, s.Search))
}

// Candidates returns every session of the selected backends with its
// identifiers, ignoring the discovery horizon and project cap so that
// older sessions can still be found by ID.
func (s *Service) Candidates(backend model.Backend) []model.SessionDescriptor {
	var candidates []model.SessionDescriptor
	for _, b := range s.AvailableBackends(backend) {
		adapter := s.Registry.Get(b)
		for d := range Scan(s.Roots[b], adapter, ScanOptions{}) {
			candidates = append(candidates, Identify(d, adapter))
		}
	}
	return candidates
}

// Resolve finds the session identified by id. The result carries summaries
// when the session has user text.
func (s *Service) Resolve(id string, backend model.Backend) (model.SessionDescriptor, error) {
	match, err := ResolveAmong(s.Candidates(backend), id, s.MinPrefixLen)
	if err != nil {
		return model.SessionDescriptor{}, err
	}
	if enriched, ok := Enrich(match, s.Registry.Get(match.Backend), s.SummaryWidth); ok {
		match = enriched
	}
	return match, nil
}

// Events reads and normalizes a whole session file.
func (s *Service) Events(path string, backend model.Backend) ([]model.Event, error) {
	return adapters.CollectEvents(path, s.Registry.Get(backend))
}

// InferBackend guesses which backend wrote the file at path from the log
// directory it lives in, falling back to its extension.
func (s *Service) InferBackend(path string) model.Backend {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, backend := range []model.Backend{model.BackendCodex, model.BackendClaude, model.BackendGemini} {
		root := filepath.Clean(s.Roots[backend])
		if root == "." || root == "" {
			continue
		}
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return backend
		}
	}
	if filepath.Ext(path) == ".json" {
		return model.BackendGemini
	}
	return model.BackendClaude
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
