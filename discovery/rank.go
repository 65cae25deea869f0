package discovery

import (
	"slices"
	"sort"
	"strings"

	"github.com/yoavf/as-i-was-saying/adapters"
	"github.com/yoavf/as-i-was-saying/model"
	"github.com/yoavf/as-i-was-saying/search"
)

// Analyzer computes how well one session matches a query.
type Analyzer func(d model.SessionDescriptor, query string) search.Result

// FileAnalyzer returns an Analyzer that normalizes each session file with
// its backend's adapter and matches the query against every text block.
// Files that cannot be read count as no match.
func FileAnalyzer(registry adapters.Registry, opts search.Options) Analyzer {
	return func(d model.SessionDescriptor, query string) search.Result {
		adapter := registry.Get(d.Backend)
		matcher := search.NewMatcher(query, opts)
		err := adapters.ReadRecords(d.Path, adapter.Layout().Format, func(record adapters.Record) bool {
			for _, event := range adapter.Normalize(record.Raw) {
				for _, text := range event.Texts() {
					matcher.Add(text)
				}
			}
			return true
		})
		if err != nil {
			return search.Result{}
		}
		return matcher.Result()
	}
}

// newer orders by modification time, then by path, both descending.
func newer(a, b model.SessionDescriptor) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.Path > b.Path
}

// RankByRecency returns the sessions newest first. Sessions with the same
// modification time are ordered by path so the result is deterministic.
func RankByRecency(sessions []model.SessionDescriptor) []model.SessionDescriptor {
	ranked := slices.Clone(sessions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return newer(ranked[i], ranked[j])
	})
	return ranked
}

// RankByQuery keeps the sessions that match query and orders them by match
// count, then recency, then path, all descending. Each kept session carries
// its match count and a context snippet, falling back to its latest
// summary when no snippet was captured.
func RankByQuery(sessions []model.SessionDescriptor, query string, analyze Analyzer) []model.SessionDescriptor {
	var ranked []model.SessionDescriptor
	for _, session := range sessions {
		result := analyze(session, query)
		if result.Count == 0 {
			continue
		}
		session.MatchCount = result.Count
		session.MatchContext = result.Context
		if session.MatchContext == "" {
			session.MatchContext = session.LatestSummary
		}
		ranked = append(ranked, session)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].MatchCount != ranked[j].MatchCount {
			return ranked[i].MatchCount > ranked[j].MatchCount
		}
		return newer(ranked[i], ranked[j])
	})
	return ranked
}

// Rank ranks by query when one is given and by recency otherwise.
func Rank(sessions []model.SessionDescriptor, query string, analyze Analyzer) []model.SessionDescriptor {
	if strings.TrimSpace(query) == "" {
		return RankByRecency(sessions)
	}
	return RankByQuery(sessions, query, analyze)
}
