package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// SymbolEntry is one name+FQN index entry the symbol strategy searches
// over (§4.10 "symbol (name and fqn index)").
type SymbolEntry struct {
	Name     string
	FQN      string
	NodeID   string
	FilePath string
}

// SymbolFuzzyThreshold is the minimum Jaro-Winkler similarity (§4.10's
// "name and fqn index" gets a fuzzy fallback) a candidate must clear to
// be returned when no exact/substring match exists, matching the
// teacher's FuzzyMatcher default threshold
// (standardbeagle-lci/internal/semantic/fuzzy_matcher.go).
const SymbolFuzzyThreshold = 0.80

// SymbolStrategy is the symbol/FQN fan-out adapter. Exact name matches
// and FQN substring matches always win; beyond those it falls back to
// Jaro-Winkler similarity via go-edlib, the same algorithm and library
// the teacher's FuzzyMatcher uses for near-miss symbol names (typos,
// case variants).
type SymbolStrategy struct {
	entries []SymbolEntry
}

func NewSymbolStrategy(entries []SymbolEntry) *SymbolStrategy {
	return &SymbolStrategy{entries: entries}
}

func (s *SymbolStrategy) Name() string { return "symbol" }

func (s *SymbolStrategy) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	type scored struct {
		entry SymbolEntry
		score float64
	}
	var results []scored
	for _, e := range s.entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		name := strings.ToLower(e.Name)
		fqn := strings.ToLower(e.FQN)

		switch {
		case name == q:
			results = append(results, scored{entry: e, score: 1.0})
		case strings.Contains(fqn, q):
			results = append(results, scored{entry: e, score: 0.9})
		default:
			sim, err := edlib.StringsSimilarity(q, name, edlib.JaroWinkler)
			if err == nil && float64(sim) >= SymbolFuzzyThreshold {
				results = append(results, scored{entry: e, score: float64(sim)})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > limit {
		results = results[:limit]
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, SearchHit{
			ChunkID:  r.entry.NodeID,
			Score:    r.score,
			FilePath: r.entry.FilePath,
			SymbolID: r.entry.NodeID,
			Metadata: map[string]any{"fqn": r.entry.FQN},
		})
	}
	return hits, nil
}
