package retrieval

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cespare/xxhash/v2"
)

// DefaultTopK and DefaultMinScore are the cutoff applied after fusion
// (§4.10 "an intent-specific cutoff (top-k and min-score) is applied").
// Retriever.TopK/MinScore can be set per instance to vary them by intent.
const (
	DefaultTopK     = 20
	DefaultMinScore = 0.0
	// maxConcurrentStrategies bounds the fan-out (§4.10 "run in parallel
	// (bounded fan-out)"); four strategies never need more than four
	// slots, but the semaphore is the same primitive the orchestrator's
	// worker pool uses (golang.org/x/sync/semaphore), kept consistent
	// across the two concurrency surfaces.
	maxConcurrentStrategies = 4
)

// Retriever wires the intent classifier, the four strategies, RRF
// fusion, and the three-tier cache into one Search entry point (§4.10).
type Retriever struct {
	Strategies []Strategy
	Cache      *ThreeTierCache
	TopK       int
	MinScore   float64
}

func New(strategies []Strategy, cache *ThreeTierCache) *Retriever {
	return &Retriever{Strategies: strategies, Cache: cache, TopK: DefaultTopK, MinScore: DefaultMinScore}
}

// Search runs one retrieval query end to end: cache lookup, intent
// classification, bounded parallel strategy fan-out, RRF fusion, and the
// final cutoff.
func (r *Retriever) Search(ctx context.Context, repoID, snapshotID, query string, limit int) ([]FusedHit, error) {
	qKey := QueryKey(repoID, snapshotID, query)
	if r.Cache != nil {
		if hits, ok := r.Cache.GetQuery(qKey); ok {
			return hits, nil
		}
	}

	intent, ok := IntentProbability{}, false
	if r.Cache != nil {
		intent, ok = r.Cache.GetIntent(qKey)
	}
	if !ok {
		intent = ClassifyIntent(query)
		if r.Cache != nil {
			r.Cache.PutIntent(qKey, intent)
		}
	}
	weights := WeightsForIntent(intent)

	hitsByStrategy, err := r.fanOut(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	// L1-rrf is keyed on the hit set, not the intent. Search records the
	// fused per-chunk scores under that fingerprint key but never reads
	// them back, so Fuse runs on every L1-query miss.
	fpKey := HitsFingerprintKey(repoID, fingerprint(hitsByStrategy))
	fused := Fuse(hitsByStrategy, weights)
	if r.Cache != nil {
		scores := make(map[string]float64, len(fused))
		for _, h := range fused {
			scores[h.ChunkID] = h.Score
		}
		r.Cache.PutRRF(fpKey, scores)
	}

	topK, minScore := r.TopK, r.MinScore
	if topK <= 0 {
		topK = DefaultTopK
	}
	result := Cutoff(fused, topK, minScore)

	if r.Cache != nil {
		r.Cache.PutQuery(qKey, result)
	}
	return result, nil
}

// fanOut runs every strategy concurrently, bounded by a semaphore, and
// cancels remaining work if any strategy's context deadline trips
// (§4.10 "must cancel on deadline"). A strategy error fails that
// strategy's contribution but not the whole search — SearchHit lists
// default to nil for a failed strategy, simply contributing nothing to
// fusion.
func (r *Retriever) fanOut(ctx context.Context, query string, limit int) (map[string][]SearchHit, error) {
	sem := semaphore.NewWeighted(maxConcurrentStrategies)
	g, gctx := errgroup.WithContext(ctx)

	results := make(map[string][]SearchHit, len(r.Strategies))
	var mu sync.Mutex

	for _, strat := range r.Strategies {
		strat := strat
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			hits, err := strat.Search(gctx, query, limit)
			if err != nil {
				return nil // degrade, don't fail the whole search
			}
			mu.Lock()
			results[strat.Name()] = hits
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fingerprint derives a deterministic digest of the union of chunk IDs
// across every strategy's hit list, used as the L1-rrf cache's
// hits_fingerprint (§4.10).
func fingerprint(hitsByStrategy map[string][]SearchHit) string {
	seen := make(map[string]bool)
	var ids []string
	for _, hits := range hitsByStrategy {
		for _, h := range hits {
			if !seen[h.ChunkID] {
				seen[h.ChunkID] = true
				ids = append(ids, h.ChunkID)
			}
		}
	}
	sort.Strings(ids)
	sum := xxhash.Sum64String(strings.Join(ids, "\x00"))
	return strconv.FormatUint(sum, 16)
}
