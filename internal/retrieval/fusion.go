package retrieval

import "sort"

// RRFConstant is k in rrf_{s,c} = 1/(k + r_{s,c}) (§4.10).
const RRFConstant = 60

// ConsensusAlpha is alpha in consensus(c) = 1 + alpha*(num_strategies-1)
// (§4.10 "design: 1 + α·(num_strategies − 1)").
const ConsensusAlpha = 0.5

// FusedHit is one chunk's result after weighted RRF fusion.
type FusedHit struct {
	ChunkID      string
	FilePath     string
	SymbolID     string
	Metadata     map[string]any
	Score        float64
	NumStrategies int
	BestRank      int
}

// Fuse combines per-strategy ranked hit lists into one fused, sorted list
// (§4.10 "Fusion (weighted RRF)"). hitsByStrategy's keys must match
// strategyWeight's lookup names ("vector", "lexical", "symbol", "graph").
func Fuse(hitsByStrategy map[string][]SearchHit, weights WeightProfile) []FusedHit {
	type accum struct {
		hit           FusedHit
		weightedSum   float64
		firstSeenMeta *SearchHit
	}
	byChunk := make(map[string]*accum)

	for strategy, hits := range hitsByStrategy {
		w := strategyWeight(strategy, weights)
		for rank, hit := range hits {
			r := rank + 1 // ranks are 1-based
			rrf := 1.0 / float64(RRFConstant+r)

			a, ok := byChunk[hit.ChunkID]
			if !ok {
				a = &accum{hit: FusedHit{
					ChunkID:  hit.ChunkID,
					FilePath: hit.FilePath,
					SymbolID: hit.SymbolID,
					Metadata: hit.Metadata,
					BestRank: r,
				}}
				byChunk[hit.ChunkID] = a
			}
			a.weightedSum += w * rrf
			a.hit.NumStrategies++
			if r < a.hit.BestRank {
				a.hit.BestRank = r
			}
		}
	}

	out := make([]FusedHit, 0, len(byChunk))
	for _, a := range byChunk {
		consensus := 1 + ConsensusAlpha*float64(a.hit.NumStrategies-1)
		a.hit.Score = a.weightedSum * consensus
		out = append(out, a.hit)
	}

	// Tie-breaks (§4.10): higher num_strategies, then lower best_rank,
	// then lexicographic chunk_id, all after the primary score sort.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].NumStrategies != out[j].NumStrategies {
			return out[i].NumStrategies > out[j].NumStrategies
		}
		if out[i].BestRank != out[j].BestRank {
			return out[i].BestRank < out[j].BestRank
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

func strategyWeight(name string, w WeightProfile) float64 {
	switch name {
	case "vector":
		return w.Vector
	case "lexical":
		return w.Lexical
	case "symbol":
		return w.Symbol
	case "graph":
		return w.Graph
	default:
		return 0
	}
}

// Cutoff applies the post-fusion intent-specific cutoff (§4.10 "an
// intent-specific cutoff (top-k and min-score) is applied"): at most
// topK hits, each scoring at least minScore.
func Cutoff(hits []FusedHit, topK int, minScore float64) []FusedHit {
	out := make([]FusedHit, 0, topK)
	for _, h := range hits {
		if h.Score < minScore {
			continue
		}
		out = append(out, h)
		if len(out) >= topK {
			break
		}
	}
	return out
}
