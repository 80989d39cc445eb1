package retrieval

import (
	"context"
	"math"
	"sort"
)

// Embedder turns text into a dense vector. The spec explicitly leaves
// the embedding model choice out of scope; this interface is the seam a
// caller plugs a real one into. VectorStrategy itself only needs cosine
// similarity over whatever vectors Embedder produces.
type Embedder interface {
	Embed(text string) []float32
}

// VectorStrategy is the dense-embedding fan-out adapter (§4.10 "vector
// (dense embedding)"). It is a plain in-memory cosine-similarity index,
// not a production vector store (vector store choice is out of scope,
// per the spec's Non-goals) — just enough to exercise fusion against a
// real ranked list.
type VectorStrategy struct {
	chunks  []Chunk
	vectors [][]float32
}

func NewVectorStrategy(chunks []Chunk, embed Embedder) *VectorStrategy {
	s := &VectorStrategy{chunks: chunks}
	for _, c := range chunks {
		s.vectors = append(s.vectors, embed.Embed(c.Text))
	}
	return s
}

func (s *VectorStrategy) Name() string { return "vector" }

func (s *VectorStrategy) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return nil, errNotEmbedded
}

// SearchWithVector runs the strategy against a precomputed query vector.
// Search alone cannot embed the query itself without an Embedder
// reference; EmbeddingStrategy pairs this strategy with one and calls
// SearchWithVector.
func (s *VectorStrategy) SearchWithVector(ctx context.Context, qvec []float32, limit int) ([]SearchHit, error) {
	type scored struct {
		idx   int
		score float64
	}
	var results []scored
	for i, v := range s.vectors {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		sim := cosineSim(qvec, v)
		if sim > 0 {
			results = append(results, scored{idx: i, score: sim})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > limit {
		results = results[:limit]
	}
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		c := s.chunks[r.idx]
		hits = append(hits, SearchHit{ChunkID: c.ID, Score: r.score, FilePath: c.FilePath})
	}
	return hits, nil
}

func cosineSim(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// EmbeddingStrategy wraps a VectorStrategy with the Embedder needed to
// turn a query string into a vector, so it satisfies the plain Strategy
// interface for fan-out alongside lexical/symbol/graph.
type EmbeddingStrategy struct {
	vector *VectorStrategy
	embed  Embedder
}

func NewEmbeddingStrategy(chunks []Chunk, embed Embedder) *EmbeddingStrategy {
	return &EmbeddingStrategy{vector: NewVectorStrategy(chunks, embed), embed: embed}
}

func (s *EmbeddingStrategy) Name() string { return "vector" }

func (s *EmbeddingStrategy) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return s.vector.SearchWithVector(ctx, s.embed.Embed(query), limit)
}

var errNotEmbedded = &embedderRequiredError{}

type embedderRequiredError struct{}

func (e *embedderRequiredError) Error() string {
	return "retrieval: VectorStrategy.Search called directly; use EmbeddingStrategy or SearchWithVector"
}
