package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeir/internal/graphstore"
	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

func TestClassifyIntentSymbolDominant(t *testing.T) {
	p := ClassifyIntent("where is this function declared and implemented")
	assert.Greater(t, p.Symbol, p.Flow)
	assert.Greater(t, p.Symbol, p.Concept)
}

func TestClassifyIntentFlowDominant(t *testing.T) {
	p := ClassifyIntent("trace how tainted input flows to the sink")
	assert.Greater(t, p.Flow, p.Symbol)
}

func TestClassifyIntentFallsBackToUniform(t *testing.T) {
	p := ClassifyIntent("zzz qqq")
	assert.InDelta(t, 1.0/3, p.Symbol, 1e-9)
	assert.InDelta(t, 1.0/3, p.Flow, 1e-9)
	assert.InDelta(t, 1.0/3, p.Concept, 1e-9)
}

func TestWeightsForIntentRaisesSymbolWeight(t *testing.T) {
	base := WeightsForIntent(IntentProbability{Symbol: 0, Flow: 0, Concept: 0})
	symbolHeavy := WeightsForIntent(IntentProbability{Symbol: 1, Flow: 0, Concept: 0})
	assert.Greater(t, symbolHeavy.Symbol, base.Symbol)

	total := symbolHeavy.Vector + symbolHeavy.Lexical + symbolHeavy.Symbol + symbolHeavy.Graph
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestFuseWeightedRRFRewardsConsensus(t *testing.T) {
	hitsByStrategy := map[string][]SearchHit{
		"lexical": {{ChunkID: "a"}, {ChunkID: "b"}},
		"symbol":  {{ChunkID: "a"}, {ChunkID: "c"}},
		"graph":   {{ChunkID: "a"}},
	}
	weights := WeightProfile{Vector: 0.25, Lexical: 0.25, Symbol: 0.25, Graph: 0.25}

	fused := Fuse(hitsByStrategy, weights)
	require.NotEmpty(t, fused)
	assert.Equal(t, "a", fused[0].ChunkID, "chunk seen by all three strategies should rank first")
	assert.Equal(t, 3, fused[0].NumStrategies)
}

func TestFuseRanksHigherRRFScoreFirst(t *testing.T) {
	hitsByStrategy := map[string][]SearchHit{
		"lexical": {{ChunkID: "zebra"}, {ChunkID: "apple"}},
	}
	weights := WeightProfile{Lexical: 1}
	fused := Fuse(hitsByStrategy, weights)
	require.Len(t, fused, 2)
	assert.Equal(t, "zebra", fused[0].ChunkID) // rank 1, strictly higher RRF score
}

func TestCutoffRespectsTopKAndMinScore(t *testing.T) {
	hits := []FusedHit{{ChunkID: "a", Score: 0.9}, {ChunkID: "b", Score: 0.5}, {ChunkID: "c", Score: 0.01}}
	out := Cutoff(hits, 2, 0.1)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ChunkID)
	assert.Equal(t, "b", out[1].ChunkID)
}

func TestLexicalStrategyRanksExactTermHigher(t *testing.T) {
	chunks := []Chunk{
		{ID: "c1", FilePath: "a.py", Text: "parse the abstract syntax tree for python files"},
		{ID: "c2", FilePath: "b.py", Text: "completely unrelated database migration logic"},
	}
	s := NewLexicalStrategy(chunks)
	hits, err := s.Search(context.Background(), "syntax tree parser", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestSymbolStrategyExactAndFuzzyMatch(t *testing.T) {
	entries := []SymbolEntry{
		{Name: "parseFile", FQN: "pkg.parseFile", NodeID: "n1", FilePath: "a.go"},
		{Name: "parsefile", FQN: "pkg2.parsefile", NodeID: "n2", FilePath: "b.go"}, // near-miss casing
		{Name: "unrelated", FQN: "pkg.unrelated", NodeID: "n3", FilePath: "c.go"},
	}
	s := NewSymbolStrategy(entries)
	hits, err := s.Search(context.Background(), "parseFile", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "n1", hits[0].SymbolID)
}

func mkNode(id types.NodeID, kind types.NodeKind, fqn, file string) ir.Node {
	return ir.Node{ID: id, Kind: kind, FQN: fqn, FilePath: file, Language: types.LangGo,
		Span: types.Span{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 1}}
}

func TestGraphStrategyScoresByProximity(t *testing.T) {
	fnA := types.NodeID("FUNCTION:repo1:a.go:a.foo")
	fnB := types.NodeID("FUNCTION:repo1:b.go:b.bar")
	fnC := types.NodeID("FUNCTION:repo1:c.go:c.baz")

	doc := ir.New("a.go", types.LangGo, "test-engine")
	doc.AddNode(mkNode(fnA, types.NodeKindFunction, "a.foo", "a.go"))
	doc.AddNode(mkNode(fnB, types.NodeKindFunction, "b.bar", "b.go"))
	doc.AddNode(mkNode(fnC, types.NodeKindFunction, "c.baz", "c.go"))
	doc.AddEdge(ir.Edge{ID: "e1", Kind: types.EdgeKindCalls, SourceID: fnA, TargetID: fnB})
	doc.AddEdge(ir.Edge{ID: "e2", Kind: types.EdgeKindCalls, SourceID: fnB, TargetID: fnC})

	store, err := graphstore.Build([]*ir.IRDocument{doc})
	require.NoError(t, err)

	s := NewGraphStrategy(store, 5)
	hits, err := s.Search(context.Background(), "foo", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, string(fnB), hits[0].ChunkID) // depth 1, ranks above depth 2
	assert.Equal(t, string(fnC), hits[1].ChunkID)
}

type constEmbedder struct {
	vecs map[string][]float32
}

func (e constEmbedder) Embed(text string) []float32 {
	if v, ok := e.vecs[text]; ok {
		return v
	}
	return []float32{0, 0}
}

func TestVectorStrategyCosineSimilarity(t *testing.T) {
	chunks := []Chunk{{ID: "c1", Text: "x"}, {ID: "c2", Text: "y"}}
	embed := constEmbedder{vecs: map[string][]float32{
		"x":     {1, 0},
		"y":     {0, 1},
		"query": {1, 0},
	}}
	s := NewEmbeddingStrategy(chunks, embed)
	hits, err := s.Search(context.Background(), "query", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestThreeTierCacheExpiresAfterTTL(t *testing.T) {
	c := NewThreeTierCache(10 * time.Millisecond)
	c.PutQuery("k", []FusedHit{{ChunkID: "a"}})

	_, ok := c.GetQuery("k")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.GetQuery("k")
	assert.False(t, ok)
}

func TestThreeTierCacheStatsTrackHitsAndMisses(t *testing.T) {
	c := NewThreeTierCache(0)
	_, _ = c.GetIntent("missing")
	c.PutIntent("k", IntentProbability{Symbol: 1})
	_, _ = c.GetIntent("k")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.IntentHits)
	assert.Equal(t, int64(1), stats.IntentMisses)
}

type stubStrategy struct {
	name string
	hits []SearchHit
}

func (s stubStrategy) Name() string { return s.name }
func (s stubStrategy) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return s.hits, nil
}

func TestRetrieverSearchFusesAcrossStrategiesAndCaches(t *testing.T) {
	strategies := []Strategy{
		stubStrategy{name: "lexical", hits: []SearchHit{{ChunkID: "a"}, {ChunkID: "b"}}},
		stubStrategy{name: "symbol", hits: []SearchHit{{ChunkID: "a"}}},
		stubStrategy{name: "graph", hits: []SearchHit{{ChunkID: "a"}}},
		stubStrategy{name: "vector", hits: nil},
	}
	r := New(strategies, NewThreeTierCache(time.Minute))

	fused, err := r.Search(context.Background(), "repo1", "snap1", "find definition", 10)
	require.NoError(t, err)
	require.NotEmpty(t, fused)
	assert.Equal(t, "a", fused[0].ChunkID)

	// Second call with identical args should be served from the
	// L1-query cache.
	fused2, err := r.Search(context.Background(), "repo1", "snap1", "find definition", 10)
	require.NoError(t, err)
	assert.Equal(t, fused, fused2)

	stats := r.Cache.Stats()
	assert.Equal(t, int64(1), stats.QueryHits)
}
