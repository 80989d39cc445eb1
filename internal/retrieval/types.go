// Package retrieval implements Hybrid Retrieval V3 (§4.10): four
// search strategies (vector, lexical, symbol, graph) fanned out in
// parallel and fused by intent-weighted Reciprocal Rank Fusion, backed
// by a three-tier cache.
package retrieval

import "context"

// SearchHit is one strategy's result for a chunk (§4.10 "Per-strategy
// adapter").
type SearchHit struct {
	ChunkID  string
	Score    float64
	FilePath string
	// SymbolID is empty for hits with no associated symbol node.
	SymbolID string
	Metadata map[string]any
}

// Strategy is one of the four fan-out adapters: vector, lexical, symbol,
// graph. Implementations must respect ctx cancellation/deadline (§4.10
// "must cancel on deadline").
type Strategy interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// IntentProbability is the intent classifier's output (§4.10 "Output:
// IntentProbability{symbol, flow, concept}"). The three axes need not
// sum to exactly 1 before Normalize is called.
type IntentProbability struct {
	Symbol  float64
	Flow    float64
	Concept float64
}

// Normalize scales the three axes to sum to 1, leaving the uniform
// distribution in place if all three are zero.
func (p *IntentProbability) Normalize() {
	total := p.Symbol + p.Flow + p.Concept
	if total <= 0 {
		p.Symbol, p.Flow, p.Concept = 1.0/3, 1.0/3, 1.0/3
		return
	}
	p.Symbol /= total
	p.Flow /= total
	p.Concept /= total
}

// WeightProfile assigns each of the four strategies a fusion weight
// (§4.10 "Weights w_s are a function of intent"). Weights are normalized
// to sum to 1 before use.
type WeightProfile struct {
	Vector  float64
	Lexical float64
	Symbol  float64
	Graph   float64
}

// Normalize scales the four weights to sum to 1.
func (w *WeightProfile) Normalize() {
	total := w.Vector + w.Lexical + w.Symbol + w.Graph
	if total <= 0 {
		w.Vector, w.Lexical, w.Symbol, w.Graph = 0.25, 0.25, 0.25, 0.25
		return
	}
	w.Vector /= total
	w.Lexical /= total
	w.Symbol /= total
	w.Graph /= total
}
