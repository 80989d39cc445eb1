package retrieval

import "strings"

// symbolKeywords, flowKeywords, and conceptKeywords regroup
// original_source's QueryClassifier keyword sets (classifier.py's
// API_USAGE/REFACTOR_LOCATION/FIND_DEFINITION buckets all lean "symbol
// lookup"; TRACE_DATAFLOW/API_USAGE's call-graph emphasis leans "flow";
// EXPLAIN_LOGIC leans "concept") onto the spec's three continuous axes
// instead of classifier.py's single discrete QueryIntent.
var (
	symbolKeywords  = []string{"call", "usage", "used", "caller", "definition", "declare", "implement", "refactor", "move", "extract", "where is"}
	flowKeywords    = []string{"flow", "trace", "track", "propagate", "reach", "dataflow", "taint"}
	conceptKeywords = []string{"explain", "what", "how", "why", "understand", "overview"}
)

// ClassifyIntent scores query against the three keyword buckets and
// returns a normalized IntentProbability (§4.10 "rule-based keyword
// features"). Multiple buckets can match; ClassifyIntent counts hits
// rather than taking the original's first-match-wins branch, so a query
// like "explain how this call flows" contributes to all three axes.
func ClassifyIntent(query string) IntentProbability {
	q := strings.ToLower(query)
	p := IntentProbability{
		Symbol:  float64(countMatches(q, symbolKeywords)),
		Flow:    float64(countMatches(q, flowKeywords)),
		Concept: float64(countMatches(q, conceptKeywords)),
	}
	p.Normalize()
	return p
}

func countMatches(q string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			n++
		}
	}
	return n
}

// baseWeights is the GENERAL profile all intent-derived weights start
// from, mirroring classifier.py's WeightProfile defaults split evenly
// across search methods before intent adjusts them — extended with a
// vector axis and a lexical floor that intent never zeroes out, since
// lexical recall matters regardless of intent.
func baseWeights() WeightProfile {
	return WeightProfile{Vector: 0.25, Lexical: 0.2, Symbol: 0.25, Graph: 0.3}
}

// WeightsForIntent derives the strategy weights from the classified
// intent (§4.10 "symbol-dominant intent -> raise symbol weight,
// flow-dominant -> raise graph weight"), then adds a concept-dominant ->
// raise vector weight rule for the axis classifier.py didn't have
// (embeddings are this repo's concept-similarity strategy). Weights are
// normalized to sum to 1.
func WeightsForIntent(p IntentProbability) WeightProfile {
	w := baseWeights()
	w.Symbol += 0.5 * p.Symbol
	w.Graph += 0.5 * p.Flow
	w.Vector += 0.5 * p.Concept
	w.Normalize()
	return w
}
