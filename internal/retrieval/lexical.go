package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/surgebase/porter2"
)

// Chunk is one indexable unit of text (a function body, a doc comment
// block, …) that the lexical and vector strategies search over.
type Chunk struct {
	ID       string
	FilePath string
	Text     string
}

const minStemLength = 3

// tokenize splits text on non-alphanumeric boundaries and lowercases,
// the same word-splitting shape as
// standardbeagle-lci/internal/core/semantic_search_index.go's tokenizer
// generalized from its letter/digit-transition splitting to a plain
// unicode.IsLetter/IsDigit scan.
func tokenize(text string) []string {
	var words []string
	var cur strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
			continue
		}
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

// stem applies Porter2 stemming to words at least minStemLength long,
// matching the teacher's StemWords (semantic_search_index.go).
func stem(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) >= minStemLength {
			out = append(out, porter2.Stem(w))
		}
	}
	return out
}

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// LexicalStrategy is the lexical/BM25 fan-out adapter (§4.10 "lexical
// (BM25/zoekt)"). It stems both the corpus and the query with Porter2
// (the teacher's stemmer dependency, reused directly rather than
// reimplemented) and scores with classic Okapi BM25.
type LexicalStrategy struct {
	chunks  []Chunk
	docTerms [][]string
	df       map[string]int
	avgLen   float64
}

// NewLexicalStrategy indexes chunks for search.
func NewLexicalStrategy(chunks []Chunk) *LexicalStrategy {
	s := &LexicalStrategy{chunks: chunks, df: make(map[string]int)}
	total := 0
	for _, c := range chunks {
		terms := stem(tokenize(c.Text))
		s.docTerms = append(s.docTerms, terms)
		total += len(terms)
		seen := make(map[string]bool)
		for _, t := range terms {
			if !seen[t] {
				s.df[t]++
				seen[t] = true
			}
		}
	}
	if len(chunks) > 0 {
		s.avgLen = float64(total) / float64(len(chunks))
	}
	return s
}

func (s *LexicalStrategy) Name() string { return "lexical" }

func (s *LexicalStrategy) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	queryTerms := stem(tokenize(query))
	n := float64(len(s.chunks))

	type scored struct {
		idx   int
		score float64
	}
	var results []scored
	for i, terms := range s.docTerms {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		tf := make(map[string]int)
		for _, t := range terms {
			tf[t]++
		}
		score := 0.0
		for _, qt := range queryTerms {
			f := float64(tf[qt])
			if f == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(s.df[qt])+0.5)/(float64(s.df[qt])+0.5))
			denom := f + bm25K1*(1-bm25B+bm25B*float64(len(terms))/maxF(s.avgLen, 1))
			score += idf * (f * (bm25K1 + 1)) / denom
		}
		if score > 0 {
			results = append(results, scored{idx: i, score: score})
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

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
