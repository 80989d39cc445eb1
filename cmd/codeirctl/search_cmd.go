package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codeir/internal/orchestrator"
	"github.com/standardbeagle/codeir/internal/retrieval"
	"github.com/standardbeagle/codeir/internal/types"
	"github.com/standardbeagle/codeir/pkg/pathutil"
)

var searchCommand = &cli.Command{
	Name:    "search",
	Aliases: []string{"s"},
	Usage:   "hybrid retrieval over --root: lexical + symbol + graph strategies fused by intent-weighted RRF",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "top-k results after fusion", Value: retrieval.DefaultTopK},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("usage: codeirctl search <query>")
		}
		queryText := strings.Join(c.Args().Slice(), " ")

		cfg, err := loadProjectConfig(c)
		if err != nil {
			return err
		}
		result, err := runSession(c, cfg)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
		if result.Cancelled {
			return fmt.Errorf("indexing cancelled")
		}

		retriever := buildRetriever(result, cfg.Project.Root)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		hits, err := retriever.Search(ctx, cfg.Build.RepoID, result.Version.VersionID, queryText, c.Int("limit"))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(hits) == 0 {
			fmt.Println("no results")
			return nil
		}
		for i, h := range hits {
			fmt.Printf("%2d. %-40s score=%.4f strategies=%d best_rank=%d\n",
				i+1, h.ChunkID, h.Score, h.NumStrategies, h.BestRank)
		}
		return nil
	},
}

// buildRetriever turns a just-built orchestrator.Result into the three
// fan-out strategies the CLI can wire without an external embedding
// model (vector search needs a concrete Embedder, deliberately out of
// scope per §1 — lexical, symbol, and graph are self-contained): one
// lexical chunk and one symbol entry per searchable node (see
// isSearchable), plus a graph-proximity strategy over the freshly built store.
func buildRetriever(result *orchestrator.Result, root string) *retrieval.Retriever {
	fileText := make(map[string][]string, len(result.Docs))

	var chunks []retrieval.Chunk
	var symbols []retrieval.SymbolEntry
	for _, doc := range result.Docs {
		for _, n := range doc.Nodes {
			if !isSearchable(n.Kind) {
				continue
			}
			text := sliceSpan(fileText, n.FilePath, n.Span)
			relPath := pathutil.ToRelative(n.FilePath, root)
			chunks = append(chunks, retrieval.Chunk{
				ID:       string(n.ID),
				FilePath: relPath,
				Text:     text,
			})
			symbols = append(symbols, retrieval.SymbolEntry{
				Name:     lastSegment(n.FQN),
				FQN:      n.FQN,
				NodeID:   string(n.ID),
				FilePath: relPath,
			})
		}
	}

	strategies := []retrieval.Strategy{
		retrieval.NewLexicalStrategy(chunks),
		retrieval.NewSymbolStrategy(symbols),
		retrieval.NewGraphStrategy(result.Store, 3),
	}
	return retrieval.New(strategies, retrieval.NewThreeTierCache(5*time.Minute))
}

func isSearchable(kind types.NodeKind) bool {
	switch kind {
	case types.NodeKindFunction, types.NodeKindMethod, types.NodeKindClass,
		types.NodeKindStruct, types.NodeKindInterface, types.NodeKindModule:
		return true
	default:
		return false
	}
}

// sliceSpan reads filePath once (cached in cache) and joins the lines
// covered by span, a small on-demand re-read since IRDocument itself
// only retains spans, not source text.
func sliceSpan(cache map[string][]string, filePath string, span types.Span) string {
	lines, ok := cache[filePath]
	if !ok {
		data, err := os.ReadFile(filePath)
		if err != nil {
			cache[filePath] = nil
			return ""
		}
		lines = strings.Split(string(data), "\n")
		cache[filePath] = lines
	}
	if span.Zero() || len(lines) == 0 {
		return ""
	}
	start, end := span.StartLine-1, span.EndLine-1
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start:end+1], "\n")
}

func lastSegment(fqn string) string {
	if i := strings.LastIndex(fqn, "."); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}
