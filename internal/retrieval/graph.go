package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/standardbeagle/codeir/internal/graphstore"
	"github.com/standardbeagle/codeir/internal/types"
)

// GraphStrategy is the graph-proximity fan-out adapter (§4.10 "graph
// (edge-proximity in the graph store)"): it seeds a BFS from every node
// whose FQN contains the query text and scores every reached node by
// inverse distance, walking the same CSR adjacency internal/query's
// executor uses.
type GraphStrategy struct {
	store    *graphstore.Store
	maxDepth int
}

func NewGraphStrategy(store *graphstore.Store, maxDepth int) *GraphStrategy {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &GraphStrategy{store: store, maxDepth: maxDepth}
}

func (s *GraphStrategy) Name() string { return "graph" }

func (s *GraphStrategy) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || s.store == nil {
		return nil, nil
	}

	visited := make(map[types.NodeID]int) // node -> depth
	var frontier []types.NodeID

	nodes := s.store.NodesSlice()
	for i := range nodes {
		n := &nodes[i]
		if strings.Contains(strings.ToLower(n.FQN), q) {
			if _, ok := visited[n.ID]; !ok {
				visited[n.ID] = 0
				frontier = append(frontier, n.ID)
			}
		}
	}

	for depth := 0; depth < s.maxDepth && len(frontier) > 0; depth++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var next []types.NodeID
		for _, id := range frontier {
			for _, e := range s.store.GetEdgesBySource(id) {
				nbr := s.store.NodeAt(e.Target).ID
				if _, seen := visited[nbr]; !seen {
					visited[nbr] = depth + 1
					next = append(next, nbr)
				}
			}
		}
		frontier = next
	}

	type scored struct {
		id    types.NodeID
		depth int
	}
	results := make([]scored, 0, len(visited))
	for id, depth := range visited {
		if depth == 0 {
			continue // seed nodes themselves aren't proximity hits
		}
		results = append(results, scored{id: id, depth: depth})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].depth != results[j].depth {
			return results[i].depth < results[j].depth
		}
		return results[i].id < results[j].id
	})
	if len(results) > limit {
		results = results[:limit]
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		n, _ := s.store.GetNode(r.id)
		hits = append(hits, SearchHit{
			ChunkID:  string(r.id),
			Score:    1.0 / float64(1+r.depth),
			FilePath: n.FilePath,
			SymbolID: string(r.id),
			Metadata: map[string]any{"depth": r.depth},
		})
	}
	return hits, nil
}
