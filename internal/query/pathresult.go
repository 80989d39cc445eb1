package query

import "github.com/standardbeagle/codeir/internal/types"

// TruncationReason explains why a PathSet stopped short of exhaustive
// (§4.9 "complete=false is a first-class result, not an error").
type TruncationReason string

const (
	TruncationNone      TruncationReason = "none"
	TruncationDepth     TruncationReason = "depth"
	TruncationPathLimit TruncationReason = "path_limit"
	TruncationNodeLimit TruncationReason = "node_limit"
	TruncationTimeout   TruncationReason = "timeout"
)

// PathResult is one source-to-target path: its node list in traversal
// order, the edges connecting consecutive nodes, and the edge kinds
// walked.
type PathResult struct {
	Nodes []types.NodeID
	Edges []types.EdgeID
	Kinds []types.EdgeKind
}

// Len returns the number of nodes in the path (a zero-length self-path
// has Len()==1).
func (p PathResult) Len() int { return len(p.Nodes) }

// Slice returns the sub-path spanning node indexes [i:j), re-deriving
// the edge/kind slices to match (§4.9 "supports slicing by node
// index").
func (p PathResult) Slice(i, j int) PathResult {
	out := PathResult{Nodes: append([]types.NodeID(nil), p.Nodes[i:j]...)}
	if j > i {
		lo, hi := i, j-1
		if lo < len(p.Edges) {
			if hi > len(p.Edges) {
				hi = len(p.Edges)
			}
			out.Edges = append([]types.EdgeID(nil), p.Edges[lo:hi]...)
			out.Kinds = append([]types.EdgeKind(nil), p.Kinds[lo:hi]...)
		}
	}
	return out
}

// PathSet is the result of executing a Flow query (§4.9 "Result type").
type PathSet struct {
	Paths            []PathResult
	Complete         bool
	TruncationReason TruncationReason
}

// Shortest returns the path with the fewest nodes, or nil if Paths is
// empty.
func (ps PathSet) Shortest() *PathResult {
	return extremum(ps.Paths, func(a, b PathResult) bool { return a.Len() < b.Len() })
}

// Longest returns the path with the most nodes, or nil if Paths is
// empty.
func (ps PathSet) Longest() *PathResult {
	return extremum(ps.Paths, func(a, b PathResult) bool { return a.Len() > b.Len() })
}

func extremum(paths []PathResult, better func(a, b PathResult) bool) *PathResult {
	if len(paths) == 0 {
		return nil
	}
	best := paths[0]
	for _, p := range paths[1:] {
		if better(p, best) {
			best = p
		}
	}
	return &best
}
