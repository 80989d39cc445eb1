package query

import (
	"time"

	"github.com/standardbeagle/codeir/internal/graphstore"
	"github.com/standardbeagle/codeir/internal/types"
)

// Execute runs q against store (§4.9 "Execution"): BFS from the source
// set with bookkeeping (visited per node, path reconstruction via
// predecessor map, early termination on limit_paths). Cycles are handled
// by visited-set membership.
func Execute(store *graphstore.Store, q *Query) *PathSet {
	deadline := time.Now().Add(q.timeout)

	start, end := q.Source, q.Target
	if q.Reverse {
		start, end = q.Target, q.Source
	}

	type frontierEntry struct {
		ref   graphstore.NodeRef
		depth int
	}

	visited := make(map[graphstore.NodeRef]bool)
	pred := make(map[graphstore.NodeRef]graphstore.NodeRef)
	predEdge := make(map[graphstore.NodeRef]graphstore.StoredEdge)

	var frontier []frontierEntry
	var result PathSet
	result.Complete = true

	nodesVisited := 0
	addStart := func(ref graphstore.NodeRef) {
		if visited[ref] {
			return
		}
		visited[ref] = true
		nodesVisited++
		frontier = append(frontier, frontierEntry{ref: ref, depth: 0})
	}

	allNodes := store.NodesSlice()
	for i := range allNodes {
		n := &allNodes[i]
		if q.excluding != nil && q.excluding.Matches(n) {
			continue
		}
		if q.within != nil && !q.within.Matches(n) {
			continue
		}
		if start.Matches(n) {
			addStart(graphstore.NodeRef(i))
		}
	}

	emit := func(target graphstore.NodeRef) bool {
		if len(result.Paths) >= q.limitPaths {
			result.Complete = false
			result.TruncationReason = TruncationPathLimit
			return false
		}
		result.Paths = append(result.Paths, reconstructPath(store, pred, predEdge, target, q.Reverse))
		return true
	}

	// Self-path handling (Open Question, DESIGN.md decision 3): any start
	// node already matching end yields a zero-length path immediately.
	for _, fe := range frontier {
		n := store.NodeAt(fe.ref)
		if end.Matches(n) {
			if !q.allowSelfPath {
				continue
			}
			if !emit(fe.ref) {
				return &result
			}
		}
	}

	for depth := 0; depth < q.depth && len(frontier) > 0; depth++ {
		if time.Now().After(deadline) {
			result.Complete = false
			result.TruncationReason = TruncationTimeout
			return &result
		}

		var next []frontierEntry
		for _, fe := range frontier {
			for _, e := range neighborEdges(store, fe.ref, q.Reverse) {
				if !kindAllowed(q.via, e.Kind) {
					continue
				}
				nbr := otherEnd(e, q.Reverse)
				if visited[nbr] {
					continue
				}
				n := store.NodeAt(nbr)
				if q.excluding != nil && q.excluding.Matches(n) {
					continue
				}
				if q.within != nil && !q.within.Matches(n) {
					continue
				}

				if nodesVisited >= q.limitNodes {
					result.Complete = false
					result.TruncationReason = TruncationNodeLimit
					return &result
				}

				visited[nbr] = true
				nodesVisited++
				pred[nbr] = fe.ref
				predEdge[nbr] = e
				next = append(next, frontierEntry{ref: nbr, depth: depth + 1})

				if end.Matches(n) {
					if !emit(nbr) {
						return &result
					}
				}
			}
		}
		frontier = next
	}

	if len(frontier) > 0 {
		// Depth exhausted with more frontier left to explore — the
		// search space beyond this point was never visited.
		result.Complete = false
		if result.TruncationReason == "" {
			result.TruncationReason = TruncationDepth
		}
	}
	if result.TruncationReason == "" {
		result.TruncationReason = TruncationNone
	}

	if q.wherePred != nil {
		filtered := result.Paths[:0]
		for _, p := range result.Paths {
			if q.wherePred(p) {
				filtered = append(filtered, p)
			}
		}
		result.Paths = filtered
	}

	return &result
}

func kindAllowed(via []types.EdgeKind, kind types.EdgeKind) bool {
	if len(via) == 0 {
		return true
	}
	for _, k := range via {
		if k == kind {
			return true
		}
	}
	return false
}

func neighborEdges(store *graphstore.Store, ref graphstore.NodeRef, reverse bool) []graphstore.StoredEdge {
	n := store.NodeAt(ref)
	if reverse {
		return store.GetEdgesByTarget(n.ID)
	}
	return store.GetEdgesBySource(n.ID)
}

func otherEnd(e graphstore.StoredEdge, reverse bool) graphstore.NodeRef {
	if reverse {
		return e.Source
	}
	return e.Target
}

// reconstructPath walks the predecessor map from target back to its
// start node and reverses it into start->...->target order (or the
// reverse-flow equivalent, left in discovery order for a reverse query
// so the returned path always reads "from the frontier's actual walk
// direction").
func reconstructPath(store *graphstore.Store, pred map[graphstore.NodeRef]graphstore.NodeRef, predEdge map[graphstore.NodeRef]graphstore.StoredEdge, target graphstore.NodeRef, reverse bool) PathResult {
	var nodes []types.NodeID
	var edgeIDs []types.EdgeID
	var kinds []types.EdgeKind

	cur := target
	for {
		nodes = append(nodes, store.NodeAt(cur).ID)
		p, ok := pred[cur]
		if !ok {
			break
		}
		e := predEdge[cur]
		edgeIDs = append(edgeIDs, e.ID)
		kinds = append(kinds, e.Kind)
		cur = p
	}

	// nodes/edgeIDs were appended target-first; reverse into
	// start->...->target order.
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edgeIDs)-1; i < j; i, j = i+1, j-1 {
		edgeIDs[i], edgeIDs[j] = edgeIDs[j], edgeIDs[i]
		kinds[i], kinds[j] = kinds[j], kinds[i]
	}

	return PathResult{Nodes: nodes, Edges: edgeIDs, Kinds: kinds}
}
