// Package graphstore implements the Graph Store (§4.8): one addressable,
// build-then-freeze multigraph per snapshot holding every file's Nodes
// and Edges, with all inter-node references compacted to 32-bit array
// indexes (§4.8 "Storage strategy") and a CSR-like adjacency layout for
// O(1)/O(k) edge lookups.
package graphstore

import (
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

// NodeRef is a dense 32-bit index into Store.nodes, the in-memory
// replacement for string NodeIDs everywhere edges point (§4.8: "all
// references between nodes are 32-bit indexes into that array rather
// than string IDs").
type NodeRef uint32

const invalidRef NodeRef = ^NodeRef(0)

// StoredEdge is one edge projected into the store's index space.
type StoredEdge struct {
	ID     types.EdgeID
	Kind   types.EdgeKind
	Source NodeRef
	Target NodeRef
	Span   *types.Span
	Attrs  map[string]any
}

// Store is a frozen, read-only-after-build directed multigraph for one
// snapshot (§4.8, §4.9's "Ownership is the store owns all nodes and edges
// for the duration of the snapshot"). Build populates it single-writer;
// once built, concurrent readers need no locking.
type Store struct {
	nodes   []ir.Node           // dense node table, index == NodeRef
	byID    map[types.NodeID]NodeRef
	byKind  map[types.NodeKind]*roaring.Bitmap

	// outEdges/inEdges are CSR-like: outOffsets[r]..outOffsets[r+1] slices
	// outEdges for node r, sorted by Kind within that slice so
	// GetEdgesBySourceKind can binary-search the kind run instead of
	// scanning (§4.8 "sorted by kind").
	outEdges   []StoredEdge
	outOffsets []int32
	inEdges    []StoredEdge
	inOffsets  []int32

	frozen bool
}

// GetNode returns the node with id, or false if absent.
func (s *Store) GetNode(id types.NodeID) (*ir.Node, bool) {
	ref, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.nodes[ref], true
}

// Ref returns the dense NodeRef for id, used by internal/query to avoid
// repeated string hashing during traversal.
func (s *Store) Ref(id types.NodeID) (NodeRef, bool) {
	ref, ok := s.byID[id]
	return ref, ok
}

// NodeAt returns the node stored at ref directly, skipping the string
// lookup (§4.9's traversal hot path).
func (s *Store) NodeAt(ref NodeRef) *ir.Node {
	return &s.nodes[ref]
}

// GetEdgesBySource returns every outgoing edge from id, in kind-sorted
// order.
func (s *Store) GetEdgesBySource(id types.NodeID) []StoredEdge {
	ref, ok := s.byID[id]
	if !ok {
		return nil
	}
	return s.outEdges[s.outOffsets[ref]:s.outOffsets[ref+1]]
}

// GetEdgesByTarget returns every incoming edge to id.
func (s *Store) GetEdgesByTarget(id types.NodeID) []StoredEdge {
	ref, ok := s.byID[id]
	if !ok {
		return nil
	}
	return s.inEdges[s.inOffsets[ref]:s.inOffsets[ref+1]]
}

// GetEdgesBySourceKind returns id's outgoing edges restricted to kind,
// binary-searching the kind-sorted run within id's slice (§4.8).
func (s *Store) GetEdgesBySourceKind(id types.NodeID, kind types.EdgeKind) []StoredEdge {
	all := s.GetEdgesBySource(id)
	lo := sort.Search(len(all), func(i int) bool { return all[i].Kind >= kind })
	hi := sort.Search(len(all), func(i int) bool { return all[i].Kind > kind })
	if lo >= hi {
		return nil
	}
	return all[lo:hi]
}

// GetNodesByKind returns every node of the given kind. The returned slice
// is freshly materialized from the frozen bitmap index each call;
// callers doing this in a hot loop should cache the result.
func (s *Store) GetNodesByKind(kind types.NodeKind) []*ir.Node {
	bm, ok := s.byKind[kind]
	if !ok {
		return nil
	}
	out := make([]*ir.Node, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, &s.nodes[it.Next()])
	}
	return out
}

// NodesSlice returns the dense node table directly, index == NodeRef.
// Used by internal/query to seed a traversal frontier without per-node
// string lookups.
func (s *Store) NodesSlice() []ir.Node { return s.nodes }

// NodeCount returns the number of nodes in the store.
func (s *Store) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of edges in the store.
func (s *Store) EdgeCount() int { return len(s.outEdges) }

// Frozen reports whether Build has completed.
func (s *Store) Frozen() bool { return s.frozen }
