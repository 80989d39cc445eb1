package graphstore

import (
	"errors"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"

	cerrors "github.com/standardbeagle/codeir/internal/errors"
	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

// Build ingests every file's IRDocument for one snapshot into a single
// frozen Store (§4.8). Builders upstream of this one have already
// validated each document individually (internal/ir.Validate); Build's
// job is the cross-document check invariant #1 requires once every
// file's nodes are in one address space: an edge's target must resolve
// to a concrete node unless that node is external.
//
// Build is single-writer (§5 "Graph store: build phase is single-writer;
// serve phase is read-only and lock-free") — callers must not mutate any
// input IRDocument concurrently with this call.
func Build(docs []*ir.IRDocument) (*Store, error) {
	s := &Store{
		byID:   make(map[types.NodeID]NodeRef),
		byKind: make(map[types.NodeKind]*roaring.Bitmap),
	}

	// Pass 1: assign dense refs to every node, file order then per-file
	// declaration order (deterministic per §5's "sort by NodeId" fallback
	// is for cross-file consumers; within one build this ingestion order
	// is already deterministic given deterministic per-file IR output).
	total := 0
	for _, d := range docs {
		total += len(d.Nodes)
	}
	s.nodes = make([]ir.Node, 0, total)
	for _, d := range docs {
		for _, n := range d.Nodes {
			ref := NodeRef(len(s.nodes))
			// Last-writer-wins on duplicate NodeId (invariant #4): a later
			// document's node with the same ID overwrites the earlier
			// node's slot, so the ID keeps the ref it was first given
			// rather than splitting identity across two refs.
			if existing, ok := s.byID[n.ID]; ok {
				s.nodes[existing] = n
				continue
			}
			s.nodes = append(s.nodes, n)
			s.byID[n.ID] = ref
		}
	}

	for ref := range s.nodes {
		n := &s.nodes[ref]
		bm, ok := s.byKind[n.Kind]
		if !ok {
			bm = roaring.New()
			s.byKind[n.Kind] = bm
		}
		bm.Add(uint32(ref))
	}

	// Pass 2: project edges into ref space, validating invariant #1.
	var allEdges []StoredEdge
	var offenders []string
	for _, d := range docs {
		for _, e := range d.Edges {
			srcRef, ok := s.byID[e.SourceID]
			if !ok {
				offenders = append(offenders, string(e.ID))
				continue
			}
			tgtRef, ok := s.byID[e.TargetID]
			if !ok {
				if isExternalID(e.TargetID) {
					continue // external edges with no materialized node are dropped, not an error
				}
				offenders = append(offenders, string(e.ID))
				continue
			}
			allEdges = append(allEdges, StoredEdge{
				ID: e.ID, Kind: e.Kind, Source: srcRef, Target: tgtRef, Span: e.Span, Attrs: e.Attrs,
			})
		}
	}
	if len(offenders) > 0 {
		return nil, cerrors.NewConsistencyError(
			"edge_endpoints_resolve",
			offenders,
			errors.New("edge source/target did not resolve to a node and target is not external"),
		)
	}

	s.buildCSR(allEdges)
	s.frozen = true
	return s, nil
}

// isExternalID reports whether id was built with types.ExternalFile as
// its file component, mirroring internal/resolve's unexported helper of
// the same name (invariant #1's "kind ∈ external" escape hatch).
func isExternalID(id types.NodeID) bool {
	return strings.Contains(string(id), ":"+types.ExternalFile+":")
}

func (s *Store) buildCSR(edges []StoredEdge) {
	n := len(s.nodes)

	outCount := make([]int32, n+1)
	inCount := make([]int32, n+1)
	for _, e := range edges {
		outCount[e.Source]++
		inCount[e.Target]++
	}

	s.outOffsets = prefixSum(outCount)
	s.inOffsets = prefixSum(inCount)

	s.outEdges = make([]StoredEdge, len(edges))
	s.inEdges = make([]StoredEdge, len(edges))

	outCursor := append([]int32(nil), s.outOffsets[:n]...)
	inCursor := append([]int32(nil), s.inOffsets[:n]...)
	for _, e := range edges {
		s.outEdges[outCursor[e.Source]] = e
		outCursor[e.Source]++
		s.inEdges[inCursor[e.Target]] = e
		inCursor[e.Target]++
	}

	for i := 0; i < n; i++ {
		sort.SliceStable(s.outEdges[s.outOffsets[i]:s.outOffsets[i+1]], func(a, b int) bool {
			base := s.outEdges[s.outOffsets[i]:s.outOffsets[i+1]]
			return base[a].Kind < base[b].Kind
		})
		sort.SliceStable(s.inEdges[s.inOffsets[i]:s.inOffsets[i+1]], func(a, b int) bool {
			base := s.inEdges[s.inOffsets[i]:s.inOffsets[i+1]]
			return base[a].Kind < base[b].Kind
		})
	}
}

func prefixSum(counts []int32) []int32 {
	out := make([]int32, len(counts))
	var sum int32
	for i, c := range counts {
		out[i] = sum
		sum += c
	}
	return out
}
