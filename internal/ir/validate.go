package ir

import (
	"fmt"

	ircerrors "github.com/standardbeagle/codeir/internal/errors"
	"github.com/standardbeagle/codeir/internal/types"
)

// Validate checks invariants #1-#4 from §3 and returns one
// ConsistencyError per violated invariant, listing every offending id
// (never short-circuits on the first failure, so a single pass surfaces
// everything a caller needs to fix).
// fileLineCount is the line count of d.FilePath, used for invariant #2.
func (d *IRDocument) Validate(fileLineCount int) []*ircerrors.ConsistencyError {
	var violations []*ircerrors.ConsistencyError

	d.buildIndexes()

	if v := d.checkEdgeTargetsResolve(); v != nil {
		violations = append(violations, v)
	}
	if v := d.checkSpansWithinFile(fileLineCount); v != nil {
		violations = append(violations, v)
	}
	if v := d.checkContainsIsForest(); v != nil {
		violations = append(violations, v)
	}
	if v := d.checkNodeIDsUnique(); v != nil {
		violations = append(violations, v)
	}

	return violations
}

// checkEdgeTargetsResolve enforces invariant #1: every edge's source/target
// resolves to an existing node, except external targets in "<external>".
func (d *IRDocument) checkEdgeTargetsResolve() *ircerrors.ConsistencyError {
	var offending []string
	for _, e := range d.Edges {
		if _, ok := d.byID[e.SourceID]; !ok {
			offending = append(offending, string(e.ID)+":source")
		}
		if _, ok := d.byID[e.TargetID]; !ok {
			if !isExternalTarget(e.TargetID) {
				offending = append(offending, string(e.ID)+":target")
			}
		}
	}
	if len(offending) == 0 {
		return nil
	}
	return ircerrors.NewConsistencyError(
		"edge endpoints must resolve to an existing node or an external sentinel",
		offending, nil)
}

func isExternalTarget(id types.NodeID) bool {
	// NewNodeID embeds file_path as a component; external nodes are built
	// with file_path == "<external>", so the sentinel appears verbatim in
	// the encoded id.
	return containsExternalSentinel(string(id))
}

func containsExternalSentinel(s string) bool {
	const sentinel = types.ExternalFile
	for i := 0; i+len(sentinel) <= len(s); i++ {
		if s[i:i+len(sentinel)] == sentinel {
			return true
		}
	}
	return false
}

// checkSpansWithinFile enforces invariant #2.
func (d *IRDocument) checkSpansWithinFile(fileLineCount int) *ircerrors.ConsistencyError {
	var offending []string
	for _, n := range d.Nodes {
		if !n.Valid(fileLineCount) {
			offending = append(offending, string(n.ID))
		}
	}
	if len(offending) == 0 {
		return nil
	}
	return ircerrors.NewConsistencyError(
		fmt.Sprintf("node span must lie within [1, file_line_count] (file_line_count=%d) and contain body_span", fileLineCount),
		offending, nil)
}

// checkContainsIsForest enforces invariant #3: CONTAINS edges form a
// forest — no cycles, and each non-root node has at most one parent.
func (d *IRDocument) checkContainsIsForest() *ircerrors.ConsistencyError {
	parentCount := make(map[types.NodeID]int)
	children := make(map[types.NodeID][]types.NodeID)
	for _, e := range d.Edges {
		if e.Kind != types.EdgeKindContains {
			continue
		}
		parentCount[e.TargetID]++
		children[e.SourceID] = append(children[e.SourceID], e.TargetID)
	}

	var offending []string
	for id, count := range parentCount {
		if count > 1 {
			offending = append(offending, string(id)+":multiple-parents")
		}
	}

	// Cycle detection via DFS coloring over the CONTAINS adjacency.
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[types.NodeID]int)
	var stack []types.NodeID
	var visit func(id types.NodeID) bool
	visit = func(id types.NodeID) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, c := range children[id] {
			switch color[c] {
			case gray:
				offending = append(offending, string(c)+":cycle")
				return true
			case white:
				if visit(c) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}
	for _, n := range d.Nodes {
		if color[n.ID] == white {
			visit(n.ID)
		}
	}

	if len(offending) == 0 {
		return nil
	}
	return ircerrors.NewConsistencyError(
		"CONTAINS edges must form a forest: no cycles, at most one parent per node",
		offending, nil)
}

// checkNodeIDsUnique enforces invariant #4's "never split identity" half:
// a NodeId appearing more than once in d.Nodes means a duplicate entry
// was appended rather than replaced in place.
func (d *IRDocument) checkNodeIDsUnique() *ircerrors.ConsistencyError {
	seen := make(map[types.NodeID]int, len(d.Nodes))
	var offending []string
	for _, n := range d.Nodes {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			offending = append(offending, string(n.ID))
		}
	}
	if len(offending) == 0 {
		return nil
	}
	return ircerrors.NewConsistencyError(
		"duplicate NodeId inserts must replace in place (last-writer-wins), not append",
		offending, nil)
}
