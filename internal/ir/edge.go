package ir

import "github.com/standardbeagle/codeir/internal/types"

// Edge connects two nodes (§3). SourceID/TargetID always resolve to an
// existing node, except when the target is an external node in
// "<external>" (invariant #1).
type Edge struct {
	ID       types.EdgeID
	Kind     types.EdgeKind
	SourceID types.NodeID
	TargetID types.NodeID
	// Span is nil for edges with no single source location (e.g. a
	// cross-file IMPORTS edge spanning the whole import statement is still
	// located; a synthesized fixed-point resolution edge may have none).
	Span  *types.Span
	Attrs map[string]any
}

func (e Edge) Attr(key string) (any, bool) {
	if e.Attrs == nil {
		return nil, false
	}
	v, ok := e.Attrs[key]
	return v, ok
}

func (e *Edge) SetAttr(key string, value any) {
	if e.Attrs == nil {
		e.Attrs = make(map[string]any)
	}
	e.Attrs[key] = value
}
