// Package ir defines the per-file Intermediate Representation container
// (§3): Nodes, Edges, the semantic record arrays, and the three primary
// indexes. Builders in internal/structural, internal/resolve, and
// internal/semanticir populate an IRDocument; internal/graphstore and
// internal/retrieval consume it read-only.
package ir

import "github.com/standardbeagle/codeir/internal/types"

// Node is one entry in the structural/semantic IR (§3).
type Node struct {
	ID       types.NodeID
	Kind     types.NodeKind
	FQN      string
	FilePath string
	Span     types.Span
	// BodySpan is nil for nodes with no body (fields, parameters, imports).
	BodySpan *types.Span
	Language types.Language
	// ParentID is the CONTAINS parent; empty for the FILE root.
	ParentID types.NodeID
	// ContentHash is set on nodes the cache keys off of; re-declarations of
	// the same FQN in one scope (§4.2 "Tie-breaks") carry distinct hashes
	// even though only the latest wins the symbol table.
	ContentHash types.ContentHash
	Attrs       map[string]any
	// SignatureID indexes into IRDocument.Signatures; -1 if none.
	SignatureID int
	// DeclaredTypeID indexes into IRDocument.Types; -1 if none.
	DeclaredTypeID int
}

// Valid reports whether the node's span lies within the file and its body
// span (if any) is enclosed by its span — invariant #2.
func (n Node) Valid(fileLineCount int) bool {
	if !n.Span.ValidWithinFile(fileLineCount) {
		return false
	}
	if n.BodySpan != nil && !n.Span.Contains(*n.BodySpan) {
		return false
	}
	return true
}

// Attr fetches an attribute with a default, the open-ended string->value
// map §3 calls for (docstrings, base classes, decorators, lsp_type, …).
func (n Node) Attr(key string) (any, bool) {
	if n.Attrs == nil {
		return nil, false
	}
	v, ok := n.Attrs[key]
	return v, ok
}

func (n *Node) SetAttr(key string, value any) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[key] = value
}
