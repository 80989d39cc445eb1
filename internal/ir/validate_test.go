package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeir/internal/types"
)

func TestValidateCleanDocumentHasNoViolations(t *testing.T) {
	d := New("a.py", types.LangPython, "test-engine")
	root := types.NodeID("MODULE:r1:a.py:a")
	fn := types.NodeID("FUNCTION:r1:a.py:a.foo")
	d.AddNode(newTestNode(root, types.NodeKindModule, "a.py"))
	d.AddNode(newTestNode(fn, types.NodeKindFunction, "a.py"))
	d.AddEdge(Edge{ID: "CONTAINS:x", Kind: types.EdgeKindContains, SourceID: root, TargetID: fn})

	violations := d.Validate(10)
	assert.Empty(t, violations)
}

func TestValidateDetectsDanglingEdgeTarget(t *testing.T) {
	d := New("a.py", types.LangPython, "test-engine")
	root := types.NodeID("MODULE:r1:a.py:a")
	d.AddNode(newTestNode(root, types.NodeKindModule, "a.py"))
	d.AddEdge(Edge{ID: "CALLS:x", Kind: types.EdgeKindCalls, SourceID: root, TargetID: "FUNCTION:r1:a.py:a.missing"})

	violations := d.Validate(10)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Invariant, "resolve to an existing node")
}

func TestValidateAllowsExternalEdgeTarget(t *testing.T) {
	d := New("a.py", types.LangPython, "test-engine")
	root := types.NodeID("MODULE:r1:a.py:a")
	d.AddNode(newTestNode(root, types.NodeKindModule, "a.py"))
	ext := types.NewNodeID(types.NodeKindExternalSymbol, "r1", types.ExternalFile, "requests.get")
	d.AddEdge(Edge{ID: "CALLS:x", Kind: types.EdgeKindCalls, SourceID: root, TargetID: ext})

	violations := d.Validate(10)
	assert.Empty(t, violations)
}

func TestValidateDetectsSpanOutOfRange(t *testing.T) {
	d := New("a.py", types.LangPython, "test-engine")
	n := newTestNode("MODULE:r1:a.py:a", types.NodeKindModule, "a.py")
	n.Span.EndLine = 999
	d.AddNode(n)

	violations := d.Validate(10)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Invariant, "file_line_count")
}

func TestValidateDetectsMultipleParents(t *testing.T) {
	d := New("a.py", types.LangPython, "test-engine")
	p1 := types.NodeID("MODULE:r1:a.py:p1")
	p2 := types.NodeID("MODULE:r1:a.py:p2")
	child := types.NodeID("FUNCTION:r1:a.py:child")
	d.AddNode(newTestNode(p1, types.NodeKindModule, "a.py"))
	d.AddNode(newTestNode(p2, types.NodeKindModule, "a.py"))
	d.AddNode(newTestNode(child, types.NodeKindFunction, "a.py"))
	d.AddEdge(Edge{ID: "CONTAINS:1", Kind: types.EdgeKindContains, SourceID: p1, TargetID: child})
	d.AddEdge(Edge{ID: "CONTAINS:2", Kind: types.EdgeKindContains, SourceID: p2, TargetID: child})

	violations := d.Validate(10)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].OffendingIDs[0], "multiple-parents")
}

func TestValidateDetectsContainsCycle(t *testing.T) {
	d := New("a.py", types.LangPython, "test-engine")
	a := types.NodeID("MODULE:r1:a.py:a")
	b := types.NodeID("MODULE:r1:a.py:b")
	d.AddNode(newTestNode(a, types.NodeKindModule, "a.py"))
	d.AddNode(newTestNode(b, types.NodeKindModule, "a.py"))
	d.AddEdge(Edge{ID: "CONTAINS:1", Kind: types.EdgeKindContains, SourceID: a, TargetID: b})
	d.AddEdge(Edge{ID: "CONTAINS:2", Kind: types.EdgeKindContains, SourceID: b, TargetID: a})

	violations := d.Validate(10)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Invariant, "forest")
}

func TestValidateDetectsDuplicateNodeID(t *testing.T) {
	d := New("a.py", types.LangPython, "test-engine")
	id := types.NodeID("MODULE:r1:a.py:a")
	d.AddNode(newTestNode(id, types.NodeKindModule, "a.py"))
	d.AddNode(newTestNode(id, types.NodeKindModule, "a.py"))

	violations := d.Validate(10)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Invariant, "last-writer-wins")
}
