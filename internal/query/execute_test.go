package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeir/internal/graphstore"
	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

func mkNode(id types.NodeID, kind types.NodeKind, fqn, file string) ir.Node {
	return ir.Node{ID: id, Kind: kind, FQN: fqn, FilePath: file, Language: types.LangGo,
		Span: types.Span{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 1}}
}

// buildChainStore wires a.foo -CALLS-> b.bar -CALLS-> c.baz across three
// files, the minimal fixture for exercising multi-hop Flow traversal.
func buildChainStore(t *testing.T) *graphstore.Store {
	t.Helper()
	fileA := types.NodeID("FILE:repo1:a.go:a.go")
	fnA := types.NodeID("FUNCTION:repo1:a.go:a.foo")
	fileB := types.NodeID("FILE:repo1:b.go:b.go")
	fnB := types.NodeID("FUNCTION:repo1:b.go:b.bar")
	fileC := types.NodeID("FILE:repo1:c.go:c.go")
	fnC := types.NodeID("FUNCTION:repo1:c.go:c.baz")

	docA := ir.New("a.go", types.LangGo, "test-engine")
	docA.AddNode(mkNode(fileA, types.NodeKindFile, "a.go", "a.go"))
	docA.AddNode(mkNode(fnA, types.NodeKindFunction, "a.foo", "a.go"))
	docA.AddEdge(ir.Edge{ID: "e1", Kind: types.EdgeKindContains, SourceID: fileA, TargetID: fnA})
	docA.AddEdge(ir.Edge{ID: "e2", Kind: types.EdgeKindCalls, SourceID: fnA, TargetID: fnB})

	docB := ir.New("b.go", types.LangGo, "test-engine")
	docB.AddNode(mkNode(fileB, types.NodeKindFile, "b.go", "b.go"))
	docB.AddNode(mkNode(fnB, types.NodeKindFunction, "b.bar", "b.go"))
	docB.AddEdge(ir.Edge{ID: "e3", Kind: types.EdgeKindContains, SourceID: fileB, TargetID: fnB})
	docB.AddEdge(ir.Edge{ID: "e4", Kind: types.EdgeKindCalls, SourceID: fnB, TargetID: fnC})

	docC := ir.New("c.go", types.LangGo, "test-engine")
	docC.AddNode(mkNode(fileC, types.NodeKindFile, "c.go", "c.go"))
	docC.AddNode(mkNode(fnC, types.NodeKindFunction, "c.baz", "c.go"))
	docC.AddEdge(ir.Edge{ID: "e5", Kind: types.EdgeKindContains, SourceID: fileC, TargetID: fnC})

	store, err := graphstore.Build([]*ir.IRDocument{docA, docB, docC})
	require.NoError(t, err)
	return store
}

func TestExecuteFlowFindsMultiHopPath(t *testing.T) {
	store := buildChainStore(t)

	q := Flow(ByName("foo"), ByName("baz")).Via(types.EdgeKindCalls)
	result := Execute(store, q)

	require.True(t, result.Complete)
	require.Len(t, result.Paths, 1)
	p := result.Paths[0]
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, types.NodeID("FUNCTION:repo1:a.go:a.foo"), p.Nodes[0])
	assert.Equal(t, types.NodeID("FUNCTION:repo1:c.go:c.baz"), p.Nodes[2])
	assert.Equal(t, []types.EdgeKind{types.EdgeKindCalls, types.EdgeKindCalls}, p.Kinds)
}

func TestExecuteFlowRespectsDepthLimit(t *testing.T) {
	store := buildChainStore(t)

	q := Flow(ByName("foo"), ByName("baz")).Via(types.EdgeKindCalls).Depth(1)
	result := Execute(store, q)

	assert.Empty(t, result.Paths)
	assert.False(t, result.Complete)
	assert.Equal(t, TruncationDepth, result.TruncationReason)
}

func TestExecuteReverseFlowWalksIncomingEdges(t *testing.T) {
	store := buildChainStore(t)

	q := ReverseFlow(ByName("foo"), ByName("baz")).Via(types.EdgeKindCalls)
	result := Execute(store, q)

	require.True(t, result.Complete)
	require.Len(t, result.Paths, 1)
	p := result.Paths[0]
	// Reverse walk starts from the Target selector (baz) and follows
	// incoming edges back to the Source selector (foo).
	assert.Equal(t, types.NodeID("FUNCTION:repo1:c.go:c.baz"), p.Nodes[0])
	assert.Equal(t, types.NodeID("FUNCTION:repo1:a.go:a.foo"), p.Nodes[2])
}

func TestExecuteSelfPathWhenAllowed(t *testing.T) {
	store := buildChainStore(t)

	sameSel := ByName("foo")
	q := Flow(sameSel, sameSel)
	result := Execute(store, q)

	require.Len(t, result.Paths, 1)
	assert.Equal(t, 1, result.Paths[0].Len())
}

func TestExecuteSelfPathExcludedWhenDisallowed(t *testing.T) {
	store := buildChainStore(t)

	sameSel := ByName("foo")
	q := Flow(sameSel, sameSel).AllowSelfPath(false)
	result := Execute(store, q)

	assert.Empty(t, result.Paths)
}

func TestExecuteLimitPathsTruncates(t *testing.T) {
	store := buildChainStore(t)

	q := Flow(ByKind(types.NodeKindFunction), ByKind(types.NodeKindFunction)).
		Via(types.EdgeKindCalls).LimitPaths(1)
	result := Execute(store, q)

	assert.False(t, result.Complete)
	assert.Equal(t, TruncationPathLimit, result.TruncationReason)
	assert.Len(t, result.Paths, 1)
}

func TestExecuteExcludingRemovesIntermediateNode(t *testing.T) {
	store := buildChainStore(t)

	q := Flow(ByName("foo"), ByName("baz")).Via(types.EdgeKindCalls).
		Excluding(ByName("bar"))
	result := Execute(store, q)

	assert.Empty(t, result.Paths)
}

func TestExecuteTimeoutTruncatesImmediately(t *testing.T) {
	store := buildChainStore(t)

	q := Flow(ByName("foo"), ByName("baz")).Via(types.EdgeKindCalls).Timeout(0)
	result := Execute(store, q)

	assert.False(t, result.Complete)
	assert.Equal(t, TruncationTimeout, result.TruncationReason)
}

func TestExecuteWherePredicateFiltersPaths(t *testing.T) {
	store := buildChainStore(t)

	q := Flow(ByKind(types.NodeKindFunction), ByKind(types.NodeKindFunction)).
		Via(types.EdgeKindCalls).
		Where(func(p PathResult) bool { return p.Len() == 3 })
	result := Execute(store, q)

	require.Len(t, result.Paths, 1)
	assert.Equal(t, 3, result.Paths[0].Len())
}

func TestPathSetShortestAndLongest(t *testing.T) {
	store := buildChainStore(t)
	q := Flow(ByKind(types.NodeKindFunction), ByKind(types.NodeKindFunction)).Via(types.EdgeKindCalls)
	result := Execute(store, q)
	require.NotEmpty(t, result.Paths)

	shortest := result.Shortest()
	longest := result.Longest()
	require.NotNil(t, shortest)
	require.NotNil(t, longest)
	assert.LessOrEqual(t, shortest.Len(), longest.Len())
}
