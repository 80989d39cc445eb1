package ir

import (
	"sync"

	"github.com/standardbeagle/codeir/internal/types"
)

// SchemaVersion is bumped whenever IRDocument's on-disk/cache shape changes
// incompatibly; IR caches key off it (internal/ircache).
const SchemaVersion = "codeir.ir.v1"

// IRDocument is the per-file Intermediate Representation container (§3):
// structural nodes/edges plus the semantic record arrays (types,
// signatures, CFG, DFG, findings), and the occurrence table. Builders
// populate it in layer order (structural -> occurrence -> typeenrich ->
// resolve -> semanticir -> taint); once Freeze is called it is read-only
// and safe for concurrent readers, matching the teacher's build-once
// index convention.
type IRDocument struct {
	SchemaVersion string
	EngineVersion string
	FilePath      string
	Language      types.Language
	FileContentHash types.ContentHash

	Nodes       []Node
	Edges       []Edge
	Types       []TypeEntity
	Signatures  []Signature
	CFGBlocks   []CFGBlock
	CFGEdges    []CFGEdge
	Expressions []Expression
	DFGVariables []DFGVariable
	DFGEdges    []DFGEdge
	Findings    []Finding
	Occurrences []types.Occurrence

	frozen bool
	idxOnce sync.Once
	byID    map[types.NodeID]*Node
	byKind  map[types.NodeKind][]*Node
	byFile  map[string][]*Node
}

// New creates an empty IRDocument for filePath stamped with the current
// schema/engine versions.
func New(filePath string, lang types.Language, engineVersion string) *IRDocument {
	return &IRDocument{
		SchemaVersion: SchemaVersion,
		EngineVersion: engineVersion,
		FilePath:      filePath,
		Language:      lang,
	}
}

// AddNode appends a node. Panics if called after Freeze, matching the
// teacher's build-then-freeze discipline for its index structures.
func (d *IRDocument) AddNode(n Node) {
	d.mustNotBeFrozen()
	d.Nodes = append(d.Nodes, n)
}

// AddEdge appends an edge.
func (d *IRDocument) AddEdge(e Edge) {
	d.mustNotBeFrozen()
	d.Edges = append(d.Edges, e)
}

func (d *IRDocument) mustNotBeFrozen() {
	if d.frozen {
		panic("ir: IRDocument mutated after Freeze")
	}
}

// Freeze marks the document read-only and eager-builds its indexes so that
// later concurrent readers (graphstore ingestion, retrieval strategies)
// never race the lazy sync.Once path.
func (d *IRDocument) Freeze() {
	d.frozen = true
	d.buildIndexes()
}

// Frozen reports whether Freeze has been called.
func (d *IRDocument) Frozen() bool { return d.frozen }

func (d *IRDocument) buildIndexes() {
	d.idxOnce.Do(func() {
		d.byID = make(map[types.NodeID]*Node, len(d.Nodes))
		d.byKind = make(map[types.NodeKind][]*Node)
		d.byFile = make(map[string][]*Node)
		for i := range d.Nodes {
			n := &d.Nodes[i]
			d.byID[n.ID] = n
			d.byKind[n.Kind] = append(d.byKind[n.Kind], n)
			d.byFile[n.FilePath] = append(d.byFile[n.FilePath], n)
		}
	})
}

// ByID looks up a node by id. Builds the index on first use if the
// document was never explicitly frozen (e.g. in tests constructing a
// document by hand).
func (d *IRDocument) ByID(id types.NodeID) (*Node, bool) {
	d.buildIndexes()
	n, ok := d.byID[id]
	return n, ok
}

// ByKind returns all nodes of the given kind, in insertion order.
func (d *IRDocument) ByKind(k types.NodeKind) []*Node {
	d.buildIndexes()
	return d.byKind[k]
}

// ByFile returns all nodes belonging to filePath, in insertion order.
func (d *IRDocument) ByFile(filePath string) []*Node {
	d.buildIndexes()
	return d.byFile[filePath]
}

// EdgesFrom returns all edges whose SourceID equals id. Linear scan; call
// sites are bounded by a single node's fan-out so this stays cheap without
// needing a fourth index (graphstore builds the real adjacency index once
// documents are merged across files).
func (d *IRDocument) EdgesFrom(id types.NodeID) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.SourceID == id {
			out = append(out, e)
		}
	}
	return out
}

// EdgesTo returns all edges whose TargetID equals id.
func (d *IRDocument) EdgesTo(id types.NodeID) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.TargetID == id {
			out = append(out, e)
		}
	}
	return out
}
