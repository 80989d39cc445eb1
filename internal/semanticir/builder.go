// Package semanticir implements the Semantic IR Builder (§4.6): per
// function, it walks the already-built Structural IR plus the parser's raw
// CST to produce CFG blocks/edges, DFG variables/edges, and Expression
// records. It runs after internal/structural and before internal/taint,
// which consumes the DFG it produces.
package semanticir

import (
	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/types"
)

// Build walks every FUNCTION/METHOD node in doc and appends its CFG, DFG,
// and Expression records. pf is the same ParsedFile internal/structural
// built doc from — semanticir re-locates each function's CST subtree by
// span rather than re-parsing, since the Structural IR doesn't retain CST
// pointers on Node.
func Build(doc *ir.IRDocument, pf *parserport.ParsedFile) {
	if pf == nil || pf.Root == nil {
		return
	}
	// Snapshot the function nodes before building: funcBuilder appends to
	// doc.Nodes for nothing, but it does append to doc.DFGVariables etc,
	// and later functions must see earlier ones' variables for same-file
	// "arg" edge resolution (§4.6).
	fnIdx := make([]int, 0, len(doc.Nodes))
	for i := range doc.Nodes {
		if doc.Nodes[i].Kind == types.NodeKindFunction || doc.Nodes[i].Kind == types.NodeKindMethod {
			fnIdx = append(fnIdx, i)
		}
	}

	fb := &fileBuilder{doc: doc}
	for _, i := range fnIdx {
		fn := &doc.Nodes[i]
		cst := findBySpan(pf.Root, fn.Span)
		if cst == nil {
			continue
		}
		fb.buildFunction(fn, cst)
	}
}

// findBySpan returns the FUNCTION/METHOD CSTNode in the subtree rooted at n
// whose span exactly matches target, depth-first.
func findBySpan(n *parserport.CSTNode, target types.Span) *parserport.CSTNode {
	if n.Span == target && (n.Kind == parserport.CSTFunction || n.Kind == parserport.CSTMethod) {
		return n
	}
	for _, c := range n.Children {
		if found := findBySpan(c, target); found != nil {
			return found
		}
	}
	return nil
}

// fileBuilder carries state shared across every function in one file: the
// document being populated, and a function-name -> Node map used for
// same-file "arg" edge resolution across function boundaries (e.g. a
// module-level helper called by several functions below it).
type fileBuilder struct {
	doc *ir.IRDocument
	// funcByName maps a bare function name to its Node, restricted to
	// functions already visited plus the current file — internal/resolve
	// runs only after this layer, in the orchestrator's resolve stage,
	// and cross-file DFG linking is out of scope here
	// (§4.6 only asks for "resolved call targets", not cross-document DFG
	// stitching, which would need every file's semanticir output merged
	// first).
	funcByName map[string]*ir.Node
}

func (fb *fileBuilder) funcNode(name string) (*ir.Node, bool) {
	if fb.funcByName == nil {
		fb.funcByName = make(map[string]*ir.Node)
		for i := range fb.doc.Nodes {
			n := &fb.doc.Nodes[i]
			if n.Kind == types.NodeKindFunction || n.Kind == types.NodeKindMethod {
				fb.funcByName[lastSegment(n.FQN)] = n
			}
		}
	}
	n, ok := fb.funcByName[name]
	return n, ok
}

func (fb *fileBuilder) params(fn *ir.Node) []*ir.Node {
	var out []*ir.Node
	for i := range fb.doc.Nodes {
		n := &fb.doc.Nodes[i]
		if n.Kind == types.NodeKindParameter && n.ParentID == fn.ID {
			out = append(out, n)
		}
	}
	return out
}

func lastSegment(fqn string) string {
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '.' {
			return fqn[i+1:]
		}
	}
	return fqn
}
