// Package structural implements the Structural IR Builder (§4.2): it
// traverses a parsed file's CST and emits Nodes, containment edges, and
// local reference edges, without resolving cross-file identifiers —
// unresolved references are left as attrs for internal/resolve.
package structural

import (
	"strings"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/types"
)

// scope is one entry of the explicit scope stack (§4.2: "module → class →
// function → block"), grounded in the teacher's scopeStackEntry /
// push-then-recurse-then-pop traversal in unified_extractor.go.
type scope struct {
	fqnStack []string
	currentID types.NodeID
}

func (s scope) fqn(name string) string {
	if len(s.fqnStack) == 0 {
		return name
	}
	return strings.Join(s.fqnStack, ".") + "." + name
}

// declKindMap maps a parserport.CSTNodeKind to the Node kind the
// Structural IR assigns it. CSTCall/CSTAssign/CSTLiteral/CSTOther never
// become Nodes themselves — they are the raw material internal/semanticir
// turns into Expression/DFG records during layer 6.
var declKindMap = map[parserport.CSTNodeKind]types.NodeKind{
	parserport.CSTModule:    types.NodeKindModule,
	parserport.CSTClass:     types.NodeKindClass,
	parserport.CSTInterface: types.NodeKindInterface,
	parserport.CSTStruct:    types.NodeKindStruct,
	parserport.CSTFunction:  types.NodeKindFunction,
	parserport.CSTMethod:    types.NodeKindMethod,
	parserport.CSTField:     types.NodeKindField,
	parserport.CSTParameter: types.NodeKindParameter,
	parserport.CSTVariable:  types.NodeKindVariable,
	parserport.CSTImport:    types.NodeKindImport,
}

// Builder constructs a Structural IR for one file at a time. Stateless
// across calls; Build is safe to call concurrently from different
// goroutines on different files (the orchestrator's per-file worker pool
// relies on this, §5).
type Builder struct {
	RepoID        string
	EngineVersion string
}

// New constructs a Builder for repoID, stamping documents with
// engineVersion (§3 invariant #5: content hash depends on engine_version).
func New(repoID, engineVersion string) *Builder {
	return &Builder{RepoID: repoID, EngineVersion: engineVersion}
}

// Build traverses pf's CST and returns a populated, unfrozen IRDocument.
// The caller (internal/orchestrator) runs internal/occurrence and
// internal/semanticir before calling Freeze; internal/resolve runs later,
// over all frozen documents at once.
func (b *Builder) Build(pf *parserport.ParsedFile, content []byte) *ir.IRDocument {
	doc := ir.New(pf.FilePath, pf.Language, b.EngineVersion)
	if pf.Root == nil {
		return doc
	}

	fileHash := types.HashFields(content, []byte(ir.SchemaVersion), []byte(b.EngineVersion))
	doc.FileContentHash = fileHash

	vb := &visitBuilder{
		doc:      doc,
		repoID:   b.RepoID,
		filePath: pf.FilePath,
		language: pf.Language,
		dedupExternal: make(map[string]types.NodeID),
		redeclCount:   make(map[types.NodeID]int),
	}

	rootFQN := moduleFQN(pf.FilePath)
	root := scope{fqnStack: []string{rootFQN}}
	moduleNodeID := types.NewNodeID(types.NodeKindModule, b.RepoID, pf.FilePath, rootFQN)
	vb.appendNode(ir.Node{
		ID:             moduleNodeID,
		Kind:           types.NodeKindModule,
		FQN:            rootFQN,
		FilePath:       pf.FilePath,
		Span:           pf.Root.Span,
		Language:       pf.Language,
		SignatureID:    -1,
		DeclaredTypeID: -1,
	})
	root.currentID = moduleNodeID

	for _, child := range pf.Root.Children {
		vb.visit(child, root)
	}

	return doc
}

// moduleFQN derives a best-effort module-level FQN prefix from a file
// path, e.g. "pkg/foo/bar.py" -> "pkg.foo.bar" (§4.2 step 1's
// join(scope.fqn_stack, name), seeded with the module itself).
func moduleFQN(filePath string) string {
	p := filePath
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		p = p[:i]
	}
	p = strings.ReplaceAll(p, "/", ".")
	p = strings.ReplaceAll(p, "\\", ".")
	return p
}

// visitBuilder carries the mutable state threaded through one file's
// traversal: the document under construction, dedup tables for external
// base-class nodes (§4.2 step 5: "deduped across the file"), and
// re-declaration counters for the tie-break rule (§4.2 "Tie-breaks").
type visitBuilder struct {
	doc           *ir.IRDocument
	repoID        string
	filePath      string
	language      types.Language
	dedupExternal map[string]types.NodeID
	redeclCount   map[types.NodeID]int
}

func (vb *visitBuilder) appendNode(n ir.Node) {
	vb.doc.AddNode(n)
}

// visit implements the per-declaration algorithm from §4.2 steps 1-6.
func (vb *visitBuilder) visit(n *parserport.CSTNode, parent scope) {
	kind, isDecl := declKindMap[n.Kind]
	if !isDecl || n.Name == "" {
		// Not a declaration this layer owns (calls/assigns/literals feed
		// internal/semanticir later, §4.2 "do not fail the file" also
		// covers "skip this node, keep walking its children").
		for _, c := range n.Children {
			vb.visit(c, parent)
		}
		return
	}

	fqn := parent.fqn(n.Name)
	id := types.NewNodeID(kind, vb.repoID, vb.filePath, fqn)

	count := vb.redeclCount[id]
	vb.redeclCount[id] = count + 1

	node := ir.Node{
		ID:             id,
		Kind:           kind,
		FQN:            fqn,
		FilePath:       vb.filePath,
		Span:           n.Span,
		BodySpan:       n.BodySpan,
		Language:       vb.language,
		ParentID:       parent.currentID,
		Attrs:          make(map[string]any),
		SignatureID:    -1,
		DeclaredTypeID: -1,
	}
	if docstring := extractDocstring(n); docstring != "" {
		node.SetAttr("docstring", docstring)
	}
	if count > 0 {
		// Tie-break (§4.2): both nodes remain in the IR with distinct
		// content hashes in attrs; the symbol table (built by
		// internal/resolve) treats the later one as authoritative.
		node.ContentHash = types.HashFields([]byte(n.Text), []byte(vb.filePath), []byte(fqn))
		node.SetAttr("redeclaration_index", count)
	}

	if kind == types.NodeKindClass {
		bases := extractBaseClasses(n)
		if len(bases) > 0 {
			node.SetAttr("base_classes", bases)
			for _, base := range bases {
				vb.emitInheritsEdge(id, base)
			}
		}
	}
	if decorators := extractDecorators(n); len(decorators) > 0 {
		node.SetAttr("decorators", decorators)
	}

	vb.appendNode(node)
	vb.doc.AddEdge(ir.Edge{
		ID:       types.NewEdgeID(types.EdgeKindContains, parent.currentID, id, nil),
		Kind:     types.EdgeKindContains,
		SourceID: parent.currentID,
		TargetID: id,
	})

	childScope := scope{fqnStack: append(append([]string{}, parent.fqnStack...), n.Name), currentID: id}
	for _, c := range n.Children {
		vb.visit(c, childScope)
	}
}

// emitInheritsEdge attempts local resolution of a base-class name via the
// current file's symbol table; since that table isn't finalized until the
// whole file is traversed, this layer always emits to an external CLASS
// node (§4.2 step 5) and leaves the real local-vs-external decision to
// internal/resolve, which has the completed symbol table.
func (vb *visitBuilder) emitInheritsEdge(classID types.NodeID, baseName string) {
	extID, ok := vb.dedupExternal[baseName]
	if !ok {
		extID = types.NewNodeID(types.NodeKindClass, vb.repoID, types.ExternalFile, baseName)
		vb.dedupExternal[baseName] = extID
		vb.appendNode(ir.Node{
			ID:             extID,
			Kind:           types.NodeKindClass,
			FQN:            baseName,
			FilePath:       types.ExternalFile,
			Language:       types.LangUnknown,
			SignatureID:    -1,
			DeclaredTypeID: -1,
		})
	}
	vb.doc.AddEdge(ir.Edge{
		ID:       types.NewEdgeID(types.EdgeKindInherits, classID, extID, nil),
		Kind:     types.EdgeKindInherits,
		SourceID: classID,
		TargetID: extID,
	})
}

// extractDocstring returns the first string literal in n's body, if any —
// a best-effort text scan rather than a grammar-aware lookup, mirroring
// the teacher's many string/regex-based extraction helpers in
// internal/parser/parser.go rather than adding a new CST node kind just
// for quoted strings.
func extractDocstring(n *parserport.CSTNode) string {
	body := n.Text
	for _, quote := range []string{`"""`, "'''"} {
		if idx := strings.Index(body, quote); idx >= 0 {
			rest := body[idx+len(quote):]
			if end := strings.Index(rest, quote); end >= 0 {
				return strings.TrimSpace(rest[:end])
			}
		}
	}
	return ""
}

// extractBaseClasses parses "class Foo(Base1, Base2):" style text for a
// best-effort base-class list. Non-Python grammars without parenthesized
// base lists simply yield nothing.
func extractBaseClasses(n *parserport.CSTNode) []string {
	open := strings.IndexByte(n.Text, '(')
	if open < 0 {
		return nil
	}
	close := strings.IndexByte(n.Text[open:], ')')
	if close < 0 {
		return nil
	}
	inner := n.Text[open+1 : open+close]
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && p != "object" {
			out = append(out, p)
		}
	}
	return out
}

// extractDecorators scans the lines immediately preceding n's declaration
// text for "@name" lines — best-effort, covers Python/TypeScript decorator
// syntax without a grammar-specific decorator node kind.
func extractDecorators(n *parserport.CSTNode) []string {
	var out []string
	for _, line := range strings.Split(n.Text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@") {
			out = append(out, strings.TrimPrefix(trimmed, "@"))
		} else if len(out) > 0 {
			break
		}
	}
	return out
}
