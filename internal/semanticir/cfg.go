package semanticir

import (
	"strings"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/types"
)

// buildFunction implements §4.6 for one function: recursive descent over
// the function's statement lines produces a CFG (ENTRY/EXIT sentinels,
// CONDITION/LOOP blocks with true/false/back edges, unreachable blocks
// retained after a terminator), then a DFG pass over the same subtree
// allocates one DFGVariable per lexical assignment/parameter.
//
// The parser port only distinguishes declarations, calls, and assignments
// at the CST-kind level (§4.1) — it does not expose a per-language
// statement grammar (if/while/for nodes) — so the CFG pass classifies
// control constructs by scanning the declaration's rendered text line by
// line, the same best-effort-text-scan idiom internal/structural already
// uses for base classes and decorators.
func (fb *fileBuilder) buildFunction(fn *ir.Node, cst *parserport.CSTNode) {
	entry := fb.newBlock(fn, ir.CFGEntry, fn.Span)
	exit := fb.newBlock(fn, ir.CFGExit, fn.Span)

	lines := bodyLines(cst)
	prev := entry
	terminated := false
	var openLoops []int // loop block IDs awaiting their back edge

	for _, ln := range lines {
		trimmed := strings.TrimSpace(ln.text)
		if trimmed == "" {
			continue
		}
		span := types.Span{StartLine: ln.line, StartCol: 0, EndLine: ln.line, EndCol: len(ln.text)}

		switch {
		case terminated:
			// Dead code after a terminator: retained for diagnostics, no
			// incoming control-flow edge (§4.6).
			fb.newUnreachableBlock(fn, span)
			continue

		case hasAnyPrefix(trimmed, "if ", "if(", "elif ", "elif(", "else if"):
			cond := fb.newBlock(fn, ir.CFGCondition, span)
			fb.addEdge(prev, cond, ir.CFGEdgeSeq)
			fb.addEdge(cond, exit, ir.CFGEdgeFalse)
			prev = cond

		case hasAnyPrefix(trimmed, "while ", "while(", "for ", "for("):
			loop := fb.newBlock(fn, ir.CFGLoop, span)
			fb.addEdge(prev, loop, ir.CFGEdgeSeq)
			fb.addEdge(loop, exit, ir.CFGEdgeFalse)
			openLoops = append(openLoops, loop)
			prev = loop

		case hasAnyPrefix(trimmed, "return", "raise ", "throw "):
			term := fb.newBlock(fn, ir.CFGBlockKindGeneric, span)
			fb.addEdge(prev, term, ir.CFGEdgeSeq)
			fb.addEdge(term, exit, ir.CFGEdgeSeq)
			for _, loop := range openLoops {
				fb.addEdge(term, loop, ir.CFGEdgeBack)
			}
			openLoops = nil
			prev = term
			terminated = true

		default:
			blk := fb.newBlock(fn, ir.CFGBlockKindGeneric, span)
			kind := ir.CFGEdgeSeq
			if fb.doc.CFGBlocks[prev].Kind == ir.CFGCondition {
				kind = ir.CFGEdgeTrue
			}
			fb.addEdge(prev, blk, kind)
			prev = blk
		}
	}

	if !terminated {
		fb.addEdge(prev, exit, ir.CFGEdgeSeq)
	}
	for _, loop := range openLoops {
		fb.addEdge(prev, loop, ir.CFGEdgeBack)
	}

	fb.buildDFG(fn, cst)
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

type bodyLine struct {
	line int
	text string
}

// bodyLines splits cst's text into lines tagged with their absolute file
// line number, skipping the first line (the declaration's own
// signature/header, already represented by the ENTRY block).
func bodyLines(cst *parserport.CSTNode) []bodyLine {
	raw := strings.Split(cst.Text, "\n")
	if len(raw) <= 1 {
		return nil
	}
	out := make([]bodyLine, 0, len(raw)-1)
	for i, text := range raw[1:] {
		out = append(out, bodyLine{line: cst.Span.StartLine + i + 1, text: text})
	}
	return out
}

func (fb *fileBuilder) newBlock(fn *ir.Node, kind ir.CFGBlockKind, span types.Span) int {
	id := len(fb.doc.CFGBlocks)
	fb.doc.CFGBlocks = append(fb.doc.CFGBlocks, ir.CFGBlock{
		ID:             id,
		FunctionNodeID: fn.ID,
		Kind:           kind,
		Span:           span,
	})
	return id
}

func (fb *fileBuilder) newUnreachableBlock(fn *ir.Node, span types.Span) int {
	id := len(fb.doc.CFGBlocks)
	fb.doc.CFGBlocks = append(fb.doc.CFGBlocks, ir.CFGBlock{
		ID:             id,
		FunctionNodeID: fn.ID,
		Kind:           ir.CFGBlockKindGeneric,
		Span:           span,
		Unreachable:    true,
	})
	return id
}

func (fb *fileBuilder) addEdge(source, target int, kind ir.CFGEdgeKind) {
	fb.doc.CFGEdges = append(fb.doc.CFGEdges, ir.CFGEdge{
		SourceBlockID: source,
		TargetBlockID: target,
		Kind:          kind,
	})
}
