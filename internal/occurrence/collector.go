// Package occurrence implements the Occurrence Collector (§4.3): it
// produces the array of (span, symbol_fqn, role) records that drive "find
// references" and feed the retrieval symbol index.
package occurrence

import (
	"sort"
	"strings"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/types"
)

// Collect populates doc.Occurrences from pf's raw name occurrences plus
// the structural Nodes structural.Builder already appended to doc.
//
// DEF occurrences are matched against doc.Nodes by (name, span) so their
// symbol_fqn is the node's fully-resolved-within-file FQN (the same
// identity the Structural IR Builder assigned it, §4.2). REF/IMPORT/WRITE
// occurrences carry the bare name as a provisional symbol_fqn;
// internal/resolve rewrites it once cross-file resolution runs (§4.5) —
// this layer never blocks on that, matching the teacher's
// ReferenceTracker which also resolves references in a later pass rather
// than during the single-file extraction walk.
//
// Final order is file order (doc.FilePath is constant here, so this is
// simply insertion order across one file) then span order, per §4.3.
func Collect(doc *ir.IRDocument, pf *parserport.ParsedFile) {
	occs := make([]types.Occurrence, 0, len(pf.Occurrences))
	for _, raw := range pf.Occurrences {
		fqn := raw.Name
		if raw.Role == types.RoleDef {
			if resolved, ok := matchDeclFQN(doc, raw.Name, raw.Span); ok {
				fqn = resolved
			}
		}
		occs = append(occs, types.Occurrence{
			FileID:    0,
			SymbolFQN: fqn,
			Role:      raw.Role,
			Span:      raw.Span,
		})
	}

	sort.SliceStable(occs, func(i, j int) bool {
		return spanLess(occs[i].Span, occs[j].Span)
	})

	doc.Occurrences = occs
}

// matchDeclFQN finds the structural Node whose declaration span contains
// the DEF occurrence's name-token span and whose FQN's last dotted
// component equals name — the Structural IR Builder assigns a Node's span
// to the whole declaration, while the parser's DEF occurrence carries just
// the identifier token, so containment (not equality) is the right test.
func matchDeclFQN(doc *ir.IRDocument, name string, nameSpan types.Span) (string, bool) {
	for _, n := range doc.Nodes {
		if !n.Span.Contains(nameSpan) {
			continue
		}
		last := n.FQN
		if i := strings.LastIndexByte(last, '.'); i >= 0 {
			last = last[i+1:]
		}
		if last == name {
			return n.FQN, true
		}
	}
	return "", false
}

func spanLess(a, b types.Span) bool {
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	if a.StartCol != b.StartCol {
		return a.StartCol < b.StartCol
	}
	if a.EndLine != b.EndLine {
		return a.EndLine < b.EndLine
	}
	return a.EndCol < b.EndCol
}
