package resolve

import (
	"strings"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

// isExternalID reports whether id was built with types.ExternalFile as its
// file component — the same check internal/ir's validator uses, kept
// local here so this package doesn't need an internal/ir export for it.
func isExternalID(id types.NodeID) bool {
	return strings.Contains(string(id), ":"+types.ExternalFile+":")
}

// Resolve runs the fixed-point cross-file resolution pass over every
// IRDocument in docs (§4.5): repeat until no edge's target changes.
// Convergence is guaranteed because targets only ever move from
// "external" to "concrete" (monotone) — never the reverse.
func Resolve(gc *GlobalContext, docs map[string]*ir.IRDocument) {
	for {
		changed := false
		for filePath, doc := range docs {
			for i := range doc.Edges {
				e := &doc.Edges[i]
				if !isExternalID(e.TargetID) {
					continue
				}
				name := lastFQNSegment(nameFromExternalID(e.TargetID))
				if resolved, ok := gc.resolveImportedName(filePath, name); ok {
					e.TargetID = resolved
					changed = true
				}
			}
			for i := range doc.Occurrences {
				occ := &doc.Occurrences[i]
				if occ.Role == types.RoleDef {
					continue // already resolved by internal/occurrence
				}
				if resolved, ok := gc.resolveImportedName(filePath, string(occ.SymbolFQN)); ok {
					if fqn, ok := gc.FQN(resolved); ok {
						occ.SymbolFQN = types.SymbolFQN(fqn)
						occ.NodeID = resolved
						changed = true
					}
				}
			}
		}
		if !changed {
			return
		}
	}
}

// nameFromExternalID extracts the fqn component of a NodeID built with
// types.NewNodeID (format "<kind>:<repo_id>:<file_or_external>:<fqn>").
func nameFromExternalID(id types.NodeID) string {
	parts := strings.SplitN(string(id), ":", 4)
	if len(parts) < 4 {
		return string(id)
	}
	return parts[3]
}
