// Package query implements the Path Query DSL (§4.9): node Selectors,
// S >> T / S << T Flow expressions with bounded BFS execution over a
// graphstore.Store, and the PathSet/PathResult result types.
package query

import (
	"strings"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

// Selector describes a set of nodes the query surface can reference as a
// source, target, exclusion, or containment boundary (§4.9
// "Selectors describe node sets: by kind, by name, by module, by union,
// by predicate").
type Selector interface {
	Matches(n *ir.Node) bool
}

type selectorFunc func(n *ir.Node) bool

func (f selectorFunc) Matches(n *ir.Node) bool { return f(n) }

// ByKind selects every node of the given kind.
func ByKind(kind types.NodeKind) Selector {
	return selectorFunc(func(n *ir.Node) bool { return n.Kind == kind })
}

// ByName selects nodes whose FQN's last segment equals name exactly.
func ByName(name string) Selector {
	return selectorFunc(func(n *ir.Node) bool { return lastSegment(n.FQN) == name })
}

// ByFQNPrefix selects nodes whose FQN starts with prefix — the "by
// module" selector (§4.9), since a module's FQN is itself a dotted
// prefix of every symbol it declares.
func ByFQNPrefix(prefix string) Selector {
	return selectorFunc(func(n *ir.Node) bool { return strings.HasPrefix(n.FQN, prefix) })
}

// ByFile selects every node declared in filePath.
func ByFile(filePath string) Selector {
	return selectorFunc(func(n *ir.Node) bool { return n.FilePath == filePath })
}

// ByPredicate wraps an arbitrary node predicate as a Selector.
func ByPredicate(pred func(n *ir.Node) bool) Selector {
	return selectorFunc(pred)
}

// Union returns a Selector matching any node matched by at least one of
// sels (§4.9 "by union (A ∪ B)").
func Union(sels ...Selector) Selector {
	return selectorFunc(func(n *ir.Node) bool {
		for _, s := range sels {
			if s.Matches(n) {
				return true
			}
		}
		return false
	})
}

func lastSegment(fqn string) string {
	if i := strings.LastIndex(fqn, "."); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}
