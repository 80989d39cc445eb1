package query

import (
	"time"

	"github.com/standardbeagle/codeir/internal/types"
)

// Default budgets (§4.9 "Design decisions and why"): every query carries
// a hard depth, path, node, and wall-time bound so worst-case cost is
// bounded and documented.
const (
	DefaultDepth       = 4
	DefaultLimitPaths  = 20
	DefaultLimitNodes  = 10000
	DefaultTimeout     = 5 * time.Second
)

// Query is a bounded flow expression: "any path from a node matching
// Source to a node matching Target" (§4.9 "S >> T"), or its reverse when
// Reverse is set ("S << T"). Construct via Flow/ReverseFlow, then chain
// the builder methods below.
type Query struct {
	Source Selector
	Target Selector
	Reverse bool

	via           []types.EdgeKind
	depth         int
	limitPaths    int
	limitNodes    int
	timeout       time.Duration
	wherePred     func(PathResult) bool
	excluding     Selector
	within        Selector
	allowSelfPath bool
}

// Flow builds "source >> target": any path from a node matching source
// to a node matching target, walking edges forward (source_id -> target_id).
func Flow(source, target Selector) *Query {
	return &Query{
		Source: source, Target: target,
		depth: DefaultDepth, limitPaths: DefaultLimitPaths, limitNodes: DefaultLimitNodes,
		timeout: DefaultTimeout, allowSelfPath: true,
	}
}

// ReverseFlow builds "source << target": any path walking edges backward
// (target_id -> source_id), i.e. from nodes matching target to nodes
// matching source.
func ReverseFlow(source, target Selector) *Query {
	q := Flow(source, target)
	q.Reverse = true
	return q
}

// Via restricts traversal to edges of the given kinds. No call means
// every edge kind is eligible.
func (q *Query) Via(kinds ...types.EdgeKind) *Query {
	q.via = kinds
	return q
}

// Depth sets the maximum path length in edges.
func (q *Query) Depth(n int) *Query {
	q.depth = n
	return q
}

// LimitPaths caps the number of distinct target nodes whose path is
// returned.
func (q *Query) LimitPaths(n int) *Query {
	q.limitPaths = n
	return q
}

// LimitNodes caps the total number of nodes visited during the search.
func (q *Query) LimitNodes(n int) *Query {
	q.limitNodes = n
	return q
}

// Timeout caps wall-clock execution time.
func (q *Query) Timeout(d time.Duration) *Query {
	q.timeout = d
	return q
}

// Where attaches a predicate over a discovered path; paths failing it
// are dropped from the result (but still count against limit_nodes
// traversal cost already spent).
func (q *Query) Where(pred func(PathResult) bool) *Query {
	q.wherePred = pred
	return q
}

// Excluding removes any node matching sel from the traversal frontier
// entirely.
func (q *Query) Excluding(sel Selector) *Query {
	q.excluding = sel
	return q
}

// Within restricts traversal to nodes matching sel.
func (q *Query) Within(sel Selector) *Query {
	q.within = sel
	return q
}

// AllowSelfPath controls the "S >> S" Open Question (DESIGN.md decision
// 3): when true (the default), a node matching both Source and Target
// yields a zero-length one-node path for itself.
func (q *Query) AllowSelfPath(allow bool) *Query {
	q.allowSelfPath = allow
	return q
}
