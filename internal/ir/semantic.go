package ir

import "github.com/standardbeagle/codeir/internal/types"

// TypeEntity is a canonicalized type expression, nominal or structural.
type TypeEntity struct {
	ID          int
	Expression  string // canonical rendering, e.g. "map[string][]*Foo"
	Nominal     bool
	DeclNodeID  types.NodeID // empty if the type has no declaration in-repo
}

// Signature describes a callable's parameters, return type, and arity.
type Signature struct {
	ID         int
	ParamTypes []int // indexes into IRDocument.Types
	ParamNames []string
	ReturnType int // index into IRDocument.Types, -1 if void/untyped
	Variadic   bool
}

func (s Signature) Arity() int { return len(s.ParamTypes) }

// CFGBlockKind is the block classification from §3.
type CFGBlockKind string

const (
	CFGEntry     CFGBlockKind = "ENTRY"
	CFGBlockKindGeneric CFGBlockKind = "BLOCK"
	CFGCondition CFGBlockKind = "CONDITION"
	CFGLoop      CFGBlockKind = "LOOP"
	CFGExit      CFGBlockKind = "EXIT"
)

// CFGBlock is one control-flow block belonging to a function.
type CFGBlock struct {
	ID             int
	FunctionNodeID types.NodeID
	Kind           CFGBlockKind
	Statements     []string // rendered statement text, for diagnostics/display
	Span           types.Span
	// Unreachable marks dead code retained for diagnostics (§4.6).
	Unreachable bool
}

// CFGEdgeKind is the control-flow edge classification from §3.
type CFGEdgeKind string

const (
	CFGEdgeSeq  CFGEdgeKind = "seq"
	CFGEdgeTrue CFGEdgeKind = "true"
	CFGEdgeFalse CFGEdgeKind = "false"
	CFGEdgeBack CFGEdgeKind = "back"
)

// CFGEdge connects two CFGBlocks within the same function.
type CFGEdge struct {
	SourceBlockID int
	TargetBlockID int
	Kind          CFGEdgeKind
}

// ExpressionKind enumerates expression record kinds (§3, "CALL, ASSIGN,
// LITERAL, …").
type ExpressionKind string

const (
	ExprCall    ExpressionKind = "CALL"
	ExprAssign  ExpressionKind = "ASSIGN"
	ExprLiteral ExpressionKind = "LITERAL"
	ExprReturn  ExpressionKind = "RETURN"
	ExprBinary  ExpressionKind = "BINARY"
	ExprIdent   ExpressionKind = "IDENT"
)

// Expression is one expression record, scoped to its enclosing function.
type Expression struct {
	ID               int
	Kind             ExpressionKind
	EnclosingFuncID  types.NodeID
	Span             types.Span
	Attrs            map[string]any // e.g. attrs["callee_name"], attrs["callee_fqn"]
}

func (e Expression) Attr(key string) (any, bool) {
	if e.Attrs == nil {
		return nil, false
	}
	v, ok := e.Attrs[key]
	return v, ok
}

// DFGVariable is one lexical definition of a variable (§4.6: "a variable
// has one entity per lexical definition", SSA not required).
type DFGVariable struct {
	ID              int
	Name            string
	FunctionNodeID  types.NodeID
	DefSpan         types.Span
	IsParameter     bool
	IsSyntheticReturn bool
}

// DFGEdgeKind enumerates the data-flow edge kinds from §4.6.
type DFGEdgeKind string

const (
	DFGAssign DFGEdgeKind = "assign"
	DFGAlias  DFGEdgeKind = "alias"
	DFGArg    DFGEdgeKind = "arg"
	DFGReturn DFGEdgeKind = "return"
)

// DFGEdge is one data-flow edge between expressions/variables, addressed
// by DFGVariable.ID (variables) or Expression.ID (expressions), per §4.6's
// four edge shapes:
//
//	assign: RHS expression -> LHS variable
//	alias:  variable -> variable
//	arg:    argument expression -> callee parameter variable
//	return: return expression -> synthetic return variable
type DFGEdge struct {
	Kind        DFGEdgeKind
	FromExprID  int // -1 if the source is a variable (alias edges)
	FromVarID   int // -1 if the source is an expression
	ToVarID     int
}

// Severity is a Finding's severity level (§3).
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Finding is a vulnerability report produced by the taint engine (§4.7,
// GLOSSARY).
type Finding struct {
	RuleID   string
	Severity Severity
	Kind     string // e.g. "SQL_INJECTION"
	FilePath string
	SinkLine int
	// Path lists the source->sink chain as a sequence of human-readable
	// labels, e.g. ["q@assign", "q@arg", "execute@sink"] (§8 scenario 3).
	Path     []string
	Evidence string
}

// Address is the (rule_id, file_path, sink_line) identity findings are
// diffed by for regression gating (§4.7).
type Address struct {
	RuleID   string
	FilePath string
	SinkLine int
}

func (f Finding) Address() Address {
	return Address{RuleID: f.RuleID, FilePath: f.FilePath, SinkLine: f.SinkLine}
}
