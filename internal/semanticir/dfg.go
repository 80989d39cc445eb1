package semanticir

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/types"
)

var (
	assignPattern    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)\s*=\s*([^=].*)$`)
	bareIdentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	callPattern      = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)\s*\((.*)\)$`)
)

// dfgState is the mutable context threaded through one function's DFG
// walk: the most recent DFGVariable ID for each bare name (re-assignment
// allocates a new ID rather than mutating the old one — SSA is not
// required, §4.6), the function's synthetic return variable, and the set
// of CSTCall nodes already turned into an Expression record so a call
// nested inside an assignment or return statement isn't double-counted
// when the generic walk reaches it as a child.
type dfgState struct {
	latest   map[string]int
	retVar   int
	consumed map[*parserport.CSTNode]bool
}

// buildDFG implements §4.6's data-flow construction for one function: a
// DFGVariable per formal parameter, one per assignment target, a
// synthetic return variable, and the four edge shapes (assign, alias, arg,
// return), plus an Expression record for every CALL — assigned, returned,
// or a bare statement like `cursor.execute(query)`, the shape
// internal/taint's sink matching (§4.7) most commonly looks for.
func (fb *fileBuilder) buildDFG(fn *ir.Node, cst *parserport.CSTNode) {
	st := &dfgState{latest: make(map[string]int), consumed: make(map[*parserport.CSTNode]bool)}

	for _, p := range fb.params(fn) {
		name := lastSegment(p.FQN)
		st.latest[name] = fb.newVar(fn, name, p.Span, true, false)
	}
	st.retVar = fb.newVar(fn, "<return>", fn.Span, false, true)

	fb.walk(fn, cst, st)
}

func (fb *fileBuilder) walk(fn *ir.Node, n *parserport.CSTNode, st *dfgState) {
	switch {
	case n.Kind == parserport.CSTAssign:
		fb.handleAssign(fn, n, st)
	case n.Kind == parserport.CSTCall && !st.consumed[n]:
		fb.emitCall(fn, n, st)
	case n.Kind == parserport.CSTOther && len(n.Children) == 0:
		fb.handleReturnLine(fn, n, st)
	}
	for _, c := range n.Children {
		fb.walk(fn, c, st)
	}
}

func (fb *fileBuilder) handleAssign(fn *ir.Node, n *parserport.CSTNode, st *dfgState) {
	m := assignPattern.FindStringSubmatch(strings.TrimSpace(n.Text))
	if m == nil {
		return
	}
	lhs, rhs := m[1], strings.TrimSpace(m[2])

	exprID := fb.newExpr(fn, ir.ExprAssign, n.Span, map[string]any{"rhs_text": rhs})
	varID := fb.newVar(fn, lhs, n.Span, false, false)
	st.latest[lhs] = varID

	fb.doc.DFGEdges = append(fb.doc.DFGEdges, ir.DFGEdge{
		Kind: ir.DFGAssign, FromExprID: exprID, FromVarID: -1, ToVarID: varID,
	})

	if bareIdentPattern.MatchString(rhs) {
		if srcVar, ok := st.latest[rhs]; ok {
			fb.doc.DFGEdges = append(fb.doc.DFGEdges, ir.DFGEdge{
				Kind: ir.DFGAlias, FromExprID: -1, FromVarID: srcVar, ToVarID: varID,
			})
		}
		return
	}

	if callNode := findCall(n); callNode != nil {
		fb.emitCall(fn, callNode, st)
		st.consumed[callNode] = true
	}
}

// handleReturnLine looks for a return statement inside n's own text and
// wires its expression to the function's synthetic return variable (§4.6:
// "return: return expression -> synthetic return variable of the
// function").
func (fb *fileBuilder) handleReturnLine(fn *ir.Node, n *parserport.CSTNode, st *dfgState) {
	trimmed := strings.TrimSpace(n.Text)
	if !strings.HasPrefix(trimmed, "return ") && trimmed != "return" {
		return
	}
	rhs := strings.TrimSpace(strings.TrimPrefix(trimmed, "return"))
	exprID := fb.newExpr(fn, ir.ExprReturn, n.Span, map[string]any{"rhs_text": rhs})
	fb.doc.DFGEdges = append(fb.doc.DFGEdges, ir.DFGEdge{
		Kind: ir.DFGReturn, FromExprID: exprID, FromVarID: -1, ToVarID: st.retVar,
	})
	if callNode := findCall(n); callNode != nil {
		fb.emitCall(fn, callNode, st)
		st.consumed[callNode] = true
	}
}

// emitCall records one CALL Expression and adds "arg" edges into the
// callee's parameters, using the resolved call target when the callee is
// declared in this same file (§4.6: "using resolved call targets"). The
// assign/return edge to the statement's own target variable is emitted by
// the caller, which also calls this for the nested call subexpression.
// Cross-file callee parameter linking is out of scope at this per-file
// layer; see internal/resolve for the Node/Edge-level cross-file
// resolution this still benefits from.
func (fb *fileBuilder) emitCall(fn *ir.Node, callNode *parserport.CSTNode, st *dfgState) {
	callee, argsText := calleeAndArgs(callNode.Text)
	fullCallee, _ := calleeFullAndArgs(callNode.Text)
	baseType := ""
	if i := strings.LastIndex(fullCallee, "."); i >= 0 {
		baseType = fullCallee[:i]
	}

	// argNames is positional: argNames[i] is the bare identifier passed as
	// the call's i-th argument, or "" when that argument isn't a bare
	// identifier (a literal, an expression, ...). This is recorded for
	// every call, resolved or not, so internal/taint can recover which
	// DFGVariable actually feeds a sink's argument instead of guessing
	// from line proximity.
	rawArgs := splitArgs(argsText)
	argNames := make([]string, len(rawArgs))
	for i, arg := range rawArgs {
		arg = strings.TrimSpace(arg)
		if bareIdentPattern.MatchString(arg) {
			argNames[i] = arg
		}
	}

	fb.newExpr(fn, ir.ExprCall, callNode.Span, map[string]any{
		"callee_name":      callee,
		"callee_full_name": fullCallee,
		"callee_base_type": baseType,
		"arg_names":        argNames,
	})

	calleeNode, ok := fb.funcNode(callee)
	if !ok || callee == "" {
		return
	}
	params := fb.params(calleeNode)
	for i, arg := range argNames {
		if i >= len(params) || arg == "" {
			continue
		}
		srcVar, ok := st.latest[arg]
		if !ok {
			continue
		}
		paramVarID := fb.paramVarID(calleeNode, params[i])
		if paramVarID < 0 {
			continue
		}
		fb.doc.DFGEdges = append(fb.doc.DFGEdges, ir.DFGEdge{
			Kind: ir.DFGArg, FromExprID: -1, FromVarID: srcVar, ToVarID: paramVarID,
		})
	}
}

// calleeAndArgs parses "pkg.Obj.method(a, b)" style call text into a
// dotted callee name and its raw argument list text.
func calleeAndArgs(text string) (string, string) {
	m := callPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", ""
	}
	return lastSegment(m[1]), m[2]
}

// calleeFullAndArgs is calleeAndArgs but keeps the full dotted callee
// text (e.g. "cursor.execute") instead of just its last segment, so
// internal/taint can recover a receiver/base-type hint for type-aware
// atom matching (§4.7: "filter by base_type").
func calleeFullAndArgs(text string) (string, string) {
	m := callPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// findCall returns the first CSTCall descendant of n, depth-first,
// skipping n itself.
func findCall(n *parserport.CSTNode) *parserport.CSTNode {
	for _, c := range n.Children {
		if c.Kind == parserport.CSTCall {
			return c
		}
		if found := findCall(c); found != nil {
			return found
		}
	}
	return nil
}

// paramVarID finds the DFGVariable already allocated for one of callee's
// formal parameters (allocated in buildDFG before its body is walked).
func (fb *fileBuilder) paramVarID(callee *ir.Node, param *ir.Node) int {
	name := lastSegment(param.FQN)
	for i := range fb.doc.DFGVariables {
		v := &fb.doc.DFGVariables[i]
		if v.FunctionNodeID == callee.ID && v.IsParameter && v.Name == name {
			return i
		}
	}
	return -1
}

func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (fb *fileBuilder) newVar(fn *ir.Node, name string, span types.Span, isParam, isReturn bool) int {
	id := len(fb.doc.DFGVariables)
	fb.doc.DFGVariables = append(fb.doc.DFGVariables, ir.DFGVariable{
		ID: id, Name: name, FunctionNodeID: fn.ID, DefSpan: span,
		IsParameter: isParam, IsSyntheticReturn: isReturn,
	})
	return id
}

func (fb *fileBuilder) newExpr(fn *ir.Node, kind ir.ExpressionKind, span types.Span, attrs map[string]any) int {
	id := len(fb.doc.Expressions)
	fb.doc.Expressions = append(fb.doc.Expressions, ir.Expression{
		ID: id, Kind: kind, EnclosingFuncID: fn.ID, Span: span, Attrs: attrs,
	})
	return id
}
