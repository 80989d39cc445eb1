package taint

import (
	"fmt"

	"github.com/standardbeagle/codeir/internal/ir"
)

// Engine runs the taint/PDG analysis (§4.7) over one IRDocument's
// Semantic IR (Expressions + DFGVariables + DFGEdges), classifying CALL
// expressions against a RuleSet and emitting Findings for any source
// that reaches a sink with no intervening barrier.
type Engine struct {
	Rules *RuleSet
}

// NewEngine returns an Engine wired to rules.
func NewEngine(rules *RuleSet) *Engine {
	return &Engine{Rules: rules}
}

// callSite is one classified CALL expression.
type callSite struct {
	expr ir.Expression
	atom Atom
	role AtomRole
}

// Run implements §4.7's flow algorithm: classify every CALL, seed the
// mark set from source calls' assigned/returned variables, propagate the
// mark forward across assign/alias/arg/return DFG edges (clearing it at
// sanitizers, refusing to cross barriers), then for every sink whose
// argument variable is marked, emit a Finding. The worklist terminates:
// whether an edge counts as sanitized depends only on its target
// variable, so a variable cleared by a sanitizer is never marked again,
// and every other mark only grows, bounded by len(doc.DFGVariables).
func (e *Engine) Run(doc *ir.IRDocument) []ir.Finding {
	if e.Rules == nil {
		return nil
	}

	sites := e.classifyCalls(doc)

	marked := make(map[int]bool)          // DFGVariable index -> tainted
	markSource := make(map[int]*callSite) // DFGVariable index -> originating source call

	exprToVar := exprAssignTargets(doc)

	for _, site := range sites {
		if site.role != RoleSource {
			continue
		}
		if varID, ok := exprToVar[site.expr.ID]; ok {
			s := site
			if !marked[varID] {
				marked[varID] = true
				markSource[varID] = &s
			}
		}
	}

	// Forward worklist: repeat until the mark set stops growing. Sanitizer
	// calls clear the mark on their result variable; barrier calls block
	// propagation across their edges entirely.
	changed := true
	for changed {
		changed = false
		for _, edge := range doc.DFGEdges {
			if edge.FromVarID < 0 {
				continue
			}
			if !marked[edge.FromVarID] {
				continue
			}
			if e.edgeCrossesBarrier(doc, sites, edge) {
				continue
			}
			if e.edgeCrossesSanitizer(doc, sites, edge) {
				if marked[edge.ToVarID] {
					marked[edge.ToVarID] = false
					changed = true
				}
				continue
			}
			if !marked[edge.ToVarID] {
				marked[edge.ToVarID] = true
				markSource[edge.ToVarID] = markSource[edge.FromVarID]
				changed = true
			}
		}
	}

	var findings []ir.Finding
	for _, site := range sites {
		if site.role != RoleSink {
			continue
		}
		argVar, ok := callArgVar(doc, site.expr, site.atom)
		if !ok || !marked[argVar] {
			continue
		}
		varName := "tainted"
		if argVar >= 0 && argVar < len(doc.DFGVariables) {
			varName = doc.DFGVariables[argVar].Name
		}
		sinkLabel := callSiteLabel(doc, site.expr)
		findings = append(findings, ir.Finding{
			RuleID:   site.atom.ID,
			Severity: ir.SeverityHigh,
			Kind:     kindFromCWE(site.atom.CWE),
			FilePath: doc.FilePath,
			SinkLine: site.expr.Span.StartLine,
			Path: []string{
				fmt.Sprintf("%s@assign", varName),
				fmt.Sprintf("%s@arg", varName),
				fmt.Sprintf("%s@sink", sinkLabel),
			},
			Evidence: fmt.Sprintf("%s -> %s", site.atom.ID, site.atom.Method),
		})
	}
	return findings
}

func (e *Engine) classifyCalls(doc *ir.IRDocument) []callSite {
	var sites []callSite
	for _, expr := range doc.Expressions {
		if expr.Kind != ir.ExprCall {
			continue
		}
		name, _ := expr.Attr("callee_name")
		baseType, _ := expr.Attr("callee_base_type")
		methodName, _ := name.(string)
		baseTypeStr, _ := baseType.(string)
		if methodName == "" {
			continue
		}
		atom, role, ok := e.Rules.Classify(methodName, baseTypeStr)
		if !ok {
			continue
		}
		sites = append(sites, callSite{expr: expr, atom: atom, role: role})
	}
	return sites
}

// exprAssignTargets maps a CALL Expression's ID to the DFGVariable it was
// assigned into, via the assign edge whose FromExprID equals a wrapping
// assign Expression sharing the same span start line as the call (the
// common "x = source()" shape). A call on a "return source()" line is
// mapped the same way, through the return edge, to the function's return
// variable. A bare statement call with neither gets no entry.
func exprAssignTargets(doc *ir.IRDocument) map[int]int {
	out := make(map[int]int)
	for _, edge := range doc.DFGEdges {
		if (edge.Kind != ir.DFGAssign && edge.Kind != ir.DFGReturn) || edge.FromExprID < 0 {
			continue
		}
		assignExpr := doc.Expressions[edge.FromExprID]
		for _, call := range doc.Expressions {
			if call.Kind == ir.ExprCall && call.Span.StartLine == assignExpr.Span.StartLine {
				out[call.ID] = edge.ToVarID
			}
		}
	}
	return out
}

// callArgVar returns the DFGVariable ID actually bound to this sink
// call's tainted-relevant argument, using the "arg_names" attr
// semanticir's emitCall records for every CALL expression (positional
// bare-identifier argument names, resolved or not). atom.ArgRoles gives
// the argument positions that matter (§6: "arg_roles[]"); an atom with
// no ArgRoles declared falls back to position 0, the common single-
// primary-argument sink shape (sqlite3.Cursor.execute(query),
// os.system(cmd), ...).
func callArgVar(doc *ir.IRDocument, call ir.Expression, atom Atom) (int, bool) {
	raw, _ := call.Attr("arg_names")
	argNames, ok := raw.([]string)
	if !ok || len(argNames) == 0 {
		return 0, false
	}

	indices := []int{0}
	if len(atom.ArgRoles) > 0 {
		indices = make([]int, len(atom.ArgRoles))
		for i := range atom.ArgRoles {
			indices[i] = i
		}
	}

	for _, idx := range indices {
		if idx < 0 || idx >= len(argNames) || argNames[idx] == "" {
			continue
		}
		if varID, ok := resolveVarByName(doc, call, argNames[idx]); ok {
			return varID, true
		}
	}
	return 0, false
}

// resolveVarByName finds the DFGVariable most recently bound to name
// within call's enclosing function as of call's own line — i.e. the
// variable that name actually refers to at the call site, mirroring
// emitCall's own st.latest lookup at the point it walked past this call.
func resolveVarByName(doc *ir.IRDocument, call ir.Expression, name string) (int, bool) {
	best := -1
	bestLine := -1
	for _, v := range doc.DFGVariables {
		if v.Name != name || v.FunctionNodeID != call.EnclosingFuncID {
			continue
		}
		if v.DefSpan.StartLine > call.Span.StartLine {
			continue
		}
		if v.DefSpan.StartLine >= bestLine {
			best, bestLine = v.ID, v.DefSpan.StartLine
		}
	}
	if best >= 0 {
		return best, true
	}
	return 0, false
}

func (e *Engine) edgeCrossesBarrier(doc *ir.IRDocument, sites []callSite, edge ir.DFGEdge) bool {
	return edgeNearRole(doc, sites, edge, RoleBarrier)
}

func (e *Engine) edgeCrossesSanitizer(doc *ir.IRDocument, sites []callSite, edge ir.DFGEdge) bool {
	return edgeNearRole(doc, sites, edge, RoleSanitizer)
}

// edgeNearRole reports whether a call classified as role shares the
// target variable's definition line, i.e. the edge's flow passes through
// that call.
func edgeNearRole(doc *ir.IRDocument, sites []callSite, edge ir.DFGEdge, role AtomRole) bool {
	if edge.ToVarID < 0 || edge.ToVarID >= len(doc.DFGVariables) {
		return false
	}
	target := doc.DFGVariables[edge.ToVarID]
	for _, s := range sites {
		if s.role == role && s.expr.Span.StartLine == target.DefSpan.StartLine {
			return true
		}
	}
	return false
}

func callSiteLabel(doc *ir.IRDocument, expr ir.Expression) string {
	name, _ := expr.Attr("callee_name")
	if s, ok := name.(string); ok && s != "" {
		return s
	}
	// Assignment target variable defined on the same line, if any.
	for _, v := range doc.DFGVariables {
		if v.DefSpan.StartLine == expr.Span.StartLine {
			return v.Name
		}
	}
	return "expr"
}

// kindFromCWE maps a CWE identifier to a human Finding.Kind; unknown
// CWEs fall back to the CWE string itself so the Finding is never blank.
func kindFromCWE(cwe string) string {
	switch cwe {
	case "CWE-89":
		return "SQL_INJECTION"
	case "CWE-78":
		return "COMMAND_INJECTION"
	case "CWE-79":
		return "XSS"
	case "CWE-502":
		return "INSECURE_DESERIALIZATION"
	case "":
		return "TAINT_FLOW"
	default:
		return cwe
	}
}
