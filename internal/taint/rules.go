// Package taint implements the Taint/PDG Engine (§4.7): a YAML-compiled
// rule set of atoms (sources, sinks, sanitizers, barriers, propagators)
// matched against CALL expressions, and a forward worklist over the
// Semantic IR's DFG that turns a marked source reaching an unbarriered
// sink into a Finding.
package taint

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/codeir/internal/errors"
)

// AtomRole is the classification a matched CALL expression falls into
// (§4.7 step 3).
type AtomRole string

const (
	RoleSource     AtomRole = "source"
	RoleSink       AtomRole = "sink"
	RoleSanitizer  AtomRole = "sanitizer"
	RoleBarrier    AtomRole = "barrier"
	RolePropagator AtomRole = "propagator"
)

// Atom is one rule entry from a YAML rule file (§6 "Rule files"):
// `{id, language, method, base_type?, arg_roles[], cwe?}`. Heuristic is
// the Open Question flag (DESIGN.md decision 2): an atom that matches a
// dynamic-dispatch call with no static callee is only honored when
// explicitly opted in.
type Atom struct {
	ID        string   `yaml:"id"`
	Language  string   `yaml:"language"`
	Method    string   `yaml:"method"`
	BaseType  string   `yaml:"base_type,omitempty"`
	ArgRoles  []string `yaml:"arg_roles,omitempty"`
	CWE       string   `yaml:"cwe,omitempty"`
	Heuristic bool     `yaml:"heuristic,omitempty"`
}

// ruleFile is the top-level YAML shape (§6): `atoms: {sources[],
// sinks[], sanitizers[], barriers[], propagators[]}`. Unknown top-level
// keys are rejected (loadFile checks every top-level key against
// "atoms"); unknown Atom fields are ignored by construction (only the
// declared fields above are unmarshaled).
type ruleFile struct {
	Atoms struct {
		Sources      []Atom `yaml:"sources"`
		Sinks        []Atom `yaml:"sinks"`
		Sanitizers   []Atom `yaml:"sanitizers"`
		Barriers     []Atom `yaml:"barriers"`
		Propagators  []Atom `yaml:"propagators"`
	} `yaml:"atoms"`
}

// RuleSet is the compiled, queryable form of every atom loaded from a
// rule directory: indexed by bare method name for O(1) lookup, then
// filtered by base_type at match time (§4.7 step 2).
type RuleSet struct {
	// HeuristicEvalSinks mirrors DESIGN.md's Open Question decision 2:
	// when false (default), atoms with Heuristic=true never match.
	HeuristicEvalSinks bool

	byMethod map[string][]compiledAtom
}

type compiledAtom struct {
	atom Atom
	role AtomRole
}

// NewRuleSet returns an empty, ready-to-populate RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{byMethod: make(map[string][]compiledAtom)}
}

// LoadRuleDir walks dir for *.yaml/*.yml rule files and compiles them
// into a RuleSet. Malformed rule files are a ValidationError (§7: "bad
// input ... malformed rule file ... fatal at session start").
func LoadRuleDir(dir string) (*RuleSet, error) {
	rs := NewRuleSet()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		return rs.loadFile(path)
	})
	if err != nil {
		return nil, errors.NewValidationError("rule_dir:"+dir, err)
	}
	return rs, nil
}

func (rs *RuleSet) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading rule file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	var rf ruleFile
	if err := dec.Decode(&rf); err != nil {
		return fmt.Errorf("parsing rule file %s: %w", path, err)
	}
	var top map[string]yaml.Node
	if err := yaml.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("parsing rule file %s: %w", path, err)
	}
	for key := range top {
		if key != "atoms" {
			return fmt.Errorf("parsing rule file %s: unknown top-level key %q", path, key)
		}
	}

	rs.add(rf.Atoms.Sources, RoleSource)
	rs.add(rf.Atoms.Sinks, RoleSink)
	rs.add(rf.Atoms.Sanitizers, RoleSanitizer)
	rs.add(rf.Atoms.Barriers, RoleBarrier)
	rs.add(rf.Atoms.Propagators, RolePropagator)
	return nil
}

func (rs *RuleSet) add(atoms []Atom, role AtomRole) {
	for _, a := range atoms {
		key := bareMethod(a.Method)
		rs.byMethod[key] = append(rs.byMethod[key], compiledAtom{atom: a, role: role})
	}
}

// AddAtom registers one atom programmatically (used by tests and callers
// that build a RuleSet in-process rather than from YAML files).
func (rs *RuleSet) AddAtom(a Atom, role AtomRole) {
	rs.add([]Atom{a}, role)
}

// bareMethod returns the last dot-separated segment of a dotted method
// path, matching internal/semanticir's callee_name convention.
func bareMethod(method string) string {
	if i := strings.LastIndex(method, "."); i >= 0 {
		return method[i+1:]
	}
	return method
}

// Classify implements §4.7's matching algorithm: extract (base_type,
// method_name) from a call, look up atoms by method_name, then filter by
// base_type when the atom declares one. Atoms are keyed by bare method
// name only; an atom whose base_type matches wins over one that declares
// no base_type, and among atoms without a base_type the first one
// registered is used.
func (rs *RuleSet) Classify(methodName, baseType string) (Atom, AtomRole, bool) {
	candidates := rs.byMethod[methodName]
	var best *compiledAtom
	for i := range candidates {
		c := &candidates[i]
		if c.atom.Heuristic && !rs.HeuristicEvalSinks {
			continue
		}
		if c.atom.BaseType == "" {
			if best == nil {
				best = c
			}
			continue
		}
		if baseTypeMatches(c.atom.BaseType, baseType) {
			return c.atom, c.role, true
		}
	}
	if best != nil {
		return best.atom, best.role, true
	}
	return Atom{}, "", false
}

// baseTypeMatches allows an atom's base_type to be a suffix of the
// observed receiver expression (e.g. atom "sqlite3.Cursor" matches an
// observed receiver "cursor" only when the type-enriched attrs say so;
// in the structural-text fallback the observed receiver is whatever
// identifier precedes the method call, so suffix/equality match covers
// both "cursor" and "self.cursor").
func baseTypeMatches(atomBaseType, observed string) bool {
	if observed == "" {
		return false
	}
	atomBaseType = strings.ToLower(atomBaseType)
	observed = strings.ToLower(observed)
	return atomBaseType == observed || strings.HasSuffix(atomBaseType, "."+observed) ||
		strings.HasSuffix(observed, "."+atomBaseType) || strings.Contains(atomBaseType, observed)
}
