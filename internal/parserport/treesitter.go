package parserport

import (
	"context"
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/codeir/internal/types"
)

// langBinding bundles a grammar loader and the node-kind/field mapping the
// tree-sitter adapter needs to flatten a language's grammar into CSTNode
// kinds. Grounded in the teacher's per-language setupX functions
// (parser_language_setup.go), one registration function per language
// instead of one giant switch.
type langBinding struct {
	language  func() *tree_sitter.Language
	// declKinds maps this grammar's node type names to CSTNodeKind, the
	// same role the teacher's tree-sitter query strings play, but
	// expressed as a lookup table instead of a compiled Query — the
	// Structural IR builder only needs the kind classification, not the
	// capture machinery.
	declKinds map[string]CSTNodeKind
	nameField string // field name the grammar uses for a decl's identifier
}

// TreeSitterPort is the reference Parser Port adapter (§4.1). Grammar
// bindings are registered up front by NewTreeSitterPort; each language's
// parser is instantiated lazily on first use, matching the teacher's
// lazyInit/initialized bookkeeping in TreeSitterParser, so a process that
// only ever touches Python files never instantiates the Java parser.
type TreeSitterPort struct {
	mu          sync.Mutex
	bindings    map[types.Language]*langBinding
	parsers     map[types.Language]*tree_sitter.Parser
	initialized map[types.Language]bool
}

// NewTreeSitterPort constructs a port with all supported grammars
// registered (but not yet instantiated — see Supports/Parse).
func NewTreeSitterPort() *TreeSitterPort {
	p := &TreeSitterPort{
		bindings:    make(map[types.Language]*langBinding),
		parsers:     make(map[types.Language]*tree_sitter.Parser),
		initialized: make(map[types.Language]bool),
	}
	p.bindings[types.LangGo] = &langBinding{
		language:  func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
		nameField: "name",
		declKinds: map[string]CSTNodeKind{
			"function_declaration": CSTFunction,
			"method_declaration":   CSTMethod,
			"type_spec":            CSTStruct,
			"import_spec":          CSTImport,
			"call_expression":      CSTCall,
		},
	}
	p.bindings[types.LangPython] = &langBinding{
		language:  func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
		nameField: "name",
		declKinds: map[string]CSTNodeKind{
			"module":           CSTModule,
			"class_definition": CSTClass,
			"function_definition": CSTFunction,
			"import_statement":    CSTImport,
			"import_from_statement": CSTImport,
			"call":                 CSTCall,
			"assignment":           CSTAssign,
		},
	}
	p.bindings[types.LangJavaScript] = &langBinding{
		language:  func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_javascript.Language()) },
		nameField: "name",
		declKinds: map[string]CSTNodeKind{
			"function_declaration": CSTFunction,
			"method_definition":    CSTMethod,
			"class_declaration":    CSTClass,
			"variable_declarator":  CSTVariable,
			"import_statement":     CSTImport,
			"call_expression":      CSTCall,
		},
	}
	p.bindings[types.LangTypeScript] = &langBinding{
		language:  func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()) },
		nameField: "name",
		declKinds: map[string]CSTNodeKind{
			"function_declaration":  CSTFunction,
			"method_definition":     CSTMethod,
			"class_declaration":     CSTClass,
			"interface_declaration": CSTInterface,
			"import_statement":      CSTImport,
			"call_expression":       CSTCall,
		},
	}
	p.bindings[types.LangJava] = &langBinding{
		language:  func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_java.Language()) },
		nameField: "name",
		declKinds: map[string]CSTNodeKind{
			"class_declaration":     CSTClass,
			"interface_declaration": CSTInterface,
			"method_declaration":    CSTMethod,
			"field_declaration":     CSTField,
			"import_declaration":    CSTImport,
			"method_invocation":     CSTCall,
		},
	}
	return p
}

// Supports implements Port.
func (p *TreeSitterPort) Supports(lang types.Language) bool {
	_, ok := p.bindings[lang]
	return ok
}

func (p *TreeSitterPort) parserFor(lang types.Language) (*tree_sitter.Parser, *langBinding, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.bindings[lang]
	if !ok {
		return nil, nil, fmt.Errorf("parserport: no grammar registered for language %q", lang)
	}
	if p.initialized[lang] {
		return p.parsers[lang], b, nil
	}

	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(b.language()); err != nil {
		return nil, nil, fmt.Errorf("parserport: set language %q: %w", lang, err)
	}
	p.parsers[lang] = parser
	p.initialized[lang] = true
	return parser, b, nil
}

// Parse implements Port. It parses content with the registered grammar for
// lang and flattens the resulting tree-sitter tree into a CSTNode tree plus
// a best-effort occurrence list; the Structural IR builder does the real
// FQN/scope work (§4.2), this adapter only classifies node kinds.
func (p *TreeSitterPort) Parse(ctx context.Context, filePath string, content []byte, lang types.Language) (*ParsedFile, error) {
	parser, binding, err := p.parserFor(lang)
	if err != nil {
		return nil, newParseError(0, filePath, false, err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, newParseError(0, filePath, false, fmt.Errorf("tree-sitter returned no tree for %s", filePath))
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, newParseError(0, filePath, false, fmt.Errorf("tree-sitter returned no root node for %s", filePath))
	}

	lineCount := countLines(content)
	cst, occs := flatten(root, content, binding, lang)

	pf := &ParsedFile{
		FilePath:    filePath,
		Language:    lang,
		Root:        cst,
		Occurrences: occs,
		LineCount:   lineCount,
	}

	if root.HasError() {
		// A partial tree is still useful to the Structural IR builder
		// (§4.1: "callers may still use the partial tree"), so this is
		// reported but not treated as a hard failure.
		return pf, newParseError(0, filePath, true, fmt.Errorf("%s: syntax errors present, using partial tree", filePath))
	}
	return pf, nil
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 1
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	return n
}

func flatten(n *tree_sitter.Node, content []byte, binding *langBinding, lang types.Language) (*CSTNode, []NameOccurrence) {
	var occs []NameOccurrence
	root := flattenNode(n, content, binding, &occs)
	return root, occs
}

func flattenNode(n *tree_sitter.Node, content []byte, binding *langBinding, occs *[]NameOccurrence) *CSTNode {
	start := n.StartPosition()
	end := n.EndPosition()
	span := types.Span{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}

	kind := CSTOther
	if k, ok := binding.declKinds[n.Kind()]; ok {
		kind = k
	}

	name := ""
	if nameNode := n.ChildByFieldName(binding.nameField); nameNode != nil {
		name = string(content[nameNode.StartByte():nameNode.EndByte()])
		if kind != CSTOther {
			role := types.RoleRef
			switch kind {
			case CSTClass, CSTFunction, CSTMethod, CSTStruct, CSTInterface, CSTField, CSTVariable:
				role = types.RoleDef
			case CSTImport:
				role = types.RoleImport
			case CSTCall:
				role = types.RoleRef
			}
			nameStart := nameNode.StartPosition()
			nameEnd := nameNode.EndPosition()
			*occs = append(*occs, NameOccurrence{
				Name: name,
				Role: role,
				Span: types.Span{
					StartLine: int(nameStart.Row) + 1,
					StartCol:  int(nameStart.Column),
					EndLine:   int(nameEnd.Row) + 1,
					EndCol:    int(nameEnd.Column),
				},
			})
		}
	}

	node := &CSTNode{
		Kind: kind,
		Name: name,
		Span: span,
		Text: string(content[n.StartByte():n.EndByte()]),
	}

	childCount := int(n.ChildCount())
	for i := 0; i < childCount; i++ {
		child := n.Child(uint(i))
		if child == nil {
			continue
		}
		node.Children = append(node.Children, flattenNode(child, content, binding, occs))
	}
	return node
}

var _ Port = (*TreeSitterPort)(nil)
