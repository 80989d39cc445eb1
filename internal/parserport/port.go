// Package parserport defines the Parser Port contract (§4.1): an external
// collaborator boundary between raw file bytes and the Structural IR
// builder. The core never depends on a concrete parser; it depends on this
// interface, and the only implementation that ships in this repo is the
// tree-sitter reference adapter in this package.
package parserport

import (
	"context"

	ircerrors "github.com/standardbeagle/codeir/internal/errors"
	"github.com/standardbeagle/codeir/internal/types"
)

// OccurrenceRole mirrors types.OccurrenceRole; kept as its own alias so
// parser adapters don't need to import the full occurrence/IR stack.
type OccurrenceRole = types.OccurrenceRole

// NameOccurrence is one identifier use surfaced directly by the parser,
// before the Structural IR builder assigns it a resolved symbol_fqn.
type NameOccurrence struct {
	Name string
	Role OccurrenceRole
	Span types.Span
}

// CSTNodeKind is the parser's own node classification, independent of
// types.NodeKind — the Structural IR builder maps these down to NodeKinds
// per-language (§4.2).
type CSTNodeKind string

const (
	CSTModule    CSTNodeKind = "module"
	CSTClass     CSTNodeKind = "class"
	CSTInterface CSTNodeKind = "interface"
	CSTStruct    CSTNodeKind = "struct"
	CSTFunction  CSTNodeKind = "function"
	CSTMethod    CSTNodeKind = "method"
	CSTField     CSTNodeKind = "field"
	CSTParameter CSTNodeKind = "parameter"
	CSTVariable  CSTNodeKind = "variable"
	CSTImport    CSTNodeKind = "import"
	CSTCall      CSTNodeKind = "call"
	CSTAssign    CSTNodeKind = "assign"
	CSTLiteral   CSTNodeKind = "literal"
	CSTOther     CSTNodeKind = "other"
)

// CSTNode is a concrete-syntax-tree node, flattened to the fields the
// Structural IR builder actually needs: its own span, declared name (if
// any), raw source text for docstring/decorator extraction, and children
// in document order.
type CSTNode struct {
	Kind     CSTNodeKind
	Name     string
	Span     types.Span
	BodySpan *types.Span
	Text     string
	Attrs    map[string]string
	Children []*CSTNode
}

// ParsedFile is the Parser Port's output for one file (§4.1): a concrete
// syntax tree plus the occurrences the parser could surface directly
// (definitions and references with kinds). A non-nil Root with
// Recoverable errors is still usable — the core does not discard partial
// trees.
type ParsedFile struct {
	FilePath    string
	Language    types.Language
	Root        *CSTNode
	Occurrences []NameOccurrence
	LineCount   int
}

// Port is the Parser Port contract (§4.1): given a (file_path, bytes,
// language_tag), return a concrete syntax tree with byte spans and a list
// of name occurrences. Implementations are expected to be robust (recover
// from syntax errors) and deterministic, and to own no global state the
// core depends on.
type Port interface {
	// Parse returns a ParsedFile, or a nil ParsedFile with a non-recoverable
	// *ircerrors.ParseError when the file is syntactically invalid enough
	// that even a partial tree isn't worth keeping. When Root is non-nil
	// on a ParseError return, callers may still use the partial tree —
	// the error's Recoverable flag says which case this is.
	Parse(ctx context.Context, filePath string, content []byte, lang types.Language) (*ParsedFile, error)

	// Supports reports whether this port has a grammar registered for lang.
	Supports(lang types.Language) bool
}

// newParseError is a convenience constructor so adapters don't need to
// import internal/errors directly for the common fatal-parse case.
func newParseError(fileID types.FileID, filePath string, recoverable bool, underlying error) *ircerrors.ParseError {
	return ircerrors.NewParseError(fileID, filePath, recoverable, underlying)
}
