package types

// Occurrence is one identifier appearance: (span, symbol_fqn, role).
// The Occurrence Collector (§4.3) produces these in file order then span
// order, which is the deterministic ordering downstream consumers
// ("find references") rely on.
type Occurrence struct {
	FileID     FileID
	SymbolFQN  SymbolFQN
	Role       OccurrenceRole
	Span       Span
	NodeID     NodeID // resolved DEF node, empty until cross-file resolve runs
}

// Language identifies the source language of a file. It is a plain string
// tag (not an enum) because the parser port is pluggable and new languages
// should not require a core code change — see §4.1.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangUnknown    Language = "unknown"
)

// LanguageForExtension maps a file extension (including the leading dot) to
// a Language tag, used by discovery to group files (§6).
func LanguageForExtension(ext string) Language {
	switch ext {
	case ".go":
		return LangGo
	case ".py", ".pyi":
		return LangPython
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript
	case ".ts", ".tsx":
		return LangTypeScript
	case ".java":
		return LangJava
	default:
		return LangUnknown
	}
}
