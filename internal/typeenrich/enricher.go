package typeenrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/standardbeagle/codeir/internal/diag"
	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

// cacheKey is (file_content_hash, line, col) per §4.4.
type cacheKey struct {
	hash types.ContentHash
	line int
	col  int
}

// Enricher attaches resolved types to Nodes whose declared type couldn't
// be inferred structurally (§4.4). It degrades gracefully: a missing or
// misbehaving LSP client is a warning, never a build failure, and nodes
// simply keep whatever type they already had.
type Enricher struct {
	client  *Client
	log     *diag.Logger
	timeout time.Duration
	mu      sync.Mutex
	cache   map[cacheKey]string
	opened  map[lsp.DocumentURI]bool
}

// NewEnricher wraps client (nil is allowed — Enrich becomes a no-op,
// matching "missing LSP is a warning, not a failure").
func NewEnricher(client *Client, log *diag.Logger, perFileTimeout time.Duration) *Enricher {
	return &Enricher{
		client:  client,
		log:     log,
		timeout: perFileTimeout,
		cache:   make(map[cacheKey]string),
		opened:  make(map[lsp.DocumentURI]bool),
	}
}

// Enrich walks doc's Nodes and, for every Node lacking a declared type
// (DeclaredTypeID == -1), queries the LSP client's hover info and records
// the resolved type as a new ir.TypeEntity, wiring DeclaredTypeID to it.
// source is the file's raw content at this build, sent via a one-time
// textDocument/didOpen (§4.4: "Opens files lazily (one didOpen per file
// per session)") before the first hover against fileURI.
func (e *Enricher) Enrich(ctx context.Context, doc *ir.IRDocument, fileURI lsp.DocumentURI, source []byte) {
	if e.client == nil {
		e.log.Warnf("typeenrich: no LSP client configured for %s, skipping enrichment", doc.FilePath)
		return
	}
	if e.client.State() != StateActive {
		e.log.Warnf("typeenrich: LSP client not active (state=%s) for %s, skipping enrichment", e.client.State(), doc.FilePath)
		return
	}

	fileCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.ensureOpen(fileCtx, fileURI, doc, source); err != nil {
		e.log.Warnf("typeenrich: didOpen failed for %s: %v", doc.FilePath, err)
		return
	}

	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.DeclaredTypeID != -1 {
			continue
		}
		typeExpr, ok := e.lookup(fileCtx, doc.FileContentHash, n.Span.StartLine, n.Span.StartCol, fileURI)
		if !ok {
			continue
		}
		id := len(doc.Types)
		doc.Types = append(doc.Types, ir.TypeEntity{ID: id, Expression: typeExpr})
		n.DeclaredTypeID = id
	}
}

// ensureOpen sends textDocument/didOpen for uri the first time this
// Enricher sees it, and is a no-op on every later call (incremental
// rebuilds re-enrich the same impacted files across a session without
// re-opening them).
func (e *Enricher) ensureOpen(ctx context.Context, uri lsp.DocumentURI, doc *ir.IRDocument, source []byte) error {
	e.mu.Lock()
	if e.opened[uri] {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.client.DidOpen(ctx, uri, languageID(doc.Language), string(source)); err != nil {
		return err
	}

	e.mu.Lock()
	e.opened[uri] = true
	e.mu.Unlock()
	return nil
}

func languageID(lang types.Language) string {
	switch lang {
	case types.LangGo:
		return "go"
	case types.LangPython:
		return "python"
	case types.LangJavaScript:
		return "javascript"
	case types.LangTypeScript:
		return "typescript"
	case types.LangJava:
		return "java"
	default:
		return "plaintext"
	}
}

func (e *Enricher) lookup(ctx context.Context, hash types.ContentHash, line, col int, uri lsp.DocumentURI) (string, bool) {
	key := cacheKey{hash: hash, line: line, col: col}

	e.mu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return cached, cached != ""
	}
	e.mu.Unlock()

	hover, err := e.client.Hover(ctx, uri, lsp.Position{Line: line - 1, Character: col})
	if err != nil {
		e.log.Warnf("typeenrich: hover request failed at %d:%d: %v", line, col, err)
		e.mu.Lock()
		e.cache[key] = ""
		e.mu.Unlock()
		return "", false
	}

	typeExpr := renderHover(hover)

	e.mu.Lock()
	e.cache[key] = typeExpr
	e.mu.Unlock()

	return typeExpr, typeExpr != ""
}

func renderHover(h *lsp.Hover) string {
	if h == nil || len(h.Contents) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", h.Contents[0].Value)
}
