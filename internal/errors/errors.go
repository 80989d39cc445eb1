// Package errors implements the error taxonomy from §7: a small set of
// typed errors (not exceptions-by-string) so callers can branch on Kind
// and layers can attach context without losing the underlying cause. The
// shape mirrors the teacher repo's internal/errors package: one struct per
// kind, each implementing Error()/Unwrap() for errors.Is/As.
package errors

import (
	"fmt"
	"time"

	"github.com/standardbeagle/codeir/internal/types"
)

// Kind names one of the seven error categories from §7.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindParse          Kind = "parse"
	KindLSPTransport   Kind = "lsp_transport"
	KindIOCache        Kind = "io_cache"
	KindConsistency    Kind = "consistency"
	KindBudgetExceeded Kind = "budget_exceeded"
	KindCancelled      Kind = "cancelled"
)

// ValidationError is fatal at session start: bad input (missing repo_id,
// unreadable path, malformed rule file).
type ValidationError struct {
	Field      string
	Underlying error
	Timestamp  time.Time
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Underlying: err, Timestamp: time.Now()}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %v", e.Field, e.Underlying)
}
func (e *ValidationError) Unwrap() error { return e.Underlying }
func (e *ValidationError) Kind() Kind    { return KindValidation }

// ParseError is per-file and recoverable: the file is skipped for the
// failing layer but the session continues. Recoverable parsers may still
// hand back a PartialTree; see §4.1.
type ParseError struct {
	FileID      types.FileID
	FilePath    string
	Recoverable bool
	Underlying  error
	Timestamp   time.Time
}

func NewParseError(fileID types.FileID, path string, recoverable bool, err error) *ParseError {
	return &ParseError{FileID: fileID, FilePath: path, Recoverable: recoverable, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s (recoverable=%v): %v", e.FilePath, e.Recoverable, e.Underlying)
}
func (e *ParseError) Unwrap() error { return e.Underlying }
func (e *ParseError) Kind() Kind    { return KindParse }

// LSPTransportError is per-file and degraded: the file keeps whatever type
// it already had, per §4.4's "Degrades gracefully" clause.
type LSPTransportError struct {
	FilePath   string
	Underlying error
	Timestamp  time.Time
}

func NewLSPTransportError(path string, err error) *LSPTransportError {
	return &LSPTransportError{FilePath: path, Underlying: err, Timestamp: time.Now()}
}

func (e *LSPTransportError) Error() string {
	return fmt.Sprintf("lsp transport error for %s: %v", e.FilePath, e.Underlying)
}
func (e *LSPTransportError) Unwrap() error { return e.Underlying }
func (e *LSPTransportError) Kind() Kind    { return KindLSPTransport }

// IOCacheError covers IR cache reads (recoverable, treated as a miss) and
// writes (fatal only if the tmp-file write-rename flow itself fails).
type IOCacheError struct {
	Op         string // "read" or "write"
	Path       string
	Fatal      bool
	Underlying error
	Timestamp  time.Time
}

func NewIOCacheError(op, path string, fatal bool, err error) *IOCacheError {
	return &IOCacheError{Op: op, Path: path, Fatal: fatal, Underlying: err, Timestamp: time.Now()}
}

func (e *IOCacheError) Error() string {
	return fmt.Sprintf("cache %s failed for %s (fatal=%v): %v", e.Op, e.Path, e.Fatal, e.Underlying)
}
func (e *IOCacheError) Unwrap() error { return e.Underlying }
func (e *IOCacheError) Kind() Kind    { return KindIOCache }

// ConsistencyError means an invariant from §3 was violated after a layer
// ran. This is always a bug: it must surface and always fails the build,
// never silently passed (§7 propagation policy).
type ConsistencyError struct {
	Invariant  string
	OffendingIDs []string
	Underlying error
	Timestamp  time.Time
}

func NewConsistencyError(invariant string, offendingIDs []string, err error) *ConsistencyError {
	return &ConsistencyError{Invariant: invariant, OffendingIDs: offendingIDs, Underlying: err, Timestamp: time.Now()}
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("invariant %q violated for %v: %v", e.Invariant, e.OffendingIDs, e.Underlying)
}
func (e *ConsistencyError) Unwrap() error { return e.Underlying }
func (e *ConsistencyError) Kind() Kind    { return KindConsistency }

// BudgetExceeded is not an error in the failure sense: it's how the query
// engine reports a bounded search that hit depth/path/node/timeout limits
// (§4.9, §7). Callers typically inspect this via PathSet.TruncationReason
// rather than treating it as a Go error, but it implements error so it can
// flow through the same Result-returning signatures where convenient.
type BudgetExceeded struct {
	Budget string // "depth", "limit_paths", "limit_nodes", "timeout"
	Limit  int
}

func NewBudgetExceeded(budget string, limit int) *BudgetExceeded {
	return &BudgetExceeded{Budget: budget, Limit: limit}
}

func (e *BudgetExceeded) Error() string {
	return fmt.Sprintf("budget exceeded: %s limit %d reached", e.Budget, e.Limit)
}
func (e *BudgetExceeded) Kind() Kind { return KindBudgetExceeded }

// Cancelled means the session's stop_event fired. Not an error: partial
// in-memory state is simply dropped (§5 cancellation semantics).
type Cancelled struct {
	Stage string
}

func NewCancelled(stage string) *Cancelled { return &Cancelled{Stage: stage} }
func (e *Cancelled) Error() string         { return fmt.Sprintf("build cancelled during %s", e.Stage) }
func (e *Cancelled) Kind() Kind            { return KindCancelled }

// MultiError aggregates independent per-file errors into one value for a
// layer summary (§7 "Each layer reports a summary").
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }
