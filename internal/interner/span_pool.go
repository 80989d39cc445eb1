package interner

import (
	"sync"
	"sync/atomic"

	"github.com/standardbeagle/codeir/internal/types"
)

// SpanID is a handle into the SpanPool: a dense index, far cheaper to
// carry around a Node than a 4-int Span value once a corpus has millions
// of spans.
type SpanID uint32

// SpanPool interns Span values: two equal spans (by invariant #6, value
// equality of the four integers) always resolve to the same SpanID.
//
// Get is lock-free: it reads a snapshot pointer to the backing slice built
// with copy-on-write semantics (per §3 "Indexes are rebuilt lazily on
// first query; concurrent readers are safe once built"). Intern (the
// writer path) is serialized behind a single RWMutex; the striped design
// lives in StringInterner instead, where the much larger key space
// benefits more from partitioning.
type SpanPool struct {
	mu      sync.RWMutex // guards index map + slice growth
	byValue map[types.Span]SpanID
	spans   atomic.Pointer[[]types.Span]
}

// NewSpanPool creates an empty pool.
func NewSpanPool() *SpanPool {
	p := &SpanPool{byValue: make(map[types.Span]SpanID)}
	empty := make([]types.Span, 0, 64)
	p.spans.Store(&empty)
	return p
}

// Intern returns the SpanID for s, allocating a new one if s hasn't been
// seen before.
func (p *SpanPool) Intern(s types.Span) SpanID {
	p.mu.RLock()
	if id, ok := p.byValue[s]; ok {
		p.mu.RUnlock()
		return id
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.byValue[s]; ok {
		return id
	}
	cur := *p.spans.Load()
	next := append(append([]types.Span(nil), cur...), s)
	id := SpanID(len(next) - 1)
	p.byValue[s] = id
	p.spans.Store(&next)
	return id
}

// Get resolves a SpanID back to its Span. Lock-free: reads the current
// frozen slice pointer.
func (p *SpanPool) Get(id SpanID) (types.Span, bool) {
	cur := *p.spans.Load()
	if int(id) >= len(cur) {
		return types.Span{}, false
	}
	return cur[id], true
}

// Len reports the number of distinct spans interned so far.
func (p *SpanPool) Len() int {
	return len(*p.spans.Load())
}
