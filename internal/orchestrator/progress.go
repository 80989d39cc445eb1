package orchestrator

import "sync/atomic"

// Stage names surfaced in JobProgress.CurrentStage.
const (
	StageDiscovery  = "discovery"
	StageStructural = "structural"
	StageResolve    = "resolve"
	StageTaint      = "taint"
	StageImpact     = "impact"
	StageGraph      = "graph"
	StageDone       = "done"
)

// JobProgress is a point-in-time snapshot of a session's progress (§4.11
// "JobProgress{total_files, processed_files, current_stage}").
type JobProgress struct {
	TotalFiles     int
	ProcessedFiles int
	CurrentStage   string
}

// ProgressTracker is the mutable, concurrency-safe counter pipeline
// stages update; Snapshot and an optional callback let a caller poll or
// subscribe (§4.11 "an optional async callback persists it for UI
// consumption"). Plain atomics, no mutex: the same lock-free-readers
// shape §5 calls for on the span pool/interner.
type ProgressTracker struct {
	total     int64
	processed int64
	stage     atomic.Value // string

	interval int
	onUpdate func(JobProgress)
}

// NewProgressTracker builds a tracker that invokes onUpdate (if non-nil)
// at least every interval processed files. interval<=0 disables the
// periodic callback; onUpdate may still be nil for callers that only
// poll Snapshot.
func NewProgressTracker(interval int, onUpdate func(JobProgress)) *ProgressTracker {
	pt := &ProgressTracker{interval: interval, onUpdate: onUpdate}
	pt.stage.Store(StageDiscovery)
	return pt
}

func (pt *ProgressTracker) SetTotal(n int) { atomic.StoreInt64(&pt.total, int64(n)) }

func (pt *ProgressTracker) SetStage(stage string) {
	pt.stage.Store(stage)
	pt.fire()
}

// IncFile records one more processed file, firing onUpdate every
// interval files (and always on the interval-th file, per-stage callers
// should call SetStage first so the fired snapshot carries the right
// stage label).
func (pt *ProgressTracker) IncFile() {
	n := atomic.AddInt64(&pt.processed, 1)
	if pt.interval > 0 && n%int64(pt.interval) == 0 {
		pt.fire()
	}
}

func (pt *ProgressTracker) fire() {
	if pt.onUpdate != nil {
		pt.onUpdate(pt.Snapshot())
	}
}

// Snapshot returns the current progress state.
func (pt *ProgressTracker) Snapshot() JobProgress {
	return JobProgress{
		TotalFiles:     int(atomic.LoadInt64(&pt.total)),
		ProcessedFiles: int(atomic.LoadInt64(&pt.processed)),
		CurrentStage:   pt.stage.Load().(string),
	}
}
