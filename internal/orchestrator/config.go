// Package orchestrator drives BuildSession (§4.11): discovery, change-set
// computation, per-file layer execution over a bounded worker pool, impact-
// set re-enrichment, and IndexVersion promotion.
package orchestrator

import "time"

// DefaultExcludes mirrors the teacher's default exclusion set for
// .git/vendor/build-output directories (§6 "honours a configurable
// exclude list (default: .git, vendor dirs, build outputs)").
var DefaultExcludes = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/dist/**",
	"**/build/**",
	"**/.venv/**",
	"**/__pycache__/**",
}

// Config holds the orchestrator's tunables. A zero Config is invalid;
// use NewConfig for defaults.
type Config struct {
	RepoID        string
	EngineVersion string
	SchemaVersion string

	ExcludePatterns []string
	// MaxImpactReindexFiles bounds the transitive impact walk after layer
	// 5 (§4.11 step 3); exceeding it falls back to a full rebuild.
	MaxImpactReindexFiles int
	// WorkerCount bounds the per-file worker pool (§5 "fixed-size worker
	// pool"). 0 or less makes buildDocs use 8 workers.
	WorkerCount int
	// ProgressInterval is how often (in processed files) Progress fires
	// its callback (§4.11 "updated at least every N files").
	ProgressInterval int
	// WatchDebounce is the fsnotify event coalescing window (§4.11's
	// watch-mode trigger), grounded in the teacher's debounced rebuilder.
	WatchDebounce time.Duration
}

// NewConfig returns a Config with the spec's defaults.
func NewConfig(repoID string) Config {
	return Config{
		RepoID:                repoID,
		EngineVersion:         "codeir-engine-v1",
		SchemaVersion:         "codeir.ir.v1",
		ExcludePatterns:       append([]string(nil), DefaultExcludes...),
		MaxImpactReindexFiles: 2000,
		WorkerCount:           0,
		ProgressInterval:      50,
		WatchDebounce:         300 * time.Millisecond,
	}
}
