package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	lsp "github.com/sourcegraph/go-lsp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/codeir/internal/diag"
	"github.com/standardbeagle/codeir/internal/graphstore"
	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/ircache"
	"github.com/standardbeagle/codeir/internal/occurrence"
	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/resolve"
	"github.com/standardbeagle/codeir/internal/semanticir"
	"github.com/standardbeagle/codeir/internal/structural"
	"github.com/standardbeagle/codeir/internal/taint"
	"github.com/standardbeagle/codeir/internal/types"
)

// BuildSession owns one pull-pipeline run for one repo snapshot (§4.11
// "Owns a BuildSession{repo_path, repo_id, snapshot_id, is_incremental,
// stop_event, progress}"). One BuildSession is used for exactly one Run.
type BuildSession struct {
	RepoPath      string
	RepoID        string
	SnapshotID    string
	IsIncremental bool
	// PreviousVersionID, if set, names the last COMPLETED IndexVersion to
	// diff the change set against; empty means a full initial build.
	PreviousVersionID string

	Config   Config
	Parser   parserport.Port
	Cache    *ircache.Cache
	Rules    *taint.RuleSet
	Versions *VersionStore
	Enricher Enricher // optional LSP-backed type enrichment, nil is fine
	Progress *ProgressTracker
	Log      *diag.Logger

	stopped atomic.Bool
}

// Enricher is the narrow interface BuildSession needs from
// internal/typeenrich, letting tests substitute a fake without spinning
// up a real LSP process.
type Enricher interface {
	Enrich(ctx context.Context, doc *ir.IRDocument, fileURI lsp.DocumentURI, source []byte)
}

// Stop requests cancellation (§4.11 "Cancellation... every layer polls
// stop_event at file boundaries"). Safe to call from any goroutine,
// any number of times.
func (s *BuildSession) Stop() { s.stopped.Store(true) }

func (s *BuildSession) cancelled() bool { return s.stopped.Load() }

// Result is what a successful (or cleanly cancelled) Run produces.
type Result struct {
	Version   IndexVersion
	Docs      map[string]*ir.IRDocument
	Store     *graphstore.Store
	ChangeSet ChangeSet
	Cancelled bool
}

// Run executes the incremental build protocol (§4.11 steps 1-4) end to
// end: discovery, change-set computation, per-file layer execution over
// a bounded worker pool, cross-file resolve, impact-set-bounded
// enrichment, taint analysis, graph-store assembly, and version
// promotion.
func (s *BuildSession) Run(ctx context.Context) (*Result, error) {
	if s.Log == nil {
		s.Log = diag.Discard()
	}
	if s.Progress == nil {
		s.Progress = NewProgressTracker(0, nil)
	}
	log := s.Log
	start := time.Now()

	versionID := s.SnapshotID
	if versionID == "" {
		versionID = fmt.Sprintf("%s-%d", s.RepoID, start.UnixNano())
	}

	if err := s.Versions.Save(IndexVersion{
		VersionID: versionID, RepoID: s.RepoID, Status: StatusInProgress, CreatedAt: start,
	}, nil); err != nil {
		log.Warnf("orchestrator: failed to persist in-progress marker: %v", err)
	}

	s.Progress.SetStage(StageDiscovery)
	files, err := Discover(s.RepoPath, s.Config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	s.Progress.SetTotal(len(files))

	var previous map[string]types.ContentHash
	if s.IsIncremental && s.PreviousVersionID != "" {
		previous, err = s.Versions.LoadManifest(s.PreviousVersionID)
		if err != nil {
			return nil, fmt.Errorf("loading previous manifest: %w", err)
		}
	} else {
		previous = map[string]types.ContentHash{}
	}

	sources := make(map[string][]byte, len(files))
	current := make(map[string]types.ContentHash, len(files))
	for _, f := range files {
		content, readErr := os.ReadFile(f.Path)
		if readErr != nil {
			log.Warnf("orchestrator: skipping unreadable file %s: %v", f.Path, readErr)
			continue
		}
		sources[f.Path] = content
		current[f.Path] = types.HashContent(content)
	}

	cs := ComputeChangeSet(current, previous)
	if !s.IsIncremental {
		// A non-incremental build treats every discovered file as
		// Added, regardless of what the manifest says.
		cs = ChangeSet{}
		for path := range current {
			cs.Added = append(cs.Added, path)
		}
	}

	s.Progress.SetStage(StageStructural)
	docs, buildErr := s.buildDocs(ctx, files, sources)
	if buildErr != nil {
		if buildErr == errCancelled {
			return &Result{Cancelled: true}, nil
		}
		return nil, buildErr
	}

	s.Progress.SetStage(StageResolve)
	gc := resolve.NewGlobalContext(s.RepoID, docs, sources)
	resolve.Resolve(gc, docs)

	worklist := s.impactWorklist(docs, cs, log)

	if s.Enricher != nil {
		s.Progress.SetStage(StageImpact)
		for _, path := range worklist {
			if s.cancelled() {
				return &Result{Cancelled: true}, nil
			}
			doc, ok := docs[path]
			if !ok {
				continue
			}
			s.Enricher.Enrich(ctx, doc, fileURI(path), sources[path])
		}
	}

	s.Progress.SetStage(StageTaint)
	if s.Rules != nil {
		engine := taint.NewEngine(s.Rules)
		for _, doc := range docs {
			if s.cancelled() {
				return &Result{Cancelled: true}, nil
			}
			doc.Findings = engine.Run(doc)
		}
	}

	s.Progress.SetStage(StageGraph)
	allDocs := make([]*ir.IRDocument, 0, len(docs))
	for _, doc := range docs {
		allDocs = append(allDocs, doc)
	}
	store, err := graphstore.Build(allDocs)
	if err != nil {
		return nil, fmt.Errorf("graphstore build: %w", err)
	}

	version := IndexVersion{
		VersionID:  versionID,
		RepoID:     s.RepoID,
		FileCount:  len(docs),
		CreatedAt:  start,
		Status:     StatusCompleted,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err := s.Versions.Save(version, current); err != nil {
		return nil, fmt.Errorf("promoting version: %w", err)
	}
	s.Progress.SetStage(StageDone)

	return &Result{Version: version, Docs: docs, Store: store, ChangeSet: cs}, nil
}

var errCancelled = fmt.Errorf("orchestrator: build cancelled")

// buildDocs runs layers 1-3 (parse, structural, occurrence+semantic IR)
// for every discovered file over a bounded worker pool (§5 "fixed-size
// worker pool"), pulling from the IR cache for files whose (path,
// content_hash, schema_version, engine_version) key is already present.
func (s *BuildSession) buildDocs(ctx context.Context, files []DiscoveredFile, sources map[string][]byte) (map[string]*ir.IRDocument, error) {
	workers := s.Config.WorkerCount
	if workers <= 0 {
		workers = 8
	}
	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)

	docs := make(map[string]*ir.IRDocument, len(files))
	var mu sync.Mutex

	for _, f := range files {
		f := f
		content, ok := sources[f.Path]
		if !ok {
			continue
		}
		if s.cancelled() {
			return nil, errCancelled
		}
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			defer s.Progress.IncFile()
			if s.cancelled() {
				return nil
			}
			doc, err := s.buildOneFile(gctx, f, content)
			if err != nil {
				s.Log.Warnf("orchestrator: %s: %v", f.Path, err)
				return nil // one bad file degrades, not fails the build
			}
			mu.Lock()
			docs[f.Path] = doc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.cancelled() {
		return nil, errCancelled
	}
	return docs, nil
}

func (s *BuildSession) buildOneFile(ctx context.Context, f DiscoveredFile, content []byte) (*ir.IRDocument, error) {
	hash := types.HashContent(content)
	key := ircache.ComputeKey(f.Path, hash, s.Config.SchemaVersion, s.Config.EngineVersion)

	if s.Cache != nil {
		if doc, ok, err := s.Cache.Get(key); err == nil && ok {
			return doc, nil
		}
	}

	if !s.Parser.Supports(f.Language) {
		return nil, fmt.Errorf("no parser registered for %s", f.Language)
	}
	pf, err := s.Parser.Parse(ctx, f.Path, content, f.Language)
	if pf == nil || pf.Root == nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err != nil {
		// A recoverable parse error still carries a usable partial tree.
		s.Log.Warnf("orchestrator: %s: using partial tree: %v", f.Path, err)
	}

	builder := structural.New(s.RepoID, s.Config.EngineVersion)
	doc := builder.Build(pf, content)
	occurrence.Collect(doc, pf)
	semanticir.Build(doc, pf)
	if f.ModuleRoot != "" {
		tagModuleRoot(doc, f.ModuleRoot)
	}
	doc.Freeze()

	if s.Cache != nil {
		if err := s.Cache.Put(key, doc); err != nil {
			s.Log.Warnf("orchestrator: cache put failed for %s: %v", f.Path, err)
		}
	}
	return doc, nil
}

func tagModuleRoot(doc *ir.IRDocument, moduleRoot string) {
	for i := range doc.Nodes {
		if doc.Nodes[i].Attrs == nil {
			doc.Nodes[i].Attrs = make(map[string]any, 1)
		}
		doc.Nodes[i].Attrs["module_root"] = moduleRoot
	}
}

// impactWorklist computes the bounded transitive impact set (§4.11 step
// 3): every changed file plus any file holding a cross-file edge into a
// changed file's nodes, walked to a fixed point. This is a conservative
// over-approximation of "imported symbols changed fqn/signature" — any
// resolved reference into a changed file counts, since tracking the
// precise fqn/signature diff would require diffing against the previous
// session's IR, which the per-file cache does not retain once evicted.
// If the walk exceeds MaxImpactReindexFiles, the orchestrator escalates
// to treating every file as impacted and logs the fallback, matching
// §4.11's "falls back to a full rebuild for safety and logs the
// escalation".
func (s *BuildSession) impactWorklist(docs map[string]*ir.IRDocument, cs ChangeSet, log *diag.Logger) []string {
	impacted := make(map[string]bool)
	for _, p := range cs.Changed() {
		impacted[p] = true
	}

	for {
		grew := false
		for path, doc := range docs {
			if impacted[path] {
				continue
			}
			if docReferencesImpacted(doc, docs, impacted) {
				impacted[path] = true
				grew = true
			}
		}
		if !grew {
			break
		}
		if len(impacted) > s.Config.MaxImpactReindexFiles {
			log.Warnf("orchestrator: impact set exceeded %d files, escalating to full rebuild", s.Config.MaxImpactReindexFiles)
			all := make([]string, 0, len(docs))
			for path := range docs {
				all = append(all, path)
			}
			return all
		}
	}

	out := make([]string, 0, len(impacted))
	for path := range impacted {
		out = append(out, path)
	}
	return out
}

func docReferencesImpacted(doc *ir.IRDocument, docs map[string]*ir.IRDocument, impacted map[string]bool) bool {
	for _, e := range doc.Edges {
		switch e.Kind {
		case types.EdgeKindCalls, types.EdgeKindInherits, types.EdgeKindImplements,
			types.EdgeKindImports, types.EdgeKindReferences, types.EdgeKindReads,
			types.EdgeKindWrites, types.EdgeKindReturns, types.EdgeKindThrows:
		default:
			continue
		}
		target, ok := doc.ByID(e.TargetID)
		if !ok {
			for _, other := range docs {
				if t, found := other.ByID(e.TargetID); found {
					target = t
					ok = true
					break
				}
			}
		}
		if ok && impacted[target.FilePath] {
			return true
		}
	}
	return false
}

func fileURI(path string) lsp.DocumentURI {
	return lsp.DocumentURI("file://" + path)
}
