package orchestrator

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/codeir/internal/diag"
)

// Watcher triggers a debounced incremental rebuild on filesystem change
// (§4.11's watch-mode trigger), grounded in the teacher's
// DebouncedRebuilder (internal/indexing/debounced_rebuilder.go): a
// fsnotify.Watcher feeds a pending-file set guarded by a mutex, and a
// single timer coalesces bursts of events into one rebuild, the same
// reset-on-every-event pattern debounced_rebuilder.go uses for reference
// rebuilds.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onRebuild func(changed []string)
	log       *diag.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]bool

	done chan struct{}
}

// NewWatcher opens an fsnotify watcher rooted at root and arms it to call
// onRebuild (debounced) whenever files change underneath it. A nil log
// discards diagnostics.
func NewWatcher(root string, debounce time.Duration, log *diag.Logger, onRebuild func(changed []string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if log == nil {
		log = diag.Discard()
	}
	w := &Watcher{
		fsWatcher: fw,
		debounce:  debounce,
		onRebuild: onRebuild,
		log:       log,
		pending:   make(map[string]bool),
		done:      make(chan struct{}),
	}
	if err := addWatchesRecursive(fw, root); err != nil {
		fw.Close()
		return nil, err
	}
	go w.run()
	return w, nil
}

// Close stops the watcher and its background goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fsWatcher.Add(event.Name); err != nil {
						w.log.Warnf("orchestrator: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}
			w.schedule(event.Name)
		case fsErr, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("orchestrator: watcher error: %v", fsErr)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(changed) > 0 && w.onRebuild != nil {
		w.onRebuild(changed)
	}
}

// PendingCount reports how many distinct paths are waiting on the
// debounce timer, mirroring DebouncedRebuilder.GetPendingCount — mainly
// useful for tests that want to observe coalescing without waiting out
// the full debounce window.
func (w *Watcher) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func addWatchesRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil // best-effort, matching the teacher's scanner
		}
		if info.IsDir() {
			if err := fw.Add(path); err != nil {
				return nil // unwatchable directory (permissions, symlink); skip it
			}
		}
		return nil
	})
}
