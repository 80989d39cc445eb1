package orchestrator

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherCoalescesBurstsIntoOneRebuild(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a"), 0o644))

	var mu sync.Mutex
	var calls [][]string
	done := make(chan struct{}, 1)

	w, err := NewWatcher(root, 50*time.Millisecond, nil, func(changed []string) {
		mu.Lock()
		calls = append(calls, changed)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	// Rapid-fire writes within the debounce window should coalesce.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a // edit"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced rebuild callback")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 1, "rapid edits within the debounce window should fire exactly one rebuild")
}

func TestWatcherPendingCountResetsAfterFire(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a"), 0o644))

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(root, 30*time.Millisecond, nil, func(changed []string) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a // edit"), 0o644))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for rebuild callback")
	}

	assert.Equal(t, 0, w.PendingCount())
}
