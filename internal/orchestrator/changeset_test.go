package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/codeir/internal/types"
)

func TestComputeChangeSetClassifiesEachPath(t *testing.T) {
	hashA := types.HashContent([]byte("a"))
	hashB := types.HashContent([]byte("b"))
	hashB2 := types.HashContent([]byte("b-edited"))

	previous := map[string]types.ContentHash{
		"unchanged.go": hashA,
		"old.go":       hashB,
		"removed.go":   hashA,
	}
	current := map[string]types.ContentHash{
		"unchanged.go": hashA,
		"old.go":       hashB2,
		"new.go":       hashB,
	}

	cs := ComputeChangeSet(current, previous)

	assert.ElementsMatch(t, []string{"new.go"}, cs.Added)
	assert.ElementsMatch(t, []string{"old.go"}, cs.Modified)
	assert.ElementsMatch(t, []string{"removed.go"}, cs.Deleted)
	assert.ElementsMatch(t, []string{"unchanged.go"}, cs.Unchanged)
	assert.False(t, cs.Empty())
	assert.ElementsMatch(t, []string{"new.go", "old.go"}, cs.Changed())
}

func TestComputeChangeSetFirstBuildTreatsEverythingAsAdded(t *testing.T) {
	current := map[string]types.ContentHash{
		"a.go": types.HashContent([]byte("a")),
		"b.go": types.HashContent([]byte("b")),
	}
	cs := ComputeChangeSet(current, nil)
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, cs.Added)
	assert.Empty(t, cs.Modified)
	assert.Empty(t, cs.Deleted)
	assert.Empty(t, cs.Unchanged)
}

func TestChangeSetEmptyWhenNothingChanged(t *testing.T) {
	hash := types.HashContent([]byte("x"))
	previous := map[string]types.ContentHash{"a.go": hash}
	current := map[string]types.ContentHash{"a.go": hash}
	cs := ComputeChangeSet(current, previous)
	assert.True(t, cs.Empty())
	assert.Empty(t, cs.Changed())
}
