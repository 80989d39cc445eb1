package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeir/internal/ircache"
	"github.com/standardbeagle/codeir/internal/parserport"
	"github.com/standardbeagle/codeir/internal/taint"
)

func newTestSession(t *testing.T, repoPath, stateDir string) *BuildSession {
	t.Helper()
	cfg := NewConfig("repo1")
	return &BuildSession{
		RepoPath: repoPath,
		RepoID:   "repo1",
		Config:   cfg,
		Parser:   parserport.NewTreeSitterPort(),
		Cache:    ircache.New(ircache.NewMemoryCache(64), nil),
		Rules:    taint.NewRuleSet(),
		Versions: NewVersionStore(stateDir),
	}
}

func TestBuildSessionFullBuildProducesVersionAndGraph(t *testing.T) {
	repoPath := t.TempDir()
	writeFile(t, repoPath, "main.go", "package main\n\nfunc main() {\n\thelper()\n}\n")
	writeFile(t, repoPath, "helper.go", "package main\n\nfunc helper() {\n}\n")

	s := newTestSession(t, repoPath, t.TempDir())
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Cancelled)
	assert.Equal(t, StatusCompleted, res.Version.Status)
	assert.Equal(t, 2, res.Version.FileCount)
	assert.Len(t, res.Docs, 2)
	assert.NotNil(t, res.Store)
	assert.ElementsMatch(t, res.ChangeSet.Added, []string{
		filepath.Join(repoPath, "helper.go"),
		filepath.Join(repoPath, "main.go"),
	})
}

func TestBuildSessionIncrementalOnlyRecomputesChangedFiles(t *testing.T) {
	repoPath := t.TempDir()
	writeFile(t, repoPath, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, repoPath, "other.go", "package main\n\nfunc other() {}\n")
	stateDir := t.TempDir()

	first := newTestSession(t, repoPath, stateDir)
	firstRes, err := first.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, firstRes.Version.Status)

	// Edit only main.go.
	writeFile(t, repoPath, "main.go", "package main\n\nfunc main() { println(1) }\n")

	second := newTestSession(t, repoPath, stateDir)
	second.IsIncremental = true
	second.PreviousVersionID = firstRes.Version.VersionID
	secondRes, err := second.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, secondRes)

	assert.ElementsMatch(t, secondRes.ChangeSet.Modified, []string{filepath.Join(repoPath, "main.go")})
	assert.ElementsMatch(t, secondRes.ChangeSet.Unchanged, []string{filepath.Join(repoPath, "other.go")})
	assert.Empty(t, secondRes.ChangeSet.Added)
	assert.Empty(t, secondRes.ChangeSet.Deleted)
	// Every file is still present in the final docs set, changed or not.
	assert.Len(t, secondRes.Docs, 2)
}

func TestBuildSessionIncrementalDetectsDeletedFiles(t *testing.T) {
	repoPath := t.TempDir()
	writeFile(t, repoPath, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, repoPath, "gone.go", "package main\n\nfunc gone() {}\n")
	stateDir := t.TempDir()

	first := newTestSession(t, repoPath, stateDir)
	firstRes, err := first.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(repoPath, "gone.go")))

	second := newTestSession(t, repoPath, stateDir)
	second.IsIncremental = true
	second.PreviousVersionID = firstRes.Version.VersionID
	secondRes, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, secondRes.ChangeSet.Deleted, []string{filepath.Join(repoPath, "gone.go")})
	assert.Len(t, secondRes.Docs, 1, "the deleted file should not reappear in the rebuilt doc set")
}

func TestBuildSessionStopCancelsMidBuild(t *testing.T) {
	repoPath := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, repoPath, filepath.Join("pkg", "file"+string(rune('a'+i))+".go"), "package pkg\n\nfunc f() {}\n")
	}

	s := newTestSession(t, repoPath, t.TempDir())
	s.Stop() // cancel before Run even starts walking files

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Cancelled)
}

func TestBuildSessionImpactSetEscalatesPastBound(t *testing.T) {
	repoPath := t.TempDir()
	writeFile(t, repoPath, "a.go", "package main\n\nfunc A() {}\n")
	writeFile(t, repoPath, "b.go", "package main\n\nfunc B() { A() }\n")
	writeFile(t, repoPath, "c.go", "package main\n\nfunc C() { B() }\n")
	stateDir := t.TempDir()

	s := newTestSession(t, repoPath, stateDir)
	s.Config.MaxImpactReindexFiles = 1
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 3, len(res.Docs))
}

func TestBuildSessionNonIncrementalIgnoresPreviousManifest(t *testing.T) {
	repoPath := t.TempDir()
	writeFile(t, repoPath, "main.go", "package main\n\nfunc main() {}\n")
	stateDir := t.TempDir()

	first := newTestSession(t, repoPath, stateDir)
	firstRes, err := first.Run(context.Background())
	require.NoError(t, err)

	second := newTestSession(t, repoPath, stateDir)
	second.IsIncremental = false
	second.PreviousVersionID = firstRes.Version.VersionID
	secondRes, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, secondRes.ChangeSet.Added, []string{filepath.Join(repoPath, "main.go")})
	assert.Empty(t, secondRes.ChangeSet.Unchanged)
}
