package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeir/internal/types"
)

func writeFile(t *testing.T, root string, rel string, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDiscoverSkipsExcludedDirsAndFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "vendor/dep/dep.go", "package dep")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}")
	writeFile(t, root, "README.md", "# hello")

	files, err := Discover(root, DefaultExcludes)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, filepath.Join(root, "main.go"))
	assert.NotContains(t, paths, filepath.Join(root, "vendor/dep/dep.go"))
	assert.NotContains(t, paths, filepath.Join(root, "node_modules/pkg/index.js"))
	// README.md has no recognized language extension, so it's dropped too.
	assert.NotContains(t, paths, filepath.Join(root, "README.md"))
}

func TestDiscoverAssignsLanguageByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "b.py", "x = 1")

	files, err := Discover(root, nil)
	require.NoError(t, err)
	require.Len(t, files, 2)

	byPath := map[string]types.Language{}
	for _, f := range files {
		byPath[f.Path] = f.Language
	}
	assert.Equal(t, types.LangGo, byPath[filepath.Join(root, "a.go")])
	assert.Equal(t, types.LangPython, byPath[filepath.Join(root, "b.py")])
}

func TestDiscoverTagsMonorepoModuleRoots(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module root")
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "packages/web/package.json", "{}")
	writeFile(t, root, "packages/web/src/index.ts", "export {}")
	writeFile(t, root, "packages/web/src/util/helper.ts", "export {}")

	files, err := Discover(root, nil)
	require.NoError(t, err)

	byPath := map[string]DiscoveredFile{}
	for _, f := range files {
		byPath[f.Path] = f
	}

	mainFile := byPath[filepath.Join(root, "main.go")]
	assert.Equal(t, filepath.Clean(root), mainFile.ModuleRoot)

	webRoot := filepath.Clean(filepath.Join(root, "packages/web"))
	index := byPath[filepath.Join(root, "packages/web/src/index.ts")]
	assert.Equal(t, webRoot, index.ModuleRoot)

	nested := byPath[filepath.Join(root, "packages/web/src/util/helper.ts")]
	assert.Equal(t, webRoot, nested.ModuleRoot, "nested dirs without their own marker inherit the nearest ancestor's module root")
}

func TestDiscoverResultsAreSortedByPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "z.go", "package z")
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "m.go", "package m")

	files, err := Discover(root, nil)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.True(t, files[0].Path < files[1].Path)
	assert.True(t, files[1].Path < files[2].Path)
}
