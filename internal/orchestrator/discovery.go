package orchestrator

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/codeir/internal/types"
)

// monorepoMarkers are the boundary files original_source's
// monorepo_detector.py treats as workspace-package roots (package.json,
// Cargo.toml, pyproject.toml, go.mod), generalized here to tag individual
// nodes with a module_root attr rather than model full workspace
// dependency-rule enforcement — cross-package import-violation checking
// is out of this repo's scope.
var monorepoMarkers = []string{"package.json", "Cargo.toml", "pyproject.toml", "go.mod"}

// DiscoveredFile is one file discovery.go's walk yields: its path,
// inferred language, and the nearest enclosing monorepo module root.
type DiscoveredFile struct {
	Path       string
	Language   types.Language
	ModuleRoot string
}

// Discover walks root, applying excludePatterns (doublestar glob syntax,
// matched against the path relative to root) and tagging every file with
// its nearest enclosing monorepo module root. Results are sorted by path
// for deterministic change-set diffing.
func Discover(root string, excludePatterns []string) ([]DiscoveredFile, error) {
	moduleRootByDir := map[string]string{filepath.Clean(root): filepath.Clean(root)}
	var out []DiscoveredFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // best-effort walk, matching the teacher's scanner
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		normalized := filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && matchesAny(excludePatterns, normalized+"/") {
				return filepath.SkipDir
			}
			moduleRootByDir[filepath.Clean(path)] = resolveModuleRoot(path, moduleRootByDir)
			return nil
		}

		if matchesAny(excludePatterns, normalized) {
			return nil
		}
		lang := types.LanguageForExtension(filepath.Ext(path))
		if lang == types.LangUnknown {
			return nil
		}
		out = append(out, DiscoveredFile{
			Path:       path,
			Language:   lang,
			ModuleRoot: moduleRootByDir[filepath.Clean(filepath.Dir(path))],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// resolveModuleRoot decides dir's module root: dir itself if it carries a
// monorepo marker file, otherwise its parent's (already-resolved) root.
func resolveModuleRoot(dir string, resolved map[string]string) string {
	for _, marker := range monorepoMarkers {
		if fileExists(filepath.Join(dir, marker)) {
			return filepath.Clean(dir)
		}
	}
	parent := filepath.Dir(dir)
	if root, ok := resolved[filepath.Clean(parent)]; ok {
		return root
	}
	return filepath.Clean(dir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
		// Also try the pattern against the bare trailing segment, so a
		// pattern like "**/.git/**" matches a top-level ".git/" too.
		if ok, err := doublestar.Match(strings.TrimPrefix(p, "**/"), path); err == nil && ok {
			return true
		}
	}
	return false
}
