// Package pathutil provides utilities for converting between absolute and
// relative paths.
//
// Architecture Pattern:
// The IR pipeline uses absolute paths internally for consistency and to
// avoid ambiguity across layers (NodeId embeds file_path verbatim). Output
// boundaries (CLI, serialized IndexVersion records, retrieval hit metadata)
// use relative paths for readability and portability. This package is the
// conversion layer between the two representations.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or the path is already
// relative.
//
// Examples:
//   - ToRelative("/repo/src/main.go", "/repo") -> "src/main.go"
//   - ToRelative("/other/file.go", "/repo") -> "/other/file.go" (outside root)
//   - ToRelative("src/main.go", "/repo") -> "src/main.go" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}
	return relPath
}

// ToAbsolute converts a relative path to absolute based on a root directory.
// Paths already absolute are cleaned and returned unchanged.
func ToAbsolute(relOrAbsPath, rootDir string) string {
	if relOrAbsPath == "" {
		return relOrAbsPath
	}
	if filepath.IsAbs(relOrAbsPath) {
		return filepath.Clean(relOrAbsPath)
	}
	return filepath.Clean(filepath.Join(rootDir, relOrAbsPath))
}

// ExternalSentinel is the synthetic file path used for nodes that reference
// symbols outside the indexed repository (see types.ExternalFile).
const ExternalSentinel = "<external>"

// IsExternal reports whether a file path is the external-reference sentinel.
func IsExternal(filePath string) bool {
	return filePath == ExternalSentinel
}
