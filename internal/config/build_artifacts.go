package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DetectBuildArtifactExcludes scans root for per-language build manifests
// and returns extra exclude glob patterns for any custom output directory
// they name, mirroring the teacher's BuildArtifactDetector: package.json/
// tsconfig.json via encoding/json, Cargo.toml/pyproject.toml via
// go-toml/v2. The default dist/ and build/ output directories are
// already covered by DefaultExcludes (Rust's default target/ is not in
// that list); this only adds the non-default ones a manifest explicitly
// configures.
func DetectBuildArtifactExcludes(root string) []string {
	var patterns []string
	patterns = append(patterns, detectJSOutputs(root)...)
	patterns = append(patterns, detectRustOutputs(root)...)
	patterns = append(patterns, detectPythonOutputs(root)...)
	return patterns
}

func detectJSOutputs(root string) []string {
	var patterns []string

	if data, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil {
		var pkg map[string]any
		if json.Unmarshal(data, &pkg) == nil {
			if build, ok := pkg["build"].(map[string]any); ok {
				if outDir, ok := build["outDir"].(string); ok && outDir != "" {
					patterns = append(patterns, "**/"+outDir+"/**")
				}
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(root, "tsconfig.json")); err == nil {
		var tsconfig map[string]any
		if json.Unmarshal(data, &tsconfig) == nil {
			if compilerOptions, ok := tsconfig["compilerOptions"].(map[string]any); ok {
				if outDir, ok := compilerOptions["outDir"].(string); ok && outDir != "" {
					patterns = append(patterns, "**/"+strings.TrimPrefix(outDir, "./")+"/**")
				}
			}
		}
	}

	return patterns
}

func detectRustOutputs(root string) []string {
	var patterns []string
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return patterns
	}
	var cargo map[string]any
	if toml.Unmarshal(data, &cargo) != nil {
		return patterns
	}
	if profile, ok := cargo["profile"].(map[string]any); ok {
		if release, ok := profile["release"].(map[string]any); ok {
			if targetDir, ok := release["target-dir"].(string); ok && targetDir != "" {
				patterns = append(patterns, "**/"+targetDir+"/**")
			}
		}
	}
	return patterns
}

func detectPythonOutputs(root string) []string {
	var patterns []string
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return patterns
	}
	var pyproject map[string]any
	if toml.Unmarshal(data, &pyproject) != nil {
		return patterns
	}
	if tool, ok := pyproject["tool"].(map[string]any); ok {
		if poetry, ok := tool["poetry"].(map[string]any); ok {
			if build, ok := poetry["build"].(map[string]any); ok {
				if targetDir, ok := build["target-dir"].(string); ok && targetDir != "" {
					patterns = append(patterns, "**/"+targetDir+"/**")
				}
			}
		}
	}
	return patterns
}
