// Package config loads project configuration the way standardbeagle/lci
// does: a human-edited KDL file (`.codeir.kdl`) that seeds an
// orchestrator.Config, enriched with exclude patterns detected from
// per-language build manifests (Cargo.toml, pyproject.toml, package.json).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	cerrors "github.com/standardbeagle/codeir/internal/errors"
	"github.com/standardbeagle/codeir/internal/orchestrator"
)

// ConfigFileName is the project-local KDL config file, analogous to the
// teacher's ".lci.kdl".
const ConfigFileName = ".codeir.kdl"

// Project holds the human-facing fields a .codeir.kdl names directly;
// everything else lives on orchestrator.Config, which Default and
// applyKDL populate.
type Project struct {
	Root string
	Name string
}

// Config is the full loaded project configuration: the orchestrator
// parameters plus the human-facing project identity the KDL file names.
type Config struct {
	Project Project
	Build   orchestrator.Config
}

// Load reads `.codeir.kdl` from root (if present) and returns a fully
// populated Config, falling back to defaults when no file exists. Exclude
// patterns are enriched with any build-output directories detected from
// manifests under root (§SUPPLEMENTED FEATURES' monorepo-aware
// discovery), mirroring the teacher's EnrichExclusionsWithBuildArtifacts.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	cfg := Default(absRoot)

	kdlPath := filepath.Join(absRoot, ConfigFileName)
	if data, readErr := os.ReadFile(kdlPath); readErr == nil {
		if parseErr := applyKDL(cfg, string(data)); parseErr != nil {
			return nil, cerrors.NewValidationError("config_file", fmt.Errorf("%s: %w", kdlPath, parseErr))
		}
	} else if !os.IsNotExist(readErr) {
		return nil, cerrors.NewValidationError("config_file", fmt.Errorf("%s: %w", kdlPath, readErr))
	}

	detected := DetectBuildArtifactExcludes(absRoot)
	cfg.Build.ExcludePatterns = dedupe(append(cfg.Build.ExcludePatterns, detected...))

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration for a project rooted at
// root, before any .codeir.kdl or manifest detection is applied.
func Default(root string) *Config {
	build := orchestrator.NewConfig("")
	if root != "" {
		build.RepoID = filepath.Base(filepath.Clean(root))
	}
	return &Config{
		Project: Project{Root: root, Name: build.RepoID},
		Build:   build,
	}
}

// Validate checks required fields and fills in system-dependent
// defaults (worker count), mirroring the teacher's Validator's
// ValidateAndSetDefaults split between hard validation and smart
// defaulting.
func Validate(cfg *Config) error {
	if cfg.Project.Root == "" {
		return cerrors.NewValidationError("project_root", fmt.Errorf("project root cannot be empty"))
	}
	if cfg.Build.MaxImpactReindexFiles <= 0 {
		return cerrors.NewValidationError("max_impact_reindex_files",
			fmt.Errorf("must be positive, got %d", cfg.Build.MaxImpactReindexFiles))
	}
	if cfg.Build.WorkerCount == 0 {
		cfg.Build.WorkerCount = max(1, runtime.NumCPU()-1)
	}
	if cfg.Build.WorkerCount < 0 {
		return cerrors.NewValidationError("worker_count", fmt.Errorf("cannot be negative, got %d", cfg.Build.WorkerCount))
	}
	if cfg.Build.WatchDebounce <= 0 {
		cfg.Build.WatchDebounce = 300 * time.Millisecond
	}
	return nil
}

func msDuration(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

func orchestratorDefaultExcludes() []string {
	return append([]string(nil), orchestrator.DefaultExcludes...)
}

func dedupe(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
