package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLoadDefaultsWhenNoConfigFilePresent(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), cfg.Project.Name)
	assert.NotZero(t, cfg.Build.MaxImpactReindexFiles)
	assert.Greater(t, cfg.Build.WorkerCount, 0)
}

func TestLoadParsesKDLFields(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ConfigFileName, `
project {
    name "myrepo"
}
build {
    engine_version "engine-42"
    schema_version "schema-7"
    max_impact_reindex_files 500
    worker_count 3
    watch_debounce_ms 750
}
exclude "**/.git/**" "**/custom-out/**"
`)

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "myrepo", cfg.Project.Name)
	assert.Equal(t, "myrepo", cfg.Build.RepoID)
	assert.Equal(t, "engine-42", cfg.Build.EngineVersion)
	assert.Equal(t, "schema-7", cfg.Build.SchemaVersion)
	assert.Equal(t, 500, cfg.Build.MaxImpactReindexFiles)
	assert.Equal(t, 3, cfg.Build.WorkerCount)
	assert.Contains(t, cfg.Build.ExcludePatterns, "**/custom-out/**")
}

func TestLoadEnrichesExcludesWithBuildArtifacts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Cargo.toml", `
[profile.release]
target-dir = "custom_target"
`)

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Contains(t, cfg.Build.ExcludePatterns, "**/custom_target/**")
}

func TestLoadRejectsMalformedKDL(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ConfigFileName, "project {\n    name \"unterminated\n}")

	_, err := Load(root)
	require.Error(t, err)
}

func TestValidateRejectsNonPositiveMaxImpactReindexFiles(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Build.MaxImpactReindexFiles = 0
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateFillsWorkerCountWhenZero(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Build.WorkerCount = 0
	require.NoError(t, Validate(cfg))
	assert.Greater(t, cfg.Build.WorkerCount, 0)
}

func TestValidateRejectsEmptyProjectRoot(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Project.Root = ""
	err := Validate(cfg)
	require.Error(t, err)
}
