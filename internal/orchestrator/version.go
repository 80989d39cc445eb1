package orchestrator

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	cerrors "github.com/standardbeagle/codeir/internal/errors"
	"github.com/standardbeagle/codeir/internal/types"
)

// VersionStatus is IndexVersion.Status (§6).
type VersionStatus string

const (
	StatusInProgress VersionStatus = "IN_PROGRESS"
	StatusCompleted  VersionStatus = "COMPLETED"
	StatusFailed     VersionStatus = "FAILED"
)

// IndexVersion is the persisted version record (§4.11 step 4, §6
// "<state_dir>/versions/<version_id>.json"). encoding/json is used
// deliberately here — the spec mandates this exact on-disk JSON shape and
// no third-party JSON library in the corpus changes that contract.
type IndexVersion struct {
	VersionID  string        `json:"version_id"`
	RepoID     string        `json:"repo_id"`
	GitCommit  string        `json:"git_commit"`
	FileCount  int           `json:"file_count"`
	CreatedAt  time.Time     `json:"created_at"`
	Status     VersionStatus `json:"status"`
	DurationMs int64         `json:"duration_ms"`
}

// VersionStore persists IndexVersion records and their per-file content-
// hash manifests under stateDir, following §6's layout plus one addition:
// a sibling "<version_id>.files.json" manifest, since ComputeChangeSet
// needs a per-file hash table the spec's IndexVersion record itself
// doesn't carry (it only carries an aggregate file_count).
type VersionStore struct {
	StateDir string
}

func NewVersionStore(stateDir string) *VersionStore {
	return &VersionStore{StateDir: stateDir}
}

func (vs *VersionStore) versionsDir() string { return filepath.Join(vs.StateDir, "versions") }

func (vs *VersionStore) recordPath(versionID string) string {
	return filepath.Join(vs.versionsDir(), versionID+".json")
}

func (vs *VersionStore) manifestPath(versionID string) string {
	return filepath.Join(vs.versionsDir(), versionID+".files.json")
}

// Save atomically writes v's record (and its file manifest, if non-nil)
// via a temp-file-then-rename, the same write-rename pattern
// internal/ircache's DiskCache uses (§4.12 "written atomically ... and
// renamed into place") applied here to version promotion (§4.11 step 4
// "atomically promote it").
func (vs *VersionStore) Save(v IndexVersion, manifest map[string]types.ContentHash) error {
	if err := os.MkdirAll(vs.versionsDir(), 0o755); err != nil {
		return cerrors.NewIOCacheError("mkdir", vs.versionsDir(), true, err)
	}
	if err := writeJSONAtomic(vs.recordPath(v.VersionID), v); err != nil {
		return err
	}
	if manifest != nil {
		encoded := make(map[string]string, len(manifest))
		for path, hash := range manifest {
			encoded[path] = hash.String()
		}
		if err := writeJSONAtomic(vs.manifestPath(v.VersionID), encoded); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a version record back.
func (vs *VersionStore) Load(versionID string) (IndexVersion, error) {
	var v IndexVersion
	data, err := os.ReadFile(vs.recordPath(versionID))
	if err != nil {
		return v, cerrors.NewIOCacheError("read", vs.recordPath(versionID), false, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, cerrors.NewIOCacheError("decode", vs.recordPath(versionID), false, err)
	}
	return v, nil
}

// LoadManifest reads versionID's per-file content-hash manifest. A
// missing manifest (e.g. the very first build) returns an empty map, not
// an error — ComputeChangeSet treats that as "everything is Added".
func (vs *VersionStore) LoadManifest(versionID string) (map[string]types.ContentHash, error) {
	data, err := os.ReadFile(vs.manifestPath(versionID))
	if os.IsNotExist(err) {
		return map[string]types.ContentHash{}, nil
	}
	if err != nil {
		return nil, cerrors.NewIOCacheError("read", vs.manifestPath(versionID), false, err)
	}
	var encoded map[string]string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, cerrors.NewIOCacheError("decode", vs.manifestPath(versionID), false, err)
	}
	out := make(map[string]types.ContentHash, len(encoded))
	for path, hexHash := range encoded {
		var h types.ContentHash
		decoded, err := hex.DecodeString(hexHash)
		if err == nil && len(decoded) == len(h) {
			copy(h[:], decoded)
		}
		out[path] = h
	}
	return out, nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return cerrors.NewIOCacheError("encode", path, true, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "version-*.tmp")
	if err != nil {
		return cerrors.NewIOCacheError("create-temp", path, true, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return cerrors.NewIOCacheError("write", path, true, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return cerrors.NewIOCacheError("close", path, true, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return cerrors.NewIOCacheError("rename", path, true, err)
	}
	return nil
}
