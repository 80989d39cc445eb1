package ircache

import (
	"os"
	"path/filepath"

	cerrors "github.com/standardbeagle/codeir/internal/errors"
	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

// DiskCache is the per-key file backend (§4.12 "Backends"): one file per
// cache_key under Dir, written atomically via a temp-file-then-rename so
// multiple processes racing the same key produce last-writer-wins with no
// torn writes (grounded on the teacher's MCP manifest persistence in
// context_manifest_tool.go, which does the same tmp-write/os.Rename dance
// for a different artifact).
type DiskCache struct {
	Dir           string
	SchemaVersion string
	EngineVersion string
	Compress      bool
}

func NewDiskCache(dir, schemaVersion, engineVersion string, compress bool) *DiskCache {
	return &DiskCache{Dir: dir, SchemaVersion: schemaVersion, EngineVersion: engineVersion, Compress: compress}
}

func (c *DiskCache) path(key types.ContentHash) string {
	return filepath.Join(c.Dir, key.String()+".bin")
}

// Get reads and decodes the entry for key. A missing file, corrupt
// header, checksum mismatch, or version mismatch are all reported as a
// plain miss (ok=false, err=nil) per §4.12; only an unexpected I/O error
// (permission denied, disk fault) is returned as an *errors.IOCacheError.
func (c *DiskCache) Get(key types.ContentHash) (*ir.IRDocument, bool, error) {
	buf, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, cerrors.NewIOCacheError("read", c.path(key), false, err)
	}

	doc, err := decodeEntry(buf, c.SchemaVersion, c.EngineVersion)
	if err != nil {
		// Corrupt/partial/mismatched entries are misses, not errors.
		return nil, false, nil
	}
	return doc, true, nil
}

// Put writes doc under key, atomically. The write-rename failing itself
// (not the subsequent read of a mid-write file, which can't happen) is
// the one disk-cache condition §4.12 treats as fatal.
func (c *DiskCache) Put(key types.ContentHash, doc *ir.IRDocument) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return cerrors.NewIOCacheError("write", c.Dir, true, err)
	}

	entry, err := encodeEntry(doc, c.SchemaVersion, c.EngineVersion, c.Compress)
	if err != nil {
		return cerrors.NewIOCacheError("write", c.path(key), true, err)
	}

	tmp, err := os.CreateTemp(c.Dir, ".tmp-*.bin")
	if err != nil {
		return cerrors.NewIOCacheError("write", c.Dir, true, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(entry); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return cerrors.NewIOCacheError("write", tmpPath, true, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return cerrors.NewIOCacheError("write", tmpPath, true, err)
	}

	if err := os.Rename(tmpPath, c.path(key)); err != nil {
		os.Remove(tmpPath)
		return cerrors.NewIOCacheError("write", c.path(key), true, err)
	}
	return nil
}
