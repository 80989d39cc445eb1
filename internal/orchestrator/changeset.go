package orchestrator

import "github.com/standardbeagle/codeir/internal/types"

// ChangeSet is the incremental build protocol's step 1 output (§4.11):
// new/modified/deleted files, found by comparing current content hashes
// against the last successful version's manifest.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
	Unchanged []string
}

// Empty reports whether nothing changed — a no-op incremental build.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Changed returns the union of Added and Modified: the files that need
// layer recomputation (as opposed to a cache pull).
func (c ChangeSet) Changed() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	return out
}

// ComputeChangeSet compares current file content hashes against the
// previous version's manifest (§4.11 step 1). A nil/empty previous
// manifest means every current file is Added (full initial build).
func ComputeChangeSet(current, previous map[string]types.ContentHash) ChangeSet {
	var cs ChangeSet
	for path, hash := range current {
		prevHash, existed := previous[path]
		switch {
		case !existed:
			cs.Added = append(cs.Added, path)
		case prevHash != hash:
			cs.Modified = append(cs.Modified, path)
		default:
			cs.Unchanged = append(cs.Unchanged, path)
		}
	}
	for path := range previous {
		if _, stillExists := current[path]; !stillExists {
			cs.Deleted = append(cs.Deleted, path)
		}
	}
	return cs
}
