package ircache

import "github.com/standardbeagle/codeir/internal/types"

// ComputeKey derives §4.12's cache_key = H(file_path, content_hash,
// schema_version, engine_version). Any of the four inputs changing
// invalidates the entry — a bare rename is deliberately a miss, since
// file_path is part of the key (§4.12 "Policy").
func ComputeKey(filePath string, contentHash types.ContentHash, schemaVersion, engineVersion string) types.ContentHash {
	return types.HashFields([]byte(filePath), contentHash[:], []byte(schemaVersion), []byte(engineVersion))
}
