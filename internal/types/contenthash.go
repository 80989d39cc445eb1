package types

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// ContentHash is a 128-bit content fingerprint: two 64-bit xxhash/v2
// (XXH64) sums, one over the input and one over the input with
// strongSeed's bytes appended, concatenated. StrongHash provides a
// SHA-256 digest for collision resistance; no code in the repository
// calls it, so the IR cache key and taint findings carry only
// ContentHash-based values. Stdlib crypto/sha256 is used deliberately here: no
// third-party SHA-256 implementation appears anywhere in the corpus this
// repo was grounded on, so there is no ecosystem convention to follow
// instead (see DESIGN.md).
type ContentHash [16]byte

const strongSeed = 0x9e3779b97f4a7c15

// HashContent computes the fast 128-bit fingerprint of data.
func HashContent(data []byte) ContentHash {
	var h ContentHash
	lo := xxhash.Sum64(data)
	hi := xxhash.Sum64(append(append([]byte(nil), data...), seedBytes(strongSeed)...))
	putUint64(h[0:8], lo)
	putUint64(h[8:16], hi)
	return h
}

// HashFields folds several byte slices into one ContentHash, used for
// cache keys that mix file path, content hash, schema version, and engine
// version (§4.12).
func HashFields(fields ...[]byte) ContentHash {
	var buf []byte
	for _, f := range fields {
		buf = append(buf, f...)
		buf = append(buf, 0) // field separator, prevents ("ab","c") == ("a","bc")
	}
	return HashContent(buf)
}

func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the unset value.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// StrongHash computes a collision-resistant SHA-256 digest of data, used
// where §3 requires "SHA-256 when collision-resistance matters".
func StrongHash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
}

func seedBytes(seed uint64) []byte {
	b := make([]byte, 8)
	putUint64(b, seed)
	return b
}
