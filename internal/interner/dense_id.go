package interner

import (
	"fmt"

	"github.com/standardbeagle/codeir/internal/types"
)

// EncodeDense packs a FileID and a local per-file symbol counter into a
// short base-63 string (A-Za-z0-9_), the same density trick the teacher
// codebase uses for compact secondary keys. The canonical NodeId stays the
// human-readable string form §3 mandates; EncodeDense is only used where a
// short opaque key is useful (graph-store secondary indexes, L1-rrf cache
// fingerprints).
func EncodeDense(fileID types.FileID, localID uint32) string {
	combined := uint64(fileID) | (uint64(localID) << 32)
	if combined == 0 {
		return ""
	}
	const base = 63
	var buf []byte
	for combined > 0 {
		buf = append(buf, encodeChar(combined%base))
		combined /= base
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// DecodeDense is the inverse of EncodeDense.
func DecodeDense(encoded string) (types.FileID, uint32, error) {
	if encoded == "" {
		return 0, 0, fmt.Errorf("interner: empty dense id")
	}
	const base = 63
	var combined uint64
	for i := 0; i < len(encoded); i++ {
		v, err := decodeChar(encoded[i])
		if err != nil {
			return 0, 0, err
		}
		combined = combined*base + v
	}
	fileID := types.FileID(combined & 0xFFFFFFFF)
	localID := uint32((combined >> 32) & 0xFFFFFFFF)
	return fileID, localID, nil
}

func encodeChar(val uint64) byte {
	switch {
	case val < 26:
		return byte('A' + val)
	case val < 52:
		return byte('a' + (val - 26))
	case val < 62:
		return byte('0' + (val - 52))
	case val == 62:
		return '_'
	default:
		panic("interner: value out of base-63 range")
	}
}

func decodeChar(c byte) (uint64, error) {
	switch {
	case c >= 'A' && c <= 'Z':
		return uint64(c - 'A'), nil
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 26, nil
	case c >= '0' && c <= '9':
		return uint64(c-'0') + 52, nil
	case c == '_':
		return 62, nil
	default:
		return 0, fmt.Errorf("interner: invalid dense-id character %q", c)
	}
}
