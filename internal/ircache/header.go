// Package ircache implements the content-addressed per-file IR cache
// (§4.12): a fixed 26-byte header plus msgpack payload, memory (LRU) and
// disk (write-rename) backends, and the cache_key derivation that treats a
// file rename as a deliberate miss.
package ircache

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// headerSize is §4.12's fixed header: magic(4) + version(2) +
// schema_version(8) + engine_version(8) + checksum(4) = 26 bytes.
const headerSize = 26

var magicBytes = [4]byte{'C', 'I', 'R', '1'}

// compressedFlag is folded into the version field's high bit rather than
// growing the header past 26 bytes.
const compressedFlag = uint16(0x8000)

const formatVersion = uint16(1)

type header struct {
	version       uint16
	schemaVersion uint64
	engineVersion uint64
	checksum      uint32
}

func (h header) compressed() bool { return h.version&compressedFlag != 0 }

func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], magicBytes[:])
	binary.BigEndian.PutUint16(buf[4:6], h.version)
	binary.BigEndian.PutUint64(buf[6:14], h.schemaVersion)
	binary.BigEndian.PutUint64(buf[14:22], h.engineVersion)
	binary.BigEndian.PutUint32(buf[22:26], h.checksum)
	return buf
}

// decodeHeader parses buf's leading headerSize bytes. Any mismatch (short
// read, bad magic) is reported as an error; callers treat it as a cache
// miss rather than a fatal condition, per §4.12 "corrupt/partial/mismatched
// headers are treated as misses".
func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, fmt.Errorf("ircache: short header (%d bytes, want %d)", len(buf), headerSize)
	}
	if buf[0] != magicBytes[0] || buf[1] != magicBytes[1] || buf[2] != magicBytes[2] || buf[3] != magicBytes[3] {
		return header{}, fmt.Errorf("ircache: bad magic")
	}
	return header{
		version:       binary.BigEndian.Uint16(buf[4:6]),
		schemaVersion: binary.BigEndian.Uint64(buf[6:14]),
		engineVersion: binary.BigEndian.Uint64(buf[14:22]),
		checksum:      binary.BigEndian.Uint32(buf[22:26]),
	}, nil
}

// versionTag folds a version string into the header's fixed 8-byte field.
func versionTag(s string) uint64 { return xxhash.Sum64String(s) }

func payloadChecksum(b []byte) uint32 { return uint32(xxhash.Sum64(b)) }
