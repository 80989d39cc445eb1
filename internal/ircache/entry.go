package ircache

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/standardbeagle/codeir/internal/ir"
)

// encodeEntry serializes doc to msgpack (§4.12 "followed by a msgpack
// payload"), optionally zstd-compressing it, and prefixes the fixed
// 26-byte header. doc's unexported index fields (byID/byKind/byFile,
// idxOnce) are never encoded; Decode callers must call doc.Freeze() to
// rebuild them before querying.
func encodeEntry(doc *ir.IRDocument, schemaVersion, engineVersion string, compress bool) ([]byte, error) {
	payload, err := msgpack.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("ircache: marshal payload: %w", err)
	}

	v := formatVersion
	if compress {
		payload, err = compressPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("ircache: compress payload: %w", err)
		}
		v |= compressedFlag
	}

	h := header{
		version:       v,
		schemaVersion: versionTag(schemaVersion),
		engineVersion: versionTag(engineVersion),
		checksum:      payloadChecksum(payload),
	}

	out := make([]byte, 0, headerSize+len(payload))
	out = append(out, encodeHeader(h)...)
	out = append(out, payload...)
	return out, nil
}

// decodeEntry parses buf and returns the decoded document. It returns an
// error (treated by callers as a plain miss, §4.12) when the magic is
// wrong, the checksum doesn't match, or schemaVersion/engineVersion don't
// match what the caller expects — the latter is the "changing
// schema_version or engine_version invalidates" half of the key, enforced
// a second time at read time in case a key collision ever let a stale
// entry through.
func decodeEntry(buf []byte, schemaVersion, engineVersion string) (*ir.IRDocument, error) {
	h, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}
	payload := buf[headerSize:]
	if payloadChecksum(payload) != h.checksum {
		return nil, fmt.Errorf("ircache: checksum mismatch")
	}
	if h.schemaVersion != versionTag(schemaVersion) {
		return nil, fmt.Errorf("ircache: schema_version mismatch")
	}
	if h.engineVersion != versionTag(engineVersion) {
		return nil, fmt.Errorf("ircache: engine_version mismatch")
	}

	if h.compressed() {
		payload, err = decompressPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("ircache: decompress payload: %w", err)
		}
	}

	doc := &ir.IRDocument{}
	if err := msgpack.Unmarshal(payload, doc); err != nil {
		return nil, fmt.Errorf("ircache: unmarshal payload: %w", err)
	}
	return doc, nil
}

func compressPayload(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressPayload(b []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
