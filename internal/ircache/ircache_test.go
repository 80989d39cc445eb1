package ircache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

func sampleDoc(filePath string) *ir.IRDocument {
	doc := ir.New(filePath, types.LangPython, "test-engine")
	doc.AddNode(ir.Node{
		ID: types.NodeID("FILE:repo1:" + filePath + ":" + filePath), Kind: types.NodeKindFile,
		FQN: filePath, FilePath: filePath, Language: types.LangPython,
		Span: types.Span{StartLine: 1, StartCol: 0, EndLine: 10, EndCol: 0},
	})
	doc.FileContentHash = types.HashContent([]byte("package body"))
	return doc
}

func TestComputeKeyChangesWithEachInput(t *testing.T) {
	base := types.HashContent([]byte("hello"))
	k1 := ComputeKey("a.py", base, "v1", "e1")
	k2 := ComputeKey("b.py", base, "v1", "e1") // rename -> different key
	k3 := ComputeKey("a.py", types.HashContent([]byte("world")), "v1", "e1")
	k4 := ComputeKey("a.py", base, "v2", "e1")
	k5 := ComputeKey("a.py", base, "v1", "e2")

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
	assert.NotEqual(t, k1, k5)
	assert.Equal(t, k1, ComputeKey("a.py", base, "v1", "e1"))
}

func TestEntryRoundTripUncompressed(t *testing.T) {
	doc := sampleDoc("a.py")
	buf, err := encodeEntry(doc, "v1", "e1", false)
	require.NoError(t, err)
	assert.Len(t, buf[:headerSize], headerSize)

	got, err := decodeEntry(buf, "v1", "e1")
	require.NoError(t, err)
	assert.Equal(t, doc.FilePath, got.FilePath)
	assert.Equal(t, doc.FileContentHash, got.FileContentHash)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, doc.Nodes[0].ID, got.Nodes[0].ID)
}

func TestEntryRoundTripCompressed(t *testing.T) {
	doc := sampleDoc("b.py")
	buf, err := encodeEntry(doc, "v1", "e1", true)
	require.NoError(t, err)

	h, err := decodeHeader(buf)
	require.NoError(t, err)
	assert.True(t, h.compressed())

	got, err := decodeEntry(buf, "v1", "e1")
	require.NoError(t, err)
	assert.Equal(t, doc.FilePath, got.FilePath)
}

func TestDecodeEntryRejectsVersionMismatch(t *testing.T) {
	doc := sampleDoc("c.py")
	buf, err := encodeEntry(doc, "v1", "e1", false)
	require.NoError(t, err)

	_, err = decodeEntry(buf, "v2", "e1")
	assert.Error(t, err)
	_, err = decodeEntry(buf, "v1", "e2")
	assert.Error(t, err)
}

func TestDecodeEntryRejectsCorruptHeader(t *testing.T) {
	_, err := decodeEntry([]byte("too short"), "v1", "e1")
	assert.Error(t, err)

	doc := sampleDoc("d.py")
	buf, err := encodeEntry(doc, "v1", "e1", false)
	require.NoError(t, err)
	buf[0] = 'X' // corrupt magic
	_, err = decodeEntry(buf, "v1", "e1")
	assert.Error(t, err)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(2)
	k1 := types.HashContent([]byte("k1"))
	k2 := types.HashContent([]byte("k2"))
	k3 := types.HashContent([]byte("k3"))

	c.Put(k1, sampleDoc("a.py"))
	c.Put(k2, sampleDoc("b.py"))
	_, _ = c.Get(k1) // k1 now most-recently-used, k2 is the LRU victim
	c.Put(k3, sampleDoc("c.py"))

	_, ok := c.Get(k2)
	assert.False(t, ok, "k2 should have been evicted")
	_, ok = c.Get(k1)
	assert.True(t, ok)
	_, ok = c.Get(k3)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestDiskCacheWriteThenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dc := NewDiskCache(dir, "v1", "e1", false)
	doc := sampleDoc("e.py")
	key := types.HashContent([]byte("key-e"))

	require.NoError(t, dc.Put(key, doc))
	assert.FileExists(t, filepath.Join(dir, key.String()+".bin"))

	got, ok, err := dc.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc.FilePath, got.FilePath)
}

func TestDiskCacheMissForAbsentKey(t *testing.T) {
	dc := NewDiskCache(t.TempDir(), "v1", "e1", false)
	_, ok, err := dc.Get(types.HashContent([]byte("absent")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiskCacheTreatsCorruptFileAsMiss(t *testing.T) {
	dir := t.TempDir()
	dc := NewDiskCache(dir, "v1", "e1", false)
	key := types.HashContent([]byte("key-f"))
	require.NoError(t, dc.Put(key, sampleDoc("f.py")))

	path := filepath.Join(dir, key.String()+".bin")
	require.NoError(t, os.WriteFile(path, []byte("not a valid entry"), 0o644))

	_, ok, err := dc.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheGetPromotesDiskHitToMemory(t *testing.T) {
	dir := t.TempDir()
	cache := New(NewMemoryCache(10), NewDiskCache(dir, "v1", "e1", false))
	key := types.HashContent([]byte("key-g"))
	doc := sampleDoc("g.py")

	require.NoError(t, cache.Put(key, doc))

	// Simulate a fresh process: a new Cache sharing the same disk dir but
	// an empty memory tier should still find the entry, and promote it.
	fresh := New(NewMemoryCache(10), NewDiskCache(dir, "v1", "e1", false))
	got, ok, err := fresh.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc.FilePath, got.FilePath)

	_, okMem := fresh.Memory.Get(key)
	assert.True(t, okMem, "disk hit should be promoted into the memory tier")
}
