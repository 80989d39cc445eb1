package ircache

import (
	"github.com/standardbeagle/codeir/internal/ir"
	"github.com/standardbeagle/codeir/internal/types"
)

// Cache is the orchestrator-facing front door: memory-first, disk-backed
// (§4.12). Get promotes a disk hit into memory; Put writes through both
// tiers so the next process (or the next memory-evicted lookup) still
// hits disk.
type Cache struct {
	Memory *MemoryCache
	Disk   *DiskCache
}

func New(memory *MemoryCache, disk *DiskCache) *Cache {
	return &Cache{Memory: memory, Disk: disk}
}

// Get resolves key against the memory tier first, falling back to disk.
func (c *Cache) Get(key types.ContentHash) (*ir.IRDocument, bool, error) {
	if c.Memory != nil {
		if doc, ok := c.Memory.Get(key); ok {
			return doc, true, nil
		}
	}
	if c.Disk == nil {
		return nil, false, nil
	}
	doc, ok, err := c.Disk.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if c.Memory != nil {
		c.Memory.Put(key, doc)
	}
	return doc, true, nil
}

// Put writes doc to both tiers.
func (c *Cache) Put(key types.ContentHash, doc *ir.IRDocument) error {
	if c.Memory != nil {
		c.Memory.Put(key, doc)
	}
	if c.Disk != nil {
		return c.Disk.Put(key, doc)
	}
	return nil
}
