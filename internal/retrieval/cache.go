package retrieval

import (
	"sync"
	"sync/atomic"
	"time"
)

// ttlEntry wraps a cached value with its write time, stored atomically so
// Get can check expiry without taking a lock — the same shape as the
// teacher's CachedMetrics (standardbeagle-lci/internal/cache.MetricsCache).
type ttlEntry struct {
	value    any
	cachedAt int64 // UnixNano, read/written via atomic
}

// ttlTier is one cache tier: a sync.Map plus atomic hit/miss counters and
// a TTL, mirroring MetricsCache's per-tier shape (contentCache/
// symbolCache/parserCache each being exactly this). internal/retrieval
// composes three of these into ThreeTierCache instead of hardcoding three
// named sync.Maps, since all three tiers share identical Get/Put/expiry
// logic here (§4.10's L1-query/L1-intent/L1-rrf differ only in what they
// key and store).
type ttlTier struct {
	m       sync.Map
	ttl     int64 // nanoseconds
	hits    int64
	misses  int64
}

func newTTLTier(ttl time.Duration) *ttlTier {
	return &ttlTier{ttl: ttl.Nanoseconds()}
}

func (t *ttlTier) get(key string) (any, bool) {
	v, ok := t.m.Load(key)
	if !ok {
		atomic.AddInt64(&t.misses, 1)
		return nil, false
	}
	e := v.(*ttlEntry)
	if t.ttl > 0 && time.Now().UnixNano()-atomic.LoadInt64(&e.cachedAt) > t.ttl {
		t.m.Delete(key)
		atomic.AddInt64(&t.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&t.hits, 1)
	return e.value, true
}

func (t *ttlTier) put(key string, value any) {
	t.m.Store(key, &ttlEntry{value: value, cachedAt: time.Now().UnixNano()})
}

func (t *ttlTier) stats() (hits, misses int64) {
	return atomic.LoadInt64(&t.hits), atomic.LoadInt64(&t.misses)
}

// ThreeTierCache implements §4.10's "Three-tier cache": L1-query caches
// the fully fused result list per (repo_id, snapshot_id, query); L1-intent
// caches the classified intent vector for the same key, so a cache hit on
// the fused list still lets an L1-query miss skip re-classification;
// L1-rrf stores each search's final fused per-chunk scores per (repo_id,
// hits_fingerprint); Retriever.Search writes this tier but never reads it,
// so every L1-query miss recomputes the fusion. Invalidation is
// epoch-based (§4.10): a new snapshot_id produces disjoint keys, so there
// is no explicit purge path.
type ThreeTierCache struct {
	query  *ttlTier
	intent *ttlTier
	rrf    *ttlTier
}

// NewThreeTierCache builds a cache with ttl applied uniformly to all
// three tiers; ttl<=0 disables expiry (entries live until evicted by a
// fresh snapshot_id key).
func NewThreeTierCache(ttl time.Duration) *ThreeTierCache {
	return &ThreeTierCache{
		query:  newTTLTier(ttl),
		intent: newTTLTier(ttl),
		rrf:    newTTLTier(ttl),
	}
}

func (c *ThreeTierCache) GetQuery(key string) ([]FusedHit, bool) {
	v, ok := c.query.get(key)
	if !ok {
		return nil, false
	}
	return v.([]FusedHit), true
}

func (c *ThreeTierCache) PutQuery(key string, hits []FusedHit) {
	c.query.put(key, hits)
}

func (c *ThreeTierCache) GetIntent(key string) (IntentProbability, bool) {
	v, ok := c.intent.get(key)
	if !ok {
		return IntentProbability{}, false
	}
	return v.(IntentProbability), true
}

func (c *ThreeTierCache) PutIntent(key string, p IntentProbability) {
	c.intent.put(key, p)
}

func (c *ThreeTierCache) GetRRF(key string) (map[string]float64, bool) {
	v, ok := c.rrf.get(key)
	if !ok {
		return nil, false
	}
	return v.(map[string]float64), true
}

func (c *ThreeTierCache) PutRRF(key string, scores map[string]float64) {
	c.rrf.put(key, scores)
}

// Stats reports hit/miss counts per tier, in (query, intent, rrf) order.
type CacheStats struct {
	QueryHits, QueryMisses   int64
	IntentHits, IntentMisses int64
	RRFHits, RRFMisses       int64
}

func (c *ThreeTierCache) Stats() CacheStats {
	var s CacheStats
	s.QueryHits, s.QueryMisses = c.query.stats()
	s.IntentHits, s.IntentMisses = c.intent.stats()
	s.RRFHits, s.RRFMisses = c.rrf.stats()
	return s
}

// QueryKey builds the L1-query/L1-intent cache key (§4.10 "(repo_id,
// snapshot_id, query)").
func QueryKey(repoID, snapshotID, query string) string {
	return repoID + "\x00" + snapshotID + "\x00" + query
}

// HitsFingerprintKey builds the L1-rrf cache key (§4.10 "(repo_id,
// hits_fingerprint)").
func HitsFingerprintKey(repoID, hitsFingerprint string) string {
	return repoID + "\x00" + hitsFingerprint
}
