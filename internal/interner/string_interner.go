package interner

import "sync"

// StringInterner deduplicates repeated strings (file paths, FQNs, attr
// keys) so the IR doesn't carry thousands of identical string headers.
// Each stripe owns an independent map guarded by its own mutex, so
// interning two different strings whose hashes land in different stripes
// never contends.
type StringInterner struct {
	shards [stripeCount]map[string]string
	mus    [stripeCount]sync.RWMutex
}

// NewStringInterner creates an empty interner.
func NewStringInterner() *StringInterner {
	si := &StringInterner{}
	for i := range si.shards {
		si.shards[i] = make(map[string]string)
	}
	return si
}

// Intern returns the canonical copy of s, allocating a new backing entry
// only the first time s (by value) is seen.
func (si *StringInterner) Intern(s string) string {
	if s == "" {
		return ""
	}
	idx := fnv64(s) % stripeCount

	si.mus[idx].RLock()
	if canon, ok := si.shards[idx][s]; ok {
		si.mus[idx].RUnlock()
		return canon
	}
	si.mus[idx].RUnlock()

	si.mus[idx].Lock()
	defer si.mus[idx].Unlock()
	if canon, ok := si.shards[idx][s]; ok {
		return canon
	}
	si.shards[idx][s] = s
	return s
}

// Len reports the total number of distinct strings interned.
func (si *StringInterner) Len() int {
	total := 0
	for i := range si.shards {
		si.mus[i].RLock()
		total += len(si.shards[i])
		si.mus[i].RUnlock()
	}
	return total
}
