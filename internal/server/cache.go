package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/idelchi/topdirs/internal/report"
)

type cacheEntry struct {
	report *report.Report
	stored time.Time
}

// resultCache keeps reports per root and limit for a fixed TTL.
type resultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(root string, top int) string {
	return root + "\x00" + strconv.Itoa(top)
}

func (rc *resultCache) get(root string, top int) (*report.Report, bool) {
	if rc.ttl <= 0 {
		return nil, false
	}

	rc.mu.RLock()
	defer rc.mu.RUnlock()

	entry, ok := rc.entries[cacheKey(root, top)]
	if !ok || time.Since(entry.stored) >= rc.ttl {
		return nil, false
	}

	return entry.report, true
}

func (rc *resultCache) put(root string, top int, rep *report.Report) {
	if rc.ttl <= 0 {
		return
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := time.Now()

	// Evict expired entries.
	for key, entry := range rc.entries {
		if now.Sub(entry.stored) >= rc.ttl {
			delete(rc.entries, key)
		}
	}

	rc.entries[cacheKey(root, top)] = cacheEntry{report: rep, stored: now}
}
