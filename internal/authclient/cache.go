package authclient

import (
	"container/list"
	"sync"
	"time"

	"github.com/curadesk/support-platform/internal/domain"
)

// VerdictCache is a bounded LRU with per-entry TTL, keyed by the SHA-256
// digest of the presented key (never the plaintext, to bound what an attacker
// could learn from process memory). Negative verdicts get a shorter TTL than
// positive ones so a revoke-then-reissue recovers quickly, while the positive
// TTL bounds how long a revoked key keeps working.
type VerdictCache struct {
	mu          sync.Mutex
	entries     map[string]*list.Element
	order       *list.List // front = most recently used
	capacity    int
	positiveTTL time.Duration
	negativeTTL time.Duration
	now         func() time.Time
}

type cacheEntry struct {
	keyHash   string
	verdict   domain.Verdict
	expiresAt time.Time
}

// NewVerdictCache builds a cache with the given capacity and TTLs.
func NewVerdictCache(capacity int, positiveTTL, negativeTTL time.Duration) *VerdictCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &VerdictCache{
		entries:     make(map[string]*list.Element, capacity),
		order:       list.New(),
		capacity:    capacity,
		positiveTTL: positiveTTL,
		negativeTTL: negativeTTL,
		now:         time.Now,
	}
}

// Get returns the cached verdict for the key hash if present and unexpired.
// Expired entries are removed on access; a stale entry is never returned.
func (c *VerdictCache) Get(keyHash string) (domain.Verdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[keyHash]
	if !ok {
		return domain.Verdict{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, keyHash)
		return domain.Verdict{}, false
	}
	c.order.MoveToFront(elem)
	return entry.verdict, true
}

// Put stores a verdict, evicting the least recently used entry at capacity.
func (c *VerdictCache) Put(keyHash string, verdict domain.Verdict) {
	ttl := c.positiveTTL
	if !verdict.Valid {
		ttl = c.negativeTTL
	}
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[keyHash]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.verdict = verdict
		entry.expiresAt = c.now().Add(ttl)
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).keyHash)
		}
	}

	c.entries[keyHash] = c.order.PushFront(&cacheEntry{
		keyHash:   keyHash,
		verdict:   verdict,
		expiresAt: c.now().Add(ttl),
	})
}

// Len reports the current entry count.
func (c *VerdictCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
