package recommendation

import (
	"context"
	"slices"
	"sync"
	"time"

	"cardAdvisor/domain"
)

// Payload is what a computation produces and what the cache stores.
type Payload struct {
	Entries      []domain.ScoredEntry    `json:"entries"`
	Total        int                     `json:"total"`
	ScoreSources domain.ScoreSourceTally `json:"scoreSources"`
}

// clone deep-copies entries so callers and the cache never share slices.
func (p Payload) clone() Payload {
	p.Entries = slices.Clone(p.Entries)
	for i := range p.Entries {
		p.Entries[i].NormalizedCategories = slices.Clone(p.Entries[i].NormalizedCategories)
	}
	return p
}

// Cache stores computed payloads for a TTL. Implementations must be safe for
// concurrent use. Get reports a miss for expired entries; errors in a shared
// backend are a miss, never a request failure.
type Cache interface {
	Get(ctx context.Context, key string) (Payload, bool)
	Set(ctx context.Context, key string, payload Payload, ttl time.Duration)
	Clear(ctx context.Context) error
}

type memoryEntry struct {
	payload   Payload
	expiresAt time.Time
}

// MemoryCache is a process-local Cache. Expiry is checked lazily on read;
// stale entries linger until overwritten or Clear.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Payload, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		return Payload{}, false
	}
	return entry.payload.clone(), true
}

func (c *MemoryCache) Set(_ context.Context, key string, payload Payload, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		payload:   payload.clone(),
		expiresAt: c.now().Add(ttl),
	}
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]memoryEntry)
	return nil
}

// Len counts stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
