package recommendation

import "time"

const (
	DefaultLimit = 10
	MaxLimit     = 25

	defaultCacheTTL     = 5 * time.Minute
	defaultStreamBuffer = 8

	// candidate pools are over-fetched so location matches and owned-card
	// exclusion still leave enough cards to fill a page
	candidatePoolFactor = 2
)

// heuristic fallback weights
const (
	fallbackBase         = 45
	fallbackDiscoverBase = 55
	fallbackCategoryHit  = 25
	fallbackPerCategory  = 5
	fallbackCategoryCap  = 15
	fallbackMin          = 25
	fallbackMax          = 90

	locationScore = 100
)

type Config struct {
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
	StreamBuffer int
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:     defaultCacheTTL,
		DefaultLimit: DefaultLimit,
		MaxLimit:     MaxLimit,
		StreamBuffer: defaultStreamBuffer,
	}
}

// withDefaults fills zero fields so a partially populated Config is usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = d.MaxLimit
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = d.DefaultLimit
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}
	if c.StreamBuffer <= 0 {
		c.StreamBuffer = d.StreamBuffer
	}
	return c
}
