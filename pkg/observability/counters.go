package observability

import (
	"context"
	"sync"
	"time"
)

// Counters counts hook events in memory. It implements SourceHooks,
// CacheHooks and IconHooks and is safe for concurrent use.
type Counters struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{counts: make(map[string]int64)}
}

func (c *Counters) add(name string, n int64) {
	c.mu.Lock()
	c.counts[name] += n
	c.mu.Unlock()
}

// Snapshot returns a copy of all counters.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

func (c *Counters) OnFetchStart(_ context.Context, _, _ string) {
	c.add("fetch.started", 1)
}

func (c *Counters) OnFetchComplete(_ context.Context, _ string, statusCode int, _ time.Duration, err error) {
	if err != nil || statusCode != 200 {
		c.add("fetch.failed", 1)
		return
	}
	c.add("fetch.succeeded", 1)
}

func (c *Counters) OnCacheHit(_ context.Context, tier string)  { c.add(tier+".hit", 1) }
func (c *Counters) OnCacheMiss(_ context.Context, tier string) { c.add(tier+".miss", 1) }

func (c *Counters) OnCacheSet(_ context.Context, tier string, size int) {
	c.add(tier+".set", 1)
	c.add(tier+".bytes_written", int64(size))
}

func (c *Counters) OnIconStored(_ context.Context, _, _ string)   { c.add("icon.stored", 1) }
func (c *Counters) OnIconFallback(_ context.Context, _, _ string) { c.add("icon.fallback", 1) }
func (c *Counters) OnIconSkipped(_ context.Context, _ string)     { c.add("icon.skipped", 1) }

var (
	_ SourceHooks = (*Counters)(nil)
	_ CacheHooks  = (*Counters)(nil)
	_ IconHooks   = (*Counters)(nil)
)
