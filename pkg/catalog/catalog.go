// Package catalog caches source catalogs for a bounded number of hours.
//
// Entries are keyed by source, model, version and channel (see [Key]) and
// stored as serialized [spk.Catalog] values in a [cache.Cache]. With the
// default file store the layout is
//
//	<backend_dir>/{source}_{model}_{version}_{stable|beta}.cache
//
// Stale entries are never deleted: [Cache.Lookup] ignores them and the next
// successful fetch overwrites them. Every store failure is logged and
// swallowed so a broken cache never fails a package query.
package catalog

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/synopackage/pkg/cache"
	"github.com/matzehuels/synopackage/pkg/errors"
	"github.com/matzehuels/synopackage/pkg/observability"
	"github.com/matzehuels/synopackage/pkg/spk"
)

// FileExt is the extension of catalog files in the file store.
const FileExt = ".cache"

// NoTTL marks the TTL as not configured. Lookups then always miss.
const NoTTL time.Duration = -1

// Status is the outcome of a lookup.
type Status int

const (
	// Disabled means catalog caching is switched off.
	Disabled Status = iota
	// Miss means no usable entry: absent, unreadable, stale or no TTL.
	Miss
	// Hit means a fresh entry was found.
	Hit
)

// String returns the status name used in logs.
func (s Status) String() string {
	switch s {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	default:
		return "disabled"
	}
}

// Lookup is the result of Cache.Lookup. Catalog and Age are set on Hit.
type Lookup struct {
	Status  Status
	Catalog spk.Catalog
	Age     time.Duration
}

// Options configures a Cache.
type Options struct {
	// Enabled switches the cache on. A disabled cache never reads or writes.
	Enabled bool

	// TTL is the maximum age of a usable entry. An entry exactly TTL old is
	// still fresh. Use NoTTL when no threshold is configured.
	TTL time.Duration

	// Logger receives warnings about unreadable entries and failed writes.
	// Defaults to log.Default().
	Logger *log.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Cache is the TTL-bounded catalog cache. It is safe for concurrent use as
// long as the underlying store is.
type Cache struct {
	store   cache.Cache
	enabled bool
	ttl     time.Duration
	logger  *log.Logger
	now     func() time.Time
}

// New wraps store with the given options.
func New(store cache.Cache, opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if store == nil {
		store = cache.NewNullCache()
	}
	return &Cache{
		store:   store,
		enabled: opts.Enabled,
		ttl:     opts.TTL,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// Enabled reports whether the cache is switched on.
func (c *Cache) Enabled() bool { return c.enabled }

// Key returns the cache key for a query, stripped of characters that are
// illegal in a file name.
func Key(source, model, version string, channel spk.Channel) string {
	return cache.CleanFileName(source + "_" + model + "_" + version + "_" + string(channel))
}

// Lookup returns the entry stored under key if it is fresh.
func (c *Cache) Lookup(ctx context.Context, key string) Lookup {
	if !c.enabled {
		return Lookup{Status: Disabled}
	}
	if c.ttl < 0 {
		observability.Cache().OnCacheMiss(ctx, observability.TierCatalog)
		return Lookup{Status: Miss}
	}

	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("catalog cache read failed", "key", key, "err", errors.Wrap(errors.ErrCodeCache, err, "read %s", key))
		return c.miss(ctx)
	}
	if !ok {
		return c.miss(ctx)
	}

	age := entry.Age(c.now())
	if age > c.ttl {
		c.logger.Debug("catalog cache entry stale", "key", key, "age", age.Round(time.Second), "ttl", c.ttl)
		return c.miss(ctx)
	}

	catalog, err := spk.Unmarshal(entry.Data)
	if err != nil {
		c.logger.Warn("catalog cache entry unreadable", "key", key, "err", errors.Wrap(errors.ErrCodeCache, err, "decode %s", key))
		return c.miss(ctx)
	}

	observability.Cache().OnCacheHit(ctx, observability.TierCatalog)
	return Lookup{Status: Hit, Catalog: catalog, Age: age}
}

func (c *Cache) miss(ctx context.Context) Lookup {
	observability.Cache().OnCacheMiss(ctx, observability.TierCatalog)
	return Lookup{Status: Miss}
}

// Store serializes catalog under key, replacing any previous entry. Errors
// are logged, never returned. Store does nothing when the cache is
// disabled.
func (c *Cache) Store(ctx context.Context, key string, catalog spk.Catalog) {
	if !c.enabled {
		return
	}
	data, err := catalog.Marshal()
	if err != nil {
		c.logger.Warn("catalog cache encode failed", "key", key, "err", err)
		return
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "err", errors.Wrap(errors.ErrCodeCache, err, "write %s", key))
		return
	}
	observability.Cache().OnCacheSet(ctx, observability.TierCatalog, len(data))
}

// Clear removes every stored catalog and reports how many were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	return c.store.Clear(ctx)
}
