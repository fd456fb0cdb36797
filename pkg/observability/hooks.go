// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about source fetches, cache operations, and icon caching.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main (or the API server), never by libraries, so
// the aggregator stays free of metrics backends. [Counters] is the built-in
// implementation behind the /api/stats endpoint.
//
// # Usage
//
// Register hooks at application startup:
//
//	counters := observability.NewCounters()
//	observability.SetSourceHooks(counters)
//	observability.SetCacheHooks(counters)
//	observability.SetIconHooks(counters)
//
// Libraries call hooks to emit events:
//
//	observability.Source().OnFetchStart(ctx, source, url)
//	// ... fetch ...
//	observability.Source().OnFetchComplete(ctx, source, status, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Cache tiers reported to CacheHooks.
const (
	TierCatalog = "catalog"
	TierIcon    = "icon"
)

// =============================================================================
// Source Hooks
// =============================================================================

// SourceHooks receives events from outbound catalog fetches.
type SourceHooks interface {
	// OnFetchStart records an outgoing catalog request.
	OnFetchStart(ctx context.Context, source, url string)

	// OnFetchComplete records the outcome. statusCode is 0 when no
	// response arrived.
	OnFetchComplete(ctx context.Context, source string, statusCode int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, tier string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, tier string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, tier string, size int)
}

// =============================================================================
// Icon Hooks
// =============================================================================

// IconHooks receives events from icon materialization.
type IconHooks interface {
	// OnIconStored records a valid icon written to the icon store.
	OnIconStored(ctx context.Context, source, format string)

	// OnIconFallback records the default icon written in place of a
	// failed or unrecognized download.
	OnIconFallback(ctx context.Context, source, reason string)

	// OnIconSkipped records a download bypassed by a skip rule.
	OnIconSkipped(ctx context.Context, source string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSourceHooks is a no-op implementation of SourceHooks.
type NoopSourceHooks struct{}

func (NoopSourceHooks) OnFetchStart(context.Context, string, string) {}
func (NoopSourceHooks) OnFetchComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopIconHooks is a no-op implementation of IconHooks.
type NoopIconHooks struct{}

func (NoopIconHooks) OnIconStored(context.Context, string, string)   {}
func (NoopIconHooks) OnIconFallback(context.Context, string, string) {}
func (NoopIconHooks) OnIconSkipped(context.Context, string)          {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	sourceHooks SourceHooks = NoopSourceHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	iconHooks   IconHooks   = NoopIconHooks{}
	hooksMu     sync.RWMutex
)

// SetSourceHooks registers custom source hooks.
// This should be called once at application startup before any fetches.
func SetSourceHooks(h SourceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sourceHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetIconHooks registers custom icon hooks.
func SetIconHooks(h IconHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		iconHooks = h
	}
}

// Source returns the registered source hooks.
func Source() SourceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sourceHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Icon returns the registered icon hooks.
func Icon() IconHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return iconHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	sourceHooks = NoopSourceHooks{}
	cacheHooks = NoopCacheHooks{}
	iconHooks = NoopIconHooks{}
}
