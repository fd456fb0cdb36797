// Package cache provides the key-value stores behind the catalog and icon
// caches.
//
// # Overview
//
// Every backend implements [Cache]. Entries are opaque byte slices stamped
// with the time of their last write; freshness is decided by the caller
// (the catalog cache compares against a TTL in hours, the icon cache
// against an expiration in days), so stores never expire data themselves.
//
// Backends:
//
//   - [FileCache]: one file per key in a directory (default)
//   - [RedisCache]: a Redis hash per key
//   - [MongoCache]: one document per key in a MongoDB collection
//   - [NullCache]: always misses, drops writes
//
// # Keys
//
// Keys are used verbatim as file names by [FileCache], so they are passed
// through [CleanFileName] first. Remote backends add a namespace prefix or
// use a dedicated collection per cache.
package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for cache operations.
var (
	// ErrInvalidKey is returned for keys that cannot name an entry
	// (empty, "." or "..").
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrClosed is returned when a store is used after Close.
	ErrClosed = errors.New("cache closed")
)

// Entry is a stored value together with the time it was last written.
type Entry struct {
	Data    []byte
	ModTime time.Time
}

// Age returns how long ago the entry was written, relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.ModTime)
}

// Cache is a key-value store with last-write timestamps.
//
// Get and ModTime report a miss with (zero, false, nil). Errors are
// reserved for backend failures; callers in this module treat them as
// misses after logging.
type Cache interface {
	// Get returns the entry stored under key.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// ModTime returns the last write time of key without reading its data.
	ModTime(ctx context.Context, key string) (time.Time, bool, error)

	// Set stores data under key, overwriting any previous entry and
	// resetting its write time to now.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by this store and reports how many
	// were removed.
	Clear(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
