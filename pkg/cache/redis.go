package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores each entry as a Redis hash with the fields "data" and
// "mtime" (Unix nanoseconds) under prefix+key.
//
// Several RedisCache values may share one client with different prefixes;
// only the cache that created the client closes it.
type RedisCache struct {
	client *redis.Client
	prefix string
	owned  bool
}

const (
	redisFieldData  = "data"
	redisFieldMTime = "mtime"
)

// NewRedisCache connects to the Redis server at url (redis://host:port/db)
// and verifies the connection with PING.
func NewRedisCache(ctx context.Context, url, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisCache{client: client, prefix: prefix, owned: true}, nil
}

// NewRedisCacheWithClient wraps an existing client. Close leaves the client
// open.
func NewRedisCacheWithClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// WithPrefix returns a cache sharing the same client under another prefix.
func (c *RedisCache) WithPrefix(prefix string) *RedisCache {
	return &RedisCache{client: c.client, prefix: prefix}
}

func (c *RedisCache) key(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return c.prefix + key, nil
}

// Get reads both fields of the hash stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	k, err := c.key(key)
	if err != nil {
		return Entry{}, false, err
	}
	vals, err := c.client.HGetAll(ctx, k).Result()
	if err != nil {
		return Entry{}, false, redisErr(err)
	}
	data, ok := vals[redisFieldData]
	if !ok {
		return Entry{}, false, nil
	}
	return Entry{Data: []byte(data), ModTime: parseUnixNano(vals[redisFieldMTime])}, true, nil
}

// ModTime reads only the "mtime" field of key.
func (c *RedisCache) ModTime(ctx context.Context, key string) (time.Time, bool, error) {
	k, err := c.key(key)
	if err != nil {
		return time.Time{}, false, err
	}
	v, err := c.client.HGet(ctx, k, redisFieldMTime).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, redisErr(err)
	}
	return parseUnixNano(v), true, nil
}

// Set writes data and the current time in a single HSET.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	return redisErr(c.client.HSet(ctx, k,
		redisFieldData, data,
		redisFieldMTime, time.Now().UnixNano(),
	).Err())
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	return redisErr(c.client.Del(ctx, k).Err())
}

// Clear scans for keys under the prefix and deletes them.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	removed := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, redisErr(err)
		}
		removed += int(n)
	}
	return removed, redisErr(iter.Err())
}

// Close closes the client if this cache created it.
func (c *RedisCache) Close() error {
	if !c.owned {
		return nil
	}
	return c.client.Close()
}

// redisErr maps the client's closed error to ErrClosed.
func redisErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrClosed
	}
	return err
}

func parseUnixNano(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
