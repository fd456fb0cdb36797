package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// FileCache stores one file per key in a directory.
//
// The file name is CleanFileName(key) plus the configured extension, so the
// on-disk layout stays readable (for example "synocommunity_DS918+_7.2_stable.cache").
// The entry's write time is the file's modification time.
//
// Writes go to a temporary file in the same directory and are renamed into
// place, so concurrent readers never observe a partially written entry and
// racing writers for the same key leave exactly one complete file behind.
type FileCache struct {
	dir    string
	ext    string
	closed atomic.Bool
}

// NewFileCache creates a file-based cache in dir using ext (for example
// ".cache" or "") as the file extension. The directory is created if it
// doesn't exist.
func NewFileCache(dir, ext string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, ext: ext}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Path returns the file that backs key.
func (c *FileCache) Path(key string) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	name := CleanFileName(key)
	if err := checkKey(name); err != nil {
		return "", err
	}
	return filepath.Join(c.dir, name+c.ext), nil
}

// Get reads the entry stored under key.
func (c *FileCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	path, err := c.Path(key)
	if err != nil {
		return Entry{}, false, err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return Entry{Data: data, ModTime: info.ModTime()}, true, nil
}

// ModTime returns the modification time of the file backing key.
func (c *FileCache) ModTime(ctx context.Context, key string) (time.Time, bool, error) {
	path, err := c.Path(key)
	if err != nil {
		return time.Time{}, false, err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return info.ModTime(), true, nil
}

// Set atomically replaces the file backing key with data.
func (c *FileCache) Set(ctx context.Context, key string, data []byte) error {
	path, err := c.Path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Delete removes the file backing key.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	path, err := c.Path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every regular file in the directory that carries the cache
// extension. With an empty extension every regular file is removed.
// Subdirectories are left alone.
func (c *FileCache) Clear(ctx context.Context) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), c.ext) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Close marks the cache closed; later calls return ErrClosed. Files on
// disk are kept.
func (c *FileCache) Close() error {
	c.closed.Store(true)
	return nil
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
