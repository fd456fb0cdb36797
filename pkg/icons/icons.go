// Package icons materializes package icons into the icon store.
//
// For every package of a catalog the [Cache] makes sure an entry named
// [FileName](source, package) exists and is not older than the configured
// expiration:
//
//   - a package with an inline base64 icon and no thumbnails has the
//     decoded bytes stored as-is;
//   - otherwise the first thumbnail is downloaded, checked with [Sniff] and
//     stored; unrecognized bytes, failed downloads and downloads bypassed
//     by a [SkipRule] store the default icon instead.
//
// Errors never escape: each failing package is logged and skipped.
//
// Packages are processed by a bounded pool of workers and identical icon
// keys are coalesced with singleflight, so overlapping requests for the
// same source download each icon once.
package icons

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/synopackage/pkg/cache"
	"github.com/matzehuels/synopackage/pkg/errors"
	"github.com/matzehuels/synopackage/pkg/fetch"
	"github.com/matzehuels/synopackage/pkg/observability"
	"github.com/matzehuels/synopackage/pkg/spk"
)

// NoExpiration marks the icon expiration as not configured: an existing
// icon is then never refreshed.
const NoExpiration time.Duration = -1

// DefaultWorkers is the pool size used when Options.Workers is not positive.
const DefaultWorkers = 4

// Downloader fetches thumbnail bytes. *fetch.Fetcher implements it.
type Downloader interface {
	Get(ctx context.Context, url, userAgent string) fetch.Result
}

// Options configures a Cache.
type Options struct {
	// Expiration is the maximum age of a stored icon, or NoExpiration.
	Expiration time.Duration

	// SkipRules bypass downloads; nil means DefaultSkipRules.
	SkipRules []SkipRule

	// UseHTTPS selects the scheme added to scheme-less thumbnail URLs.
	UseHTTPS bool

	// DefaultIcon is stored when a download fails. Defaults to the
	// bundled icon.
	DefaultIcon []byte

	// Workers bounds concurrent icon work per Process call.
	Workers int

	// UserAgent is sent with thumbnail downloads.
	UserAgent string

	Logger *log.Logger
	Now    func() time.Time
}

// Cache stores package icons. It is safe for concurrent use.
type Cache struct {
	store       cache.Cache
	downloader  Downloader
	expiration  time.Duration
	skip        []SkipRule
	useHTTPS    bool
	defaultIcon []byte
	workers     int
	userAgent   string
	logger      *log.Logger
	now         func() time.Time

	inflight singleflight.Group
}

// New creates an icon cache writing to store and downloading with d.
func New(store cache.Cache, d Downloader, opts Options) *Cache {
	if store == nil {
		store = cache.NewNullCache()
	}
	if opts.SkipRules == nil {
		opts.SkipRules = DefaultSkipRules
	}
	if len(opts.DefaultIcon) == 0 {
		opts.DefaultIcon = DefaultIcon()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		store:       store,
		downloader:  d,
		expiration:  opts.Expiration,
		skip:        opts.SkipRules,
		useHTTPS:    opts.UseHTTPS,
		defaultIcon: opts.DefaultIcon,
		workers:     opts.Workers,
		userAgent:   opts.UserAgent,
		logger:      opts.Logger,
		now:         opts.Now,
	}
}

// Process materializes icons for every package of source and returns when
// all of them are done or ctx is canceled.
func (c *Cache) Process(ctx context.Context, source string, pkgs []spk.RawPackage) {
	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup

	for _, p := range pkgs {
		if len(p.Thumbnails) == 0 && p.Icon == "" {
			continue
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(p spk.RawPackage) {
			defer wg.Done()
			defer func() { <-sem }()
			c.processOne(ctx, source, p)
		}(p)
	}
	wg.Wait()
}

func (c *Cache) processOne(ctx context.Context, source string, p spk.RawPackage) {
	key := FileName(source, p.Package)
	_, _, _ = c.inflight.Do(key, func() (any, error) {
		if !c.shouldStore(ctx, key) {
			observability.Cache().OnCacheHit(ctx, observability.TierIcon)
			return nil, nil
		}
		observability.Cache().OnCacheMiss(ctx, observability.TierIcon)

		if len(p.Thumbnails) == 0 {
			c.storeInline(ctx, source, key, p)
			return nil, nil
		}
		c.storeDownloaded(ctx, source, key, p)
		return nil, nil
	})
}

// storeInline writes a base64 inline icon without sniffing it.
func (c *Cache) storeInline(ctx context.Context, source, key string, p spk.RawPackage) {
	data, err := decodeBase64(p.Icon)
	if err != nil {
		c.logger.Warn("inline icon decode failed", "source", source, "package", p.Package,
			"err", errors.Wrap(errors.ErrCodeIcon, err, "inline icon of %s", p.Package))
		return
	}
	c.write(ctx, source, key, data)
}

func (c *Cache) storeDownloaded(ctx context.Context, source, key string, p spk.RawPackage) {
	url := NormalizeURL(p.Thumbnails[0], c.useHTTPS)
	if url == "" {
		c.fallback(ctx, source, key, "blank thumbnail url")
		return
	}
	if !c.shouldDownload(source, url) {
		observability.Icon().OnIconSkipped(ctx, source)
		c.fallback(ctx, source, key, "download skipped")
		return
	}

	res := c.downloader.Get(ctx, url, c.userAgent)
	if !res.OK() {
		c.logger.Debug("icon download failed", "source", source, "package", p.Package, "url", url,
			"err", errors.New(errors.ErrCodeIcon, "%s", res.ErrorText()))
		c.fallback(ctx, source, key, "download failed")
		return
	}
	format := Sniff(res.Body)
	if format == Unknown {
		c.logger.Debug("icon format not recognized", "source", source, "package", p.Package, "url", url)
		c.fallback(ctx, source, key, "unknown format")
		return
	}
	if c.write(ctx, source, key, res.Body) {
		observability.Icon().OnIconStored(ctx, source, format.String())
	}
}

func (c *Cache) fallback(ctx context.Context, source, key, reason string) {
	if c.write(ctx, source, key, c.defaultIcon) {
		observability.Icon().OnIconFallback(ctx, source, reason)
	}
}

func (c *Cache) write(ctx context.Context, source, key string, data []byte) bool {
	if err := c.store.Set(ctx, key, data); err != nil {
		c.logger.Warn("icon write failed", "source", source, "key", key, "err", errors.Wrap(errors.ErrCodeCache, err, "write %s", key))
		return false
	}
	observability.Cache().OnCacheSet(ctx, observability.TierIcon, len(data))
	return true
}

// shouldStore reports whether the icon under key is missing or older than
// the expiration. Read errors count as missing.
func (c *Cache) shouldStore(ctx context.Context, key string) bool {
	mtime, ok, err := c.store.ModTime(ctx, key)
	if err != nil {
		c.logger.Warn("icon cache read failed", "key", key, "err", errors.Wrap(errors.ErrCodeCache, err, "read %s", key))
		return true
	}
	if !ok {
		return true
	}
	if c.expiration < 0 {
		return false
	}
	return c.now().Sub(mtime) > c.expiration
}

// shouldDownload applies the skip rules.
func (c *Cache) shouldDownload(source, url string) bool {
	for _, r := range c.skip {
		if r.Matches(source, url) {
			return false
		}
	}
	return true
}

// Get returns a stored icon by file name, as served under /cache/{file}.
func (c *Cache) Get(ctx context.Context, fileName string) ([]byte, bool, error) {
	entry, ok, err := c.store.Get(ctx, fileName)
	if err != nil || !ok {
		return nil, ok, err
	}
	return entry.Data, true, nil
}

// Clear removes every stored icon.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	return c.store.Clear(ctx)
}

// decodeBase64 accepts padded or unpadded standard base64, optionally
// prefixed with a data URI header.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
