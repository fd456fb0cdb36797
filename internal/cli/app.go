package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/synopackage/pkg/aggregator"
	"github.com/matzehuels/synopackage/pkg/buildinfo"
	"github.com/matzehuels/synopackage/pkg/cache"
	"github.com/matzehuels/synopackage/pkg/catalog"
	"github.com/matzehuels/synopackage/pkg/config"
	"github.com/matzehuels/synopackage/pkg/fetch"
	"github.com/matzehuels/synopackage/pkg/icons"
	"github.com/matzehuels/synopackage/pkg/registry"
)

// Store namespaces used by the remote backends.
const (
	redisCatalogPrefix = "catalog:"
	redisIconPrefix    = "icon:"
	mongoCatalogColl   = "catalogs"
	mongoIconColl      = "icons"
	fileIconExt        = ""
)

// connectTimeout bounds the initial connection to a remote store.
const connectTimeout = 10 * time.Second

// app is the service graph built from a Config.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	fetcher  *fetch.Fetcher
	catalog  *catalog.Cache
	icons    *icons.Cache
	registry *registry.Static
	service  *aggregator.Service

	catalogStore cache.Cache
	iconStore    cache.Cache
}

// newApp wires stores, fetcher, caches, registry and service.
func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	proxy, err := cfg.Proxy()
	if err != nil {
		return nil, err
	}

	catalogStore, iconStore, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	defaultIcon := icons.DefaultIcon()
	if cfg.Icons.DefaultIcon != "" {
		if defaultIcon, err = icons.LoadDefaultIcon(cfg.Icons.DefaultIcon); err != nil {
			closeStores(catalogStore, iconStore)
			return nil, err
		}
	}

	f := fetch.NewFetcher(
		fetch.WithTimeout(cfg.Timeout()),
		fetch.WithProxy(proxy),
		fetch.WithCircuitBreaker(cfg.HTTP.CircuitBreaker),
	)

	ttl, ok := cfg.CatalogTTL()
	if !ok {
		ttl = catalog.NoTTL
	}
	cat := catalog.New(catalogStore, catalog.Options{
		Enabled: cfg.Cache.Enabled,
		TTL:     ttl,
		Logger:  logger,
	})

	expiration, ok := cfg.IconExpiration()
	if !ok {
		expiration = icons.NoExpiration
	}
	ic := icons.New(iconStore, f, icons.Options{
		Expiration:  expiration,
		SkipRules:   cfg.Icons.Skip,
		UseHTTPS:    cfg.HTTP.UseHTTPS,
		DefaultIcon: defaultIcon,
		Workers:     cfg.Icons.Workers,
		UserAgent:   buildinfo.UserAgent(),
		Logger:      logger,
	})

	svc := aggregator.New(aggregator.Options{
		Fetcher:  f,
		Catalog:  cat,
		Icons:    ic,
		Registry: reg,
		Defaults: aggregator.Defaults{Model: cfg.Defaults.Model, Version: cfg.Defaults.Version},
		Logger:   logger,
	})

	return &app{
		cfg:          cfg,
		logger:       logger,
		fetcher:      f,
		catalog:      cat,
		icons:        ic,
		registry:     reg,
		service:      svc,
		catalogStore: catalogStore,
		iconStore:    iconStore,
	}, nil
}

// openStores opens the catalog and icon stores for the configured backend.
func openStores(ctx context.Context, cfg *config.Config) (catalogStore, iconStore cache.Cache, err error) {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), cache.NewNullCache(), nil

	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, redisCatalogPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, rc.WithPrefix(redisIconPrefix), nil

	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		mc, err := cache.NewMongoCache(ctx, cfg.Cache.MongoURI, cfg.Cache.MongoDatabase, mongoCatalogColl)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		return mc, mc.WithCollection(mongoIconColl), nil

	default:
		fc, err := cache.NewFileCache(cfg.Cache.BackendDir, catalog.FileExt)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog cache: %w", err)
		}
		ic, err := cache.NewFileCache(cfg.Cache.FrontendDir, fileIconExt)
		if err != nil {
			return nil, nil, fmt.Errorf("open icon cache: %w", err)
		}
		return fc, ic, nil
	}
}

// closeStores closes the icon store first: remote icon stores share the
// catalog store's client.
func closeStores(catalogStore, iconStore cache.Cache) error {
	return errors.Join(iconStore.Close(), catalogStore.Close())
}

// Close releases the fetcher and the stores.
func (a *app) Close() error {
	return errors.Join(a.fetcher.Close(), closeStores(a.catalogStore, a.iconStore))
}

// storeLocations describes where each cache lives, for display.
func storeLocations(cfg *config.Config) (catalogLoc, iconLoc string) {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return "disabled", "disabled"
	case config.BackendRedis:
		return cfg.Cache.RedisURL + " (" + redisCatalogPrefix + "*)", cfg.Cache.RedisURL + " (" + redisIconPrefix + "*)"
	case config.BackendMongo:
		return cfg.Cache.MongoURI + "/" + cfg.Cache.MongoDatabase + "." + mongoCatalogColl,
			cfg.Cache.MongoURI + "/" + cfg.Cache.MongoDatabase + "." + mongoIconColl
	default:
		return cfg.Cache.BackendDir, cfg.Cache.FrontendDir
	}
}

// dirExists reports whether dir exists and is a directory.
func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
