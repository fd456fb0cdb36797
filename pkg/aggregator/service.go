package aggregator

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/synopackage/pkg/catalog"
	"github.com/matzehuels/synopackage/pkg/errors"
	"github.com/matzehuels/synopackage/pkg/fetch"
	"github.com/matzehuels/synopackage/pkg/icons"
	"github.com/matzehuels/synopackage/pkg/observability"
	"github.com/matzehuels/synopackage/pkg/registry"
	"github.com/matzehuels/synopackage/pkg/search"
	"github.com/matzehuels/synopackage/pkg/spk"
)

// Origin tells where a catalog came from.
type Origin string

const (
	OriginCache  Origin = "cache"
	OriginServer Origin = "server"
)

// Fetcher sends catalog requests. *fetch.Fetcher implements it.
type Fetcher interface {
	Post(ctx context.Context, url string, form url.Values, userAgent string) fetch.Result
	Get(ctx context.Context, url, userAgent string) fetch.Result
}

// IconProcessor materializes icons. *icons.Cache implements it.
type IconProcessor interface {
	Process(ctx context.Context, source string, pkgs []spk.RawPackage)
}

// Registry resolves the names accepted by Resolve and SearchAll.
// *registry.Static implements it.
type Registry interface {
	registry.SourceRegistry
	registry.ModelRegistry
	registry.VersionRegistry
	ActiveSources() []registry.Source
}

// Query is a fully resolved package query.
type Query struct {
	Source   registry.Source
	Arch     string
	Model    string
	Version  spk.Version
	IsBeta   bool
	IsSearch bool
	Keyword  string
}

func (q Query) kind() string {
	if q.IsSearch {
		return "search"
	}
	return "browse"
}

func (q Query) parameters() Parameters {
	return Parameters{
		SourceName: q.Source.Name,
		Model:      q.Model,
		Version:    q.Version.Name,
		IsBeta:     q.IsBeta,
		Keyword:    q.Keyword,
	}
}

// Defaults are applied by Resolve to empty model and version strings.
type Defaults struct {
	Model   string
	Version string
}

// DefaultFanout bounds concurrent sources in SearchAll.
const DefaultFanout = 8

// Options configures a Service.
type Options struct {
	Fetcher  Fetcher
	Catalog  *catalog.Cache
	Icons    IconProcessor
	Registry Registry
	Defaults Defaults

	// Fanout bounds concurrent sources in SearchAll. Defaults to
	// DefaultFanout.
	Fanout int

	Logger *log.Logger
}

// Service answers package queries. It is safe for concurrent use.
type Service struct {
	fetcher  Fetcher
	catalog  *catalog.Cache
	icons    IconProcessor
	registry Registry
	defaults Defaults
	fanout   int
	logger   *log.Logger
}

// New creates a Service. Fetcher is required; a nil Catalog disables
// catalog caching and nil Icons skips icon materialization.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.New(nil, catalog.Options{Logger: opts.Logger})
	}
	if opts.Fanout <= 0 {
		opts.Fanout = DefaultFanout
	}
	return &Service{
		fetcher:  opts.Fetcher,
		catalog:  opts.Catalog,
		icons:    opts.Icons,
		registry: opts.Registry,
		defaults: opts.Defaults,
		fanout:   opts.Fanout,
		logger:   opts.Logger,
	}
}

// GetPackages runs q and always returns a well-formed envelope.
func (s *Service) GetPackages(ctx context.Context, q Query) (env *Envelope) {
	start := time.Now()
	params := q.parameters()
	kind := q.kind()
	origin := OriginServer

	s.logger.Info("parameters",
		"kind", kind,
		"source", params.SourceName,
		"model", params.Model,
		"version", params.Version,
		"beta", params.IsBeta,
		"keyword", params.Keyword,
	)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("package query panicked", "source", params.SourceName, "panic", r, "stack", string(debug.Stack()))
			env = failure(params, fmt.Sprintf("internal error: %v", r))
		}
		s.logger.Info("result",
			"kind", kind,
			"source", params.SourceName,
			"model", params.Model,
			"version", params.Version,
			"beta", params.IsBeta,
			"keyword", params.Keyword,
			"origin", origin,
			"duration", time.Since(start).Round(time.Millisecond),
			"packages", len(env.Packages),
			"success", env.Success,
		)
	}()

	channel := spk.ChannelFor(q.IsBeta)
	key := catalog.Key(q.Source.Name, q.Model, strconv.Itoa(q.Version.Build), channel)

	var cat spk.Catalog
	lookup := s.catalog.Lookup(ctx, key)
	s.logger.Debug("catalog cache lookup", "key", key, "status", lookup.Status)
	if lookup.Status == catalog.Hit {
		origin = OriginCache
		cat = lookup.Catalog
	} else {
		fetched, err := s.fetchCatalog(ctx, q, channel)
		if err != nil {
			return failure(params, errors.UserMessage(err))
		}
		s.catalog.Store(ctx, key, fetched)
		cat = fetched
	}

	return success(params, s.postprocess(ctx, q, cat))
}

// fetchCatalog requests and parses the catalog. Errors carry
// ErrCodeUpstream (message is the fetch error text) or ErrCodeParse.
func (s *Service) fetchCatalog(ctx context.Context, q Query, channel spk.Channel) (spk.Catalog, error) {
	req := spk.BuildRequest(spk.Device{
		Arch:    q.Arch,
		Model:   q.Model,
		Version: q.Version,
		Channel: channel,
	}, q.Source.UserAgent)

	target := q.Source.URL
	if q.Source.Legacy {
		target = spk.LegacyURL(q.Source.URL, req.Form)
	}

	observability.Source().OnFetchStart(ctx, q.Source.Name, target)
	start := time.Now()
	var res fetch.Result
	if q.Source.Legacy {
		res = s.fetcher.Get(ctx, target, req.UserAgent)
	} else {
		res = s.fetcher.Post(ctx, target, req.Form, req.UserAgent)
	}
	observability.Source().OnFetchComplete(ctx, q.Source.Name, res.StatusCode, time.Since(start), res.Err)

	if !res.OK() {
		s.logger.Warn("source request failed", "source", q.Source.Name, "url", q.Source.URL, "status", res.StatusCode, "err", res.Err)
		return spk.Catalog{}, errors.New(errors.ErrCodeUpstream, "%s", res.ErrorText())
	}

	cat, shape, err := spk.Parse(res.Body)
	if err != nil {
		s.logger.Warn("source response unparsable", "source", q.Source.Name, "bytes", len(res.Body), "err", err)
		return spk.Catalog{}, errors.Wrap(errors.ErrCodeParse, err, MessageResultEmpty)
	}
	if shape == spk.ShapeEmpty || cat.Packages == nil {
		s.logger.Warn("source returned no package list", "source", q.Source.Name, "shape", shape)
	}
	return cat, nil
}

// postprocess materializes icons, filters, sorts and projects.
func (s *Service) postprocess(ctx context.Context, q Query, cat spk.Catalog) []spk.Package {
	if s.icons != nil && len(cat.Packages) > 0 {
		s.icons.Process(ctx, q.Source.Name, cat.Packages)
	}
	matched := search.FilterSort(cat.Packages, q.Keyword)
	out := make([]spk.Package, 0, len(matched))
	for _, p := range matched {
		out = append(out, p.Project(q.Source.Name, icons.FileName(q.Source.Name, p.Package)))
	}
	return out
}
