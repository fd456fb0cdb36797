// Package config loads the synopackage configuration file.
//
// The file is TOML. Every section is optional; missing values fall back to
// [Default]. Two keys are deliberately not defaulted when a file is given:
// cache.ttl_hours and cache.icon_expiration_days. Leaving them out means
// "not configured": catalogs are then never served from cache and stored
// icons never expire.
//
//	[cache]
//	enabled = true
//	ttl_hours = 24
//	icon_expiration_days = 30
//	backend = "file"            # file | redis | mongo | none
//	backend_dir = "cache/backend"
//	frontend_dir = "cache/frontend"
//
//	[http]
//	proxy_url = ""
//	timeout_seconds = 30
//
//	[[sources]]
//	name = "synocommunity"
//	url = "https://packages.synocommunity.com/"
//
// The registries ([[sources]], [[models]], [[versions]]) replace the
// built-in lists when present.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/synopackage/pkg/errors"
	"github.com/matzehuels/synopackage/pkg/icons"
	"github.com/matzehuels/synopackage/pkg/registry"
	"github.com/matzehuels/synopackage/pkg/spk"
)

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the complete configuration.
type Config struct {
	Cache    CacheConfig    `toml:"cache"`
	HTTP     HTTPConfig     `toml:"http"`
	Icons    IconsConfig    `toml:"icons"`
	Defaults DefaultsConfig `toml:"defaults"`
	Server   ServerConfig   `toml:"server"`

	Sources  []SourceConfig `toml:"sources"`
	Models   []ModelConfig  `toml:"models"`
	Versions []spk.Version  `toml:"versions"`
}

// CacheConfig configures both caches and their store.
type CacheConfig struct {
	Enabled            bool   `toml:"enabled"`
	TTLHours           *int   `toml:"ttl_hours"`
	IconExpirationDays *int   `toml:"icon_expiration_days"`
	Backend            string `toml:"backend"`
	BackendDir         string `toml:"backend_dir"`
	FrontendDir        string `toml:"frontend_dir"`
	RedisURL           string `toml:"redis_url"`
	MongoURI           string `toml:"mongo_uri"`
	MongoDatabase      string `toml:"mongo_database"`
}

// HTTPConfig configures outbound requests.
type HTTPConfig struct {
	ProxyURL       string `toml:"proxy_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UseHTTPS       bool   `toml:"use_https"`
	CircuitBreaker bool   `toml:"circuit_breaker"`
}

// IconsConfig configures icon materialization.
type IconsConfig struct {
	DefaultIcon string           `toml:"default_icon"`
	Workers     int              `toml:"workers"`
	Skip        []icons.SkipRule `toml:"skip"`
}

// DefaultsConfig holds the model and version used when a query omits them.
type DefaultsConfig struct {
	Model   string `toml:"model"`
	Version string `toml:"version"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// SourceConfig is a [[sources]] entry. Active defaults to true.
type SourceConfig struct {
	Name      string `toml:"name"`
	URL       string `toml:"url"`
	UserAgent string `toml:"user_agent"`
	Legacy    bool   `toml:"legacy"`
	Active    *bool  `toml:"active"`
}

// ModelConfig is a [[models]] entry.
type ModelConfig struct {
	Name string `toml:"name"`
	Arch string `toml:"arch"`
}

func intPtr(n int) *int { return &n }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled:            true,
			TTLHours:           intPtr(24),
			IconExpirationDays: intPtr(30),
			Backend:            BackendFile,
			BackendDir:         "cache/backend",
			FrontendDir:        "cache/frontend",
			RedisURL:           "redis://localhost:6379/0",
			MongoURI:           "mongodb://localhost:27017",
			MongoDatabase:      "synopackage",
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
			UseHTTPS:       true,
			CircuitBreaker: true,
		},
		Icons: IconsConfig{
			Workers: icons.DefaultWorkers,
			Skip:    append([]icons.SkipRule(nil), icons.DefaultSkipRules...),
		},
		Defaults: DefaultsConfig{
			Model:   "DS918+",
			Version: "6.2.4-25556",
		},
		Server:   ServerConfig{Addr: ":8080"},
		Sources:  builtinSources(),
		Models:   builtinModels(),
		Versions: builtinVersions(),
	}
}

// Load reads the configuration at path. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes a TOML document, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	cfg.applyDefaults(md)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults(md toml.MetaData) {
	def := Default()

	if !md.IsDefined("cache", "enabled") {
		c.Cache.Enabled = def.Cache.Enabled
	}
	setDefault(&c.Cache.Backend, def.Cache.Backend)
	setDefault(&c.Cache.BackendDir, def.Cache.BackendDir)
	setDefault(&c.Cache.FrontendDir, def.Cache.FrontendDir)
	setDefault(&c.Cache.RedisURL, def.Cache.RedisURL)
	setDefault(&c.Cache.MongoURI, def.Cache.MongoURI)
	setDefault(&c.Cache.MongoDatabase, def.Cache.MongoDatabase)

	if !md.IsDefined("http", "timeout_seconds") {
		c.HTTP.TimeoutSeconds = def.HTTP.TimeoutSeconds
	}
	if !md.IsDefined("http", "use_https") {
		c.HTTP.UseHTTPS = def.HTTP.UseHTTPS
	}
	if !md.IsDefined("http", "circuit_breaker") {
		c.HTTP.CircuitBreaker = def.HTTP.CircuitBreaker
	}

	if !md.IsDefined("icons", "workers") {
		c.Icons.Workers = def.Icons.Workers
	}
	if !md.IsDefined("icons", "skip") {
		c.Icons.Skip = def.Icons.Skip
	}

	setDefault(&c.Defaults.Model, def.Defaults.Model)
	setDefault(&c.Defaults.Version, def.Defaults.Version)
	setDefault(&c.Server.Addr, def.Server.Addr)

	if len(c.Sources) == 0 {
		c.Sources = def.Sources
	}
	if len(c.Models) == 0 {
		c.Models = def.Models
	}
	if len(c.Versions) == 0 {
		c.Versions = def.Versions
	}
}

func setDefault(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// Validate checks value ranges and registry consistency.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendMongo, BackendNone:
	default:
		return fmt.Errorf("cache.backend must be one of file, redis, mongo, none (got %q)", c.Cache.Backend)
	}
	if c.Cache.TTLHours != nil && *c.Cache.TTLHours < 0 {
		return fmt.Errorf("cache.ttl_hours must not be negative")
	}
	if c.Cache.IconExpirationDays != nil && *c.Cache.IconExpirationDays < 0 {
		return fmt.Errorf("cache.icon_expiration_days must not be negative")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive")
	}
	if c.HTTP.ProxyURL != "" {
		if _, err := c.Proxy(); err != nil {
			return err
		}
	}
	if c.Icons.Workers < 0 {
		return fmt.Errorf("icons.workers must not be negative")
	}
	for _, s := range c.Sources {
		if err := errors.ValidateSourceName(s.Name); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
		if err := errors.ValidateURL(s.URL); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
	}

	reg, err := c.Registry()
	if err != nil {
		return err
	}
	if _, ok := reg.Model(c.Defaults.Model); !ok {
		return fmt.Errorf("defaults.model %q is not listed in [[models]]", c.Defaults.Model)
	}
	if _, ok := reg.Version(c.Defaults.Version); !ok {
		return fmt.Errorf("defaults.version %q is not listed in [[versions]]", c.Defaults.Version)
	}
	return nil
}

// Registry builds the static registry from the configured lists.
func (c *Config) Registry() (*registry.Static, error) {
	sources := make([]registry.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		active := true
		if s.Active != nil {
			active = *s.Active
		}
		sources = append(sources, registry.Source{
			Name:      s.Name,
			URL:       s.URL,
			UserAgent: s.UserAgent,
			Legacy:    s.Legacy,
			Active:    active,
		})
	}
	models := make([]registry.Model, 0, len(c.Models))
	for _, m := range c.Models {
		models = append(models, registry.Model{Name: m.Name, Arch: m.Arch})
	}
	return registry.NewStatic(sources, models, c.Versions)
}

// CatalogTTL returns the catalog TTL and whether one is configured.
func (c *Config) CatalogTTL() (time.Duration, bool) {
	if c.Cache.TTLHours == nil {
		return 0, false
	}
	return time.Duration(*c.Cache.TTLHours) * time.Hour, true
}

// IconExpiration returns the icon expiration and whether one is configured.
func (c *Config) IconExpiration() (time.Duration, bool) {
	if c.Cache.IconExpirationDays == nil {
		return 0, false
	}
	return time.Duration(*c.Cache.IconExpirationDays) * 24 * time.Hour, true
}

// Timeout returns the outbound request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Proxy parses http.proxy_url. It returns nil when no proxy is configured.
func (c *Config) Proxy() (*url.URL, error) {
	if c.HTTP.ProxyURL == "" {
		return nil, nil
	}
	u, err := url.Parse(c.HTTP.ProxyURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("http.proxy_url %q is not an absolute URL", c.HTTP.ProxyURL)
	}
	return u, nil
}
