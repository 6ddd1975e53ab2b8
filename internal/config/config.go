// Package config loads the service configuration.
//
// Values are resolved in order: built-in defaults, the TOML file, then
// environment variables. Command-line flags are applied by the caller on
// top of the result, followed by [Config.Validate].
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Cache backends.
const (
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendNull   = "null"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	GitHub   GitHubConfig   `toml:"github"`
	Cache    CacheConfig    `toml:"cache"`
	NPM      NPMConfig      `toml:"npm"`
	Registry RegistryConfig `toml:"registry"`
	Webhooks WebhooksConfig `toml:"webhooks"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// Dev runs the cache without its durable store and lifts the
	// registry restriction on item lookups.
	Dev bool `toml:"dev"`
	// RefreshInterval enables the in-process refresh loop when non-zero.
	RefreshInterval Duration `toml:"refresh_interval"`
	Concurrency     int      `toml:"concurrency"`
}

// GitHubConfig configures the upstream API.
type GitHubConfig struct {
	Token      string `toml:"token"`
	APIURL     string `toml:"api_url"`
	GraphQLURL string `toml:"graphql_url"`
}

// CacheConfig selects and configures the durable store.
type CacheConfig struct {
	Backend         string `toml:"backend"`
	RedisURL        string `toml:"redis_url"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	Dir             string `toml:"dir"`
	// Scope prefixes every key, for sharing one store between deployments.
	Scope string `toml:"scope"`
}

// NPMConfig configures the package registry used for deprecations.
type NPMConfig struct {
	RegistryURL string `toml:"registry_url"`
	Disabled    bool   `toml:"disabled"`
}

// RegistryConfig points at an alternative repository list.
type RegistryConfig struct {
	File string `toml:"file"`
}

// WebhooksConfig holds the shared secrets of the inbound hooks.
type WebhooksConfig struct {
	Secret          string `toml:"secret"`
	ReplicatorToken string `toml:"replicator_token"`
	CronSecret      string `toml:"cron_secret"`
}

// Duration is a time.Duration written as a string ("15m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			Concurrency: 8,
		},
		GitHub: GitHubConfig{
			APIURL:     "https://api.github.com",
			GraphQLURL: "https://api.github.com/graphql",
		},
		Cache: CacheConfig{
			Backend:         BackendRedis,
			RedisURL:        "redis://localhost:6379/0",
			MongoDatabase:   "releasehub",
			MongoCollection: "cache",
		},
		NPM: NPMConfig{
			RegistryURL: "https://registry.npmjs.org",
		},
	}
}

// Load reads the configuration at path over the defaults and applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"GITHUB_TOKEN":              &c.GitHub.Token,
		"REDIS_URL":                 &c.Cache.RedisURL,
		"MONGO_URI":                 &c.Cache.MongoURI,
		"RELEASEHUB_CACHE":          &c.Cache.Backend,
		"WEBHOOKS_SECRET":           &c.Webhooks.Secret,
		"WEBHOOKS_REPLICATOR_TOKEN": &c.Webhooks.ReplicatorToken,
		"CRON_SECRET":               &c.Webhooks.CronSecret,
		"RELEASEHUB_ADDR":           &c.Server.Addr,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("RELEASEHUB_DEV"); ok && v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RELEASEHUB_DEV: %w", err)
		}
		c.Server.Dev = dev
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.RefreshInterval.Duration < 0 {
		return fmt.Errorf("server.refresh_interval must not be negative")
	}
	if c.Server.Concurrency < 1 {
		return fmt.Errorf("server.concurrency must be at least 1")
	}
	for name, raw := range map[string]string{"github.api_url": c.GitHub.APIURL, "github.graphql_url": c.GitHub.GraphQLURL} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if !c.NPM.Disabled {
		if err := validateURL(c.NPM.RegistryURL); err != nil {
			return fmt.Errorf("npm.registry_url: %w", err)
		}
	}

	switch c.Cache.Backend {
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	case BackendMongo:
		if c.Cache.MongoURI == "" {
			return fmt.Errorf("cache.mongo_uri is required for the mongo backend")
		}
		if c.Cache.MongoDatabase == "" || c.Cache.MongoCollection == "" {
			return fmt.Errorf("cache.mongo_database and cache.mongo_collection are required for the mongo backend")
		}
	case BackendFile, BackendMemory, BackendNull:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
