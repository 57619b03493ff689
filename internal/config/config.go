// Package config provides configuration management for the open access
// aggregation service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backend names.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all configuration for the service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Cache contains result cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// Resolver contains direct URL resolution settings.
	Resolver ResolverConfig `mapstructure:"resolver"`
	// Validator contains open access validation settings.
	Validator ValidatorConfig `mapstructure:"validator"`
	// Sources contains per-repository API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// Port is the HTTP server port (default: 8080).
	Port int `mapstructure:"port"`
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the host:port the server listens on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
}

// CacheConfig holds result cache configuration.
type CacheConfig struct {
	// Backend selects the cache store (memory, redis).
	Backend string `mapstructure:"backend"`
	// RedisAddr is the Redis server address (host:port).
	RedisAddr string `mapstructure:"redis_addr"`
	// RedisPassword is the Redis password (env only,
	// OPENSHELF_CACHE_REDIS_PASSWORD).
	RedisPassword string `mapstructure:"-"`
	// RedisDB is the Redis database number.
	RedisDB int `mapstructure:"redis_db"`
	// SearchTTL is how long cached search results live.
	SearchTTL time.Duration `mapstructure:"search_ttl"`
	// DocumentTTL is how long cached single documents live.
	DocumentTTL time.Duration `mapstructure:"document_ttl"`
}

// ResolverConfig holds direct URL resolution configuration.
type ResolverConfig struct {
	// Timeout is the per-hop HTTP timeout for landing page fetches.
	Timeout time.Duration `mapstructure:"timeout"`
	// UserAgent is sent on every landing page fetch.
	UserAgent string `mapstructure:"user_agent"`
	// Workers bounds parallel resolutions per search.
	Workers int `mapstructure:"workers"`
}

// ValidatorConfig holds open access validation configuration.
type ValidatorConfig struct {
	// HeadCheck enables the live URL probe stage. Off by default; it adds
	// a network round trip per otherwise-inconclusive document.
	HeadCheck bool `mapstructure:"head_check"`
}

// SourcesConfig contains per-repository API configurations.
type SourcesConfig struct {
	// OpenAlex contains OpenAlex API settings.
	OpenAlex SourceConfig `mapstructure:"openalex"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar SourceConfig `mapstructure:"semantic_scholar"`
	// ArXiv contains arXiv API settings.
	ArXiv SourceConfig `mapstructure:"arxiv"`
	// PubMed contains PubMed E-utilities settings.
	PubMed SourceConfig `mapstructure:"pubmed"`
	// CORE contains CORE API settings.
	CORE SourceConfig `mapstructure:"core"`
	// DOAJ contains DOAJ API settings.
	DOAJ SourceConfig `mapstructure:"doaj"`
	// OpenLibrary contains Open Library API settings.
	OpenLibrary SourceConfig `mapstructure:"openlibrary"`
	// Gutenberg contains Gutendex API settings.
	Gutenberg SourceConfig `mapstructure:"gutenberg"`
	// OpenTextbooks contains Open Textbook Library API settings.
	OpenTextbooks SourceConfig `mapstructure:"opentextbooks"`
	// DOAB contains DOAB API settings.
	DOAB SourceConfig `mapstructure:"doab"`
}

// SourceConfig holds configuration for a single repository API.
type SourceConfig struct {
	// Enabled controls whether this source is searched.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key, loaded exclusively from the environment
	// (e.g. OPENSHELF_SOURCES_CORE_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL overrides the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Email is sent to providers that reward an identifying contact
	// address with better rate limits (OpenAlex polite pool).
	Email string `mapstructure:"email"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MinInterval is the minimum delay between requests to this source.
	MinInterval time.Duration `mapstructure:"min_interval"`
	// MaxResults is the maximum results per query.
	MaxResults int `mapstructure:"max_results"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("OPENSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/openaccess-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine, env vars and defaults apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment
// variables. These fields carry mapstructure:"-" so config files cannot set
// them.
func loadSecrets(cfg *Config) {
	cfg.Cache.RedisPassword = os.Getenv("OPENSHELF_CACHE_REDIS_PASSWORD")

	cfg.Sources.SemanticScholar.APIKey = os.Getenv("OPENSHELF_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
	cfg.Sources.PubMed.APIKey = os.Getenv("OPENSHELF_SOURCES_PUBMED_API_KEY")
	cfg.Sources.CORE.APIKey = os.Getenv("OPENSHELF_SOURCES_CORE_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.search_ttl", "5m")
	v.SetDefault("cache.document_ttl", "24h")

	v.SetDefault("resolver.timeout", "15s")
	v.SetDefault("resolver.workers", 4)

	v.SetDefault("validator.head_check", false)

	for _, source := range []string{
		"openalex", "semantic_scholar", "arxiv", "pubmed", "core",
		"doaj", "openlibrary", "gutenberg", "opentextbooks", "doab",
	} {
		v.SetDefault("sources."+source+".enabled", true)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache backend %q requires redis_addr", c.Cache.Backend)
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.SearchTTL < 0 || c.Cache.DocumentTTL < 0 {
		return fmt.Errorf("cache TTLs must not be negative")
	}

	if c.Resolver.Workers < 0 {
		return fmt.Errorf("resolver workers must not be negative")
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
