// Package main provides the entry point for the open access aggregation
// service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/openshelf/openaccess-service/internal/aggregator"
	"github.com/openshelf/openaccess-service/internal/cache"
	"github.com/openshelf/openaccess-service/internal/config"
	"github.com/openshelf/openaccess-service/internal/observability"
	"github.com/openshelf/openaccess-service/internal/openaccess"
	"github.com/openshelf/openaccess-service/internal/resolver"
	"github.com/openshelf/openaccess-service/internal/server"
	"github.com/openshelf/openaccess-service/internal/sources"
	"github.com/openshelf/openaccess-service/internal/sources/arxiv"
	"github.com/openshelf/openaccess-service/internal/sources/core"
	"github.com/openshelf/openaccess-service/internal/sources/doab"
	"github.com/openshelf/openaccess-service/internal/sources/doaj"
	"github.com/openshelf/openaccess-service/internal/sources/gutenberg"
	"github.com/openshelf/openaccess-service/internal/sources/openalex"
	"github.com/openshelf/openaccess-service/internal/sources/openlibrary"
	"github.com/openshelf/openaccess-service/internal/sources/opentextbooks"
	"github.com/openshelf/openaccess-service/internal/sources/pubmed"
	"github.com/openshelf/openaccess-service/internal/sources/semanticscholar"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	logger.Info().Msg("openaccess-service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := buildRegistry(cfg)
	logger.Info().Int("sources", len(registry.EnabledSources())).Msg("sources registered")

	validator := buildValidator(cfg)

	res := resolver.New(resolver.Config{
		Timeout:   cfg.Resolver.Timeout,
		UserAgent: cfg.Resolver.UserAgent,
	}, logger)

	gateway, closeStore := buildCache(ctx, cfg, logger)
	defer closeStore()

	service := aggregator.New(registry, validator, res, gateway, logger,
		aggregator.WithResolveWorkers(cfg.Resolver.Workers))

	srv := server.New(cfg.Server, service, logger)
	if err := srv.ListenAndServe(ctx, cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info().Msg("openaccess-service stopped")
	return nil
}

// buildRegistry constructs every source client from configuration and
// registers it. Disabled sources are still registered; the registry skips
// them at search time and flipping a source back on is a config change, not
// a rebuild.
func buildRegistry(cfg *config.Config) *sources.Registry {
	registry := sources.NewRegistry()

	registry.Register(openalex.New(openalex.Config{
		BaseURL:     cfg.Sources.OpenAlex.BaseURL,
		Email:       cfg.Sources.OpenAlex.Email,
		Timeout:     cfg.Sources.OpenAlex.Timeout,
		MinInterval: cfg.Sources.OpenAlex.MinInterval,
		MaxResults:  cfg.Sources.OpenAlex.MaxResults,
		Enabled:     cfg.Sources.OpenAlex.Enabled,
	}))
	registry.Register(semanticscholar.New(semanticscholar.Config{
		BaseURL:     cfg.Sources.SemanticScholar.BaseURL,
		APIKey:      cfg.Sources.SemanticScholar.APIKey,
		Timeout:     cfg.Sources.SemanticScholar.Timeout,
		MinInterval: cfg.Sources.SemanticScholar.MinInterval,
		MaxResults:  cfg.Sources.SemanticScholar.MaxResults,
		Enabled:     cfg.Sources.SemanticScholar.Enabled,
	}))
	registry.Register(arxiv.New(arxiv.Config{
		BaseURL:     cfg.Sources.ArXiv.BaseURL,
		Timeout:     cfg.Sources.ArXiv.Timeout,
		MinInterval: cfg.Sources.ArXiv.MinInterval,
		MaxResults:  cfg.Sources.ArXiv.MaxResults,
		Enabled:     cfg.Sources.ArXiv.Enabled,
	}))
	registry.Register(pubmed.New(pubmed.Config{
		BaseURL:     cfg.Sources.PubMed.BaseURL,
		APIKey:      cfg.Sources.PubMed.APIKey,
		Timeout:     cfg.Sources.PubMed.Timeout,
		MinInterval: cfg.Sources.PubMed.MinInterval,
		MaxResults:  cfg.Sources.PubMed.MaxResults,
		Enabled:     cfg.Sources.PubMed.Enabled,
	}))
	registry.Register(core.New(core.Config{
		BaseURL:     cfg.Sources.CORE.BaseURL,
		APIKey:      cfg.Sources.CORE.APIKey,
		Timeout:     cfg.Sources.CORE.Timeout,
		MinInterval: cfg.Sources.CORE.MinInterval,
		MaxResults:  cfg.Sources.CORE.MaxResults,
		Enabled:     cfg.Sources.CORE.Enabled,
	}))
	registry.Register(doaj.New(doaj.Config{
		BaseURL:     cfg.Sources.DOAJ.BaseURL,
		Timeout:     cfg.Sources.DOAJ.Timeout,
		MinInterval: cfg.Sources.DOAJ.MinInterval,
		MaxResults:  cfg.Sources.DOAJ.MaxResults,
		Enabled:     cfg.Sources.DOAJ.Enabled,
	}))
	registry.Register(openlibrary.New(openlibrary.Config{
		BaseURL:     cfg.Sources.OpenLibrary.BaseURL,
		Timeout:     cfg.Sources.OpenLibrary.Timeout,
		MinInterval: cfg.Sources.OpenLibrary.MinInterval,
		MaxResults:  cfg.Sources.OpenLibrary.MaxResults,
		Enabled:     cfg.Sources.OpenLibrary.Enabled,
	}))
	registry.Register(gutenberg.New(gutenberg.Config{
		BaseURL:     cfg.Sources.Gutenberg.BaseURL,
		Timeout:     cfg.Sources.Gutenberg.Timeout,
		MinInterval: cfg.Sources.Gutenberg.MinInterval,
		Enabled:     cfg.Sources.Gutenberg.Enabled,
	}))
	registry.Register(opentextbooks.New(opentextbooks.Config{
		BaseURL:     cfg.Sources.OpenTextbooks.BaseURL,
		Timeout:     cfg.Sources.OpenTextbooks.Timeout,
		MinInterval: cfg.Sources.OpenTextbooks.MinInterval,
		MaxResults:  cfg.Sources.OpenTextbooks.MaxResults,
		Enabled:     cfg.Sources.OpenTextbooks.Enabled,
	}))
	registry.Register(doab.New(doab.Config{
		BaseURL:     cfg.Sources.DOAB.BaseURL,
		Timeout:     cfg.Sources.DOAB.Timeout,
		MinInterval: cfg.Sources.DOAB.MinInterval,
		MaxResults:  cfg.Sources.DOAB.MaxResults,
		Enabled:     cfg.Sources.DOAB.Enabled,
	}))

	return registry
}

func buildValidator(cfg *config.Config) *openaccess.Validator {
	var opts []openaccess.Option
	if cfg.Validator.HeadCheck {
		opts = append(opts, openaccess.WithHeadCheck(nil))
	}
	return openaccess.New(opts...)
}

// buildCache selects the configured store. Redis being unreachable at boot
// degrades to the in-memory store with the same TTL semantics, logged
// loudly; the service stays up at the cost of cross-instance sharing.
func buildCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*cache.Gateway, func()) {
	opts := []cache.Option{}
	if cfg.Cache.SearchTTL > 0 {
		opts = append(opts, cache.WithSearchTTL(cfg.Cache.SearchTTL))
	}
	if cfg.Cache.DocumentTTL > 0 {
		opts = append(opts, cache.WithDocumentTTL(cfg.Cache.DocumentTTL))
	}

	if cfg.Cache.Backend == config.CacheBackendRedis {
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			logger.Error().Err(err).Str("addr", cfg.Cache.RedisAddr).
				Msg("redis unreachable, falling back to in-memory cache")
		} else {
			logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("redis cache connected")
			closeStore := func() {
				if err := store.Close(); err != nil {
					logger.Error().Err(err).Msg("closing redis store failed")
				}
			}
			return cache.NewGateway(store, opts...), closeStore
		}
	}

	logger.Info().Msg("using in-memory cache")
	return cache.NewGateway(cache.NewMemoryStore(), opts...), func() {}
}
