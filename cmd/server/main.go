package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/config"
	"search-hub/internal/infrastructure/fetch"
	"search-hub/internal/infrastructure/keypool"
	"search-hub/internal/infrastructure/logger"
	"search-hub/internal/infrastructure/providers"
	"search-hub/internal/infrastructure/serpparse"
	"search-hub/internal/infrastructure/transport"
	"search-hub/internal/interfaces/httpserver"
	"search-hub/internal/interfaces/httpserver/routes"
	"search-hub/internal/interfaces/httpserver/routes/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Msg("Starting search hub")

	registry, err := buildRegistry(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build provider registry")
	}
	if len(registry.Names()) == 0 {
		log.Warn().Msg("No search providers configured")
	} else {
		log.Info().Strs("providers", registry.Names()).Msg("Providers registered")
	}

	service := search.NewService(registry, cfg.Timeout())

	browserClient := transport.NewBrowserClient(transportOptions(cfg))
	fetcher := fetch.NewFetcher(browserClient, retryConfig(cfg))

	webRoute := routes.NewWebRoute(service, fetcher)
	mcpRoute := mcp.NewMCPRoute(mcp.NewSearchMCP(service, fetcher))

	server := httpserver.NewHTTPServer(cfg, webRoute, mcpRoute)
	log.Info().Str("address", ":"+cfg.HTTPPort).Msg("Server listening")
	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func transportOptions(cfg *config.Config) transport.Options {
	return transport.Options{
		Timeout:         cfg.Timeout(),
		ProxyURL:        cfg.HTTPProxy,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: time.Duration(cfg.IdleConnTimeout) * time.Second,
	}
}

func retryConfig(cfg *config.Config) providers.RetryConfig {
	return providers.RetryConfig{
		TransientAttempts: cfg.RetryTransientAttempts,
		InitialDelay:      time.Duration(cfg.RetryInitialDelayMS) * time.Millisecond,
		MaxDelay:          time.Duration(cfg.RetryMaxDelayMS) * time.Millisecond,
		BackoffFactor:     cfg.RetryBackoffFactor,
	}
}

func breakerConfig(cfg *config.Config) providers.CircuitBreakerConfig {
	return providers.CircuitBreakerConfig{
		Enabled:          cfg.CBEnabled,
		FailureThreshold: cfg.CBFailureThreshold,
		SuccessThreshold: cfg.CBSuccessThreshold,
		Timeout:          time.Duration(cfg.CBTimeout) * time.Second,
		MaxHalfOpenCalls: cfg.CBMaxHalfOpen,
	}
}

func secondsDelay(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// buildRegistry registers every provider whose credentials resolve.
// Providers without credentials are skipped with a log line rather than
// failing startup; SearXNG only needs an instance URL.
func buildRegistry(cfg *config.Config) (*search.Registry, error) {
	retry := retryConfig(cfg)
	breaker := breakerConfig(cfg)
	opts := transportOptions(cfg)
	jsonClient := transport.NewJSONClient(opts)
	browserClient := transport.NewBrowserClient(opts)

	serpConfigs, err := serpparse.Load(cfg.SERPFieldMapFile)
	if err != nil {
		return nil, err
	}

	registry := search.NewRegistry()

	register := func(name, inline, file string, delay time.Duration, build func(pool *keypool.Pool) search.Provider) error {
		raw, err := config.ResolveCredential(inline, file)
		if err != nil {
			return fmt.Errorf("resolving %s credentials: %w", name, err)
		}
		if raw == "" {
			log.Info().Str("provider", name).Msg("Provider skipped, no credentials configured")
			return nil
		}
		pool, err := keypool.New(name, raw, delay)
		if err != nil {
			return err
		}
		registry.Register(build(pool))
		return nil
	}

	if err := register("brave", cfg.BraveAPIKey, cfg.BraveAPIKeyFile, secondsDelay(cfg.BraveRateDelay), func(pool *keypool.Pool) search.Provider {
		return providers.NewBrave(jsonClient, pool, providers.NewCircuitBreaker("brave", breaker), retry, "")
	}); err != nil {
		return nil, err
	}

	if err := register("tavily", cfg.TavilyAPIKey, cfg.TavilyAPIKeyFile, secondsDelay(cfg.TavilyRateDelay), func(pool *keypool.Pool) search.Provider {
		return providers.NewTavily(jsonClient, pool, providers.NewCircuitBreaker("tavily", breaker), retry, "")
	}); err != nil {
		return nil, err
	}

	if err := register("brightdata", cfg.BrightDataAPIKey, cfg.BrightDataAPIKeyFile, secondsDelay(cfg.BrightDataRateDelay), func(pool *keypool.Pool) search.Provider {
		return providers.NewBrightData(jsonClient, pool, providers.NewCircuitBreaker("brightdata", breaker), retry,
			serpConfigs["brightdata"], cfg.BrightDataZone, "")
	}); err != nil {
		return nil, err
	}

	if err := register("scrapeless", cfg.ScrapelessAPIKey, cfg.ScrapelessAPIKeyFile, secondsDelay(cfg.ScrapelessRateDelay), func(pool *keypool.Pool) search.Provider {
		return providers.NewScrapeless(jsonClient, pool, providers.NewCircuitBreaker("scrapeless", breaker), retry,
			serpConfigs["scrapeless"], "")
	}); err != nil {
		return nil, err
	}

	if cfg.SearxngURL != "" {
		pool := keypool.NewUnauthenticated("searxng", secondsDelay(cfg.SearxngRateDelay))
		registry.Register(providers.NewSearXNG(browserClient, pool,
			providers.NewCircuitBreaker("searxng", breaker), retry, cfg.SearxngURL))
	} else {
		log.Info().Str("provider", "searxng").Msg("Provider skipped, no instance URL configured")
	}

	return registry, nil
}
