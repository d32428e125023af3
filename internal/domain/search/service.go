package search

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"search-hub/internal/infrastructure/metrics"
)

// Service is the façade in front of the provider registry. It resolves the
// provider, applies the default timeout and records the outcome in logs and
// the searches_total counter, so REST and MCP callers count alike; everything
// provider-specific lives behind the Provider interface.
type Service struct {
	registry *Registry
	timeout  time.Duration
}

func NewService(registry *Registry, timeout time.Duration) *Service {
	return &Service{registry: registry, timeout: timeout}
}

// Providers lists the names accepted by Search.
func (s *Service) Providers() []string {
	return s.registry.Names()
}

// Search runs a query against the named provider. Unknown names fail fast
// with an unknown_provider error listing the registered back ends.
func (s *Service) Search(ctx context.Context, provider string, q Query) ([]Result, error) {
	p, ok := s.registry.Get(provider)
	if !ok {
		metrics.RecordSearch(strings.ToLower(strings.TrimSpace(provider)), string(KindUnknownProvider), 0)
		return nil, NewError(KindUnknownProvider, "",
			"no provider named %q, available: %s", provider, strings.Join(s.registry.Names(), ", "))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := p.Search(ctx, q)
	if err != nil {
		metrics.RecordSearch(p.Name(), string(KindOf(err)), time.Since(start).Seconds())
		log.Warn().
			Err(err).
			Str("provider", p.Name()).
			Str("query", q.Text).
			Msg("Search failed")
		return nil, err
	}

	metrics.RecordSearch(p.Name(), "ok", time.Since(start).Seconds())
	log.Info().
		Str("provider", p.Name()).
		Str("query", q.Text).
		Int("result_count", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Search completed")
	return results, nil
}
