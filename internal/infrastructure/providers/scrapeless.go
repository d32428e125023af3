package providers

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/keypool"
	"search-hub/internal/infrastructure/serpparse"
)

const defaultScrapelessURL = "https://api.scrapeless.com"

// Scrapeless scrapes Google SERPs through the Scrapeless scraper actor.
// The response carries organic_results in Google shape, normalized by the
// shared parser.
type Scrapeless struct {
	client  *resty.Client
	guard   callGuard
	cfg     serpparse.Config
	baseURL string
}

func NewScrapeless(client *resty.Client, pool *keypool.Pool, breaker *CircuitBreaker, retry RetryConfig, cfg serpparse.Config, baseURL string) *Scrapeless {
	if baseURL == "" {
		baseURL = defaultScrapelessURL
	}
	return &Scrapeless{
		client:  client,
		guard:   callGuard{provider: "scrapeless", pool: pool, breaker: breaker, retry: retry},
		cfg:     cfg,
		baseURL: baseURL,
	}
}

func (s *Scrapeless) Name() string { return "scrapeless" }

func (s *Scrapeless) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	return paginate(ctx, q, func(ctx context.Context, start int) ([]search.Result, error) {
		return s.guard.do(ctx, "scrapeless.search", func() ([]search.Result, error) {
			return s.fetchPage(ctx, q, start)
		})
	})
}

func (s *Scrapeless) fetchPage(ctx context.Context, q search.Query, start int) ([]search.Result, error) {
	input := map[string]any{
		"q":   q.Text,
		"num": strconv.Itoa(serpPageSize),
	}
	if start > 0 {
		input["start"] = strconv.Itoa(start)
	}
	if q.Language != "" {
		input["hl"] = q.Language
	}
	if q.Country != "" {
		input["gl"] = q.Country
	}
	payload := map[string]any{
		"actor": "scraper.google.search",
		"input": input,
		"async": false,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("X-API-Key", s.guard.pool.Next()).
		SetBody(payload).
		Post(s.baseURL + "/api/v1/scraper/request")
	if err != nil {
		return nil, wrapTransportError("scrapeless", err)
	}
	if resp.IsError() {
		return nil, classifyResponse("scrapeless", resp)
	}

	raw, err := decodeObject("scrapeless", resp.Body())
	if err != nil {
		return nil, err
	}
	return serpparse.Parse(raw, s.cfg), nil
}
