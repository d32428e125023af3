package providers

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/keypool"
)

const defaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave is a keyword-search adapter for the Brave Web Search API. Brave
// returns its own result shape and no per-result relevance, so every result
// scores 1.0 in provider order. Pages beyond the first are fetched through
// the shared pagination driver using Brave's offset parameter.
type Brave struct {
	client  *resty.Client
	guard   callGuard
	baseURL string
}

func NewBrave(client *resty.Client, pool *keypool.Pool, breaker *CircuitBreaker, retry RetryConfig, baseURL string) *Brave {
	if baseURL == "" {
		baseURL = defaultBraveURL
	}
	return &Brave{
		client:  client,
		guard:   callGuard{provider: "brave", pool: pool, breaker: breaker, retry: retry},
		baseURL: baseURL,
	}
}

func (b *Brave) Name() string { return "brave" }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *Brave) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	return paginate(ctx, q, func(ctx context.Context, start int) ([]search.Result, error) {
		return b.guard.do(ctx, "brave.search", func() ([]search.Result, error) {
			return b.fetchPage(ctx, q, start)
		})
	})
}

func (b *Brave) fetchPage(ctx context.Context, q search.Query, start int) ([]search.Result, error) {
	count := serpPageSize
	if limit := q.Limit(); limit < count {
		count = limit
	}
	params := map[string]string{
		"q":     q.Text,
		"count": strconv.Itoa(count),
		// Brave's offset is a page index, not a result offset.
		"offset":        strconv.Itoa(start / serpPageSize),
		"result_filter": "web",
	}
	if q.Country != "" {
		params["country"] = q.Country
	}
	if q.Language != "" {
		params["search_lang"] = q.Language
	}
	if q.Freshness != "" {
		params["freshness"] = q.Freshness
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("X-Subscription-Token", b.guard.pool.Next()).
		SetQueryParams(params).
		Get(b.baseURL)
	if err != nil {
		return nil, wrapTransportError("brave", err)
	}
	if resp.IsError() {
		return nil, classifyResponse("brave", resp)
	}

	var body braveResponse
	if err := decodeInto("brave", resp.Body(), &body); err != nil {
		return nil, err
	}

	results := make([]search.Result, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		if r.URL == "" && r.Description == "" {
			continue
		}
		results = append(results, search.Result{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Description,
			Score:   1.0,
		})
	}
	return results, nil
}
