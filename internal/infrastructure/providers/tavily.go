package providers

import (
	"context"

	"github.com/go-resty/resty/v2"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/keypool"
)

const (
	defaultTavilyURL = "https://api.tavily.com/search"

	// tavilyMaxResults is the upstream cap on max_results per request.
	tavilyMaxResults = 20
)

// Tavily is a keyword-search adapter for the Tavily search API. Tavily
// supplies its own relevance score per result, passed through clamped, and
// can synthesize an LLM answer that is surfaced as a leading result with an
// empty URL and full score.
type Tavily struct {
	client  *resty.Client
	guard   callGuard
	baseURL string
}

func NewTavily(client *resty.Client, pool *keypool.Pool, breaker *CircuitBreaker, retry RetryConfig, baseURL string) *Tavily {
	if baseURL == "" {
		baseURL = defaultTavilyURL
	}
	return &Tavily{
		client:  client,
		guard:   callGuard{provider: "tavily", pool: pool, breaker: breaker, retry: retry},
		baseURL: baseURL,
	}
}

func (t *Tavily) Name() string { return "tavily" }

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	return t.guard.do(ctx, "tavily.search", func() ([]search.Result, error) {
		return t.fetch(ctx, q)
	})
}

func (t *Tavily) fetch(ctx context.Context, q search.Query) ([]search.Result, error) {
	maxResults := q.Limit()
	if maxResults > tavilyMaxResults {
		maxResults = tavilyMaxResults
	}
	payload := map[string]any{
		"query":          q.Text,
		"max_results":    maxResults,
		"include_answer": q.IncludeAnswer,
	}
	if len(q.IncludeDomains) > 0 {
		payload["include_domains"] = q.IncludeDomains
	}
	if len(q.ExcludeDomains) > 0 {
		payload["exclude_domains"] = q.ExcludeDomains
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(t.guard.pool.Next()).
		SetBody(payload).
		Post(t.baseURL)
	if err != nil {
		return nil, wrapTransportError("tavily", err)
	}
	if resp.IsError() {
		return nil, classifyResponse("tavily", resp)
	}

	var body tavilyResponse
	if err := decodeInto("tavily", resp.Body(), &body); err != nil {
		return nil, err
	}

	results := make([]search.Result, 0, len(body.Results)+1)
	if q.IncludeAnswer && body.Answer != "" {
		results = append(results, search.Result{
			Title:   "AI Generated Answer",
			URL:     "",
			Content: body.Answer,
			Score:   1.0,
		})
	}
	for _, r := range body.Results {
		if r.URL == "" && r.Content == "" {
			continue
		}
		results = append(results, search.Result{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   search.ClampScore(r.Score),
		})
	}
	return results, nil
}
