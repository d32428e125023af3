package providers

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/keypool"
)

// searxngMaxResults bounds total results fetched across pages.
const searxngMaxResults = 50

// SearXNG is a keyword-search adapter for a SearXNG instance's JSON API.
// No credentials are involved; the pool only paces requests. SearXNG
// returns its own relevance scores and this adapter sorts its output by
// score descending, matching how consumers expect a metasearch page to
// read. Public instances often reject non-browser clients, so the adapter
// should run on the browser-header transport.
type SearXNG struct {
	client  *resty.Client
	guard   callGuard
	baseURL string
}

func NewSearXNG(client *resty.Client, pool *keypool.Pool, breaker *CircuitBreaker, retry RetryConfig, baseURL string) *SearXNG {
	return &SearXNG{
		client:  client,
		guard:   callGuard{provider: "searxng", pool: pool, breaker: breaker, retry: retry},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *SearXNG) Name() string { return "searxng" }

type searxngResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func (s *SearXNG) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	limit := q.Limit()
	if limit > searxngMaxResults {
		limit = searxngMaxResults
	}

	var out []search.Result
	for pageno := q.Cursor + 1; len(out) < limit; pageno++ {
		page, err := s.guard.do(ctx, "searxng.search", func() ([]search.Result, error) {
			return s.fetchPage(ctx, q, pageno)
		})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		out = append(out, page...)
	}
	if len(out) > limit {
		out = out[:limit]
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *SearXNG) fetchPage(ctx context.Context, q search.Query, pageno int) ([]search.Result, error) {
	params := map[string]string{
		"format": "json",
		"q":      q.Text,
		"pageno": strconv.Itoa(pageno),
	}
	if q.Language != "" {
		params["language"] = q.Language
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(s.baseURL + "/search")
	if err != nil {
		return nil, wrapTransportError("searxng", err)
	}
	if resp.IsError() {
		return nil, classifyResponse("searxng", resp)
	}

	var body searxngResponse
	if err := decodeInto("searxng", resp.Body(), &body); err != nil {
		return nil, err
	}

	results := make([]search.Result, 0, len(body.Results))
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
