package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/keypool"
	"search-hub/internal/infrastructure/serpparse"
)

const (
	defaultBrightDataURL  = "https://api.brightdata.com/request"
	DefaultBrightDataZone = "mcp_unlocker"
)

// BrightData scrapes Google SERPs through the Bright Data unlocker API: the
// request names a Google search URL with brd_json=1 and the zone to route
// it through, the response is a Google-shaped JSON object handed to the
// shared normalizer.
type BrightData struct {
	client  *resty.Client
	guard   callGuard
	cfg     serpparse.Config
	zone    string
	baseURL string
}

func NewBrightData(client *resty.Client, pool *keypool.Pool, breaker *CircuitBreaker, retry RetryConfig, cfg serpparse.Config, zone, baseURL string) *BrightData {
	if zone == "" {
		zone = DefaultBrightDataZone
	}
	if baseURL == "" {
		baseURL = defaultBrightDataURL
	}
	return &BrightData{
		client:  client,
		guard:   callGuard{provider: "brightdata", pool: pool, breaker: breaker, retry: retry},
		cfg:     cfg,
		zone:    zone,
		baseURL: baseURL,
	}
}

func (b *BrightData) Name() string { return "brightdata" }

func (b *BrightData) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	return paginate(ctx, q, func(ctx context.Context, start int) ([]search.Result, error) {
		return b.guard.do(ctx, "brightdata.search", func() ([]search.Result, error) {
			return b.fetchPage(ctx, q, start)
		})
	})
}

func (b *BrightData) fetchPage(ctx context.Context, q search.Query, start int) ([]search.Result, error) {
	payload := map[string]any{
		"url":    googleSearchURL(q, start),
		"zone":   b.zone,
		"format": "raw",
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(b.guard.pool.Next()).
		SetBody(payload).
		Post(b.baseURL)
	if err != nil {
		return nil, wrapTransportError("brightdata", err)
	}
	// 422 means the zone cannot serve the request, which no retry or key
	// rotation will fix.
	if resp.StatusCode() == http.StatusUnprocessableEntity {
		return nil, search.NewError(search.KindConfiguration, "brightdata",
			"zone %q rejected (HTTP 422): %s", b.zone, excerpt(resp.String()))
	}
	if resp.IsError() {
		return nil, classifyResponse("brightdata", resp)
	}

	raw, err := decodeObject("brightdata", resp.Body())
	if err != nil {
		return nil, err
	}
	return serpparse.Parse(raw, b.cfg), nil
}

// googleSearchURL builds the Google query Bright Data should fetch.
// brd_json=1 asks the unlocker to return parsed SERP JSON instead of HTML.
func googleSearchURL(q search.Query, start int) string {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("num", strconv.Itoa(serpPageSize))
	if start > 0 {
		params.Set("start", strconv.Itoa(start))
	}
	if q.Language != "" {
		params.Set("hl", q.Language)
	}
	if q.Country != "" {
		params.Set("gl", q.Country)
	}
	params.Set("brd_json", "1")
	return "https://www.google.com/search?" + params.Encode()
}
