// Package providers holds the adapters for every search back end, plus the
// retry loop, circuit breaker and pagination driver they share.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/keypool"
	"search-hub/internal/infrastructure/metrics"
)

const bodyExcerptLen = 200

// callGuard wraps every outbound provider request in the shared protection
// stack: rate-limit slot, circuit breaker, taxonomy-keyed retries, metrics.
type callGuard struct {
	provider string
	pool     *keypool.Pool
	breaker  *CircuitBreaker
	retry    RetryConfig
}

// do runs one outbound request. Each retry attempt claims its own
// rate-limit slot so retries stay inside the provider's request budget.
func (g *callGuard) do(ctx context.Context, operation string, call func() ([]search.Result, error)) ([]search.Result, error) {
	return WithRetry(ctx, g.retry, operation, func() ([]search.Result, error) {
		if err := g.pool.WaitForSlot(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		var results []search.Result
		err := g.breaker.Execute(func() error {
			var callErr error
			results, callErr = call()
			return callErr
		})
		metrics.RecordProviderLatency(g.provider, time.Since(start).Seconds())
		metrics.SetCircuitBreakerState(g.provider, g.breaker.State().String())

		if err != nil {
			return nil, err
		}
		return results, nil
	})
}

// classifyResponse maps a non-2xx upstream response onto the error
// taxonomy. The body excerpt travels with the error so failures are
// diagnosable from logs alone.
func classifyResponse(provider string, resp *resty.Response) error {
	status := resp.StatusCode()
	body := excerpt(resp.String())

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return search.NewError(search.KindAuthentication, provider,
			"upstream rejected credentials (HTTP %d): %s", status, body)
	case status == http.StatusTooManyRequests:
		return &search.Error{
			Kind:       search.KindRateLimit,
			Provider:   provider,
			Message:    "upstream rate limit (HTTP 429): " + body,
			RetryAfter: parseRetryAfter(resp.Header().Get("Retry-After")),
		}
	case status >= 500:
		return search.NewError(search.KindTransient, provider,
			"upstream failure (HTTP %d): %s", status, body)
	default:
		return search.NewError(search.KindTransient, provider,
			"unexpected upstream status (HTTP %d): %s", status, body)
	}
}

// wrapTransportError classifies a failed outbound call. Timeouts and
// connection failures are transient; a caller-cancelled context passes
// through untouched so the retry loop stops instead of retrying it.
func wrapTransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return search.WrapError(search.KindTransient, provider, err, "request failed")
}

// decodeInto parses a 2xx response body into the adapter's typed shape.
// Malformed JSON is a parse failure: retrying would fetch the same body,
// and returning an empty result list would hide the breakage from callers.
func decodeInto(provider string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return search.WrapError(search.KindParse, provider, err,
			"malformed response body: %s", excerpt(string(body)))
	}
	return nil
}

// decodeObject parses a response body that must be a JSON object. Anything
// else is a parse failure at this adapter, before the normalizer runs.
func decodeObject(provider string, body []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, search.WrapError(search.KindParse, provider, err,
			"response is not a JSON object: %s", excerpt(string(body)))
	}
	return raw, nil
}

// parseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. Zero means no usable hint.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func excerpt(body string) string {
	if len(body) > bodyExcerptLen {
		return body[:bodyExcerptLen] + "..."
	}
	return body
}
