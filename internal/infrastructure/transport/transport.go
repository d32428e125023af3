// Package transport builds the resty clients shared by every provider
// adapter. Retries are handled one layer up where the error kind is known,
// so the clients here never retry on their own.
package transport

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tunes the shared HTTP clients. Zero pool values fall back to the
// production defaults.
type Options struct {
	Timeout  time.Duration
	ProxyURL string

	MaxConnsPerHost int
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

func baseTransport(opts Options) *http.Transport {
	maxConns := opts.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = 50
	}
	maxIdle := opts.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 100
	}
	idleTimeout := opts.IdleConnTimeout
	if idleTimeout <= 0 {
		idleTimeout = 90 * time.Second
	}
	return &http.Transport{
		MaxIdleConns:        maxIdle,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     maxConns,
		IdleConnTimeout:     idleTimeout,
		ForceAttemptHTTP2:   true,
	}
}

// NewJSONClient returns the client used against provider APIs.
func NewJSONClient(opts Options) *resty.Client {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetTransport(baseTransport(opts))
	if opts.ProxyURL != "" {
		client.SetProxy(opts.ProxyURL)
	}
	return client
}

// NewBrowserClient returns a client with browser-like headers for back ends
// that reject obvious non-browser traffic, such as public SearXNG instances.
func NewBrowserClient(opts Options) *resty.Client {
	client := resty.New().
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36").
		SetHeader("Accept", "application/json, text/html;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetTransport(baseTransport(opts))
	if opts.ProxyURL != "" {
		client.SetProxy(opts.ProxyURL)
	}
	return client
}
