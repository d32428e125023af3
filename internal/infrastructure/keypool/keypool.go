// Package keypool rotates provider API keys round-robin and paces outbound
// requests so one provider's credentials are never burned faster than its
// rate limit allows.
package keypool

import (
	"context"
	"strings"
	"sync"
	"time"

	"search-hub/internal/domain/search"
)

// Pool hands out keys for one provider and enforces a minimum interval
// between requests. All methods are safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	provider string
	keys     []string
	cursor   int
	delay    time.Duration
	last     time.Time

	// Injectable for tests. Default to the real clock.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// ParseKeys splits a comma-separated credential list, trimming surrounding
// whitespace per entry. Empty entries are skipped; a key with interior
// whitespace means the list itself is malformed and is rejected outright.
func ParseKeys(raw string) ([]string, error) {
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		key := strings.TrimSpace(part)
		if key == "" {
			continue
		}
		if strings.ContainsAny(key, " \t\r\n") {
			return nil, search.NewError(search.KindConfiguration, "",
				"API key contains whitespace, check the credential list for a missing comma")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// New builds a pool from a raw comma-separated credential list. A list with
// zero usable keys is a configuration error so a misconfigured provider
// fails at startup, not on the first query.
func New(provider, raw string, delay time.Duration) (*Pool, error) {
	keys, err := ParseKeys(raw)
	if err != nil {
		return nil, search.WrapError(search.KindConfiguration, provider, err, "invalid credential list")
	}
	if len(keys) == 0 {
		return nil, search.NewError(search.KindConfiguration, provider, "no usable API keys configured")
	}
	return &Pool{
		provider: provider,
		keys:     keys,
		delay:    delay,
		now:      time.Now,
		sleep:    sleepCtx,
	}, nil
}

// NewUnauthenticated builds a pool that paces requests without holding any
// credentials, for back ends like a self-hosted SearXNG that need no key.
func NewUnauthenticated(provider string, delay time.Duration) *Pool {
	return &Pool{
		provider: provider,
		delay:    delay,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Len reports the number of keys in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Next returns the next key in round-robin order, or the empty string for
// an unauthenticated pool.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return ""
	}
	key := p.keys[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.keys)
	return key
}

// WaitForSlot blocks until the minimum interval since the previous request
// has elapsed, then claims the slot. The slot is reserved under the lock
// before sleeping so concurrent callers queue up at delay-sized intervals
// instead of stampeding when the current slot opens.
func (p *Pool) WaitForSlot(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}

	p.mu.Lock()
	now := p.now()
	next := p.last.Add(p.delay)
	if next.Before(now) {
		next = now
	}
	p.last = next
	wait := next.Sub(now)
	p.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return p.sleep(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
