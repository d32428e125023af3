package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/keypool"
	"search-hub/internal/infrastructure/serpparse"
	"search-hub/internal/infrastructure/transport"
)

func testRetryConfig() RetryConfig {
	return RetryConfig{
		TransientAttempts: 2,
		InitialDelay:      time.Millisecond,
		MaxDelay:          2 * time.Millisecond,
		BackoffFactor:     1.0,
	}
}

func testPool(t *testing.T) *keypool.Pool {
	t.Helper()
	pool, err := keypool.New("test", "key-a,key-b,key-c", 0)
	if err != nil {
		t.Fatalf("keypool.New: %v", err)
	}
	return pool
}

func TestWithRetryDecisionTable(t *testing.T) {
	cases := []struct {
		name      string
		err       *search.Error
		wantCalls int
	}{
		{"authentication fails fast", search.NewError(search.KindAuthentication, "p", "denied"), 1},
		{"parse fails fast", search.NewError(search.KindParse, "p", "bad json"), 1},
		{"configuration fails fast", search.NewError(search.KindConfiguration, "p", "no zone"), 1},
		{"rate limit retried once", search.NewError(search.KindRateLimit, "p", "throttled"), 2},
		{"transient retried twice", search.NewError(search.KindTransient, "p", "HTTP 503"), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			_, err := WithRetry(context.Background(), testRetryConfig(), "op", func() (int, error) {
				calls++
				return 0, tc.err
			})
			if err == nil {
				t.Fatal("expected the error to surface")
			}
			if calls != tc.wantCalls {
				t.Fatalf("fn called %d times, want %d", calls, tc.wantCalls)
			}
		})
	}
}

func TestWithRetryHonorsRetryAfter(t *testing.T) {
	hint := 5 * time.Millisecond
	calls := 0
	start := time.Now()
	got, err := WithRetry(context.Background(), testRetryConfig(), "op", func() (string, error) {
		calls++
		if calls == 1 {
			return "", &search.Error{Kind: search.KindRateLimit, Provider: "p", Message: "throttled", RetryAfter: hint}
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("got (%q, %v), want success on second attempt", got, err)
	}
	if elapsed := time.Since(start); elapsed < hint {
		t.Fatalf("retried after %v, want at least the %v hint", elapsed, hint)
	}
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), testRetryConfig(), "op", func() (int, error) {
		calls++
		if calls < 3 {
			return 0, search.NewError(search.KindTransient, "p", "timeout")
		}
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("got (%d, %v), want (42, nil)", got, err)
	}
	if calls != 3 {
		t.Fatalf("fn called %d times, want 3", calls)
	}
}

func TestClassifyResponse(t *testing.T) {
	cases := []struct {
		status int
		want   search.ErrorKind
	}{
		{401, search.KindAuthentication},
		{403, search.KindAuthentication},
		{429, search.KindRateLimit},
		{500, search.KindTransient},
		{503, search.KindTransient},
		{400, search.KindTransient},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("status %d", tc.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.status == 429 {
					w.Header().Set("Retry-After", "7")
				}
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			resp, err := transport.NewJSONClient(transport.Options{Timeout: time.Second}).
				R().Get(server.URL)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			kindErr := classifyResponse("p", resp)
			if kind := search.KindOf(kindErr); kind != tc.want {
				t.Fatalf("KindOf = %q, want %q", kind, tc.want)
			}
			if tc.status == 429 {
				if ra := search.RetryAfterOf(kindErr); ra != 7*time.Second {
					t.Fatalf("RetryAfter = %v, want 7s", ra)
				}
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("30"); got != 30*time.Second {
		t.Fatalf("parseRetryAfter(30) = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Fatalf("parseRetryAfter(empty) = %v", got)
	}
	if got := parseRetryAfter("garbage"); got != 0 {
		t.Fatalf("parseRetryAfter(garbage) = %v", got)
	}
}

func brightDataPage(start, count int) map[string]any {
	entries := make([]any, 0, count)
	for i := 0; i < count; i++ {
		rank := start + i + 1
		entries = append(entries, map[string]any{
			"link":        fmt.Sprintf("https://example.com/%d", rank),
			"title":       fmt.Sprintf("Result %d", rank),
			"description": "snippet",
			"rank":        rank,
		})
	}
	return map[string]any{"organic": entries}
}

func TestBrightDataPagination(t *testing.T) {
	var starts []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			URL    string `json:"url"`
			Zone   string `json:"zone"`
			Format string `json:"format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		u, err := url.Parse(payload.URL)
		if err != nil {
			t.Errorf("bad google url %q: %v", payload.URL, err)
		}
		if u.Query().Get("brd_json") != "1" {
			t.Errorf("google url missing brd_json=1: %q", payload.URL)
		}
		start := 0
		if s := u.Query().Get("start"); s != "" {
			fmt.Sscanf(s, "%d", &start)
		}
		starts = append(starts, start)
		json.NewEncoder(w).Encode(brightDataPage(start, 20))
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: 5 * time.Second})
	adapter := NewBrightData(client, testPool(t), nil, testRetryConfig(),
		serpparse.Defaults()["brightdata"], "test_zone", server.URL)

	results, err := adapter.Search(context.Background(), search.Query{Text: "golang", MaxResults: 50})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 50 {
		t.Fatalf("got %d results, want 50", len(results))
	}
	wantStarts := []int{0, 20, 40}
	if len(starts) != len(wantStarts) {
		t.Fatalf("server saw %d requests (%v), want 3", len(starts), starts)
	}
	for i := range wantStarts {
		if starts[i] != wantStarts[i] {
			t.Fatalf("request starts = %v, want %v", starts, wantStarts)
		}
	}
	// Rank 1 scores 0.95 per the shared position formula.
	if results[0].Score != 0.95 || results[0].URL != "https://example.com/1" {
		t.Fatalf("first result %+v", results[0])
	}
}

func TestBrightDataCursorSelectsPage(t *testing.T) {
	var starts []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			URL string `json:"url"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		u, _ := url.Parse(payload.URL)
		start := 0
		fmt.Sscanf(u.Query().Get("start"), "%d", &start)
		starts = append(starts, start)
		json.NewEncoder(w).Encode(brightDataPage(start, 10))
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: 5 * time.Second})
	adapter := NewBrightData(client, testPool(t), nil, testRetryConfig(),
		serpparse.Defaults()["brightdata"], "test_zone", server.URL)

	results, err := adapter.Search(context.Background(), search.Query{Text: "golang", MaxResults: 5, Cursor: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(starts) != 1 || starts[0] != 40 {
		t.Fatalf("starts = %v, want [40]", starts)
	}
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
}

func TestBrightDataBadZoneIsConfigurationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"zone not found"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: time.Second})
	adapter := NewBrightData(client, testPool(t), nil, testRetryConfig(),
		serpparse.Defaults()["brightdata"], "bogus", server.URL)

	_, err := adapter.Search(context.Background(), search.Query{Text: "golang"})
	if kind := search.KindOf(err); kind != search.KindConfiguration {
		t.Fatalf("KindOf = %q, want configuration", kind)
	}
}

func TestBrightDataNonObjectBodyIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["not", "an", "object"]`))
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: time.Second})
	adapter := NewBrightData(client, testPool(t), nil, testRetryConfig(),
		serpparse.Defaults()["brightdata"], "test_zone", server.URL)

	_, err := adapter.Search(context.Background(), search.Query{Text: "golang"})
	if kind := search.KindOf(err); kind != search.KindParse {
		t.Fatalf("KindOf = %q, want parse", kind)
	}
}

func TestScrapelessShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/scraper/request" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") == "" {
			t.Error("missing X-API-Key header")
		}
		var payload struct {
			Actor string `json:"actor"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Actor != "scraper.google.search" {
			t.Errorf("actor = %q", payload.Actor)
		}
		fmt.Fprint(w, `{
			"organic_results": [
				{"link": "https://y", "redirect_link": "https://y-redir", "snippet": "S", "position": 3, "title": "Y"}
			]
		}`)
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: time.Second})
	adapter := NewScrapeless(client, testPool(t), nil, testRetryConfig(),
		serpparse.Defaults()["scrapeless"], server.URL)

	results, err := adapter.Search(context.Background(), search.Query{Text: "golang"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].URL != "https://y" || results[0].Score != 0.85 {
		t.Fatalf("results = %+v", results)
	}
}

func TestBraveRotatesKeysAcrossRequests(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-Subscription-Token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"web": {"results": [
			{"title": "T", "url": "https://b", "description": "D"}
		]}}`)
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: time.Second})
	adapter := NewBrave(client, testPool(t), nil, testRetryConfig(), server.URL)

	for i := 0; i < 4; i++ {
		results, err := adapter.Search(context.Background(), search.Query{Text: "golang", MaxResults: 1})
		if err != nil {
			t.Fatalf("Search #%d: %v", i, err)
		}
		if len(results) != 1 || results[0].Score != 1.0 {
			t.Fatalf("results = %+v", results)
		}
	}
	want := []string{"key-a", "key-b", "key-c", "key-a"}
	if len(seen) != len(want) {
		t.Fatalf("server saw %d requests, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("key order = %v, want %v", seen, want)
		}
	}
}

func TestTavilyAnswerComesFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			IncludeAnswer bool `json:"include_answer"`
			MaxResults    int  `json:"max_results"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if !payload.IncludeAnswer {
			t.Error("include_answer not forwarded")
		}
		if payload.MaxResults != 20 {
			t.Errorf("max_results = %d, want clamped to 20", payload.MaxResults)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"answer": "Go is a programming language.",
			"results": [
				{"title": "golang.org", "url": "https://go.dev", "content": "The Go site", "score": 0.97}
			]
		}`)
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: time.Second})
	adapter := NewTavily(client, testPool(t), nil, testRetryConfig(), server.URL)

	results, err := adapter.Search(context.Background(), search.Query{Text: "golang", MaxResults: 99, IncludeAnswer: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	first := results[0]
	if first.Title != "AI Generated Answer" || first.URL != "" || first.Score != 1.0 {
		t.Fatalf("answer entry = %+v", first)
	}
	if results[1].Score != 0.97 {
		t.Fatalf("native score not passed through: %+v", results[1])
	}
}

func TestSearXNGSortsByScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("format = %q", r.URL.Query().Get("format"))
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageno") != "1" {
			// Only one page of content; further pages are empty.
			fmt.Fprint(w, `{"results": []}`)
			return
		}
		fmt.Fprint(w, `{"results": [
			{"title": "low", "url": "https://low", "content": "c", "score": 0.2},
			{"title": "high", "url": "https://high", "content": "c", "score": 0.9},
			{"title": "mid", "url": "https://mid", "content": "c", "score": 0.5}
		]}`)
	}))
	defer server.Close()

	client := transport.NewBrowserClient(transport.Options{Timeout: time.Second})
	pool := keypool.NewUnauthenticated("searxng", 0)
	adapter := NewSearXNG(client, pool, nil, testRetryConfig(), server.URL)

	results, err := adapter.Search(context.Background(), search.Query{Text: "golang", MaxResults: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"https://high", "https://mid", "https://low"}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, w := range want {
		if results[i].URL != w {
			t.Fatalf("order = %+v, want %v", results, want)
		}
	}
}

func TestBraveTruncatedBodyIsParseErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"web": {"results": [`)
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: time.Second})
	adapter := NewBrave(client, testPool(t), nil, testRetryConfig(), server.URL)

	results, err := adapter.Search(context.Background(), search.Query{Text: "golang"})
	if kind := search.KindOf(err); kind != search.KindParse {
		t.Fatalf("KindOf = %q (err %v), want parse", kind, err)
	}
	if calls != 1 {
		t.Fatalf("server saw %d calls, want 1 (parse errors are not retried)", calls)
	}
	if results != nil {
		t.Fatalf("results = %+v, want nil alongside the error", results)
	}
}

func TestBraveNonJSONBodyIsParseErrorNotEmptySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html>captive portal</html>`)
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: time.Second})
	adapter := NewBrave(client, testPool(t), nil, testRetryConfig(), server.URL)

	_, err := adapter.Search(context.Background(), search.Query{Text: "golang"})
	if err == nil {
		t.Fatal("expected an error, got silent success for a non-JSON body")
	}
	if kind := search.KindOf(err); kind != search.KindParse {
		t.Fatalf("KindOf = %q, want parse", kind)
	}
}

func TestTavilyMalformedBodyIsParseError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results": [{"title": `)
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: time.Second})
	adapter := NewTavily(client, testPool(t), nil, testRetryConfig(), server.URL)

	_, err := adapter.Search(context.Background(), search.Query{Text: "golang"})
	if kind := search.KindOf(err); kind != search.KindParse {
		t.Fatalf("KindOf = %q, want parse", kind)
	}
	if calls != 1 {
		t.Fatalf("server saw %d calls, want 1", calls)
	}
}

func TestSearXNGMalformedBodyIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html>rate limited, but politely</html>`)
	}))
	defer server.Close()

	client := transport.NewBrowserClient(transport.Options{Timeout: time.Second})
	adapter := NewSearXNG(client, keypool.NewUnauthenticated("searxng", 0), nil, testRetryConfig(), server.URL)

	_, err := adapter.Search(context.Background(), search.Query{Text: "golang"})
	if kind := search.KindOf(err); kind != search.KindParse {
		t.Fatalf("KindOf = %q, want parse", kind)
	}
}

func TestAuthFailureSurfacesWithoutRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := transport.NewJSONClient(transport.Options{Timeout: time.Second})
	adapter := NewBrave(client, testPool(t), nil, testRetryConfig(), server.URL)

	_, err := adapter.Search(context.Background(), search.Query{Text: "golang"})
	if kind := search.KindOf(err); kind != search.KindAuthentication {
		t.Fatalf("KindOf = %q, want authentication", kind)
	}
	if calls != 1 {
		t.Fatalf("server saw %d calls, want 1 (no retry)", calls)
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("p", CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          time.Hour,
		MaxHalfOpenCalls: 1,
	})
	boom := search.NewError(search.KindTransient, "p", "boom")
	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return boom }); err == nil {
			t.Fatal("expected failure")
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	executed := false
	err := cb.Execute(func() error { executed = true; return nil })
	if executed {
		t.Fatal("open breaker still executed the call")
	}
	if kind := search.KindOf(err); kind != search.KindTransient {
		t.Fatalf("open breaker error kind = %q, want transient", kind)
	}
}
