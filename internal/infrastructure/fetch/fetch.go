// Package fetch retrieves a webpage over direct HTTP and reduces it to the
// text a reader would see, for callers that want page content rather than
// search results.
package fetch

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/providers"
)

// Page is one fetched document.
type Page struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
}

// Fetcher fetches pages with the browser-header client so that hosts which
// block obvious bots still answer.
type Fetcher struct {
	client *resty.Client
	retry  providers.RetryConfig
}

func NewFetcher(client *resty.Client, retry providers.RetryConfig) *Fetcher {
	return &Fetcher{client: client, retry: retry}
}

// Fetch retrieves the URL and extracts its visible text. HTML is reduced to
// the concatenated text nodes outside script and style elements; any other
// content type is returned as-is.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, search.NewError(search.KindParse, "", "url must be http or https: %q", url)
	}

	return providers.WithRetry(ctx, f.retry, "fetch", func() (*Page, error) {
		resp, err := f.client.R().
			SetContext(ctx).
			Get(url)
		if err != nil {
			return nil, search.WrapError(search.KindTransient, "", err, "fetch failed for %s", url)
		}
		if resp.IsError() {
			return nil, search.NewError(search.KindTransient, "",
				"fetch of %s answered HTTP %d", url, resp.StatusCode())
		}

		body := resp.Body()
		text := string(body)
		contentType := resp.Header().Get("Content-Type")
		if strings.Contains(contentType, "html") {
			if visible := extractVisibleText(body); visible != "" {
				text = visible
			}
		}
		return &Page{URL: url, ContentType: contentType, Text: text}, nil
	})
}

func extractVisibleText(htmlBytes []byte) string {
	doc, err := html.Parse(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return ""
	}

	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			val := strings.TrimSpace(n.Data)
			if val != "" {
				if builder.Len() > 0 {
					builder.WriteString(" ")
				}
				builder.WriteString(val)
			}
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return builder.String()
}
