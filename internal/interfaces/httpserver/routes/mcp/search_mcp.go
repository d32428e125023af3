package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/fetch"
)

// SearchArgs defines the arguments for the web_search tool.
type SearchArgs struct {
	Query          string   `json:"query"`
	Provider       string   `json:"provider"`
	MaxResults     *int     `json:"max_results,omitempty"`
	Cursor         *int     `json:"cursor,omitempty"`
	Language       *string  `json:"language,omitempty"`
	Country        *string  `json:"country,omitempty"`
	Freshness      *string  `json:"freshness,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
	IncludeAnswer  *bool    `json:"include_answer,omitempty"`
}

// FetchArgs defines the arguments for the fetch_url tool.
type FetchArgs struct {
	URL string `json:"url"`
}

type searchToolPayload struct {
	Provider string          `json:"provider"`
	Query    string          `json:"query"`
	Results  []search.Result `json:"results"`
}

type fetchToolPayload struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
}

// SearchMCP handles MCP tool registration for the search hub.
type SearchMCP struct {
	service *search.Service
	fetcher *fetch.Fetcher
}

func NewSearchMCP(service *search.Service, fetcher *fetch.Fetcher) *SearchMCP {
	return &SearchMCP{service: service, fetcher: fetcher}
}

// RegisterTools registers the web_search and fetch_url tools.
func (s *SearchMCP) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "web_search",
		Description: "Search the web through a named provider (brave, tavily, searxng, brightdata, scrapeless). Returns normalized results with title, url, content and a relevance score.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchArgs) (*mcp.CallToolResult, searchToolPayload, error) {
		q := search.Query{
			Text:           input.Query,
			IncludeDomains: input.IncludeDomains,
			ExcludeDomains: input.ExcludeDomains,
		}
		if input.MaxResults != nil {
			q.MaxResults = *input.MaxResults
		}
		if input.Cursor != nil {
			q.Cursor = *input.Cursor
		}
		if input.Language != nil {
			q.Language = *input.Language
		}
		if input.Country != nil {
			q.Country = *input.Country
		}
		if input.Freshness != nil {
			q.Freshness = *input.Freshness
		}
		if input.IncludeAnswer != nil {
			q.IncludeAnswer = *input.IncludeAnswer
		}

		results, err := s.service.Search(ctx, input.Provider, q)
		if err != nil {
			log.Warn().Err(err).Str("tool", "web_search").Msg("tool call failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, searchToolPayload{}, nil
		}
		if results == nil {
			results = []search.Result{}
		}
		return nil, searchToolPayload{
			Provider: input.Provider,
			Query:    input.Query,
			Results:  results,
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_url",
		Description: "Fetch a webpage over direct HTTP and return its visible text.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input FetchArgs) (*mcp.CallToolResult, fetchToolPayload, error) {
		page, err := s.fetcher.Fetch(ctx, input.URL)
		if err != nil {
			log.Warn().Err(err).Str("tool", "fetch_url").Msg("tool call failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, fetchToolPayload{}, nil
		}
		return nil, fetchToolPayload{
			URL:         page.URL,
			ContentType: page.ContentType,
			Text:        page.Text,
		}, nil
	})
}
