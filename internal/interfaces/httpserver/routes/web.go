package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"search-hub/internal/domain/search"
	"search-hub/internal/infrastructure/fetch"
	"search-hub/internal/interfaces/httpserver/responses"
)

// SearchRequest is the REST search payload. Provider may instead come from
// the URL path.
type SearchRequest struct {
	Provider       string   `json:"provider"`
	Query          string   `json:"query" binding:"required"`
	MaxResults     int      `json:"max_results"`
	Cursor         int      `json:"cursor"`
	Language       string   `json:"language"`
	Country        string   `json:"country"`
	Freshness      string   `json:"freshness"`
	IncludeDomains []string `json:"include_domains"`
	ExcludeDomains []string `json:"exclude_domains"`
	IncludeAnswer  bool     `json:"include_answer"`
}

// FetchRequest is the REST fetch payload.
type FetchRequest struct {
	URL string `json:"url" binding:"required"`
}

// WebRoute exposes the search service and fetcher over REST.
type WebRoute struct {
	service *search.Service
	fetcher *fetch.Fetcher
}

func NewWebRoute(service *search.Service, fetcher *fetch.Fetcher) *WebRoute {
	return &WebRoute{service: service, fetcher: fetcher}
}

func (route *WebRoute) RegisterRouter(router *gin.RouterGroup) {
	web := router.Group("/web")
	web.POST("/search", route.handleSearch)
	web.POST("/search/:provider", route.handleSearch)
	web.POST("/fetch", route.handleFetch)
	web.GET("/providers", route.handleProviders)
}

func (route *WebRoute) handleSearch(reqCtx *gin.Context) {
	var req SearchRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleValidationError(reqCtx, "invalid search request: "+err.Error())
		return
	}

	provider := reqCtx.Param("provider")
	if provider == "" {
		provider = req.Provider
	}
	if strings.TrimSpace(provider) == "" {
		responses.HandleValidationError(reqCtx, "provider is required")
		return
	}

	results, err := route.service.Search(reqCtx.Request.Context(), provider, search.Query{
		Text:           req.Query,
		MaxResults:     req.MaxResults,
		Cursor:         req.Cursor,
		Language:       req.Language,
		Country:        req.Country,
		Freshness:      req.Freshness,
		IncludeDomains: req.IncludeDomains,
		ExcludeDomains: req.ExcludeDomains,
		IncludeAnswer:  req.IncludeAnswer,
	})
	if err != nil {
		responses.HandleError(reqCtx, err)
		return
	}

	if results == nil {
		results = []search.Result{}
	}
	reqCtx.JSON(http.StatusOK, responses.SearchResponse{
		Provider: strings.ToLower(provider),
		Results:  results,
	})
}

func (route *WebRoute) handleFetch(reqCtx *gin.Context) {
	var req FetchRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleValidationError(reqCtx, "invalid fetch request: "+err.Error())
		return
	}

	page, err := route.fetcher.Fetch(reqCtx.Request.Context(), req.URL)
	if err != nil {
		responses.HandleError(reqCtx, err)
		return
	}
	reqCtx.JSON(http.StatusOK, page)
}

func (route *WebRoute) handleProviders(reqCtx *gin.Context) {
	reqCtx.JSON(http.StatusOK, gin.H{"providers": route.service.Providers()})
}
