package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"search-hub/internal/interfaces/httpserver/responses"
)

var allowedMCPMethods = map[string]bool{
	// Initialization / handshake
	"initialize":                true,
	"notifications/initialized": true,
	"ping":                      true,

	// Tools
	"tools/list": true,
	"tools/call": true,
}

// MCPRoute exposes the search tools over the Model Context Protocol.
type MCPRoute struct {
	mcpServer   *mcp.Server
	httpHandler http.Handler
}

func NewMCPRoute(searchMCP *SearchMCP) *MCPRoute {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "search-hub",
		Version: "1.0.0",
	}, nil)
	searchMCP.RegisterTools(server)

	return &MCPRoute{
		mcpServer: server,
		httpHandler: mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return server
		}, &mcp.StreamableHTTPOptions{Stateless: true}),
	}
}

func (route *MCPRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/mcp",
		MCPMethodGuard(allowedMCPMethods),
		route.serveMCP,
	)
}

func (route *MCPRoute) serveMCP(reqCtx *gin.Context) {
	// The go-sdk streamable handler insists on an Accept header even
	// though many clients omit it.
	reqCtx.Request.Header.Set("Accept", "application/json, text/event-stream")
	route.httpHandler.ServeHTTP(reqCtx.Writer, reqCtx.Request)
}

// MCPMethodGuard rejects MCP methods outside the supported set before they
// reach the SDK handler.
func MCPMethodGuard(allowedMethods map[string]bool) gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		bodyBytes, err := io.ReadAll(reqCtx.Request.Body)
		if err != nil {
			responses.HandleValidationError(reqCtx, "failed to read MCP request body")
			return
		}
		_ = reqCtx.Request.Body.Close()

		if len(bodyBytes) == 0 {
			responses.HandleValidationError(reqCtx, "empty MCP request body")
			return
		}

		reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var payload struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			responses.HandleValidationError(reqCtx, "invalid MCP request payload")
			return
		}
		if payload.Method == "" {
			responses.HandleValidationError(reqCtx, "missing method field in MCP request")
			return
		}
		if !allowedMethods[payload.Method] {
			responses.HandleValidationError(reqCtx, "unsupported MCP method: "+payload.Method)
			return
		}

		reqCtx.Next()
	}
}
