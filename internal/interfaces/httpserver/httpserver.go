package httpserver

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"search-hub/internal/infrastructure/config"
	"search-hub/internal/interfaces/httpserver/middlewares"
	"search-hub/internal/interfaces/httpserver/routes"
	"search-hub/internal/interfaces/httpserver/routes/mcp"
)

type HTTPServer struct {
	router     *gin.Engine
	config     *config.Config
	webRoute   *routes.WebRoute
	mcpRoute   *mcp.MCPRoute
	routesDone bool
}

func NewHTTPServer(
	cfg *config.Config,
	webRoute *routes.WebRoute,
	mcpRoute *mcp.MCPRoute,
) *HTTPServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.CORS())
	router.Use(middlewares.MetricsRecorder())

	return &HTTPServer{
		router:   router,
		config:   cfg,
		webRoute: webRoute,
		mcpRoute: mcpRoute,
	}
}

func (s *HTTPServer) setupRoutes() {
	if s.routesDone {
		return
	}
	s.routesDone = true

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "search-hub"})
	})
	s.router.GET("/readyz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ready", "service": "search-hub"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	v1.Use(middlewares.APIKeyAuth(s.config.APIKey))
	s.webRoute.RegisterRouter(v1)
	s.mcpRoute.RegisterRouter(v1)
}

func (s *HTTPServer) Run() error {
	s.setupRoutes()
	addr := fmt.Sprintf(":%s", s.config.HTTPPort)
	return s.router.Run(addr)
}

// Router exposes the configured engine, for tests.
func (s *HTTPServer) Router() *gin.Engine {
	s.setupRoutes()
	return s.router
}
