// Package api exposes the analysis engine over HTTP and WebSocket.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"tradesight/config"
	"tradesight/internal/database"
	"tradesight/internal/engine"
	"tradesight/internal/events"
	"tradesight/internal/market"
	"tradesight/internal/metrics"
)

// Server is the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	engine     *engine.Engine
	client     *market.Client
	repo       *database.Repository
	hub        *WSHub
	config     config.ServerConfig
	logger     zerolog.Logger
}

// NewServer creates the API server and wires the WebSocket hub to the event
// bus. Repo may be nil when persistence is disabled.
func NewServer(
	cfg config.ServerConfig,
	eng *engine.Engine,
	client *market.Client,
	repo *database.Repository,
	bus *events.EventBus,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router: router,
		engine: eng,
		client: client,
		repo:   repo,
		hub:    NewWSHub(m, logger),
		config: cfg,
		logger: logger.With().Str("component", "api").Logger(),
	}

	go server.hub.Run()
	bus.SubscribeAll(server.hub.BroadcastEvent)

	server.setupRoutes(registry)
	return server
}

func (s *Server) setupRoutes(registry *prometheus.Registry) {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.GET("/klines", s.handleKlines)
		api.GET("/analyze", s.handleAnalyze)
		api.POST("/backtest", s.handleBacktest)
		api.GET("/backtest/runs", s.handleBacktestRuns)
		api.GET("/patterns/weights", s.handlePatternWeights)
	}
}

// Start begins serving and blocks until the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info().Str("address", addr).Msg("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info().Msg("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
