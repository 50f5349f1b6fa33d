package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultInterval = "1h"
	defaultLimit    = 500
	maxLimit        = 1000
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"wsClients": s.hub.ClientCount(),
	})
}

// queryParams pulls the common symbol/interval/limit trio out of the query
// string. Symbol is required; the rest fall back to defaults.
func queryParams(c *gin.Context) (symbol, interval string, limit int, ok bool) {
	symbol = strings.ToUpper(c.Query("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return "", "", 0, false
	}

	interval = c.DefaultQuery("interval", defaultInterval)

	limit = defaultLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return "", "", 0, false
		}
		limit = parsed
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return symbol, interval, limit, true
}

// handleKlines returns raw candles for a symbol.
func (s *Server) handleKlines(c *gin.Context) {
	symbol, interval, limit, ok := queryParams(c)
	if !ok {
		return
	}

	candles, err := s.client.GetKlines(symbol, interval, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("klines fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"interval": interval,
		"candles":  candles,
	})
}

// handleAnalyze runs the full analysis pipeline on recent candles.
func (s *Server) handleAnalyze(c *gin.Context) {
	symbol, interval, limit, ok := queryParams(c)
	if !ok {
		return
	}

	analysis, err := s.engine.Analyze(c.Request.Context(), symbol, interval, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

type backtestRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Interval string `json:"interval"`
	Limit    int    `json:"limit"`
}

// handleBacktest runs a backtest over historical candles and returns the
// aggregated report. Pattern weights are persisted when a database is
// configured.
func (s *Server) handleBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	req.Symbol = strings.ToUpper(req.Symbol)
	if req.Interval == "" {
		req.Interval = defaultInterval
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}

	outcome, err := s.engine.RunBacktest(c.Request.Context(), req.Symbol, req.Interval, req.Limit)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("backtest failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// handleBacktestRuns lists recent persisted backtest summaries for a symbol.
func (s *Server) handleBacktestRuns(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is not enabled"})
		return
	}

	symbol, _, limit, ok := queryParams(c)
	if !ok {
		return
	}

	runs, err := s.repo.GetBacktestRuns(c.Request.Context(), symbol, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to load backtest runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "runs": runs})
}

// handlePatternWeights returns the stored per-pattern reliability weights.
func (s *Server) handlePatternWeights(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is not enabled"})
		return
	}

	symbol := strings.ToUpper(c.Query("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	weights, err := s.repo.GetPatternWeights(c.Request.Context(), symbol)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to load pattern weights")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "weights": weights})
}
