// Package cache provides a Redis-backed cache for analysis snapshots and
// backtest reports, with graceful degradation when Redis is unavailable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tradesight/config"
)

// ErrMiss is returned for both a missing key and an unhealthy Redis; callers
// fall through to recomputation either way.
var ErrMiss = errors.New("cache miss")

// Key formats. Cache entries are scoped per symbol and interval and carry an
// explicit TTL per Set call, so lifetime is owned by the caller rather than
// hidden module state.
const (
	keyAnalysis = "analysis:%s:%s"
	keyBacktest = "backtest:%s:%s"
	keyWeights  = "weights:%s"
)

// Service wraps the Redis client with a small circuit breaker: after
// maxFailures consecutive errors the cache reports unhealthy and every
// operation short-circuits to ErrMiss until an operation succeeds again.
type Service struct {
	client *redis.Client
	logger zerolog.Logger

	mu           sync.RWMutex
	healthy      bool
	failureCount int
	maxFailures  int
}

// New creates a cache service and verifies connectivity. A failed initial
// ping returns the service in degraded mode rather than an error, matching
// the cache's role as an optional layer.
func New(cfg config.RedisConfig, logger zerolog.Logger) (*Service, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	s := &Service{
		client:      client,
		logger:      logger.With().Str("component", "cache").Logger(),
		maxFailures: 3,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("initial Redis connection failed, starting degraded")
		return s, nil
	}

	s.healthy = true
	s.logger.Info().Str("address", cfg.Address).Msg("Redis connected")
	return s, nil
}

// IsHealthy returns whether Redis is currently usable.
func (s *Service) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

// GetAnalysis loads a cached analysis result into out.
func (s *Service) GetAnalysis(ctx context.Context, symbol, interval string, out interface{}) error {
	return s.get(ctx, fmt.Sprintf(keyAnalysis, symbol, interval), out)
}

// SetAnalysis caches an analysis result with the given TTL.
func (s *Service) SetAnalysis(ctx context.Context, symbol, interval string, v interface{}, ttl time.Duration) {
	s.set(ctx, fmt.Sprintf(keyAnalysis, symbol, interval), v, ttl)
}

// GetBacktest loads a cached backtest report into out.
func (s *Service) GetBacktest(ctx context.Context, symbol, interval string, out interface{}) error {
	return s.get(ctx, fmt.Sprintf(keyBacktest, symbol, interval), out)
}

// SetBacktest caches a backtest report with the given TTL.
func (s *Service) SetBacktest(ctx context.Context, symbol, interval string, v interface{}, ttl time.Duration) {
	s.set(ctx, fmt.Sprintf(keyBacktest, symbol, interval), v, ttl)
}

// GetWeights loads cached pattern weights for a symbol into out.
func (s *Service) GetWeights(ctx context.Context, symbol string, out interface{}) error {
	return s.get(ctx, fmt.Sprintf(keyWeights, symbol), out)
}

// SetWeights caches pattern weights with the given TTL.
func (s *Service) SetWeights(ctx context.Context, symbol string, v interface{}, ttl time.Duration) {
	s.set(ctx, fmt.Sprintf(keyWeights, symbol), v, ttl)
}

func (s *Service) get(ctx context.Context, key string, out interface{}) error {
	if !s.IsHealthy() {
		return ErrMiss
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.recordSuccess()
			return ErrMiss
		}
		s.recordFailure(err)
		return ErrMiss
	}
	s.recordSuccess()

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return nil
}

func (s *Service) set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if !s.IsHealthy() {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to marshal cache entry")
		return
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.recordFailure(err)
		return
	}
	s.recordSuccess()
}

func (s *Service) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failureCount++
	if s.failureCount >= s.maxFailures && s.healthy {
		s.logger.Warn().Err(err).Int("failures", s.failureCount).Msg("Redis marked unhealthy")
		s.healthy = false
	}
}

func (s *Service) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failureCount = 0
	s.healthy = true
}
