package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"tradesight/internal/logging"
)

// Config is the full application configuration, loaded from an optional
// JSON file and overridable through environment variables.
type Config struct {
	ServerConfig   ServerConfig   `json:"server"`
	MarketConfig   MarketConfig   `json:"market"`
	DatabaseConfig DatabaseConfig `json:"database"`
	RedisConfig    RedisConfig    `json:"redis"`
	BacktestConfig BacktestConfig `json:"backtest"`
	LoggingConfig  logging.Config `json:"logging"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// MarketConfig holds exchange data-source settings.
type MarketConfig struct {
	BaseURL        string   `json:"base_url"`        // REST endpoint, Binance-compatible
	WSBaseURL      string   `json:"ws_base_url"`     // kline stream endpoint
	StreamSymbols  []string `json:"stream_symbols"`  // symbols to analyze live, e.g. ["BTCUSDT"]
	StreamInterval string   `json:"stream_interval"` // kline interval for live streams
	HistoryLimit   int      `json:"history_limit"`   // candles fetched for warm-up / analysis
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig holds cache settings.
type RedisConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	TTLSeconds int    `json:"ttl_seconds"` // analysis cache TTL
}

// BacktestConfig holds simulation defaults.
type BacktestConfig struct {
	Warmup        int     `json:"warmup"`
	Lookahead     int     `json:"lookahead"`
	TargetPercent float64 `json:"target_percent"`
	StopPercent   float64 `json:"stop_percent"`
}

// Load reads config.json (or the file named by TRADESIGHT_CONFIG) when
// present, then applies environment overrides on top of defaults.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("TRADESIGHT_CONFIG")
	if path == "" {
		path = "config.json"
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		MarketConfig: MarketConfig{
			BaseURL:        "https://api.binance.com",
			WSBaseURL:      "wss://stream.binance.com:9443",
			StreamInterval: "1m",
			HistoryLimit:   500,
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "tradesight",
			Database: "tradesight",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Address:    "localhost:6379",
			TTLSeconds: 60,
		},
		BacktestConfig: BacktestConfig{
			Warmup:        50,
			Lookahead:     10,
			TargetPercent: 2.0,
			StopPercent:   1.0,
		},
		LoggingConfig: logging.Config{
			Level: "info",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.ServerConfig.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.ServerConfig.Port = port
		}
	}
	if v := os.Getenv("MARKET_BASE_URL"); v != "" {
		cfg.MarketConfig.BaseURL = v
	}
	if v := os.Getenv("MARKET_WS_BASE_URL"); v != "" {
		cfg.MarketConfig.WSBaseURL = v
	}
	if v := os.Getenv("DB_ENABLED"); v != "" {
		cfg.DatabaseConfig.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.DatabaseConfig.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.DatabaseConfig.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.DatabaseConfig.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.DatabaseConfig.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DatabaseConfig.Database = v
	}
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		cfg.RedisConfig.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		cfg.RedisConfig.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisConfig.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LoggingConfig.Level = v
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		cfg.LoggingConfig.Pretty = v == "true" || v == "1"
	}
}
