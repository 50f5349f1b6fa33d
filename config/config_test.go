package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRADESIGHT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerConfig.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.ServerConfig.Port)
	}
	if cfg.MarketConfig.BaseURL != "https://api.binance.com" {
		t.Errorf("default base URL = %s", cfg.MarketConfig.BaseURL)
	}
	if cfg.BacktestConfig.TargetPercent != 2.0 || cfg.BacktestConfig.StopPercent != 1.0 {
		t.Errorf("backtest defaults = %+v", cfg.BacktestConfig)
	}
	if cfg.DatabaseConfig.Enabled || cfg.RedisConfig.Enabled {
		t.Error("persistence and cache should default to disabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server": {"host": "127.0.0.1", "port": 9000},
		"market": {"stream_symbols": ["ETHUSDT"], "stream_interval": "5m"},
		"backtest": {"lookahead": 20}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRADESIGHT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerConfig.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.ServerConfig.Port)
	}
	if len(cfg.MarketConfig.StreamSymbols) != 1 || cfg.MarketConfig.StreamSymbols[0] != "ETHUSDT" {
		t.Errorf("stream symbols = %v", cfg.MarketConfig.StreamSymbols)
	}
	if cfg.BacktestConfig.Lookahead != 20 {
		t.Errorf("lookahead = %d, want 20", cfg.BacktestConfig.Lookahead)
	}
	// Untouched sections keep their defaults.
	if cfg.BacktestConfig.TargetPercent != 2.0 {
		t.Errorf("target percent = %v, want default 2.0", cfg.BacktestConfig.TargetPercent)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRADESIGHT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerConfig.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.ServerConfig.Port)
	}
	if !cfg.DatabaseConfig.Enabled || cfg.DatabaseConfig.Host != "db.internal" {
		t.Errorf("database config = %+v", cfg.DatabaseConfig)
	}
	if cfg.LoggingConfig.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.LoggingConfig.Level)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRADESIGHT_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatal("malformed config file should fail loudly")
	}
}
