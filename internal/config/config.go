package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr  string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath    string     `env:"DB_PATH" envDefault:"data/minesweeper.db"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	StaticDir string     `env:"STATIC_DIR" envDefault:"static"`

	// RedisURL enables shared stats counters when set. The lobby then
	// reports the shared counters instead of this process's database.
	RedisURL       string `env:"REDIS_URL"`
	RedisNamespace string `env:"REDIS_NAMESPACE" envDefault:"minesweeper:stats"`

	BoardMaxHeight int `env:"BOARD_MAX_HEIGHT" envDefault:"100"`
	BoardMaxWidth  int `env:"BOARD_MAX_WIDTH" envDefault:"100"`

	// WSMaxLifetime caps a single game connection; zero means no limit.
	WSMaxLifetime time.Duration `env:"WS_MAX_LIFETIME" envDefault:"0s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.BoardMaxHeight <= 0 || cfg.BoardMaxWidth <= 0 {
		return nil, fmt.Errorf("board limits must be positive, got %dx%d", cfg.BoardMaxHeight, cfg.BoardMaxWidth)
	}
	if cfg.WSMaxLifetime < 0 {
		return nil, fmt.Errorf("WS_MAX_LIFETIME must not be negative, got %s", cfg.WSMaxLifetime)
	}
	return &cfg, nil
}
