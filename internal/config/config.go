// internal/config/config.go
//
// Typed process configuration, parsed from the environment. main loads
// .env first (godotenv) so local development works without exporting
// anything. Components receive values from here; nothing reads env vars
// at call sites.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration.
type Config struct {
	Port              string `env:"PORT" envDefault:"8000"`
	SQLitePath        string `env:"SQLITE_DB" envDefault:"./data/waldo.db"`
	ClientOrigin      string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	JWTSecret         string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	HighScoreLimit    int    `env:"HIGH_SCORE_LIMIT" envDefault:"20"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
