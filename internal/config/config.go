// internal/config/config.go
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds server configuration loaded from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `env:"PORT" envDefault:"8080"`

	// StoreDriver selects the backing store: "postgres" or "memory".
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	// DatabaseURL is the Postgres connection string. Required when
	// StoreDriver is "postgres".
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisAddr enables cross-instance event fanout when set.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// JWT signing keys. When unset a fresh keypair is generated at boot.
	JWTPrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
	}
	return cfg, nil
}
