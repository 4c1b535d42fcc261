// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram struct {
		Token string
	}
	API struct {
		BaseURL string
		Timeout time.Duration
	}
	State struct {
		Driver     string // sqlite, postgres or memory
		SQLitePath string
		Postgres   struct {
			Host         string
			Port         string
			User         string
			Password     string
			DBName       string
			SSLMode      string
			MaxOpenConns int
			MaxIdleConns int
			ConnLifetime time.Duration
		}
	}
	Server struct {
		Port string
	}
	ShutdownTimeout time.Duration
}

// Load loads the configuration
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetConfigType("json")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("$HOME/.foodseer-bot")

	v.SetDefault("ShutdownTimeout", 10*time.Second)
	v.SetDefault("API.BaseURL", "http://localhost:8080")
	v.SetDefault("API.Timeout", 30*time.Second)
	v.SetDefault("State.Driver", "sqlite")
	v.SetDefault("State.SQLitePath", "foodseer.db")
	v.SetDefault("State.Postgres.MaxOpenConns", 20)
	v.SetDefault("State.Postgres.MaxIdleConns", 10)
	v.SetDefault("State.Postgres.ConnLifetime", 5*time.Minute)
	v.SetDefault("Server.Port", "9090")

	v.AutomaticEnv()

	err := v.ReadInConfig()

	// No config file: fall back to environment variables with defaults.
	if err != nil {
		cfg := &Config{}

		cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")
		cfg.API.BaseURL = getEnvOr("FOODSEER_API_URL", "http://localhost:8080")
		cfg.API.Timeout = 30 * time.Second
		cfg.State.Driver = getEnvOr("STATE_DRIVER", "sqlite")
		cfg.State.SQLitePath = getEnvOr("STATE_SQLITE_PATH", "foodseer.db")
		cfg.State.Postgres.Host = getEnvOr("STATE_DB_HOST", "localhost")
		cfg.State.Postgres.Port = getEnvOr("STATE_DB_PORT", "5432")
		cfg.State.Postgres.User = getEnvOr("STATE_DB_USER", "postgres")
		cfg.State.Postgres.Password = getEnvOr("STATE_DB_PASSWORD", "postgres")
		cfg.State.Postgres.DBName = getEnvOr("STATE_DB_NAME", "foodseer_bot")
		cfg.State.Postgres.SSLMode = getEnvOr("STATE_DB_SSL_MODE", "disable")
		cfg.State.Postgres.MaxOpenConns = 20
		cfg.State.Postgres.MaxIdleConns = 10
		cfg.State.Postgres.ConnLifetime = 5 * time.Minute
		cfg.Server.Port = getEnvOr("SERVER_PORT", "9090")
		cfg.ShutdownTimeout = 10 * time.Second

		return cfg, nil
	}

	// Process any ${ENV_VAR} syntax in the config values.
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			envValue := os.Getenv(envVar)
			if envValue != "" {
				v.Set(key, envValue)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Helper function to get environment variable with default value
func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
