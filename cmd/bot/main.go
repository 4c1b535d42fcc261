// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodseer-bot/internal/api"
	"foodseer-bot/internal/bot"
	"foodseer-bot/internal/config"
	"foodseer-bot/internal/server"
	"foodseer-bot/internal/state"
	"foodseer-bot/pkg/logger"
)

func main() {
	// Initialize logger
	l := logger.New()
	l.Info("Starting FoodSeer Bot...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l.Fatal("Failed to load config", err)
	}

	// Validate critical configuration
	if cfg.Telegram.Token == "" {
		l.Fatal("Telegram token is not configured")
	}
	if cfg.API.BaseURL == "" {
		l.Fatal("FoodSeer API base URL is not configured")
	}

	// Initialize the conversation state store
	store, closeStore, err := newStateStore(cfg, l)
	if err != nil {
		l.Fatal("Failed to initialize state store", err)
	}
	defer closeStore()

	// Initialize the platform API client
	apiClient := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, l)

	// Create and start bot
	telegramBot, err := bot.NewTelegramBot(cfg.Telegram.Token, apiClient, store, l)
	if err != nil {
		l.Fatal("Failed to create Telegram bot", err)
	}

	l.Info("Starting Telegram bot...")
	if err := telegramBot.Start(context.Background()); err != nil {
		l.Fatal("Failed to start Telegram bot", err)
	}
	l.Info("Telegram bot started successfully")

	// Start the metrics/health server
	httpServer := server.NewServer(cfg.Server.Port, l)
	go func() {
		l.Info("Starting HTTP server...")
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start HTTP server", err)
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down bot...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		l.Error("Error during HTTP server shutdown", err)
	}

	if err := telegramBot.Stop(ctx); err != nil {
		l.Error("Error during bot shutdown", err)
	}

	l.Info("Bot stopped successfully")
}

// newStateStore picks the conversation state backend from configuration:
// sqlite for single-instance deployments, postgres for shared state, and
// memory for throwaway runs.
func newStateStore(cfg *config.Config, l *logger.Logger) (state.Store, func(), error) {
	switch cfg.State.Driver {
	case "postgres":
		pgCfg := state.PostgresConfig{
			Host:         cfg.State.Postgres.Host,
			Port:         cfg.State.Postgres.Port,
			User:         cfg.State.Postgres.User,
			Password:     cfg.State.Postgres.Password,
			DBName:       cfg.State.Postgres.DBName,
			SSLMode:      cfg.State.Postgres.SSLMode,
			MaxOpenConns: cfg.State.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.State.Postgres.MaxIdleConns,
			ConnLifetime: cfg.State.Postgres.ConnLifetime,
		}

		// Connect with retry so the bot survives a database that is
		// still starting up.
		var (
			store *state.PostgresStore
			err   error
		)
		maxRetries := 5
		for i := 0; i < maxRetries; i++ {
			store, err = state.NewPostgresStore(pgCfg)
			if err == nil {
				break
			}
			l.Error("Failed to connect to state database, retrying...", err)
			time.Sleep(time.Duration(i+1) * time.Second)
		}
		if store == nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case "memory":
		return state.NewMemoryStore(), func() {}, nil

	default:
		store, err := state.NewSQLiteStore(cfg.State.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}
