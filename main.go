package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sukeshetty/fitness-tracker/internal/bot"
	"github.com/sukeshetty/fitness-tracker/internal/bot/state"
	"github.com/sukeshetty/fitness-tracker/internal/config"
	"github.com/sukeshetty/fitness-tracker/internal/logger"
	"github.com/sukeshetty/fitness-tracker/internal/provider"
	"github.com/sukeshetty/fitness-tracker/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		logger.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Info("Starting Fitness Tracker Bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()
	logger.Info("Store opened", "backend", string(cfg.Store))

	p, err := newProvider(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to create AI provider: %v", err)
	}
	logger.Info("AI provider ready", "provider", p.Name())

	stateManager, err := newStateManager(cfg)
	if err != nil {
		logger.Fatalf("Failed to create state manager: %v", err)
	}

	telegramBot, err := bot.New(cfg.TelegramToken, p, st, stateManager, cfg.Duplicate)
	if err != nil {
		logger.Fatalf("Failed to create bot: %v", err)
	}

	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Bot stopped with error: %v", err)
	}
	logger.Info("Shutdown complete")
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		return store.NewPostgresStore(cfg.DB)
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	default:
		return store.NewSQLiteStore(cfg.SQLite.Path)
	}
}

func newProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	if cfg.UseOpenAI {
		return provider.NewOpenAIProvider(cfg.OpenAIAPIKey), nil
	}
	return provider.NewGeminiProvider(ctx, cfg.GeminiAPIKey)
}

func newStateManager(cfg *config.Config) (state.StateManager, error) {
	if cfg.UseRedis {
		return state.NewRedisManager(cfg.Redis.Host, cfg.Redis.Port)
	}
	return state.NewManager(), nil
}
