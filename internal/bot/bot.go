package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sukeshetty/fitness-tracker/internal/bot/handlers"
	"github.com/sukeshetty/fitness-tracker/internal/bot/state"
	"github.com/sukeshetty/fitness-tracker/internal/config"
	"github.com/sukeshetty/fitness-tracker/internal/logger"
	"github.com/sukeshetty/fitness-tracker/internal/pipeline"
	"github.com/sukeshetty/fitness-tracker/internal/provider"
	"github.com/sukeshetty/fitness-tracker/internal/store"
)

// Bot wires the telegram API to the per-chat conversation pipelines.
type Bot struct {
	api           *tgbotapi.BotAPI
	updateHandler *handlers.UpdateHandler
}

// New creates the bot and its handler chain.
func New(token string, p provider.Provider, st store.Store, stateManager state.StateManager, dup config.DuplicateConfig) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot authorized", "account", api.Self.UserName)

	deps := handlers.Dependencies{
		Pipelines: newPipelineRegistry(p, st, dup),
		Provider:  p,
	}

	return &Bot{
		api:           api,
		updateHandler: handlers.NewUpdateHandler(api, deps, stateManager),
	}, nil
}

// Start runs the long-polling loop until ctx is cancelled. Each update is
// handled on its own goroutine so one chat's streaming response does not
// block the others.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Info("Bot is now listening for updates")

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			logger.Info("Bot is shutting down")
			b.api.StopReceivingUpdates()
			wg.Wait()
			return ctx.Err()
		case update := <-updates:
			wg.Add(1)
			go func(update tgbotapi.Update) {
				defer wg.Done()
				if err := b.updateHandler.Handle(ctx, update); err != nil {
					logger.Error("Error handling update", "error", err)
				}
			}(update)
		}
	}
}

// pipelineRegistry lazily builds one pipeline per chat, all sharing a single
// provider and a single store partitioned by chat id.
type pipelineRegistry struct {
	provider provider.Provider
	store    store.Store
	dup      config.DuplicateConfig

	mu        sync.Mutex
	pipelines map[int64]*pipeline.Pipeline
}

func newPipelineRegistry(p provider.Provider, st store.Store, dup config.DuplicateConfig) *pipelineRegistry {
	return &pipelineRegistry{
		provider:  p,
		store:     st,
		dup:       dup,
		pipelines: make(map[int64]*pipeline.Pipeline),
	}
}

// ForChat returns the chat's pipeline, creating and cold-loading it on first
// use.
func (r *pipelineRegistry) ForChat(ctx context.Context, chatID int64) (*pipeline.Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pl, ok := r.pipelines[chatID]; ok {
		return pl, nil
	}

	pl, err := pipeline.New(ctx, r.provider, store.Namespaced(r.store, fmt.Sprintf("chat:%d:", chatID)), pipeline.Options{
		DuplicateWindow:    r.dup.Window,
		DuplicateThreshold: r.dup.Threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline for chat %d: %w", chatID, err)
	}
	r.pipelines[chatID] = pl
	return pl, nil
}
