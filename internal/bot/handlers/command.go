package handlers

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sukeshetty/fitness-tracker/internal/bot/menus"
	"github.com/sukeshetty/fitness-tracker/internal/bot/state"
	"github.com/sukeshetty/fitness-tracker/internal/domain"
	"github.com/sukeshetty/fitness-tracker/internal/pipeline"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	api          *tgbotapi.BotAPI
	deps         Dependencies
	stateManager state.StateManager
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *CommandHandler {
	return &CommandHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		h.stateManager.SetUserState(chatID, state.None)
		return menus.SendMainMenu(h.api, chatID)

	case "targets":
		h.stateManager.SetUserState(chatID, state.WaitingForTargets)
		msg := tgbotapi.NewMessage(chatID,
			"Send your daily targets as three numbers: calories, protein grams, fat grams.\nExample: 2000 120 70")
		_, err := h.api.Send(msg)
		return err

	case "conditions":
		h.stateManager.SetUserState(chatID, state.WaitingForConditions)
		msg := tgbotapi.NewMessage(chatID,
			"List any health conditions I should account for, separated by commas (or \"none\").")
		_, err := h.api.Send(msg)
		return err

	case "today":
		return h.sendToday(ctx, chatID)

	case "edit":
		return h.handleEdit(ctx, message)

	default:
		msg := tgbotapi.NewMessage(chatID, "I don't know that command. Try /start.")
		_, err := h.api.Send(msg)
		return err
	}
}

func (h *CommandHandler) sendToday(ctx context.Context, chatID int64) error {
	pl, err := h.deps.Pipelines.ForChat(ctx, chatID)
	if err != nil {
		return err
	}

	summary, ok := pl.Summary(domain.DateOf(time.Now()))
	if !ok {
		msg := tgbotapi.NewMessage(chatID, "Nothing logged today yet. Tell me what you ate or did!")
		_, err := h.api.Send(msg)
		return err
	}

	msg := tgbotapi.NewMessage(chatID, renderSummary(summary))
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err = h.api.Send(msg)
	return err
}

// handleEdit redoes the most recent submission with new text:
// /edit 3 eggs instead of 2
func (h *CommandHandler) handleEdit(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	newText := strings.TrimSpace(message.CommandArguments())
	if newText == "" {
		msg := tgbotapi.NewMessage(chatID, "Usage: /edit <corrected description>\nThis redoes your most recent entry.")
		_, err := h.api.Send(msg)
		return err
	}

	pl, err := h.deps.Pipelines.ForChat(ctx, chatID)
	if err != nil {
		return err
	}

	target := lastSubmitter(pl)
	if target == nil {
		msg := tgbotapi.NewMessage(chatID, "There's nothing to edit yet.")
		_, err := h.api.Send(msg)
		return err
	}

	return runEdit(ctx, h.api, pl, chatID, target.ID, newText)
}

func lastSubmitter(pl *pipeline.Pipeline) *domain.Entry {
	entries := pl.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == domain.RoleSubmitter {
			return &entries[i]
		}
	}
	return nil
}
