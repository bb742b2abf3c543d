package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sukeshetty/fitness-tracker/internal/bot/keyboards"
	"github.com/sukeshetty/fitness-tracker/internal/bot/state"
	"github.com/sukeshetty/fitness-tracker/internal/domain"
	"github.com/sukeshetty/fitness-tracker/internal/logger"
)

// CallbackHandler handles inline keyboard callbacks
type CallbackHandler struct {
	api          *tgbotapi.BotAPI
	deps         Dependencies
	stateManager state.StateManager
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *CallbackHandler {
	return &CallbackHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Acknowledge immediately so the client stops its spinner.
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.Warn("Failed to answer callback query", "error", err)
	}

	chatID := query.Message.Chat.ID

	switch query.Data {
	case keyboards.CallbackDuplicateConfirm:
		return h.confirmDuplicate(ctx, chatID)

	case keyboards.CallbackDuplicateCancel:
		h.stateManager.ClearTempData(chatID)
		h.stateManager.SetUserState(chatID, state.None)
		msg := tgbotapi.NewMessage(chatID, "Okay, I dropped it. Nothing was logged.")
		_, err := h.api.Send(msg)
		return err

	case keyboards.CallbackShowToday:
		return h.sendToday(ctx, chatID)

	case keyboards.CallbackSetTargets:
		h.stateManager.SetUserState(chatID, state.WaitingForTargets)
		msg := tgbotapi.NewMessage(chatID,
			"Send your daily targets as three numbers: calories, protein grams, fat grams.\nExample: 2000 120 70")
		_, err := h.api.Send(msg)
		return err

	default:
		logger.Warn("Unknown callback data", "data", query.Data)
		return nil
	}
}

func (h *CallbackHandler) confirmDuplicate(ctx context.Context, chatID int64) error {
	text, ok := h.stateManager.GetTempData(chatID, state.TempPendingText)
	attachmentRef, _ := h.stateManager.GetTempData(chatID, state.TempPendingAttachment)
	h.stateManager.ClearTempData(chatID)
	h.stateManager.SetUserState(chatID, state.None)

	if !ok || (text == "" && attachmentRef == "") {
		msg := tgbotapi.NewMessage(chatID, "That confirmation expired. Just send the entry again.")
		_, err := h.api.Send(msg)
		return err
	}

	pl, err := h.deps.Pipelines.ForChat(ctx, chatID)
	if err != nil {
		return err
	}
	return runSubmission(ctx, h.api, h.stateManager, pl, chatID, text, attachmentRef, true)
}

func (h *CallbackHandler) sendToday(ctx context.Context, chatID int64) error {
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
