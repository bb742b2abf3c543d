package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sukeshetty/fitness-tracker/internal/bot/state"
	"github.com/sukeshetty/fitness-tracker/internal/domain"
)

// TextHandler handles text messages
type TextHandler struct {
	api          *tgbotapi.BotAPI
	deps         Dependencies
	stateManager state.StateManager
}

// NewTextHandler creates a new text handler
func NewTextHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *TextHandler {
	return &TextHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	switch h.stateManager.GetUserState(chatID) {
	case state.WaitingForTargets:
		return h.handleTargets(ctx, message)
	case state.WaitingForConditions:
		return h.handleConditions(ctx, message)
	default:
		pl, err := h.deps.Pipelines.ForChat(ctx, chatID)
		if err != nil {
			return err
		}
		return runSubmission(ctx, h.api, h.stateManager, pl, chatID, message.Text, "", false)
	}
}

// handleTargets parses "calories protein fat" into the profile targets.
func (h *TextHandler) handleTargets(ctx context.Context, message *tgbotapi.Message) error {
	fields := strings.Fields(message.Text)
	if len(fields) != 3 {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"Please send three numbers: daily calories, protein grams and fat grams (for example: 2000 120 70)")
		_, err := h.api.Send(msg)
		return err
	}

	values := make([]float64, 3)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v <= 0 {
			msg := tgbotapi.NewMessage(message.Chat.ID,
				fmt.Sprintf("%q is not a valid positive number, please try again", f))
			_, err := h.api.Send(msg)
			return err
		}
		values[i] = v
	}

	pl, err := h.deps.Pipelines.ForChat(ctx, message.Chat.ID)
	if err != nil {
		return err
	}

	profile := pl.Profile()
	profile.Targets = domain.Targets{Calories: values[0], ProteinG: values[1], FatG: values[2]}
	if err := pl.SetProfile(ctx, profile); err != nil {
		return err
	}

	h.stateManager.SetUserState(message.Chat.ID, state.None)
	msg := tgbotapi.NewMessage(message.Chat.ID,
		fmt.Sprintf("🎯 Targets saved: %.0f kcal / %.0fg protein / %.0fg fat per day", values[0], values[1], values[2]))
	_, err = h.api.Send(msg)
	return err
}

// handleConditions stores a comma-separated health conditions list.
func (h *TextHandler) handleConditions(ctx context.Context, message *tgbotapi.Message) error {
	pl, err := h.deps.Pipelines.ForChat(ctx, message.Chat.ID)
	if err != nil {
		return err
	}

	var conditions []string
	if !strings.EqualFold(strings.TrimSpace(message.Text), "none") {
		for _, c := range strings.Split(message.Text, ",") {
			if c = strings.TrimSpace(c); c != "" {
				conditions = append(conditions, c)
			}
		}
	}

	profile := pl.Profile()
	profile.HealthConditions = conditions
	if err := pl.SetProfile(ctx, profile); err != nil {
		return err
	}

	h.stateManager.SetUserState(message.Chat.ID, state.None)
	text := "💙 Health conditions cleared"
	if len(conditions) > 0 {
		text = "💙 Noted: " + strings.Join(conditions, ", ") + ". I'll account for these."
	}
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	_, err = h.api.Send(msg)
	return err
}
