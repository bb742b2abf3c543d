package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sukeshetty/fitness-tracker/internal/bot/state"
	"github.com/sukeshetty/fitness-tracker/internal/logger"
)

// PhotoHandler converts an uploaded photo into a text submission via the
// image-description provider, then runs it through the standard pipeline.
type PhotoHandler struct {
	api          *tgbotapi.BotAPI
	deps         Dependencies
	stateManager state.StateManager
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(api *tgbotapi.BotAPI, deps Dependencies, stateManager state.StateManager) *PhotoHandler {
	return &PhotoHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
	}
}

// Handle processes a photo message
func (h *PhotoHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	notice := tgbotapi.NewMessage(chatID, "📷 Looking at your photo...")
	if _, err := h.api.Send(notice); err != nil {
		return err
	}

	// Telegram sends multiple sizes; the last one is the largest.
	photo := message.Photo[len(message.Photo)-1]
	data, err := h.downloadPhoto(photo.FileID)
	if err != nil {
		logger.Error("Failed to download photo", "chat_id", chatID, "error", err)
		msg := tgbotapi.NewMessage(chatID, "❌ I couldn't download that photo, please try again.")
		_, err := h.api.Send(msg)
		return err
	}

	description, err := h.deps.Provider.DescribeImage(ctx, data, "image/jpeg")
	if err != nil {
		logger.Error("Failed to describe photo", "chat_id", chatID, "error", err)
		msg := tgbotapi.NewMessage(chatID, "❌ I couldn't make out what's on that photo. You can describe it in text instead.")
		_, err := h.api.Send(msg)
		return err
	}

	text := description
	if caption := message.Caption; caption != "" {
		text = caption + ". " + description
	}

	pl, err := h.deps.Pipelines.ForChat(ctx, chatID)
	if err != nil {
		return err
	}
	return runSubmission(ctx, h.api, h.stateManager, pl, chatID, text, photo.FileID, false)
}

func (h *PhotoHandler) downloadPhoto(fileID string) ([]byte, error) {
	file, err := h.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	resp, err := http.Get(file.Link(h.api.Token))
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
