package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sukeshetty/fitness-tracker/internal/apperrors"
	"github.com/sukeshetty/fitness-tracker/internal/bot/keyboards"
	"github.com/sukeshetty/fitness-tracker/internal/bot/state"
	"github.com/sukeshetty/fitness-tracker/internal/logger"
	"github.com/sukeshetty/fitness-tracker/internal/pipeline"
)

// editThrottle caps how often the streaming placeholder message is edited;
// Telegram rate-limits message edits per chat.
const editThrottle = 900 * time.Millisecond

// runSubmission drives one submission through the pipeline and mirrors the
// streamed response into a placeholder message.
func runSubmission(ctx context.Context, api *tgbotapi.BotAPI, stateManager state.StateManager, pl *pipeline.Pipeline, chatID int64, text, attachmentRef string, confirmed bool) error {
	placeholder := tgbotapi.NewMessage(chatID, "💭 Thinking...")
	sent, err := api.Send(placeholder)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	lastEdit := time.Now()
	onPartial := func(entryID, cumulative string) {
		mu.Lock()
		defer mu.Unlock()
		if time.Since(lastEdit) < editThrottle || cumulative == "" {
			return
		}
		lastEdit = time.Now()
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, cumulative)
		if _, err := api.Send(edit); err != nil {
			logger.Warn("Failed to update streaming message", "error", err)
		}
	}

	submit := pl.Submit
	if confirmed {
		submit = pl.SubmitConfirmed
	}
	result, err := submit(ctx, text, attachmentRef, onPartial)

	var dup *pipeline.DuplicateError
	switch {
	case errors.As(err, &dup):
		stateManager.SetUserState(chatID, state.PendingDuplicate)
		stateManager.SetTempData(chatID, state.TempPendingText, text)
		stateManager.SetTempData(chatID, state.TempPendingAttachment, attachmentRef)
		prompt := tgbotapi.NewEditMessageText(chatID, sent.MessageID,
			"🤔 You logged almost the same thing at "+dup.Match.Timestamp.Format("15:04")+
				":\n\n\""+dup.Match.Content+"\"\n\nLog it again?")
		markup := keyboards.DuplicateConfirm()
		prompt.ReplyMarkup = &markup
		_, err := api.Send(prompt)
		return err

	case errors.Is(err, pipeline.ErrBusy):
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID,
			"⏳ I'm still working on your previous message, give me a moment.")
		_, err := api.Send(edit)
		return err

	case err != nil && apperrors.TypeOf(err) == apperrors.ErrorTypeStorageQuota:
		// The entry was logged; only local persistence failed. Keep the
		// response visible and explain separately.
		final := renderResponder(result.Responder)
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, final)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, sendErr := api.Send(edit); sendErr != nil {
			return sendErr
		}
		warn := tgbotapi.NewMessage(chatID,
			"⚠️ Local storage is full — today's totals could not be saved. Free up space and they will catch up on the next entry.")
		_, sendErr := api.Send(warn)
		return sendErr

	case err != nil:
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID,
			"❌ I couldn't reach the nutrition assistant. Nothing was logged — please try again.")
		_, sendErr := api.Send(edit)
		logger.Error("Submission failed", "chat_id", chatID, "error", err)
		return sendErr
	}

	final := renderResponder(result.Responder)
	if final == "" {
		final = "Done."
	}
	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, final)
	edit.ParseMode = tgbotapi.ModeMarkdown
	_, err = api.Send(edit)
	return err
}

// runEdit replays an existing entry with corrected text, streaming the fresh
// response the same way a new submission does.
func runEdit(ctx context.Context, api *tgbotapi.BotAPI, pl *pipeline.Pipeline, chatID int64, entryID, newText string) error {
	placeholder := tgbotapi.NewMessage(chatID, "✏️ Redoing that entry...")
	sent, err := api.Send(placeholder)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	lastEdit := time.Now()
	onPartial := func(_, cumulative string) {
		mu.Lock()
		defer mu.Unlock()
		if time.Since(lastEdit) < editThrottle || cumulative == "" {
			return
		}
		lastEdit = time.Now()
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, cumulative)
		if _, err := api.Send(edit); err != nil {
			logger.Warn("Failed to update streaming message", "error", err)
		}
	}

	responder, err := pl.Edit(ctx, entryID, newText, onPartial)
	switch {
	case errors.Is(err, pipeline.ErrBusy):
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID,
			"⏳ I'm still working on your previous message, give me a moment.")
		_, err := api.Send(edit)
		return err

	case errors.Is(err, pipeline.ErrEntryNotFound):
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, "I couldn't find that entry anymore.")
		_, err := api.Send(edit)
		return err

	case err != nil && apperrors.TypeOf(err) == apperrors.ErrorTypeStorageQuota:
		// The replay succeeded; only the summary write was rejected.
		final := ""
		if responder != nil {
			final = renderResponder(*responder)
		}
		if final == "" {
			final = "Updated."
		}
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, final)
		edit.ParseMode = tgbotapi.ModeMarkdown
		if _, sendErr := api.Send(edit); sendErr != nil {
			return sendErr
		}
		warn := tgbotapi.NewMessage(chatID,
			"⚠️ Local storage is full — today's totals could not be saved. Free up space and they will catch up on the next entry.")
		_, sendErr := api.Send(warn)
		return sendErr

	case err != nil:
		edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID,
			"❌ The edit didn't go through, so I kept the original entry unchanged.")
		_, sendErr := api.Send(edit)
		logger.Error("Edit failed", "chat_id", chatID, "entry_id", entryID, "error", err)
		return sendErr
	}

	final := ""
	if responder != nil {
		final = renderResponder(*responder)
	}
	if final == "" {
		final = "Updated."
	}
	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, final)
	edit.ParseMode = tgbotapi.ModeMarkdown
	_, err = api.Send(edit)
	return err
}
