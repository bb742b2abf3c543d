package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data constants
const (
	CallbackDuplicateConfirm = "dup_confirm"
	CallbackDuplicateCancel  = "dup_cancel"
	CallbackShowToday        = "show_today"
	CallbackSetTargets       = "set_targets"
)

// MainMenu returns the main menu keyboard
func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Today", CallbackShowToday),
			tgbotapi.NewInlineKeyboardButtonData("🎯 Targets", CallbackSetTargets),
		),
	)
}

// DuplicateConfirm asks whether a near-duplicate submission should go out
// anyway.
func DuplicateConfirm() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Log it anyway", CallbackDuplicateConfirm),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", CallbackDuplicateCancel),
		),
	)
}
