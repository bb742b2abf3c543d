package menus

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sukeshetty/fitness-tracker/internal/bot/keyboards"
)

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api *tgbotapi.BotAPI, chatID int64) error {
	text := `💪 *Fitness Tracker* — your meal and activity log

🍽️ Tell me what you ate or did, in plain words:
• "2 eggs and toast" — I'll log the nutrition
• "ran 30 minutes" — I'll log the burn
• Or send a photo of your plate

📊 I keep daily totals against your targets and warn you about duplicate entries.

*Commands:*
/targets — set daily calorie, protein and fat targets
/conditions — note health conditions I should account for
/today — show today's totals
/edit <text> — redo your last entry with a correction

⚠️ Estimates are approximate, not medical advice.`

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboards.MainMenu()
	_, err := api.Send(msg)
	return err
}
