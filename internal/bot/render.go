package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/LuckyBoy34/taxi/internal/dialog"
)

// render turns machine instructions into Telegram API calls.
// promptMessageID is the message whose button triggered the event;
// zero when the event was plain text.
func (b *Bot) render(chatID int64, promptMessageID int, instructions []dialog.Instruction) {
	for _, ins := range instructions {
		if ins.DeletePrompt && promptMessageID != 0 {
			del := tgbotapi.NewDeleteMessage(chatID, promptMessageID)
			if _, err := b.api.Request(del); err != nil {
				b.logger.Warn("Failed to delete message",
					zap.Int64("chat_id", chatID),
					zap.Int("message_id", promptMessageID),
					zap.Error(err))
			}
			promptMessageID = 0
		}

		to := chatID
		if ins.To == dialog.ToOperator {
			to = b.operatorChatID
		}

		msg := tgbotapi.NewMessage(to, ins.Text)
		if ins.Markdown {
			msg.ParseMode = tgbotapi.ModeMarkdown
		}
		msg.ReplyMarkup = replyMarkup(ins)

		b.send(msg)
	}
}

func replyMarkup(ins dialog.Instruction) interface{} {
	switch {
	case len(ins.Inline) > 0:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(ins.Inline))
		for _, row := range ins.Inline {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons,
					tgbotapi.NewInlineKeyboardButtonData(btn.Label, string(btn.Action)))
			}
			rows = append(rows, buttons)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)

	case len(ins.Reply) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(ins.Reply))
		for _, row := range ins.Reply {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, buttons)
		}
		keyboard := tgbotapi.NewReplyKeyboard(rows...)
		keyboard.OneTimeKeyboard = true
		return keyboard

	case ins.RemoveReply:
		return tgbotapi.NewRemoveKeyboard(false)

	default:
		return nil
	}
}
