package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/LuckyBoy34/taxi/internal/dialog"
)

const (
	greetingMsg = "Вас приветствует бот TaxiTroika по заказу такси в городе Воронеж🚕.\n" +
		"Чтобы заказать такси - выберите соответствующее действие ниже. ⬇️\n" +
		"Если произошла ошибка или Вы желаете заказать такси по телефону - обращайтесь по номерам☎️: 200-11-11 ; 200-33-33 ; 200-22-20 ."

	helpMsg = `Доступные команды:
/start - Начать работу с ботом
/help - Показать эту справку

Если у вас возникли проблемы, закажите такси по телефону.`

	unknownCommandMsg = "Неизвестная команда. Пожалуйста, используйте /start для начала работы."
)

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command string) {
	switch command {
	case "start":
		b.handleStart(ctx, chatID)
	case "help":
		b.send(tgbotapi.NewMessage(chatID, helpMsg))
	default:
		b.send(tgbotapi.NewMessage(chatID, unknownCommandMsg))
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, greetingMsg)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚖 Вызвать такси", string(dialog.ActionCallTaxi)),
		),
	)
	b.send(msg)
}
