package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/LuckyBoy34/taxi/internal/dialog"
)

const msgInternalError = "⚠ Ошибка. Попробуйте снова."

// SessionStore — внешнее хранилище сессий диалога.
type SessionStore interface {
	Load(ctx context.Context, chatID int64) (dialog.Session, error)
	Save(ctx context.Context, chatID int64, session dialog.Session) error
	Delete(ctx context.Context, chatID int64) error
}

// Bot connects Telegram to the dialog machine: it receives updates,
// loads the session they belong to, runs the transition and renders
// the returned instructions.
type Bot struct {
	api            *tgbotapi.BotAPI
	machine        *dialog.Machine
	sessions       SessionStore
	operatorChatID int64
	logger         *zap.Logger

	// chatLocks serializes events per conversation; different
	// conversations run concurrently.
	chatLocks sync.Map
}

func New(token string, debug bool, machine *dialog.Machine, sessions SessionStore, operatorChatID int64, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = debug

	logger.Info("Bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID))

	return &Bot{
		api:            api,
		machine:        machine,
		sessions:       sessions,
		operatorChatID: operatorChatID,
		logger:         logger,
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			b.api.StopReceivingUpdates()
			return nil

		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.withChatLock(update.Message.Chat.ID, func() {
			b.processMessage(ctx, update.Message)
		})
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		b.withChatLock(update.CallbackQuery.Message.Chat.ID, func() {
			b.processCallback(ctx, update.CallbackQuery)
		})
	}
}

// withChatLock runs fn while holding the conversation's lock, so each
// chat sees its events strictly in order.
func (b *Bot) withChatLock(chatID int64, fn func()) {
	v, _ := b.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	fn()
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, msg.Command())
		return
	}

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	session, err := b.sessions.Load(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to load session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.abortConversation(ctx, chatID)
		return
	}

	instructions, err := b.machine.HandleText(ctx, chatID, &session, msg.Text)
	b.applyTransition(ctx, chatID, 0, session, instructions, err)
}

func (b *Bot) processCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID

	// Убрать «часики» на кнопке.
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}

	action, ok := parseAction(callback.Data)
	if !ok {
		b.logger.Warn("Unknown callback data",
			zap.Int64("chat_id", chatID),
			zap.String("data", callback.Data))
		return
	}

	b.logger.Debug("Processing callback",
		zap.Int64("chat_id", chatID),
		zap.String("action", string(action)))

	session, err := b.sessions.Load(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to load session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.abortConversation(ctx, chatID)
		return
	}

	instructions, err := b.machine.HandleAction(ctx, chatID, &session, action)
	b.applyTransition(ctx, chatID, callback.Message.MessageID, session, instructions, err)
}

// applyTransition is the internal-failure policy holder: on a machine
// error the session is discarded and the user gets a generic apology.
// On success the session is persisted before anything is sent, so a
// crash between the two never loses an acknowledged transition.
func (b *Bot) applyTransition(ctx context.Context, chatID int64, promptMessageID int, session dialog.Session, instructions []dialog.Instruction, err error) {
	if err != nil {
		b.logger.Error("Dialog transition failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.abortConversation(ctx, chatID)
		return
	}

	if session.Active() {
		err = b.sessions.Save(ctx, chatID, session)
	} else {
		err = b.sessions.Delete(ctx, chatID)
	}
	if err != nil {
		b.logger.Error("Failed to persist session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.abortConversation(ctx, chatID)
		return
	}

	b.render(chatID, promptMessageID, instructions)
}

// abortConversation forces the dialog to its terminal state.
func (b *Bot) abortConversation(ctx context.Context, chatID int64) {
	if err := b.sessions.Delete(ctx, chatID); err != nil {
		b.logger.Error("Failed to discard session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
	b.send(tgbotapi.NewMessage(chatID, msgInternalError))
}

func parseAction(data string) (dialog.Action, bool) {
	switch action := dialog.Action(data); action {
	case dialog.ActionCallTaxi, dialog.ActionBack,
		dialog.ActionConfirmYes, dialog.ActionConfirmNo,
		dialog.ActionRepeatYes, dialog.ActionRepeatNo:
		return action, true
	default:
		return "", false
	}
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err))
	}
}
