package dialog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/LuckyBoy34/taxi/internal/geo"
	"github.com/LuckyBoy34/taxi/internal/pricing"
)

// Подсказки шагов. Тексты совпадают с тем, что видит пользователь.
const (
	promptStartAddress   = "📍 Введите начальный адрес (пример: ул. Пушкина, 10):"
	promptStartAgain     = "📍 Введите начальный адрес:"
	promptEndAddress     = "📍 Введите конечный адрес:"
	promptPhone          = "📱 Введите ваш телефон (+7 900 123 45 67):"
	promptPhoneAgain     = "📱 Введите ваш телефон:"
	promptTaxiType       = "🚕 Выберите тип такси:"
	promptTaxiTypeAgain  = "🔄 Выберите тип такси:"
	msgStartSaved        = "✅ Начальный адрес сохранен!\n" + promptEndAddress
	msgRestartSaved      = "✅ Новый начальный адрес сохранен!\n" + promptEndAddress
	msgPhoneAccepted     = "✅ Номер принят!"
	msgAddressNotFound   = "❌ Адрес не найден. Введите снова:"
	msgBadPhone          = "❌ Неверный формат! Пример: +7 900 123 45 67"
	msgBadTaxiType       = "⚠ Выберите вариант из предложенных!"
	msgNoEarlierStep     = "❌ Невозможно вернуться назад."
	msgCalculating       = "⌛ Рассчитываю ваш заказ..."
	msgUseButtons        = "Пожалуйста, воспользуйтесь кнопками под сообщением."
	msgNoActiveOrder     = "Активного заказа нет. Отправьте /start, чтобы начать."
	msgGoodbye           = "Спасибо за использование нашего сервиса! Если хотите заказать ещё одно такси, снова введите /start 😊"
	questionRepeatOrder  = "Хотите заказать ещё одно такси?"
	questionConfirmFmt   = "Подтверждаете выбор тарифа '%s'?"
	msgAddressProblems   = "⚠ Проблемы с адресами!"
	errStartAddressLine  = "Начальный адрес: не найден или вне зоны обслуживания."
	errEndAddressLine    = "Конечный адрес: не найден или вне зоны обслуживания."
)

// Geocoder resolves a free-text address to a coordinate inside the
// service area. One attempt per call, the client enforces the timeout.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (geo.Point, error)
}

// OrderArchive persists finalized orders. Optional: a failed save is
// logged and does not fail the order.
type OrderArchive interface {
	SaveOrder(ctx context.Context, order Order) (int64, error)
}

// Machine — диалоговый автомат заказа. Получает событие вместе с
// сессией, к которой оно относится, мутирует сессию и возвращает
// инструкции для транспорта. Ошибку возвращает только при внутреннем
// сбое; политика "извинение и сброс сессии" лежит на вызывающем.
type Machine struct {
	geocoder Geocoder
	tariffs  *pricing.Catalog
	archive  OrderArchive
	mapHost  string
	logger   *zap.Logger
}

func NewMachine(geocoder Geocoder, tariffs *pricing.Catalog, archive OrderArchive, mapHost string, logger *zap.Logger) *Machine {
	return &Machine{
		geocoder: geocoder,
		tariffs:  tariffs,
		archive:  archive,
		mapHost:  mapHost,
		logger:   logger,
	}
}

// HandleText processes a free-text message for the session's current
// step. Validation failures re-prompt in place and leave the session
// untouched.
func (m *Machine) HandleText(ctx context.Context, chatID int64, s *Session, text string) ([]Instruction, error) {
	switch s.Step {
	case StepStartAddress:
		return m.handleStartAddress(ctx, s, text)
	case StepEndAddress:
		return m.handleEndAddress(ctx, s, text)
	case StepPhone:
		return m.handlePhone(s, text)
	case StepTaxiType:
		return m.handleTaxiType(s, text)
	case StepRestartAddress:
		return m.handleRestartAddress(ctx, s, text)
	case StepConfirm, StepRepeat:
		return []Instruction{say(msgUseButtons)}, nil
	case StepIdle:
		return []Instruction{say(msgNoActiveOrder)}, nil
	default:
		return nil, fmt.Errorf("unknown dialog step %q", s.Step)
	}
}

// HandleAction processes a button press.
func (m *Machine) HandleAction(ctx context.Context, chatID int64, s *Session, action Action) ([]Instruction, error) {
	switch action {
	case ActionCallTaxi:
		// Повторное нажатие при активном заказе начинает диалог заново.
		*s = NewSession()
		return []Instruction{say(promptStartAddress)}, nil

	case ActionBack:
		return m.handleBack(s)

	case ActionConfirmYes:
		if s.Step != StepConfirm {
			return m.staleButton(chatID, s, action), nil
		}
		instructions := []Instruction{{
			Text:         msgCalculating,
			DeletePrompt: true,
			RemoveReply:  true,
		}}
		rest, err := m.finalize(ctx, chatID, s)
		if err != nil {
			return nil, err
		}
		return append(instructions, rest...), nil

	case ActionConfirmNo:
		if s.Step != StepConfirm {
			return m.staleButton(chatID, s, action), nil
		}
		s.rewindTo(StepTaxiType)
		return []Instruction{{
			Text:         promptTaxiTypeAgain,
			DeletePrompt: true,
			Reply:        m.taxiTypeKeyboard(),
		}}, nil

	case ActionRepeatYes:
		if s.Step != StepRepeat {
			return m.staleButton(chatID, s, action), nil
		}
		*s = NewSession()
		return []Instruction{{
			Text:         promptStartAgain,
			DeletePrompt: true,
			RemoveReply:  true,
		}}, nil

	case ActionRepeatNo:
		if s.Step != StepRepeat {
			return m.staleButton(chatID, s, action), nil
		}
		*s = Session{} // диалог завершён, сессия стирается
		return []Instruction{{
			Text:         msgGoodbye,
			DeletePrompt: true,
			RemoveReply:  true,
		}}, nil

	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

func (m *Machine) handleStartAddress(ctx context.Context, s *Session, address string) ([]Instruction, error) {
	if !m.resolvable(ctx, address) {
		return []Instruction{say(msgAddressNotFound)}, nil
	}

	s.setField(FieldStartAddress, address)
	s.advance(StepEndAddress)
	return []Instruction{sayInline(msgStartSaved, inlineRow(backButton))}, nil
}

func (m *Machine) handleEndAddress(ctx context.Context, s *Session, address string) ([]Instruction, error) {
	if !m.resolvable(ctx, address) {
		return []Instruction{say(msgAddressNotFound)}, nil
	}

	s.setField(FieldEndAddress, address)
	s.advance(StepPhone)
	return []Instruction{sayInline(promptPhone, inlineRow(backButton))}, nil
}

func (m *Machine) handlePhone(s *Session, phone string) ([]Instruction, error) {
	if !ValidPhone(phone) {
		return []Instruction{say(msgBadPhone)}, nil
	}

	s.setField(FieldPhone, phone)
	s.advance(StepTaxiType)
	return []Instruction{
		{Text: msgPhoneAccepted, RemoveReply: true},
		{Text: promptTaxiType, Reply: m.taxiTypeKeyboard()},
	}, nil
}

func (m *Machine) handleTaxiType(s *Session, taxiType string) ([]Instruction, error) {
	if !m.tariffs.Has(taxiType) {
		return []Instruction{say(msgBadTaxiType)}, nil
	}

	s.setField(FieldTaxiType, taxiType)
	s.advance(StepConfirm)
	return []Instruction{sayInline(
		fmt.Sprintf(questionConfirmFmt, taxiType),
		yesNoKeyboard(ActionConfirmYes, ActionConfirmNo)...,
	)}, nil
}

// handleRestartAddress re-collects the start address after a failed
// finalization. The same geocoding gate applies as on the normal start
// step; on success the dialog goes straight to the end-address step.
func (m *Machine) handleRestartAddress(ctx context.Context, s *Session, address string) ([]Instruction, error) {
	if !m.resolvable(ctx, address) {
		return []Instruction{say(msgAddressNotFound)}, nil
	}

	s.setField(FieldStartAddress, address)
	s.History = []Step{StepStartAddress}
	s.Step = StepEndAddress
	return []Instruction{sayInline(msgRestartSaved, inlineRow(backButton))}, nil
}

func (m *Machine) handleBack(s *Session) ([]Instruction, error) {
	target, ok := prevStep[s.Step]
	if !ok {
		return []Instruction{say(msgNoEarlierStep)}, nil
	}

	s.rewindTo(target)

	switch target {
	case StepStartAddress:
		return []Instruction{say(promptStartAgain)}, nil
	case StepEndAddress:
		return []Instruction{sayInline(promptEndAddress, inlineRow(backButton))}, nil
	case StepPhone:
		return []Instruction{sayInline(promptPhoneAgain, inlineRow(backButton))}, nil
	case StepTaxiType:
		return []Instruction{{Text: promptTaxiType, Reply: m.taxiTypeKeyboard()}}, nil
	default:
		return nil, fmt.Errorf("no prompt for step %q", target)
	}
}

// resolvable applies the address gate of the collection steps. Any
// resolver failure, including transport errors and timeouts, counts as
// "unusable for this step" and re-prompts.
func (m *Machine) resolvable(ctx context.Context, address string) bool {
	_, err := m.geocoder.Resolve(ctx, address)
	if err != nil {
		m.logger.Warn("Address resolution failed",
			zap.String("address", address),
			zap.Error(err))
		return false
	}
	return true
}

func (m *Machine) taxiTypeKeyboard() [][]string {
	return [][]string{m.tariffs.Names()}
}

func (m *Machine) staleButton(chatID int64, s *Session, action Action) []Instruction {
	m.logger.Debug("Button press does not match current step",
		zap.Int64("chat_id", chatID),
		zap.String("step", string(s.Step)),
		zap.String("action", string(action)))
	return nil
}
