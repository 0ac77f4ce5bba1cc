package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LuckyBoy34/taxi/internal/geo"
	"github.com/LuckyBoy34/taxi/internal/pricing"
)

// Order — итог заказа, собранный из полностью заполненной сессии.
// Живёт только в момент финализации и в архиве.
type Order struct {
	ChatID       int64     `db:"chat_id"`
	StartAddress string    `db:"start_address"`
	EndAddress   string    `db:"end_address"`
	Phone        string    `db:"phone"`
	TaxiType     string    `db:"taxi_type"`
	DistanceKm   float64   `db:"distance_km"`
	Cost         float64   `db:"cost"`
	CreatedAt    time.Time `db:"created_at"`
}

// finalize re-resolves both addresses, prices the trip and dispatches
// the confirmation to the requester and the operator. Addresses are
// re-validated even though they passed at entry: the resolver may have
// failed since, or the service area may have drifted.
func (m *Machine) finalize(ctx context.Context, chatID int64, s *Session) ([]Instruction, error) {
	startAddr := s.Field(FieldStartAddress)
	endAddr := s.Field(FieldEndAddress)

	startPoint, startErr := m.geocoder.Resolve(ctx, startAddr)
	endPoint, endErr := m.geocoder.Resolve(ctx, endAddr)

	if startErr != nil || endErr != nil {
		return m.rejectAddresses(chatID, s, startErr, endErr), nil
	}

	tariffName := s.Field(FieldTaxiType)
	tariff, err := m.tariffs.Lookup(tariffName)
	if err != nil {
		return nil, fmt.Errorf("finalize order: %w", err)
	}

	distance := geo.DistanceKm(startPoint, endPoint)
	order := Order{
		ChatID:       chatID,
		StartAddress: startAddr,
		EndAddress:   endAddr,
		Phone:        s.Field(FieldPhone),
		TaxiType:     tariffName,
		DistanceKm:   distance,
		Cost:         pricing.Cost(tariff, distance),
		CreatedAt:    time.Now(),
	}

	m.archiveOrder(ctx, order)

	text := formatOrder(order, geo.RouteURL(m.mapHost, startPoint, endPoint))
	s.advance(StepRepeat)

	return []Instruction{
		{Text: text, Markdown: true},
		{To: ToOperator, Text: "🔥 *Новый заказ!*\n" + text, Markdown: true},
		sayInline(questionRepeatOrder, yesNoKeyboard(ActionRepeatYes, ActionRepeatNo)...),
	}, nil
}

// rejectAddresses reports which address failed re-resolution and routes
// the dialog to the restart-address branch. Only the start address is
// re-asked there, even when the end address was the one that failed;
// the end address is then re-collected right after.
func (m *Machine) rejectAddresses(chatID int64, s *Session, startErr, endErr error) []Instruction {
	var details []string
	if startErr != nil {
		m.logger.Warn("Start address failed re-resolution",
			zap.Int64("chat_id", chatID), zap.Error(startErr))
		details = append(details, errStartAddressLine)
	}
	if endErr != nil {
		m.logger.Warn("End address failed re-resolution",
			zap.Int64("chat_id", chatID), zap.Error(endErr))
		details = append(details, errEndAddressLine)
	}

	s.Step = StepRestartAddress
	s.History = nil

	text := msgAddressProblems + "\n" + strings.Join(details, "\n") + "\n\n" + promptStartAgain
	return []Instruction{say(text)}
}

func (m *Machine) archiveOrder(ctx context.Context, order Order) {
	if m.archive == nil {
		return
	}

	id, err := m.archive.SaveOrder(ctx, order)
	if err != nil {
		// Архив не должен ронять заказ: оператор уже получает копию.
		m.logger.Error("Failed to archive order",
			zap.Int64("chat_id", order.ChatID),
			zap.Error(err))
		return
	}

	m.logger.Info("Order archived",
		zap.Int64("order_id", id),
		zap.Int64("chat_id", order.ChatID))
}

func formatOrder(order Order, routeURL string) string {
	return fmt.Sprintf(
		"🚖 *Заказ подтверждён! В течение 5 минут с вами свяжется оператор и подберёт для вас лучший автомобиль!*\n\n"+
			"▪ Откуда: %s\n"+
			"▪ Куда: %s\n"+
			"▪ Телефон: `%s`\n"+
			"▪ Тариф: %s\n"+
			"▪ Расстояние(Указывается напрямую без учёта дорог): %.1f км\n"+
			"▪ Стоимость: %.0f ₽\n\n"+
			"[🗺 Маршрут](%s)",
		order.StartAddress,
		order.EndAddress,
		order.Phone,
		order.TaxiType,
		order.DistanceKm,
		order.Cost,
		routeURL,
	)
}
