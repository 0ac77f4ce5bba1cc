package dialog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LuckyBoy34/taxi/internal/geo"
	"github.com/LuckyBoy34/taxi/internal/geocoder"
	"github.com/LuckyBoy34/taxi/internal/pricing"
)

const testChatID int64 = 100500

// fakeGeocoder resolves only the addresses it was told about.
type fakeGeocoder struct {
	points map[string]geo.Point
	calls  int
}

func (f *fakeGeocoder) Resolve(_ context.Context, address string) (geo.Point, error) {
	f.calls++
	p, ok := f.points[address]
	if !ok {
		return geo.Point{}, geocoder.ErrNotFound
	}
	return p, nil
}

// recordingArchive captures saved orders.
type recordingArchive struct {
	orders []Order
	err    error
}

func (a *recordingArchive) SaveOrder(_ context.Context, order Order) (int64, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.orders = append(a.orders, order)
	return int64(len(a.orders)), nil
}

// Две точки на одном меридиане на расстоянии 3.2 км.
var (
	pointA = geo.Point{Lat: 51.6, Lon: 39.2}
	pointB = geo.Point{Lat: 51.628778, Lon: 39.2}
)

func newTestMachine(g Geocoder, archive OrderArchive) *Machine {
	return NewMachine(g, pricing.DefaultCatalog(), archive, "yandex.ru", zap.NewNop())
}

func knownAddresses() *fakeGeocoder {
	return &fakeGeocoder{points: map[string]geo.Point{
		"ул. Пушкина, 10": pointA,
		"пл. Ленина, 1":   pointB,
	}}
}

// advanceToConfirm walks a session through all four collection steps.
func advanceToConfirm(t *testing.T, m *Machine, s *Session) {
	t.Helper()
	ctx := context.Background()

	for _, text := range []string{"ул. Пушкина, 10", "пл. Ленина, 1", "+7 900 123 45 67", "Стандарт"} {
		_, err := m.HandleText(ctx, testChatID, s, text)
		require.NoError(t, err)
	}
	require.Equal(t, StepConfirm, s.Step)
}

func TestForwardFlow(t *testing.T) {
	m := newTestMachine(knownAddresses(), nil)
	s := NewSession()

	advanceToConfirm(t, m, &s)

	assert.Equal(t, map[Field]string{
		FieldStartAddress: "ул. Пушкина, 10",
		FieldEndAddress:   "пл. Ленина, 1",
		FieldPhone:        "+7 900 123 45 67",
		FieldTaxiType:     "Стандарт",
	}, s.Fields)
	assert.Equal(t,
		[]Step{StepStartAddress, StepEndAddress, StepPhone, StepTaxiType},
		s.History)
}

func TestValidationFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(knownAddresses(), nil)

	tests := []struct {
		name  string
		setup func(t *testing.T, s *Session)
		input string
		reply string
	}{
		{
			name:  "unknown start address",
			setup: func(t *testing.T, s *Session) {},
			input: "incognito street",
			reply: msgAddressNotFound,
		},
		{
			name: "bad phone",
			setup: func(t *testing.T, s *Session) {
				_, err := m.HandleText(ctx, testChatID, s, "ул. Пушкина, 10")
				require.NoError(t, err)
				_, err = m.HandleText(ctx, testChatID, s, "пл. Ленина, 1")
				require.NoError(t, err)
			},
			input: "89001234567",
			reply: msgBadPhone,
		},
		{
			name: "unknown taxi type",
			setup: func(t *testing.T, s *Session) {
				_, err := m.HandleText(ctx, testChatID, s, "ул. Пушкина, 10")
				require.NoError(t, err)
				_, err = m.HandleText(ctx, testChatID, s, "пл. Ленина, 1")
				require.NoError(t, err)
				_, err = m.HandleText(ctx, testChatID, s, "+79001234567")
				require.NoError(t, err)
			},
			input: "Бизнес",
			reply: msgBadTaxiType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			tt.setup(t, &s)

			before := s.Step
			fieldsBefore := len(s.Fields)

			out, err := m.HandleText(ctx, testChatID, &s, tt.input)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tt.reply, out[0].Text)
			assert.Equal(t, before, s.Step, "step must not change on rejected input")
			assert.Len(t, s.Fields, fieldsBefore, "fields must not change on rejected input")
		})
	}
}

func TestBackIsInverseOfForward(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(knownAddresses(), nil)
	s := NewSession()

	entries := []struct {
		text  string
		field Field
	}{
		{"ул. Пушкина, 10", FieldStartAddress},
		{"пл. Ленина, 1", FieldEndAddress},
		{"+7 900 123 45 67", FieldPhone},
		{"Стандарт", FieldTaxiType},
	}

	for _, entry := range entries {
		before := s.Step
		fieldsBefore := len(s.Fields)

		_, err := m.HandleText(ctx, testChatID, &s, entry.text)
		require.NoError(t, err)

		_, err = m.HandleAction(ctx, testChatID, &s, ActionBack)
		require.NoError(t, err)

		assert.Equal(t, before, s.Step, "back after %q must restore the step", entry.text)
		assert.Len(t, s.Fields, fieldsBefore, "back must remove exactly the field just entered")
		assert.NotContains(t, s.Fields, entry.field)

		// Вернуть значение и идти дальше.
		_, err = m.HandleText(ctx, testChatID, &s, entry.text)
		require.NoError(t, err)
	}
}

func TestBackRejectedAtFirstStep(t *testing.T) {
	m := newTestMachine(knownAddresses(), nil)
	s := NewSession()

	out, err := m.HandleAction(context.Background(), testChatID, &s, ActionBack)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, msgNoEarlierStep, out[0].Text)
	assert.Equal(t, StepStartAddress, s.Step)
	assert.Empty(t, s.Fields)
	assert.Empty(t, s.History)
}

func TestConfirmRejectReasksTaxiType(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(knownAddresses(), nil)
	s := NewSession()
	advanceToConfirm(t, m, &s)

	out, err := m.HandleAction(ctx, testChatID, &s, ActionConfirmNo)
	require.NoError(t, err)

	assert.Equal(t, StepTaxiType, s.Step)
	assert.NotContains(t, s.Fields, FieldTaxiType)
	assert.Contains(t, s.Fields, FieldPhone, "reject must clear only the taxi type")
	require.Len(t, out, 1)
	assert.True(t, out[0].DeletePrompt)
	assert.NotEmpty(t, out[0].Reply, "taxi type keyboard expected")
}

func TestFullScenario(t *testing.T) {
	ctx := context.Background()
	archive := &recordingArchive{}
	m := newTestMachine(knownAddresses(), archive)
	s := NewSession()
	advanceToConfirm(t, m, &s)

	out, err := m.HandleAction(ctx, testChatID, &s, ActionConfirmYes)
	require.NoError(t, err)
	require.Equal(t, StepRepeat, s.Step)

	// Интерим, подтверждение, копия оператору, вопрос о повторе.
	require.Len(t, out, 4)
	assert.Equal(t, msgCalculating, out[0].Text)

	confirmation := out[1]
	assert.Equal(t, ToRequester, confirmation.To)
	assert.True(t, confirmation.Markdown)
	assert.Contains(t, confirmation.Text, "ул. Пушкина, 10")
	assert.Contains(t, confirmation.Text, "пл. Ленина, 1")
	assert.Contains(t, confirmation.Text, "+7 900 123 45 67")
	assert.Contains(t, confirmation.Text, "Стандарт")
	assert.Contains(t, confirmation.Text, "3.2 км")
	assert.Contains(t, confirmation.Text, "476 ₽")
	assert.Contains(t, confirmation.Text,
		fmt.Sprintf("https://yandex.ru/maps/?rtext=%g,%g~%g,%g&rtt=auto",
			pointA.Lat, pointA.Lon, pointB.Lat, pointB.Lon))

	operator := out[2]
	assert.Equal(t, ToOperator, operator.To)
	assert.True(t, strings.HasPrefix(operator.Text, "🔥 *Новый заказ!*"))
	assert.Contains(t, operator.Text, confirmation.Text)

	assert.Equal(t, questionRepeatOrder, out[3].Text)

	require.Len(t, archive.orders, 1)
	order := archive.orders[0]
	assert.Equal(t, testChatID, order.ChatID)
	assert.Equal(t, "Стандарт", order.TaxiType)
	assert.InDelta(t, 3.2, order.DistanceKm, 0.01)
	assert.InDelta(t, 476, order.Cost, 0.1)
}

func TestArchiveFailureDoesNotFailOrder(t *testing.T) {
	archive := &recordingArchive{err: fmt.Errorf("database gone")}
	m := newTestMachine(knownAddresses(), archive)
	s := NewSession()
	advanceToConfirm(t, m, &s)

	_, err := m.HandleAction(context.Background(), testChatID, &s, ActionConfirmYes)
	require.NoError(t, err)
	assert.Equal(t, StepRepeat, s.Step)
}

func TestFinalizeUnresolvableEndAddress(t *testing.T) {
	ctx := context.Background()
	g := knownAddresses()
	m := newTestMachine(g, nil)
	s := NewSession()
	advanceToConfirm(t, m, &s)

	// Конечный адрес перестаёт находиться между вводом и подтверждением.
	delete(g.points, "пл. Ленина, 1")

	out, err := m.HandleAction(ctx, testChatID, &s, ActionConfirmYes)
	require.NoError(t, err)

	assert.Equal(t, StepRestartAddress, s.Step)
	assert.Equal(t, "ул. Пушкина, 10", s.Field(FieldStartAddress))
	assert.Equal(t, "пл. Ленина, 1", s.Field(FieldEndAddress))
	assert.Equal(t, "+7 900 123 45 67", s.Field(FieldPhone))

	require.Len(t, out, 2)
	problem := out[1]
	assert.Contains(t, problem.Text, errEndAddressLine)
	assert.NotContains(t, problem.Text, errStartAddressLine)
	assert.Contains(t, problem.Text, promptStartAgain)
}

func TestFinalizeBothAddressesUnresolvable(t *testing.T) {
	g := knownAddresses()
	m := newTestMachine(g, nil)
	s := NewSession()
	advanceToConfirm(t, m, &s)

	g.points = nil

	out, err := m.HandleAction(context.Background(), testChatID, &s, ActionConfirmYes)
	require.NoError(t, err)

	assert.Equal(t, StepRestartAddress, s.Step)
	require.Len(t, out, 2)
	assert.Contains(t, out[1].Text, errStartAddressLine)
	assert.Contains(t, out[1].Text, errEndAddressLine)
}

func TestRestartAddressGateAndRejoin(t *testing.T) {
	ctx := context.Background()
	g := knownAddresses()
	m := newTestMachine(g, nil)
	s := NewSession()
	advanceToConfirm(t, m, &s)

	delete(g.points, "ул. Пушкина, 10")
	_, err := m.HandleAction(ctx, testChatID, &s, ActionConfirmYes)
	require.NoError(t, err)
	require.Equal(t, StepRestartAddress, s.Step)

	// Назад из ветки перезапуска некуда.
	out, err := m.HandleAction(ctx, testChatID, &s, ActionBack)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, msgNoEarlierStep, out[0].Text)
	assert.Equal(t, StepRestartAddress, s.Step)

	// Невалидный новый адрес — повторный запрос на месте.
	out, err = m.HandleText(ctx, testChatID, &s, "другая улица")
	require.NoError(t, err)
	assert.Equal(t, msgAddressNotFound, out[0].Text)
	assert.Equal(t, StepRestartAddress, s.Step)

	// Валидный новый адрес — сразу к конечному адресу.
	g.points["Московский проспект, 5"] = pointA
	out, err = m.HandleText(ctx, testChatID, &s, "Московский проспект, 5")
	require.NoError(t, err)
	assert.Equal(t, StepEndAddress, s.Step)
	assert.Equal(t, "Московский проспект, 5", s.Field(FieldStartAddress))
	assert.Equal(t, []Step{StepStartAddress}, s.History)
	assert.Equal(t, msgRestartSaved, out[0].Text)
}

func TestRepeatDecision(t *testing.T) {
	ctx := context.Background()

	t.Run("repeat starts a fresh dialog", func(t *testing.T) {
		m := newTestMachine(knownAddresses(), nil)
		s := NewSession()
		advanceToConfirm(t, m, &s)
		_, err := m.HandleAction(ctx, testChatID, &s, ActionConfirmYes)
		require.NoError(t, err)

		out, err := m.HandleAction(ctx, testChatID, &s, ActionRepeatYes)
		require.NoError(t, err)

		assert.Equal(t, StepStartAddress, s.Step)
		assert.Empty(t, s.Fields)
		assert.Empty(t, s.History)
		require.Len(t, out, 1)
		assert.Equal(t, promptStartAgain, out[0].Text)
	})

	t.Run("decline clears the session entirely", func(t *testing.T) {
		m := newTestMachine(knownAddresses(), nil)
		s := NewSession()
		advanceToConfirm(t, m, &s)
		_, err := m.HandleAction(ctx, testChatID, &s, ActionConfirmYes)
		require.NoError(t, err)

		out, err := m.HandleAction(ctx, testChatID, &s, ActionRepeatNo)
		require.NoError(t, err)

		assert.False(t, s.Active())
		assert.Empty(t, s.Fields)
		assert.Empty(t, s.History)
		require.Len(t, out, 1)
		assert.Equal(t, msgGoodbye, out[0].Text)
	})
}

func TestCallTaxiRestartsActiveDialog(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(knownAddresses(), nil)
	s := NewSession()
	advanceToConfirm(t, m, &s)

	out, err := m.HandleAction(ctx, testChatID, &s, ActionCallTaxi)
	require.NoError(t, err)

	assert.Equal(t, StepStartAddress, s.Step)
	assert.Empty(t, s.Fields)
	require.Len(t, out, 1)
	assert.Equal(t, promptStartAddress, out[0].Text)
}

func TestTextAtButtonSteps(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(knownAddresses(), nil)
	s := NewSession()
	advanceToConfirm(t, m, &s)

	out, err := m.HandleText(ctx, testChatID, &s, "да")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, msgUseButtons, out[0].Text)
	assert.Equal(t, StepConfirm, s.Step)
}

func TestStaleButtonIsIgnored(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(knownAddresses(), nil)
	s := NewSession() // шаг ввода адреса, кнопки подтверждения уже неактуальны

	out, err := m.HandleAction(ctx, testChatID, &s, ActionConfirmYes)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, StepStartAddress, s.Step)
}
