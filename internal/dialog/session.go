package dialog

// Step — состояние диалога заказа.
type Step string

const (
	// StepIdle — активного заказа нет; сессия в этом состоянии не хранится.
	StepIdle           Step = ""
	StepStartAddress   Step = "start_address"
	StepEndAddress     Step = "end_address"
	StepPhone          Step = "phone_number"
	StepTaxiType       Step = "taxi_type"
	StepConfirm        Step = "confirmation"
	StepRestartAddress Step = "restart_address"
	StepRepeat         Step = "repeat_order"
)

// Field — имя собранного поля заказа.
type Field string

const (
	FieldStartAddress Field = "start_address"
	FieldEndAddress   Field = "end_address"
	FieldPhone        Field = "phone_number"
	FieldTaxiType     Field = "taxi_type"
)

// prevStep is the explicit predecessor table over the linear step order.
// A step absent from the table has no earlier step, so back-navigation
// from it is rejected.
var prevStep = map[Step]Step{
	StepEndAddress: StepStartAddress,
	StepPhone:      StepEndAddress,
	StepTaxiType:   StepPhone,
	StepConfirm:    StepTaxiType,
}

// stepField maps a collection step to the field it fills in.
var stepField = map[Step]Field{
	StepStartAddress: FieldStartAddress,
	StepEndAddress:   FieldEndAddress,
	StepPhone:        FieldPhone,
	StepTaxiType:     FieldTaxiType,
}

// Session — состояние одного диалога. Принадлежит ровно одному чату;
// обрабатывается строго последовательно, поэтому без блокировок.
//
// Invariant: a field is present iff its collection step has been
// completed and not rewound since. History lists completed steps in
// order; back-navigation pops its tail.
type Session struct {
	Step    Step             `json:"step"`
	History []Step           `json:"history,omitempty"`
	Fields  map[Field]string `json:"fields,omitempty"`
}

// NewSession starts a fresh dialog at the first collection step.
func NewSession() Session {
	return Session{
		Step:   StepStartAddress,
		Fields: make(map[Field]string),
	}
}

// Active reports whether the session carries a dialog in progress.
func (s *Session) Active() bool {
	return s.Step != StepIdle
}

func (s *Session) Field(f Field) string {
	return s.Fields[f]
}

func (s *Session) setField(f Field, value string) {
	if s.Fields == nil {
		s.Fields = make(map[Field]string)
	}
	s.Fields[f] = value
}

func (s *Session) clearField(f Field) {
	delete(s.Fields, f)
}

// advance marks the current step completed and moves to the next one.
func (s *Session) advance(next Step) {
	s.History = append(s.History, s.Step)
	s.Step = next
}

// rewindTo moves back to target, dropping it from the completed history
// together with the field it had collected. Exactly one step, one field.
func (s *Session) rewindTo(target Step) {
	if n := len(s.History); n > 0 && s.History[n-1] == target {
		s.History = s.History[:n-1]
	}
	if f, ok := stepField[target]; ok {
		s.clearField(f)
	}
	s.Step = target
}
