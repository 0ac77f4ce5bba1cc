package dialog

// Action — дискретное нажатие inline-кнопки.
type Action string

const (
	ActionCallTaxi   Action = "call_taxi"
	ActionBack       Action = "back"
	ActionConfirmYes Action = "confirm_yes"
	ActionConfirmNo  Action = "confirm_no"
	ActionRepeatYes  Action = "repeat_yes"
	ActionRepeatNo   Action = "repeat_no"
)

// Recipient of an outbound instruction.
type Recipient int

const (
	// ToRequester — пользователь, оформляющий заказ.
	ToRequester Recipient = iota
	// ToOperator — фиксированный операторский чат.
	ToOperator
)

// InlineButton — подпись и действие inline-кнопки.
type InlineButton struct {
	Label  string
	Action Action
}

// Instruction is what the state machine asks the transport to do. The
// machine stays transport-agnostic: it never touches the messenger API,
// it only describes the message to render.
type Instruction struct {
	To       Recipient
	Text     string
	Markdown bool

	// DeletePrompt removes the message whose button triggered the event.
	DeletePrompt bool
	// RemoveReply hides the reply keyboard.
	RemoveReply bool

	Inline [][]InlineButton
	Reply  [][]string
}

func say(text string) Instruction {
	return Instruction{Text: text}
}

func sayInline(text string, rows ...[]InlineButton) Instruction {
	return Instruction{Text: text, Inline: rows}
}

func inlineRow(buttons ...InlineButton) []InlineButton {
	return buttons
}

var backButton = InlineButton{Label: "◀ Назад", Action: ActionBack}

func yesNoKeyboard(yes, no Action) [][]InlineButton {
	return [][]InlineButton{
		inlineRow(InlineButton{Label: "✅ Да", Action: yes}),
		inlineRow(InlineButton{Label: "❌ Нет", Action: no}),
	}
}
