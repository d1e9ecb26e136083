package update_appointment_status

// Action действие над записью из URL
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionNoShow   Action = "no-show"
)

// ActionPattern шаблон для маршрута mux
const ActionPattern = "confirm|start|complete|cancel|no-show"

// StatusActionRequest HTTP request model
// Code обязателен для complete, Reason используется только для cancel
type StatusActionRequest struct {
	Code   string  `json:"code,omitempty"`
	Reason *string `json:"reason,omitempty"`
}
