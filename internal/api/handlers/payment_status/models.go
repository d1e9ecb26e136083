package payment_status

// PaymentStatusRequest уведомление платежного процессора
// Status в терминах процессора: approved, paid, rejected, refunded и т.п.
type PaymentStatusRequest struct {
	Status string `json:"status"`
}
