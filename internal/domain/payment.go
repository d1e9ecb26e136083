package domain

import "strings"

// PaymentStatus represents the payment state reported by the payment processor
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// processorStatuses maps the raw strings reported by payment processors
var processorStatuses = map[string]PaymentStatus{
	"pending":      PaymentPending,
	"in_process":   PaymentProcessing,
	"processing":   PaymentProcessing,
	"authorized":   PaymentProcessing,
	"approved":     PaymentPaid,
	"paid":         PaymentPaid,
	"succeeded":    PaymentPaid,
	"captured":     PaymentPaid,
	"rejected":     PaymentFailed,
	"failed":       PaymentFailed,
	"canceled":     PaymentFailed,
	"cancelled":    PaymentFailed,
	"expired":      PaymentFailed,
	"refunded":     PaymentRefunded,
	"charged_back": PaymentRefunded,
}

// MapProcessorStatus converts a raw processor status string into a PaymentStatus
func MapProcessorStatus(raw string) (PaymentStatus, error) {
	status, ok := processorStatuses[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", ErrUnknownPaymentStatus
	}
	return status, nil
}
