package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// BalanceResponse баланс исполнителя; суммы в основных единицах с двумя знаками ("150.00")
type BalanceResponse struct {
	ProviderID       int64      `json:"providerId"`
	Balance          string     `json:"balance"`
	AvailableBalance string     `json:"availableBalance"`
	PendingBalance   string     `json:"pendingBalance"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// FromDomainBalance конвертирует domain модель в DTO
func FromDomainBalance(b *domain.ProviderBalance) *BalanceResponse {
	if b == nil {
		return nil
	}

	resp := &BalanceResponse{
		ProviderID:       b.ProviderID,
		Balance:          b.Balance.StringFixed(2),
		AvailableBalance: b.AvailableBalance.StringFixed(2),
		PendingBalance:   b.PendingBalance.StringFixed(2),
	}
	if !b.UpdatedAt.IsZero() {
		updatedAt := b.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}

	return resp
}
