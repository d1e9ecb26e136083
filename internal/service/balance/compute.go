package balance

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Compute считает баланс исполнителя с нуля
//
//	balance   = сумма TotalPrice завершенных записей исполнителя / 100
//	available = max(0, balance - pending)
//
// Записи в других статусах и чужие записи игнорируются. pending передается как есть.
func Compute(providerID int64, appointments []*domain.Appointment, pending decimal.Decimal) domain.ProviderBalance {
	var totalMinor int64
	for _, a := range appointments {
		if a == nil || a.ProviderID != providerID || a.Status != domain.StatusCompleted {
			continue
		}
		totalMinor += a.TotalPrice
	}

	total := domain.MinorToMajor(totalMinor)
	available := total.Sub(pending)
	if available.IsNegative() {
		available = decimal.Zero
	}

	return domain.ProviderBalance{
		ProviderID:       providerID,
		Balance:          total,
		AvailableBalance: available,
		PendingBalance:   pending,
	}
}
