package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProviderBalance is the provider's ledger position derived from completed appointments
// Invariant: AvailableBalance = max(0, Balance - PendingBalance), Balance >= 0
type ProviderBalance struct {
	ProviderID       int64
	Balance          decimal.Decimal // total earned, major currency units
	AvailableBalance decimal.Decimal // withdrawable now
	PendingBalance   decimal.Decimal // in-flight withdrawals, owned by the withdrawal subsystem
	UpdatedAt        time.Time
}

// MinorUnitsPerMajor number of minor currency units (cents) in one major unit
const MinorUnitsPerMajor = 100

// MinorToMajor converts minor units (cents) into a decimal major amount
func MinorToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, 0).Div(decimal.NewFromInt(MinorUnitsPerMajor))
}
