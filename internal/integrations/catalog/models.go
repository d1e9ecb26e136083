package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Service модель услуги из каталога
type Service struct {
	ID              int64           `json:"id"`
	ProviderID      int64           `json:"provider_id"`
	Name            string          `json:"name"`
	DurationMinutes int             `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"` // в основных единицах валюты, например "75.00"
	Active          bool            `json:"active"`
}

// PriceMinor возвращает цену в минимальных единицах (центах), дробная часть меньше цента отбрасывается
func (s *Service) PriceMinor() int64 {
	return s.Price.Mul(decimal.NewFromInt(domain.MinorUnitsPerMajor)).IntPart()
}

// ErrorResponse модель ошибки от каталога
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
