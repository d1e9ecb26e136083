package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на создание записи
type Request struct {
	ClientID     int64            // ID клиента (из X-User-ID)
	ProviderID   int64            // ID исполнителя
	ServiceID    int64            // ID услуги в каталоге
	Date         time.Time        // Дата записи (без времени)
	StartTime    types.TimeString // Время начала слота (например, "10:00")
	Notes        *string          // Дополнительные заметки (опционально)
	AsyncPayment bool             // Оплата проходит асинхронно: запись ждет подтверждения платежа
}
