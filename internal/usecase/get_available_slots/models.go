package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на получение слотов
type Request struct {
	ProviderID int64     // ID исполнителя
	ServiceID  int64     // ID услуги (определяет длительность слота)
	Date       time.Time // Дата для получения слотов (без времени)
}

// Response модель ответа со списком слотов
type Response struct {
	Date            time.Time // Дата, на которую запрашивались слоты
	ProviderID      int64     // ID исполнителя
	ServiceID       int64     // ID услуги
	DurationMinutes int       // Длительность услуги
	Slots           []Slot    // Слоты в хронологическом порядке
}

// Slot модель временного слота
type Slot struct {
	StartTime   types.TimeString // Время начала слота (например, "10:00")
	EndTime     types.TimeString // Время окончания слота
	IsAvailable bool             // Можно ли записаться на слот
}
