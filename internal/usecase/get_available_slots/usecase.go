package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	slotsCache "github.com/m04kA/SMC-SchedulingService/internal/infra/cache/slots"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalog"
)

// UseCase use case для получения слотов исполнителя на дату
type UseCase struct {
	appointmentRepo AppointmentRepository
	scheduleRepo    ScheduleRepository
	catalogClient   CatalogClient
	slotCache       SlotCache
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	scheduleRepo ScheduleRepository,
	catalogClient CatalogClient,
	slotCache SlotCache,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		scheduleRepo:    scheduleRepo,
		catalogClient:   catalogClient,
		slotCache:       slotCache,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case получения слотов
// Прошедшие даты дают пустой список, на сегодня скрываются уже начавшиеся слоты
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: provider=%d, service=%d, date=%s",
		req.ProviderID, req.ServiceID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()
	date := domain.DateOnly(req.Date)

	// 3. Получаем услугу: длительность слота равна длительности услуги
	service, err := uc.catalogClient.GetService(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrServiceNotFound):
			uc.logger.Warn("GetAvailableSlots: service id=%d not found for provider=%d", req.ServiceID, req.ProviderID)
			return nil, ErrServiceNotFound
		case errors.Is(err, catalog.ErrServiceInactive):
			uc.logger.Warn("GetAvailableSlots: service id=%d is inactive", req.ServiceID)
			return nil, ErrServiceInactive
		default:
			uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", req.ServiceID, err)
			return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}
	}

	resp := &Response{
		Date:            date,
		ProviderID:      req.ProviderID,
		ServiceID:       req.ServiceID,
		DurationMinutes: service.DurationMinutes,
		Slots:           []Slot{},
	}

	// 4. Для прошедших дат слотов нет
	if domain.DayBefore(date, now) {
		uc.logger.Info("GetAvailableSlots: date %s is in the past", date.Format(domain.DateFormat))
		return resp, nil
	}

	// 5. Пробуем взять слоты из кэша
	slots, hit, err := uc.slotCache.Get(ctx, req.ProviderID, date, service.DurationMinutes)
	if err != nil {
		uc.logger.Warn("GetAvailableSlots: cache read failed, computing slots: %v", err)
	}

	if !hit {
		// 6. Поколение кэша фиксируется до чтения БД: если за время расчета
		// появится запись, Set увидит новое поколение и не сохранит устаревшие слоты
		generation, genErr := uc.slotCache.Generation(ctx, req.ProviderID, date)
		if genErr != nil {
			uc.logger.Warn("GetAvailableSlots: cache generation read failed, result will not be cached: %v", genErr)
		}

		// 7. Вычисляем слоты по расписанию, блокировкам и записям
		slots, err = uc.compute(ctx, req.ProviderID, date, service.DurationMinutes)
		if err != nil {
			return nil, err
		}

		if genErr == nil {
			err := uc.slotCache.Set(ctx, req.ProviderID, date, service.DurationMinutes, slots, generation)
			switch {
			case errors.Is(err, slotsCache.ErrStale):
				uc.logger.Info("GetAvailableSlots: cache invalidated during computation, skip fill for provider=%d date=%s",
					req.ProviderID, date.Format(domain.DateFormat))
			case err != nil:
				uc.logger.Warn("GetAvailableSlots: cache write failed: %v", err)
			}
		}
	}

	// 8. Скрываем уже начавшиеся слоты
	resp.Slots = visibleSlots(slots, date, now)

	uc.logger.Info("GetAvailableSlots: %d slots for provider=%d, service=%d, date=%s (cached=%t)",
		len(resp.Slots), req.ProviderID, req.ServiceID, date.Format(domain.DateFormat), hit)

	return resp, nil
}

// compute строит слоты на дату без учета текущего времени (результат можно кэшировать)
func (uc *UseCase) compute(ctx context.Context, providerID int64, date time.Time, durationMinutes int) ([]domain.TimeSlot, error) {
	schedule, err := uc.scheduleRepo.GetByProviderID(ctx, providerID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			uc.logger.Info("GetAvailableSlots: provider=%d has no schedule", providerID)
			return []domain.TimeSlot{}, nil
		}
		uc.logger.Error("GetAvailableSlots: failed to get schedule for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: failed to get schedule: %v", domain.ErrPersistenceFailure, err)
	}

	candidates := availability.Generate(schedule, date, durationMinutes)
	if len(candidates) == 0 {
		return []domain.TimeSlot{}, nil
	}

	blocked, err := uc.scheduleRepo.ListBlockedRanges(ctx, providerID, &date, &date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list blocked ranges: %v", err)
		return nil, fmt.Errorf("%w: failed to list blocked ranges: %v", domain.ErrPersistenceFailure, err)
	}
	schedule.BlockedRanges = blocked

	appointments, err := uc.appointmentRepo.ListByFilter(ctx, domain.AppointmentFilter{
		ProviderID: &providerID,
		Date:       &date,
		ActiveOnly: true,
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list appointments: %v", err)
		return nil, fmt.Errorf("%w: failed to list appointments: %v", domain.ErrPersistenceFailure, err)
	}

	return availability.Filter(candidates, durationMinutes, date, schedule, appointments), nil
}
