package create_appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/availability"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalog"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// Источники конфликтов слотов для метрик
const (
	conflictPrecheck      = "precheck"
	conflictConstraint    = "constraint"
	conflictSerialization = "serialization"
)

// UseCase use case для создания записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	scheduleRepo    ScheduleRepository
	catalogClient   CatalogClient
	slotCache       SlotCache
	txManager       TransactionManager
	timeProvider    TimeProvider
	metrics         *metrics.Metrics
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
// metrics может быть nil
func NewUseCase(
	appointmentRepo AppointmentRepository,
	scheduleRepo ScheduleRepository,
	catalogClient CatalogClient,
	slotCache SlotCache,
	txManager TransactionManager,
	metrics *metrics.Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		scheduleRepo:    scheduleRepo,
		catalogClient:   catalogClient,
		slotCache:       slotCache,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		metrics:         metrics,
		logger:          logger,
	}
}

// Execute выполняет use case создания записи
// Проверка слота и вставка выполняются в одной сериализуемой транзакции,
// поэтому из двух одновременных запросов на одно окно успешен только один
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*models.AppointmentResponse, error) {
	uc.logger.Info("CreateAppointment: client=%d, provider=%d, service=%d, date=%s, time=%s, async=%t",
		req.ClientID, req.ProviderID, req.ServiceID, req.Date.Format(domain.DateFormat), req.StartTime, req.AsyncPayment)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверяем, что слот не в прошлом
	now := uc.timeProvider.Now()
	if err := validateDate(req.Date, req.StartTime, now); err != nil {
		uc.logger.Warn("CreateAppointment: date validation failed: %v", err)
		return nil, err
	}

	// 3. Получаем услугу: длительность и цена берутся из каталога
	service, err := uc.catalogClient.GetService(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrServiceNotFound):
			uc.logger.Warn("CreateAppointment: service id=%d not found for provider=%d", req.ServiceID, req.ProviderID)
			return nil, ErrServiceNotFound
		case errors.Is(err, catalog.ErrServiceInactive):
			uc.logger.Warn("CreateAppointment: service id=%d is inactive", req.ServiceID)
			return nil, ErrServiceInactive
		default:
			uc.logger.Error("CreateAppointment: failed to get service id=%d: %v", req.ServiceID, err)
			return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}
	}

	// 4. Код подтверждения генерируется до транзакции
	code, err := domain.GenerateValidationCode()
	if err != nil {
		uc.logger.Error("CreateAppointment: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	date := domain.DateOnly(req.Date)
	var result *domain.Appointment

	// 5. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 5.1. Расписание исполнителя (отсутствие расписания отклоняется в CheckSlot)
		schedule, err := uc.scheduleRepo.GetByProviderID(txCtx, req.ProviderID)
		if err != nil && !errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			uc.logger.Error("CreateAppointment: failed to get schedule for provider=%d: %v", req.ProviderID, err)
			return fmt.Errorf("%w: failed to get schedule: %w", domain.ErrPersistenceFailure, err)
		}

		// 5.2. Заблокированные интервалы на эту дату
		if schedule != nil {
			blocked, err := uc.scheduleRepo.ListBlockedRanges(txCtx, req.ProviderID, &date, &date)
			if err != nil {
				uc.logger.Error("CreateAppointment: failed to list blocked ranges: %v", err)
				return fmt.Errorf("%w: failed to list blocked ranges: %w", domain.ErrPersistenceFailure, err)
			}
			schedule.BlockedRanges = blocked
		}

		// 5.3. Все неотмененные записи исполнителя на эту дату с блокировкой (FOR UPDATE)
		existing, err := uc.appointmentRepo.ListByFilter(txCtx, domain.AppointmentFilter{
			ProviderID: &req.ProviderID,
			Date:       &date,
			ActiveOnly: true,
		})
		if err != nil {
			uc.logger.Error("CreateAppointment: failed to list appointments: %v", err)
			return fmt.Errorf("%w: failed to list appointments: %w", domain.ErrPersistenceFailure, err)
		}

		// 5.4. Повторно проверяем слот на момент записи
		if err := availability.CheckSlot(req.StartTime, service.DurationMinutes, date, schedule, existing); err != nil {
			if errors.Is(err, domain.ErrSlotConflict) {
				uc.metrics.ObserveSlotConflict(conflictPrecheck)
			}
			uc.logger.Warn("CreateAppointment: slot rejected: %v", err)
			return err
		}

		// 5.5. Создаем запись
		appointment := &domain.Appointment{
			ClientID:       req.ClientID,
			ProviderID:     req.ProviderID,
			ServiceID:      req.ServiceID,
			Date:           date,
			StartTime:      req.StartTime,
			EndTime:        req.StartTime.AddMinutes(service.DurationMinutes),
			Status:         domain.StatusPending,
			PaymentStatus:  domain.PaymentPending,
			TotalPrice:     service.PriceMinor(),
			ValidationCode: &code,
			Notes:          normalizeNotes(req.Notes),
		}
		if req.AsyncPayment {
			appointment.Status = domain.StatusProcessingPayment
			appointment.PaymentStatus = domain.PaymentProcessing
		}

		created, err := uc.appointmentRepo.Create(txCtx, appointment)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrSlotNotAvailable) {
				uc.metrics.ObserveSlotConflict(conflictConstraint)
				uc.logger.Warn("CreateAppointment: slot taken concurrently: %v", err)
				return fmt.Errorf("%w: %v", domain.ErrSlotConflict, err)
			}
			uc.logger.Error("CreateAppointment: failed to create appointment: %v", err)
			return fmt.Errorf("%w: failed to create appointment: %w", domain.ErrPersistenceFailure, err)
		}

		result = created
		return nil
	})
	if err != nil {
		if errors.Is(err, txmanager.ErrSerialization) {
			uc.metrics.ObserveSlotConflict(conflictSerialization)
			uc.logger.Warn("CreateAppointment: serialization conflict for provider=%d date=%s",
				req.ProviderID, date.Format(domain.DateFormat))
			return nil, fmt.Errorf("%w: %v", domain.ErrSlotConflict, err)
		}
		return nil, err
	}

	uc.metrics.ObserveAppointmentCreated(string(result.Status))

	// 6. Окно занято - закэшированные слоты на эту дату устарели
	if err := uc.slotCache.Invalidate(ctx, req.ProviderID, date); err != nil {
		uc.logger.Warn("CreateAppointment: failed to invalidate slot cache for provider=%d date=%s: %v",
			req.ProviderID, date.Format(domain.DateFormat), err)
	}

	uc.logger.Info("CreateAppointment: successfully created appointment id=%d status=%s", result.ID, result.Status)
	return models.FromDomainAppointment(result, req.ClientID), nil
}
