package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
)

// Service сервис управления расписанием исполнителя
type Service struct {
	scheduleRepo ScheduleRepository
	slotCache    SlotCache
	logger       Logger
	now          func() time.Time
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(scheduleRepo ScheduleRepository, slotCache SlotCache, logger Logger) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		slotCache:    slotCache,
		logger:       logger,
		now:          time.Now,
	}
}

// Get возвращает расписание исполнителя вместе с предстоящими заблокированными интервалами
// Публичный метод - доступен всем
func (s *Service) Get(ctx context.Context, providerID int64) (*models.ScheduleResponse, error) {
	schedule, err := s.scheduleRepo.GetByProviderID(ctx, providerID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			s.logger.Warn("Get: schedule for provider=%d not found", providerID)
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("Get: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", domain.ErrPersistenceFailure, err)
	}

	today := domain.DateOnly(s.now())
	blocked, err := s.scheduleRepo.ListBlockedRanges(ctx, providerID, &today, nil)
	if err != nil {
		s.logger.Error("Get: failed to list blocked ranges for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: Get - list blocked ranges: %v", domain.ErrPersistenceFailure, err)
	}
	schedule.BlockedRanges = blocked

	return models.FromDomainSchedule(schedule), nil
}

// Upsert создает или полностью заменяет недельный шаблон расписания
// Доступно только самому исполнителю
func (s *Service) Upsert(ctx context.Context, req *models.UpsertScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("Upsert: updating schedule for provider=%d by user=%d", req.ProviderID, req.UserID)

	// 1. Проверяем права доступа
	if req.UserID != req.ProviderID {
		s.logger.Warn("Upsert: user=%d cannot modify schedule of provider=%d", req.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}

	// 2. Валидируем входные данные
	schedule, err := validateSchedule(req)
	if err != nil {
		s.logger.Warn("Upsert: validation failed: %v", err)
		return nil, err
	}

	// 3. Сохраняем расписание
	saved, err := s.scheduleRepo.Upsert(ctx, schedule)
	if err != nil {
		s.logger.Error("Upsert: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: Upsert - repository error: %v", domain.ErrPersistenceFailure, err)
	}

	// 4. Сетка слотов поменялась для всех дат
	if err := s.slotCache.InvalidateProvider(ctx, req.ProviderID); err != nil {
		s.logger.Warn("Upsert: failed to invalidate slot cache for provider=%d: %v", req.ProviderID, err)
	}

	s.logger.Info("Upsert: schedule id=%d saved for provider=%d", saved.ID, req.ProviderID)
	return models.FromDomainSchedule(saved), nil
}

// AddBlockedRange блокирует интервал на конкретную дату
// Уже существующие записи в интервале не затрагиваются
func (s *Service) AddBlockedRange(ctx context.Context, req *models.AddBlockedRangeRequest) (*models.BlockedRangeResponse, error) {
	s.logger.Info("AddBlockedRange: provider=%d date=%s %s-%s by user=%d",
		req.ProviderID, req.Date, req.StartTime, req.EndTime, req.UserID)

	if req.UserID != req.ProviderID {
		s.logger.Warn("AddBlockedRange: user=%d cannot modify schedule of provider=%d", req.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}

	br, err := validateBlockedRange(req)
	if err != nil {
		s.logger.Warn("AddBlockedRange: validation failed: %v", err)
		return nil, err
	}

	created, err := s.scheduleRepo.AddBlockedRange(ctx, br)
	if err != nil {
		s.logger.Error("AddBlockedRange: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: AddBlockedRange - repository error: %v", domain.ErrPersistenceFailure, err)
	}

	s.invalidateDate(ctx, "AddBlockedRange", req.ProviderID, created.Date)

	s.logger.Info("AddBlockedRange: blocked range id=%d created for provider=%d", created.ID, req.ProviderID)
	resp := models.FromDomainBlockedRange(*created)
	return &resp, nil
}

// RemoveBlockedRange удаляет заблокированный интервал исполнителя
func (s *Service) RemoveBlockedRange(ctx context.Context, providerID, rangeID, userID int64) error {
	s.logger.Info("RemoveBlockedRange: provider=%d range id=%d by user=%d", providerID, rangeID, userID)

	if userID != providerID {
		s.logger.Warn("RemoveBlockedRange: user=%d cannot modify schedule of provider=%d", userID, providerID)
		return ErrAccessDenied
	}

	deleted, err := s.scheduleRepo.DeleteBlockedRange(ctx, providerID, rangeID)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrBlockedRangeNotFound) {
			s.logger.Warn("RemoveBlockedRange: range id=%d not found for provider=%d", rangeID, providerID)
			return ErrBlockedRangeNotFound
		}
		s.logger.Error("RemoveBlockedRange: repository error for range id=%d: %v", rangeID, err)
		return fmt.Errorf("%w: RemoveBlockedRange - repository error: %v", domain.ErrPersistenceFailure, err)
	}

	s.invalidateDate(ctx, "RemoveBlockedRange", providerID, deleted.Date)

	s.logger.Info("RemoveBlockedRange: range id=%d removed", rangeID)
	return nil
}

// ListBlockedRanges возвращает заблокированные интервалы в диапазоне дат
// Публичный метод - доступен всем
func (s *Service) ListBlockedRanges(ctx context.Context, req *models.ListBlockedRangesRequest) (*models.BlockedRangeListResponse, error) {
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, fmt.Errorf("%w: 'to' must not be before 'from'", ErrInvalidInput)
	}

	list, err := s.scheduleRepo.ListBlockedRanges(ctx, req.ProviderID, req.From, req.To)
	if err != nil {
		s.logger.Error("ListBlockedRanges: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: ListBlockedRanges - repository error: %v", domain.ErrPersistenceFailure, err)
	}

	return models.FromDomainBlockedRangeList(list), nil
}

func (s *Service) invalidateDate(ctx context.Context, op string, providerID int64, date time.Time) {
	if err := s.slotCache.Invalidate(ctx, providerID, date); err != nil {
		s.logger.Warn("%s: failed to invalidate slot cache for provider=%d date=%s: %v",
			op, providerID, date.Format(domain.DateFormat), err)
	}
}
