package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	balanceRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/balance"
	"github.com/m04kA/SMC-SchedulingService/internal/service/balance/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
)

const (
	recomputeSuccess = "success"
	recomputeError   = "error"
)

// Service пересчет и выдача балансов исполнителей
type Service struct {
	appointmentRepo AppointmentRepository
	balanceRepo     BalanceRepository
	txManager       TransactionManager
	metrics         *metrics.Metrics
	logger          Logger
}

// NewService создает новый экземпляр сервиса балансов
// metrics может быть nil
func NewService(
	appointmentRepo AppointmentRepository,
	balanceRepo BalanceRepository,
	txManager TransactionManager,
	metrics *metrics.Metrics,
	logger Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		balanceRepo:     balanceRepo,
		txManager:       txManager,
		metrics:         metrics,
		logger:          logger,
	}
}

// Recompute полностью пересчитывает баланс исполнителя и сохраняет его
// Если ctx уже содержит транзакцию (завершение записи), пересчет выполняется в ней же,
// иначе открывается новая. Запись баланса атомарна: либо сохранены оба поля, либо ничего.
func (s *Service) Recompute(ctx context.Context, providerID int64) (*domain.ProviderBalance, error) {
	var result domain.ProviderBalance

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		// 1. Блокируем строку баланса и читаем pending
		pending := decimal.Zero
		current, err := s.balanceRepo.Get(ctx, providerID)
		switch {
		case errors.Is(err, balanceRepo.ErrBalanceNotFound):
		case err != nil:
			return fmt.Errorf("%w: Recompute - load balance: %v", domain.ErrPersistenceFailure, err)
		default:
			pending = current.PendingBalance
		}

		// 2. Все завершенные записи исполнителя
		completed, err := s.appointmentRepo.ListByFilter(ctx, domain.AppointmentFilter{
			ProviderID: &providerID,
			Statuses:   []domain.AppointmentStatus{domain.StatusCompleted},
		})
		if err != nil {
			return fmt.Errorf("%w: Recompute - load completed appointments: %v", domain.ErrPersistenceFailure, err)
		}

		// 3. Считаем и сохраняем
		result = Compute(providerID, completed, pending)
		if err := s.balanceRepo.Save(ctx, &result); err != nil {
			return fmt.Errorf("%w: Recompute - save balance: %v", domain.ErrPersistenceFailure, err)
		}

		return nil
	})
	if err != nil {
		s.metrics.ObserveRecompute(recomputeError)
		s.logger.Error("Recompute: provider_id=%d failed: %v", providerID, err)
		return nil, err
	}

	s.metrics.ObserveRecompute(recomputeSuccess)
	s.logger.Info("Recompute: provider_id=%d balance=%s available=%s pending=%s",
		providerID, result.Balance.StringFixed(2), result.AvailableBalance.StringFixed(2), result.PendingBalance.StringFixed(2))

	return &result, nil
}

// RecomputeForUser пересчитывает баланс по запросу самого исполнителя
func (s *Service) RecomputeForUser(ctx context.Context, providerID, userID int64) (*models.BalanceResponse, error) {
	if providerID != userID {
		s.logger.Warn("RecomputeForUser: user=%d is not provider=%d", userID, providerID)
		return nil, ErrAccessDenied
	}

	b, err := s.Recompute(ctx, providerID)
	if err != nil {
		return nil, err
	}

	return models.FromDomainBalance(b), nil
}

// Get возвращает сохраненный баланс исполнителя
// Исполнитель без завершенных записей получает нулевой баланс
func (s *Service) Get(ctx context.Context, providerID, userID int64) (*models.BalanceResponse, error) {
	if providerID != userID {
		s.logger.Warn("Get: user=%d is not provider=%d", userID, providerID)
		return nil, ErrAccessDenied
	}

	b, err := s.balanceRepo.Get(ctx, providerID)
	if errors.Is(err, balanceRepo.ErrBalanceNotFound) {
		empty := Compute(providerID, nil, decimal.Zero)
		return models.FromDomainBalance(&empty), nil
	}
	if err != nil {
		s.logger.Error("Get: repository error for provider_id=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: Get - repository error: %v", domain.ErrPersistenceFailure, err)
	}

	return models.FromDomainBalance(b), nil
}

// RecomputeAll пересчитывает балансы всех исполнителей, у которых есть записи
// Ошибка по одному исполнителю не прерывает обход; возвращается число успешных и неуспешных пересчетов
func (s *Service) RecomputeAll(ctx context.Context) (succeeded, failed int, err error) {
	providerIDs, err := s.appointmentRepo.ListProviderIDs(ctx)
	if err != nil {
		s.logger.Error("RecomputeAll: failed to list providers: %v", err)
		return 0, 0, fmt.Errorf("%w: RecomputeAll - list providers: %v", domain.ErrPersistenceFailure, err)
	}

	for _, providerID := range providerIDs {
		if ctx.Err() != nil {
			return succeeded, failed, ctx.Err()
		}
		if _, err := s.Recompute(ctx, providerID); err != nil {
			failed++
			continue
		}
		succeeded++
	}

	s.logger.Info("RecomputeAll: providers=%d succeeded=%d failed=%d", len(providerIDs), succeeded, failed)
	return succeeded, failed, nil
}
