package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// paymentFailedReason причина отмены записи, оплата которой не прошла
const paymentFailedReason = "payment failed"

// access кто может выполнить действие над записью
type access int

const (
	accessProvider access = iota
	accessParticipant
	accessSystem
)

// Options бизнес-параметры сервиса
type Options struct {
	// AutoConfirmOnPayment после успешной оплаты запись сразу переходит в confirmed
	AutoConfirmOnPayment bool
}

// Service драйвер жизненного цикла записи
type Service struct {
	appointmentRepo AppointmentRepository
	balance         BalanceRecomputer
	slotCache       SlotCache
	txManager       TransactionManager
	metrics         *metrics.Metrics
	logger          Logger
	opts            Options
	now             func() time.Time
}

// NewService создает новый экземпляр сервиса записей
// metrics может быть nil
func NewService(
	appointmentRepo AppointmentRepository,
	balance BalanceRecomputer,
	slotCache SlotCache,
	txManager TransactionManager,
	metrics *metrics.Metrics,
	logger Logger,
	opts Options,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		balance:         balance,
		slotCache:       slotCache,
		txManager:       txManager,
		metrics:         metrics,
		logger:          logger,
		opts:            opts,
		now:             time.Now,
	}
}

// GetByID получает запись по ID
// Видеть запись могут только ее клиент и исполнитель
func (s *Service) GetByID(ctx context.Context, id, userID int64) (*models.AppointmentResponse, error) {
	a, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.repoError("GetByID", id, err)
	}

	if !a.IsParticipant(userID) {
		s.logger.Warn("GetByID: access denied for user=%d to appointment id=%d", userID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainAppointment(a, userID), nil
}

// ListForClient возвращает историю записей клиента (сначала новые)
func (s *Service) ListForClient(ctx context.Context, req *models.ListClientAppointmentsRequest) (*models.AppointmentListResponse, error) {
	if req.UserID != req.ClientID {
		s.logger.Warn("ListForClient: user=%d requested appointments of client=%d", req.UserID, req.ClientID)
		return nil, ErrAccessDenied
	}

	filter := domain.AppointmentFilter{ClientID: &req.ClientID}
	if err := applyStatusFilter(&filter, req.Status); err != nil {
		return nil, err
	}

	list, err := s.appointmentRepo.ListByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ListForClient: repository error for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: ListForClient - repository error: %v", domain.ErrPersistenceFailure, err)
	}

	s.logger.Info("ListForClient: fetched %d appointments for client=%d", len(list), req.ClientID)
	return models.FromDomainAppointmentList(list, req.UserID), nil
}

// ListForProvider возвращает записи исполнителя
// По умолчанию отмененные исключаются; для конкретной даты сортировка по времени начала
func (s *Service) ListForProvider(ctx context.Context, req *models.ListProviderAppointmentsRequest) (*models.AppointmentListResponse, error) {
	if req.UserID != req.ProviderID {
		s.logger.Warn("ListForProvider: user=%d requested appointments of provider=%d", req.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}

	filter := domain.AppointmentFilter{
		ProviderID: &req.ProviderID,
		Date:       req.Date,
		ActiveOnly: !req.IncludeCanceled,
	}
	if err := applyStatusFilter(&filter, req.Status); err != nil {
		return nil, err
	}

	list, err := s.appointmentRepo.ListByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ListForProvider: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: ListForProvider - repository error: %v", domain.ErrPersistenceFailure, err)
	}

	s.logger.Info("ListForProvider: fetched %d appointments for provider=%d", len(list), req.ProviderID)
	return models.FromDomainAppointmentList(list, req.UserID), nil
}

// Confirm pending -> confirmed (исполнитель)
func (s *Service) Confirm(ctx context.Context, id, userID int64) (*models.AppointmentResponse, error) {
	return s.transition(ctx, "Confirm", id, userID, accessProvider, func(a *domain.Appointment) error {
		return a.Apply(domain.EventConfirm)
	})
}

// Start confirmed -> executing (исполнитель)
func (s *Service) Start(ctx context.Context, id, userID int64) (*models.AppointmentResponse, error) {
	return s.transition(ctx, "Start", id, userID, accessProvider, func(a *domain.Appointment) error {
		return a.Apply(domain.EventStart)
	})
}

// Complete confirmed|executing -> completed (исполнитель, с кодом подтверждения от клиента)
// Баланс исполнителя пересчитывается в той же транзакции
func (s *Service) Complete(ctx context.Context, id, userID int64, code string) (*models.AppointmentResponse, error) {
	return s.transition(ctx, "Complete", id, userID, accessProvider, func(a *domain.Appointment) error {
		return a.Complete(code)
	})
}

// MarkNoShow pending|confirmed -> no_show (исполнитель)
func (s *Service) MarkNoShow(ctx context.Context, id, userID int64) (*models.AppointmentResponse, error) {
	return s.transition(ctx, "MarkNoShow", id, userID, accessProvider, func(a *domain.Appointment) error {
		return a.Apply(domain.EventNoShow)
	})
}

// Cancel отменяет запись (клиент или исполнитель)
// Отмена освобождает окно: кэш слотов на дату записи сбрасывается
func (s *Service) Cancel(ctx context.Context, id, userID int64, reason *string) (*models.AppointmentResponse, error) {
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		if len(trimmed) > domain.MaxReasonLength {
			return nil, fmt.Errorf("%w: cancellation reason is longer than %d characters", ErrInvalidInput, domain.MaxReasonLength)
		}
		if trimmed == "" {
			reason = nil
		} else {
			reason = &trimmed
		}
	}

	return s.transition(ctx, "Cancel", id, userID, accessParticipant, func(a *domain.Appointment) error {
		if err := a.Apply(domain.EventCancel); err != nil {
			return err
		}
		a.CancellationReason = reason
		return nil
	})
}

// ApplyPaymentStatus применяет статус оплаты от платежного провайдера
//
//   - paid:   processing_payment -> pending (и сразу confirmed при AutoConfirmOnPayment)
//   - failed: processing_payment|pending -> canceled
//   - остальные статусы только сохраняются
//
// Повторная доставка того же статуса ничего не меняет.
func (s *Service) ApplyPaymentStatus(ctx context.Context, id int64, raw string) (*models.AppointmentResponse, error) {
	paymentStatus, err := domain.MapProcessorStatus(raw)
	if err != nil {
		s.logger.Warn("ApplyPaymentStatus: appointment id=%d unknown processor status %q", id, raw)
		return nil, fmt.Errorf("%w: %v: %q", ErrInvalidInput, err, raw)
	}

	return s.transition(ctx, "ApplyPaymentStatus", id, 0, accessSystem, func(a *domain.Appointment) error {
		a.PaymentStatus = paymentStatus

		switch paymentStatus {
		case domain.PaymentPaid:
			if a.Status != domain.StatusProcessingPayment {
				return nil
			}
			if err := a.Apply(domain.EventPaymentCaptured); err != nil {
				return err
			}
			if s.opts.AutoConfirmOnPayment {
				return a.Apply(domain.EventConfirm)
			}
		case domain.PaymentFailed:
			if a.Status != domain.StatusProcessingPayment && a.Status != domain.StatusPending {
				return nil
			}
			if err := a.Apply(domain.EventCancel); err != nil {
				return err
			}
			a.CancellationReason = ptr.Ptr(paymentFailedReason)
		}

		return nil
	})
}

// transition выполняет переход в транзакции:
//  1. блокирует и читает запись
//  2. проверяет доступ
//  3. применяет доменный переход (ошибка перехода откатывает транзакцию, статус не меняется)
//  4. условно обновляет статус (WHERE status = from)
//  5. при переходе в completed пересчитывает баланс исполнителя
func (s *Service) transition(
	ctx context.Context,
	op string,
	id, userID int64,
	who access,
	apply func(a *domain.Appointment) error,
) (*models.AppointmentResponse, error) {
	var (
		result *domain.Appointment
		from   domain.AppointmentStatus
	)

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		a, err := s.appointmentRepo.GetByID(ctx, id)
		if err != nil {
			return s.repoError(op, id, err)
		}

		if !allowed(a, userID, who) {
			s.logger.Warn("%s: access denied for user=%d to appointment id=%d", op, userID, id)
			return ErrAccessDenied
		}

		from = a.Status
		fromPayment := a.PaymentStatus
		if err := apply(a); err != nil {
			s.logger.Warn("%s: appointment id=%d rejected in status %s: %v", op, id, from, err)
			return err
		}

		if a.PaymentStatus != fromPayment {
			if err := s.appointmentRepo.UpdatePaymentStatus(ctx, id, a.PaymentStatus); err != nil {
				return s.repoError(op, id, err)
			}
		}

		if a.Status != from {
			if err := s.persistStatus(ctx, a, from); err != nil {
				return s.repoError(op, id, err)
			}
		}

		if a.Status == domain.StatusCompleted && from != domain.StatusCompleted {
			if _, err := s.balance.Recompute(ctx, a.ProviderID); err != nil {
				return err
			}
		}

		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status != from {
		s.metrics.ObserveTransition(string(from), string(result.Status))
		s.logger.Info("%s: appointment id=%d %s -> %s", op, id, from, result.Status)
	}

	if result.Status == domain.StatusCanceled && from != domain.StatusCanceled {
		if err := s.slotCache.Invalidate(ctx, result.ProviderID, result.Date); err != nil {
			s.logger.Warn("%s: failed to invalidate slot cache for provider=%d date=%s: %v",
				op, result.ProviderID, result.Date.Format(domain.DateFormat), err)
		}
	}

	return models.FromDomainAppointment(result, userID), nil
}

func (s *Service) persistStatus(ctx context.Context, a *domain.Appointment, from domain.AppointmentStatus) error {
	now := s.now()

	switch a.Status {
	case domain.StatusCanceled:
		if err := s.appointmentRepo.Cancel(ctx, a.ID, from, a.CancellationReason); err != nil {
			return err
		}
		a.CanceledAt = &now
	case domain.StatusCompleted:
		if err := s.appointmentRepo.UpdateStatus(ctx, a.ID, from, a.Status); err != nil {
			return err
		}
		a.CompletedAt = &now
	case domain.StatusConfirmed:
		// processing_payment -> pending -> confirmed за один вызов (автоподтверждение)
		if from == domain.StatusProcessingPayment {
			if err := s.appointmentRepo.UpdateStatus(ctx, a.ID, from, domain.StatusPending); err != nil {
				return err
			}
			from = domain.StatusPending
		}
		if err := s.appointmentRepo.UpdateStatus(ctx, a.ID, from, a.Status); err != nil {
			return err
		}
	default:
		if err := s.appointmentRepo.UpdateStatus(ctx, a.ID, from, a.Status); err != nil {
			return err
		}
	}

	a.UpdatedAt = now
	return nil
}

// repoError переводит ошибку репозитория в ошибку сервиса
func (s *Service) repoError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, appointmentRepo.ErrAppointmentNotFound):
		s.logger.Warn("%s: appointment id=%d not found", op, id)
		return ErrAppointmentNotFound
	case errors.Is(err, appointmentRepo.ErrStatusChanged):
		s.logger.Warn("%s: appointment id=%d changed concurrently", op, id)
		return fmt.Errorf("%w: %v", domain.ErrInvalidStateTransition, err)
	default:
		s.logger.Error("%s: repository error for appointment id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s - repository error: %v", domain.ErrPersistenceFailure, op, err)
	}
}

func allowed(a *domain.Appointment, userID int64, who access) bool {
	switch who {
	case accessSystem:
		return true
	case accessProvider:
		return a.ProviderID == userID
	case accessParticipant:
		return a.IsParticipant(userID)
	default:
		return false
	}
}

func applyStatusFilter(filter *domain.AppointmentFilter, raw *string) error {
	if raw == nil || *raw == "" {
		return nil
	}
	status, err := domain.ParseAppointmentStatus(*raw)
	if err != nil {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *raw)
	}
	filter.Statuses = []domain.AppointmentStatus{status}
	return nil
}
