package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

const table = "appointments"

// Коды ошибок PostgreSQL, означающие, что окно уже занято
const (
	pqExclusionViolation  = "23P01"
	pqUniqueViolation     = "23505"
	pqSerializationFailed = "40001"
)

var columns = []string{
	"id",
	"client_id",
	"provider_id",
	"service_id",
	"appointment_date",
	"start_time",
	"end_time",
	"status",
	"payment_status",
	"total_price",
	"validation_code",
	"notes",
	"cancellation_reason",
	"canceled_at",
	"completed_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий записей на услуги
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create вставляет новую запись
// Если в контексте есть транзакция, вставка выполняется в ней.
// Пересечение с другой неотмененной записью отклоняется ограничением appointments_no_overlap,
// такая ошибка (как и конфликт сериализации) возвращается как ErrSlotNotAvailable.
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"client_id",
			"provider_id",
			"service_id",
			"appointment_date",
			"start_time",
			"end_time",
			"status",
			"payment_status",
			"total_price",
			"validation_code",
			"notes",
		).
		Values(
			a.ClientID,
			a.ProviderID,
			a.ServiceID,
			a.Date,
			a.StartTime,
			a.EndTime,
			a.Status,
			a.PaymentStatus,
			a.TotalPrice,
			a.ValidationCode,
			a.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &createdAt, &updatedAt)
	if err != nil {
		if isSlotConflict(err) {
			return nil, fmt.Errorf("%w: Create - provider %d %s %s-%s: %w",
				ErrSlotNotAvailable, a.ProviderID, a.Date.Format(domain.DateFormat), a.StartTime, a.EndTime, err)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return a, nil
}

// GetByID получает запись по ID
// Внутри транзакции строка блокируется (FOR UPDATE) до конца транзакции
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %w", ErrScanRow, err)
	}

	return a, nil
}

// ListByFilter возвращает записи по фильтру
//
// Примеры:
//
//  1. Все активные записи исполнителя на дату (проверка доступности):
//     domain.AppointmentFilter{ProviderID: &id, Date: &date, ActiveOnly: true}
//
//  2. История клиента:
//     domain.AppointmentFilter{ClientID: &id}
//
//  3. Завершенные записи исполнителя (пересчет баланса):
//     domain.AppointmentFilter{ProviderID: &id, Statuses: []domain.AppointmentStatus{domain.StatusCompleted}}
//
// Для конкретной даты внутри транзакции строки блокируются (FOR UPDATE),
// это сериализует конкурентные создания записей на один день.
func (r *Repository) ListByFilter(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(columns...).From(table)

	if filter.ProviderID != nil {
		builder = builder.Where(squirrel.Eq{"provider_id": *filter.ProviderID})
	}
	if filter.ClientID != nil {
		builder = builder.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.Date != nil {
		builder = builder.Where(squirrel.Eq{"appointment_date": domain.DateOnly(*filter.Date)})
	}

	if len(filter.Statuses) > 0 {
		builder = builder.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	} else if filter.ActiveOnly {
		builder = builder.Where(squirrel.NotEq{"status": string(domain.StatusCanceled)})
	}

	if filter.Date != nil {
		builder = builder.OrderBy("start_time ASC")
	} else {
		builder = builder.OrderBy("appointment_date DESC", "start_time DESC")
	}

	if dbmetrics.IsInTransaction(ctx) && filter.Date != nil {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByFilter - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByFilter - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByFilter - scan row: %w", ErrScanRow, err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByFilter - rows error: %w", ErrScanRow, err)
	}

	return result, nil
}

// ListProviderIDs возвращает всех исполнителей, у которых есть хотя бы одна запись
// Используется периодическим пересчетом балансов
func (r *Repository) ListProviderIDs(ctx context.Context) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("DISTINCT provider_id").
		From(table).
		OrderBy("provider_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListProviderIDs - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListProviderIDs - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ListProviderIDs - scan provider_id: %w", ErrScanRow, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListProviderIDs - rows error: %w", ErrScanRow, err)
	}

	return ids, nil
}

// UpdateStatus переводит запись из статуса from в статус to
// Обновление условное (WHERE status = from): если статус уже изменился, возвращается ErrStatusChanged
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to domain.AppointmentStatus) error {
	builder := psqlbuilder.Update(table).
		Set("status", string(to)).
		Set("updated_at", squirrel.Expr("NOW()"))

	if to == domain.StatusCompleted {
		builder = builder.Set("completed_at", squirrel.Expr("NOW()"))
	}

	return r.execConditional(ctx, "UpdateStatus", id, from, builder)
}

// Cancel отменяет запись, находящуюся в статусе from, с указанием причины
func (r *Repository) Cancel(ctx context.Context, id int64, from domain.AppointmentStatus, reason *string) error {
	builder := psqlbuilder.Update(table).
		Set("status", string(domain.StatusCanceled)).
		Set("cancellation_reason", reason).
		Set("canceled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()"))

	return r.execConditional(ctx, "Cancel", id, from, builder)
}

// UpdatePaymentStatus обновляет статус оплаты записи
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("payment_status", string(status)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}

func (r *Repository) execConditional(
	ctx context.Context,
	op string,
	id int64,
	from domain.AppointmentStatus,
	builder squirrel.UpdateBuilder,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.
		Where(squirrel.Eq{"id": id, "status": string(from)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %w", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s - appointment %d is no longer %s", ErrStatusChanged, op, id, from)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		a                    domain.Appointment
		canceledAt           sql.NullTime
		completedAt          sql.NullTime
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.ProviderID,
		&a.ServiceID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.PaymentStatus,
		&a.TotalPrice,
		&a.ValidationCode,
		&a.Notes,
		&a.CancellationReason,
		&canceledAt,
		&completedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.CanceledAt = nullTimePtr(canceledAt)
	a.CompletedAt = nullTimePtr(completedAt)
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func statusStrings(statuses []domain.AppointmentStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}

func isSlotConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case pqExclusionViolation, pqUniqueViolation, pqSerializationFailed:
		return true
	default:
		return false
	}
}
