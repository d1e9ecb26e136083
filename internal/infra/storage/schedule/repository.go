package schedule

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

const (
	schedulesTable = "provider_schedules"
	blockedTable   = "provider_blocked_ranges"
)

// Repository репозиторий расписаний исполнителей и заблокированных интервалов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByProviderID получает недельный шаблон расписания исполнителя
// Заблокированные интервалы не загружаются, см. ListBlockedRanges
func (r *Repository) GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"provider_id",
		"start_time",
		"end_time",
		"working_days",
		"slot_interval_minutes",
		"created_at",
		"updated_at",
	).
		From(schedulesTable).
		Where(squirrel.Eq{"provider_id": providerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - build select query: %w", ErrBuildQuery, err)
	}

	var (
		s                    domain.ProviderSchedule
		workingDays          pq.Int64Array
		createdAt, updatedAt sql.NullTime
	)

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ID,
		&s.ProviderID,
		&s.StartTime,
		&s.EndTime,
		&workingDays,
		&s.SlotIntervalMinutes,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - scan schedule: %w", ErrScanRow, err)
	}

	s.WorkingDays = make([]int, len(workingDays))
	for i, d := range workingDays {
		s.WorkingDays[i] = int(d)
	}
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}

// Upsert создает или полностью заменяет расписание исполнителя (одно на исполнителя)
func (r *Repository) Upsert(ctx context.Context, s *domain.ProviderSchedule) (*domain.ProviderSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	workingDays := make(pq.Int64Array, len(s.WorkingDays))
	for i, d := range s.WorkingDays {
		workingDays[i] = int64(d)
	}

	query, args, err := psqlbuilder.Insert(schedulesTable).
		Columns(
			"provider_id",
			"start_time",
			"end_time",
			"working_days",
			"slot_interval_minutes",
		).
		Values(
			s.ProviderID,
			s.StartTime,
			s.EndTime,
			workingDays,
			s.SlotIntervalMinutes,
		).
		Suffix(`ON CONFLICT (provider_id) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			working_days = EXCLUDED.working_days,
			slot_interval_minutes = EXCLUDED.slot_interval_minutes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %w", ErrExecQuery, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return s, nil
}

// ListBlockedRanges возвращает заблокированные интервалы исполнителя в диапазоне дат [from, to]
// nil границы не ограничивают выборку
func (r *Repository) ListBlockedRanges(ctx context.Context, providerID int64, from, to *time.Time) ([]domain.BlockedRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(
		"id",
		"provider_id",
		"blocked_date",
		"start_time",
		"end_time",
		"reason",
		"created_at",
	).
		From(blockedTable).
		Where(squirrel.Eq{"provider_id": providerID})

	if from != nil {
		builder = builder.Where(squirrel.GtOrEq{"blocked_date": domain.DateOnly(*from)})
	}
	if to != nil {
		builder = builder.Where(squirrel.LtOrEq{"blocked_date": domain.DateOnly(*to)})
	}

	query, args, err := builder.OrderBy("blocked_date ASC", "start_time ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockedRanges - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockedRanges - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]domain.BlockedRange, 0)
	for rows.Next() {
		var (
			br        domain.BlockedRange
			createdAt sql.NullTime
		)
		if err := rows.Scan(
			&br.ID,
			&br.ProviderID,
			&br.Date,
			&br.StartTime,
			&br.EndTime,
			&br.Reason,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListBlockedRanges - scan row: %w", ErrScanRow, err)
		}
		br.CreatedAt = createdAt.Time
		result = append(result, br)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListBlockedRanges - rows error: %w", ErrScanRow, err)
	}

	return result, nil
}

// AddBlockedRange сохраняет новый заблокированный интервал
func (r *Repository) AddBlockedRange(ctx context.Context, br *domain.BlockedRange) (*domain.BlockedRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(blockedTable).
		Columns("provider_id", "blocked_date", "start_time", "end_time", "reason").
		Values(br.ProviderID, domain.DateOnly(br.Date), br.StartTime, br.EndTime, br.Reason).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: AddBlockedRange - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&br.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: AddBlockedRange - execute insert: %w", ErrExecQuery, err)
	}
	br.CreatedAt = createdAt.Time

	return br, nil
}

// DeleteBlockedRange удаляет заблокированный интервал исполнителя
func (r *Repository) DeleteBlockedRange(ctx context.Context, providerID, id int64) (*domain.BlockedRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(blockedTable).
		Where(squirrel.Eq{"id": id, "provider_id": providerID}).
		Suffix("RETURNING blocked_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: DeleteBlockedRange - build delete query: %w", ErrBuildQuery, err)
	}

	br := &domain.BlockedRange{ID: id, ProviderID: providerID}
	err = executor.QueryRowContext(ctx, query, args...).Scan(&br.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlockedRangeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: DeleteBlockedRange - execute delete: %w", ErrExecQuery, err)
	}

	return br, nil
}
