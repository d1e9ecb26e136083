package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

const table = "provider_balances"

// Repository репозиторий балансов исполнителей
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория балансов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get возвращает баланс исполнителя
// Внутри транзакции строка блокируется (FOR UPDATE), чтобы пересчеты одного исполнителя не перемешивались
func (r *Repository) Get(ctx context.Context, providerID int64) (*domain.ProviderBalance, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(
		"provider_id",
		"balance",
		"available_balance",
		"pending_balance",
		"updated_at",
	).
		From(table).
		Where(squirrel.Eq{"provider_id": providerID})

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %w", ErrBuildQuery, err)
	}

	var (
		b         domain.ProviderBalance
		updatedAt sql.NullTime
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&b.ProviderID,
		&b.Balance,
		&b.AvailableBalance,
		&b.PendingBalance,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBalanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan balance: %w", ErrScanRow, err)
	}
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

// Save записывает balance и available_balance
// pending_balance принадлежит подсистеме выводов средств и здесь не изменяется
func (r *Repository) Save(ctx context.Context, b *domain.ProviderBalance) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("provider_id", "balance", "available_balance").
		Values(b.ProviderID, b.Balance, b.AvailableBalance).
		Suffix(`ON CONFLICT (provider_id) DO UPDATE SET
			balance = EXCLUDED.balance,
			available_balance = EXCLUDED.available_balance,
			updated_at = NOW()
		RETURNING updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Save - build upsert query: %w", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt); err != nil {
		return fmt.Errorf("%w: Save - execute upsert: %w", ErrExecQuery, err)
	}
	b.UpdatedAt = updatedAt.Time

	return nil
}
