package balance

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

func TestRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT provider_id, balance, available_balance, pending_balance, updated_at FROM provider_balances WHERE provider_id = \$1$`).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"provider_id", "balance", "available_balance", "pending_balance", "updated_at"}).
			AddRow(int64(100), "150.00", "100.00", "50.00", now))

	b, err := NewRepository(db).Get(context.Background(), 100)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("150").Equal(b.Balance))
	assert.True(t, decimal.RequireFromString("100").Equal(b.AvailableBalance))
	assert.True(t, decimal.RequireFromString("50").Equal(b.PendingBalance))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get_LocksInTransaction(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := dbmetrics.Wrap(sqlDB, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM provider_balances WHERE provider_id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"provider_id", "balance", "available_balance", "pending_balance", "updated_at"}))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	_, err = NewRepository(db).Get(dbmetrics.WithTx(context.Background(), tx), 100)
	assert.ErrorIs(t, err, ErrBalanceNotFound)

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Save_DoesNotWritePending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO provider_balances \(provider_id,balance,available_balance\) VALUES \(\$1,\$2,\$3\) ON CONFLICT`).
		WithArgs(int64(100), "75", "25").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	err = NewRepository(db).Save(context.Background(), &domain.ProviderBalance{
		ProviderID:       100,
		Balance:          decimal.RequireFromString("75"),
		AvailableBalance: decimal.RequireFromString("25"),
		PendingBalance:   decimal.RequireFromString("50"),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
