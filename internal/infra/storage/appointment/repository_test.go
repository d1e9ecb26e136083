package appointment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

var day = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(dbmetrics.Wrap(db, nil)), mock, db
}

func appointmentRows() *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

func addRow(rows *sqlmock.Rows, id int64, start, end string, status domain.AppointmentStatus) *sqlmock.Rows {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, int64(10), int64(100), int64(5), day, start, end,
		string(status), "pending", int64(7500), "ABC123", nil, nil, nil, nil, now, now,
	)
}

func newAppointment() *domain.Appointment {
	return &domain.Appointment{
		ClientID:       10,
		ProviderID:     100,
		ServiceID:      5,
		Date:           day,
		StartTime:      types.MustTimeString("10:00"),
		EndTime:        types.MustTimeString("10:30"),
		Status:         domain.StatusPending,
		PaymentStatus:  domain.PaymentPending,
		TotalPrice:     7500,
		ValidationCode: ptr.Ptr("ABC123"),
	}
}

func TestRepository_Create(t *testing.T) {
	repo, mock, _ := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO appointments \(client_id,provider_id,service_id,appointment_date,start_time,end_time,status,payment_status,total_price,validation_code,notes\)`).
		WithArgs(int64(10), int64(100), int64(5), day, "10:00", "10:30", "pending", "pending", int64(7500), "ABC123", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	created, err := repo.Create(context.Background(), newAppointment())
	require.NoError(t, err)

	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, now, created.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_SlotConflict(t *testing.T) {
	for _, code := range []pq.ErrorCode{"23P01", "23505", "40001"} {
		t.Run(string(code), func(t *testing.T) {
			repo, mock, _ := newRepo(t)

			mock.ExpectQuery(`INSERT INTO appointments`).
				WillReturnError(&pq.Error{Code: code, Message: "conflicting key value violates exclusion constraint"})

			_, err := repo.Create(context.Background(), newAppointment())
			assert.ErrorIs(t, err, ErrSlotNotAvailable)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Create_OtherError(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectQuery(`INSERT INTO appointments`).WillReturnError(sql.ErrConnDone)

	_, err := repo.Create(context.Background(), newAppointment())
	assert.ErrorIs(t, err, ErrExecQuery)
	assert.NotErrorIs(t, err, ErrSlotNotAvailable)
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM appointments WHERE id = \$1$`).
		WithArgs(int64(42)).
		WillReturnRows(addRow(appointmentRows(), 42, "10:00:00", "10:30:00", domain.StatusConfirmed))

	a, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), a.ID)
	assert.Equal(t, domain.StatusConfirmed, a.Status)
	assert.Equal(t, domain.PaymentPending, a.PaymentStatus)
	assert.Equal(t, types.TimeString("10:00"), a.StartTime)
	assert.Equal(t, types.TimeString("10:30"), a.EndTime)
	require.NotNil(t, a.ValidationCode)
	assert.Equal(t, "ABC123", *a.ValidationCode)
	assert.Nil(t, a.Notes)
	assert.Nil(t, a.CanceledAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM appointments`).WillReturnRows(appointmentRows())

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestRepository_GetByID_LocksInTransaction(t *testing.T) {
	repo, mock, db := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM appointments WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(addRow(appointmentRows(), 1, "09:00", "09:30", domain.StatusPending))
	mock.ExpectCommit()

	tx, err := dbmetrics.Wrap(db, nil).BeginTx(context.Background(), nil)
	require.NoError(t, err)

	_, err = repo.GetByID(dbmetrics.WithTx(context.Background(), tx), 1)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByFilter_DayInTransaction(t *testing.T) {
	repo, mock, db := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM appointments WHERE provider_id = \$1 AND appointment_date = \$2 AND status <> \$3 ORDER BY start_time ASC FOR UPDATE`).
		WithArgs(int64(100), day, "canceled").
		WillReturnRows(addRow(addRow(appointmentRows(), 1, "09:00", "09:30", domain.StatusPending), 2, "10:00", "10:30", domain.StatusConfirmed))
	mock.ExpectRollback()

	tx, err := dbmetrics.Wrap(db, nil).BeginTx(context.Background(), nil)
	require.NoError(t, err)

	list, err := repo.ListByFilter(dbmetrics.WithTx(context.Background(), tx), domain.AppointmentFilter{
		ProviderID: ptr.Ptr(int64(100)),
		Date:       ptr.Ptr(day.Add(15 * time.Hour)),
		ActiveOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[1].ID)

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByFilter_SerializationFailureKeepsCause(t *testing.T) {
	repo, mock, db := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM appointments WHERE (.+) FOR UPDATE`).
		WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access due to concurrent update"})
	mock.ExpectRollback()

	tm := txmanager.NewTransactionManager(dbmetrics.Wrap(db, nil))
	err := tm.DoSerializable(context.Background(), func(ctx context.Context) error {
		_, err := repo.ListByFilter(ctx, domain.AppointmentFilter{
			ProviderID: ptr.Ptr(int64(100)),
			Date:       ptr.Ptr(day),
			ActiveOnly: true,
		})
		return err
	})

	assert.ErrorIs(t, err, txmanager.ErrSerialization)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_KeepsDriverError(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM appointments WHERE id = \$1`).
		WillReturnError(&pq.Error{Code: "40001"})

	_, err := repo.GetByID(context.Background(), 1)

	var pqErr *pq.Error
	require.ErrorAs(t, err, &pqErr)
	assert.Equal(t, pq.ErrorCode("40001"), pqErr.Code)
	assert.ErrorIs(t, err, ErrScanRow)
}

func TestRepository_ListByFilter_ClientHistory(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM appointments WHERE client_id = \$1 AND status IN \(\$2,\$3\) ORDER BY appointment_date DESC, start_time DESC$`).
		WithArgs(int64(10), "pending", "confirmed").
		WillReturnRows(appointmentRows())

	list, err := repo.ListByFilter(context.Background(), domain.AppointmentFilter{
		ClientID: ptr.Ptr(int64(10)),
		Statuses: []domain.AppointmentStatus{domain.StatusPending, domain.StatusConfirmed},
	})
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListProviderIDs(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectQuery(`SELECT DISTINCT provider_id FROM appointments ORDER BY provider_id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"provider_id"}).AddRow(int64(1)).AddRow(int64(7)))

	ids, err := repo.ListProviderIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 7}, ids)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectExec(`UPDATE appointments SET status = \$1, updated_at = NOW\(\), completed_at = NOW\(\) WHERE id = \$2 AND status = \$3`).
		WithArgs("completed", int64(42), "executing").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 42, domain.StatusExecuting, domain.StatusCompleted)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus_StatusChanged(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectExec(`UPDATE appointments SET status = \$1, updated_at = NOW\(\) WHERE id = \$2 AND status = \$3`).
		WithArgs("confirmed", int64(42), "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 42, domain.StatusPending, domain.StatusConfirmed)
	assert.ErrorIs(t, err, ErrStatusChanged)
}

func TestRepository_Cancel(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectExec(`UPDATE appointments SET status = \$1, cancellation_reason = \$2, canceled_at = NOW\(\), updated_at = NOW\(\) WHERE id = \$3 AND status = \$4`).
		WithArgs("canceled", "client request", int64(42), "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Cancel(context.Background(), 42, domain.StatusConfirmed, ptr.Ptr("client request"))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdatePaymentStatus_NotFound(t *testing.T) {
	repo, mock, _ := newRepo(t)

	mock.ExpectExec(`UPDATE appointments SET payment_status = \$1`).
		WithArgs("paid", int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePaymentStatus(context.Background(), 404, domain.PaymentPaid)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}
