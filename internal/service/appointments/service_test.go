package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	clientID   int64 = 10
	providerID int64 = 100
	strangerID int64 = 999
)

var day = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

// fakeRepo хранит записи в памяти; изменения внутри транзакции применяются к копии
// и публикуются только при успешном завершении (см. fakeTx)
type fakeRepo struct {
	items map[int64]*domain.Appointment
	err   error
}

func newFakeRepo(list ...*domain.Appointment) *fakeRepo {
	r := &fakeRepo{items: map[int64]*domain.Appointment{}}
	for _, a := range list {
		r.items[a.ID] = a
	}
	return r
}

func (r *fakeRepo) snapshot() map[int64]domain.Appointment {
	out := make(map[int64]domain.Appointment, len(r.items))
	for id, a := range r.items {
		out[id] = *a
	}
	return out
}

func (r *fakeRepo) restore(snap map[int64]domain.Appointment) {
	r.items = make(map[int64]*domain.Appointment, len(snap))
	for id, a := range snap {
		a := a
		r.items[id] = &a
	}
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	if r.err != nil {
		return nil, r.err
	}
	a, ok := r.items[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) ListByFilter(_ context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	if r.err != nil {
		return nil, r.err
	}
	result := make([]*domain.Appointment, 0)
	for _, a := range r.items {
		if filter.ProviderID != nil && a.ProviderID != *filter.ProviderID {
			continue
		}
		if filter.ClientID != nil && a.ClientID != *filter.ClientID {
			continue
		}
		if filter.ActiveOnly && !a.IsActive() {
			continue
		}
		if len(filter.Statuses) > 0 && filter.Statuses[0] != a.Status {
			continue
		}
		cp := *a
		result = append(result, &cp)
	}
	return result, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id int64, from, to domain.AppointmentStatus) error {
	a, ok := r.items[id]
	if !ok || a.Status != from {
		return appointmentRepo.ErrStatusChanged
	}
	a.Status = to
	return nil
}

func (r *fakeRepo) Cancel(_ context.Context, id int64, from domain.AppointmentStatus, reason *string) error {
	a, ok := r.items[id]
	if !ok || a.Status != from {
		return appointmentRepo.ErrStatusChanged
	}
	a.Status = domain.StatusCanceled
	a.CancellationReason = reason
	return nil
}

func (r *fakeRepo) UpdatePaymentStatus(_ context.Context, id int64, status domain.PaymentStatus) error {
	a, ok := r.items[id]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	a.PaymentStatus = status
	return nil
}

type fakeTx struct {
	repo *fakeRepo
}

func (tx fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := tx.repo.snapshot()
	if err := fn(ctx); err != nil {
		tx.repo.restore(snap)
		return err
	}
	return nil
}

type fakeBalance struct {
	calls []int64
	err   error
}

func (f *fakeBalance) Recompute(_ context.Context, providerID int64) (*domain.ProviderBalance, error) {
	f.calls = append(f.calls, providerID)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ProviderBalance{ProviderID: providerID}, nil
}

type fakeCache struct {
	invalidated []time.Time
}

func (f *fakeCache) Invalidate(_ context.Context, _ int64, date time.Time) error {
	f.invalidated = append(f.invalidated, date)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	balance *fakeBalance
	cache   *fakeCache
}

func newFixture(opts Options, list ...*domain.Appointment) *fixture {
	repo := newFakeRepo(list...)
	balance := &fakeBalance{}
	cache := &fakeCache{}
	svc := NewService(repo, balance, cache, fakeTx{repo: repo}, nil, logger.NewNop(), opts)
	svc.now = func() time.Time { return day.Add(11 * time.Hour) }
	return &fixture{svc: svc, repo: repo, balance: balance, cache: cache}
}

func appointmentIn(status domain.AppointmentStatus) *domain.Appointment {
	return &domain.Appointment{
		ID:             1,
		ClientID:       clientID,
		ProviderID:     providerID,
		ServiceID:      5,
		Date:           day,
		StartTime:      "10:00",
		EndTime:        "10:30",
		Status:         status,
		PaymentStatus:  domain.PaymentPending,
		TotalPrice:     7500,
		ValidationCode: ptr.Ptr("XYZ987"),
	}
}

func TestService_FullLifecycle(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusPending))
	ctx := context.Background()

	resp, err := f.svc.Confirm(ctx, 1, providerID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)

	resp, err = f.svc.Start(ctx, 1, providerID)
	require.NoError(t, err)
	assert.Equal(t, "executing", resp.Status)

	resp, err = f.svc.Complete(ctx, 1, providerID, "xyz987")
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.NotNil(t, resp.CompletedAt)

	assert.Equal(t, domain.StatusCompleted, f.repo.items[1].Status)
	assert.Equal(t, []int64{providerID}, f.balance.calls)
}

func TestService_Complete_WrongCode(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusExecuting))

	_, err := f.svc.Complete(context.Background(), 1, providerID, "ABC123")
	assert.ErrorIs(t, err, domain.ErrInvalidValidationCode)
	assert.Equal(t, domain.StatusExecuting, f.repo.items[1].Status)
	assert.Empty(t, f.balance.calls)
}

func TestService_Complete_RecomputeFailureRollsBack(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusConfirmed))
	f.balance.err = domain.ErrPersistenceFailure

	_, err := f.svc.Complete(context.Background(), 1, providerID, "XYZ987")
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.Equal(t, domain.StatusConfirmed, f.repo.items[1].Status)
}

func TestService_ProviderOnlyActions(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusPending))
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, 1, clientID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.MarkNoShow(ctx, 1, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	assert.Equal(t, domain.StatusPending, f.repo.items[1].Status)
}

func TestService_MarkNoShow(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusConfirmed))

	resp, err := f.svc.MarkNoShow(context.Background(), 1, providerID)
	require.NoError(t, err)
	assert.Equal(t, "no_show", resp.Status)
	assert.Empty(t, f.cache.invalidated)
}

func TestService_Cancel(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusConfirmed))

	resp, err := f.svc.Cancel(context.Background(), 1, clientID, ptr.Ptr("  changed plans "))
	require.NoError(t, err)

	assert.Equal(t, "canceled", resp.Status)
	require.NotNil(t, resp.CancellationReason)
	assert.Equal(t, "changed plans", *resp.CancellationReason)
	assert.NotNil(t, resp.CanceledAt)
	assert.Equal(t, domain.StatusCanceled, f.repo.items[1].Status)
	assert.Equal(t, []time.Time{day}, f.cache.invalidated)
}

func TestService_Cancel_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.AppointmentStatus
		userID  int64
		wantErr error
	}{
		{name: "executing", status: domain.StatusExecuting, userID: clientID, wantErr: domain.ErrInvalidStateTransition},
		{name: "already canceled", status: domain.StatusCanceled, userID: clientID, wantErr: domain.ErrInvalidStateTransition},
		{name: "completed", status: domain.StatusCompleted, userID: providerID, wantErr: domain.ErrInvalidStateTransition},
		{name: "stranger", status: domain.StatusPending, userID: strangerID, wantErr: ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Options{}, appointmentIn(tt.status))

			_, err := f.svc.Cancel(context.Background(), 1, tt.userID, nil)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.status, f.repo.items[1].Status)
			assert.Empty(t, f.cache.invalidated)
		})
	}
}

func TestService_Cancel_ReasonTooLong(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusPending))
	long := make([]byte, domain.MaxReasonLength+1)
	for i := range long {
		long[i] = 'a'
	}

	_, err := f.svc.Cancel(context.Background(), 1, clientID, ptr.Ptr(string(long)))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_NotFound(t *testing.T) {
	f := newFixture(Options{})

	_, err := f.svc.Confirm(context.Background(), 42, providerID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = f.svc.GetByID(context.Background(), 42, providerID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestService_RepositoryFailure(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusPending))
	f.repo.err = errors.New("connection refused")

	_, err := f.svc.Confirm(context.Background(), 1, providerID)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
}

func TestService_GetByID_ValidationCodeVisibility(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusPending))
	ctx := context.Background()

	asClient, err := f.svc.GetByID(ctx, 1, clientID)
	require.NoError(t, err)
	require.NotNil(t, asClient.ValidationCode)
	assert.Equal(t, "XYZ987", *asClient.ValidationCode)
	assert.Equal(t, "75.00", asClient.TotalPrice)

	asProvider, err := f.svc.GetByID(ctx, 1, providerID)
	require.NoError(t, err)
	assert.Nil(t, asProvider.ValidationCode)

	_, err = f.svc.GetByID(ctx, 1, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestService_ApplyPaymentStatus(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		from        domain.AppointmentStatus
		raw         string
		wantStatus  domain.AppointmentStatus
		wantPayment domain.PaymentStatus
		invalidated bool
	}{
		{name: "captured", from: domain.StatusProcessingPayment, raw: "approved", wantStatus: domain.StatusPending, wantPayment: domain.PaymentPaid},
		{name: "captured with auto confirm", opts: Options{AutoConfirmOnPayment: true}, from: domain.StatusProcessingPayment, raw: "succeeded", wantStatus: domain.StatusConfirmed, wantPayment: domain.PaymentPaid},
		{name: "repeated capture", from: domain.StatusPending, raw: "paid", wantStatus: domain.StatusPending, wantPayment: domain.PaymentPaid},
		{name: "still processing", from: domain.StatusProcessingPayment, raw: "in_process", wantStatus: domain.StatusProcessingPayment, wantPayment: domain.PaymentProcessing},
		{name: "rejected", from: domain.StatusProcessingPayment, raw: "rejected", wantStatus: domain.StatusCanceled, wantPayment: domain.PaymentFailed, invalidated: true},
		{name: "rejected after pending", from: domain.StatusPending, raw: "failed", wantStatus: domain.StatusCanceled, wantPayment: domain.PaymentFailed, invalidated: true},
		{name: "failure on confirmed keeps status", from: domain.StatusConfirmed, raw: "failed", wantStatus: domain.StatusConfirmed, wantPayment: domain.PaymentFailed},
		{name: "refund", from: domain.StatusCompleted, raw: "refunded", wantStatus: domain.StatusCompleted, wantPayment: domain.PaymentRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.opts, appointmentIn(tt.from))

			resp, err := f.svc.ApplyPaymentStatus(context.Background(), 1, tt.raw)
			require.NoError(t, err)

			assert.Equal(t, string(tt.wantStatus), resp.Status)
			assert.Equal(t, tt.wantStatus, f.repo.items[1].Status)
			assert.Equal(t, tt.wantPayment, f.repo.items[1].PaymentStatus)
			assert.Equal(t, tt.invalidated, len(f.cache.invalidated) == 1)
			assert.Nil(t, resp.ValidationCode)
		})
	}
}

func TestService_ApplyPaymentStatus_Unknown(t *testing.T) {
	f := newFixture(Options{}, appointmentIn(domain.StatusProcessingPayment))

	_, err := f.svc.ApplyPaymentStatus(context.Background(), 1, "teleported")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, domain.StatusProcessingPayment, f.repo.items[1].Status)
}

func TestService_ListForClient(t *testing.T) {
	other := appointmentIn(domain.StatusCanceled)
	other.ID = 2
	f := newFixture(Options{}, appointmentIn(domain.StatusPending), other)
	ctx := context.Background()

	resp, err := f.svc.ListForClient(ctx, &models.ListClientAppointmentsRequest{UserID: clientID, ClientID: clientID})
	require.NoError(t, err)
	assert.Len(t, resp.Appointments, 2)

	resp, err = f.svc.ListForClient(ctx, &models.ListClientAppointmentsRequest{UserID: clientID, ClientID: clientID, Status: ptr.Ptr("canceled")})
	require.NoError(t, err)
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, int64(2), resp.Appointments[0].ID)

	_, err = f.svc.ListForClient(ctx, &models.ListClientAppointmentsRequest{UserID: clientID, ClientID: clientID, Status: ptr.Ptr("archived")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ListForClient(ctx, &models.ListClientAppointmentsRequest{UserID: strangerID, ClientID: clientID})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestService_ListForProvider_ExcludesCanceledByDefault(t *testing.T) {
	canceled := appointmentIn(domain.StatusCanceled)
	canceled.ID = 2
	f := newFixture(Options{}, appointmentIn(domain.StatusConfirmed), canceled)
	ctx := context.Background()

	resp, err := f.svc.ListForProvider(ctx, &models.ListProviderAppointmentsRequest{UserID: providerID, ProviderID: providerID})
	require.NoError(t, err)
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, "confirmed", resp.Appointments[0].Status)

	resp, err = f.svc.ListForProvider(ctx, &models.ListProviderAppointmentsRequest{UserID: providerID, ProviderID: providerID, IncludeCanceled: true})
	require.NoError(t, err)
	assert.Len(t, resp.Appointments, 2)

	_, err = f.svc.ListForProvider(ctx, &models.ListProviderAppointmentsRequest{UserID: clientID, ProviderID: providerID})
	assert.ErrorIs(t, err, ErrAccessDenied)
}
