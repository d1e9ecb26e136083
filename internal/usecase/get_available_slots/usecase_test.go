package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	slotsCache "github.com/m04kA/SMC-SchedulingService/internal/infra/cache/slots"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalog"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

const (
	providerID int64 = 100
	serviceID  int64 = 5
)

// 2025-10-15 - среда
var wednesday = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type fakeAppointments struct {
	items []*domain.Appointment
	calls int
	err   error
	// onList вызывается после чтения, имитируя конкурентную запись
	onList func()
}

func (r *fakeAppointments) ListByFilter(_ context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	r.calls++
	if r.onList != nil {
		defer r.onList()
	}
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*domain.Appointment, 0)
	for _, a := range r.items {
		if filter.Date != nil && !domain.SameDay(a.Date, *filter.Date) {
			continue
		}
		if filter.ActiveOnly && !a.IsActive() {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type fakeSchedules struct {
	schedule *domain.ProviderSchedule
	blocked  []domain.BlockedRange
}

func (r *fakeSchedules) GetByProviderID(_ context.Context, _ int64) (*domain.ProviderSchedule, error) {
	if r.schedule == nil {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	cp := *r.schedule
	return &cp, nil
}

func (r *fakeSchedules) ListBlockedRanges(_ context.Context, _ int64, _, _ *time.Time) ([]domain.BlockedRange, error) {
	return r.blocked, nil
}

type fakeCatalog struct {
	service *catalog.Service
	err     error
}

func (c *fakeCatalog) GetService(_ context.Context, _, _ int64) (*catalog.Service, error) {
	return c.service, c.err
}

type memoryCache struct {
	data    map[string][]domain.TimeSlot
	gens    map[string]int
	readErr error
}

func cacheKey(providerID int64, date time.Time, duration int) string {
	return fmt.Sprintf("%d:%s:%d", providerID, date.Format(domain.DateFormat), duration)
}

func dayKey(providerID int64, date time.Time) string {
	return fmt.Sprintf("%d:%s", providerID, date.Format(domain.DateFormat))
}

func (c *memoryCache) Get(_ context.Context, providerID int64, date time.Time, duration int) ([]domain.TimeSlot, bool, error) {
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	slots, ok := c.data[cacheKey(providerID, date, duration)]
	return slots, ok, nil
}

func (c *memoryCache) Generation(_ context.Context, providerID int64, date time.Time) (string, error) {
	return strconv.Itoa(c.gens[dayKey(providerID, date)]), nil
}

func (c *memoryCache) Set(_ context.Context, providerID int64, date time.Time, duration int, slots []domain.TimeSlot, generation string) error {
	if strconv.Itoa(c.gens[dayKey(providerID, date)]) != generation {
		return slotsCache.ErrStale
	}
	c.data[cacheKey(providerID, date, duration)] = slots
	return nil
}

func (c *memoryCache) invalidate(providerID int64, date time.Time) {
	c.gens[dayKey(providerID, date)]++
	for k := range c.data {
		if strings.HasPrefix(k, dayKey(providerID, date)+":") {
			delete(c.data, k)
		}
	}
}

type fixture struct {
	uc           *UseCase
	appointments *fakeAppointments
	schedules    *fakeSchedules
	catalog      *fakeCatalog
	cache        *memoryCache
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		appointments: &fakeAppointments{},
		schedules: &fakeSchedules{schedule: &domain.ProviderSchedule{
			ID:                  1,
			ProviderID:          providerID,
			StartTime:           types.MustTimeString("09:00"),
			EndTime:             types.MustTimeString("12:00"),
			WorkingDays:         []int{1, 2, 3, 4, 5},
			SlotIntervalMinutes: 30,
		}},
		catalog: &fakeCatalog{service: &catalog.Service{
			ID:              serviceID,
			ProviderID:      providerID,
			DurationMinutes: 30,
			Price:           decimal.RequireFromString("75.00"),
			Active:          true,
		}},
		cache: &memoryCache{data: map[string][]domain.TimeSlot{}, gens: map[string]int{}},
	}
	f.uc = NewUseCase(f.appointments, f.schedules, f.catalog, f.cache, logger.NewNop())
	f.uc.timeProvider = fixedTime{t: now}
	return f
}

func request() *Request {
	return &Request{ProviderID: providerID, ServiceID: serviceID, Date: wednesday}
}

func starts(slots []Slot, onlyAvailable bool) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if onlyAvailable && !s.IsAvailable {
			continue
		}
		out = append(out, s.StartTime.String())
	}
	return out
}

func TestExecute_FreeMorning(t *testing.T) {
	f := newFixture(wednesday.AddDate(0, 0, -1))

	resp, err := f.uc.Execute(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, 30, resp.DurationMinutes)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, starts(resp.Slots, true))
	assert.Equal(t, "09:30", resp.Slots[0].EndTime.String())
}

func TestExecute_BookedSlotUnavailable(t *testing.T) {
	f := newFixture(wednesday.AddDate(0, 0, -1))
	f.appointments.items = []*domain.Appointment{{
		ProviderID: providerID,
		Date:       wednesday,
		StartTime:  types.MustTimeString("10:00"),
		EndTime:    types.MustTimeString("10:30"),
		Status:     domain.StatusConfirmed,
	}}

	resp, err := f.uc.Execute(context.Background(), request())
	require.NoError(t, err)

	assert.Len(t, resp.Slots, 6)
	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, starts(resp.Slots, true))
}

func TestExecute_BlockedRange(t *testing.T) {
	f := newFixture(wednesday.AddDate(0, 0, -1))
	f.schedules.blocked = []domain.BlockedRange{{
		Date:      wednesday,
		StartTime: types.MustTimeString("09:00"),
		EndTime:   types.MustTimeString("10:00"),
	}}

	resp, err := f.uc.Execute(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "10:30", "11:00", "11:30"}, starts(resp.Slots, true))
}

func TestExecute_TodayHidesStartedSlots(t *testing.T) {
	f := newFixture(wednesday.Add(10*time.Hour + 15*time.Minute))

	resp, err := f.uc.Execute(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, starts(resp.Slots, false))
}

func TestExecute_SlotStartingNowIsHidden(t *testing.T) {
	f := newFixture(wednesday.Add(10 * time.Hour))

	resp, err := f.uc.Execute(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, starts(resp.Slots, false))
}

func TestExecute_PastDateIsEmpty(t *testing.T) {
	f := newFixture(wednesday.AddDate(0, 0, 1))

	resp, err := f.uc.Execute(context.Background(), request())
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
	assert.Zero(t, f.appointments.calls)
}

func TestExecute_NonWorkingDayAndNoSchedule(t *testing.T) {
	f := newFixture(wednesday.AddDate(0, 0, -1))
	req := request()
	req.Date = wednesday.AddDate(0, 0, 4) // воскресенье

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)

	f.schedules.schedule = nil
	resp, err = f.uc.Execute(context.Background(), request())
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_UsesCache(t *testing.T) {
	f := newFixture(wednesday.AddDate(0, 0, -1))
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, request())
	require.NoError(t, err)
	require.Equal(t, 1, f.appointments.calls)

	second, err := f.uc.Execute(ctx, request())
	require.NoError(t, err)
	assert.Equal(t, 1, f.appointments.calls)
	assert.Equal(t, first.Slots, second.Slots)

	// другая длительность - другой ключ кэша
	f.catalog.service.DurationMinutes = 60
	_, err = f.uc.Execute(ctx, request())
	require.NoError(t, err)
	assert.Equal(t, 2, f.appointments.calls)
}

func TestExecute_CacheReadFailureFallsBack(t *testing.T) {
	f := newFixture(wednesday.AddDate(0, 0, -1))
	f.cache.readErr = errors.New("redis down")

	resp, err := f.uc.Execute(context.Background(), request())
	require.NoError(t, err)
	assert.Len(t, resp.Slots, 6)
}

func TestExecute_Errors(t *testing.T) {
	t.Run("invalid input", func(t *testing.T) {
		f := newFixture(wednesday)
		_, err := f.uc.Execute(context.Background(), &Request{ProviderID: providerID, Date: wednesday})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("service not found", func(t *testing.T) {
		f := newFixture(wednesday)
		f.catalog.err = catalog.ErrServiceNotFound
		_, err := f.uc.Execute(context.Background(), request())
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})

	t.Run("service inactive", func(t *testing.T) {
		f := newFixture(wednesday)
		f.catalog.err = catalog.ErrServiceInactive
		_, err := f.uc.Execute(context.Background(), request())
		assert.ErrorIs(t, err, ErrServiceInactive)
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newFixture(wednesday.AddDate(0, 0, -1))
		f.appointments.err = errors.New("db down")
		_, err := f.uc.Execute(context.Background(), request())
		assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	})
}

func TestExecute_InvalidationDuringComputeSkipsCacheFill(t *testing.T) {
	f := newFixture(wednesday.AddDate(0, 0, -1))
	ctx := context.Background()

	// запись создается и сбрасывает кэш, пока слоты еще считаются по старым данным
	f.appointments.onList = func() {
		f.appointments.onList = nil
		f.appointments.items = append(f.appointments.items, &domain.Appointment{
			ProviderID: providerID,
			Date:       wednesday,
			StartTime:  types.MustTimeString("10:00"),
			EndTime:    types.MustTimeString("10:30"),
			Status:     domain.StatusPending,
		})
		f.cache.invalidate(providerID, wednesday)
	}

	resp, err := f.uc.Execute(ctx, request())
	require.NoError(t, err)
	assert.Contains(t, starts(resp.Slots, true), "10:00")
	assert.Empty(t, f.cache.data)

	resp, err = f.uc.Execute(ctx, request())
	require.NoError(t, err)
	assert.NotContains(t, starts(resp.Slots, true), "10:00")
	assert.Equal(t, 2, f.appointments.calls)
	assert.Len(t, f.cache.data, 1)
}
