package create_appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
	createAppointment "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_appointment"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeUseCase struct {
	got  *createAppointment.Request
	resp *models.AppointmentResponse
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *createAppointment.Request) (*models.AppointmentResponse, error) {
	f.got = req
	return f.resp, f.err
}

const validBody = `{"providerId":100,"serviceId":5,"date":"2025-10-15","startTime":"10:00","notes":"first visit","asyncPayment":true}`

func post(h *Handler, body string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	if userID != 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	uc := &fakeUseCase{resp: &models.AppointmentResponse{ID: 1, ClientID: 7, ProviderID: 100, Status: "processing_payment"}}

	rec := post(NewHandler(uc, logger.NewNop()), validBody, 7)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, uc.got)
	assert.Equal(t, int64(7), uc.got.ClientID)
	assert.Equal(t, int64(100), uc.got.ProviderID)
	assert.Equal(t, "10:00", uc.got.StartTime.String())
	assert.True(t, uc.got.AsyncPayment)
	require.NotNil(t, uc.got.Notes)
	assert.Equal(t, "first visit", *uc.got.Notes)

	var body models.AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.ID)
	assert.Equal(t, "processing_payment", body.Status)
}

func TestHandle_RequestErrors(t *testing.T) {
	h := NewHandler(&fakeUseCase{}, logger.NewNop())

	assert.Equal(t, http.StatusUnauthorized, post(h, validBody, 0).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `{"providerId":`, 7).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `{"providerId":100,"date":"15.10.2025","startTime":"10:00"}`, 7).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `{"providerId":100,"date":"2025-10-15","startTime":"25:00"}`, 7).Code)
}

func TestHandle_UseCaseErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: fmt.Errorf("%w: taken", domain.ErrSlotConflict), status: http.StatusConflict},
		{err: fmt.Errorf("%w: blocked", domain.ErrScheduleViolation), status: http.StatusBadRequest},
		{err: createAppointment.ErrServiceNotFound, status: http.StatusNotFound},
		{err: createAppointment.ErrServiceInactive, status: http.StatusBadRequest},
		{err: createAppointment.ErrInvalidDate, status: http.StatusBadRequest},
		{err: createAppointment.ErrTooLateToBook, status: http.StatusBadRequest},
		{err: createAppointment.ErrInvalidInput, status: http.StatusBadRequest},
		{err: fmt.Errorf("%w: db down", domain.ErrPersistenceFailure), status: http.StatusInternalServerError},
		{err: createAppointment.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := post(NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop()), validBody, 7)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}
