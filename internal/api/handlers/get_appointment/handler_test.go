package get_appointment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments"
	"github.com/m04kA/SMC-SchedulingService/internal/service/appointments/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeService struct {
	err error
}

func (f *fakeService) GetByID(_ context.Context, id int64, userID int64) (*models.AppointmentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.AppointmentResponse{ID: id, ClientID: userID}, nil
}

func serve(h *Handler, target string, userID int64) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/appointments/{appointmentId}", h.Handle).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		target string
		userID int64
		err    error
		status int
	}{
		{name: "ok", target: "/appointments/1", userID: 7, status: http.StatusOK},
		{name: "invalid id", target: "/appointments/x", userID: 7, status: http.StatusBadRequest},
		{name: "no user", target: "/appointments/1", status: http.StatusUnauthorized},
		{name: "not found", target: "/appointments/1", userID: 7, err: appointments.ErrAppointmentNotFound, status: http.StatusNotFound},
		{name: "stranger", target: "/appointments/1", userID: 8, err: appointments.ErrAccessDenied, status: http.StatusForbidden},
		{name: "storage", target: "/appointments/1", userID: 7, err: assert.AnError, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(NewHandler(&fakeService{err: tt.err}, logger.NewNop()), tt.target, tt.userID)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
