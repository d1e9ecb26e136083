package get_schedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeService struct {
	err error
}

func (f *fakeService) Get(_ context.Context, providerID int64) (*models.ScheduleResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ScheduleResponse{ProviderID: providerID, StartTime: "09:00", EndTime: "18:00"}, nil
}

func serve(svc *fakeService, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/providers/{providerId}/schedule", NewHandler(svc, logger.NewNop()).Handle).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandle(t *testing.T) {
	rec := serve(&fakeService{}, "/providers/100/schedule")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"providerId":100`)

	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{}, "/providers/0/schedule").Code)
	assert.Equal(t, http.StatusNotFound, serve(&fakeService{err: schedule.ErrScheduleNotFound}, "/providers/100/schedule").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(&fakeService{err: assert.AnError}, "/providers/100/schedule").Code)
}
