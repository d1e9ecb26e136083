package list_blocked_ranges

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type fakeService struct {
	got *models.ListBlockedRangesRequest
	err error
}

func (f *fakeService) ListBlockedRanges(_ context.Context, req *models.ListBlockedRangesRequest) (*models.BlockedRangeListResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.BlockedRangeListResponse{BlockedRanges: []models.BlockedRangeResponse{}}, nil
}

func serve(svc *fakeService, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/providers/{providerId}/schedule/blocked-ranges", NewHandler(svc, logger.NewNop()).Handle).
		Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandle(t *testing.T) {
	svc := &fakeService{}
	require.Equal(t, http.StatusOK, serve(svc, "/providers/100/schedule/blocked-ranges?from=2025-10-01&to=2025-10-31").Code)
	require.NotNil(t, svc.got.From)
	require.NotNil(t, svc.got.To)
	assert.Equal(t, 31, svc.got.To.Day())

	svc = &fakeService{}
	require.Equal(t, http.StatusOK, serve(svc, "/providers/100/schedule/blocked-ranges").Code)
	assert.Nil(t, svc.got.From)
	assert.Nil(t, svc.got.To)

	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{}, "/providers/100/schedule/blocked-ranges?from=1.10").Code)
	assert.Equal(t, http.StatusBadRequest, serve(&fakeService{err: schedule.ErrInvalidInput}, "/providers/100/schedule/blocked-ranges").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(&fakeService{err: assert.AnError}, "/providers/100/schedule/blocked-ranges").Code)
}
