package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealthService struct {
	ids []int64
	err error
}

func (f *fakeHealthService) ChainIDs() []int64                 { return f.ids }
func (f *fakeHealthService) Healthy(ctx context.Context) error { return f.err }

func getHealth(t *testing.T, h *HealthHandler) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth_Healthy(t *testing.T) {
	svc := &fakeHealthService{ids: []int64{1, 10, 137}}
	h := NewHealthHandler(svc, true, testLogger())

	rec, body := getHealth(t, h)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(3), body["available_chains"])
	assert.Equal(t, []any{float64(1), float64(10), float64(137)}, body["chain_ids"])
	assert.Equal(t, true, body["free_mode"])
}

func TestHealth_Degraded(t *testing.T) {
	svc := &fakeHealthService{ids: []int64{1, 137}, err: errors.New("redis: connection refused")}
	h := NewHealthHandler(svc, false, testLogger())

	rec, body := getHealth(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, float64(2), body["available_chains"])
	assert.Equal(t, false, body["free_mode"])
}
