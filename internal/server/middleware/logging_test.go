package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogging_RecordsRequestLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodPost, "/arbitrage", nil)
	rec := httptest.NewRecorder()
	Logging(logger)(next).ServeHTTP(rec, req)

	out := buf.String()
	assert.Contains(t, out, `msg="http request"`)
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/arbitrage")
	assert.Contains(t, out, "status=418")
}

func TestLogging_ImplicitOKStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	Logging(logger)(okHandler()).ServeHTTP(rec, req)

	assert.Contains(t, buf.String(), "status=200")
}

func TestStatusRecorder_FirstStatusSticks(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	sr.WriteHeader(http.StatusNotFound)
	sr.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusNotFound, sr.status)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
