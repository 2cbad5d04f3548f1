package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{100.50251256, 2, 100.5},
		{36.501608, 2, 36.5},
		{73.00321987, 4, 73.0032},
		{-3.14159, 2, -3.14},
		{0.00005, 1, 0},
		{79.96, 1, 80},
		{42, 4, 42},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round(tt.v, tt.places), "round(%v, %d)", tt.v, tt.places)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, 418, "teapot")

	assert.Equal(t, 418, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"teapot"}`, rec.Body.String())
}
