package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS_AllowedOriginEchoed(t *testing.T) {
	mw := CORS([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/chains", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PaymentHeadersInAllowList(t *testing.T) {
	mw := CORS(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://agent.example.com")
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)

	allow := rec.Header().Get("Access-Control-Allow-Headers")
	assert.Contains(t, allow, "X-Payment")
	assert.Contains(t, allow, "X-Payment-Txhash")
	assert.Contains(t, allow, "X-API-Key")
}

func TestCORS_OriginFiltering(t *testing.T) {
	tests := []struct {
		name     string
		allowed  []string
		origin   string
		wantEcho bool
	}{
		{"empty list allows all", nil, "https://anywhere.example.com", true},
		{"wildcard allows all", []string{"*"}, "https://anywhere.example.com", true},
		{"match is case insensitive", []string{"https://App.Example.com"}, "https://app.example.com", true},
		{"unlisted origin is ignored", []string{"https://app.example.com"}, "https://evil.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(okHandler()).ServeHTTP(rec, req)

			// Disallowed origins still reach the handler, just without
			// CORS headers.
			assert.Equal(t, http.StatusOK, rec.Code)
			if tt.wantEcho {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	mw := CORS(nil)

	served := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { served = true })

	req := httptest.NewRequest(http.MethodOptions, "/arbitrage", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, served)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginHeader(t *testing.T) {
	mw := CORS([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
