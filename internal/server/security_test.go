package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var diagnosticsPaths = []string{
	"/healthz",
	"/metrics",
	"/v1/system",
	"/v1/operations",
	"/v1/operations/numeric/f64/sum",
}

func TestDefaultSecurityConfigIsReadOnly(t *testing.T) {
	t.Parallel()
	cfg := DefaultSecurityConfig()
	assert.True(t, cfg.EnableCORS)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{http.MethodGet, http.MethodOptions}, cfg.AllowedMethods)
}

func TestDiagnosticsResponsesCarrySecurityHeaders(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	for _, path := range diagnosticsPaths {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			rec := get(t, s.Handler(), path)
			require.Equal(t, http.StatusOK, rec.Code)
			h := rec.Header()
			assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
			assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
			assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", h.Get("Content-Security-Policy"))
		})
	}
}

func TestPreflightOnDiagnosticsPaths(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	for _, path := range append(diagnosticsPaths, "/v1/operations/numeric/f64/unknown") {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodOptions, path, http.NoBody)
			req.Header.Set("Origin", "http://dashboard.local")
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Empty(t, rec.Body.String())
			assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestPreflightIsNotCountedAsRequest(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/healthz", http.NoBody)
	s.Handler().ServeHTTP(httptest.NewRecorder(), req)

	assert.NotContains(t, get(t, s.Handler(), "/metrics").Body.String(), `code="204"`)
}

func TestMutatingMethodsAreRejected(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(method, "/v1/operations", http.NoBody))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestOperationsCORS(t *testing.T) {
	t.Parallel()
	restricted := SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"http://dashboard.local"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}

	tests := []struct {
		name   string
		cfg    SecurityConfig
		origin string
		want   string
	}{
		{"wildcard default", DefaultSecurityConfig(), "http://elsewhere.example", "*"},
		{"wildcard without origin", DefaultSecurityConfig(), "", "*"},
		{"listed origin echoed", restricted, "http://dashboard.local", "http://dashboard.local"},
		{"unlisted origin refused", restricted, "http://elsewhere.example", ""},
		{"missing origin refused", restricted, "", ""},
		{"disabled", SecurityConfig{AllowedOrigins: []string{"*"}}, "http://dashboard.local", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestServer(t, WithSecurityConfig(tt.cfg))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/operations", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			s.Handler().ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.want == "" {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
			} else {
				assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}
