package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-medical-appointment/internal/delivery/http/middleware"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		origins     []string
		origin      string
		method      string
		wantStatus  int
		wantAllowed string
	}{
		{"wildcard", []string{"*"}, "https://clinic.example", http.MethodGet, http.StatusTeapot, "*"},
		{"empty list allows any", nil, "https://clinic.example", http.MethodGet, http.StatusTeapot, "*"},
		{"listed origin echoed", []string{"https://clinic.example"}, "https://clinic.example", http.MethodGet, http.StatusTeapot, "https://clinic.example"},
		{"unlisted origin", []string{"https://clinic.example"}, "https://evil.example", http.MethodGet, http.StatusTeapot, ""},
		{"preflight short-circuits", []string{"*"}, "https://clinic.example", http.MethodOptions, http.StatusNoContent, "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.NewCORSMiddleware(tt.origins).Handle(next)

			req := httptest.NewRequest(tt.method, "/api/v1/calendar/events", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllowed, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantAllowed != "" {
				assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
			}
		})
	}
}
