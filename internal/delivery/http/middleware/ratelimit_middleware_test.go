package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestRateLimiterPerClient(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := NewRateLimiter(0.001, 2)
	defer rl.Stop()

	h := rl.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = remoteAddr
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5000", "").Code)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5001", "").Code)

	limited := call("10.0.0.1:5002", "")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	// Another client has its own bucket
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000", "").Code)

	// Behind a proxy the first forwarded address is the client
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5003", "203.0.113.9, 10.0.0.1").Code)
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := NewRateLimiter(5, 0)
	assert.Equal(t, 1, rl.burst)
	rl.Stop()
	rl.Stop()
}
