package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-medical-appointment/config"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) (*AuthMiddleware, *jwt.JWTService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	return NewAuthMiddleware(jwtService, client, log), jwtService, mr
}

func TestAuthenticate(t *testing.T) {
	auth, jwtService, mr := newTestAuth(t)
	userID := uuid.New()

	var seenUser uuid.UUID
	var seenRole int
	h := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = GetUserIDFromContext(r.Context())
		seenRole, _ = GetRoleIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	access, accessID, err := jwtService.GenerateAccessToken(userID, "cara@clinic.test", entity.RoleIDPatient)
	require.NoError(t, err)
	refresh, _, err := jwtService.GenerateRefreshToken(userID, "cara@clinic.test", entity.RoleIDPatient)
	require.NoError(t, err)

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Token "+access))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+refresh))

	// Not in Redis yet, so treated as revoked
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+access))

	require.NoError(t, mr.Set("access_token:"+userID.String()+":"+accessID, "valid"))
	assert.Equal(t, http.StatusOK, call("Bearer "+access))
	assert.Equal(t, userID, seenUser)
	assert.Equal(t, entity.RoleIDPatient, seenRole)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		guard  func(http.Handler) http.Handler
		roleID *int
		want   int
	}{
		{"no role", RequireAdmin, nil, http.StatusUnauthorized},
		{"admin on admin route", RequireAdmin, intPtr(entity.RoleIDAdmin), http.StatusOK},
		{"patient on admin route", RequireAdmin, intPtr(entity.RoleIDPatient), http.StatusForbidden},
		{"doctor on staff route", RequireAdminOrDoctor, intPtr(entity.RoleIDDoctor), http.StatusOK},
		{"patient on staff route", RequireAdminOrDoctor, intPtr(entity.RoleIDPatient), http.StatusForbidden},
		{"patient on patient route", RequirePatient, intPtr(entity.RoleIDPatient), http.StatusOK},
		{"doctor on patient route", RequirePatient, intPtr(entity.RoleIDDoctor), http.StatusForbidden},
		{"doctor on doctor route", RequireDoctor, intPtr(entity.RoleIDDoctor), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.roleID != nil {
				req = req.WithContext(contextWithRole(req, *tt.roleID))
			}
			rec := httptest.NewRecorder()
			tt.guard(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireRoleNamesAllowedRoles(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(contextWithRole(req, entity.RoleIDPatient))
	rec := httptest.NewRecorder()

	RequireAdminOrDoctor(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin or doctor")
}

func intPtr(v int) *int { return &v }

func contextWithRole(r *http.Request, roleID int) context.Context {
	return context.WithValue(r.Context(), RoleIDKey, roleID)
}
