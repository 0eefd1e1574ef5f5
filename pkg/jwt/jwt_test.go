package jwt

import (
	"testing"
	"time"

	"go-medical-appointment/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(secret string) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:        secret,
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService("test-secret")
	userID := uuid.New()

	token, tokenID, err := svc.GenerateAccessToken(userID, "doc@clinic.test", 2)
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "doc@clinic.test", claims.Email)
	assert.Equal(t, 2, claims.RoleID)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, tokenID, claims.TokenID)
}

func TestRefreshTokenType(t *testing.T) {
	svc := newTestService("test-secret")

	token, _, err := svc.GenerateRefreshToken(uuid.New(), "p@clinic.test", 3)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := newTestService("one").GenerateAccessToken(uuid.New(), "a@b.c", 1)
	require.NoError(t, err)

	_, err = newTestService("two").ValidateToken(token)
	assert.Error(t, err)
}

func TestStoreKeys(t *testing.T) {
	userID := uuid.MustParse("7b0c7e2a-1d43-4e57-9d55-0a9a3b4b1f10")

	assert.Equal(t, "access_token:7b0c7e2a-1d43-4e57-9d55-0a9a3b4b1f10:abc", AccessToken.StoreKey(userID, "abc"))
	assert.Equal(t, "refresh_token:7b0c7e2a-1d43-4e57-9d55-0a9a3b4b1f10:*", RefreshToken.StorePattern(userID))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Bearer ", "", false},
		{"bearer abc", "", false},
		{"Basic abc", "", false},
		{"Bearer a b", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}
