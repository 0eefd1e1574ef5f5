package usecase

import (
	"context"
	"testing"
	"time"

	"go-medical-appointment/config"
	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/repository"
	"go-medical-appointment/internal/testutil"
	"go-medical-appointment/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type authFixture struct {
	db      *gorm.DB
	mr      *miniredis.Miniredis
	jwt     *jwt.JWTService
	usecase AuthUsecase
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewDB(t)
	mr, client := newTestRedis(t)
	log := newTestLogger()
	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})

	return &authFixture{
		db:  db,
		mr:  mr,
		jwt: jwtService,
		usecase: NewAuthUsecase(
			db,
			log,
			repository.NewUserRepository(),
			repository.NewPatientProfileRepository(),
			newTestAuditService(log),
			jwtService,
			client,
		),
	}
}

func (f *authFixture) register(t *testing.T) *dto.UserResponse {
	t.Helper()
	user, err := f.usecase.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:       "Cara@Clinic.test",
		Password:    "correct-horse",
		FullName:    "Cara Patient",
		NationalID:  "3171012345",
		DateOfBirth: "1990-05-17",
		Gender:      "F",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterPatient(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t)

	assert.Equal(t, "cara@clinic.test", user.Email)
	assert.Equal(t, entity.RolePatient, user.Role)
	require.NotNil(t, user.PatientProfile)

	_, err := f.usecase.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email: "x@clinic.test", Password: "correct-horse", FullName: "X", NationalID: "1234", DateOfBirth: "17-05-1990", Gender: "M",
	})
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
}

func TestLoginRefreshLogout(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t)
	ctx := context.Background()

	_, err := f.usecase.Login(ctx, &dto.LoginRequest{Email: "cara@clinic.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.usecase.Login(ctx, &dto.LoginRequest{Email: "nobody@clinic.test", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tokens, err := f.usecase.Login(ctx, &dto.LoginRequest{Email: "CARA@clinic.test", Password: "correct-horse"})
	require.NoError(t, err)
	assert.EqualValues(t, 900, tokens.ExpiresIn)

	access, err := f.jwt.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, access.UserID)
	assert.True(t, f.mr.Exists(jwt.AccessToken.StoreKey(user.ID, access.TokenID)))

	// Access tokens cannot be used to refresh
	_, err = f.usecase.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.AccessToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	rotated, err := f.usecase.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)

	// The old refresh token rotates only once
	_, err = f.usecase.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)

	newAccess, err := f.jwt.ValidateToken(rotated.AccessToken)
	require.NoError(t, err)
	newRefresh, err := f.jwt.ValidateToken(rotated.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, f.usecase.Logout(ctx, user.ID, newAccess.TokenID, newRefresh.TokenID))
	assert.False(t, f.mr.Exists(jwt.AccessToken.StoreKey(user.ID, newAccess.TokenID)))
	assert.False(t, f.mr.Exists(jwt.RefreshToken.StoreKey(user.ID, newRefresh.TokenID)))

	// The first access token is still live until revoked
	require.NoError(t, f.usecase.RevokeAllUserTokens(ctx, user.ID))
	assert.False(t, f.mr.Exists(jwt.AccessToken.StoreKey(user.ID, access.TokenID)))
}

func TestLoginInactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t)
	require.NoError(t, f.db.Model(&entity.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	_, err := f.usecase.Login(context.Background(), &dto.LoginRequest{Email: "cara@clinic.test", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrUserInactive)
}
