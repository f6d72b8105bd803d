package auth

import (
	"testing"
	"time"

	"github.com/boxflow/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-jwt-validation!!",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "boxflow-backend",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := newTestService()
	tenantID := uuid.New()
	userID := uuid.New()

	token, err := service.Generate(tenantID, userID, "picker-anna")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, tenantID, identity.TenantID)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "picker-anna", identity.Username)
}

func TestJWTService_Validate_WrongSecret(t *testing.T) {
	service := newTestService()
	token, err := service.Generate(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "a-completely-different-secret-value!",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "boxflow-backend",
	})
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Validate_Expired(t *testing.T) {
	service := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-jwt-validation!!",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "boxflow-backend",
	})
	token, err := service.Generate(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	_, err = service.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_Validate_WrongIssuer(t *testing.T) {
	other := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-for-jwt-validation!!",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "someone-else",
	})
	token, err := other.Generate(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	_, err = newTestService().Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Validate_MissingTenant(t *testing.T) {
	service := newTestService()
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "boxflow-backend",
			Audience:  jwt.ClaimStrings{"boxflow-backend"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: uuid.New().String(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test-secret-key-for-jwt-validation!!"))
	require.NoError(t, err)

	_, err = service.Validate(token)
	assert.ErrorIs(t, err, ErrMissingTenantID)
}

func TestJWTService_Validate_RejectsUnsignedToken(t *testing.T) {
	service := newTestService()
	claims := &Claims{
		TenantID: uuid.New().String(),
		UserID:   uuid.New().String(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Validate_Garbage(t *testing.T) {
	_, err := newTestService().Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
