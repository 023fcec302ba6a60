package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/mashinman/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService() *Service {
	return NewService("test-secret", time.Hour, 24*time.Hour)
}

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Phone: "09121234567",
		Role:  models.RoleUser,
	}
}

func TestService_HashPassword(t *testing.T) {
	service := newTestService()

	password := "testpassword123"
	hash, err := service.HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.True(t, service.CheckPassword(password, hash))
	assert.False(t, service.CheckPassword("wrongpassword", hash))
}

func TestService_ValidateToken(t *testing.T) {
	service := newTestService()
	user := testUser()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, user.Phone, claims.Phone)
	assert.Equal(t, user.Role, claims.Role)

	now := time.Now().Unix()
	assert.Greater(t, claims.Exp, now)
	assert.LessOrEqual(t, claims.Exp, now+int64(time.Hour.Seconds())+1)

	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)

	_, err = service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_WrongSecret(t *testing.T) {
	token, err := newTestService().GenerateToken(testUser())
	require.NoError(t, err)

	other := NewService("another-secret", time.Hour, time.Hour)
	_, err = other.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	service := NewService("test-secret", -time.Minute, time.Hour)
	token, err := service.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestService_ValidateToken_UnknownRole(t *testing.T) {
	claims := jwt.MapClaims{
		"user_id": "abc",
		"phone":   "09121234567",
		"role":    "superuser",
		"typ":     tokenTypeAccess,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_RefreshToken(t *testing.T) {
	service := newTestService()
	user := testUser()

	refresh, err := service.GenerateRefreshToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Greater(t, claims.Exp, time.Now().Add(23*time.Hour).Unix())

	_, err = service.ValidateToken(refresh)
	assert.Equal(t, ErrInvalidToken, err, "refresh token must not authenticate requests")

	access, err := service.GenerateToken(user)
	require.NoError(t, err)
	_, err = service.ValidateRefreshToken(access)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := newTestService()

	extracted, err := service.ExtractTokenFromHeader("Bearer valid-token")
	assert.NoError(t, err)
	assert.Equal(t, "valid-token", extracted)

	for _, header := range []string{"", "InvalidFormat", "Bearer ", "Basic abc"} {
		_, err = service.ExtractTokenFromHeader(header)
		assert.Equal(t, ErrInvalidToken, err, header)
	}
}

func TestService_ValidatePassword(t *testing.T) {
	service := newTestService()

	assert.NoError(t, service.ValidatePassword("validpassword123"))
	assert.NoError(t, service.ValidatePassword("رمزعبور۱۲"))
	assert.ErrorIs(t, service.ValidatePassword("short"), ErrWeakPassword)
}
