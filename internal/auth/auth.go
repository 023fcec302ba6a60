package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ukydev/mashinman/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrWeakPassword       = errors.New("password must be at least 8 characters long")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	minPasswordLength = 8
)

// Service handles authentication operations
type Service struct {
	jwtSecret  []byte
	tokenExp   time.Duration
	refreshExp time.Duration
}

// NewService creates a new authentication service
func NewService(secret string, tokenExp, refreshExp time.Duration) *Service {
	return &Service{
		jwtSecret:  []byte(secret),
		tokenExp:   tokenExp,
		refreshExp: refreshExp,
	}
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateToken generates an access token for a user
func (s *Service) GenerateToken(user *models.User) (string, error) {
	return s.sign(user, tokenTypeAccess, s.tokenExp)
}

// GenerateRefreshToken generates a longer-lived token that can only be
// exchanged for a new access token.
func (s *Service) GenerateRefreshToken(user *models.User) (string, error) {
	return s.sign(user, tokenTypeRefresh, s.refreshExp)
}

func (s *Service) sign(user *models.User, typ string, exp time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.Hex(),
		"phone":   user.Phone,
		"role":    string(user.Role),
		"typ":     typ,
		"exp":     now.Add(exp).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates an access token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	return s.validate(tokenString, tokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token and returns the claims
func (s *Service) ValidateRefreshToken(tokenString string) (*models.Claims, error) {
	return s.validate(tokenString, tokenTypeRefresh)
}

func (s *Service) validate(tokenString, typ string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if t, _ := claims["typ"].(string); t != typ {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	phone, ok := claims["phone"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	roleStr, ok := claims["role"].(string)
	if !ok || !models.IsValidRole(models.Role(roleStr)) {
		return nil, ErrInvalidToken
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &models.Claims{
		UserID: userID,
		Phone:  phone,
		Role:   models.Role(roleStr),
		Exp:    int64(exp),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

// ValidatePassword validates password strength
func (s *Service) ValidatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}
