package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/mashinman/internal/apierr"
	"github.com/ukydev/mashinman/internal/auth"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/zoobzio/clockz"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey      contextKey = "user"
	RequestIDContextKey contextKey = "request_id"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates the bearer access token and adds its claims to the
// request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			apierr.Write(w, http.StatusUnauthorized, apierr.CodeNotAuthenticated, nil)
			return
		}

		token, err := m.authService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			apierr.Write(w, http.StatusUnauthorized, apierr.CodeAuthenticationFailed, nil)
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			errs := map[string]string{"token": "invalid"}
			if errors.Is(err, auth.ErrExpiredToken) {
				errs["token"] = "expired"
			}
			apierr.Write(w, http.StatusUnauthorized, apierr.CodeAuthenticationFailed, errs)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows the given role and admins.
func (m *AuthMiddleware) RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				apierr.Write(w, http.StatusUnauthorized, apierr.CodeNotAuthenticated, nil)
				return
			}

			if claims.Role != requiredRole && claims.Role != models.RoleAdmin {
				apierr.Write(w, http.StatusForbidden, apierr.CodePermissionDenied, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission allows roles that may perform requiredAction.
func (m *AuthMiddleware) RequirePermission(requiredAction string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				apierr.Write(w, http.StatusUnauthorized, apierr.CodeNotAuthenticated, nil)
				return
			}

			if !models.RoleAllows(claims.Role, requiredAction) {
				apierr.Write(w, http.StatusForbidden, apierr.CodePermissionDenied, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *models.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

var skipPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/refresh",
	"/api/calendar/",
	"/health",
	"/metrics",
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware is a sliding-window limiter keyed by client IP.
type RateLimitMiddleware struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	clock    clockz.Clock
}

// NewRateLimitMiddleware creates a limiter. A nil clock uses the real clock.
func NewRateLimitMiddleware(clock clockz.Clock) *RateLimitMiddleware {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &RateLimitMiddleware{
		requests: make(map[string][]time.Time),
		clock:    clock,
	}
}

// RateLimit allows maxRequests per client within window.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(getClientIP(r), maxRequests, window) {
				w.Header().Set("Retry-After", retryAfter(window))
				apierr.Write(w, http.StatusTooManyRequests, apierr.CodeRateLimited, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(clientIP string, maxRequests int, window time.Duration) bool {
	now := m.clock.Now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	valid := m.requests[clientIP][:0]
	for _, ts := range m.requests[clientIP] {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= maxRequests {
		m.requests[clientIP] = valid
		return false
	}
	m.requests[clientIP] = append(valid, now)
	return true
}

func retryAfter(window time.Duration) string {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}
