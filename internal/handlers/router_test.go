package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/mashinman/internal/apierr"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/metrics"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/zoobzio/clockz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type routerFixture struct {
	deps    Deps
	handler http.Handler
}

func newRouterFixture(rateLimit int) *routerFixture {
	clock := clockz.NewFakeClock()
	deps := Deps{
		Users:     new(MockUserCollection),
		Vehicles:  new(MockVehicleCollection),
		Services:  new(MockServiceCollection),
		History:   new(MockHistoryCollection),
		Requests:  new(MockRequestCollection),
		Providers: new(MockProviderCollection),

		Auth:      newTestAuthService(),
		Engine:    maintenance.NewEngine(maintenance.DefaultPolicy(), clock),
		Validator: testValidator(),
		Publisher: new(MockPublisher),
		Metrics:   metrics.New(),
		Log:       quietLogger(),
		Clock:     clock,
		Ping:      func(context.Context) error { return nil },

		RateLimitRequests: rateLimit,
		RateLimitWindow:   time.Minute,
	}
	return &routerFixture{deps: deps, handler: NewRouter(deps)}
}

func (f *routerFixture) token(t *testing.T, role models.Role) string {
	t.Helper()
	token, err := f.deps.Auth.GenerateToken(&models.User{ID: primitive.NewObjectID(), Phone: "09121234567", Role: role})
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newRouterFixture(0)

	for _, target := range []string{"/health", "/metrics", "/api/calendar/today", "/api/calendar/convert?jalali=1403/01/01"} {
		t.Run(target, func(t *testing.T) {
			w := f.do(http.MethodGet, target, "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_Authentication(t *testing.T) {
	f := newRouterFixture(0)

	t.Run("missing token", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/vehicles", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apierr.CodeNotAuthenticated, errorCode(t, w))
	})

	t.Run("garbage token", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/vehicles", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apierr.CodeAuthenticationFailed, errorCode(t, w))
	})

	t.Run("valid token", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/vehicles/brands", f.token(t, models.RoleUser))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRouter_Permissions(t *testing.T) {
	f := newRouterFixture(0)

	w := f.do(http.MethodPost, "/api/emergency/providers", f.token(t, models.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apierr.CodePermissionDenied, errorCode(t, w))

	w = f.do(http.MethodPatch, "/api/emergency/requests/abc", f.token(t, models.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_RecordsRoutePattern(t *testing.T) {
	f := newRouterFixture(0)
	token := f.token(t, models.RoleUser)

	f.do(http.MethodGet, "/api/services/types", token)
	f.do(http.MethodGet, "/api/services/types", token)
	f.do(http.MethodGet, "/api/nowhere", token)

	m := f.deps.Metrics
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "GET /api/services/types", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "unmatched", "404")))
}

func TestRouter_RateLimit(t *testing.T) {
	f := newRouterFixture(2)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "").Code)

	w := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, apierr.CodeRateLimited, errorCode(t, w))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
