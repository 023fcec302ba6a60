package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/auth"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/metrics"
	"github.com/ukydev/mashinman/internal/middleware"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/ukydev/mashinman/internal/notify"
	"github.com/ukydev/mashinman/internal/validation"
	"github.com/zoobzio/clockz"
)

// Deps are the collaborators of the HTTP API.
type Deps struct {
	Users     db.UserCollection
	Vehicles  db.VehicleCollection
	Services  db.ServiceCollection
	History   db.HistoryCollection
	Requests  db.EmergencyRequestCollection
	Providers db.ProviderCollection

	Auth      *auth.Service
	Engine    *maintenance.Engine
	Validator *validation.Validator
	Publisher notify.Publisher
	Metrics   *metrics.Metrics
	Log       *logrus.Logger
	Clock     clockz.Clock
	Ping      Pinger

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter registers every route and wraps the mux in the middleware stack:
// request logging, panic recovery, rate limiting, authentication and metrics,
// outermost first.
func NewRouter(d Deps) http.Handler {
	if d.Clock == nil {
		d.Clock = clockz.RealClock
	}
	if d.Publisher == nil {
		d.Publisher = notify.NopPublisher{}
	}

	authMW := middleware.NewAuthMiddleware(d.Auth)
	policy := d.Engine.Policy()

	authH := NewAuthHandler(d.Auth, d.Users, d.Validator, d.Log)
	vehicleH := NewVehicleHandler(d.Vehicles, d.Services, d.Validator, d.Log)
	serviceH := NewServiceHandler(d.Services, d.Vehicles, d.History, d.Engine, d.Metrics, d.Validator, d.Log)
	historyH := NewHistoryHandler(d.History, d.Services, d.Vehicles, policy, d.Metrics, d.Validator, d.Log)
	emergencyH := NewEmergencyHandler(d.Requests, d.Providers, d.Vehicles, d.Publisher, d.Metrics, d.Clock, d.Validator, d.Log)
	calendarH := NewCalendarHandler(d.Clock, d.Log)
	healthH := NewHealthHandler(d.Ping, d.Clock)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthH.Health)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	mux.HandleFunc("POST /api/auth/register", authH.Register)
	mux.HandleFunc("POST /api/auth/login", authH.Login)
	mux.HandleFunc("POST /api/auth/refresh", authH.Refresh)
	mux.HandleFunc("GET /api/auth/profile", authH.GetProfile)
	mux.HandleFunc("PUT /api/auth/profile", authH.UpdateProfile)
	mux.HandleFunc("POST /api/auth/change-password", authH.ChangePassword)

	mux.HandleFunc("GET /api/calendar/today", calendarH.Today)
	mux.HandleFunc("GET /api/calendar/convert", calendarH.Convert)

	mux.HandleFunc("GET /api/vehicles/brands", vehicleH.Brands)
	mux.HandleFunc("POST /api/vehicles", vehicleH.Create)
	mux.HandleFunc("GET /api/vehicles", vehicleH.List)
	mux.HandleFunc("GET /api/vehicles/{id}", vehicleH.Get)
	mux.HandleFunc("PUT /api/vehicles/{id}", vehicleH.Update)
	mux.HandleFunc("PATCH /api/vehicles/{id}/mileage", vehicleH.UpdateMileage)
	mux.HandleFunc("DELETE /api/vehicles/{id}", vehicleH.Delete)

	mux.HandleFunc("GET /api/services/types", serviceH.Types)
	mux.HandleFunc("GET /api/services/upcoming", serviceH.Upcoming)
	mux.HandleFunc("POST /api/services", serviceH.Create)
	mux.HandleFunc("GET /api/services", serviceH.List)
	mux.HandleFunc("GET /api/services/{id}", serviceH.Get)
	mux.HandleFunc("PUT /api/services/{id}", serviceH.Update)
	mux.HandleFunc("PATCH /api/services/{id}/status", serviceH.UpdateStatus)
	mux.HandleFunc("POST /api/services/{id}/complete", serviceH.Complete)
	mux.HandleFunc("DELETE /api/services/{id}", serviceH.Delete)

	mux.HandleFunc("POST /api/history", historyH.Create)
	mux.HandleFunc("GET /api/history", historyH.List)
	mux.HandleFunc("GET /api/history/{id}", historyH.Get)
	mux.HandleFunc("DELETE /api/history/{id}", historyH.Delete)

	mux.Handle("POST /api/emergency/sos",
		authMW.RequirePermission(models.ActionRequestHelp)(http.HandlerFunc(emergencyH.SOS)))
	mux.HandleFunc("GET /api/emergency/requests", emergencyH.ListRequests)
	mux.HandleFunc("GET /api/emergency/requests/{id}", emergencyH.GetRequest)
	mux.Handle("PATCH /api/emergency/requests/{id}",
		authMW.RequirePermission(models.ActionUpdateRequests)(http.HandlerFunc(emergencyH.UpdateRequest)))
	mux.Handle("POST /api/emergency/providers",
		authMW.RequirePermission(models.ActionManageProviders)(http.HandlerFunc(emergencyH.CreateProvider)))
	mux.HandleFunc("GET /api/emergency/providers", emergencyH.ListProviders)
	mux.HandleFunc("GET /api/emergency/providers/{id}", emergencyH.GetProvider)

	stack := []func(http.Handler) http.Handler{
		middleware.RequestLogger(d.Log),
		middleware.Recover(d.Log),
	}
	if d.RateLimitRequests > 0 && d.RateLimitWindow > 0 {
		limiter := middleware.NewRateLimitMiddleware(d.Clock)
		stack = append(stack, limiter.RateLimit(d.RateLimitRequests, d.RateLimitWindow))
	}
	stack = append(stack, authMW.Authenticate)
	if d.Metrics != nil {
		stack = append(stack, middleware.Metrics(d.Metrics))
	}
	return middleware.Chain(mux, stack...)
}
