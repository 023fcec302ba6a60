package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/validation"
)

// fakeAPI records the calls the seeder makes.
type fakeAPI struct {
	mu           sync.Mutex
	registered   bool
	registerHit  int
	loginHit     int
	vehicles     []vehiclePayload
	services     []servicePayload
	completed    []string
	failVehicle  bool
	unauthorized int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.registerHit++
		if f.registered {
			w.WriteHeader(http.StatusConflict)
			return
		}
		f.registered = true
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.loginHit++
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "password123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	})
	mux.HandleFunc("POST /api/vehicles", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		if f.failVehicle {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		var v vehiclePayload
		json.NewDecoder(r.Body).Decode(&v)
		f.vehicles = append(f.vehicles, v)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "v" + strings.Repeat("1", len(f.vehicles))})
	}))
	mux.HandleFunc("POST /api/services", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		var s servicePayload
		json.NewDecoder(r.Body).Decode(&s)
		f.services = append(f.services, s)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "s" + strings.Repeat("1", len(f.services))})
	}))
	mux.HandleFunc("POST /api/services/{id}/complete", f.authorized(func(w http.ResponseWriter, r *http.Request) {
		f.completed = append(f.completed, r.PathValue("id"))
		json.NewEncoder(w).Encode(map[string]any{"id": r.PathValue("id"), "status": "completed"})
	}))
	return mux
}

func (f *fakeAPI) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer tok" {
			f.unauthorized++
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func newFakeServer(t *testing.T, f *fakeAPI) *apiClient {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return newAPIClient(srv.URL + "/api")
}

func TestRegister_NewUser(t *testing.T) {
	f := &fakeAPI{}
	c := newFakeServer(t, f)

	require.NoError(t, c.register("علی محمدی", "09121111111", "password123"))
	assert.Equal(t, "tok", c.token)
	assert.Equal(t, 1, f.registerHit)
}

func TestRegister_ExistingUserFallsBackToLogin(t *testing.T) {
	f := &fakeAPI{registered: true}
	c := newFakeServer(t, f)

	err := c.register("علی محمدی", "09121111111", "password123")
	require.ErrorIs(t, err, errConflict)
	assert.Empty(t, c.token)

	require.NoError(t, c.login("09121111111", "password123"))
	assert.Equal(t, "tok", c.token)
	assert.Equal(t, 1, f.loginHit)
}

func TestLogin_WrongPassword(t *testing.T) {
	c := newFakeServer(t, &fakeAPI{registered: true})

	err := c.login("09121111111", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Empty(t, c.token)
}

func TestRandomVehicle_PassesServerValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		v := randomVehicle(rng, now)
		assert.True(t, validation.IsValidLicensePlate(v.LicensePlate), v.LicensePlate)
		assert.True(t, validation.IsKnownBrand(v.Brand), v.Brand)
		assert.GreaterOrEqual(t, v.ManufactureYear, 1380)
		assert.LessOrEqual(t, v.ManufactureYear, 1403)
		assert.Less(t, v.LastServiceMileage, v.CurrentMileage)
		assert.GreaterOrEqual(t, v.LastServiceMileage, 0)

		last, err := jalali.ToGregorian(v.LastServiceDate)
		require.NoError(t, err)
		assert.False(t, last.After(now))
	}
}

func TestRandomService_UsesPolicy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	policy := maintenance.DefaultPolicy()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	v := createdVehicle{ID: "v1", Brand: "پژو", Model: "206", CurrentMileage: 3000}

	for i := 0; i < 50; i++ {
		s := randomService(rng, policy, v, now)
		assert.Equal(t, "v1", s.VehicleID)
		assert.True(t, policy.IsServiceType(s.Type), s.Type)
		assert.Equal(t, policy.IntervalFor(s.Type), s.IntervalMileage)
		assert.NotEmpty(t, s.Name)
		assert.Contains(t, s.Description, "پژو 206")
		assert.GreaterOrEqual(t, s.LastServiceMileage, 0)
		assert.LessOrEqual(t, s.LastServiceMileage, v.CurrentMileage)
		assert.Positive(t, s.Cost)
	}
}

func TestServiceNames_CoverPolicy(t *testing.T) {
	for _, st := range maintenance.DefaultPolicy().ServiceTypes {
		assert.NotEmpty(t, serviceNames[st], st)
	}
}

func TestSeed(t *testing.T) {
	f := &fakeAPI{}
	c := newFakeServer(t, f)
	require.NoError(t, c.register("علی محمدی", "09121111111", "password123"))

	res := seed(c, rand.New(rand.NewSource(3)), 3, 4, time.Now())

	assert.Equal(t, 3, res.Vehicles)
	assert.Equal(t, 12, res.Services)
	assert.Len(t, f.vehicles, 3)
	assert.Len(t, f.services, 12)
	assert.Len(t, f.completed, res.Completed)
	assert.Zero(t, f.unauthorized)
}

func TestSeed_VehicleFailuresAreSkipped(t *testing.T) {
	f := &fakeAPI{failVehicle: true}
	c := newFakeServer(t, f)
	require.NoError(t, c.register("علی محمدی", "09121111111", "password123"))

	res := seed(c, rand.New(rand.NewSource(3)), 2, 3, time.Now())

	assert.Equal(t, seedResult{}, res)
	assert.Empty(t, f.services)
}

func TestSeed_Unauthenticated(t *testing.T) {
	f := &fakeAPI{}
	c := newFakeServer(t, f)

	res := seed(c, rand.New(rand.NewSource(3)), 2, 1, time.Now())

	assert.Zero(t, res.Vehicles)
	assert.Equal(t, 2, f.unauthorized)
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SEED_VEHICLES", "12")
	assert.Equal(t, 12, getEnvInt("SEED_VEHICLES", 5))

	t.Setenv("SEED_VEHICLES", "many")
	assert.Equal(t, 5, getEnvInt("SEED_VEHICLES", 5))

	t.Setenv("SEED_VEHICLES", "-1")
	assert.Equal(t, 5, getEnvInt("SEED_VEHICLES", 5))

	assert.Equal(t, "fallback", getEnv("SEED_UNSET_KEY", "fallback"))
}
