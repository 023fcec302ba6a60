package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/mashinman/internal/apierr"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/middleware"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/ukydev/mashinman/internal/validation"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	return m.Called(ctx, id, user).Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	return m.Called(ctx, vehicle).Error(0)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context, userID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	return m.Called(ctx, id, vehicle).Error(0)
}

func (m *MockVehicleCollection) UpdateMileage(ctx context.Context, id string, mileage int) error {
	return m.Called(ctx, id, mileage).Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockServiceCollection is a mock implementation of ServiceCollection
type MockServiceCollection struct {
	mock.Mock
}

func (m *MockServiceCollection) InsertService(ctx context.Context, svc *models.Service) error {
	return m.Called(ctx, svc).Error(0)
}

func (m *MockServiceCollection) FindServices(ctx context.Context, filter db.ServiceFilter) ([]models.Service, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *MockServiceCollection) FindServiceByID(ctx context.Context, id string) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceCollection) UpdateService(ctx context.Context, id string, svc models.Service) error {
	return m.Called(ctx, id, svc).Error(0)
}

func (m *MockServiceCollection) DeleteService(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockServiceCollection) DeleteServicesByVehicle(ctx context.Context, vehicleID string) error {
	return m.Called(ctx, vehicleID).Error(0)
}

// MockHistoryCollection is a mock implementation of HistoryCollection
type MockHistoryCollection struct {
	mock.Mock
}

func (m *MockHistoryCollection) InsertHistory(ctx context.Context, h *models.ServiceHistory) error {
	return m.Called(ctx, h).Error(0)
}

func (m *MockHistoryCollection) FindHistory(ctx context.Context, filter db.HistoryFilter) ([]models.ServiceHistory, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceHistory), args.Error(1)
}

func (m *MockHistoryCollection) FindHistoryByID(ctx context.Context, id string) (*models.ServiceHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceHistory), args.Error(1)
}

func (m *MockHistoryCollection) DeleteHistory(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockRequestCollection is a mock implementation of EmergencyRequestCollection
type MockRequestCollection struct {
	mock.Mock
}

func (m *MockRequestCollection) InsertRequest(ctx context.Context, req *models.EmergencyRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockRequestCollection) FindRequests(ctx context.Context, filter db.EmergencyFilter) ([]models.EmergencyRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmergencyRequest), args.Error(1)
}

func (m *MockRequestCollection) FindRequestByID(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmergencyRequest), args.Error(1)
}

func (m *MockRequestCollection) UpdateRequest(ctx context.Context, id string, req models.EmergencyRequest) error {
	return m.Called(ctx, id, req).Error(0)
}

// MockProviderCollection is a mock implementation of ProviderCollection
type MockProviderCollection struct {
	mock.Mock
}

func (m *MockProviderCollection) InsertProvider(ctx context.Context, p *models.Provider) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProviderCollection) FindProviders(ctx context.Context, activeOnly bool) ([]models.Provider, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Provider), args.Error(1)
}

func (m *MockProviderCollection) FindProviderByID(ctx context.Context, id string) (*models.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}

// MockPublisher is a mock implementation of notify.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, payload any) error {
	return m.Called(ctx, topic, payload).Error(0)
}

func (m *MockPublisher) Close() {}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testValidator() *validation.Validator {
	return validation.New(maintenance.DefaultPolicy())
}

func userClaims(id string) *models.Claims {
	return &models.Claims{UserID: id, Phone: "09121234567", Role: models.RoleUser}
}

// newRequest builds a request carrying claims (when non-nil) and a JSON body.
func newRequest(t *testing.T, method, target string, body any, claims *models.Claims) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	if claims != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), claims))
	}
	return req
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) apierr.Code {
	t.Helper()
	var body apierr.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Detail.Code
}

var (
	_ db.UserCollection             = (*MockUserCollection)(nil)
	_ db.VehicleCollection          = (*MockVehicleCollection)(nil)
	_ db.ServiceCollection          = (*MockServiceCollection)(nil)
	_ db.HistoryCollection          = (*MockHistoryCollection)(nil)
	_ db.EmergencyRequestCollection = (*MockRequestCollection)(nil)
	_ db.ProviderCollection         = (*MockProviderCollection)(nil)
)
