package db

import (
	"context"
	"time"

	"github.com/ukydev/mashinman/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// UserCollection defines the interface for user database operations.
type UserCollection interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context, userID string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicleByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	UpdateMileage(ctx context.Context, id string, mileage int) error
	DeleteVehicle(ctx context.Context, id string) error
}

// ServiceCollection defines the interface for scheduled service operations.
type ServiceCollection interface {
	InsertService(ctx context.Context, svc *models.Service) error
	FindServices(ctx context.Context, filter ServiceFilter) ([]models.Service, error)
	FindServiceByID(ctx context.Context, id string) (*models.Service, error)
	UpdateService(ctx context.Context, id string, svc models.Service) error
	DeleteService(ctx context.Context, id string) error
	DeleteServicesByVehicle(ctx context.Context, vehicleID string) error
}

// HistoryCollection defines the interface for service history operations.
type HistoryCollection interface {
	InsertHistory(ctx context.Context, h *models.ServiceHistory) error
	FindHistory(ctx context.Context, filter HistoryFilter) ([]models.ServiceHistory, error)
	FindHistoryByID(ctx context.Context, id string) (*models.ServiceHistory, error)
	DeleteHistory(ctx context.Context, id string) error
}

// EmergencyRequestCollection defines the interface for SOS request operations.
type EmergencyRequestCollection interface {
	InsertRequest(ctx context.Context, req *models.EmergencyRequest) error
	FindRequests(ctx context.Context, filter EmergencyFilter) ([]models.EmergencyRequest, error)
	FindRequestByID(ctx context.Context, id string) (*models.EmergencyRequest, error)
	UpdateRequest(ctx context.Context, id string, req models.EmergencyRequest) error
}

// ProviderCollection defines the interface for roadside provider operations.
type ProviderCollection interface {
	InsertProvider(ctx context.Context, p *models.Provider) error
	FindProviders(ctx context.Context, activeOnly bool) ([]models.Provider, error)
	FindProviderByID(ctx context.Context, id string) (*models.Provider, error)
}

// ServiceFilter selects services. Zero fields are ignored.
type ServiceFilter struct {
	UserID    string
	VehicleID string
	Type      string
	Completed *bool
	DueFrom   *time.Time
	DueTo     *time.Time
}

// BSON renders the filter as a Mongo query.
func (f ServiceFilter) BSON() bson.M {
	q := bson.M{}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	if f.VehicleID != "" {
		q["vehicle_id"] = f.VehicleID
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Completed != nil {
		if *f.Completed {
			q["status"] = models.StatusCompleted
		} else {
			q["status"] = bson.M{"$nin": []models.ServiceStatus{models.StatusCompleted, models.StatusCancelled}}
		}
	}
	if f.DueFrom != nil || f.DueTo != nil {
		r := bson.M{}
		if f.DueFrom != nil {
			r["$gte"] = *f.DueFrom
		}
		if f.DueTo != nil {
			r["$lte"] = *f.DueTo
		}
		q["next_service_date"] = r
	}
	return q
}

// HistoryFilter selects history records. Zero fields are ignored.
type HistoryFilter struct {
	UserID    string
	VehicleID string
	ServiceID string
}

// BSON renders the filter as a Mongo query.
func (f HistoryFilter) BSON() bson.M {
	q := bson.M{}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	if f.VehicleID != "" {
		q["vehicle_id"] = f.VehicleID
	}
	if f.ServiceID != "" {
		q["service_id"] = f.ServiceID
	}
	return q
}

// EmergencyFilter selects emergency requests. Zero fields are ignored.
type EmergencyFilter struct {
	UserID string
	Status string
}

// BSON renders the filter as a Mongo query.
func (f EmergencyFilter) BSON() bson.M {
	q := bson.M{}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}
