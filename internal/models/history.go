package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServicePart is a part used during a service.
type ServicePart struct {
	Name       string `bson:"name" json:"name" validate:"required"`
	Quantity   int    `bson:"quantity" json:"quantity" validate:"min=1"`
	UnitPrice  int64  `bson:"unit_price" json:"unit_price" validate:"min=0"`
	TotalPrice int64  `bson:"total_price" json:"total_price"`
}

// ServiceHistory is an immutable record of work done on a vehicle.
type ServiceHistory struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ServiceID     string             `bson:"service_id,omitempty" json:"service_id,omitempty"`
	VehicleID     string             `bson:"vehicle_id" json:"vehicle_id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	ServiceType   string             `bson:"service_type,omitempty" json:"service_type,omitempty"`
	ServiceDate   time.Time          `bson:"service_date" json:"-"`
	Mileage       int                `bson:"mileage" json:"mileage"`
	Parts         []ServicePart      `bson:"parts,omitempty" json:"parts,omitempty"`
	PartsCost     int64              `bson:"parts_cost" json:"parts_cost"`
	LaborCost     int64              `bson:"labor_cost" json:"labor_cost"`
	TotalCost     int64              `bson:"total_cost" json:"total_cost"`
	ServiceCenter string             `bson:"service_center,omitempty" json:"service_center,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// HistoryRequest is the body for recording a service history entry.
type HistoryRequest struct {
	ServiceID     string        `json:"service_id"`
	VehicleID     string        `json:"vehicle_id" validate:"required"`
	ServiceDate   string        `json:"service_date" validate:"required,jalali_date"`
	Mileage       int           `json:"mileage"`
	Parts         []ServicePart `json:"parts" validate:"dive"`
	LaborCost     int64         `json:"labor_cost" validate:"min=0"`
	ServiceCenter string        `json:"service_center" validate:"max=100"`
	Notes         string        `json:"notes" validate:"max=1000"`
}

// HistoryResponse renders the service date in the Jalali calendar.
type HistoryResponse struct {
	ServiceHistory
	ServiceDate string `json:"service_date"`
}

// PartsTotal fills each part's total and returns their sum.
func PartsTotal(parts []ServicePart) int64 {
	var sum int64
	for i := range parts {
		parts[i].TotalPrice = int64(parts[i].Quantity) * parts[i].UnitPrice
		sum += parts[i].TotalPrice
	}
	return sum
}
