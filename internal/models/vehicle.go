package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a privately owned car.
type Vehicle struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             string             `bson:"user_id" json:"user_id"`
	LicensePlate       string             `bson:"license_plate" json:"license_plate"`
	Brand              string             `bson:"brand" json:"brand"`
	Model              string             `bson:"model" json:"model"`
	ManufactureYear    int                `bson:"manufacture_year" json:"manufacture_year"`
	Color              string             `bson:"color,omitempty" json:"color,omitempty"`
	CurrentMileage     int                `bson:"current_mileage" json:"current_mileage"`
	LastServiceDate    *time.Time         `bson:"last_service_date,omitempty" json:"-"`
	LastServiceMileage *int               `bson:"last_service_mileage,omitempty" json:"last_service_mileage,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// VehicleRequest is the create/update body. Dates are Jalali strings.
type VehicleRequest struct {
	LicensePlate       string `json:"license_plate" validate:"required,iranian_plate"`
	Brand              string `json:"brand" validate:"required,car_brand"`
	Model              string `json:"model" validate:"required,max=50"`
	ManufactureYear    int    `json:"manufacture_year" validate:"required,min=1300,max=2100"`
	Color              string `json:"color" validate:"max=30"`
	CurrentMileage     int    `json:"current_mileage"`
	LastServiceDate    string `json:"last_service_date" validate:"omitempty,jalali_date"`
	LastServiceMileage *int   `json:"last_service_mileage"`
}

// MileageRequest records a new odometer reading.
type MileageRequest struct {
	CurrentMileage int `json:"current_mileage"`
}

// VehicleResponse is a Vehicle with its dates rendered in the Jalali calendar.
type VehicleResponse struct {
	Vehicle
	LastServiceDate string `json:"last_service_date,omitempty"`
}
