package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceStatus is the lifecycle state of a scheduled service.
type ServiceStatus string

const (
	StatusPending    ServiceStatus = "pending"
	StatusInProgress ServiceStatus = "in_progress"
	StatusCompleted  ServiceStatus = "completed"
	StatusCancelled  ServiceStatus = "cancelled"
	StatusDelayed    ServiceStatus = "delayed"
)

// Service priorities, as entered by the owner.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Service is a recurring maintenance item for one vehicle, with the baseline
// of its last completion and the interval policy that schedules the next one.
type Service struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID          string             `bson:"vehicle_id" json:"vehicle_id"`
	UserID             string             `bson:"user_id" json:"user_id"`
	Type               string             `bson:"type" json:"type"`
	Name               string             `bson:"name" json:"name"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	IntervalDays       int                `bson:"interval_days" json:"interval_days"`
	IntervalMileage    int                `bson:"interval_mileage" json:"interval_mileage"`
	LastServiceDate    *time.Time         `bson:"last_service_date,omitempty" json:"-"`
	LastServiceMileage int                `bson:"last_service_mileage" json:"last_service_mileage"`
	NextServiceDate    *time.Time         `bson:"next_service_date,omitempty" json:"-"`
	NextServiceMileage int                `bson:"next_service_mileage" json:"next_service_mileage"`
	Status             ServiceStatus      `bson:"status" json:"status"`
	Priority           string             `bson:"priority" json:"priority"`
	Cost               int64              `bson:"cost,omitempty" json:"cost,omitempty"` // rials
	ServiceCenter      string             `bson:"service_center,omitempty" json:"service_center,omitempty"`
	Notes              string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt        *time.Time         `bson:"completed_at,omitempty" json:"-"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// ServiceRequest is the create/update body for a service.
type ServiceRequest struct {
	VehicleID          string `json:"vehicle_id" validate:"required"`
	Type               string `json:"type" validate:"required,service_type"`
	Name               string `json:"name" validate:"required,max=100"`
	Description        string `json:"description" validate:"max=500"`
	IntervalDays       int    `json:"interval_days" validate:"min=0"`
	IntervalMileage    int    `json:"interval_mileage" validate:"min=0"`
	LastServiceDate    string `json:"last_service_date" validate:"omitempty,jalali_date"`
	LastServiceMileage int    `json:"last_service_mileage"`
	NextServiceDate    string `json:"next_service_date" validate:"omitempty,jalali_date"`
	Priority           string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Cost               int64  `json:"cost" validate:"min=0"`
	ServiceCenter      string `json:"service_center" validate:"max=100"`
	Notes              string `json:"notes" validate:"max=1000"`
}

// StatusRequest moves a service to another lifecycle state.
type StatusRequest struct {
	Status ServiceStatus `json:"status" validate:"required,oneof=pending in_progress completed cancelled delayed"`
}

// CompleteRequest records the date and odometer reading of a completed service.
// An empty date means today.
type CompleteRequest struct {
	Date    string `json:"date" validate:"omitempty,jalali_date"`
	Mileage int    `json:"mileage"`
	Cost    int64  `json:"cost" validate:"min=0"`
	Notes   string `json:"notes" validate:"max=1000"`
}

// ServiceResponse is a Service with Jalali dates and its derived urgency.
type ServiceResponse struct {
	Service
	LastServiceDate string  `json:"last_service_date,omitempty"`
	NextServiceDate string  `json:"next_service_date,omitempty"`
	CompletedAt     string  `json:"completed_at,omitempty"`
	Urgency         string  `json:"urgency"`
	DaysRatio       float64 `json:"days_ratio"`
	MileageRatio    float64 `json:"mileage_ratio"`
	DaysRemaining   *int    `json:"days_remaining,omitempty"`
	KmRemaining     *int    `json:"km_remaining,omitempty"`
}
