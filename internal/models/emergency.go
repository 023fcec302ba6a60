package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Emergency request states.
const (
	EmergencyPending    = "pending"
	EmergencyDispatched = "dispatched"
	EmergencyResolved   = "resolved"
	EmergencyCancelled  = "cancelled"
)

// EmergencyTypes lists the roadside problems a requester can report.
var EmergencyTypes = []string{
	"breakdown", "flat_tire", "battery", "fuel", "accident", "towing", "lockout", "other",
}

// Provider is a roadside assistance provider with a fixed base and coverage radius.
type Provider struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Phone         string             `bson:"phone" json:"phone"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`
	Address       string             `bson:"address,omitempty" json:"address,omitempty"`
	Location      *Location          `bson:"location,omitempty" json:"location,omitempty"`
	ServiceRadius float64            `bson:"service_radius" json:"service_radius"` // km
	ServiceTypes  []string           `bson:"service_types,omitempty" json:"service_types,omitempty"`
	ServiceAreas  []string           `bson:"service_areas,omitempty" json:"service_areas,omitempty"`
	IsActive      bool               `bson:"is_active" json:"is_active"`
	IsVerified    bool               `bson:"is_verified" json:"is_verified"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// ProviderRequest is the create body for a provider.
type ProviderRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Phone         string   `json:"phone" validate:"required,iranian_phone"`
	Email         string   `json:"email" validate:"omitempty,email"`
	Address       string   `json:"address" validate:"max=200"`
	Latitude      float64  `json:"latitude" validate:"latitude"`
	Longitude     float64  `json:"longitude" validate:"longitude"`
	ServiceRadius float64  `json:"service_radius" validate:"gt=0,lte=500"`
	ServiceTypes  []string `json:"service_types"`
	ServiceAreas  []string `json:"service_areas"`
}

// ProviderMatch is a provider annotated with its distance from a requester.
type ProviderMatch struct {
	Provider
	DistanceKm float64 `json:"distance_km"`
}

// EmergencyRequest is a roadside assistance call.
type EmergencyRequest struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           string             `bson:"user_id" json:"user_id"`
	Name             string             `bson:"name" json:"name"`
	Phone            string             `bson:"phone" json:"phone"`
	VehicleID        string             `bson:"vehicle_id,omitempty" json:"vehicle_id,omitempty"`
	LicensePlate     string             `bson:"license_plate" json:"license_plate"`
	Location         Location           `bson:"location" json:"location"`
	Address          string             `bson:"address,omitempty" json:"address,omitempty"`
	EmergencyType    string             `bson:"emergency_type" json:"emergency_type"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	Priority         string             `bson:"priority" json:"priority"`
	Status           string             `bson:"status" json:"status"`
	SearchRadius     float64            `bson:"search_radius" json:"search_radius"`
	MatchedProviders []string           `bson:"matched_providers,omitempty" json:"matched_providers,omitempty"`
	AssignedTo       string             `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	ResponseTime     *int               `bson:"response_time,omitempty" json:"response_time,omitempty"` // seconds
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// EmergencyRequestCreate is the SOS body.
type EmergencyRequestCreate struct {
	Name          string  `json:"name" validate:"required,max=100"`
	Phone         string  `json:"phone" validate:"required,iranian_phone"`
	VehicleID     string  `json:"vehicle_id"`
	LicensePlate  string  `json:"license_plate" validate:"required,iranian_plate"`
	Latitude      float64 `json:"latitude" validate:"latitude"`
	Longitude     float64 `json:"longitude" validate:"longitude"`
	Address       string  `json:"address" validate:"max=200"`
	EmergencyType string  `json:"emergency_type" validate:"required,emergency_type"`
	Description   string  `json:"description" validate:"max=1000"`
	Priority      string  `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Radius        float64 `json:"radius" validate:"gte=0,lte=500"`
}

// EmergencyRequestUpdate changes the status or assignment of a request.
type EmergencyRequestUpdate struct {
	Status     string `json:"status" validate:"omitempty,oneof=pending dispatched resolved cancelled"`
	AssignedTo string `json:"assigned_to"`
	Priority   string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
}

// SOSResponse returns the stored request with the providers that can reach it.
type SOSResponse struct {
	Request   EmergencyRequest `json:"request"`
	Providers []ProviderMatch  `json:"providers"`
}
