package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProvider Role = "provider"
	RoleUser     Role = "user"
)

// Permission actions checked by the middleware.
const (
	ActionManageUsers     = "manage_users"
	ActionManageProviders = "manage_providers"
	ActionViewAllRequests = "view_all_requests"
	ActionUpdateRequests  = "update_emergency_requests"
	ActionManageVehicles  = "manage_vehicles"
	ActionManageServices  = "manage_services"
	ActionRequestHelp     = "request_emergency"
)

// User represents a vehicle owner or staff member.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone" json:"phone"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	IsVerified   bool               `bson:"is_verified" json:"is_verified"`

	SMSNotifications  bool `bson:"sms_notifications" json:"sms_notifications"`
	PushNotifications bool `bson:"push_notifications" json:"push_notifications"`

	EmergencyContactName  string `bson:"emergency_contact_name,omitempty" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string `bson:"emergency_contact_phone,omitempty" json:"emergency_contact_phone,omitempty"`

	LastLogin *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,iranian_phone"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
	City     string `json:"city" validate:"max=50"`
}

// ProfileUpdateRequest changes the editable profile fields. Nil fields are left as is.
type ProfileUpdateRequest struct {
	Name                  *string `json:"name" validate:"omitempty,max=100"`
	Email                 *string `json:"email" validate:"omitempty,email"`
	City                  *string `json:"city" validate:"omitempty,max=50"`
	SMSNotifications      *bool   `json:"sms_notifications"`
	PushNotifications     *bool   `json:"push_notifications"`
	EmergencyContactName  *string `json:"emergency_contact_name" validate:"omitempty,max=100"`
	EmergencyContactPhone *string `json:"emergency_contact_phone" validate:"omitempty,iranian_phone"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Phone  string `json:"phone"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleProvider, RoleUser:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	return RoleAllows(u.Role, action)
}

// RoleAllows reports whether role may perform action.
func RoleAllows(role Role, action string) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleProvider:
		return action == ActionViewAllRequests || action == ActionUpdateRequests ||
			action == ActionManageVehicles || action == ActionManageServices ||
			action == ActionRequestHelp
	case RoleUser:
		return action == ActionManageVehicles || action == ActionManageServices ||
			action == ActionRequestHelp
	default:
		return false
	}
}
