package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/auth"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/ukydev/mashinman/internal/validation"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	base
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, v *validation.Validator, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		base:           base{validator: v, log: log},
		authService:    authService,
		userCollection: userCollection,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userCollection.FindUserByPhone(r.Context(), validation.NormalizePhone(req.Phone))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			err = auth.ErrInvalidCredentials
		}
		h.fail(w, r, err)
		return
	}

	if !h.authService.CheckPassword(req.Password, user.PasswordHash) {
		h.fail(w, r, auth.ErrInvalidCredentials)
		return
	}
	if !user.IsActive {
		h.fail(w, r, auth.ErrUserInactive)
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		h.log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}

	writeJSON(w, http.StatusOK, resp)
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.authService.ValidatePassword(req.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	phone, err := validation.ValidatePhone(req.Phone)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_, err = h.userCollection.FindUserByPhone(r.Context(), phone)
	switch {
	case err == nil:
		h.fail(w, r, db.ErrDuplicate)
		return
	case !errors.Is(err, db.ErrNotFound):
		h.fail(w, r, err)
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user := &models.User{
		Name:              validation.Sanitize(req.Name),
		Phone:             phone,
		Email:             req.Email,
		PasswordHash:      passwordHash,
		Role:              models.RoleUser,
		City:              validation.Sanitize(req.City),
		IsActive:          true,
		SMSNotifications:  true,
		PushNotifications: true,
	}
	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.log.WithField("user_id", user.ID.Hex()).Info("User registered")
	writeJSON(w, http.StatusCreated, resp)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	claims, err := h.authService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			err = auth.ErrInvalidToken
		}
		h.fail(w, r, err)
		return
	}
	if !user.IsActive {
		h.fail(w, r, auth.ErrUserInactive)
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) issueTokens(user *models.User) (*models.LoginResponse, error) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := h.authService.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, RefreshToken: refreshToken, User: *user}, nil
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.ProfileUpdateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if req.Name != nil {
		user.Name = validation.Sanitize(*req.Name)
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.City != nil {
		user.City = validation.Sanitize(*req.City)
	}
	if req.SMSNotifications != nil {
		user.SMSNotifications = *req.SMSNotifications
	}
	if req.PushNotifications != nil {
		user.PushNotifications = *req.PushNotifications
	}
	if req.EmergencyContactName != nil {
		user.EmergencyContactName = validation.Sanitize(*req.EmergencyContactName)
	}
	if req.EmergencyContactPhone != nil {
		user.EmergencyContactPhone = validation.NormalizePhone(*req.EmergencyContactPhone)
	}

	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.ChangePasswordRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.authService.ValidatePassword(req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if !h.authService.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		h.fail(w, r, auth.ErrInvalidCredentials)
		return
	}

	newPasswordHash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, "رمز عبور با موفقیت تغییر کرد.")
}
