// Package handlers implements the HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/apierr"
	"github.com/ukydev/mashinman/internal/auth"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/middleware"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/ukydev/mashinman/internal/validation"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequest    = errors.New("bad request")
	errForbidden     = errors.New("forbidden")
	errUnauthorized  = errors.New("not authenticated")
	errEmergencySave = errors.New("emergency request not stored")
)

// base carries what every handler needs to decode, validate and fail.
type base struct {
	validator *validation.Validator
	log       *logrus.Logger
}

// decode reads a JSON body into dst and validates it.
func (b base) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return b.validator.Validate(dst)
}

// fail maps err to a status and error code and writes the error envelope.
// Unexpected errors are logged and reported as 500.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	if fields := validation.FieldErrors(err); fields != nil {
		apierr.Write(w, http.StatusUnprocessableEntity, apierr.CodeValidation, fields)
		return
	}

	status, code := classify(err)
	if status == http.StatusInternalServerError {
		b.log.WithFields(logrus.Fields{
			"request_id": middleware.RequestID(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("Request failed")
	}

	var errs any
	if status == http.StatusBadRequest && code == apierr.CodeValidation {
		errs = err.Error()
	}
	apierr.Write(w, status, code, errs)
}

func classify(err error) (int, apierr.Code) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, apierr.CodeBadRequest
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, apierr.CodeValidation
	case errors.Is(err, jalali.ErrInvalidDate):
		return http.StatusBadRequest, apierr.CodeInvalidDate
	case errors.Is(err, maintenance.ErrInvalidMileage):
		return http.StatusBadRequest, apierr.CodeInvalidMileage
	case errors.Is(err, validation.ErrInvalidLicensePlate):
		return http.StatusBadRequest, apierr.CodeInvalidLicensePlate
	case errors.Is(err, validation.ErrInvalidPhone):
		return http.StatusBadRequest, apierr.CodeInvalidPhone
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, apierr.CodeNotAuthenticated
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserInactive),
		errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, apierr.CodeAuthenticationFailed
	case errors.Is(err, errForbidden):
		return http.StatusForbidden, apierr.CodePermissionDenied
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrInvalidID):
		return http.StatusNotFound, apierr.CodeNotFound
	case errors.Is(err, maintenance.ErrServiceAlreadyCompleted):
		return http.StatusConflict, apierr.CodeServiceCompleted
	case errors.Is(err, maintenance.ErrInvalidTransition):
		return http.StatusConflict, apierr.CodeInvalidTransition
	case errors.Is(err, db.ErrDuplicate):
		return http.StatusConflict, apierr.CodeConflict
	case errors.Is(err, errEmergencySave):
		return http.StatusInternalServerError, apierr.CodeEmergencyFailed
	default:
		return http.StatusInternalServerError, apierr.CodeServerError
	}
}

// claimsFrom returns the authenticated caller.
func claimsFrom(r *http.Request) (*models.Claims, error) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return nil, errUnauthorized
	}
	return claims, nil
}

// owns reports whether the caller may act on a resource owned by userID.
func owns(claims *models.Claims, userID string) bool {
	return claims.Role == models.RoleAdmin || claims.UserID == userID
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, key)
	}
	return n, nil
}

func queryFloat(r *http.Request, key string) (*float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return &f, nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", errBadRequest, key)
	}
	return &b, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	apierr.WriteJSON(w, status, v)
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
