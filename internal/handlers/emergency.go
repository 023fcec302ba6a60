package handlers

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/emergency"
	"github.com/ukydev/mashinman/internal/metrics"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/ukydev/mashinman/internal/notify"
	"github.com/ukydev/mashinman/internal/validation"
	"github.com/zoobzio/clockz"
)

// EmergencyHandler serves SOS requests and the provider directory.
type EmergencyHandler struct {
	base
	requests  db.EmergencyRequestCollection
	providers db.ProviderCollection
	vehicles  db.VehicleCollection
	publisher notify.Publisher
	metrics   *metrics.Metrics
	clock     clockz.Clock
}

// NewEmergencyHandler returns an EmergencyHandler. A nil clock uses the real clock.
func NewEmergencyHandler(requests db.EmergencyRequestCollection, providers db.ProviderCollection, vehicles db.VehicleCollection,
	publisher notify.Publisher, m *metrics.Metrics, clock clockz.Clock, v *validation.Validator, log *logrus.Logger) *EmergencyHandler {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &EmergencyHandler{
		base:      base{validator: v, log: log},
		requests:  requests,
		providers: providers,
		vehicles:  vehicles,
		publisher: publisher,
		metrics:   m,
		clock:     clock,
	}
}

// SOSEvent is published for every stored SOS request.
type SOSEvent struct {
	RequestID     string          `json:"request_id"`
	EmergencyType string          `json:"emergency_type"`
	Priority      string          `json:"priority"`
	Phone         string          `json:"phone"`
	LicensePlate  string          `json:"license_plate"`
	Location      models.Location `json:"location"`
	Address       string          `json:"address,omitempty"`
	ProviderIDs   []string        `json:"provider_ids"`
}

// SOS stores a roadside request, matches the providers that can reach it
// nearest first, and notifies the dispatch topic.
func (h *EmergencyHandler) SOS(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.EmergencyRequestCreate
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	phone, err := validation.ValidatePhone(req.Phone)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	plate, err := validation.ValidateLicensePlate(req.LicensePlate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.VehicleID != "" {
		if _, err := ownedVehicle(r.Context(), h.vehicles, claims, req.VehicleID); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	origin := models.Location{Lat: req.Latitude, Lon: req.Longitude}
	radius := emergency.SearchRadius(req.Radius)

	providers, err := h.providers.FindProviders(r.Context(), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	matches := emergency.FindNearby(origin, radius, providers)
	emergency.SortByDistance(matches)
	h.metrics.ObserveMatch(req.EmergencyType, len(matches))

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityHigh
	}
	sos := &models.EmergencyRequest{
		UserID:           claims.UserID,
		Name:             validation.Sanitize(req.Name),
		Phone:            phone,
		VehicleID:        req.VehicleID,
		LicensePlate:     plate,
		Location:         origin,
		Address:          validation.Sanitize(req.Address),
		EmergencyType:    req.EmergencyType,
		Description:      validation.Sanitize(req.Description),
		Priority:         priority,
		Status:           models.EmergencyPending,
		SearchRadius:     radius,
		MatchedProviders: emergency.ProviderIDs(matches),
	}
	if err := h.requests.InsertRequest(r.Context(), sos); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errEmergencySave, err))
		return
	}

	event := SOSEvent{
		RequestID:     sos.ID.Hex(),
		EmergencyType: sos.EmergencyType,
		Priority:      sos.Priority,
		Phone:         sos.Phone,
		LicensePlate:  sos.LicensePlate,
		Location:      sos.Location,
		Address:       sos.Address,
		ProviderIDs:   sos.MatchedProviders,
	}
	if err := h.publisher.Publish(r.Context(), notify.TopicEmergencyRequests, event); err != nil {
		h.log.WithError(err).WithField("request_id", event.RequestID).Warn("Failed to publish SOS event")
	}

	h.log.WithFields(logrus.Fields{
		"request_id": event.RequestID,
		"type":       sos.EmergencyType,
		"matched":    len(matches),
	}).Info("SOS request stored")
	writeJSON(w, http.StatusCreated, models.SOSResponse{Request: *sos, Providers: matches})
}

// ListRequests returns the caller's SOS requests. Staff may pass all=true to
// see every request.
func (h *EmergencyHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	all, err := queryBool(r, "all")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filter := db.EmergencyFilter{UserID: claims.UserID, Status: r.URL.Query().Get("status")}
	if all != nil && *all {
		if !models.RoleAllows(claims.Role, models.ActionViewAllRequests) {
			h.fail(w, r, errForbidden)
			return
		}
		filter.UserID = ""
	}

	requests, err := h.requests.FindRequests(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// GetRequest returns one SOS request.
func (h *EmergencyHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, err := h.requests.FindRequestByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.UserID != claims.UserID && !models.RoleAllows(claims.Role, models.ActionViewAllRequests) {
		h.fail(w, r, errForbidden)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// UpdateRequest changes the status, priority or assigned provider of a request.
// The first dispatch records the response time.
func (h *EmergencyHandler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sos, err := h.requests.FindRequestByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.EmergencyRequestUpdate
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if req.AssignedTo != "" {
		if _, err := h.providers.FindProviderByID(r.Context(), req.AssignedTo); err != nil {
			h.fail(w, r, err)
			return
		}
		sos.AssignedTo = req.AssignedTo
	}
	if req.Priority != "" {
		sos.Priority = req.Priority
	}
	if req.Status != "" {
		if req.Status == models.EmergencyDispatched && sos.ResponseTime == nil {
			secs := int(h.clock.Since(sos.CreatedAt).Seconds())
			sos.ResponseTime = &secs
		}
		sos.Status = req.Status
	}

	if err := h.requests.UpdateRequest(r.Context(), id, *sos); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sos)
}

// CreateProvider adds a roadside provider to the directory.
func (h *EmergencyHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var req models.ProviderRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	phone, err := validation.ValidatePhone(req.Phone)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p := &models.Provider{
		Name:          validation.Sanitize(req.Name),
		Phone:         phone,
		Email:         req.Email,
		Address:       validation.Sanitize(req.Address),
		Location:      &models.Location{Lat: req.Latitude, Lon: req.Longitude},
		ServiceRadius: req.ServiceRadius,
		ServiceTypes:  req.ServiceTypes,
		ServiceAreas:  req.ServiceAreas,
		IsActive:      true,
	}
	if err := h.providers.InsertProvider(r.Context(), p); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListProviders returns active providers, optionally offering service_type.
// With lat and lon it returns only those reaching that point, nearest first.
func (h *EmergencyHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	radius, err := queryFloat(r, "radius")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if (lat == nil) != (lon == nil) {
		h.fail(w, r, fmt.Errorf("%w: lat and lon must be given together", errBadRequest))
		return
	}

	providers, err := h.providers.FindProviders(r.Context(), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	providers = emergency.FilterByServiceType(providers, r.URL.Query().Get("service_type"))

	if lat == nil {
		writeJSON(w, http.StatusOK, providers)
		return
	}

	radiusKm := 0.0
	if radius != nil {
		radiusKm = *radius
	}
	matches := emergency.FindNearby(models.Location{Lat: *lat, Lon: *lon}, emergency.SearchRadius(radiusKm), providers)
	emergency.SortByDistance(matches)
	writeJSON(w, http.StatusOK, matches)
}

// GetProvider returns one provider.
func (h *EmergencyHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	p, err := h.providers.FindProviderByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
