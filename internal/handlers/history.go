package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/metrics"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/ukydev/mashinman/internal/validation"
)

// HistoryHandler serves the service history endpoints.
type HistoryHandler struct {
	base
	history  db.HistoryCollection
	services db.ServiceCollection
	vehicles db.VehicleCollection
	policy   maintenance.Policy
	metrics  *metrics.Metrics
}

// NewHistoryHandler returns a HistoryHandler.
func NewHistoryHandler(history db.HistoryCollection, services db.ServiceCollection, vehicles db.VehicleCollection,
	policy maintenance.Policy, m *metrics.Metrics, v *validation.Validator, log *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{
		base:     base{validator: v, log: log},
		history:  history,
		services: services,
		vehicles: vehicles,
		policy:   policy,
		metrics:  m,
	}
}

func historyResponse(h models.ServiceHistory) models.HistoryResponse {
	return models.HistoryResponse{ServiceHistory: h, ServiceDate: jalali.FromTime(h.ServiceDate)}
}

// Create records work done on a vehicle. When the entry names a scheduled
// service, that service is completed with the entry's date and mileage.
func (h *HistoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.HistoryRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	v, err := ownedVehicle(r.Context(), h.vehicles, claims, req.VehicleID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	date, err := jalali.ToGregorian(req.ServiceDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := maintenance.ValidateMileage(req.Mileage); err != nil {
		h.fail(w, r, err)
		return
	}

	entry := &models.ServiceHistory{
		ServiceID:     req.ServiceID,
		VehicleID:     req.VehicleID,
		UserID:        v.UserID,
		ServiceDate:   date,
		Mileage:       req.Mileage,
		Parts:         req.Parts,
		PartsCost:     models.PartsTotal(req.Parts),
		LaborCost:     req.LaborCost,
		ServiceCenter: validation.Sanitize(req.ServiceCenter),
		Notes:         validation.Sanitize(req.Notes),
	}
	entry.TotalCost = entry.PartsCost + entry.LaborCost

	var svc *models.Service
	if req.ServiceID != "" {
		svc, err = h.services.FindServiceByID(r.Context(), req.ServiceID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if svc.VehicleID != req.VehicleID || !owns(claims, svc.UserID) {
			h.fail(w, r, errForbidden)
			return
		}
		if err := maintenance.Complete(svc, date, req.Mileage, h.policy); err != nil {
			h.fail(w, r, err)
			return
		}
		svc.Cost = entry.TotalCost
		if entry.ServiceCenter != "" {
			svc.ServiceCenter = entry.ServiceCenter
		}
		entry.ServiceType = svc.Type
	}

	// Same write order as ServiceHandler.Complete.
	if err := raiseVehicleBaseline(r.Context(), h.vehicles, v, date, req.Mileage); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.history.InsertHistory(r.Context(), entry); err != nil {
		h.fail(w, r, err)
		return
	}
	if svc != nil {
		if err := h.services.UpdateService(r.Context(), req.ServiceID, *svc); err != nil {
			if derr := h.history.DeleteHistory(r.Context(), entry.ID.Hex()); derr != nil {
				h.log.WithError(derr).WithField("history_id", entry.ID.Hex()).Warn("Failed to roll back service history")
			}
			h.fail(w, r, err)
			return
		}
		h.metrics.ObserveCompletion()
	}

	writeJSON(w, http.StatusCreated, historyResponse(*entry))
}

// List returns the caller's history, optionally by vehicle or service.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entries, err := h.history.FindHistory(r.Context(), db.HistoryFilter{
		UserID:    claims.UserID,
		VehicleID: r.URL.Query().Get("vehicle_id"),
		ServiceID: r.URL.Query().Get("service_id"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]models.HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one history entry.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.history.FindHistoryByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !owns(claims, entry.UserID) {
		h.fail(w, r, errForbidden)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse(*entry))
}

// Delete removes a history entry. The linked service is left as it is.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := r.PathValue("id")
	entry, err := h.history.FindHistoryByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !owns(claims, entry.UserID) {
		h.fail(w, r, errForbidden)
		return
	}
	if err := h.history.DeleteHistory(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
