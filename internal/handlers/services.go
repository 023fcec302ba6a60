package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/metrics"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/ukydev/mashinman/internal/validation"
)

// DefaultUpcomingDays is the window of the upcoming services listing.
const DefaultUpcomingDays = 30

// ServiceHandler serves scheduled maintenance endpoints.
type ServiceHandler struct {
	base
	services db.ServiceCollection
	vehicles db.VehicleCollection
	history  db.HistoryCollection
	engine   *maintenance.Engine
	metrics  *metrics.Metrics
}

// NewServiceHandler returns a ServiceHandler.
func NewServiceHandler(services db.ServiceCollection, vehicles db.VehicleCollection, history db.HistoryCollection,
	engine *maintenance.Engine, m *metrics.Metrics, v *validation.Validator, log *logrus.Logger) *ServiceHandler {
	return &ServiceHandler{
		base:     base{validator: v, log: log},
		services: services,
		vehicles: vehicles,
		history:  history,
		engine:   engine,
		metrics:  m,
	}
}

// respond renders svc with its urgency assessment against currentMileage.
func (h *ServiceHandler) respond(svc models.Service, currentMileage int) models.ServiceResponse {
	a := h.engine.Evaluate(svc, currentMileage)
	h.metrics.ObserveUrgency(string(a.Urgency))

	return models.ServiceResponse{
		Service:         svc,
		LastServiceDate: jalali.FormatOptional(svc.LastServiceDate),
		NextServiceDate: jalali.FormatOptional(a.NextServiceDate),
		CompletedAt:     jalali.FormatOptional(svc.CompletedAt),
		Urgency:         string(a.Urgency),
		DaysRatio:       a.Ratios.Days,
		MileageRatio:    a.Ratios.Mileage,
		DaysRemaining:   a.DaysRemaining,
		KmRemaining:     a.KmRemaining,
	}
}

// respondAll renders services, loading each vehicle's mileage once.
func (h *ServiceHandler) respondAll(ctx context.Context, services []models.Service) ([]models.ServiceResponse, error) {
	mileage := make(map[string]int)
	out := make([]models.ServiceResponse, 0, len(services))
	for _, svc := range services {
		km, ok := mileage[svc.VehicleID]
		if !ok {
			v, err := h.vehicles.FindVehicleByID(ctx, svc.VehicleID)
			if err != nil {
				return nil, fmt.Errorf("load vehicle %s: %w", svc.VehicleID, err)
			}
			km = v.CurrentMileage
			mileage[svc.VehicleID] = km
		}
		out = append(out, h.respond(svc, km))
	}
	return out, nil
}

// ownedService loads a service and checks that the caller may act on it.
func (h *ServiceHandler) ownedService(ctx context.Context, claims *models.Claims, id string) (*models.Service, error) {
	svc, err := h.services.FindServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(claims, svc.UserID) {
		return nil, errForbidden
	}
	return svc, nil
}

// applyServiceRequest copies a validated request onto svc and schedules it.
// odometer is the owning vehicle's current mileage.
func (h *ServiceHandler) applyServiceRequest(svc *models.Service, req models.ServiceRequest, odometer int) error {
	if err := maintenance.ValidateBaselineMileage(req.LastServiceMileage, odometer); err != nil {
		return err
	}
	lastDate, err := jalali.ParseOptional(req.LastServiceDate)
	if err != nil {
		return err
	}
	nextDate, err := jalali.ParseOptional(req.NextServiceDate)
	if err != nil {
		return err
	}

	svc.VehicleID = req.VehicleID
	svc.Type = req.Type
	svc.Name = validation.Sanitize(req.Name)
	svc.Description = validation.Sanitize(req.Description)
	svc.IntervalDays = req.IntervalDays
	svc.IntervalMileage = req.IntervalMileage
	svc.LastServiceDate = lastDate
	svc.LastServiceMileage = req.LastServiceMileage
	svc.Cost = req.Cost
	svc.ServiceCenter = validation.Sanitize(req.ServiceCenter)
	svc.Notes = validation.Sanitize(req.Notes)
	svc.Priority = req.Priority
	if svc.Priority == "" {
		svc.Priority = models.PriorityMedium
	}

	svc.NextServiceDate = nil
	maintenance.Schedule(svc, h.engine.Policy())
	if nextDate != nil {
		svc.NextServiceDate = nextDate
	}
	return nil
}

// Create schedules a new service on one of the caller's vehicles.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.ServiceRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	v, err := ownedVehicle(r.Context(), h.vehicles, claims, req.VehicleID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	svc := &models.Service{UserID: v.UserID, Status: models.StatusPending}
	if err := h.applyServiceRequest(svc, req, v.CurrentMileage); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.services.InsertService(r.Context(), svc); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.respond(*svc, v.CurrentMileage))
}

// List returns the caller's services, optionally by vehicle and completion.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	completed, err := queryBool(r, "is_completed")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filter := db.ServiceFilter{
		UserID:    claims.UserID,
		VehicleID: r.URL.Query().Get("vehicle_id"),
		Type:      r.URL.Query().Get("type"),
		Completed: completed,
	}
	h.list(w, r, filter, false)
}

// Upcoming returns open services falling due within the next days (default 30).
func (h *ServiceHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	days, err := queryInt(r, "days", DefaultUpcomingDays)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if days < 0 || days > 365 {
		h.fail(w, r, fmt.Errorf("%w: days must be between 0 and 365", errBadRequest))
		return
	}

	open := false
	today := h.engine.Today()
	until := today.AddDate(0, 0, days)
	filter := db.ServiceFilter{
		UserID:    claims.UserID,
		VehicleID: r.URL.Query().Get("vehicle_id"),
		Completed: &open,
		DueFrom:   &today,
		DueTo:     &until,
	}
	h.list(w, r, filter, true)
}

func (h *ServiceHandler) list(w http.ResponseWriter, r *http.Request, filter db.ServiceFilter, byDueDate bool) {
	services, err := h.services.FindServices(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if byDueDate {
		sort.SliceStable(services, func(i, j int) bool {
			a, b := services[i].NextServiceDate, services[j].NextServiceDate
			return a != nil && (b == nil || a.Before(*b))
		})
	}

	out, err := h.respondAll(r.Context(), services)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one service with its urgency assessment.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	svc, err := h.ownedService(r.Context(), claims, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.respondAll(r.Context(), []models.Service{*svc})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out[0])
}

// Update replaces a service's details and reschedules it. Status is changed
// through the status and complete endpoints only.
func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := r.PathValue("id")
	svc, err := h.ownedService(r.Context(), claims, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if svc.Status == models.StatusCompleted {
		h.fail(w, r, fmt.Errorf("%w: completed services keep their recorded baseline", maintenance.ErrServiceAlreadyCompleted))
		return
	}

	var req models.ServiceRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	v, err := ownedVehicle(r.Context(), h.vehicles, claims, req.VehicleID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.applyServiceRequest(svc, req, v.CurrentMileage); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.services.UpdateService(r.Context(), id, *svc); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.respond(*svc, v.CurrentMileage))
}

// UpdateStatus moves a service through its lifecycle.
func (h *ServiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := r.PathValue("id")
	svc, err := h.ownedService(r.Context(), claims, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.StatusRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := maintenance.Transition(svc, req.Status); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.services.UpdateService(r.Context(), id, *svc); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.respondAll(r.Context(), []models.Service{*svc})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out[0])
}

// Complete marks a service done, records a history entry and raises the
// vehicle's odometer when the service mileage is higher. The vehicle is
// written first and the service last, so a failed request leaves the service
// open and a retry converges.
func (h *ServiceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := r.PathValue("id")
	svc, err := h.ownedService(r.Context(), claims, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.CompleteRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	v, err := h.vehicles.FindVehicleByID(r.Context(), svc.VehicleID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	date := h.engine.Today()
	if req.Date != "" {
		if date, err = jalali.ToGregorian(req.Date); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	mileage := req.Mileage
	if mileage == 0 {
		mileage = v.CurrentMileage
	}
	if err := maintenance.ValidateMileage(mileage); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := maintenance.Complete(svc, date, mileage, h.engine.Policy()); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Cost > 0 {
		svc.Cost = req.Cost
	}
	if req.Notes != "" {
		svc.Notes = validation.Sanitize(req.Notes)
	}

	if err := raiseVehicleBaseline(r.Context(), h.vehicles, v, *svc.LastServiceDate, mileage); err != nil {
		h.fail(w, r, err)
		return
	}

	entry := &models.ServiceHistory{
		ServiceID:     id,
		VehicleID:     svc.VehicleID,
		UserID:        svc.UserID,
		ServiceType:   svc.Type,
		ServiceDate:   *svc.LastServiceDate,
		Mileage:       mileage,
		LaborCost:     svc.Cost,
		TotalCost:     svc.Cost,
		ServiceCenter: svc.ServiceCenter,
		Notes:         svc.Notes,
	}
	if err := h.history.InsertHistory(r.Context(), entry); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.services.UpdateService(r.Context(), id, *svc); err != nil {
		if derr := h.history.DeleteHistory(r.Context(), entry.ID.Hex()); derr != nil {
			h.log.WithError(derr).WithField("history_id", entry.ID.Hex()).Warn("Failed to roll back service history")
		}
		h.fail(w, r, err)
		return
	}
	h.metrics.ObserveCompletion()

	writeJSON(w, http.StatusOK, h.respond(*svc, v.CurrentMileage))
}

// Delete removes a service.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := r.PathValue("id")
	if _, err := h.ownedService(r.Context(), claims, id); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.services.DeleteService(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Types lists the service types and their standard mileage intervals.
func (h *ServiceHandler) Types(w http.ResponseWriter, r *http.Request) {
	p := h.engine.Policy()
	writeJSON(w, http.StatusOK, map[string]any{
		"types":            p.Types(),
		"intervals":        p.Intervals(),
		"default_interval": p.DefaultInterval,
	})
}

// raiseVehicleBaseline records a completed service on the vehicle. The
// odometer only moves forward; the last service date only moves later.
func raiseVehicleBaseline(ctx context.Context, vehicles db.VehicleCollection, v *models.Vehicle, date time.Time, mileage int) error {
	changed := false
	if mileage > v.CurrentMileage {
		v.CurrentMileage = mileage
		changed = true
	}
	if v.LastServiceDate == nil || date.After(*v.LastServiceDate) {
		d := date
		v.LastServiceDate = &d
		km := mileage
		v.LastServiceMileage = &km
		changed = true
	}
	if !changed {
		return nil
	}
	return vehicles.UpdateVehicle(ctx, v.ID.Hex(), *v)
}
