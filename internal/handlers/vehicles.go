package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/mashinman/internal/db"
	"github.com/ukydev/mashinman/internal/jalali"
	"github.com/ukydev/mashinman/internal/maintenance"
	"github.com/ukydev/mashinman/internal/models"
	"github.com/ukydev/mashinman/internal/validation"
)

// VehicleHandler serves the vehicle endpoints.
type VehicleHandler struct {
	base
	vehicles db.VehicleCollection
	services db.ServiceCollection
}

// NewVehicleHandler returns a VehicleHandler.
func NewVehicleHandler(vehicles db.VehicleCollection, services db.ServiceCollection, v *validation.Validator, log *logrus.Logger) *VehicleHandler {
	return &VehicleHandler{
		base:     base{validator: v, log: log},
		vehicles: vehicles,
		services: services,
	}
}

func vehicleResponse(v models.Vehicle) models.VehicleResponse {
	return models.VehicleResponse{Vehicle: v, LastServiceDate: jalali.FormatOptional(v.LastServiceDate)}
}

// ownedVehicle loads a vehicle and checks that the caller may act on it.
func ownedVehicle(ctx context.Context, vehicles db.VehicleCollection, claims *models.Claims, id string) (*models.Vehicle, error) {
	v, err := vehicles.FindVehicleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(claims, v.UserID) {
		return nil, errForbidden
	}
	return v, nil
}

// checkPlateFree fails with db.ErrDuplicate when plate belongs to a vehicle other than exceptID.
func (h *VehicleHandler) checkPlateFree(ctx context.Context, plate, exceptID string) error {
	existing, err := h.vehicles.FindVehicleByPlate(ctx, plate)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID.Hex() != exceptID:
		return db.ErrDuplicate
	}
	return nil
}

// applyVehicleRequest copies a validated request onto v.
func applyVehicleRequest(v *models.Vehicle, req models.VehicleRequest) error {
	plate, err := validation.ValidateLicensePlate(req.LicensePlate)
	if err != nil {
		return err
	}
	if err := maintenance.ValidateMileage(req.CurrentMileage); err != nil {
		return err
	}
	if req.LastServiceMileage != nil {
		if err := maintenance.ValidateBaselineMileage(*req.LastServiceMileage, req.CurrentMileage); err != nil {
			return err
		}
	}
	lastDate, err := jalali.ParseOptional(req.LastServiceDate)
	if err != nil {
		return err
	}

	v.LicensePlate = plate
	v.Brand = req.Brand
	v.Model = validation.Sanitize(req.Model)
	v.ManufactureYear = req.ManufactureYear
	v.Color = validation.Sanitize(req.Color)
	v.CurrentMileage = req.CurrentMileage
	v.LastServiceDate = lastDate
	v.LastServiceMileage = req.LastServiceMileage
	return nil
}

// Create registers a vehicle for the caller.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.VehicleRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	v := &models.Vehicle{UserID: claims.UserID}
	if err := applyVehicleRequest(v, req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.checkPlateFree(r.Context(), v.LicensePlate, ""); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.vehicles.InsertVehicle(r.Context(), v); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicleResponse(*v))
}

// List returns the caller's vehicles.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	vehicles, err := h.vehicles.FindVehicles(r.Context(), claims.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]models.VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, vehicleResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one vehicle.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	v, err := ownedVehicle(r.Context(), h.vehicles, claims, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicleResponse(*v))
}

// Update replaces a vehicle's details. The odometer may not go backwards.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := r.PathValue("id")
	v, err := ownedVehicle(r.Context(), h.vehicles, claims, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.VehicleRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := maintenance.ValidateMileageUpdate(v.CurrentMileage, req.CurrentMileage); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := applyVehicleRequest(v, req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.checkPlateFree(r.Context(), v.LicensePlate, id); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.vehicles.UpdateVehicle(r.Context(), id, *v); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicleResponse(*v))
}

// UpdateMileage records a new odometer reading.
func (h *VehicleHandler) UpdateMileage(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := r.PathValue("id")
	v, err := ownedVehicle(r.Context(), h.vehicles, claims, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.MileageRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := maintenance.ValidateMileageUpdate(v.CurrentMileage, req.CurrentMileage); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.vehicles.UpdateMileage(r.Context(), id, req.CurrentMileage); err != nil {
		h.fail(w, r, err)
		return
	}
	v.CurrentMileage = req.CurrentMileage
	writeJSON(w, http.StatusOK, vehicleResponse(*v))
}

// Delete removes a vehicle and its scheduled services.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFrom(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := r.PathValue("id")
	if _, err := ownedVehicle(r.Context(), h.vehicles, claims, id); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.services.DeleteServicesByVehicle(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.vehicles.DeleteVehicle(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Brands lists the known car brands.
func (h *VehicleHandler) Brands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"brands": validation.Brands()})
}
