package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ecarfleet/fleet-api/internal/model"
	"github.com/ecarfleet/fleet-api/internal/repository"
)

type vehicleReq struct {
	RegistrationNo     string          `json:"registration_no"`
	Make               string          `json:"make"`
	Model              string          `json:"model"`
	Year               int             `json:"year"`
	BatteryCapacityKwh decimal.Decimal `json:"battery_capacity_kwh"`
	VIN                *string         `json:"vin"`
	Color              *string         `json:"color"`
	Status             string          `json:"status"`
	AssignedDriverID   *uint64         `json:"assigned_driver_id"`
	Notes              *string         `json:"notes"`
}

func (r *vehicleReq) validate() string {
	r.RegistrationNo = strings.ToUpper(strings.TrimSpace(r.RegistrationNo))
	r.Make = strings.TrimSpace(r.Make)
	r.Model = strings.TrimSpace(r.Model)
	if r.RegistrationNo == "" || r.Make == "" || r.Model == "" {
		return "registration_no, make and model are required"
	}
	if r.Year < 1990 || r.Year > 2100 {
		return "year is out of range"
	}
	if r.BatteryCapacityKwh.LessThanOrEqual(decimal.Zero) {
		return "battery_capacity_kwh must be positive"
	}
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	if r.Status == "" {
		r.Status = model.VehicleActive
	}
	switch r.Status {
	case model.VehicleActive, model.VehicleMaintenance, model.VehicleRetired:
	default:
		return "invalid status"
	}
	return ""
}

// CreateVehicle handles POST /v1/vehicles.
func (h *FleetHandler) CreateVehicle(c echo.Context) error {
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()

	if req.AssignedDriverID != nil {
		if _, err := h.UserRepo.GetByID(ctx, *req.AssignedDriverID); err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "assigned driver does not exist"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}

	v := &model.Vehicle{
		RegistrationNo:     req.RegistrationNo,
		Make:               req.Make,
		Model:              req.Model,
		Year:               req.Year,
		BatteryCapacityKwh: req.BatteryCapacityKwh,
		VIN:                req.VIN,
		Color:              req.Color,
		Status:             req.Status,
		AssignedDriverID:   req.AssignedDriverID,
		Notes:              req.Notes,
	}
	id, err := h.VehicleRepo.Create(ctx, v)
	if err != nil {
		if err == repository.ErrRegistrationExists || strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "registration number or vin already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create vehicle"})
	}
	v.ID = id
	return c.JSON(http.StatusCreated, v)
}

// UpdateVehicle handles PUT /v1/vehicles/:id.
func (h *FleetHandler) UpdateVehicle(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req vehicleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()

	existing, err := h.VehicleRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if req.AssignedDriverID != nil {
		if _, err := h.UserRepo.GetByID(ctx, *req.AssignedDriverID); err != nil {
			if err == sql.ErrNoRows {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "assigned driver does not exist"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}

	existing.RegistrationNo = req.RegistrationNo
	existing.Make = req.Make
	existing.Model = req.Model
	existing.Year = req.Year
	existing.BatteryCapacityKwh = req.BatteryCapacityKwh
	existing.VIN = req.VIN
	existing.Color = req.Color
	existing.Status = req.Status
	existing.AssignedDriverID = req.AssignedDriverID
	existing.Notes = req.Notes

	if err := h.VehicleRepo.Update(ctx, &existing); err != nil {
		if err == repository.ErrRegistrationExists || strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "registration number or vin already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, _ := h.VehicleRepo.GetByID(ctx, id)
	return c.JSON(http.StatusOK, updated)
}

// ListVehicles handles GET /v1/vehicles.
func (h *FleetHandler) ListVehicles(c echo.Context) error {
	items, err := h.VehicleRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetVehicle handles GET /v1/vehicles/:id and includes the assigned
// driver and secondary links.
func (h *FleetHandler) GetVehicle(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	v, err := h.VehicleRepo.GetWithDrivers(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, v)
}

// MyVehicles handles GET /v1/vehicles/my-vehicles for the authenticated driver.
func (h *FleetHandler) MyVehicles(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.VehicleRepo.ListByDriver(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type driverLinkReq struct {
	UserID        uint64 `json:"user_id"`
	RoleOnVehicle string `json:"role_on_vehicle"`
}

// AddDriverLink handles POST /v1/vehicles/:id/drivers and links a
// secondary user to the vehicle.
func (h *FleetHandler) AddDriverLink(c echo.Context) error {
	vehicleID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req driverLinkReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.RoleOnVehicle))
	if role == "" {
		role = model.VehicleRoleDriver
	}
	switch role {
	case model.VehicleRolePrimaryDriver, model.VehicleRoleDriver, model.VehicleRoleResponsible:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role_on_vehicle"})
	}
	ctx := c.Request().Context()

	if _, err := h.VehicleRepo.GetByID(ctx, vehicleID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if _, err := h.UserRepo.GetByID(ctx, req.UserID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	linkID, err := h.VehicleRepo.AddDriverLink(ctx, vehicleID, req.UserID, role)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already linked to vehicle"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not link driver"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":              linkID,
		"vehicle_id":      vehicleID,
		"user_id":         req.UserID,
		"role_on_vehicle": role,
	})
}

// RemoveDriverLink handles DELETE /v1/vehicles/:id/drivers/:user_id.
func (h *FleetHandler) RemoveDriverLink(c echo.Context) error {
	vehicleID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, err := parseID(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
	}
	if err := h.VehicleRepo.RemoveDriverLink(c.Request().Context(), vehicleID, userID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "link not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not remove link"})
	}
	return c.NoContent(http.StatusNoContent)
}
