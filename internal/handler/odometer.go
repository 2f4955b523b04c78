package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecarfleet/fleet-api/internal/model"
	"github.com/ecarfleet/fleet-api/internal/service"
)

type odometerSubmitter interface {
	Submit(ctx context.Context, sub service.OdometerSubmission) (*model.OdometerReading, error)
}

type readingStore interface {
	LatestByVehicle(ctx context.Context, vehicleID uint64) (*model.OdometerReading, error)
	ListByVehicle(ctx context.Context, vehicleID uint64) ([]model.OdometerReading, error)
}

// OdometerHandler implements the odometer endpoints.  Validation and
// session completion live in the odometer service; the handler maps
// its sentinel errors onto HTTP statuses.
type OdometerHandler struct {
	Service  odometerSubmitter
	Readings readingStore
	Vehicles vehicleStore
}

func NewOdometerHandler(svc odometerSubmitter, readings readingStore, vehicles vehicleStore) *OdometerHandler {
	return &OdometerHandler{Service: svc, Readings: readings, Vehicles: vehicles}
}

type submitReadingReq struct {
	VehicleID uint64     `json:"vehicle_id"`
	SessionID *uint64    `json:"session_id"`
	ReadingKm int64      `json:"reading_km"`
	ReadingAt *time.Time `json:"reading_at"`
	Notes     *string    `json:"notes"`
}

// Submit handles POST /v1/odometer.  A session_id ties the reading to
// a pending charge session and completes it; without one the reading
// is a manual correction.  Drivers may only submit for vehicles they
// are linked to.
func (h *OdometerHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req submitReadingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle_id is required"})
	}
	if req.ReadingKm <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reading_km must be positive"})
	}

	ctx := c.Request().Context()

	if currentRole(c) == model.RoleDriver {
		ok, err := h.driverOnVehicle(ctx, uid, req.VehicleID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your vehicle"})
		}
	}

	readingAt := time.Now().UTC()
	if req.ReadingAt != nil {
		readingAt = *req.ReadingAt
	}

	reading, err := h.Service.Submit(ctx, service.OdometerSubmission{
		VehicleID: req.VehicleID,
		SessionID: req.SessionID,
		ReadingKm: req.ReadingKm,
		ReadingAt: readingAt,
		EnteredBy: uid,
		Notes:     req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.Is(err, service.ErrSessionNotPending):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrVehicleMismatch):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "session belongs to a different vehicle"})
		case errors.Is(err, service.ErrReadingNotGreater), errors.Is(err, service.ErrDistanceTooLarge):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save reading"})
	}
	return c.JSON(http.StatusCreated, reading)
}

// ListByVehicle handles GET /v1/odometer/vehicle/:vehicleId.
func (h *OdometerHandler) ListByVehicle(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	vehicleID, err := parseID(c, "vehicleId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()

	if currentRole(c) == model.RoleDriver {
		ok, err := h.driverOnVehicle(ctx, uid, vehicleID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your vehicle"})
		}
	}

	items, err := h.Readings.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Latest handles GET /v1/odometer/vehicle/:vehicleId/latest.  The reading
// is null when the vehicle has none yet.
func (h *OdometerHandler) Latest(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	vehicleID, err := parseID(c, "vehicleId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()

	if currentRole(c) == model.RoleDriver {
		ok, err := h.driverOnVehicle(ctx, uid, vehicleID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your vehicle"})
		}
	}

	reading, err := h.Readings.LatestByVehicle(ctx, vehicleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reading": reading})
}

func (h *OdometerHandler) driverOnVehicle(ctx context.Context, userID, vehicleID uint64) (bool, error) {
	vehicles, err := h.Vehicles.ListByDriver(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, v := range vehicles {
		if v.ID == vehicleID {
			return true, nil
		}
	}
	return false, nil
}
