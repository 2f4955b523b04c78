package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ecarfleet/fleet-api/internal/model"
)

type stationReq struct {
	Name      string           `json:"name"`
	Location  *string          `json:"location"`
	Address   *string          `json:"address"`
	Latitude  *decimal.Decimal `json:"latitude"`
	Longitude *decimal.Decimal `json:"longitude"`
	Provider  *string          `json:"provider"`
	PowerKw   *decimal.Decimal `json:"power_kw"`
	IsActive  *bool            `json:"is_active"`
	Notes     *string          `json:"notes"`
}

// CreateStation handles POST /v1/stations.
func (h *FleetHandler) CreateStation(c echo.Context) error {
	var req stationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	s := &model.Station{
		Name:      name,
		Location:  req.Location,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Provider:  req.Provider,
		PowerKw:   req.PowerKw,
		IsActive:  active,
		Notes:     req.Notes,
	}
	id, err := h.StationRepo.Create(c.Request().Context(), s)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create station"})
	}
	s.ID = id
	return c.JSON(http.StatusCreated, s)
}

// UpdateStation handles PUT /v1/stations/:id.
func (h *FleetHandler) UpdateStation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req stationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	ctx := c.Request().Context()

	existing, err := h.StationRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	existing.Name = name
	existing.Location = req.Location
	existing.Address = req.Address
	existing.Latitude = req.Latitude
	existing.Longitude = req.Longitude
	existing.Provider = req.Provider
	existing.PowerKw = req.PowerKw
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	existing.Notes = req.Notes

	if err := h.StationRepo.Update(ctx, &existing); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, existing)
}

// ListStations handles GET /v1/stations.
func (h *FleetHandler) ListStations(c echo.Context) error {
	items, err := h.StationRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetStation handles GET /v1/stations/:id.
func (h *FleetHandler) GetStation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.StationRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, s)
}
