package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ecarfleet/fleet-api/internal/model"
)

type tariffReq struct {
	Name        string          `json:"name"`
	Provider    *string         `json:"provider"`
	PricePerKwh decimal.Decimal `json:"price_per_kwh"`
	Currency    string          `json:"currency"`
	ValidFrom   *time.Time      `json:"valid_from"`
	ValidUntil  *time.Time      `json:"valid_until"`
	IsActive    *bool           `json:"is_active"`
	Description *string         `json:"description"`
}

func (r *tariffReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.PricePerKwh.LessThanOrEqual(decimal.Zero) {
		return "price_per_kwh must be positive"
	}
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = "BGN"
	}
	if len(r.Currency) != 3 {
		return "currency must be a 3-letter code"
	}
	return ""
}

// CreateTariff handles POST /v1/tariffs.
func (h *FleetHandler) CreateTariff(c echo.Context) error {
	var req tariffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	validFrom := time.Now().UTC()
	if req.ValidFrom != nil {
		validFrom = *req.ValidFrom
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	t := &model.Tariff{
		Name:        req.Name,
		Provider:    req.Provider,
		PricePerKwh: req.PricePerKwh,
		Currency:    req.Currency,
		ValidFrom:   validFrom,
		ValidUntil:  req.ValidUntil,
		IsActive:    active,
		Description: req.Description,
	}
	id, err := h.TariffRepo.Create(c.Request().Context(), t)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create tariff"})
	}
	t.ID = id
	return c.JSON(http.StatusCreated, t)
}

// UpdateTariff handles PUT /v1/tariffs/:id.
func (h *FleetHandler) UpdateTariff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req tariffReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()

	existing, err := h.TariffRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tariff not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	existing.Name = req.Name
	existing.Provider = req.Provider
	existing.PricePerKwh = req.PricePerKwh
	existing.Currency = req.Currency
	if req.ValidFrom != nil {
		existing.ValidFrom = *req.ValidFrom
	}
	existing.ValidUntil = req.ValidUntil
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	existing.Description = req.Description

	if err := h.TariffRepo.Update(ctx, &existing); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, existing)
}

// ListTariffs handles GET /v1/tariffs.
func (h *FleetHandler) ListTariffs(c echo.Context) error {
	items, err := h.TariffRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetTariff handles GET /v1/tariffs/:id.
func (h *FleetHandler) GetTariff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.TariffRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tariff not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, t)
}
