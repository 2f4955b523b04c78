package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecarfleet/fleet-api/internal/model"
	"github.com/ecarfleet/fleet-api/internal/repository"
)

type cardReq struct {
	CardNumber string  `json:"card_number"`
	VehicleID  uint64  `json:"vehicle_id"`
	Provider   *string `json:"provider"`
	IsActive   *bool   `json:"is_active"`
	Notes      *string `json:"notes"`
}

// CreateChargeCard handles POST /v1/charge-cards.  Every card belongs
// to exactly one vehicle.
func (h *FleetHandler) CreateChargeCard(c echo.Context) error {
	var req cardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	number := strings.TrimSpace(req.CardNumber)
	if number == "" || req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "card_number and vehicle_id are required"})
	}
	ctx := c.Request().Context()

	if _, err := h.VehicleRepo.GetByID(ctx, req.VehicleID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	card := &model.ChargeCard{
		CardNumber: number,
		VehicleID:  req.VehicleID,
		Provider:   req.Provider,
		IsActive:   active,
		Notes:      req.Notes,
	}
	id, err := h.CardRepo.Create(ctx, card)
	if err != nil {
		if err == repository.ErrCardNumberExists || strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "card number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create charge card"})
	}
	card.ID = id
	return c.JSON(http.StatusCreated, card)
}

// UpdateChargeCard handles PUT /v1/charge-cards/:id.
func (h *FleetHandler) UpdateChargeCard(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req cardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	number := strings.TrimSpace(req.CardNumber)
	if number == "" || req.VehicleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "card_number and vehicle_id are required"})
	}
	ctx := c.Request().Context()

	existing, err := h.CardRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "charge card not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if _, err := h.VehicleRepo.GetByID(ctx, req.VehicleID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	existing.CardNumber = number
	existing.VehicleID = req.VehicleID
	existing.Provider = req.Provider
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	existing.Notes = req.Notes

	if err := h.CardRepo.Update(ctx, &existing); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "card number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, existing)
}

// ListChargeCards handles GET /v1/charge-cards.
func (h *FleetHandler) ListChargeCards(c echo.Context) error {
	items, err := h.CardRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetChargeCard handles GET /v1/charge-cards/:id.
func (h *FleetHandler) GetChargeCard(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	card, err := h.CardRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "charge card not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, card)
}
