package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// ListUsers handles GET /v1/users (admin).
func (h *FleetHandler) ListUsers(c echo.Context) error {
	items, err := h.UserRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetUser handles GET /v1/users/:id (admin).
func (h *FleetHandler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	u, err := h.UserRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, u)
}

type updateUserReq struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUser handles PUT /v1/users/:id (admin).  Role changes happen
// here, not at registration.  Deactivating an account also revokes
// every refresh token the user holds.
func (h *FleetHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	existing, err := h.UserRepo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = existing.FullName
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" && existing.Phone != nil {
		phone = *existing.Phone
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = existing.Role
	}
	switch role {
	case model.RoleAdmin, model.RoleFleetManager, model.RoleDriver:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}
	active := existing.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	if err := h.UserRepo.Update(ctx, id, fullName, phone, role, active); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if existing.IsActive && !active {
		// Kill the deactivated user's sessions.
		_ = h.TokenRepo.RevokeAllForUser(ctx, id)
	}

	updated, _ := h.UserRepo.GetByID(ctx, id)
	return c.JSON(http.StatusOK, updated)
}
