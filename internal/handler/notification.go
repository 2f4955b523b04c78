package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ecarfleet/fleet-api/internal/repository"
)

// NotificationHandler exposes the notification views and the seen
// transition.  Delivery state is owned by the mailer worker; this
// handler only reads rows and records acknowledgements.
type NotificationHandler struct {
	Repo *repository.NotificationRepo
}

func NewNotificationHandler(r *repository.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{Repo: r}
}

// MyNotifications handles GET /v1/notifications/my-notifications.
func (h *NotificationHandler) MyNotifications(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Repo.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MarkSeen handles POST /v1/notifications/:id/seen.  Only the owner
// of a SENT notification can acknowledge it.
func (h *NotificationHandler) MarkSeen(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()

	if err := h.Repo.MarkSeen(ctx, id, uid); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		}
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "notification is not in SENT state"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	n, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, n)
}

// ListAll handles GET /v1/notifications (admin).
func (h *NotificationHandler) ListAll(c echo.Context) error {
	items, err := h.Repo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
