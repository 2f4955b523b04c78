package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ecarfleet/fleet-api/internal/handler"
	"github.com/ecarfleet/fleet-api/internal/middleware"
	"github.com/ecarfleet/fleet-api/internal/model"
)

// RegisterSessions registers the charge session, odometer and
// notification endpoints under /v1.  All of them require a valid JWT;
// driver-level scoping (own vehicles only) is enforced inside the
// handlers because it depends on the vehicle links, not on the role
// alone.
func RegisterSessions(e *echo.Echo, s *handler.SessionHandler, o *handler.OdometerHandler, n *handler.NotificationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleFleetManager, model.RoleDriver),
	)

	// ---- Charge sessions ----
	// Static segments before :id so Echo matches them first.
	g.GET("/charge-sessions/my-sessions", s.MySessions)
	g.GET("/charge-sessions/pending/vehicle/:vehicleId", s.PendingByVehicle)
	g.GET("/charge-sessions/:id", s.GetByID)

	// ---- Odometer ----
	g.POST("/odometer", o.Submit)
	g.GET("/odometer/vehicle/:vehicleId", o.ListByVehicle)
	g.GET("/odometer/vehicle/:vehicleId/latest", o.Latest)

	// ---- Notifications ----
	g.GET("/notifications/my-notifications", n.MyNotifications)
	g.POST("/notifications/:id/seen", n.MarkSeen)

	// Session intake and full listings are back office operations.
	back := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleFleetManager),
	)
	back.POST("/charge-sessions", s.Create)
	back.GET("/charge-sessions", s.List)

	// The raw notification log is admin only.
	admin := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.GET("/notifications", n.ListAll)
}
