package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ecarfleet/fleet-api/internal/handler"    // fleet master data handlers
	"github.com/ecarfleet/fleet-api/internal/middleware" // JWT + role middlewares
	"github.com/ecarfleet/fleet-api/internal/model"
)

// RegisterFleet registers the fleet master data endpoints under /v1.
// Mutations require ADMIN or FLEET_MANAGER; reads are open to every
// authenticated role so drivers can browse stations and tariffs.
func RegisterFleet(e *echo.Echo, f *handler.FleetHandler, jwtSecret string) {
	manage := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleFleetManager),
	)

	// ---- Vehicles ----
	manage.POST("/vehicles", f.CreateVehicle)
	manage.PUT("/vehicles/:id", f.UpdateVehicle)
	manage.PATCH("/vehicles/:id", f.UpdateVehicle)
	manage.GET("/vehicles", f.ListVehicles)
	manage.POST("/vehicles/:id/drivers", f.AddDriverLink)
	manage.DELETE("/vehicles/:id/drivers/:user_id", f.RemoveDriverLink)

	// ---- Stations ----
	manage.POST("/stations", f.CreateStation)
	manage.PUT("/stations/:id", f.UpdateStation)
	manage.PATCH("/stations/:id", f.UpdateStation)

	// ---- Tariffs ----
	manage.POST("/tariffs", f.CreateTariff)
	manage.PUT("/tariffs/:id", f.UpdateTariff)
	manage.PATCH("/tariffs/:id", f.UpdateTariff)

	// ---- Charge cards ----
	manage.POST("/charge-cards", f.CreateChargeCard)
	manage.PUT("/charge-cards/:id", f.UpdateChargeCard)
	manage.GET("/charge-cards", f.ListChargeCards)
	manage.GET("/charge-cards/:id", f.GetChargeCard)

	// ---- Users (admin only) ----
	admin := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.GET("/users", f.ListUsers)
	admin.GET("/users/:id", f.GetUser)
	admin.PUT("/users/:id", f.UpdateUser)

	// ---- Reads for every authenticated role ----
	read := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleFleetManager, model.RoleDriver),
	)
	read.GET("/vehicles/my-vehicles", f.MyVehicles)
	read.GET("/vehicles/:id", f.GetVehicle)
	read.GET("/stations", f.ListStations)
	read.GET("/stations/:id", f.GetStation)
	read.GET("/tariffs", f.ListTariffs)
	read.GET("/tariffs/:id", f.GetTariff)
}
