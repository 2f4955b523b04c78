package handler

import (
	"github.com/ecarfleet/fleet-api/internal/repository"
)

// FleetHandler bundles the repositories behind the fleet master data
// endpoints: vehicles, stations, tariffs, charge cards and users.
type FleetHandler struct {
	VehicleRepo *repository.VehicleRepo
	StationRepo *repository.StationRepo
	TariffRepo  *repository.TariffRepo
	CardRepo    *repository.ChargeCardRepo
	UserRepo    *repository.UserRepo
	TokenRepo   *repository.TokenRepo
}

// NewFleetHandler constructs a FleetHandler and panics if any dependency is nil.
func NewFleetHandler(v *repository.VehicleRepo, s *repository.StationRepo, t *repository.TariffRepo, c *repository.ChargeCardRepo, u *repository.UserRepo, tok *repository.TokenRepo) *FleetHandler {
	if v == nil || s == nil || t == nil || c == nil || u == nil || tok == nil {
		panic("nil repository passed to NewFleetHandler")
	}
	return &FleetHandler{
		VehicleRepo: v,
		StationRepo: s,
		TariffRepo:  t,
		CardRepo:    c,
		UserRepo:    u,
		TokenRepo:   tok,
	}
}
