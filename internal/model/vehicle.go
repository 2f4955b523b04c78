package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Vehicle statuses stored in vehicles.status.
const (
    VehicleActive      = "ACTIVE"
    VehicleMaintenance = "MAINTENANCE"
    VehicleRetired     = "RETIRED"
)

// Roles a user can hold on a vehicle (user_vehicles.role_on_vehicle).
const (
    VehicleRolePrimaryDriver = "PRIMARY_DRIVER"
    VehicleRoleDriver        = "DRIVER"
    VehicleRoleResponsible   = "RESPONSIBLE"
)

// Vehicle represents a row in the `vehicles` table.  A vehicle has at
// most one assigned driver plus any number of secondary user links
// (see UserVehicle).  The AssignedDriver and DriverLinks fields are
// relations and are only populated by VehicleRepo.GetWithDrivers;
// plain lookups leave them nil.
type Vehicle struct {
    ID                 uint64          `json:"id"`                          // vehicles.id
    RegistrationNo     string          `json:"registration_no"`             // vehicles.registration_no
    Make               string          `json:"make"`                        // vehicles.make
    Model              string          `json:"model"`                       // vehicles.model
    Year               int             `json:"year"`                        // vehicles.year
    BatteryCapacityKwh decimal.Decimal `json:"battery_capacity_kwh"`       // vehicles.battery_capacity_kwh
    VIN                *string         `json:"vin,omitempty"`               // vehicles.vin (nullable, unique)
    Color              *string         `json:"color,omitempty"`             // vehicles.color (nullable)
    Status             string          `json:"status"`                      // vehicles.status
    AssignedDriverID   *uint64         `json:"assigned_driver_id,omitempty"` // vehicles.assigned_driver_id (nullable)
    Notes              *string         `json:"notes,omitempty"`             // vehicles.notes (nullable)
    CreatedAt          time.Time       `json:"created_at"`                  // vehicles.created_at
    UpdatedAt          time.Time       `json:"updated_at"`                  // vehicles.updated_at

    AssignedDriver *User         `json:"assigned_driver,omitempty"` // relation, eager loaded on demand
    DriverLinks    []UserVehicle `json:"driver_links,omitempty"`    // relation, eager loaded on demand
}

// UserVehicle links a secondary user to a vehicle with a role on that
// vehicle.  The assigned driver lives on the vehicle row itself; rows
// in `user_vehicles` cover everyone else who should care about the
// vehicle (co-drivers, fleet responsibles).
type UserVehicle struct {
    ID            uint64    `json:"id"`              // user_vehicles.id
    UserID        uint64    `json:"user_id"`         // user_vehicles.user_id
    VehicleID     uint64    `json:"vehicle_id"`      // user_vehicles.vehicle_id
    RoleOnVehicle string    `json:"role_on_vehicle"` // user_vehicles.role_on_vehicle
    CreatedAt     time.Time `json:"created_at"`      // user_vehicles.created_at

    User *User `json:"user,omitempty"` // relation, loaded with GetWithDrivers
}
