package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// OdometerReading represents one odometer submission for a vehicle.
// Session-linked readings complete the referenced charge session and
// carry derived consumption metrics; manual readings (SessionID nil)
// are administrative corrections and skip the monotonicity checks.
type OdometerReading struct {
    ID                     uint64               `json:"id"`                                  // odometer_readings.id
    VehicleID              uint64               `json:"vehicle_id"`                          // odometer_readings.vehicle_id
    SessionID              *uint64              `json:"session_id,omitempty"`                // odometer_readings.session_id (nullable)
    ReadingKm              int64                `json:"reading_km"`                          // odometer_readings.reading_km
    ReadingAt              time.Time            `json:"reading_at"`                          // odometer_readings.reading_at
    EnteredBy              uint64               `json:"entered_by"`                          // odometer_readings.entered_by
    IsVerified             bool                 `json:"is_verified"`                         // odometer_readings.is_verified
    DistanceFromPreviousKm *int64               `json:"distance_from_previous_km,omitempty"` // odometer_readings.distance_from_previous_km (nullable)
    KwhPer100Km            *decimal.Decimal     `json:"kwh_per_100km,omitempty"`             // odometer_readings.kwh_per_100km (nullable)
    CostPer100Km           *decimal.Decimal     `json:"cost_per_100km,omitempty"`            // odometer_readings.cost_per_100km (nullable)
    Notes                  *string              `json:"notes,omitempty"`                     // odometer_readings.notes (nullable)
    CreatedAt              time.Time            `json:"created_at"`                          // odometer_readings.created_at
}
