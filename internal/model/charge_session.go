package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Charge session lifecycle statuses.  A session is created as
// PENDING_ODOMETER and moves to COMPLETED only through a successful
// odometer submission referencing it.  CANCELLED is reachable only
// through the administrative cancel path and never transitions back.
const (
    SessionPendingOdometer = "PENDING_ODOMETER"
    SessionCompleted       = "COMPLETED"
    SessionCancelled       = "CANCELLED"
)

// ChargeSession represents one charging event for a vehicle, tracked
// from creation through odometer completion.  Station, tariff and
// card references are optional: sessions submitted by charge card are
// normalized to the card's vehicle before persistence and keep the
// card reference for audit.
type ChargeSession struct {
    ID         uint64          `json:"id"`                   // charge_sessions.id
    VehicleID  uint64          `json:"vehicle_id"`           // charge_sessions.vehicle_id
    StationID  *uint64         `json:"station_id,omitempty"` // charge_sessions.station_id (nullable)
    TariffID   *uint64         `json:"tariff_id,omitempty"`  // charge_sessions.tariff_id (nullable)
    CardID     *uint64         `json:"card_id,omitempty"`    // charge_sessions.card_id (nullable)
    StartedAt  time.Time       `json:"started_at"`           // charge_sessions.started_at
    EndedAt    time.Time       `json:"ended_at"`             // charge_sessions.ended_at
    KwhCharged decimal.Decimal `json:"kwh_charged"`          // charge_sessions.kwh_charged
    PriceTotal decimal.Decimal `json:"price_total"`          // charge_sessions.price_total
    Currency   string          `json:"currency"`             // charge_sessions.currency
    Status     string          `json:"status"`               // charge_sessions.status
    Notes      *string         `json:"notes,omitempty"`      // charge_sessions.notes (nullable)
    CreatedBy  uint64          `json:"created_by"`           // charge_sessions.created_by
    CreatedAt  time.Time       `json:"created_at"`           // charge_sessions.created_at
    UpdatedAt  time.Time       `json:"updated_at"`           // charge_sessions.updated_at
}
