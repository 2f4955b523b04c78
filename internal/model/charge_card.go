package model

import "time"

// ChargeCard represents an RFID charge card row in the
// `charge_cards` table.  Every card belongs to exactly one vehicle;
// a session submitted by card number is normalized to that vehicle.
type ChargeCard struct {
    ID         uint64    `json:"id"`                 // charge_cards.id
    CardNumber string    `json:"card_number"`        // charge_cards.card_number (unique)
    VehicleID  uint64    `json:"vehicle_id"`         // charge_cards.vehicle_id
    Provider   *string   `json:"provider,omitempty"` // charge_cards.provider (nullable)
    IsActive   bool      `json:"is_active"`          // charge_cards.is_active
    Notes      *string   `json:"notes,omitempty"`    // charge_cards.notes (nullable)
    CreatedAt  time.Time `json:"created_at"`         // charge_cards.created_at
    UpdatedAt  time.Time `json:"updated_at"`         // charge_cards.updated_at
}
