package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Station represents a charging station row in the `stations` table.
type Station struct {
    ID        uint64           `json:"id"`                  // stations.id
    Name      string           `json:"name"`                // stations.name
    Location  *string          `json:"location,omitempty"`  // stations.location (nullable)
    Address   *string          `json:"address,omitempty"`   // stations.address (nullable)
    Latitude  *decimal.Decimal `json:"latitude,omitempty"`  // stations.latitude (nullable)
    Longitude *decimal.Decimal `json:"longitude,omitempty"` // stations.longitude (nullable)
    Provider  *string          `json:"provider,omitempty"`  // stations.provider (nullable)
    PowerKw   *decimal.Decimal `json:"power_kw,omitempty"`  // stations.power_kw (nullable)
    IsActive  bool             `json:"is_active"`           // stations.is_active
    Notes     *string          `json:"notes,omitempty"`     // stations.notes (nullable)
    CreatedAt time.Time        `json:"created_at"`          // stations.created_at
    UpdatedAt time.Time        `json:"updated_at"`          // stations.updated_at
}
