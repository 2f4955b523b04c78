package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Tariff represents a pricing scheme row in the `tariffs` table.
// Sessions created with a tariff inherit its currency.
type Tariff struct {
    ID          uint64          `json:"id"`                    // tariffs.id
    Name        string          `json:"name"`                  // tariffs.name
    Provider    *string         `json:"provider,omitempty"`    // tariffs.provider (nullable)
    PricePerKwh decimal.Decimal `json:"price_per_kwh"`         // tariffs.price_per_kwh
    Currency    string          `json:"currency"`              // tariffs.currency
    ValidFrom   time.Time       `json:"valid_from"`            // tariffs.valid_from
    ValidUntil  *time.Time      `json:"valid_until,omitempty"` // tariffs.valid_until (nullable)
    IsActive    bool            `json:"is_active"`             // tariffs.is_active
    Description *string         `json:"description,omitempty"` // tariffs.description (nullable)
    CreatedAt   time.Time       `json:"created_at"`            // tariffs.created_at
    UpdatedAt   time.Time       `json:"updated_at"`            // tariffs.updated_at
}
