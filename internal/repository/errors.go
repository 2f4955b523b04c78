// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrCardNumberExists indicates a duplicate RFID card number
// on insert, while ErrConflict signals that an operation cannot
// proceed due to existing dependent records.
package repository

import "errors"

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as marking a queued notification as seen.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a user insert collides with the
// unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrCardNumberExists is returned when a charge card insert collides
// with the unique card_number index.
var ErrCardNumberExists = errors.New("card number already exists")

// ErrRegistrationExists is returned when a vehicle insert collides
// with the unique registration_no index.
var ErrRegistrationExists = errors.New("registration number already exists")
