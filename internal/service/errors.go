// Package service implements the charge-session reconciliation core:
// recipient resolution, notification fan-out and odometer validation.
package service

import "errors"

// Sentinel errors returned by OdometerService.Submit.  Handlers map
// them onto HTTP statuses: ErrSessionNotFound to 404, everything else
// to 400.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotPending = errors.New("session not pending odometer entry")
	ErrVehicleMismatch   = errors.New("session does not belong to this vehicle")
	ErrReadingNotGreater = errors.New("reading must be greater than previous reading")
	ErrDistanceTooLarge  = errors.New("distance exceeds maximum allowed; verify reading")
)
