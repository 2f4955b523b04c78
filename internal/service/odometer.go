package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// SessionStore is the slice of the session repository the odometer
// flow needs.
type SessionStore interface {
	GetByID(ctx context.Context, id uint64) (model.ChargeSession, error)
	MarkCompleted(ctx context.Context, id uint64) error
}

// ReadingStore is the slice of the odometer repository the odometer
// flow needs.
type ReadingStore interface {
	LatestByVehicle(ctx context.Context, vehicleID uint64) (*model.OdometerReading, error)
	Create(ctx context.Context, o *model.OdometerReading) error
}

// OdometerSubmission carries one driver submission.  EnteredBy comes
// from the authenticated caller, never from the request body.
type OdometerSubmission struct {
	VehicleID uint64
	SessionID *uint64
	ReadingKm int64
	ReadingAt time.Time
	EnteredBy uint64
	Notes     *string
}

// OdometerService validates odometer submissions and completes the
// referenced charge session.  MaxDistanceKm bounds the plausible
// distance between two consecutive session-linked readings.
type OdometerService struct {
	Sessions      SessionStore
	Readings      ReadingStore
	MaxDistanceKm int64

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func NewOdometerService(sessions SessionStore, readings ReadingStore, maxDistanceKm int64) *OdometerService {
	return &OdometerService{
		Sessions:      sessions,
		Readings:      readings,
		MaxDistanceKm: maxDistanceKm,
		locks:         make(map[uint64]*sync.Mutex),
	}
}

// Submit validates a submission and, if valid, persists the reading
// and transitions the referenced session to COMPLETED.  Session-less
// submissions are administrative corrections: they skip the
// monotonicity and max-distance rules entirely.
//
// The read-latest-then-insert sequence is serialized per vehicle so
// two concurrent submissions cannot both validate against the same
// prior reading.
func (s *OdometerService) Submit(ctx context.Context, sub OdometerSubmission) (*model.OdometerReading, error) {
	lock := s.vehicleLock(sub.VehicleID)
	lock.Lock()
	defer lock.Unlock()

	var session *model.ChargeSession
	if sub.SessionID != nil {
		got, err := s.Sessions.GetByID(ctx, *sub.SessionID)
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		if err != nil {
			return nil, err
		}
		if got.Status != model.SessionPendingOdometer {
			return nil, fmt.Errorf("%w: status is %s", ErrSessionNotPending, got.Status)
		}
		if got.VehicleID != sub.VehicleID {
			return nil, ErrVehicleMismatch
		}
		session = &got
	}

	prev, err := s.Readings.LatestByVehicle(ctx, sub.VehicleID)
	if err != nil {
		return nil, err
	}

	if session != nil && prev != nil {
		if sub.ReadingKm <= prev.ReadingKm {
			return nil, fmt.Errorf("%w (previous reading is %d km)", ErrReadingNotGreater, prev.ReadingKm)
		}
		if delta := sub.ReadingKm - prev.ReadingKm; delta > s.MaxDistanceKm {
			return nil, fmt.Errorf("%w (%d km > %d km)", ErrDistanceTooLarge, delta, s.MaxDistanceKm)
		}
	}

	reading := &model.OdometerReading{
		VehicleID: sub.VehicleID,
		SessionID: sub.SessionID,
		ReadingKm: sub.ReadingKm,
		ReadingAt: sub.ReadingAt,
		EnteredBy: sub.EnteredBy,
		Notes:     sub.Notes,
	}
	if prev != nil && sub.ReadingKm > prev.ReadingKm {
		distance := sub.ReadingKm - prev.ReadingKm
		reading.DistanceFromPreviousKm = &distance
		if session != nil {
			kwh, cost := per100Km(session.KwhCharged, session.PriceTotal, distance)
			reading.KwhPer100Km = &kwh
			reading.CostPer100Km = &cost
		}
	}

	if err := s.Readings.Create(ctx, reading); err != nil {
		return nil, err
	}
	if session != nil {
		if err := s.Sessions.MarkCompleted(ctx, session.ID); err != nil {
			return nil, err
		}
	}
	return reading, nil
}

// per100Km derives consumption and cost per 100 km from a session's
// energy and price over the distance covered since the prior reading.
func per100Km(kwh, price decimal.Decimal, distanceKm int64) (decimal.Decimal, decimal.Decimal) {
	d := decimal.NewFromInt(distanceKm)
	hundred := decimal.NewFromInt(100)
	return kwh.Mul(hundred).DivRound(d, 2), price.Mul(hundred).DivRound(d, 2)
}

// vehicleLock returns the mutex guarding validate-then-insert for one
// vehicle, creating it on first use.
func (s *OdometerService) vehicleLock(vehicleID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[vehicleID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[vehicleID] = l
	}
	return l
}
