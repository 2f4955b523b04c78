package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// fakeSessionStore serves sessions from a map and records completions.
type fakeSessionStore struct {
	sessions  map[uint64]model.ChargeSession
	completed []uint64
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uint64) (model.ChargeSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return model.ChargeSession{}, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeSessionStore) MarkCompleted(_ context.Context, id uint64) error {
	f.completed = append(f.completed, id)
	return nil
}

// fakeReadingStore holds one latest reading per vehicle and collects
// created readings.
type fakeReadingStore struct {
	latest  map[uint64]*model.OdometerReading
	created []*model.OdometerReading
	nextID  uint64
}

func (f *fakeReadingStore) LatestByVehicle(_ context.Context, vehicleID uint64) (*model.OdometerReading, error) {
	return f.latest[vehicleID], nil
}

func (f *fakeReadingStore) Create(_ context.Context, o *model.OdometerReading) error {
	f.nextID++
	o.ID = f.nextID
	f.created = append(f.created, o)
	return nil
}

func pendingSession(id, vehicleID uint64, kwh, price string) model.ChargeSession {
	return model.ChargeSession{
		ID:         id,
		VehicleID:  vehicleID,
		KwhCharged: decimal.RequireFromString(kwh),
		PriceTotal: decimal.RequireFromString(price),
		Status:     model.SessionPendingOdometer,
	}
}

func newTestService(sessions *fakeSessionStore, readings *fakeReadingStore) *OdometerService {
	return NewOdometerService(sessions, readings, 2000)
}

func TestSubmit_CompletesSessionAndDerivesMetrics(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[uint64]model.ChargeSession{
		5: pendingSession(5, 1, "50", "30"),
	}}
	readings := &fakeReadingStore{latest: map[uint64]*model.OdometerReading{
		1: {VehicleID: 1, ReadingKm: 45000},
	}}
	svc := newTestService(sessions, readings)

	sessionID := uint64(5)
	got, err := svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1,
		SessionID: &sessionID,
		ReadingKm: 45250,
		ReadingAt: time.Now(),
		EnteredBy: 9,
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NotNil(t, got.DistanceFromPreviousKm)
	assert.Equal(t, int64(250), *got.DistanceFromPreviousKm)

	// 50 kWh over 250 km -> 20 kWh/100km; 30 over 250 km -> 12 /100km.
	require.NotNil(t, got.KwhPer100Km)
	require.NotNil(t, got.CostPer100Km)
	assert.True(t, got.KwhPer100Km.Equal(decimal.RequireFromString("20")), "got %s", got.KwhPer100Km)
	assert.True(t, got.CostPer100Km.Equal(decimal.RequireFromString("12")), "got %s", got.CostPer100Km)

	assert.Equal(t, []uint64{5}, sessions.completed)
	require.Len(t, readings.created, 1)
	assert.Equal(t, uint64(9), readings.created[0].EnteredBy)
}

func TestSubmit_RejectsReadingNotGreater(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[uint64]model.ChargeSession{
		5: pendingSession(5, 1, "50", "30"),
	}}
	readings := &fakeReadingStore{latest: map[uint64]*model.OdometerReading{
		1: {VehicleID: 1, ReadingKm: 45000},
	}}
	svc := newTestService(sessions, readings)

	sessionID := uint64(5)
	_, err := svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1, SessionID: &sessionID, ReadingKm: 44000, ReadingAt: time.Now(), EnteredBy: 9,
	})
	assert.ErrorIs(t, err, ErrReadingNotGreater)
	assert.Empty(t, sessions.completed)
	assert.Empty(t, readings.created)

	// Equal readings are rejected as well.
	_, err = svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1, SessionID: &sessionID, ReadingKm: 45000, ReadingAt: time.Now(), EnteredBy: 9,
	})
	assert.ErrorIs(t, err, ErrReadingNotGreater)
}

func TestSubmit_RejectsImplausibleDistance(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[uint64]model.ChargeSession{
		5: pendingSession(5, 1, "50", "30"),
	}}
	readings := &fakeReadingStore{latest: map[uint64]*model.OdometerReading{
		1: {VehicleID: 1, ReadingKm: 45000},
	}}
	svc := newTestService(sessions, readings)

	sessionID := uint64(5)
	_, err := svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1, SessionID: &sessionID, ReadingKm: 48000, ReadingAt: time.Now(), EnteredBy: 9,
	})
	assert.ErrorIs(t, err, ErrDistanceTooLarge)
	assert.Empty(t, sessions.completed)
}

func TestSubmit_FirstReadingForVehicle(t *testing.T) {
	// No prior reading: monotonicity has nothing to compare against,
	// the reading is stored without distance or derived metrics.
	sessions := &fakeSessionStore{sessions: map[uint64]model.ChargeSession{
		5: pendingSession(5, 1, "50", "30"),
	}}
	readings := &fakeReadingStore{latest: map[uint64]*model.OdometerReading{}}
	svc := newTestService(sessions, readings)

	sessionID := uint64(5)
	got, err := svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1, SessionID: &sessionID, ReadingKm: 120, ReadingAt: time.Now(), EnteredBy: 9,
	})
	require.NoError(t, err)
	assert.Nil(t, got.DistanceFromPreviousKm)
	assert.Nil(t, got.KwhPer100Km)
	assert.Nil(t, got.CostPer100Km)
	assert.Equal(t, []uint64{5}, sessions.completed)
}

func TestSubmit_ManualReadingBypassesValidation(t *testing.T) {
	// A reading without a session is an administrative correction and
	// may go backwards.
	sessions := &fakeSessionStore{sessions: map[uint64]model.ChargeSession{}}
	readings := &fakeReadingStore{latest: map[uint64]*model.OdometerReading{
		1: {VehicleID: 1, ReadingKm: 45000},
	}}
	svc := newTestService(sessions, readings)

	got, err := svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1, ReadingKm: 44000, ReadingAt: time.Now(), EnteredBy: 9,
	})
	require.NoError(t, err)
	assert.Nil(t, got.SessionID)
	assert.Nil(t, got.DistanceFromPreviousKm, "no distance recorded for a decreasing manual reading")
	assert.Empty(t, sessions.completed)
}

func TestSubmit_ManualForwardReadingRecordsDistanceOnly(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[uint64]model.ChargeSession{}}
	readings := &fakeReadingStore{latest: map[uint64]*model.OdometerReading{
		1: {VehicleID: 1, ReadingKm: 45000},
	}}
	svc := newTestService(sessions, readings)

	got, err := svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1, ReadingKm: 45300, ReadingAt: time.Now(), EnteredBy: 9,
	})
	require.NoError(t, err)
	require.NotNil(t, got.DistanceFromPreviousKm)
	assert.Equal(t, int64(300), *got.DistanceFromPreviousKm)
	assert.Nil(t, got.KwhPer100Km, "derived metrics need a session")
}

func TestSubmit_SessionNotFound(t *testing.T) {
	svc := newTestService(
		&fakeSessionStore{sessions: map[uint64]model.ChargeSession{}},
		&fakeReadingStore{latest: map[uint64]*model.OdometerReading{}},
	)
	missing := uint64(99)
	_, err := svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1, SessionID: &missing, ReadingKm: 100, ReadingAt: time.Now(), EnteredBy: 9,
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmit_SessionAlreadyCompleted(t *testing.T) {
	done := pendingSession(5, 1, "50", "30")
	done.Status = model.SessionCompleted
	sessions := &fakeSessionStore{sessions: map[uint64]model.ChargeSession{5: done}}
	svc := newTestService(sessions, &fakeReadingStore{latest: map[uint64]*model.OdometerReading{}})

	sessionID := uint64(5)
	_, err := svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1, SessionID: &sessionID, ReadingKm: 100, ReadingAt: time.Now(), EnteredBy: 9,
	})
	assert.ErrorIs(t, err, ErrSessionNotPending)
	assert.Empty(t, sessions.completed)
}

func TestSubmit_SessionVehicleMismatch(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[uint64]model.ChargeSession{
		5: pendingSession(5, 2, "50", "30"), // session belongs to vehicle 2
	}}
	svc := newTestService(sessions, &fakeReadingStore{latest: map[uint64]*model.OdometerReading{}})

	sessionID := uint64(5)
	_, err := svc.Submit(context.Background(), OdometerSubmission{
		VehicleID: 1, SessionID: &sessionID, ReadingKm: 100, ReadingAt: time.Now(), EnteredBy: 9,
	})
	assert.ErrorIs(t, err, ErrVehicleMismatch)
}
