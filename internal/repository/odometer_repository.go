package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// OdometerRepo provides persistence for odometer readings.  Readings
// are append-only: created once by the odometer submission flow and
// never mutated afterwards.
type OdometerRepo struct{ DB *sql.DB }

func NewOdometerRepo(db *sql.DB) *OdometerRepo { return &OdometerRepo{DB: db} }

const readingColumns = "id,vehicle_id,session_id,reading_km,reading_at,entered_by,is_verified,distance_from_previous_km,kwh_per_100km,cost_per_100km,notes,created_at"

// Create inserts a reading and populates its generated ID and
// created_at timestamp.
func (r *OdometerRepo) Create(ctx context.Context, o *model.OdometerReading) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO odometer_readings (vehicle_id, session_id, reading_km, reading_at, entered_by, is_verified, distance_from_previous_km, kwh_per_100km, cost_per_100km, notes)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		o.VehicleID, nullID(o.SessionID), o.ReadingKm, o.ReadingAt, o.EnteredBy, o.IsVerified,
		nullInt(o.DistanceFromPreviousKm), nullDecimal(o.KwhPer100Km), nullDecimal(o.CostPer100Km),
		nullStringPtr(o.Notes))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*o = got
	return nil
}

// GetByID fetches a reading by id.
func (r *OdometerRepo) GetByID(ctx context.Context, id uint64) (model.OdometerReading, error) {
	return scanReading(r.DB.QueryRowContext(ctx,
		"SELECT "+readingColumns+" FROM odometer_readings WHERE id=? LIMIT 1", id))
}

// LatestByVehicle returns the vehicle's most recent reading by
// reading timestamp, or nil when the vehicle has none.  Timestamp
// ties are broken by insertion order (id).
func (r *OdometerRepo) LatestByVehicle(ctx context.Context, vehicleID uint64) (*model.OdometerReading, error) {
	o, err := scanReading(r.DB.QueryRowContext(ctx,
		"SELECT "+readingColumns+" FROM odometer_readings WHERE vehicle_id=? ORDER BY reading_at DESC, id DESC LIMIT 1",
		vehicleID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByVehicle returns all readings for a vehicle, newest first.
func (r *OdometerRepo) ListByVehicle(ctx context.Context, vehicleID uint64) ([]model.OdometerReading, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+readingColumns+" FROM odometer_readings WHERE vehicle_id=? ORDER BY reading_at DESC, id DESC",
		vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.OdometerReading{}
	for rows.Next() {
		o, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanReading(sc rowScanner) (model.OdometerReading, error) {
	var (
		o         model.OdometerReading
		sessionID sql.NullInt64
		distance  sql.NullInt64
		kwh100    decimal.NullDecimal
		cost100   decimal.NullDecimal
		notes     sql.NullString
	)
	err := sc.Scan(&o.ID, &o.VehicleID, &sessionID, &o.ReadingKm, &o.ReadingAt, &o.EnteredBy,
		&o.IsVerified, &distance, &kwh100, &cost100, &notes, &o.CreatedAt)
	if err != nil {
		return model.OdometerReading{}, err
	}
	o.SessionID = ptrID(sessionID)
	if distance.Valid {
		d := distance.Int64
		o.DistanceFromPreviousKm = &d
	}
	o.KwhPer100Km = ptrDecimal(kwh100)
	o.CostPer100Km = ptrDecimal(cost100)
	o.Notes = ptrString(notes)
	return o, nil
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
