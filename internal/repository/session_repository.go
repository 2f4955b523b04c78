package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// SessionRepo provides persistence for charge sessions.  Status
// transitions are monotonic: rows are inserted as PENDING_ODOMETER
// and only MarkCompleted moves them forward.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

const sessionColumns = "id,vehicle_id,station_id,tariff_id,card_id,started_at,ended_at,kwh_charged,price_total,currency,status,notes,created_by,created_at,updated_at"

// Create inserts a new charge session and populates the generated ID
// and server-side timestamps on the provided record.  The status
// column defaults to PENDING_ODOMETER in the schema; the record is
// read back so the caller sees exactly what was persisted.
func (r *SessionRepo) Create(ctx context.Context, s *model.ChargeSession) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO charge_sessions (vehicle_id, station_id, tariff_id, card_id, started_at, ended_at, kwh_charged, price_total, currency, status, notes, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.VehicleID, nullID(s.StationID), nullID(s.TariffID), nullID(s.CardID),
		s.StartedAt, s.EndedAt, s.KwhCharged, s.PriceTotal, s.Currency,
		model.SessionPendingOdometer, nullStringPtr(s.Notes), s.CreatedBy)
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
	*s = got
	return nil
}

// GetByID fetches a session row without relations.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.ChargeSession, error) {
	return scanSession(r.DB.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM charge_sessions WHERE id=? LIMIT 1", id))
}

// SessionDetail joins a session with display fields from its vehicle,
// station and tariff relations.  It is what list/detail endpoints
// return to clients.
type SessionDetail struct {
	model.ChargeSession
	VehicleRegistration string  `json:"vehicle_registration"`
	VehicleMake         string  `json:"vehicle_make"`
	VehicleModel        string  `json:"vehicle_model"`
	StationName         *string `json:"station_name,omitempty"`
	TariffName          *string `json:"tariff_name,omitempty"`
}

const sessionDetailQuery = `
SELECT s.id, s.vehicle_id, s.station_id, s.tariff_id, s.card_id, s.started_at, s.ended_at,
       s.kwh_charged, s.price_total, s.currency, s.status, s.notes, s.created_by, s.created_at, s.updated_at,
       v.registration_no, v.make, v.model, st.name, t.name
  FROM charge_sessions s
  JOIN vehicles v ON v.id = s.vehicle_id
  LEFT JOIN stations st ON st.id = s.station_id
  LEFT JOIN tariffs t ON t.id = s.tariff_id`

// GetDetail fetches one session with its relations expanded.
func (r *SessionRepo) GetDetail(ctx context.Context, id uint64) (SessionDetail, error) {
	return scanSessionDetail(r.DB.QueryRowContext(ctx,
		sessionDetailQuery+" WHERE s.id=? LIMIT 1", id))
}

// ListAll returns every session with relations, newest first.
func (r *SessionRepo) ListAll(ctx context.Context) ([]SessionDetail, error) {
	rows, err := r.DB.QueryContext(ctx,
		sessionDetailQuery+" ORDER BY s.started_at DESC, s.id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

// ListPendingByVehicle returns a vehicle's sessions still awaiting an
// odometer entry, newest first.
func (r *SessionRepo) ListPendingByVehicle(ctx context.Context, vehicleID uint64) ([]SessionDetail, error) {
	rows, err := r.DB.QueryContext(ctx,
		sessionDetailQuery+" WHERE s.vehicle_id=? AND s.status=? ORDER BY s.started_at DESC, s.id DESC",
		vehicleID, model.SessionPendingOdometer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

// ListByVehicles returns sessions for any of the given vehicles,
// newest first.  An empty id list yields an empty result.
func (r *SessionRepo) ListByVehicles(ctx context.Context, vehicleIDs []uint64) ([]SessionDetail, error) {
	if len(vehicleIDs) == 0 {
		return []SessionDetail{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(vehicleIDs)), ",")
	args := make([]any, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		args = append(args, id)
	}
	rows, err := r.DB.QueryContext(ctx,
		sessionDetailQuery+" WHERE s.vehicle_id IN ("+placeholders+") ORDER BY s.started_at DESC, s.id DESC",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

// MarkCompleted transitions a session from PENDING_ODOMETER to
// COMPLETED.  The WHERE clause keeps the transition monotonic; a
// session already completed is left untouched and no error is
// returned (the target state is idempotent).
func (r *SessionRepo) MarkCompleted(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE charge_sessions SET status=? WHERE id=? AND status=?",
		model.SessionCompleted, id, model.SessionPendingOdometer)
	return err
}

func scanSession(sc rowScanner) (model.ChargeSession, error) {
	var (
		s         model.ChargeSession
		stationID sql.NullInt64
		tariffID  sql.NullInt64
		cardID    sql.NullInt64
		notes     sql.NullString
	)
	err := sc.Scan(&s.ID, &s.VehicleID, &stationID, &tariffID, &cardID,
		&s.StartedAt, &s.EndedAt, &s.KwhCharged, &s.PriceTotal, &s.Currency,
		&s.Status, &notes, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.ChargeSession{}, err
	}
	s.StationID = ptrID(stationID)
	s.TariffID = ptrID(tariffID)
	s.CardID = ptrID(cardID)
	s.Notes = ptrString(notes)
	return s, nil
}

func scanSessionDetail(sc rowScanner) (SessionDetail, error) {
	var (
		d           SessionDetail
		stationID   sql.NullInt64
		tariffID    sql.NullInt64
		cardID      sql.NullInt64
		notes       sql.NullString
		stationName sql.NullString
		tariffName  sql.NullString
	)
	err := sc.Scan(&d.ID, &d.VehicleID, &stationID, &tariffID, &cardID,
		&d.StartedAt, &d.EndedAt, &d.KwhCharged, &d.PriceTotal, &d.Currency,
		&d.Status, &notes, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		&d.VehicleRegistration, &d.VehicleMake, &d.VehicleModel, &stationName, &tariffName)
	if err != nil {
		return SessionDetail{}, err
	}
	d.StationID = ptrID(stationID)
	d.TariffID = ptrID(tariffID)
	d.CardID = ptrID(cardID)
	d.Notes = ptrString(notes)
	d.StationName = ptrString(stationName)
	d.TariffName = ptrString(tariffName)
	return d, nil
}

func collectDetails(rows *sql.Rows) ([]SessionDetail, error) {
	out := []SessionDetail{}
	for rows.Next() {
		d, err := scanSessionDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
