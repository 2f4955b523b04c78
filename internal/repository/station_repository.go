package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// StationRepo provides CRUD for charging stations.
type StationRepo struct{ DB *sql.DB }

func NewStationRepo(db *sql.DB) *StationRepo { return &StationRepo{DB: db} }

const stationColumns = "id,name,location,address,latitude,longitude,provider,power_kw,is_active,notes,created_at,updated_at"

func (r *StationRepo) Create(ctx context.Context, s *model.Station) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO stations (name, location, address, latitude, longitude, provider, power_kw, is_active, notes)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		s.Name, nullStringPtr(s.Location), nullStringPtr(s.Address),
		nullDecimal(s.Latitude), nullDecimal(s.Longitude),
		nullStringPtr(s.Provider), nullDecimal(s.PowerKw), s.IsActive, nullStringPtr(s.Notes))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *StationRepo) GetByID(ctx context.Context, id uint64) (model.Station, error) {
	return scanStation(r.DB.QueryRowContext(ctx,
		"SELECT "+stationColumns+" FROM stations WHERE id=? LIMIT 1", id))
}

func (r *StationRepo) List(ctx context.Context) ([]model.Station, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+stationColumns+" FROM stations ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Station{}
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *StationRepo) Update(ctx context.Context, s *model.Station) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE stations SET name=?, location=?, address=?, latitude=?, longitude=?, provider=?, power_kw=?, is_active=?, notes=?
		  WHERE id=?`,
		s.Name, nullStringPtr(s.Location), nullStringPtr(s.Address),
		nullDecimal(s.Latitude), nullDecimal(s.Longitude),
		nullStringPtr(s.Provider), nullDecimal(s.PowerKw), s.IsActive, nullStringPtr(s.Notes), s.ID)
	return err
}

func scanStation(sc rowScanner) (model.Station, error) {
	var (
		s        model.Station
		location sql.NullString
		address  sql.NullString
		lat      decimal.NullDecimal
		lng      decimal.NullDecimal
		provider sql.NullString
		power    decimal.NullDecimal
		notes    sql.NullString
	)
	err := sc.Scan(&s.ID, &s.Name, &location, &address, &lat, &lng, &provider, &power,
		&s.IsActive, &notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Station{}, err
	}
	s.Location = ptrString(location)
	s.Address = ptrString(address)
	s.Latitude = ptrDecimal(lat)
	s.Longitude = ptrDecimal(lng)
	s.Provider = ptrString(provider)
	s.PowerKw = ptrDecimal(power)
	s.Notes = ptrString(notes)
	return s, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func ptrDecimal(nd decimal.NullDecimal) *decimal.Decimal {
	if !nd.Valid {
		return nil
	}
	d := nd.Decimal
	return &d
}
