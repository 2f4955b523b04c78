package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// VehicleRepo provides persistence for vehicles and their driver
// links.  The driver resolution workflow never queries the store
// itself; callers use GetWithDrivers to hand it a fully loaded
// vehicle.
type VehicleRepo struct{ DB *sql.DB }

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{DB: db} }

const vehicleColumns = "id,registration_no,make,model,year,battery_capacity_kwh,vin,color,status,assigned_driver_id,notes,created_at,updated_at"

// Create inserts a vehicle and returns its ID.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO vehicles (registration_no, make, model, year, battery_capacity_kwh, vin, color, status, assigned_driver_id, notes)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		strings.ToUpper(strings.TrimSpace(v.RegistrationNo)), v.Make, v.Model, v.Year,
		v.BatteryCapacityKwh, nullStringPtr(v.VIN), nullStringPtr(v.Color),
		v.Status, nullID(v.AssignedDriverID), nullStringPtr(v.Notes))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrRegistrationExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a vehicle row without relations.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (model.Vehicle, error) {
	return scanVehicle(r.DB.QueryRowContext(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles WHERE id=? LIMIT 1", id))
}

// GetWithDrivers fetches a vehicle with its assigned driver and all
// secondary driver links expanded, including each linked user row.
// This is the read operation backing driver resolution: the resolver
// itself works purely on the returned value.
func (r *VehicleRepo) GetWithDrivers(ctx context.Context, id uint64) (model.Vehicle, error) {
	v, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Vehicle{}, err
	}
	if v.AssignedDriverID != nil {
		u, err := NewUserRepo(r.DB).GetByID(ctx, *v.AssignedDriverID)
		if err != nil && err != sql.ErrNoRows {
			return model.Vehicle{}, err
		}
		if err == nil {
			v.AssignedDriver = &u
		}
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT uv.id, uv.user_id, uv.vehicle_id, uv.role_on_vehicle, uv.created_at,
		        u.id, u.email, u.password_hash, u.full_name, u.phone, u.role, u.is_active, u.last_login_at, u.created_at, u.updated_at
		   FROM user_vehicles uv
		   JOIN users u ON u.id = uv.user_id
		  WHERE uv.vehicle_id=?
		  ORDER BY uv.created_at ASC, uv.id ASC`, id)
	if err != nil {
		return model.Vehicle{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			link      model.UserVehicle
			u         model.User
			phone     sql.NullString
			lastLogin sql.NullTime
		)
		if err := rows.Scan(&link.ID, &link.UserID, &link.VehicleID, &link.RoleOnVehicle, &link.CreatedAt,
			&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &phone, &u.Role, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return model.Vehicle{}, err
		}
		u.Phone = ptrString(phone)
		u.LastLoginAt = ptrTime(lastLogin)
		link.User = &u
		v.DriverLinks = append(v.DriverLinks, link)
	}
	if err := rows.Err(); err != nil {
		return model.Vehicle{}, err
	}
	return v, nil
}

// List returns all vehicles ordered by registration number.
func (r *VehicleRepo) List(ctx context.Context) ([]model.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles ORDER BY registration_no ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVehicles(rows)
}

// ListByDriver returns every vehicle a user can act on: vehicles where
// the user is the assigned driver plus vehicles linked through
// user_vehicles.  Duplicates are collapsed by the UNION.
func (r *VehicleRepo) ListByDriver(ctx context.Context, userID uint64) ([]model.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE assigned_driver_id=?
		 UNION
		 SELECT v.id,v.registration_no,v.make,v.model,v.year,v.battery_capacity_kwh,v.vin,v.color,v.status,v.assigned_driver_id,v.notes,v.created_at,v.updated_at
		   FROM vehicles v JOIN user_vehicles uv ON uv.vehicle_id = v.id
		  WHERE uv.user_id=?
		 ORDER BY registration_no ASC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVehicles(rows)
}

// Update mutates the mutable vehicle fields.
func (r *VehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE vehicles SET registration_no=?, make=?, model=?, year=?, battery_capacity_kwh=?,
		        vin=?, color=?, status=?, assigned_driver_id=?, notes=?
		  WHERE id=?`,
		strings.ToUpper(strings.TrimSpace(v.RegistrationNo)), v.Make, v.Model, v.Year,
		v.BatteryCapacityKwh, nullStringPtr(v.VIN), nullStringPtr(v.Color),
		v.Status, nullID(v.AssignedDriverID), nullStringPtr(v.Notes), v.ID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrRegistrationExists
	}
	return err
}

// AddDriverLink attaches a secondary user to the vehicle.
func (r *VehicleRepo) AddDriverLink(ctx context.Context, vehicleID, userID uint64, roleOnVehicle string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_vehicles (user_id, vehicle_id, role_on_vehicle) VALUES (?,?,?)",
		userID, vehicleID, roleOnVehicle)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// RemoveDriverLink detaches a secondary user from the vehicle.
// Returns sql.ErrNoRows when no such link exists.
func (r *VehicleRepo) RemoveDriverLink(ctx context.Context, vehicleID, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_vehicles WHERE vehicle_id=? AND user_id=?", vehicleID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanVehicle(s rowScanner) (model.Vehicle, error) {
	var (
		v        model.Vehicle
		battery  decimal.Decimal
		vin      sql.NullString
		color    sql.NullString
		driverID sql.NullInt64
		notes    sql.NullString
	)
	err := s.Scan(&v.ID, &v.RegistrationNo, &v.Make, &v.Model, &v.Year, &battery,
		&vin, &color, &v.Status, &driverID, &notes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return model.Vehicle{}, err
	}
	v.BatteryCapacityKwh = battery
	v.VIN = ptrString(vin)
	v.Color = ptrString(color)
	v.AssignedDriverID = ptrID(driverID)
	v.Notes = ptrString(notes)
	return v, nil
}

func collectVehicles(rows *sql.Rows) ([]model.Vehicle, error) {
	out := []model.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// nullStringPtr maps a nil pointer to SQL NULL for optional text columns.
func nullStringPtr(s *string) sql.NullString {
	if s == nil || strings.TrimSpace(*s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
