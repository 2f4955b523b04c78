package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// ChargeCardRepo provides CRUD for RFID charge cards.  Card numbers
// are unique; session creation by card number goes through
// GetByCardNumber to resolve the owning vehicle.
type ChargeCardRepo struct{ DB *sql.DB }

func NewChargeCardRepo(db *sql.DB) *ChargeCardRepo { return &ChargeCardRepo{DB: db} }

const cardColumns = "id,card_number,vehicle_id,provider,is_active,notes,created_at,updated_at"

func (r *ChargeCardRepo) Create(ctx context.Context, c *model.ChargeCard) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO charge_cards (card_number, vehicle_id, provider, is_active, notes) VALUES (?,?,?,?,?)",
		strings.TrimSpace(c.CardNumber), c.VehicleID, nullStringPtr(c.Provider), c.IsActive, nullStringPtr(c.Notes))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrCardNumberExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *ChargeCardRepo) GetByID(ctx context.Context, id uint64) (model.ChargeCard, error) {
	return scanCard(r.DB.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM charge_cards WHERE id=? LIMIT 1", id))
}

// GetByCardNumber looks a card up by its exact number.
func (r *ChargeCardRepo) GetByCardNumber(ctx context.Context, number string) (model.ChargeCard, error) {
	return scanCard(r.DB.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM charge_cards WHERE card_number=? LIMIT 1",
		strings.TrimSpace(number)))
}

func (r *ChargeCardRepo) List(ctx context.Context) ([]model.ChargeCard, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+cardColumns+" FROM charge_cards ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ChargeCard{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ChargeCardRepo) Update(ctx context.Context, c *model.ChargeCard) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE charge_cards SET card_number=?, vehicle_id=?, provider=?, is_active=?, notes=? WHERE id=?",
		strings.TrimSpace(c.CardNumber), c.VehicleID, nullStringPtr(c.Provider), c.IsActive, nullStringPtr(c.Notes), c.ID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrCardNumberExists
	}
	return err
}

func scanCard(sc rowScanner) (model.ChargeCard, error) {
	var (
		c        model.ChargeCard
		provider sql.NullString
		notes    sql.NullString
	)
	err := sc.Scan(&c.ID, &c.CardNumber, &c.VehicleID, &provider, &c.IsActive, &notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.ChargeCard{}, err
	}
	c.Provider = ptrString(provider)
	c.Notes = ptrString(notes)
	return c, nil
}
