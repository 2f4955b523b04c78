package repository

import (
	"context"
	"database/sql"

	"github.com/ecarfleet/fleet-api/internal/model"
)

// TariffRepo provides CRUD for charging tariffs.
type TariffRepo struct{ DB *sql.DB }

func NewTariffRepo(db *sql.DB) *TariffRepo { return &TariffRepo{DB: db} }

const tariffColumns = "id,name,provider,price_per_kwh,currency,valid_from,valid_until,is_active,description,created_at,updated_at"

func (r *TariffRepo) Create(ctx context.Context, t *model.Tariff) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tariffs (name, provider, price_per_kwh, currency, valid_from, valid_until, is_active, description)
		 VALUES (?,?,?,?,?,?,?,?)`,
		t.Name, nullStringPtr(t.Provider), t.PricePerKwh, t.Currency,
		t.ValidFrom, nullTime(t.ValidUntil), t.IsActive, nullStringPtr(t.Description))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *TariffRepo) GetByID(ctx context.Context, id uint64) (model.Tariff, error) {
	return scanTariff(r.DB.QueryRowContext(ctx,
		"SELECT "+tariffColumns+" FROM tariffs WHERE id=? LIMIT 1", id))
}

func (r *TariffRepo) List(ctx context.Context) ([]model.Tariff, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tariffColumns+" FROM tariffs ORDER BY valid_from DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Tariff{}
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TariffRepo) Update(ctx context.Context, t *model.Tariff) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE tariffs SET name=?, provider=?, price_per_kwh=?, currency=?, valid_from=?, valid_until=?, is_active=?, description=?
		  WHERE id=?`,
		t.Name, nullStringPtr(t.Provider), t.PricePerKwh, t.Currency,
		t.ValidFrom, nullTime(t.ValidUntil), t.IsActive, nullStringPtr(t.Description), t.ID)
	return err
}

func scanTariff(sc rowScanner) (model.Tariff, error) {
	var (
		t          model.Tariff
		provider   sql.NullString
		validUntil sql.NullTime
		desc       sql.NullString
	)
	err := sc.Scan(&t.ID, &t.Name, &provider, &t.PricePerKwh, &t.Currency,
		&t.ValidFrom, &validUntil, &t.IsActive, &desc, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Tariff{}, err
	}
	t.Provider = ptrString(provider)
	t.ValidUntil = ptrTime(validUntil)
	t.Description = ptrString(desc)
	return t, nil
}
