package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/treadline/treadline/internal/shared"
)

// Repository provides persistence for catalog entries.
type Repository interface {
	GetTire(ctx context.Context, id int64) (*Tire, error)
	ListTires(ctx context.Context) ([]Tire, error)
	CreateTire(ctx context.Context, t Tire) (int64, error)
	GetShopService(ctx context.Context, id int64) (*ShopService, error)
	ListShopServices(ctx context.Context) ([]ShopService, error)
	CreateShopService(ctx context.Context, s ShopService) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) GetTire(ctx context.Context, id int64) (*Tire, error) {
	var t Tire
	err := r.db.QueryRow(ctx,
		`SELECT id, brand, model, size, season, unit_price, in_stock, created_at, updated_at FROM tires WHERE id = $1`, id,
	).Scan(&t.ID, &t.Brand, &t.Model, &t.Size, &t.Season, &t.UnitPrice, &t.InStock, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListTires(ctx context.Context) ([]Tire, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, brand, model, size, season, unit_price, in_stock, created_at, updated_at FROM tires ORDER BY brand, model, size`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Tire
	for rows.Next() {
		var t Tire
		if err := rows.Scan(&t.ID, &t.Brand, &t.Model, &t.Size, &t.Season, &t.UnitPrice, &t.InStock, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *repository) CreateTire(ctx context.Context, t Tire) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO tires (brand, model, size, season, unit_price, in_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`,
		t.Brand, t.Model, t.Size, t.Season, t.UnitPrice, t.InStock).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create tire: %w", err)
	}
	return id, nil
}

func (r *repository) GetShopService(ctx context.Context, id int64) (*ShopService, error) {
	var s ShopService
	err := r.db.QueryRow(ctx,
		`SELECT id, name, unit_price, duration_minutes, created_at, updated_at FROM shop_services WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.UnitPrice, &s.DurationMinutes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListShopServices(ctx context.Context) ([]ShopService, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, unit_price, duration_minutes, created_at, updated_at FROM shop_services ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ShopService
	for rows.Next() {
		var s ShopService
		if err := rows.Scan(&s.ID, &s.Name, &s.UnitPrice, &s.DurationMinutes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *repository) CreateShopService(ctx context.Context, s ShopService) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO shop_services (name, unit_price, duration_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id`,
		s.Name, s.UnitPrice, s.DurationMinutes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create shop service: %w", err)
	}
	return id, nil
}
