package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/treadline/treadline/internal/platform/db"
	"github.com/treadline/treadline/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Booking, error)
	List(ctx context.Context, req ListBookingsRequest) ([]Booking, int, error)
	Create(ctx context.Context, b Booking) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	InsertService(ctx context.Context, bs BookingService) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status BookingStatus) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	pool *pgxpool.Pool
	tx   dbtx
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, tx: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{pool: r.pool, tx: tx})
	})
}

const bookingColumns = `id, customer_id, vehicle_id, status, scheduled_at, notes, invoice_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.CustomerID, &b.VehicleID, &b.Status, &b.ScheduledAt,
		&b.Notes, &b.InvoiceID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	return &b, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Booking, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(ctx,
		`SELECT id, booking_id, service_id, quantity FROM booking_services WHERE booking_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query booking services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bs BookingService
		if err := rows.Scan(&bs.ID, &bs.BookingID, &bs.ServiceID, &bs.Quantity); err != nil {
			return nil, fmt.Errorf("scan booking service: %w", err)
		}
		b.Services = append(b.Services, bs)
	}
	return b, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListBookingsRequest) ([]Booking, int, error) {
	where := []string{"1=1"}
	var args []interface{}
	idx := 1

	if req.CustomerID != nil {
		where = append(where, fmt.Sprintf("customer_id = $%d", idx))
		args = append(args, *req.CustomerID)
		idx++
	}
	if req.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", idx))
		args = append(args, *req.Status)
		idx++
	}
	if req.DateFrom != nil {
		where = append(where, fmt.Sprintf("scheduled_at >= $%d", idx))
		args = append(args, *req.DateFrom)
		idx++
	}
	if req.DateTo != nil {
		where = append(where, fmt.Sprintf("scheduled_at < $%d", idx))
		args = append(args, *req.DateTo)
		idx++
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY scheduled_at LIMIT $%d OFFSET $%d`,
		bookingColumns, cond, idx, idx+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, b Booking) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO bookings (customer_id, vehicle_id, status, scheduled_at, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		b.CustomerID, b.VehicleID, b.Status, b.ScheduledAt, b.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	sets := make([]string, 0, len(updates)+1)
	var args []interface{}
	idx := 1
	for col, val := range updates {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	tag, err := r.tx.Exec(ctx,
		fmt.Sprintf(`UPDATE bookings SET %s WHERE id = $%d`, strings.Join(sets, ", "), idx), args...)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertService(ctx context.Context, bs BookingService) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO booking_services (booking_id, service_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id`,
		bs.BookingID, bs.ServiceID, bs.Quantity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert booking service: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status BookingStatus) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
