package quotations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/treadline/treadline/internal/platform/db"
	"github.com/treadline/treadline/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	Create(ctx context.Context, q Quotation) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	InsertItem(ctx context.Context, item QuotationItem) (int64, error)
	DeleteItems(ctx context.Context, quotationID int64) error
	UpdateStatus(ctx context.Context, id int64, status QuotationStatus, at time.Time) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
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

const quotationColumns = `id, number, customer_id, vehicle_id, status, payment_method,
	gst_rate, pst_rate, subtotal, gst_amount, pst_amount, total_tax, total,
	notes, valid_until, invoice_id, sent_at, decided_at, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(
		&q.ID, &q.Number, &q.CustomerID, &q.VehicleID, &q.Status, &q.PaymentMethod,
		&q.GSTRate, &q.PSTRate, &q.Subtotal, &q.GSTAmount, &q.PSTAmount, &q.TotalTax, &q.Total,
		&q.Notes, &q.ValidUntil, &q.InvoiceID, &q.SentAt, &q.DecidedAt, &q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan quotation: %w", err)
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	q, err := scanQuotation(row)
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *repository) items(ctx context.Context, quotationID int64) ([]QuotationItem, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, quotation_id, item_type, description, quantity, unit_price, reference_id, line_total, line_order
		FROM quotation_items WHERE quotation_id = $1 ORDER BY line_order`, quotationID)
	if err != nil {
		return nil, fmt.Errorf("query quotation items: %w", err)
	}
	defer rows.Close()

	var items []QuotationItem
	for rows.Next() {
		var it QuotationItem
		if err := rows.Scan(&it.ID, &it.QuotationID, &it.Type, &it.Description, &it.Quantity,
			&it.UnitPrice, &it.ReferenceID, &it.LineTotal, &it.LineOrder); err != nil {
			return nil, fmt.Errorf("scan quotation item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
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

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM quotations WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotations: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM quotations WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quotationColumns, cond, idx, idx+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query quotations: %w", err)
	}
	defer rows.Close()

	var quotes []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO quotations (number, customer_id, vehicle_id, status, payment_method,
			gst_rate, pst_rate, subtotal, gst_amount, pst_amount, total_tax, total, notes, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		q.Number, q.CustomerID, q.VehicleID, q.Status, q.PaymentMethod,
		q.GSTRate, q.PSTRate, q.Subtotal, q.GSTAmount, q.PSTAmount, q.TotalTax, q.Total, q.Notes, q.ValidUntil,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quotation: %w", err)
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
		fmt.Sprintf(`UPDATE quotations SET %s WHERE id = $%d`, strings.Join(sets, ", "), idx), args...)
	if err != nil {
		return fmt.Errorf("update quotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, item QuotationItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO quotation_items (quotation_id, item_type, description, quantity, unit_price, reference_id, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		item.QuotationID, item.Type, item.Description, item.Quantity, item.UnitPrice,
		item.ReferenceID, item.LineTotal, item.LineOrder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quotation item: %w", err)
	}
	return id, nil
}

func (r *repository) DeleteItems(ctx context.Context, quotationID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id = $1`, quotationID); err != nil {
		return fmt.Errorf("delete quotation items: %w", err)
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status QuotationStatus, at time.Time) error {
	var query string
	switch status {
	case StatusSent:
		query = `UPDATE quotations SET status = $1, sent_at = $2, updated_at = now() WHERE id = $3`
	case StatusAccepted, StatusDeclined, StatusExpired:
		query = `UPDATE quotations SET status = $1, decided_at = $2, updated_at = now() WHERE id = $3`
	default:
		query = `UPDATE quotations SET status = $1, updated_at = now() WHERE id = $3`
	}

	tag, err := r.tx.Exec(ctx, query, status, at, id)
	if err != nil {
		return fmt.Errorf("update quotation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	if err := r.tx.QueryRow(ctx, `SELECT nextval('quotation_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("next quotation number: %w", err)
	}
	return fmt.Sprintf("QUO-%s-%06d", date.Format("2006"), seq), nil
}
