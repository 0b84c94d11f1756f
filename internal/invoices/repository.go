package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/treadline/treadline/internal/platform/db"
	"github.com/treadline/treadline/internal/shared"
)

// Repository provides persistence for invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	InsertItem(ctx context.Context, item InvoiceItem) (int64, error)
	DeleteItems(ctx context.Context, invoiceID int64) error
	UpdateStatus(ctx context.Context, id int64, status InvoiceStatus, at time.Time) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const invoiceColumns = `id, number, customer_id, vehicle_id, status, payment_method,
	gst_rate, pst_rate, subtotal, gst_amount, pst_amount, total_tax, total,
	notes, issued_at, paid_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.CustomerID, &inv.VehicleID, &inv.Status, &inv.PaymentMethod,
		&inv.GSTRate, &inv.PSTRate, &inv.Subtotal, &inv.GSTAmount, &inv.PSTAmount, &inv.TotalTax, &inv.Total,
		&inv.Notes, &inv.IssuedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE id = $1", invoiceColumns)
	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func (r *repository) items(ctx context.Context, invoiceID int64) ([]InvoiceItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, item_type, description, quantity, unit_price, reference_id, line_total, line_order
		FROM invoice_items WHERE invoice_id = $1 ORDER BY line_order, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Type, &it.Description, &it.Quantity, &it.UnitPrice, &it.ReferenceID, &it.LineTotal, &it.LineOrder); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(
			&inv.ID, &inv.Number, &inv.CustomerID, &inv.VehicleID, &inv.Status, &inv.PaymentMethod,
			&inv.GSTRate, &inv.PSTRate, &inv.Subtotal, &inv.GSTAmount, &inv.PSTAmount, &inv.TotalTax, &inv.Total,
			&inv.Notes, &inv.IssuedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	query := `
		INSERT INTO invoices (
			number, customer_id, vehicle_id, status, payment_method,
			gst_rate, pst_rate, subtotal, gst_amount, pst_amount, total_tax, total,
			notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		inv.Number, inv.CustomerID, inv.VehicleID, inv.Status, inv.PaymentMethod,
		inv.GSTRate, inv.PSTRate, inv.Subtotal, inv.GSTAmount, inv.PSTAmount, inv.TotalTax, inv.Total,
		inv.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create invoice: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	setClause := ""
	var args []interface{}
	argPos := 1
	for col, val := range updates {
		if setClause != "" {
			setClause += ", "
		}
		setClause += fmt.Sprintf("%s = $%d", col, argPos)
		args = append(args, val)
		argPos++
	}
	query := fmt.Sprintf("UPDATE invoices SET %s, updated_at = NOW() WHERE id = $%d", setClause, argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, item InvoiceItem) (int64, error) {
	query := `
		INSERT INTO invoice_items (invoice_id, item_type, description, quantity, unit_price, reference_id, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, query,
		item.InvoiceID, item.Type, item.Description, item.Quantity, item.UnitPrice, item.ReferenceID, item.LineTotal, item.LineOrder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert invoice item: %w", err)
	}
	return id, nil
}

func (r *repository) DeleteItems(ctx context.Context, invoiceID int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", invoiceID)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus, at time.Time) error {
	var query string
	switch status {
	case StatusIssued:
		query = "UPDATE invoices SET status = $1, issued_at = $2, updated_at = NOW() WHERE id = $3"
	case StatusPaid:
		query = "UPDATE invoices SET status = $1, paid_at = $2, updated_at = NOW() WHERE id = $3"
	default:
		query = "UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2"
		tag, err := r.db.Exec(ctx, query, status, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	}

	tag, err := r.db.Exec(ctx, query, status, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, "SELECT nextval('invoice_number_seq')").Scan(&seq); err != nil {
		return "", fmt.Errorf("generate invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%s-%06d", date.Format("2006"), seq), nil
}
