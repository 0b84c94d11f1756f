package invoices

import (
	"time"

	"github.com/treadline/treadline/internal/pricing"
)

// LineItemRequest is one line as submitted by an editor. Flat discount
// amounts arrive as the positive magnitude the operator typed; the
// pricing taxonomy negates them on entry.
type LineItemRequest struct {
	ItemType    string  `json:"item_type" validate:"required"`
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	UnitPrice   float64 `json:"unit_price"`
	ReferenceID *int64  `json:"reference_id,omitempty"`
}

// ClientTotals are the editor's locally computed figures, submitted so
// the server can detect drift between the two computations. They are
// never stored.
type ClientTotals struct {
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

// CreateInvoiceRequest creates a draft invoice.
type CreateInvoiceRequest struct {
	CustomerID    int64             `json:"customer_id" validate:"required,gt=0"`
	VehicleID     *int64            `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	GSTRate       *float64          `json:"gst_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	PSTRate       *float64          `json:"pst_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	Notes         *string           `json:"notes,omitempty"`
	Items         []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	ClientTotals  *ClientTotals     `json:"client_totals,omitempty"`
}

// ReplaceItemsRequest replaces the full item list of a draft invoice.
type ReplaceItemsRequest struct {
	Items        []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	ClientTotals *ClientTotals     `json:"client_totals,omitempty"`
}

// SetPaymentMethodRequest changes the payment method, letting the rate
// policy adjust the tax rates.
type SetPaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// SetRatesRequest manually overrides one or both tax rates.
type SetRatesRequest struct {
	GSTRate *float64 `json:"gst_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	PSTRate *float64 `json:"pst_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// SendEmailRequest queues the invoice PDF for email delivery. Subject
// and body fall back to sensible defaults when empty.
type SendEmailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject,omitempty" validate:"omitempty,max=200"`
	Body    string `json:"body,omitempty" validate:"omitempty,max=5000"`
}

// PreviewRequest asks for totals over an unsaved item list. The editor
// calls this after every mutation to drive the live preview.
type PreviewRequest struct {
	Items   []LineItemRequest `json:"items" validate:"dive"`
	GSTRate *float64          `json:"gst_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	PSTRate *float64          `json:"pst_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// PreviewResponse carries the recomputed totals and per-line amounts.
type PreviewResponse struct {
	LineTotals []float64      `json:"line_totals"`
	Totals     pricing.Totals `json:"totals"`
}

// ListInvoicesRequest filters the invoice listing.
type ListInvoicesRequest struct {
	CustomerID *int64
	Status     *InvoiceStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
