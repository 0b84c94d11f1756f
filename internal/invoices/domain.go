package invoices

import (
	"time"

	"github.com/treadline/treadline/internal/pricing"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft  InvoiceStatus = "DRAFT"
	StatusIssued InvoiceStatus = "ISSUED"
	StatusPaid   InvoiceStatus = "PAID"
	StatusVoid   InvoiceStatus = "VOID"
)

// Invoice model. The monetary fields are derived: they are written only
// by the service after running the pricing engine over the items, never
// accepted from a client.
type Invoice struct {
	ID            int64                 `json:"id"`
	Number        string                `json:"number"`
	CustomerID    int64                 `json:"customer_id"`
	VehicleID     *int64                `json:"vehicle_id,omitempty"`
	Status        InvoiceStatus         `json:"status"`
	PaymentMethod pricing.PaymentMethod `json:"payment_method,omitempty"`
	GSTRate       float64               `json:"gst_rate"`
	PSTRate       float64               `json:"pst_rate"`
	Subtotal      float64               `json:"subtotal"`
	GSTAmount     float64               `json:"gst_amount"`
	PSTAmount     float64               `json:"pst_amount"`
	TotalTax      float64               `json:"total_tax"`
	Total         float64               `json:"total"`
	Notes         *string               `json:"notes,omitempty"`
	Items         []InvoiceItem         `json:"items,omitempty"`
	IssuedAt      *time.Time            `json:"issued_at,omitempty"`
	PaidAt        *time.Time            `json:"paid_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// InvoiceItem is one persisted line of an invoice. LineTotal is a cached
// display value; the engine recomputes the authoritative figure on every
// read that matters.
type InvoiceItem struct {
	ID          int64            `json:"id"`
	InvoiceID   int64            `json:"invoice_id"`
	Type        pricing.ItemType `json:"item_type"`
	Description string           `json:"description"`
	Quantity    int              `json:"quantity"`
	UnitPrice   float64          `json:"unit_price"`
	ReferenceID *int64           `json:"reference_id,omitempty"`
	LineTotal   float64          `json:"line_total"`
	LineOrder   int              `json:"line_order"`
}

// PricingItems converts persisted lines into engine line items.
func PricingItems(items []InvoiceItem) []pricing.LineItem {
	out := make([]pricing.LineItem, len(items))
	for i, it := range items {
		out[i] = pricing.LineItem{
			Type:        it.Type,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			ReferenceID: it.ReferenceID,
		}
	}
	return out
}
