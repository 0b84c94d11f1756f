package quotations

import (
	"time"

	"github.com/treadline/treadline/internal/pricing"
)

// QuotationStatus enumerates quotation lifecycle states.
type QuotationStatus string

const (
	StatusDraft    QuotationStatus = "DRAFT"
	StatusSent     QuotationStatus = "SENT"
	StatusAccepted QuotationStatus = "ACCEPTED"
	StatusDeclined QuotationStatus = "DECLINED"
	StatusExpired  QuotationStatus = "EXPIRED"
)

// Quotation model. Monetary fields are derived by the pricing engine,
// exactly as on invoices, so a converted quote carries its figures over
// without re-entry.
type Quotation struct {
	ID            int64                 `json:"id"`
	Number        string                `json:"number"`
	CustomerID    int64                 `json:"customer_id"`
	VehicleID     *int64                `json:"vehicle_id,omitempty"`
	Status        QuotationStatus       `json:"status"`
	PaymentMethod pricing.PaymentMethod `json:"payment_method,omitempty"`
	GSTRate       float64               `json:"gst_rate"`
	PSTRate       float64               `json:"pst_rate"`
	Subtotal      float64               `json:"subtotal"`
	GSTAmount     float64               `json:"gst_amount"`
	PSTAmount     float64               `json:"pst_amount"`
	TotalTax      float64               `json:"total_tax"`
	Total         float64               `json:"total"`
	Notes         *string               `json:"notes,omitempty"`
	ValidUntil    *time.Time            `json:"valid_until,omitempty"`
	InvoiceID     *int64                `json:"invoice_id,omitempty"`
	Items         []QuotationItem       `json:"items,omitempty"`
	SentAt        *time.Time            `json:"sent_at,omitempty"`
	DecidedAt     *time.Time            `json:"decided_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// QuotationItem is one persisted line of a quotation.
type QuotationItem struct {
	ID          int64            `json:"id"`
	QuotationID int64            `json:"quotation_id"`
	Type        pricing.ItemType `json:"item_type"`
	Description string           `json:"description"`
	Quantity    int              `json:"quantity"`
	UnitPrice   float64          `json:"unit_price"`
	ReferenceID *int64           `json:"reference_id,omitempty"`
	LineTotal   float64          `json:"line_total"`
	LineOrder   int              `json:"line_order"`
}

// PricingItems converts persisted lines into engine line items.
func PricingItems(items []QuotationItem) []pricing.LineItem {
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
