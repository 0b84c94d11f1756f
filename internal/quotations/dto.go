package quotations

import (
	"time"

	"github.com/treadline/treadline/internal/invoices"
)

// CreateQuotationRequest creates a draft quotation. Line item and client
// totals shapes are shared with invoices: the editor builds both
// documents with the same grid.
type CreateQuotationRequest struct {
	CustomerID    int64                       `json:"customer_id" validate:"required,gt=0"`
	VehicleID     *int64                      `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	PaymentMethod string                      `json:"payment_method,omitempty"`
	GSTRate       *float64                    `json:"gst_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	PSTRate       *float64                    `json:"pst_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	Notes         *string                     `json:"notes,omitempty"`
	ValidUntil    *time.Time                  `json:"valid_until,omitempty"`
	Items         []invoices.LineItemRequest  `json:"items" validate:"required,min=1,dive"`
	ClientTotals  *invoices.ClientTotals      `json:"client_totals,omitempty"`
}

// ReplaceItemsRequest replaces the full item list of a draft quotation.
type ReplaceItemsRequest struct {
	Items        []invoices.LineItemRequest `json:"items" validate:"required,min=1,dive"`
	ClientTotals *invoices.ClientTotals     `json:"client_totals,omitempty"`
}

// SetPaymentMethodRequest changes the payment method, letting the rate
// policy adjust the tax rates.
type SetPaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// ListQuotationsRequest filters the quotation listing.
type ListQuotationsRequest struct {
	CustomerID *int64
	Status     *QuotationStatus
	Limit      int
	Offset     int
}
