package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/invoices"
	"github.com/treadline/treadline/internal/pricing"
	"github.com/treadline/treadline/internal/shared"
)

const totalsTolerance = 0.005

// InvoiceCreator is the slice of the invoice service a conversion needs.
type InvoiceCreator interface {
	Create(ctx context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error)
}

// Service implements quotation use cases. Pricing runs through the same
// engine as invoices so a quote and its converted invoice always agree.
type Service struct {
	repo         Repository
	customerRepo customers.Repository
	invoiceSvc   InvoiceCreator
	policy       pricing.RatePolicy
	logger       *slog.Logger
}

func NewService(repo Repository, customerRepo customers.Repository, invoiceSvc InvoiceCreator, policy pricing.RatePolicy, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		customerRepo: customerRepo,
		invoiceSvc:   invoiceSvc,
		policy:       policy,
		logger:       logger,
	}
}

func buildItems(reqs []invoices.LineItemRequest) ([]QuotationItem, error) {
	lineItems := make([]pricing.LineItem, 0, len(reqs))
	for i, lr := range reqs {
		item, err := pricing.NewLineItem(pricing.ItemType(lr.ItemType), lr.Description, lr.Quantity, lr.UnitPrice, lr.ReferenceID)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", shared.ErrValidation, i+1, err)
		}
		lineItems = append(lineItems, item)
	}

	items := make([]QuotationItem, len(lineItems))
	for i, li := range lineItems {
		items[i] = QuotationItem{
			Type:        li.Type,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			ReferenceID: li.ReferenceID,
			LineTotal:   pricing.LineTotal(li, lineItems),
			LineOrder:   i + 1,
		}
	}
	return items, nil
}

func (s *Service) checkClientTotals(client *invoices.ClientTotals, totals pricing.Totals) {
	if client == nil {
		return
	}
	if math.Abs(client.Subtotal-totals.Subtotal) > totalsTolerance ||
		math.Abs(client.Total-totals.Total) > totalsTolerance {
		s.logger.Warn("client totals mismatch, using server computation",
			slog.Float64("client_subtotal", client.Subtotal),
			slog.Float64("server_subtotal", totals.Subtotal),
			slog.Float64("client_total", client.Total),
			slog.Float64("server_total", totals.Total),
		)
	}
}

func (s *Service) Create(ctx context.Context, req CreateQuotationRequest) (*Quotation, error) {
	if _, err := s.customerRepo.Get(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}

	method := pricing.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", shared.ErrValidation, req.PaymentMethod)
	}

	items, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	gstRate := s.policy.DefaultGSTRate
	pstRate := s.policy.DefaultPSTRate
	if req.GSTRate != nil {
		gstRate = *req.GSTRate
	}
	if req.PSTRate != nil {
		pstRate = *req.PSTRate
	}
	gstRate, pstRate = s.policy.Apply(pricing.PaymentNone, method, gstRate, pstRate)

	totals := pricing.ComputeTotals(PricingItems(items), gstRate, pstRate)
	s.checkClientTotals(req.ClientTotals, totals)

	number, err := s.repo.GenerateNumber(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate quotation number: %w", err)
	}

	quote := Quotation{
		Number:        number,
		CustomerID:    req.CustomerID,
		VehicleID:     req.VehicleID,
		Status:        StatusDraft,
		PaymentMethod: method,
		GSTRate:       gstRate,
		PSTRate:       pstRate,
		Subtotal:      totals.Subtotal,
		GSTAmount:     totals.GSTAmount,
		PSTAmount:     totals.PSTAmount,
		TotalTax:      totals.TotalTax,
		Total:         totals.Total,
		Notes:         req.Notes,
		ValidUntil:    req.ValidUntil,
	}

	var quoteID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, quote)
		if err != nil {
			return err
		}
		quoteID = id
		for _, item := range items {
			item.QuotationID = id
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, quoteID)
}

func (s *Service) ReplaceItems(ctx context.Context, id int64, req ReplaceItemsRequest) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT quotations can be edited", shared.ErrInvalidStatus)
	}

	items, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	totals := pricing.ComputeTotals(PricingItems(items), existing.GSTRate, existing.PSTRate)
	s.checkClientTotals(req.ClientTotals, totals)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteItems(ctx, id); err != nil {
			return err
		}
		for _, item := range items {
			item.QuotationID = id
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		return repo.Update(ctx, id, map[string]interface{}{
			"subtotal":   totals.Subtotal,
			"gst_amount": totals.GSTAmount,
			"pst_amount": totals.PSTAmount,
			"total_tax":  totals.TotalTax,
			"total":      totals.Total,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) SetPaymentMethod(ctx context.Context, id int64, req SetPaymentMethodRequest) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT quotations can be edited", shared.ErrInvalidStatus)
	}

	next := pricing.PaymentMethod(req.PaymentMethod)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", shared.ErrValidation, req.PaymentMethod)
	}

	gstRate, pstRate := s.policy.Apply(existing.PaymentMethod, next, existing.GSTRate, existing.PSTRate)
	totals := pricing.ComputeTotals(PricingItems(existing.Items), gstRate, pstRate)

	err = s.repo.Update(ctx, id, map[string]interface{}{
		"payment_method": string(next),
		"gst_rate":       gstRate,
		"pst_rate":       pstRate,
		"subtotal":       totals.Subtotal,
		"gst_amount":     totals.GSTAmount,
		"pst_amount":     totals.PSTAmount,
		"total_tax":      totals.TotalTax,
		"total":          totals.Total,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Send(ctx context.Context, id int64) (*Quotation, error) {
	return s.transition(ctx, id, StatusDraft, StatusSent)
}

// Accept marks a sent quotation accepted. An expired quote cannot be
// accepted; it is flipped to EXPIRED on the spot.
func (s *Service) Accept(ctx context.Context, id int64) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusSent {
		return nil, fmt.Errorf("%w: cannot accept a %s quotation", shared.ErrInvalidStatus, existing.Status)
	}
	if existing.ValidUntil != nil && existing.ValidUntil.Before(time.Now()) {
		if err := s.repo.UpdateStatus(ctx, id, StatusExpired, time.Now()); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: quotation expired on %s", shared.ErrInvalidStatus, existing.ValidUntil.Format("2006-01-02"))
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusAccepted, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Decline(ctx context.Context, id int64) (*Quotation, error) {
	return s.transition(ctx, id, StatusSent, StatusDeclined)
}

// ConvertToInvoice creates a draft invoice from an accepted quotation.
// Stored flat discount lines carry negative amounts; the invoice intake
// expects the positive magnitude, so they are flipped back on the way in.
func (s *Service) ConvertToInvoice(ctx context.Context, id int64) (*invoices.Invoice, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != StatusAccepted {
		return nil, fmt.Errorf("%w: only ACCEPTED quotations can be converted", shared.ErrInvalidStatus)
	}
	if quote.InvoiceID != nil {
		return nil, fmt.Errorf("%w: quotation already converted to invoice %d", shared.ErrDuplicate, *quote.InvoiceID)
	}

	lines := make([]invoices.LineItemRequest, len(quote.Items))
	for i, it := range quote.Items {
		price := it.UnitPrice
		if it.Type == pricing.ItemDiscount {
			price = -price
		}
		lines[i] = invoices.LineItemRequest{
			ItemType:    string(it.Type),
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   price,
			ReferenceID: it.ReferenceID,
		}
	}

	invoice, err := s.invoiceSvc.Create(ctx, invoices.CreateInvoiceRequest{
		CustomerID:    quote.CustomerID,
		VehicleID:     quote.VehicleID,
		PaymentMethod: string(quote.PaymentMethod),
		GSTRate:       &quote.GSTRate,
		PSTRate:       &quote.PSTRate,
		Notes:         quote.Notes,
		Items:         lines,
	})
	if err != nil {
		return nil, fmt.Errorf("convert quotation %d: %w", id, err)
	}

	if err := s.repo.Update(ctx, id, map[string]interface{}{"invoice_id": invoice.ID}); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Service) transition(ctx context.Context, id int64, from, to QuotationStatus) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != from {
		return nil, fmt.Errorf("%w: cannot move %s quotation to %s", shared.ErrInvalidStatus, existing.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	return s.repo.List(ctx, req)
}
