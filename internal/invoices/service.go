package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/pricing"
	"github.com/treadline/treadline/internal/shared"
)

// totalsTolerance is the largest client/server drift treated as float
// noise rather than a diverging implementation.
const totalsTolerance = 0.005

// Dispatcher hands finished invoices to background work: PDF pre-render
// on issue, email delivery on request. A nil dispatcher disables both.
type Dispatcher interface {
	InvoiceIssued(ctx context.Context, invoiceID int64)
	EmailInvoice(ctx context.Context, invoiceID int64, to, subject, body string) error
}

// Service implements invoice use cases. Totals are always recomputed
// here with the pricing engine, regardless of what an editor sent along;
// a drift between the two computations is surfaced, never reconciled.
type Service struct {
	repo         Repository
	customerRepo customers.Repository
	policy       pricing.RatePolicy
	dispatcher   Dispatcher
	logger       *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, customerRepo customers.Repository, policy pricing.RatePolicy, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		customerRepo: customerRepo,
		policy:       policy,
		logger:       logger,
	}
}

// SetDispatcher attaches the background dispatcher. Called during
// wiring; the service works without one.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// buildItems validates and normalizes submitted lines through the
// pricing taxonomy and caches each resolved line total for display.
func buildItems(reqs []LineItemRequest) ([]InvoiceItem, error) {
	lineItems := make([]pricing.LineItem, 0, len(reqs))
	for i, lr := range reqs {
		item, err := pricing.NewLineItem(pricing.ItemType(lr.ItemType), lr.Description, lr.Quantity, lr.UnitPrice, lr.ReferenceID)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", shared.ErrValidation, i+1, err)
		}
		lineItems = append(lineItems, item)
	}

	items := make([]InvoiceItem, len(lineItems))
	for i, li := range lineItems {
		items[i] = InvoiceItem{
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

// checkClientTotals compares the editor's figures against the server
// recomputation. The server value always wins; a real mismatch is a
// data-integrity signal worth logging.
func (s *Service) checkClientTotals(client *ClientTotals, totals pricing.Totals) {
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

func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
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
	// A freshly selected method still goes through the policy so a cash
	// invoice is created tax-free no matter what rates came along.
	gstRate, pstRate = s.policy.Apply(pricing.PaymentNone, method, gstRate, pstRate)

	totals := pricing.ComputeTotals(PricingItems(items), gstRate, pstRate)
	s.checkClientTotals(req.ClientTotals, totals)

	number, err := s.repo.GenerateNumber(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}

	invoice := Invoice{
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
	}

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, invoice)
		if err != nil {
			return err
		}
		invoiceID = id
		for _, item := range items {
			item.InvoiceID = id
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, invoiceID)
}

// ReplaceItems swaps the full item list of a draft invoice and
// recomputes every derived figure from scratch. There is no per-line
// patch operation: a percentage discount's value depends on the whole
// list, so partial updates cannot be priced correctly.
func (s *Service) ReplaceItems(ctx context.Context, id int64, req ReplaceItemsRequest) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT invoices can be edited", shared.ErrInvalidStatus)
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
			item.InvoiceID = id
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		return repo.Update(ctx, id, totalsUpdates(totals))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// SetPaymentMethod applies the rate policy to the stored-to-submitted
// method transition and recomputes totals under the resulting rates.
func (s *Service) SetPaymentMethod(ctx context.Context, id int64, req SetPaymentMethodRequest) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT invoices can be edited", shared.ErrInvalidStatus)
	}

	next := pricing.PaymentMethod(req.PaymentMethod)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", shared.ErrValidation, req.PaymentMethod)
	}

	gstRate, pstRate := s.policy.Apply(existing.PaymentMethod, next, existing.GSTRate, existing.PSTRate)
	totals := pricing.ComputeTotals(PricingItems(existing.Items), gstRate, pstRate)

	updates := totalsUpdates(totals)
	updates["payment_method"] = string(next)
	updates["gst_rate"] = gstRate
	updates["pst_rate"] = pstRate
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// SetRates manually overrides the tax rates and recomputes.
func (s *Service) SetRates(ctx context.Context, id int64, req SetRatesRequest) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT invoices can be edited", shared.ErrInvalidStatus)
	}

	gstRate := existing.GSTRate
	pstRate := existing.PSTRate
	if req.GSTRate != nil {
		gstRate = *req.GSTRate
	}
	if req.PSTRate != nil {
		pstRate = *req.PSTRate
	}

	totals := pricing.ComputeTotals(PricingItems(existing.Items), gstRate, pstRate)
	updates := totalsUpdates(totals)
	updates["gst_rate"] = gstRate
	updates["pst_rate"] = pstRate
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Issue(ctx context.Context, id int64) (*Invoice, error) {
	invoice, err := s.transition(ctx, id, StatusDraft, StatusIssued)
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		s.dispatcher.InvoiceIssued(ctx, id)
	}
	return invoice, nil
}

// SendEmail queues the invoice PDF for delivery to the given address.
func (s *Service) SendEmail(ctx context.Context, id int64, req SendEmailRequest) error {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status == StatusDraft || invoice.Status == StatusVoid {
		return fmt.Errorf("%w: cannot email a %s invoice", shared.ErrInvalidStatus, invoice.Status)
	}
	if s.dispatcher == nil {
		return fmt.Errorf("%w: email delivery is not configured", shared.ErrValidation)
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Invoice %s", invoice.Number)
	}
	body := req.Body
	if body == "" {
		body = fmt.Sprintf("Please find invoice %s attached.", invoice.Number)
	}
	return s.dispatcher.EmailInvoice(ctx, id, req.To, subject, body)
}

func (s *Service) MarkPaid(ctx context.Context, id int64) (*Invoice, error) {
	return s.transition(ctx, id, StatusIssued, StatusPaid)
}

func (s *Service) Void(ctx context.Context, id int64) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusDraft && existing.Status != StatusIssued {
		return nil, fmt.Errorf("%w: cannot void a %s invoice", shared.ErrInvalidStatus, existing.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusVoid, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) transition(ctx context.Context, id int64, from, to InvoiceStatus) (*Invoice, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != from {
		return nil, fmt.Errorf("%w: cannot move %s invoice to %s", shared.ErrInvalidStatus, existing.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	return s.repo.List(ctx, req)
}

// Preview prices an unsaved item list. It runs exactly the same pipeline
// as Create and ReplaceItems so the live editor preview can never drift
// from what will be persisted.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
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

	lineItems := PricingItems(items)
	lineTotals := make([]float64, len(lineItems))
	for i, li := range lineItems {
		lineTotals[i] = pricing.LineTotal(li, lineItems)
	}

	return &PreviewResponse{
		LineTotals: lineTotals,
		Totals:     pricing.ComputeTotals(lineItems, gstRate, pstRate),
	}, nil
}

func totalsUpdates(t pricing.Totals) map[string]interface{} {
	return map[string]interface{}{
		"subtotal":   t.Subtotal,
		"gst_amount": t.GSTAmount,
		"pst_amount": t.PSTAmount,
		"total_tax":  t.TotalTax,
		"total":      t.Total,
	}
}
