package quotations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/invoices"
	"github.com/treadline/treadline/internal/pricing"
	"github.com/treadline/treadline/internal/shared"
)

type mockRepo struct {
	quotes map[int64]*Quotation
	items  map[int64][]QuotationItem
	nextID int64
	seq    int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{quotes: map[int64]*Quotation{}, items: map[int64][]QuotationItem{}}
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Quotation, error) {
	q, ok := m.quotes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *q
	cp.Items = append([]QuotationItem(nil), m.items[id]...)
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	var out []Quotation
	for _, q := range m.quotes {
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(_ context.Context, q Quotation) (int64, error) {
	m.nextID++
	q.ID = m.nextID
	q.CreatedAt = time.Now()
	m.quotes[q.ID] = &q
	return q.ID, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	q, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "subtotal":
			q.Subtotal = v.(float64)
		case "gst_amount":
			q.GSTAmount = v.(float64)
		case "pst_amount":
			q.PSTAmount = v.(float64)
		case "total_tax":
			q.TotalTax = v.(float64)
		case "total":
			q.Total = v.(float64)
		case "gst_rate":
			q.GSTRate = v.(float64)
		case "pst_rate":
			q.PSTRate = v.(float64)
		case "payment_method":
			q.PaymentMethod = pricing.PaymentMethod(v.(string))
		case "invoice_id":
			invoiceID := v.(int64)
			q.InvoiceID = &invoiceID
		}
	}
	return nil
}

func (m *mockRepo) InsertItem(_ context.Context, item QuotationItem) (int64, error) {
	item.ID = int64(len(m.items[item.QuotationID]) + 1)
	m.items[item.QuotationID] = append(m.items[item.QuotationID], item)
	return item.ID, nil
}

func (m *mockRepo) DeleteItems(_ context.Context, quotationID int64) error {
	delete(m.items, quotationID)
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id int64, status QuotationStatus, at time.Time) error {
	q, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	q.Status = status
	switch status {
	case StatusSent:
		q.SentAt = &at
	case StatusAccepted, StatusDeclined, StatusExpired:
		q.DecidedAt = &at
	}
	return nil
}

func (m *mockRepo) GenerateNumber(_ context.Context, date time.Time) (string, error) {
	m.seq++
	return fmt.Sprintf("QUO-%s-%06d", date.Format("2006"), m.seq), nil
}

type mockCustomerRepo struct{}

func (mockCustomerRepo) Get(_ context.Context, id int64) (*customers.Customer, error) {
	if id != 1 {
		return nil, shared.ErrNotFound
	}
	return &customers.Customer{ID: 1, Name: "Pat Wheeler"}, nil
}
func (mockCustomerRepo) List(context.Context, customers.ListCustomersRequest) ([]customers.Customer, int, error) {
	return nil, 0, nil
}
func (mockCustomerRepo) Create(context.Context, customers.Customer) (int64, error) {
	return 0, errors.New("not implemented")
}
func (mockCustomerRepo) Update(context.Context, int64, map[string]interface{}) error {
	return errors.New("not implemented")
}
func (mockCustomerRepo) GetVehicle(context.Context, int64) (*customers.Vehicle, error) {
	return nil, shared.ErrNotFound
}
func (mockCustomerRepo) ListVehicles(context.Context, int64) ([]customers.Vehicle, error) {
	return nil, nil
}
func (mockCustomerRepo) CreateVehicle(context.Context, customers.Vehicle) (int64, error) {
	return 0, errors.New("not implemented")
}

// mockInvoiceCreator records the request and prices it with the same
// engine, standing in for the invoice service.
type mockInvoiceCreator struct {
	lastReq invoices.CreateInvoiceRequest
	policy  pricing.RatePolicy
}

func (m *mockInvoiceCreator) Create(_ context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error) {
	m.lastReq = req

	lineItems := make([]pricing.LineItem, 0, len(req.Items))
	for _, lr := range req.Items {
		li, err := pricing.NewLineItem(pricing.ItemType(lr.ItemType), lr.Description, lr.Quantity, lr.UnitPrice, lr.ReferenceID)
		if err != nil {
			return nil, err
		}
		lineItems = append(lineItems, li)
	}

	gstRate := m.policy.DefaultGSTRate
	pstRate := m.policy.DefaultPSTRate
	if req.GSTRate != nil {
		gstRate = *req.GSTRate
	}
	if req.PSTRate != nil {
		pstRate = *req.PSTRate
	}
	gstRate, pstRate = m.policy.Apply(pricing.PaymentNone, pricing.PaymentMethod(req.PaymentMethod), gstRate, pstRate)

	totals := pricing.ComputeTotals(lineItems, gstRate, pstRate)
	return &invoices.Invoice{
		ID:         42,
		CustomerID: req.CustomerID,
		Status:     invoices.StatusDraft,
		GSTRate:    gstRate,
		PSTRate:    pstRate,
		Subtotal:   totals.Subtotal,
		GSTAmount:  totals.GSTAmount,
		PSTAmount:  totals.PSTAmount,
		TotalTax:   totals.TotalTax,
		Total:      totals.Total,
	}, nil
}

func newTestService() (*Service, *mockRepo, *mockInvoiceCreator) {
	repo := newMockRepo()
	policy := pricing.NewRatePolicy(0.05, 0.07)
	creator := &mockInvoiceCreator{policy: policy}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, mockCustomerRepo{}, creator, policy, logger), repo, creator
}

func tireLine(qty int, price float64) invoices.LineItemRequest {
	return invoices.LineItemRequest{ItemType: "TIRE", Description: "Winter 215/60R17", Quantity: qty, UnitPrice: price}
}

func TestCreateComputesTotals(t *testing.T) {
	svc, _, _ := newTestService()

	quote, err := svc.Create(context.Background(), CreateQuotationRequest{
		CustomerID: 1,
		Items: []invoices.LineItemRequest{
			tireLine(4, 150),
			{ItemType: "DISCOUNT", Description: "Trade-in credit", Quantity: 1, UnitPrice: 50},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, quote.Status)
	assert.InDelta(t, 550.0, quote.Subtotal, 1e-9)
	assert.InDelta(t, 550.0*1.12, quote.Total, 1e-9)
	assert.Contains(t, quote.Number, "QUO-")
	require.Len(t, quote.Items, 2)
	// Flat discounts are stored as negative amounts.
	assert.InDelta(t, -50.0, quote.Items[1].UnitPrice, 1e-9)
}

func TestLifecycle(t *testing.T) {
	svc, _, _ := newTestService()

	quote, err := svc.Create(context.Background(), CreateQuotationRequest{
		CustomerID: 1,
		Items:      []invoices.LineItemRequest{tireLine(1, 100)},
	})
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), quote.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)

	sent, err := svc.Send(context.Background(), quote.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)
	assert.NotNil(t, sent.SentAt)

	accepted, err := svc.Accept(context.Background(), quote.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
}

func TestAcceptExpiredQuotation(t *testing.T) {
	svc, repo, _ := newTestService()

	past := time.Now().Add(-24 * time.Hour)
	quote, err := svc.Create(context.Background(), CreateQuotationRequest{
		CustomerID: 1,
		ValidUntil: &past,
		Items:      []invoices.LineItemRequest{tireLine(1, 100)},
	})
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), quote.ID)
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), quote.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
	assert.Equal(t, StatusExpired, repo.quotes[quote.ID].Status)
}

func TestConvertToInvoicePreservesPricing(t *testing.T) {
	svc, _, creator := newTestService()

	quote, err := svc.Create(context.Background(), CreateQuotationRequest{
		CustomerID: 1,
		Items: []invoices.LineItemRequest{
			tireLine(4, 150),
			{ItemType: "DISCOUNT", Description: "Trade-in credit", Quantity: 1, UnitPrice: 50},
			{ItemType: "DISCOUNT_PERCENTAGE", Description: "Fleet 10%", Quantity: 1, UnitPrice: 10},
		},
	})
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), quote.ID)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), quote.ID)
	require.NoError(t, err)

	invoice, err := svc.ConvertToInvoice(context.Background(), quote.ID)
	require.NoError(t, err)

	// The converted invoice prices identically to the quote.
	assert.InDelta(t, quote.Subtotal, invoice.Subtotal, 1e-9)
	assert.InDelta(t, quote.Total, invoice.Total, 1e-9)

	// The flat discount magnitude went back out positive.
	require.Len(t, creator.lastReq.Items, 3)
	assert.InDelta(t, 50.0, creator.lastReq.Items[1].UnitPrice, 1e-9)

	after, err := svc.Get(context.Background(), quote.ID)
	require.NoError(t, err)
	require.NotNil(t, after.InvoiceID)
	assert.Equal(t, invoice.ID, *after.InvoiceID)
}

func TestConvertRequiresAccepted(t *testing.T) {
	svc, _, _ := newTestService()

	quote, err := svc.Create(context.Background(), CreateQuotationRequest{
		CustomerID: 1,
		Items:      []invoices.LineItemRequest{tireLine(1, 100)},
	})
	require.NoError(t, err)

	_, err = svc.ConvertToInvoice(context.Background(), quote.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestConvertTwiceRejected(t *testing.T) {
	svc, _, _ := newTestService()

	quote, err := svc.Create(context.Background(), CreateQuotationRequest{
		CustomerID: 1,
		Items:      []invoices.LineItemRequest{tireLine(1, 100)},
	})
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), quote.ID)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), quote.ID)
	require.NoError(t, err)

	_, err = svc.ConvertToInvoice(context.Background(), quote.ID)
	require.NoError(t, err)

	_, err = svc.ConvertToInvoice(context.Background(), quote.ID)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}
