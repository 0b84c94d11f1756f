package bookings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treadline/treadline/internal/catalog"
	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/invoices"
	"github.com/treadline/treadline/internal/shared"
)

type mockRepo struct {
	bookings map[int64]*Booking
	services map[int64][]BookingService
	nextID   int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{bookings: map[int64]*Booking{}, services: map[int64][]BookingService{}}
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *b
	cp.Services = append([]BookingService(nil), m.services[id]...)
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, req ListBookingsRequest) ([]Booking, int, error) {
	var out []Booking
	for _, b := range m.bookings {
		if req.Status != nil && b.Status != *req.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(_ context.Context, b Booking) (int64, error) {
	m.nextID++
	b.ID = m.nextID
	m.bookings[b.ID] = &b
	return b.ID, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	b, ok := m.bookings[id]
	if !ok {
		return shared.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "scheduled_at":
			b.ScheduledAt = v.(time.Time)
		case "invoice_id":
			invoiceID := v.(int64)
			b.InvoiceID = &invoiceID
		}
	}
	return nil
}

func (m *mockRepo) InsertService(_ context.Context, bs BookingService) (int64, error) {
	bs.ID = int64(len(m.services[bs.BookingID]) + 1)
	m.services[bs.BookingID] = append(m.services[bs.BookingID], bs)
	return bs.ID, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id int64, status BookingStatus) error {
	b, ok := m.bookings[id]
	if !ok {
		return shared.ErrNotFound
	}
	b.Status = status
	return nil
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
func (mockCustomerRepo) GetVehicle(_ context.Context, id int64) (*customers.Vehicle, error) {
	if id != 7 {
		return nil, shared.ErrNotFound
	}
	return &customers.Vehicle{ID: 7, CustomerID: 1}, nil
}
func (mockCustomerRepo) ListVehicles(context.Context, int64) ([]customers.Vehicle, error) {
	return nil, nil
}
func (mockCustomerRepo) CreateVehicle(context.Context, customers.Vehicle) (int64, error) {
	return 0, errors.New("not implemented")
}

type mockCatalogRepo struct{}

func (mockCatalogRepo) GetTire(context.Context, int64) (*catalog.Tire, error) {
	return nil, shared.ErrNotFound
}
func (mockCatalogRepo) ListTires(context.Context) ([]catalog.Tire, error) { return nil, nil }
func (mockCatalogRepo) CreateTire(context.Context, catalog.Tire) (int64, error) {
	return 0, errors.New("not implemented")
}
func (mockCatalogRepo) GetShopService(_ context.Context, id int64) (*catalog.ShopService, error) {
	switch id {
	case 10:
		return &catalog.ShopService{ID: 10, Name: "Tire rotation", UnitPrice: 40}, nil
	case 11:
		return &catalog.ShopService{ID: 11, Name: "Wheel alignment", UnitPrice: 90}, nil
	}
	return nil, shared.ErrNotFound
}
func (mockCatalogRepo) ListShopServices(context.Context) ([]catalog.ShopService, error) {
	return nil, nil
}
func (mockCatalogRepo) CreateShopService(context.Context, catalog.ShopService) (int64, error) {
	return 0, errors.New("not implemented")
}

type mockInvoiceCreator struct {
	lastReq invoices.CreateInvoiceRequest
}

func (m *mockInvoiceCreator) Create(_ context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error) {
	m.lastReq = req
	return &invoices.Invoice{ID: 42, CustomerID: req.CustomerID, Status: invoices.StatusDraft}, nil
}

func newTestService() (*Service, *mockInvoiceCreator) {
	creator := &mockInvoiceCreator{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(newMockRepo(), mockCustomerRepo{}, mockCatalogRepo{}, creator, logger)
	return svc, creator
}

func schedule(t *testing.T, svc *Service) *Booking {
	t.Helper()
	booking, err := svc.Create(context.Background(), CreateBookingRequest{
		CustomerID:  1,
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Services: []BookingServiceRequest{
			{ServiceID: 10, Quantity: 1},
			{ServiceID: 11, Quantity: 1},
		},
	})
	require.NoError(t, err)
	return booking
}

func TestCreateBooking(t *testing.T) {
	svc, _ := newTestService()

	booking := schedule(t, svc)
	assert.Equal(t, StatusScheduled, booking.Status)
	assert.Len(t, booking.Services, 2)
}

func TestCreateRejectsPastSchedule(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateBookingRequest{
		CustomerID:  1,
		ScheduledAt: time.Now().Add(-time.Hour),
		Services:    []BookingServiceRequest{{ServiceID: 10, Quantity: 1}},
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsUnknownService(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateBookingRequest{
		CustomerID:  1,
		ScheduledAt: time.Now().Add(time.Hour),
		Services:    []BookingServiceRequest{{ServiceID: 999, Quantity: 1}},
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLifecycleTransitions(t *testing.T) {
	svc, _ := newTestService()

	booking := schedule(t, svc)

	_, err := svc.Complete(context.Background(), booking.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)

	started, err := svc.Start(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, started.Status)

	completed, err := svc.Complete(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	_, err = svc.Cancel(context.Background(), booking.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestConvertToInvoicePricesFromCatalog(t *testing.T) {
	svc, creator := newTestService()

	booking := schedule(t, svc)
	_, err := svc.Start(context.Background(), booking.ID)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), booking.ID)
	require.NoError(t, err)

	invoice, err := svc.ConvertToInvoice(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), invoice.ID)

	require.Len(t, creator.lastReq.Items, 2)
	assert.Equal(t, "Tire rotation", creator.lastReq.Items[0].Description)
	assert.InDelta(t, 40.0, creator.lastReq.Items[0].UnitPrice, 1e-9)
	assert.Equal(t, "SERVICE", creator.lastReq.Items[0].ItemType)
	require.NotNil(t, creator.lastReq.Items[0].ReferenceID)
	assert.Equal(t, int64(10), *creator.lastReq.Items[0].ReferenceID)

	after, err := svc.Get(context.Background(), booking.ID)
	require.NoError(t, err)
	require.NotNil(t, after.InvoiceID)
	assert.Equal(t, int64(42), *after.InvoiceID)
}

func TestConvertRequiresCompleted(t *testing.T) {
	svc, _ := newTestService()

	booking := schedule(t, svc)
	_, err := svc.ConvertToInvoice(context.Background(), booking.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestConvertTwiceRejected(t *testing.T) {
	svc, _ := newTestService()

	booking := schedule(t, svc)
	_, err := svc.Start(context.Background(), booking.ID)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), booking.ID)
	require.NoError(t, err)

	_, err = svc.ConvertToInvoice(context.Background(), booking.ID)
	require.NoError(t, err)

	_, err = svc.ConvertToInvoice(context.Background(), booking.ID)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}
