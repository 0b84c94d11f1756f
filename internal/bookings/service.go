package bookings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/treadline/treadline/internal/catalog"
	"github.com/treadline/treadline/internal/customers"
	"github.com/treadline/treadline/internal/invoices"
	"github.com/treadline/treadline/internal/pricing"
	"github.com/treadline/treadline/internal/shared"
)

// InvoiceCreator is the slice of the invoice service a conversion needs.
type InvoiceCreator interface {
	Create(ctx context.Context, req invoices.CreateInvoiceRequest) (*invoices.Invoice, error)
}

// Service implements booking use cases.
type Service struct {
	repo         Repository
	customerRepo customers.Repository
	catalogRepo  catalog.Repository
	invoiceSvc   InvoiceCreator
	logger       *slog.Logger
}

func NewService(repo Repository, customerRepo customers.Repository, catalogRepo catalog.Repository, invoiceSvc InvoiceCreator, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		customerRepo: customerRepo,
		catalogRepo:  catalogRepo,
		invoiceSvc:   invoiceSvc,
		logger:       logger,
	}
}

func (s *Service) Create(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	if _, err := s.customerRepo.Get(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	if req.VehicleID != nil {
		if _, err := s.customerRepo.GetVehicle(ctx, *req.VehicleID); err != nil {
			return nil, fmt.Errorf("verify vehicle: %w", err)
		}
	}
	if req.ScheduledAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: scheduled_at must be in the future", shared.ErrValidation)
	}
	for _, bs := range req.Services {
		if _, err := s.catalogRepo.GetShopService(ctx, bs.ServiceID); err != nil {
			return nil, fmt.Errorf("verify service %d: %w", bs.ServiceID, err)
		}
	}

	booking := Booking{
		CustomerID:  req.CustomerID,
		VehicleID:   req.VehicleID,
		Status:      StatusScheduled,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	}

	var bookingID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, booking)
		if err != nil {
			return err
		}
		bookingID = id
		for _, sr := range req.Services {
			bs := BookingService{BookingID: id, ServiceID: sr.ServiceID, Quantity: sr.Quantity}
			if _, err := repo.InsertService(ctx, bs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, bookingID)
}

func (s *Service) Reschedule(ctx context.Context, id int64, req RescheduleRequest) (*Booking, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: only SCHEDULED bookings can be rescheduled", shared.ErrInvalidStatus)
	}
	if req.ScheduledAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: scheduled_at must be in the future", shared.ErrValidation)
	}
	if err := s.repo.Update(ctx, id, map[string]interface{}{"scheduled_at": req.ScheduledAt}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Start(ctx context.Context, id int64) (*Booking, error) {
	return s.transition(ctx, id, StatusScheduled, StatusInProgress)
}

func (s *Service) Complete(ctx context.Context, id int64) (*Booking, error) {
	return s.transition(ctx, id, StatusInProgress, StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id int64) (*Booking, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusScheduled && existing.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: cannot cancel a %s booking", shared.ErrInvalidStatus, existing.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// ConvertToInvoice creates a draft invoice from a completed booking,
// pricing each line from the current service catalog.
func (s *Service) ConvertToInvoice(ctx context.Context, id int64) (*invoices.Invoice, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: only COMPLETED bookings can be invoiced", shared.ErrInvalidStatus)
	}
	if booking.InvoiceID != nil {
		return nil, fmt.Errorf("%w: booking already invoiced as invoice %d", shared.ErrDuplicate, *booking.InvoiceID)
	}
	if len(booking.Services) == 0 {
		return nil, fmt.Errorf("%w: booking has no services to invoice", shared.ErrValidation)
	}

	lines := make([]invoices.LineItemRequest, 0, len(booking.Services))
	for _, bs := range booking.Services {
		svc, err := s.catalogRepo.GetShopService(ctx, bs.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("price service %d: %w", bs.ServiceID, err)
		}
		serviceID := bs.ServiceID
		lines = append(lines, invoices.LineItemRequest{
			ItemType:    string(pricing.ItemService),
			Description: svc.Name,
			Quantity:    bs.Quantity,
			UnitPrice:   svc.UnitPrice,
			ReferenceID: &serviceID,
		})
	}

	invoice, err := s.invoiceSvc.Create(ctx, invoices.CreateInvoiceRequest{
		CustomerID: booking.CustomerID,
		VehicleID:  booking.VehicleID,
		Notes:      booking.Notes,
		Items:      lines,
	})
	if err != nil {
		return nil, fmt.Errorf("invoice booking %d: %w", id, err)
	}

	if err := s.repo.Update(ctx, id, map[string]interface{}{"invoice_id": invoice.ID}); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *Service) transition(ctx context.Context, id int64, from, to BookingStatus) (*Booking, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != from {
		return nil, fmt.Errorf("%w: cannot move %s booking to %s", shared.ErrInvalidStatus, existing.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListBookingsRequest) ([]Booking, int, error) {
	return s.repo.List(ctx, req)
}
