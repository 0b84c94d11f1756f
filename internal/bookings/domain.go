package bookings

import "time"

// BookingStatus enumerates booking lifecycle states.
type BookingStatus string

const (
	StatusScheduled  BookingStatus = "SCHEDULED"
	StatusInProgress BookingStatus = "IN_PROGRESS"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCancelled  BookingStatus = "CANCELLED"
)

// Booking is a scheduled workshop appointment. It carries no money of
// its own; billing happens when a completed booking is converted into a
// draft invoice priced from the service catalog.
type Booking struct {
	ID          int64            `json:"id"`
	CustomerID  int64            `json:"customer_id"`
	VehicleID   *int64           `json:"vehicle_id,omitempty"`
	Status      BookingStatus    `json:"status"`
	ScheduledAt time.Time        `json:"scheduled_at"`
	Notes       *string          `json:"notes,omitempty"`
	InvoiceID   *int64           `json:"invoice_id,omitempty"`
	Services    []BookingService `json:"services,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// BookingService is one catalog service requested on a booking.
type BookingService struct {
	ID        int64 `json:"id"`
	BookingID int64 `json:"booking_id"`
	ServiceID int64 `json:"service_id"`
	Quantity  int   `json:"quantity"`
}

// CreateBookingRequest schedules an appointment.
type CreateBookingRequest struct {
	CustomerID  int64                   `json:"customer_id" validate:"required,gt=0"`
	VehicleID   *int64                  `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	ScheduledAt time.Time               `json:"scheduled_at" validate:"required"`
	Notes       *string                 `json:"notes,omitempty"`
	Services    []BookingServiceRequest `json:"services" validate:"required,min=1,dive"`
}

// BookingServiceRequest is one requested service line.
type BookingServiceRequest struct {
	ServiceID int64 `json:"service_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// RescheduleRequest moves a scheduled booking.
type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// ListBookingsRequest filters the booking listing.
type ListBookingsRequest struct {
	CustomerID *int64
	Status     *BookingStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
