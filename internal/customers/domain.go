package customers

import "time"

// Customer is a shop customer.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vehicle belongs to a customer and is referenced by bookings and
// invoices.
type Vehicle struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Plate      string    `json:"plate"`
	Make       string    `json:"make"`
	Model      string    `json:"model"`
	Year       int       `json:"year"`
	TireSize   *string   `json:"tire_size,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateCustomerRequest creates a customer.
type CreateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes   *string `json:"notes,omitempty"`
}

// UpdateCustomerRequest patches a customer. Nil fields are untouched.
type UpdateCustomerRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes    *string `json:"notes,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// CreateVehicleRequest registers a vehicle for a customer.
type CreateVehicleRequest struct {
	Plate    string  `json:"plate" validate:"required,max=20"`
	Make     string  `json:"make" validate:"required,max=100"`
	Model    string  `json:"model" validate:"required,max=100"`
	Year     int     `json:"year" validate:"required,gte=1900,lte=2100"`
	TireSize *string `json:"tire_size,omitempty" validate:"omitempty,max=30"`
	Notes    *string `json:"notes,omitempty"`
}

// ListCustomersRequest filters the customer listing.
type ListCustomersRequest struct {
	Search   *string
	IsActive *bool
	Limit    int
	Offset   int
}
