// Package catalog holds the tire and shop-service master data that
// billing line items reference through their reference id.
package catalog

import "time"

// Tire is a sellable tire model.
type Tire struct {
	ID        int64     `json:"id"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	Size      string    `json:"size"`
	Season    string    `json:"season"`
	UnitPrice float64   `json:"unit_price"`
	InStock   int       `json:"in_stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShopService is a workshop service offered at a fixed price.
type ShopService struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	UnitPrice       float64   `json:"unit_price"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateTireRequest registers a tire model.
type CreateTireRequest struct {
	Brand     string  `json:"brand" validate:"required,max=100"`
	Model     string  `json:"model" validate:"required,max=100"`
	Size      string  `json:"size" validate:"required,max=30"`
	Season    string  `json:"season" validate:"required,oneof=SUMMER WINTER ALL_SEASON"`
	UnitPrice float64 `json:"unit_price" validate:"required,gt=0"`
	InStock   int     `json:"in_stock" validate:"gte=0"`
}

// CreateShopServiceRequest registers a workshop service.
type CreateShopServiceRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	UnitPrice       float64 `json:"unit_price" validate:"required,gt=0"`
	DurationMinutes int     `json:"duration_minutes" validate:"gte=0,lte=1440"`
}
