package customers

import (
	"context"
	"fmt"
)

// Service implements customer and vehicle use cases.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	id, err := s.repo.Create(ctx, Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) AddVehicle(ctx context.Context, customerID int64, req CreateVehicleRequest) (*Vehicle, error) {
	if _, err := s.repo.Get(ctx, customerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	id, err := s.repo.CreateVehicle(ctx, Vehicle{
		CustomerID: customerID,
		Plate:      req.Plate,
		Make:       req.Make,
		Model:      req.Model,
		Year:       req.Year,
		TireSize:   req.TireSize,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetVehicle(ctx, id)
}

func (s *Service) Vehicles(ctx context.Context, customerID int64) ([]Vehicle, error) {
	if _, err := s.repo.Get(ctx, customerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	return s.repo.ListVehicles(ctx, customerID)
}

func (s *Service) GetVehicle(ctx context.Context, id int64) (*Vehicle, error) {
	return s.repo.GetVehicle(ctx, id)
}
