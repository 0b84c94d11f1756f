package customers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treadline/treadline/internal/shared"
)

type mockRepo struct {
	customers     map[int64]*Customer
	vehicles      map[int64]*Vehicle
	nextID        int64
	nextVehicleID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{customers: map[int64]*Customer{}, vehicles: map[int64]*Vehicle{}}
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) List(_ context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range m.customers {
		if req.Search != nil && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(*req.Search)) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(_ context.Context, c Customer) (int64, error) {
	m.nextID++
	c.ID = m.nextID
	c.IsActive = true
	m.customers[c.ID] = &c
	return c.ID, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	c, ok := m.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "name":
			c.Name = v.(string)
		case "phone":
			phone := v.(string)
			c.Phone = &phone
		case "is_active":
			c.IsActive = v.(bool)
		}
	}
	return nil
}

func (m *mockRepo) GetVehicle(_ context.Context, id int64) (*Vehicle, error) {
	v, ok := m.vehicles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return v, nil
}

func (m *mockRepo) ListVehicles(_ context.Context, customerID int64) ([]Vehicle, error) {
	var out []Vehicle
	for _, v := range m.vehicles {
		if v.CustomerID == customerID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockRepo) CreateVehicle(_ context.Context, v Vehicle) (int64, error) {
	m.nextVehicleID++
	v.ID = m.nextVehicleID
	m.vehicles[v.ID] = &v
	return v.ID, nil
}

func TestCreateAndGet(t *testing.T) {
	svc := NewService(newMockRepo())

	created, err := svc.Create(context.Background(), CreateCustomerRequest{Name: "Pat Wheeler"})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pat Wheeler", got.Name)
}

func TestUpdatePartial(t *testing.T) {
	svc := NewService(newMockRepo())

	created, err := svc.Create(context.Background(), CreateCustomerRequest{Name: "Pat Wheeler"})
	require.NoError(t, err)

	phone := "604-555-0188"
	updated, err := svc.Update(context.Background(), created.ID, UpdateCustomerRequest{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	assert.Equal(t, "Pat Wheeler", updated.Name)
}

func TestUpdateMissingCustomer(t *testing.T) {
	svc := NewService(newMockRepo())

	name := "Nobody"
	_, err := svc.Update(context.Background(), 99, UpdateCustomerRequest{Name: &name})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddVehicleRequiresCustomer(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.AddVehicle(context.Background(), 99, CreateVehicleRequest{
		Plate: "ABC 123", Make: "Subaru", Model: "Outback", Year: 2021,
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestVehiclesForCustomer(t *testing.T) {
	svc := NewService(newMockRepo())

	created, err := svc.Create(context.Background(), CreateCustomerRequest{Name: "Pat Wheeler"})
	require.NoError(t, err)

	_, err = svc.AddVehicle(context.Background(), created.ID, CreateVehicleRequest{
		Plate: "ABC 123", Make: "Subaru", Model: "Outback", Year: 2021,
	})
	require.NoError(t, err)

	vehicles, err := svc.Vehicles(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "Outback", vehicles[0].Model)
}
