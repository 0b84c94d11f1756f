package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treadline/treadline/internal/platform/cache"
	"github.com/treadline/treadline/internal/shared"
)

type mockRepo struct {
	tires       map[int64]*Tire
	services    map[int64]*ShopService
	tireReads   int
	nextTireID  int64
	nextSvcID   int64
	listedTires int
}

func newMockRepo() *mockRepo {
	return &mockRepo{tires: map[int64]*Tire{}, services: map[int64]*ShopService{}}
}

func (m *mockRepo) GetTire(_ context.Context, id int64) (*Tire, error) {
	m.tireReads++
	t, ok := m.tires[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func (m *mockRepo) ListTires(context.Context) ([]Tire, error) {
	m.listedTires++
	var out []Tire
	for _, t := range m.tires {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockRepo) CreateTire(_ context.Context, t Tire) (int64, error) {
	m.nextTireID++
	t.ID = m.nextTireID
	m.tires[t.ID] = &t
	return t.ID, nil
}

func (m *mockRepo) GetShopService(_ context.Context, id int64) (*ShopService, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) ListShopServices(context.Context) ([]ShopService, error) {
	var out []ShopService
	for _, s := range m.services {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockRepo) CreateShopService(_ context.Context, s ShopService) (int64, error) {
	m.nextSvcID++
	s.ID = m.nextSvcID
	m.services[s.ID] = &s
	return s.ID, nil
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMockRepo()
	jsonCache := cache.NewJSONCache(client, "catalog", time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, jsonCache, logger), repo
}

func TestGetTireCachesSecondRead(t *testing.T) {
	svc, repo := newTestService(t)
	repo.tires[1] = &Tire{ID: 1, Brand: "Nokian", Model: "Hakkapeliitta", Size: "205/55R16", Season: "WINTER", UnitPrice: 180}

	first, err := svc.GetTire(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.GetTire(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, first.Brand, second.Brand)
	assert.Equal(t, 1, repo.tireReads)
}

func TestCreateTireInvalidatesCache(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.ListTires(context.Background())
	require.NoError(t, err)
	_, err = svc.ListTires(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listedTires)

	_, err = svc.CreateTire(context.Background(), CreateTireRequest{
		Brand: "Michelin", Model: "CrossClimate 2", Size: "225/65R17", Season: "ALL_SEASON", UnitPrice: 240,
	})
	require.NoError(t, err)

	tires, err := svc.ListTires(context.Background())
	require.NoError(t, err)
	assert.Len(t, tires, 1)
	assert.Equal(t, 2, repo.listedTires)
}

func TestCacheFailureFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMockRepo()
	repo.services[3] = &ShopService{ID: 3, Name: "Flat repair", UnitPrice: 35}
	jsonCache := cache.NewJSONCache(client, "catalog", time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, jsonCache, logger)

	mr.Close()

	got, err := svc.GetShopService(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Flat repair", got.Name)
}

func TestGetTireNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetTire(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
