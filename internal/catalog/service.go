package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/treadline/treadline/internal/platform/cache"
)

// Service implements catalog reads through a Redis cache and writes that
// invalidate it. Cache failures are logged and fall through to the
// database; the cache is an optimisation, never a source of truth.
type Service struct {
	repo   Repository
	cache  *cache.JSONCache
	logger *slog.Logger
}

// NewService constructs a Service. cache may be nil to disable caching.
func NewService(repo Repository, jsonCache *cache.JSONCache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: jsonCache, logger: logger}
}

func (s *Service) GetTire(ctx context.Context, id int64) (*Tire, error) {
	key := fmt.Sprintf("tire:%d", id)
	var cached Tire
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("catalog cache read", slog.Any("error", err))
	} else if hit {
		return &cached, nil
	}

	tire, err := s.repo.GetTire(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, tire); err != nil {
		s.logger.Warn("catalog cache write", slog.Any("error", err))
	}
	return tire, nil
}

func (s *Service) ListTires(ctx context.Context) ([]Tire, error) {
	var cached []Tire
	if hit, err := s.cache.Get(ctx, "tires", &cached); err != nil {
		s.logger.Warn("catalog cache read", slog.Any("error", err))
	} else if hit {
		return cached, nil
	}

	tires, err := s.repo.ListTires(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, "tires", tires); err != nil {
		s.logger.Warn("catalog cache write", slog.Any("error", err))
	}
	return tires, nil
}

func (s *Service) CreateTire(ctx context.Context, req CreateTireRequest) (*Tire, error) {
	id, err := s.repo.CreateTire(ctx, Tire{
		Brand:     req.Brand,
		Model:     req.Model,
		Size:      req.Size,
		Season:    req.Season,
		UnitPrice: req.UnitPrice,
		InStock:   req.InStock,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.repo.GetTire(ctx, id)
}

func (s *Service) GetShopService(ctx context.Context, id int64) (*ShopService, error) {
	key := fmt.Sprintf("service:%d", id)
	var cached ShopService
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("catalog cache read", slog.Any("error", err))
	} else if hit {
		return &cached, nil
	}

	svc, err := s.repo.GetShopService(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, svc); err != nil {
		s.logger.Warn("catalog cache write", slog.Any("error", err))
	}
	return svc, nil
}

func (s *Service) ListShopServices(ctx context.Context) ([]ShopService, error) {
	var cached []ShopService
	if hit, err := s.cache.Get(ctx, "services", &cached); err != nil {
		s.logger.Warn("catalog cache read", slog.Any("error", err))
	} else if hit {
		return cached, nil
	}

	services, err := s.repo.ListShopServices(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, "services", services); err != nil {
		s.logger.Warn("catalog cache write", slog.Any("error", err))
	}
	return services, nil
}

func (s *Service) CreateShopService(ctx context.Context, req CreateShopServiceRequest) (*ShopService, error) {
	id, err := s.repo.CreateShopService(ctx, ShopService{
		Name:            req.Name,
		UnitPrice:       req.UnitPrice,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.repo.GetShopService(ctx, id)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidate", slog.Any("error", err))
	}
}
