package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/cache"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatalogService is a read-through cache in front of the backend's branch and
// product listings. Cache failures are logged and bypassed.
type CatalogService struct {
	backend CatalogBackend
	cache   cache.Cache
	ttl     time.Duration
	logger  *slog.Logger
	sfg     singleflight.Group
}

func NewCatalogService(backend CatalogBackend, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CatalogService {

	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogService{backend: backend, cache: c, ttl: ttl, logger: logger}
}

func (s *CatalogService) Branches(ctx context.Context) ([]models.Branch, error) {

	key := cache.Key(cache.BranchesKeyPrefix, "all")

	v, err, _ := s.sfg.Do(key, func() (any, error) {

		var branches []models.Branch
		if s.lookup(ctx, key, &branches) {
			return branches, nil
		}

		branches, err := s.backend.Branches(ctx)
		if err != nil {
			return nil, err
		}

		s.store(ctx, key, branches)

		return branches, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]models.Branch), nil
}

// Branch finds one branch in the listing.
func (s *CatalogService) Branch(ctx context.Context, id models.ID) (*models.Branch, error) {

	if id.IsZero() {
		return nil, errors.InvalidInputError("Branch is required")
	}

	branches, err := s.Branches(ctx)
	if err != nil {
		return nil, err
	}

	for i := range branches {
		if branches[i].ID == id {
			branch := branches[i]
			return &branch, nil
		}
	}

	return nil, errors.NotFoundError("Branch not found")
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.backend.Categories(ctx)
}

// BranchProducts returns one page of a branch menu. Page defaults to 1 and the page
// size to 20, capped at 100.
func (s *CatalogService) BranchProducts(ctx context.Context, branchID models.ID, q models.ProductQuery) (*models.ProductPage, error) {

	if branchID.IsZero() {
		return nil, errors.InvalidInputError("Branch is required")
	}

	if q.Page < 1 {
		q.Page = 1
	}

	switch {
	case q.PageSize < 1:
		q.PageSize = defaultPageSize
	case q.PageSize > maxPageSize:
		q.PageSize = maxPageSize
	}

	key := cache.ProductPageKey(branchID.String(), q.Page, q.PageSize, q.CategoryID.String())

	v, err, _ := s.sfg.Do(key, func() (any, error) {

		var page models.ProductPage
		if s.lookup(ctx, key, &page) {
			return &page, nil
		}

		fetched, err := s.backend.BranchProducts(ctx, branchID, q)
		if err != nil {
			return nil, err
		}

		s.store(ctx, key, fetched)

		return fetched, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.ProductPage), nil
}

func (s *CatalogService) lookup(ctx context.Context, key string, out any) bool {

	if s.cache == nil {
		return false
	}

	found, err := s.cache.Get(ctx, key, out)
	if err != nil {
		s.logger.Warn("⚠️ Cache read failed", slog.String("key", key), slog.Any("error", err))
		return false
	}

	return found
}

func (s *CatalogService) store(ctx context.Context, key string, value any) {

	if s.cache == nil {
		return
	}

	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("⚠️ Cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
