package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/stretchr/testify/mock"
)

type CatalogBackend struct {
	mock.Mock
}

func NewCatalogBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *CatalogBackend {
	m := &CatalogBackend{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *CatalogBackend) Branches(ctx context.Context) ([]models.Branch, error) {
	args := m.Called(ctx)

	var branches []models.Branch
	if v := args.Get(0); v != nil {
		branches = v.([]models.Branch)
	}

	return branches, args.Error(1)
}

func (m *CatalogBackend) Categories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)

	var categories []models.Category
	if v := args.Get(0); v != nil {
		categories = v.([]models.Category)
	}

	return categories, args.Error(1)
}

func (m *CatalogBackend) BranchProducts(ctx context.Context, branchID models.ID, q models.ProductQuery) (*models.ProductPage, error) {
	args := m.Called(ctx, branchID, q)

	var page *models.ProductPage
	if v := args.Get(0); v != nil {
		page = v.(*models.ProductPage)
	}

	return page, args.Error(1)
}
