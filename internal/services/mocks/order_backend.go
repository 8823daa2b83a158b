package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/pkg/storefront"
	"github.com/stretchr/testify/mock"
)

type OrderBackend struct {
	mock.Mock
}

func NewOrderBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *OrderBackend {
	m := &OrderBackend{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *OrderBackend) Addresses(ctx context.Context) ([]models.Address, error) {
	args := m.Called(ctx)

	var addresses []models.Address
	if v := args.Get(0); v != nil {
		addresses = v.([]models.Address)
	}

	return addresses, args.Error(1)
}

func (m *OrderBackend) Checkout(ctx context.Context, req storefront.CheckoutRequest) (*models.Order, error) {
	args := m.Called(ctx, req)

	var order *models.Order
	if v := args.Get(0); v != nil {
		order = v.(*models.Order)
	}

	return order, args.Error(1)
}

func (m *OrderBackend) MyOrders(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)

	var orders []models.Order
	if v := args.Get(0); v != nil {
		orders = v.([]models.Order)
	}

	return orders, args.Error(1)
}

func (m *OrderBackend) Order(ctx context.Context, id models.ID) (*models.Order, error) {
	args := m.Called(ctx, id)

	var order *models.Order
	if v := args.Get(0); v != nil {
		order = v.(*models.Order)
	}

	return order, args.Error(1)
}

func (m *OrderBackend) CancelOrder(ctx context.Context, id models.ID) error {
	return m.Called(ctx, id).Error(0)
}
