package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/stretchr/testify/mock"
)

type CartBackend struct {
	mock.Mock
}

func NewCartBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *CartBackend {
	m := &CartBackend{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *CartBackend) GetCart(ctx context.Context) (*models.CartSnapshot, error) {
	args := m.Called(ctx)

	var cart *models.CartSnapshot
	if v := args.Get(0); v != nil {
		cart = v.(*models.CartSnapshot)
	}

	return cart, args.Error(1)
}

func (m *CartBackend) AddToCart(ctx context.Context, productID models.ID, quantity int) error {
	return m.Called(ctx, productID, quantity).Error(0)
}

func (m *CartBackend) UpdateCartItem(ctx context.Context, productID models.ID, action models.QuantityAction) error {
	return m.Called(ctx, productID, action).Error(0)
}

func (m *CartBackend) UpdateInstructions(ctx context.Context, productID models.ID, instructions string) error {
	return m.Called(ctx, productID, instructions).Error(0)
}

func (m *CartBackend) RemoveFromCart(ctx context.Context, productID models.ID) error {
	return m.Called(ctx, productID).Error(0)
}

func (m *CartBackend) ApplyCoupon(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *CartBackend) RemoveCoupon(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *CartBackend) ClearCart(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
