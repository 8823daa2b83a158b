package service

import (
	"context"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/pkg/storefront"
)

// Collaborators implemented by *storefront.Client. Services depend on these so they
// can be tested without a backend.

type CartBackend interface {
	GetCart(ctx context.Context) (*models.CartSnapshot, error)
	AddToCart(ctx context.Context, productID models.ID, quantity int) error
	UpdateCartItem(ctx context.Context, productID models.ID, action models.QuantityAction) error
	UpdateInstructions(ctx context.Context, productID models.ID, instructions string) error
	RemoveFromCart(ctx context.Context, productID models.ID) error
	ApplyCoupon(ctx context.Context, code string) (string, error)
	RemoveCoupon(ctx context.Context) error
	ClearCart(ctx context.Context) error
}

type CatalogBackend interface {
	Branches(ctx context.Context) ([]models.Branch, error)
	Categories(ctx context.Context) ([]models.Category, error)
	BranchProducts(ctx context.Context, branchID models.ID, q models.ProductQuery) (*models.ProductPage, error)
}

type AuthBackend interface {
	Login(ctx context.Context, emailOrPhone, password string) (*models.Session, error)
}

type OrderBackend interface {
	Addresses(ctx context.Context) ([]models.Address, error)
	Checkout(ctx context.Context, req storefront.CheckoutRequest) (*models.Order, error)
	MyOrders(ctx context.Context) ([]models.Order, error)
	Order(ctx context.Context, id models.ID) (*models.Order, error)
	CancelOrder(ctx context.Context, id models.ID) error
}

var (
	_ CartBackend    = (*storefront.Client)(nil)
	_ CatalogBackend = (*storefront.Client)(nil)
	_ AuthBackend    = (*storefront.Client)(nil)
	_ OrderBackend   = (*storefront.Client)(nil)
)
