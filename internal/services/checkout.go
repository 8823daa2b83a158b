package service

import (
	"context"
	"log/slog"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/pricing"
	"github.com/aaravmahajanofficial/juicebar-storefront/pkg/storefront"
	"golang.org/x/sync/errgroup"
)

const (
	BlockerEmptyCart     = "Your cart is empty"
	BlockerNoAddress     = "Please add a delivery address"
	BlockerUndeliverable = "Sorry, the selected address is outside our delivery zone. Please choose a different address."
	BlockerNoBranch      = "Please select a branch from the menu"
)

// CheckoutService previews the bill for the chosen address and places orders. The
// preview is an estimate; the order returned by the backend carries the real amount.
type CheckoutService struct {
	backend  OrderBackend
	cart     *CartStore
	branches *BranchService
	zones    *ZoneService
	logger   *slog.Logger
}

func NewCheckoutService(backend OrderBackend, cart *CartStore, branches *BranchService, zones *ZoneService, logger *slog.Logger) *CheckoutService {

	if logger == nil {
		logger = slog.Default()
	}

	return &CheckoutService{backend: backend, cart: cart, branches: branches, zones: zones, logger: logger}
}

// Preview fetches addresses and the latest cart in parallel. An empty addressID picks
// the default address, else the first one.
func (s *CheckoutService) Preview(ctx context.Context, addressID models.ID) (*models.CheckoutPreview, error) {

	var addresses []models.Address

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		list, err := s.backend.Addresses(gctx)
		if err != nil {
			return err
		}
		addresses = list
		return nil
	})

	g.Go(func() error {
		res := s.cart.Refresh(gctx)
		switch {
		case res.Success:
		case res.Code == errors.ErrCodeNotAuthenticated:
			return errors.NotAuthenticatedError(res.Message)
		case res.Code == errors.ErrCodeSessionExpired:
			return errors.SessionExpiredError(res.Message)
		default:
			s.logger.Warn("⚠️ Cart refresh for checkout failed, using current cart", slog.String("code", res.Code))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	address := pickAddress(addresses, addressID)
	if !addressID.IsZero() && address == nil {
		return nil, errors.NotFoundError("Address not found")
	}

	preview := &models.CheckoutPreview{
		Address: address,
		Cart:    s.cart.Snapshot(),
		Branch:  s.branches.Selected(),
	}

	postalCode := ""
	if address != nil {
		postalCode = address.Pincode
	}
	preview.Zone = s.zones.Resolve(postalCode)

	bill, err := pricing.EstimateCart(preview.Cart, preview.Zone)
	if err != nil {
		return nil, err
	}
	preview.Bill = bill.Rounded()

	preview.Blocker = blocker(preview)
	preview.CanPlace = preview.Blocker == ""

	return preview, nil
}

// PlaceOrder re-checks the gating rules, submits the order and resets the cart.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.Order, error) {

	if req.PaymentMethod != models.PaymentMethodCOD && req.PaymentMethod != models.PaymentMethodOnline {
		return nil, errors.InvalidInputError("Payment method must be cod or online")
	}

	preview, err := s.Preview(ctx, req.AddressID)
	if err != nil {
		return nil, err
	}

	if !preview.CanPlace {
		if preview.Blocker == BlockerUndeliverable {
			return nil, errors.UnserviceableAreaError(preview.Blocker)
		}
		return nil, errors.InvalidInputError(preview.Blocker)
	}

	order, err := s.backend.Checkout(ctx, storefront.CheckoutRequest{
		PaymentMethod: req.PaymentMethod,
		AddressID:     preview.Address.ID,
		BranchID:      preview.Branch.ID,
	})
	if err != nil {
		s.logger.Warn("⚠️ Order placement failed", slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("✅ Order placed",
		slog.String("order_id", order.ID.String()),
		slog.String("payment_method", string(req.PaymentMethod)),
		slog.String("total", order.TotalAmount.Display()),
	)

	if res := s.cart.ResetAfterOrder(ctx); !res.Success {
		s.logger.Info("Cart reset after order failed", slog.String("code", res.Code))
	}

	return order, nil
}

func pickAddress(addresses []models.Address, id models.ID) *models.Address {

	if len(addresses) == 0 {
		return nil
	}

	if !id.IsZero() {
		for i := range addresses {
			if addresses[i].ID == id {
				return &addresses[i]
			}
		}
		return nil
	}

	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i]
		}
	}

	return &addresses[0]
}

func blocker(p *models.CheckoutPreview) string {
	switch {
	case p.Cart.IsEmpty():
		return BlockerEmptyCart
	case p.Address == nil:
		return BlockerNoAddress
	case !p.Zone.Valid:
		return BlockerUndeliverable
	case p.Branch == nil:
		return BlockerNoBranch
	default:
		return ""
	}
}
