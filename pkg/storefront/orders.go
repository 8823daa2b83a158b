package storefront

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
)

type CheckoutRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	AddressID     models.ID            `json:"address_id"`
	BranchID      models.ID            `json:"branch_id"`
}

type checkoutResponse struct {
	Order *orderPayload `json:"order"`
}

func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*models.Order, error) {

	var resp checkoutResponse
	if err := c.do(ctx, request{op: "checkout", method: http.MethodPost, path: "/orders/checkout/", body: req, authed: true}, &resp); err != nil {
		return nil, err
	}

	if resp.Order == nil {
		return &models.Order{}, nil
	}

	return resp.Order.toOrder(), nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {

	var list listOf[orderPayload]
	if err := c.do(ctx, request{op: "list_orders", method: http.MethodGet, path: "/orders/my-orders/", authed: true}, &list); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(list.Items))
	for i := range list.Items {
		orders = append(orders, *list.Items[i].toOrder())
	}

	return orders, nil
}

func (c *Client) Order(ctx context.Context, id models.ID) (*models.Order, error) {

	var payload orderPayload
	path := "/orders/my-orders/" + url.PathEscape(id.String()) + "/"
	if err := c.do(ctx, request{op: "get_order", method: http.MethodGet, path: path, authed: true}, &payload); err != nil {
		return nil, err
	}

	return payload.toOrder(), nil
}

func (c *Client) CancelOrder(ctx context.Context, id models.ID) error {
	path := "/orders/my-orders/" + url.PathEscape(id.String()) + "/cancel/"
	return c.do(ctx, request{op: "cancel_order", method: http.MethodDelete, path: path, authed: true}, nil)
}
