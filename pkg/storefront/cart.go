package storefront

import (
	"context"
	"net/http"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
)

func (c *Client) GetCart(ctx context.Context) (*models.CartSnapshot, error) {

	var payload cartPayload
	if err := c.do(ctx, request{op: "get_cart", method: http.MethodGet, path: "/cart/", authed: true}, &payload); err != nil {
		return nil, err
	}

	return payload.toSnapshot(), nil
}

func (c *Client) AddToCart(ctx context.Context, productID models.ID, quantity int) error {
	body := cartItemRequest{JuiceID: productID, Quantity: quantity}
	return c.do(ctx, request{op: "add_to_cart", method: http.MethodPost, path: "/cart/add/", body: body, authed: true}, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, productID models.ID, action models.QuantityAction) error {
	body := cartItemRequest{JuiceID: productID, Action: string(action)}
	return c.do(ctx, request{op: "update_cart_item", method: http.MethodPost, path: "/cart/update/", body: body, authed: true}, nil)
}

func (c *Client) UpdateInstructions(ctx context.Context, productID models.ID, instructions string) error {
	body := cartItemRequest{JuiceID: productID, Instructions: &instructions}
	return c.do(ctx, request{op: "update_instructions", method: http.MethodPost, path: "/cart/update-instructions/", body: body, authed: true}, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, productID models.ID) error {
	body := cartItemRequest{JuiceID: productID}
	return c.do(ctx, request{op: "remove_from_cart", method: http.MethodDelete, path: "/cart/remove/", body: body, authed: true}, nil)
}

// ApplyCoupon returns the backend's confirmation message.
func (c *Client) ApplyCoupon(ctx context.Context, code string) (string, error) {

	var resp messageResponse
	body := map[string]string{"code": code}
	if err := c.do(ctx, request{op: "apply_coupon", method: http.MethodPost, path: "/cart/apply-coupon/", body: body, authed: true}, &resp); err != nil {
		return "", err
	}

	return resp.Message, nil
}

func (c *Client) RemoveCoupon(ctx context.Context) error {
	return c.do(ctx, request{op: "remove_coupon", method: http.MethodPost, path: "/cart/remove-coupon/", body: struct{}{}, authed: true}, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, request{op: "clear_cart", method: http.MethodDelete, path: "/cart/clear/", authed: true}, nil)
}
