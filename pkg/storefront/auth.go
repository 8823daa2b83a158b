package storefront

import (
	"context"
	"net/http"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
)

type loginRequest struct {
	EmailOrPhone string `json:"email_or_phone"`
	Password     string `json:"password"`
}

type loginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// Login authenticates with the backend. It does not persist anything.
func (c *Client) Login(ctx context.Context, emailOrPhone, password string) (*models.Session, error) {

	var resp loginResponse
	body := loginRequest{EmailOrPhone: emailOrPhone, Password: password}
	if err := c.do(ctx, request{op: "login", method: http.MethodPost, path: "/users/login/", body: body}, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		return nil, errors.ServerRejectedError(http.StatusBadGateway, MsgServerError).WithDetail("login response had no access token")
	}

	return &models.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}, nil
}

func (c *Client) Addresses(ctx context.Context) ([]models.Address, error) {

	var list listOf[models.Address]
	if err := c.do(ctx, request{op: "list_addresses", method: http.MethodGet, path: "/addresses/", authed: true}, &list); err != nil {
		return nil, err
	}

	return list.Items, nil
}
