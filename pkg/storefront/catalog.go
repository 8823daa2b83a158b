package storefront

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
)

func (c *Client) Branches(ctx context.Context) ([]models.Branch, error) {

	var list listOf[models.Branch]
	if err := c.do(ctx, request{op: "list_branches", method: http.MethodGet, path: "/products/branches/", authed: false}, &list); err != nil {
		return nil, err
	}

	return list.Items, nil
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {

	var list listOf[models.Category]
	if err := c.do(ctx, request{op: "list_categories", method: http.MethodGet, path: "/products/categories/", authed: false}, &list); err != nil {
		return nil, err
	}

	return list.Items, nil
}

func (c *Client) BranchProducts(ctx context.Context, branchID models.ID, q models.ProductQuery) (*models.ProductPage, error) {

	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("page_size", strconv.Itoa(q.PageSize))
	if !q.CategoryID.IsZero() {
		query.Set("category_id", q.CategoryID.String())
	}

	path := "/products/branches/" + url.PathEscape(branchID.String()) + "/products/"

	var list listOf[models.Product]
	if err := c.do(ctx, request{op: "list_branch_products", method: http.MethodGet, path: path, query: query, authed: false}, &list); err != nil {
		return nil, err
	}

	return &models.ProductPage{
		Results:  list.Items,
		Count:    list.Count,
		Page:     q.Page,
		PageSize: q.PageSize,
		HasNext:  list.Next != nil && *list.Next != "",
	}, nil
}
