package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	service "github.com/aaravmahajanofficial/juicebar-storefront/internal/services"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type selectedBranchResponse struct {
	Selected   *models.Branch `json:"selected"`
	CartBranch *models.Branch `json:"cart_branch"`
	CanSwitch  bool           `json:"can_switch"`
}

type BranchHandler struct {
	catalog   *service.CatalogService
	branches  *service.BranchService
	cart      *service.CartStore
	validator *validator.Validate
}

func NewBranchHandler(catalog *service.CatalogService, branches *service.BranchService, cart *service.CartStore) *BranchHandler {
	return &BranchHandler{catalog: catalog, branches: branches, cart: cart, validator: utils.NewValidator()}
}

func (h *BranchHandler) ListBranches() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		branches, err := h.catalog.Branches(r.Context())
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to list branches", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, branches)
	}
}

func (h *BranchHandler) ListCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		categories, err := h.catalog.Categories(r.Context())
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to list categories", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, categories)
	}
}

func (h *BranchHandler) Selected() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, selectedBranchResponse{
			Selected:   h.branches.Selected(),
			CartBranch: h.branches.CartBranch(),
			CanSwitch:  service.CanSwitchBranch(h.cart.Snapshot()),
		})
	}
}

// for eg: GET /branches/{id}/products?page=1&page_size=20&category_id=3
func (h *BranchHandler) BranchProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		query, err := productQuery(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		page, err := h.catalog.BranchProducts(r.Context(), models.ID(r.PathValue("id")), query)
		if err != nil {
			logger.Error("Failed to fetch branch products", slog.String("branch_id", r.PathValue("id")), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, page)
	}
}

func (h *BranchHandler) Switch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.SwitchBranchRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.branches.Switch(r.Context(), req)
		if err != nil {
			logger.Warn("Branch switch failed", slog.String("branch_id", req.BranchID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, resp)
	}
}

func productQuery(r *http.Request) (models.ProductQuery, error) {

	var q models.ProductQuery
	values := r.URL.Query()

	for name, dest := range map[string]*int{"page": &q.Page, "page_size": &q.PageSize} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.AddValidationError(name, "must be a number")
		}
		*dest = n
	}

	q.CategoryID = models.ID(values.Get("category_id"))

	return q, nil
}
