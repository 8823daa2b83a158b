package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	service "github.com/aaravmahajanofficial/juicebar-storefront/internal/services"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// cartMutationResponse carries the mutation outcome and the cart the UI should render.
type cartMutationResponse struct {
	Result models.Result   `json:"result"`
	Cart   models.CartView `json:"cart"`
}

type CartHandler struct {
	cart      *service.CartStore
	zones     *service.ZoneService
	validator *validator.Validate
}

func NewCartHandler(cart *service.CartStore, zones *service.ZoneService) *CartHandler {
	return &CartHandler{cart: cart, zones: zones, validator: utils.NewValidator()}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.cart.View())
	}
}

func (h *CartHandler) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respond(w, r, "refresh", h.cart.Refresh(r.Context()))
	}
}

// Summary previews the bill for the current cart, e.g. GET /cart/summary?postal_code=520010
func (h *CartHandler) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		view := h.cart.View()

		estimate, err := h.zones.EstimateCart(view.Cart, r.URL.Query().Get("postal_code"))
		if err != nil {
			logger.Error("Failed to estimate cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.CartSummary{Cart: view, Zone: estimate.Zone, Bill: estimate.Bill})
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		h.respond(w, r, "add_item", h.cart.AddItem(r.Context(), req.ProductID, quantity))
	}
}

func (h *CartHandler) ChangeQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.ChangeQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		productID := models.ID(r.PathValue("productId"))

		h.respond(w, r, "change_quantity", h.cart.ChangeQuantity(r.Context(), productID, req.Action))
	}
}

func (h *CartHandler) UpdateInstructions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.UpdateInstructionsRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		productID := models.ID(r.PathValue("productId"))

		h.respond(w, r, "update_instructions", h.cart.UpdateInstructions(r.Context(), productID, req.Instructions))
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := models.ID(r.PathValue("productId"))
		h.respond(w, r, "remove_item", h.cart.RemoveItem(r.Context(), productID))
	}
}

func (h *CartHandler) ApplyCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.ApplyCouponRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		h.respond(w, r, "apply_coupon", h.cart.ApplyCoupon(r.Context(), req.Code))
	}
}

func (h *CartHandler) RemoveCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respond(w, r, "remove_coupon", h.cart.RemoveCoupon(r.Context()))
	}
}

func (h *CartHandler) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respond(w, r, "clear", h.cart.Clear(r.Context()))
	}
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, op string, res models.Result) {

	if !res.Success {
		middleware.LoggerFromContext(r.Context()).Info("Cart operation failed",
			slog.String("operation", op),
			slog.String("code", res.Code),
		)
	}

	response.Outcome(w, res, cartMutationResponse{Result: res, Cart: h.cart.View()})
}
