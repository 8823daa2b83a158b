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

type CheckoutHandler struct {
	checkout  *service.CheckoutService
	validator *validator.Validate
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, validator: utils.NewValidator()}
}

// Preview answers GET /checkout/preview?address_id=12; without an id the default
// address is used.
func (h *CheckoutHandler) Preview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		preview, err := h.checkout.Preview(r.Context(), models.ID(r.URL.Query().Get("address_id")))
		if err != nil {
			logger.Warn("Checkout preview failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, preview)
	}
}

func (h *CheckoutHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.PlaceOrderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid place order input")
			return
		}

		order, err := h.checkout.PlaceOrder(r.Context(), req)
		if err != nil {
			logger.Warn("Failed to place order", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order placed successfully", slog.String("order_id", order.ID.String()))
		response.Success(w, http.StatusCreated, order)
	}
}
