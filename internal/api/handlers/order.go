package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	service "github.com/aaravmahajanofficial/juicebar-storefront/internal/services"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils/response"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		orders, err := h.orderService.MyOrders(r.Context())
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, orders)
	}
}

func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		orderID := models.ID(r.PathValue("id"))

		order, err := h.orderService.GetOrder(r.Context(), orderID)
		if err != nil {
			logger.Warn("Failed to retrieve order", slog.String("order_id", orderID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

func (h *OrderHandler) CancelOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		orderID := models.ID(r.PathValue("id"))

		if err := h.orderService.CancelOrder(r.Context(), orderID); err != nil {
			logger.Warn("Failed to cancel order", slog.String("order_id", orderID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, map[string]string{"message": "Order cancelled"})
	}
}
