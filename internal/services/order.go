package service

import (
	"context"
	"log/slog"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
)

type OrderService struct {
	backend OrderBackend
	logger  *slog.Logger
}

func NewOrderService(backend OrderBackend, logger *slog.Logger) *OrderService {

	if logger == nil {
		logger = slog.Default()
	}

	return &OrderService{backend: backend, logger: logger}
}

func (s *OrderService) MyOrders(ctx context.Context) ([]models.Order, error) {
	return s.backend.MyOrders(ctx)
}

func (s *OrderService) GetOrder(ctx context.Context, id models.ID) (*models.Order, error) {

	if id.IsZero() {
		return nil, errors.InvalidInputError("Order id is required")
	}

	return s.backend.Order(ctx, id)
}

func (s *OrderService) CancelOrder(ctx context.Context, id models.ID) error {

	if id.IsZero() {
		return errors.InvalidInputError("Order id is required")
	}

	if err := s.backend.CancelOrder(ctx, id); err != nil {
		return err
	}

	s.logger.Info("🚫 Order cancelled", slog.String("order_id", id.String()))

	return nil
}
